package types

// Narrowing flips the signedness of an integer type without changing its
// width. Every other type is returned unchanged.
func Narrowing(t Type) Type {
	switch t.Kind {
	case KindInt:
		t.Kind = KindUint
	case KindUint:
		t.Kind = KindInt
	}
	return t
}

// Dereference returns the pointee of a typed pointer. Opaque pointers and
// non-pointers are returned unchanged; pointer-ness is checked upstream.
func Dereference(t Type) Type {
	if t.Kind == KindPtr && t.Elem != nil {
		return *t.Elem
	}
	return t
}

// StructFields returns the field types of a struct, nil for anything else.
func StructFields(t Type) []Type {
	if t.Kind != KindStruct {
		return nil
	}
	return t.Fields
}

// FnRefType unwraps a function type to its return type.
func FnRefType(t Type) Type {
	if t.Kind == KindFn && t.Ret != nil {
		return *t.Ret
	}
	return t
}

// Unwrap strips Const wrappers.
func Unwrap(t Type) Type {
	for t.Kind == KindConst && t.Elem != nil {
		t = *t.Elem
	}
	return t
}

// ElemType returns the element type of arrays, pointers and Mut/Const
// wrappers; ok is false for other kinds or opaque pointers.
func ElemType(t Type) (Type, bool) {
	switch t.Kind {
	case KindPtr, KindMut, KindConst, KindFixedArray, KindArray:
		if t.Elem == nil {
			return Type{}, false
		}
		return *t.Elem, true
	}
	return Type{}, false
}

// Ref returns the type of a pointer to a value of type t. Pointer-like
// types are already references and come back unchanged.
func Ref(t Type) Type {
	if IsPtrLike(t) {
		return t
	}
	return MakePtr(t).At(t.Span)
}

func IsInteger(t Type) bool {
	t = Unwrap(t)
	return t.Kind == KindInt || t.Kind == KindUint || t.Kind == KindChar
}

// IsSigned reports whether t is a signed integer.
func IsSigned(t Type) bool {
	return Unwrap(t).Kind == KindInt
}

func IsFloat(t Type) bool {
	return Unwrap(t).Kind == KindFloat
}

func IsBool(t Type) bool {
	return Unwrap(t).Kind == KindBool
}

func IsVoid(t Type) bool {
	return Unwrap(t).Kind == KindVoid
}

func IsStruct(t Type) bool {
	return Unwrap(t).Kind == KindStruct
}

func IsPtr(t Type) bool {
	return Unwrap(t).Kind == KindPtr
}

// IsPtrLike reports types whose IR representation is a pointer value.
func IsPtrLike(t Type) bool {
	switch Unwrap(t).Kind {
	case KindPtr, KindMut, KindArray, KindFn:
		return true
	}
	return false
}

// IntBits returns the bit width of integer-like types; ptrBits is used
// for WidthSize. ok is false for non-integers.
func IntBits(t Type, ptrBits int) (bits int, ok bool) {
	t = Unwrap(t)
	switch t.Kind {
	case KindInt, KindUint:
		if t.Width == WidthSize {
			return ptrBits, true
		}
		return int(t.Width), true
	case KindChar:
		return 8, true
	case KindBool:
		return 1, true
	}
	return 0, false
}
