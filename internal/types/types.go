package types

import (
	"fmt"

	"github.com/thrushlang/thrushc-sub009/internal/source"
)

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindUint
	KindFloat
	KindBool
	KindChar
	KindVoid
	KindPtr
	KindMut
	KindConst
	KindFixedArray
	KindArray
	KindStruct
	KindFn
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindVoid:
		return "void"
	case KindPtr:
		return "ptr"
	case KindMut:
		return "mut"
	case KindConst:
		return "const"
	case KindFixedArray:
		return "fixed-array"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindFn:
		return "fn"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats.
type Width uint8

const (
	// WidthSize is the pointer-sized width (ssize/usize).
	WidthSize Width = 0
	Width8    Width = 8
	Width16   Width = 16
	Width32   Width = 32
	Width64   Width = 64
)

// StructModifiers carries layout attributes validated by the attribute checker.
type StructModifiers struct {
	Packed bool `msgpack:"packed,omitempty"`
}

// Type is a closed recursive descriptor for every type the backend lowers.
// Composite payloads are only meaningful for their kind:
//
//	Ptr         Elem (nil = opaque pointer)
//	Mut, Const  Elem
//	FixedArray  Elem, Len
//	Array       Elem
//	Struct      Name, Fields, Modifiers
//	Fn          Params, Ret, Variadic
type Type struct {
	Kind      Kind            `msgpack:"k"`
	Width     Width           `msgpack:"w,omitempty"`
	Elem      *Type           `msgpack:"el,omitempty"`
	Len       uint32          `msgpack:"n,omitempty"`
	Name      string          `msgpack:"name,omitempty"`
	Fields    []Type          `msgpack:"fields,omitempty"`
	Modifiers StructModifiers `msgpack:"mods,omitempty"`
	Params    []Type          `msgpack:"params,omitempty"`
	Ret       *Type           `msgpack:"ret,omitempty"`
	Variadic  bool            `msgpack:"va,omitempty"`
	Span      source.Span     `msgpack:"sp"`
}

// Descriptor helpers ---------------------------------------------------------

// MakeInt describes a signed integer of the given width (WidthSize for ssize).
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

func MakeBool() Type { return Type{Kind: KindBool} }
func MakeChar() Type { return Type{Kind: KindChar} }
func MakeVoid() Type { return Type{Kind: KindVoid} }

// MakePtr describes a typed pointer. MakeOpaquePtr describes `ptr` without a pointee.
func MakePtr(elem Type) Type {
	return Type{Kind: KindPtr, Elem: &elem}
}

func MakeOpaquePtr() Type {
	return Type{Kind: KindPtr}
}

func MakeMut(elem Type) Type {
	return Type{Kind: KindMut, Elem: &elem}
}

func MakeConst(elem Type) Type {
	return Type{Kind: KindConst, Elem: &elem}
}

func MakeFixedArray(elem Type, length uint32) Type {
	return Type{Kind: KindFixedArray, Elem: &elem, Len: length}
}

func MakeArray(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

func MakeStruct(name string, fields []Type, mods StructModifiers) Type {
	return Type{Kind: KindStruct, Name: name, Fields: fields, Modifiers: mods}
}

func MakeFn(params []Type, ret Type, variadic bool) Type {
	return Type{Kind: KindFn, Params: params, Ret: &ret, Variadic: variadic}
}

// At returns a copy of t attributed to span.
func (t Type) At(span source.Span) Type {
	t.Span = span
	return t
}

// Common primitives, spanless.
var (
	S8    = MakeInt(Width8)
	S16   = MakeInt(Width16)
	S32   = MakeInt(Width32)
	S64   = MakeInt(Width64)
	SSize = MakeInt(WidthSize)
	U8    = MakeUint(Width8)
	U16   = MakeUint(Width16)
	U32   = MakeUint(Width32)
	U64   = MakeUint(Width64)
	USize = MakeUint(WidthSize)
	F32   = MakeFloat(Width32)
	F64   = MakeFloat(Width64)
	Bool  = MakeBool()
	Char  = MakeChar()
	Void  = MakeVoid()
)
