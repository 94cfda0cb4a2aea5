package types

// Equal reports structural equality of two types. Spans are ignored at
// every depth.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt, KindUint, KindFloat:
		return a.Width == b.Width
	case KindPtr, KindMut, KindConst, KindArray:
		return equalPtr(a.Elem, b.Elem)
	case KindFixedArray:
		return a.Len == b.Len && equalPtr(a.Elem, b.Elem)
	case KindStruct:
		return a.Name == b.Name && a.Modifiers == b.Modifiers && equalList(a.Fields, b.Fields)
	case KindFn:
		return a.Variadic == b.Variadic && equalPtr(a.Ret, b.Ret) && equalList(a.Params, b.Params)
	default:
		return true
	}
}

func equalPtr(a, b *Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Equal(*a, *b)
}

func equalList(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
