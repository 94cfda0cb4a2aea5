package types

import (
	"strconv"
	"strings"
)

// String renders t in source spelling.
func (t Type) String() string {
	var sb strings.Builder
	writeLabel(&sb, t, 0)
	return sb.String()
}

func writeLabel(sb *strings.Builder, t Type, depth int) {
	if depth > 8 {
		sb.WriteString("...")
		return
	}
	switch t.Kind {
	case KindInt:
		sb.WriteString(formatIntType(t.Width, true))
	case KindUint:
		sb.WriteString(formatIntType(t.Width, false))
	case KindFloat:
		sb.WriteString("f")
		sb.WriteString(strconv.Itoa(int(t.Width)))
	case KindBool:
		sb.WriteString("bool")
	case KindChar:
		sb.WriteString("char")
	case KindVoid:
		sb.WriteString("void")
	case KindPtr:
		sb.WriteString("ptr")
		if t.Elem != nil {
			sb.WriteString("[")
			writeLabel(sb, *t.Elem, depth+1)
			sb.WriteString("]")
		}
	case KindMut:
		sb.WriteString("mut ")
		writeElem(sb, t, depth)
	case KindConst:
		sb.WriteString("const ")
		writeElem(sb, t, depth)
	case KindFixedArray:
		sb.WriteString("array[")
		writeElem(sb, t, depth)
		sb.WriteString("; ")
		sb.WriteString(strconv.FormatUint(uint64(t.Len), 10))
		sb.WriteString("]")
	case KindArray:
		sb.WriteString("array[")
		writeElem(sb, t, depth)
		sb.WriteString("]")
	case KindStruct:
		if t.Name != "" {
			sb.WriteString(t.Name)
			return
		}
		sb.WriteString("struct {")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeLabel(sb, f, depth+1)
		}
		sb.WriteString("}")
	case KindFn:
		sb.WriteString("fn(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeLabel(sb, p, depth+1)
		}
		if t.Variadic {
			if len(t.Params) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
		}
		sb.WriteString(") ")
		if t.Ret != nil {
			writeLabel(sb, *t.Ret, depth+1)
		} else {
			sb.WriteString("void")
		}
	default:
		sb.WriteString("?")
	}
}

func writeElem(sb *strings.Builder, t Type, depth int) {
	if t.Elem == nil {
		sb.WriteString("?")
		return
	}
	writeLabel(sb, *t.Elem, depth+1)
}

func formatIntType(width Width, signed bool) string {
	prefix := "u"
	if signed {
		prefix = "s"
	}
	if width == WidthSize {
		return prefix + "size"
	}
	return prefix + strconv.Itoa(int(width))
}
