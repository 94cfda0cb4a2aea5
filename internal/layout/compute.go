package layout

import (
	"fortio.org/safecast"

	"github.com/thrushlang/thrushc-sub009/internal/types"
)

func (e *Engine) compute(t types.Type, depth int) (Layout, *Error) {
	switch t.Kind {
	case types.KindBool, types.KindChar:
		return Layout{Size: 1, Align: 1}, nil
	case types.KindInt, types.KindUint, types.KindFloat:
		if t.Width == types.WidthSize {
			return e.pointer(), nil
		}
		n := int(t.Width) / 8
		return Layout{Size: n, Align: max(n, 1)}, nil
	case types.KindPtr, types.KindMut, types.KindArray, types.KindFn:
		// arrays are handles to heap storage
		return e.pointer(), nil
	case types.KindConst:
		if t.Elem != nil {
			return e.of(*t.Elem, depth+1)
		}
	case types.KindFixedArray:
		if t.Elem != nil {
			return e.fixedArray(t, depth)
		}
	case types.KindStruct:
		return e.record(t, depth)
	}
	return unsized, &Error{Kind: ErrUnsized, Type: t}
}

func (e *Engine) pointer() Layout {
	size := e.Target.PtrSize
	if size <= 0 {
		size = 8
	}
	align := e.Target.PtrAlign
	if align <= 0 {
		align = size
	}
	return Layout{Size: size, Align: align}
}

// alignUp rounds n up to a multiple of align.
func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func (e *Engine) fixedArray(t types.Type, depth int) (Layout, *Error) {
	elem, err := e.of(*t.Elem, depth+1)
	if err != nil {
		return unsized, err
	}
	n, convErr := safecast.Conv[int](t.Len)
	if convErr != nil {
		return unsized, &Error{Kind: ErrLength, Type: t, Err: convErr}
	}
	align := max(elem.Align, 1)
	return Layout{Size: alignUp(elem.Size, align) * n, Align: align}, nil
}

// record lays fields out in order. Packed structs have alignment 1 and
// no padding.
func (e *Engine) record(t types.Type, depth int) (Layout, *Error) {
	out := Layout{Align: 1, Offsets: make([]int, len(t.Fields))}
	for i, field := range t.Fields {
		fl, err := e.of(field, depth+1)
		if err != nil {
			return unsized, err
		}
		if !t.Modifiers.Packed {
			align := max(fl.Align, 1)
			out.Size = alignUp(out.Size, align)
			out.Align = max(out.Align, align)
		}
		out.Offsets[i] = out.Size
		out.Size += fl.Size
	}
	out.Size = alignUp(out.Size, out.Align)
	return out, nil
}
