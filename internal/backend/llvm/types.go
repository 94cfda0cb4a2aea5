package llvm

import (
	"fortio.org/safecast"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

func intType(bits int) *lltypes.IntType {
	switch bits {
	case 1:
		return lltypes.I1
	case 8:
		return lltypes.I8
	case 16:
		return lltypes.I16
	case 32:
		return lltypes.I32
	case 64:
		return lltypes.I64
	}
	n, err := safecast.Conv[uint64](bits)
	if err != nil {
		panic(err)
	}
	return lltypes.NewInt(n)
}

// sizeType is the integer type matching the target pointer width.
func (e *Emitter) sizeType() *lltypes.IntType {
	return intType(e.layout.Target.PtrBits())
}

// llvmType maps a source type onto its IR representation. Pointer-like
// kinds become typed pointers; an opaque or void pointee becomes i8*.
func (e *Emitter) llvmType(t types.Type) lltypes.Type {
	t = types.Unwrap(t)
	switch t.Kind {
	case types.KindInt, types.KindUint, types.KindChar, types.KindBool:
		bits, _ := types.IntBits(t, e.layout.Target.PtrBits())
		return intType(bits)
	case types.KindFloat:
		if t.Width == types.Width32 {
			return lltypes.Float
		}
		return lltypes.Double
	case types.KindVoid:
		return lltypes.Void
	case types.KindPtr, types.KindMut, types.KindArray:
		return e.pointerTo(t.Elem)
	case types.KindFixedArray:
		if t.Elem == nil {
			break
		}
		n, err := safecast.Conv[uint64](t.Len)
		if err != nil {
			break
		}
		return lltypes.NewArray(n, e.llvmType(*t.Elem))
	case types.KindStruct:
		return e.structType(t)
	case types.KindFn:
		return lltypes.NewPointer(e.fnType(t))
	}
	diag.Abort(0, diag.GenUnsupported, t.Span, "type '%s' has no IR representation", t)
	return nil
}

func (e *Emitter) pointerTo(elem *types.Type) *lltypes.PointerType {
	if elem == nil || types.IsVoid(*elem) {
		return lltypes.I8Ptr
	}
	return lltypes.NewPointer(e.llvmType(*elem))
}

func (e *Emitter) fnType(t types.Type) *lltypes.FuncType {
	params := make([]lltypes.Type, 0, len(t.Params))
	for _, p := range t.Params {
		params = append(params, e.llvmType(p))
	}
	var ret lltypes.Type = lltypes.Void
	if t.Ret != nil {
		ret = e.llvmType(*t.Ret)
	}
	ft := lltypes.NewFunc(ret, params...)
	ft.Variadic = t.Variadic
	return ft
}

// structType returns the named type definition for a struct, creating it
// on first use. The definition is registered before its fields are
// lowered so self-referencing pointers resolve to it.
func (e *Emitter) structType(t types.Type) *lltypes.StructType {
	packed := t.Modifiers.Packed
	if t.Name == "" {
		st := lltypes.NewStruct(e.fieldTypes(t)...)
		st.Packed = packed
		return st
	}
	key := structKey{name: t.Name, packed: packed}
	if st, ok := e.structs[key]; ok {
		return st
	}
	name := t.Name
	if _, taken := e.typeNames[name]; taken {
		name += ".packed"
		if !packed {
			name = t.Name + ".natural"
		}
	}
	e.typeNames[name] = struct{}{}
	st := lltypes.NewStruct()
	st.Packed = packed
	e.mod.NewTypeDef(name, st)
	e.structs[key] = st
	st.Fields = e.fieldTypes(t)
	return st
}

func (e *Emitter) fieldTypes(t types.Type) []lltypes.Type {
	fields := make([]lltypes.Type, 0, len(t.Fields))
	for _, f := range t.Fields {
		fields = append(fields, e.llvmType(f))
	}
	return fields
}

// isAggregate reports types lowered to IR arrays or structs.
func isAggregate(t types.Type) bool {
	switch types.Unwrap(t).Kind {
	case types.KindStruct, types.KindFixedArray:
		return true
	}
	return false
}
