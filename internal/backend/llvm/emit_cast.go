package llvm

import (
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/thrushlang/thrushc-sub009/internal/types"
)

func isIntLike(t types.Type) bool {
	switch types.Unwrap(t).Kind {
	case types.KindInt, types.KindUint, types.KindChar, types.KindBool:
		return true
	}
	return false
}

// numericCast converts v between two integer types or two float types.
// Integers are extended according to the signedness of the source and
// truncated otherwise; equal widths reinterpret the bits and emit nothing.
// Any other pair of types returns v unchanged.
func (fe *funcEmitter) numericCast(v value.Value, from, to types.Type) value.Value {
	if types.Equal(types.Narrowing(types.Unwrap(from)), types.Unwrap(to)) {
		return v
	}
	ptrBits := fe.e.layout.Target.PtrBits()
	switch {
	case isIntLike(from) && isIntLike(to):
		fb, _ := types.IntBits(from, ptrBits)
		tb, _ := types.IntBits(to, ptrBits)
		dst := intType(tb)
		switch {
		case fb < tb && types.IsSigned(from):
			return fe.cur.NewSExt(v, dst)
		case fb < tb:
			return fe.cur.NewZExt(v, dst)
		case fb > tb:
			return fe.cur.NewTrunc(v, dst)
		}
		return v
	case types.IsFloat(from) && types.IsFloat(to):
		fw, tw := types.Unwrap(from).Width, types.Unwrap(to).Width
		switch {
		case fw < tw:
			return fe.cur.NewFPExt(v, lltypes.Double)
		case fw > tw:
			return fe.cur.NewFPTrunc(v, lltypes.Float)
		}
	}
	return v
}

// emitCast lowers an explicit `as` conversion. Pairs with no conversion
// instruction come back unchanged.
func (fe *funcEmitter) emitCast(v value.Value, from, to types.Type) value.Value {
	if types.Equal(from, to) {
		return v
	}
	switch {
	case isIntLike(from) && isIntLike(to), types.IsFloat(from) && types.IsFloat(to):
		return fe.numericCast(v, from, to)
	case isIntLike(from) && types.IsFloat(to):
		if types.IsSigned(from) {
			return fe.cur.NewSIToFP(v, fe.e.llvmType(to))
		}
		return fe.cur.NewUIToFP(v, fe.e.llvmType(to))
	case types.IsFloat(from) && isIntLike(to):
		if types.IsSigned(to) {
			return fe.cur.NewFPToSI(v, fe.e.llvmType(to))
		}
		return fe.cur.NewFPToUI(v, fe.e.llvmType(to))
	case types.IsPtrLike(from) && types.IsPtrLike(to):
		dst := fe.e.llvmType(to)
		if lltypes.Equal(v.Type(), dst) {
			return v
		}
		return fe.cur.NewBitCast(v, dst)
	case types.IsPtrLike(from) && isIntLike(to):
		return fe.cur.NewPtrToInt(v, fe.e.llvmType(to))
	case isIntLike(from) && types.IsPtrLike(to):
		return fe.cur.NewIntToPtr(v, fe.e.llvmType(to))
	}
	return v
}

// coerce converts v to the declared type to when the two differ.
func (fe *funcEmitter) coerce(v value.Value, from, to types.Type) value.Value {
	if v == nil || to.Kind == types.KindInvalid || from.Kind == types.KindInvalid {
		return v
	}
	return fe.emitCast(v, from, to)
}
