package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/symbols"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

func (fe *funcEmitter) emitAlloc(x *ast.Expr, d ast.AllocData) value.Value {
	return fe.e.resolveSite(d.Site, d.Elem, d.Name, x.Span)
}

func (fe *funcEmitter) emitLoad(x *ast.Expr, d ast.LoadData) value.Value {
	ptr, elem := fe.storageOf(d.Source, d.Type)
	if elem.Kind == types.KindInvalid {
		if d.Cast != nil {
			diag.Abort(0, diag.GenBadOperand, x.Span, "cannot infer the loaded type from '%s'", d.Source.Type)
		}
		elem = x.Type
	}
	v := fe.load(ptr, elem, d.Modifiers, x.Span)
	if d.Cast == nil || types.Equal(*d.Cast, elem) {
		return v
	}
	return fe.numericCast(v, elem, *d.Cast)
}

func (fe *funcEmitter) emitWrite(x *ast.Expr, d ast.WriteData) value.Value {
	ptr, elem := fe.storageOf(d.Target, d.WriteType)
	if elem.Kind == types.KindInvalid {
		elem = d.WriteType
	}
	if name, ok := ast.AsRef(d.Target); ok {
		fe.e.syms.MarkMutated(name)
	}
	v := fe.coerce(fe.emitExpr(d.Value), d.Value.Type, elem)
	fe.store(v, ptr, elem, d.Modifiers, x.Span)
	return nil
}

func (fe *funcEmitter) emitDeref(x *ast.Expr, d ast.DerefData) value.Value {
	ptr := fe.emitExpr(d.Value)
	elem := pointee(d.Value.Type)
	if elem.Kind == types.KindInvalid {
		elem = x.Type
	}
	return fe.load(ptr, elem, d.Modifiers, x.Span)
}

// emitAddress computes a pointer into base without reading the addressed
// memory. Aggregate bases get the leading zero index; for a scalar
// pointee the first index steps over whole elements.
func (fe *funcEmitter) emitAddress(x *ast.Expr, d ast.AddressData) value.Value {
	ptr, elem := fe.storageOf(d.Base, types.Type{})
	if elem.Kind == types.KindInvalid {
		diag.Abort(0, diag.GenBadOperand, x.Span, "cannot address through '%s'", d.Base.Type)
	}
	if len(d.Indexes) == 0 {
		return ptr
	}
	lelem := fe.e.llvmType(elem)
	ptr = fe.pointerAs(ptr, lelem)

	var idx []value.Value
	rest := d.Indexes
	if isAggregate(elem) {
		idx = append(idx, constant.NewInt(lltypes.I32, 0))
	} else {
		idx = append(idx, fe.indexValue(rest[0]))
		rest = rest[1:]
	}
	cur := types.Unwrap(elem)
	for _, ix := range rest {
		switch cur.Kind {
		case types.KindStruct:
			n := fe.constIndex(ix, len(cur.Fields))
			idx = append(idx, constant.NewInt(lltypes.I32, int64(n)))
			cur = types.Unwrap(cur.Fields[n])
		case types.KindFixedArray:
			idx = append(idx, fe.indexValue(ix))
			cur = types.Unwrap(*cur.Elem)
		default:
			diag.Abort(0, diag.GenBadIndex, ix.Span, "cannot index into '%s'", cur)
		}
	}
	gep := fe.cur.NewGetElementPtr(lelem, ptr, idx...)
	gep.InBounds = true
	return gep
}

// storageOf returns the location an instruction of type want reaches
// through x, with the type stored there. A bare name resolves through
// the symbol table: a slot of non-pointer type is the location itself,
// while a slot holding a pointer contributes that pointer unless want is
// the slot's own type. Anything else is lowered and must produce a
// pointer. want is the invalid type for Address.
func (fe *funcEmitter) storageOf(x *ast.Expr, want types.Type) (value.Value, types.Type) {
	if name, ok := ast.AsRef(x); ok {
		sym := fe.lookup(name, x.Span)
		switch sym.Kind {
		case symbols.SymbolLocal, symbols.SymbolParam, symbols.SymbolStatic:
			if !types.IsPtrLike(sym.Type) || types.Equal(want, sym.Type) {
				return sym.Handle, sym.Type
			}
			return fe.load(sym.Handle, sym.Type, ast.Modifiers{}, x.Span), elemOr(want, sym.Type)
		case symbols.SymbolConst:
			return sym.Handle, sym.Type
		case symbols.SymbolLLI:
			return sym.Handle, elemOr(want, sym.Type)
		default:
			diag.Abort(1, diag.GenBadOperand, x.Span, "'%s' is a %s, not storage", name, sym.Kind)
		}
	}
	return fe.emitExpr(x), elemOr(want, x.Type)
}

func elemOr(want, ptr types.Type) types.Type {
	if want.Kind != types.KindInvalid {
		return want
	}
	return pointee(ptr)
}

func (fe *funcEmitter) lookup(name string, span source.Span) symbols.Symbol {
	sym, ok := fe.e.syms.Lookup(name)
	if !ok || sym.Handle == nil {
		diag.Abort(1, diag.GenUnboundSymbol, span, "'%s' has no storage bound", name)
	}
	fe.e.syms.MarkUsed(name)
	return sym
}

// pointee returns what a pointer-like type points at, or the invalid
// type for opaque pointers and non-pointers.
func pointee(t types.Type) types.Type {
	t = types.Unwrap(t)
	var elem types.Type
	switch t.Kind {
	case types.KindPtr:
		if t.Elem == nil {
			return types.Type{}
		}
		elem = types.Dereference(t)
	case types.KindMut, types.KindArray:
		elem, _ = types.ElemType(t)
	default:
		return types.Type{}
	}
	if types.IsVoid(elem) {
		return types.Type{}
	}
	return elem
}

// pointerAs retypes ptr to point at elem when it does not already.
func (fe *funcEmitter) pointerAs(ptr value.Value, elem lltypes.Type) value.Value {
	if pt, ok := ptr.Type().(*lltypes.PointerType); ok && lltypes.Equal(pt.ElemType, elem) {
		return ptr
	}
	if c, ok := ptr.(constant.Constant); ok {
		return constant.NewBitCast(c, lltypes.NewPointer(elem))
	}
	return fe.cur.NewBitCast(ptr, lltypes.NewPointer(elem))
}

func (fe *funcEmitter) load(ptr value.Value, ty types.Type, mods ast.Modifiers, span source.Span) *ir.InstLoad {
	lty := fe.e.llvmType(ty)
	ld := fe.cur.NewLoad(lty, fe.pointerAs(ptr, lty))
	ld.Volatile = mods.Volatile
	if mods.Atomic() {
		ld.Atomic = true
		ld.Ordering = loadOrdering(mods.Ordering)
	}
	ld.Align = fe.e.alignOf(ty, span)
	return ld
}

func (fe *funcEmitter) store(v, ptr value.Value, ty types.Type, mods ast.Modifiers, span source.Span) *ir.InstStore {
	st := fe.cur.NewStore(v, fe.pointerAs(ptr, v.Type()))
	st.Volatile = mods.Volatile
	if mods.Atomic() {
		st.Atomic = true
		st.Ordering = storeOrdering(mods.Ordering)
	}
	st.Align = fe.e.alignOf(ty, span)
	return st
}

var orderings = [...]enum.AtomicOrdering{
	ast.OrderingNone:      enum.AtomicOrderingNone,
	ast.OrderingUnordered: enum.AtomicOrderingUnordered,
	ast.OrderingMonotonic: enum.AtomicOrderingMonotonic,
	ast.OrderingAcquire:   enum.AtomicOrderingAcquire,
	ast.OrderingRelease:   enum.AtomicOrderingRelease,
	ast.OrderingAcqRel:    enum.AtomicOrderingAcquireRelease,
	ast.OrderingSeqCst:    enum.AtomicOrderingSequentiallyConsistent,
}

// Loads cannot release and stores cannot acquire; both are weakened to
// the strongest ordering the access can carry.
func loadOrdering(o ast.MemoryOrdering) enum.AtomicOrdering {
	switch o {
	case ast.OrderingRelease:
		return enum.AtomicOrderingMonotonic
	case ast.OrderingAcqRel:
		return enum.AtomicOrderingAcquire
	}
	return orderings[o]
}

func storeOrdering(o ast.MemoryOrdering) enum.AtomicOrdering {
	switch o {
	case ast.OrderingAcquire:
		return enum.AtomicOrderingMonotonic
	case ast.OrderingAcqRel:
		return enum.AtomicOrderingRelease
	}
	return orderings[o]
}
