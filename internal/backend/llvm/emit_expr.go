package llvm

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/symbols"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

func (fe *funcEmitter) emitExpr(x *ast.Expr) value.Value {
	if x == nil {
		return nil
	}
	switch d := x.Data.(type) {
	case ast.LiteralData:
		return fe.e.literal(x, d)
	case ast.RefData:
		return fe.emitRef(x, d)
	case ast.CastData:
		return fe.emitCast(fe.emitExpr(d.Value), d.Value.Type, x.Type)
	case ast.CallData:
		return fe.emitCall(x, d)
	case ast.StructLitData:
		return fe.emitStructLit(x, d)
	case ast.ArrayLitData:
		return fe.emitArrayLit(x, d)
	case ast.PropertyData:
		return fe.emitProperty(x, d)
	case ast.IndexData:
		return fe.emitIndex(x, d)
	case ast.BinaryData:
		return fe.emitBinary(x, d)
	case ast.UnaryData:
		return fe.emitUnary(x, d)
	case ast.GroupData:
		return fe.emitExpr(d.Inner)
	case ast.AllocData:
		return fe.emitAlloc(x, d)
	case ast.LoadData:
		return fe.emitLoad(x, d)
	case ast.WriteData:
		return fe.emitWrite(x, d)
	case ast.AddressData:
		return fe.emitAddress(x, d)
	case ast.DerefData:
		return fe.emitDeref(x, d)
	case ast.BuiltinData:
		return fe.emitBuiltin(x, d)
	}
	diag.Abort(0, diag.GenUnsupported, x.Span, "cannot lower %s expression", x.Kind)
	return nil
}

// emitRef yields the value of a name. Slots are read; instruction
// results and functions are their own value; constants fold to their
// initializer.
func (fe *funcEmitter) emitRef(x *ast.Expr, d ast.RefData) value.Value {
	sym := fe.lookup(d.Name, x.Span)
	switch sym.Kind {
	case symbols.SymbolLocal, symbols.SymbolParam, symbols.SymbolStatic:
		return fe.load(sym.Handle, sym.Type, ast.Modifiers{}, x.Span)
	case symbols.SymbolConst:
		if init, ok := fe.e.constInit(sym); ok {
			return init
		}
		return fe.load(sym.Handle, sym.Type, ast.Modifiers{}, x.Span)
	}
	return sym.Handle
}

func (fe *funcEmitter) emitCall(x *ast.Expr, d ast.CallData) value.Value {
	sym, ok := fe.e.syms.Lookup(d.Name)
	if !ok || sym.Handle == nil {
		diag.Abort(0, diag.GenUnknownFunction, x.Span, "call to undeclared function '%s'", d.Name)
	}
	fe.e.syms.MarkUsed(d.Name)
	callee := sym.Handle
	sig := types.Unwrap(sym.Type)
	if sym.Kind != symbols.SymbolFunction {
		callee = fe.emitRef(&ast.Expr{Kind: ast.ExprRef, Type: sym.Type, Span: x.Span, Data: ast.RefData{Name: d.Name}}, ast.RefData{Name: d.Name})
	}
	if sig.Kind != types.KindFn {
		diag.Abort(0, diag.GenBadOperand, x.Span, "'%s' of type '%s' is not callable", d.Name, sym.Type)
	}

	args := make([]value.Value, 0, len(d.Args))
	for i, a := range d.Args {
		v := fe.emitExpr(a)
		if i < len(sig.Params) {
			v = fe.coerce(v, a.Type, sig.Params[i])
		} else {
			v = fe.promoteVariadic(v, a.Type)
		}
		args = append(args, v)
	}
	call := fe.cur.NewCall(callee, args...)
	if res := types.FnRefType(sig); !types.IsVoid(res) {
		return fe.coerce(call, res, x.Type)
	}
	return call
}

// promoteVariadic applies the C default argument promotions to an
// argument passed through `...`.
func (fe *funcEmitter) promoteVariadic(v value.Value, t types.Type) value.Value {
	switch {
	case types.IsFloat(t) && types.Unwrap(t).Width == types.Width32:
		return fe.cur.NewFPExt(v, lltypes.Double)
	case isIntLike(t):
		if bits, _ := types.IntBits(t, fe.e.layout.Target.PtrBits()); bits < 32 {
			return fe.numericCast(v, t, types.S32)
		}
	}
	return v
}

// emitStructLit builds a struct value. When the enclosing local installed
// an untriggered anchor the fields are written straight into its slot and
// the slot itself is the result.
func (fe *funcEmitter) emitStructLit(x *ast.Expr, d ast.StructLitData) value.Value {
	st := fe.e.llvmType(x.Type)
	fields := types.StructFields(types.Unwrap(x.Type))
	if len(fields) != len(d.Fields) {
		diag.Abort(0, diag.GenBadOperand, x.Span, "constructor of '%s' has %d fields, want %d", x.Type, len(d.Fields), len(fields))
	}

	if a := fe.anchor; a != nil && a.Trigger() {
		ptr := fe.pointerAs(a.Ptr, st)
		for i, f := range d.Fields {
			v := fe.coerce(fe.emitExpr(f), f.Type, fields[i])
			gep := fe.cur.NewGetElementPtr(st, ptr, constant.NewInt(lltypes.I32, 0), constant.NewInt(lltypes.I32, int64(i)))
			gep.InBounds = true
			fe.store(v, gep, fields[i], ast.Modifiers{}, f.Span)
		}
		return ptr
	}

	if c, ok := fe.e.constExpr(x); ok {
		return c
	}
	var agg value.Value = constant.NewUndef(st)
	for i, f := range d.Fields {
		v := fe.coerce(fe.emitExpr(f), f.Type, fields[i])
		agg = fe.cur.NewInsertValue(agg, v, uint64(i))
	}
	return agg
}

func (fe *funcEmitter) emitArrayLit(x *ast.Expr, d ast.ArrayLitData) value.Value {
	at := types.Unwrap(x.Type)
	if at.Kind != types.KindFixedArray || at.Elem == nil {
		diag.Abort(0, diag.GenUnsupported, x.Span, "array literal of type '%s'", x.Type)
	}
	if c, ok := fe.e.constExpr(x); ok {
		return c
	}
	var agg value.Value = constant.NewUndef(fe.e.llvmType(at))
	for i, el := range d.Elements {
		v := fe.coerce(fe.emitExpr(el), el.Type, *at.Elem)
		agg = fe.cur.NewInsertValue(agg, v, uint64(i))
	}
	return agg
}

// place returns the address of an expression that denotes memory, if it
// does. Names, field and element accesses on places, and dereferences
// are places; anything else is a plain value.
func (fe *funcEmitter) place(x *ast.Expr) (value.Value, types.Type, bool) {
	x = ast.Unparen(x)
	switch d := x.Data.(type) {
	case ast.RefData:
		sym := fe.lookup(d.Name, x.Span)
		switch sym.Kind {
		case symbols.SymbolLocal, symbols.SymbolParam, symbols.SymbolStatic:
			return sym.Handle, sym.Type, true
		}
	case ast.PropertyData:
		base, bt, ok := fe.place(d.Source)
		if !ok && types.IsPtrLike(d.Source.Type) {
			base, bt, ok = fe.emitExpr(d.Source), pointee(d.Source.Type), true
		} else if ok && types.IsPtrLike(bt) {
			base, bt = fe.load(base, bt, ast.Modifiers{}, x.Span), pointee(bt)
		}
		if !ok || bt.Kind == types.KindInvalid {
			return nil, types.Type{}, false
		}
		idx := []value.Value{constant.NewInt(lltypes.I32, 0)}
		cur := types.Unwrap(bt)
		for _, n := range d.Indexes {
			var next types.Type
			cur, next = fe.step(cur, int(n), x)
			idx = append(idx, fe.fieldIndex(cur, int(n)))
			cur = next
		}
		lt := fe.e.llvmType(bt)
		gep := fe.cur.NewGetElementPtr(lt, fe.pointerAs(base, lt), idx...)
		gep.InBounds = true
		return gep, cur, true
	case ast.IndexData:
		base, bt, ok := fe.place(d.Source)
		if ok && types.Unwrap(bt).Kind == types.KindFixedArray {
			lt := fe.e.llvmType(bt)
			gep := fe.cur.NewGetElementPtr(lt, fe.pointerAs(base, lt), constant.NewInt(lltypes.I64, 0), fe.indexValue(d.Index))
			gep.InBounds = true
			return gep, *types.Unwrap(bt).Elem, true
		}
		var ptr value.Value
		switch {
		case ok && types.IsPtrLike(bt):
			ptr, bt = fe.load(base, bt, ast.Modifiers{}, x.Span), pointee(bt)
		case !ok && types.IsPtrLike(d.Source.Type):
			ptr, bt = fe.emitExpr(d.Source), pointee(d.Source.Type)
		default:
			return nil, types.Type{}, false
		}
		if bt.Kind == types.KindInvalid {
			return nil, types.Type{}, false
		}
		lt := fe.e.llvmType(bt)
		gep := fe.cur.NewGetElementPtr(lt, fe.pointerAs(ptr, lt), fe.indexValue(d.Index))
		gep.InBounds = true
		return gep, bt, true
	case ast.DerefData:
		elem := pointee(d.Value.Type)
		if elem.Kind == types.KindInvalid {
			elem = x.Type
		}
		return fe.emitExpr(d.Value), elem, true
	}
	return nil, types.Type{}, false
}

// step checks that field n exists in cur and returns cur with the type
// of that field.
func (fe *funcEmitter) step(cur types.Type, n int, x *ast.Expr) (types.Type, types.Type) {
	switch cur.Kind {
	case types.KindStruct:
		if n < 0 || n >= len(cur.Fields) {
			diag.Abort(1, diag.GenBadIndex, x.Span, "field %d out of range for '%s'", n, cur)
		}
		return cur, types.Unwrap(cur.Fields[n])
	case types.KindFixedArray:
		if n < 0 || uint32(n) >= cur.Len {
			diag.Abort(1, diag.GenBadIndex, x.Span, "element %d out of range for '%s'", n, cur)
		}
		return cur, types.Unwrap(*cur.Elem)
	}
	diag.Abort(1, diag.GenBadIndex, x.Span, "cannot select member %d of '%s'", n, cur)
	return cur, cur
}

func (fe *funcEmitter) fieldIndex(cur types.Type, n int) value.Value {
	if cur.Kind == types.KindStruct {
		return constant.NewInt(lltypes.I32, int64(n))
	}
	return constant.NewInt(lltypes.I64, int64(n))
}

func (fe *funcEmitter) emitProperty(x *ast.Expr, d ast.PropertyData) value.Value {
	if ptr, t, ok := fe.place(x); ok {
		return fe.load(ptr, t, ast.Modifiers{}, x.Span)
	}
	v := fe.emitExpr(d.Source)
	idx := make([]uint64, 0, len(d.Indexes))
	cur := types.Unwrap(d.Source.Type)
	for _, n := range d.Indexes {
		_, cur = fe.step(cur, int(n), x)
		idx = append(idx, uint64(n))
	}
	return fe.cur.NewExtractValue(v, idx...)
}

func (fe *funcEmitter) emitIndex(x *ast.Expr, d ast.IndexData) value.Value {
	if ptr, t, ok := fe.place(x); ok {
		return fe.load(ptr, t, ast.Modifiers{}, x.Span)
	}
	st := types.Unwrap(d.Source.Type)
	if st.Kind != types.KindFixedArray {
		diag.Abort(0, diag.GenBadOperand, x.Span, "cannot index a value of type '%s'", d.Source.Type)
	}
	if lit, ok := ast.Unparen(d.Index).Data.(ast.LiteralData); ok && lit.Kind == ast.LiteralInt {
		fe.step(st, int(lit.Int), x)
		return fe.cur.NewExtractValue(fe.emitExpr(d.Source), lit.Int)
	}
	// A dynamic index into an array value needs memory to address.
	tmp := fe.e.resolveSite(ast.SiteStack, st, "idx.tmp", x.Span)
	fe.store(fe.emitExpr(d.Source), tmp, st, ast.Modifiers{}, x.Span)
	lt := fe.e.llvmType(st)
	gep := fe.cur.NewGetElementPtr(lt, tmp, constant.NewInt(lltypes.I64, 0), fe.indexValue(d.Index))
	gep.InBounds = true
	return fe.load(gep, *st.Elem, ast.Modifiers{}, x.Span)
}

// indexValue lowers an element index widened to i64.
func (fe *funcEmitter) indexValue(ix *ast.Expr) value.Value {
	v := fe.emitExpr(ix)
	if !isIntLike(ix.Type) {
		diag.Abort(1, diag.GenBadIndex, ix.Span, "index of type '%s' is not an integer", ix.Type)
	}
	return fe.numericCast(v, ix.Type, types.S64)
}

// constIndex evaluates a struct field index, which must be a literal.
func (fe *funcEmitter) constIndex(ix *ast.Expr, n int) int {
	lit, ok := ast.Unparen(ix).Data.(ast.LiteralData)
	if !ok || lit.Kind != ast.LiteralInt {
		diag.Abort(1, diag.GenBadIndex, ix.Span, "struct field index must be a constant")
	}
	if lit.Int >= uint64(n) {
		diag.Abort(1, diag.GenBadIndex, ix.Span, "field %d out of range, struct has %d fields", lit.Int, n)
	}
	return int(lit.Int)
}

func (fe *funcEmitter) emitBinary(x *ast.Expr, d ast.BinaryData) value.Value {
	l := fe.emitExpr(d.Left)
	r := fe.coerce(fe.emitExpr(d.Right), d.Right.Type, d.Left.Type)
	t := d.Left.Type
	b := fe.cur

	if types.IsFloat(t) {
		switch d.Op {
		case ast.BinAdd:
			return b.NewFAdd(l, r)
		case ast.BinSub:
			return b.NewFSub(l, r)
		case ast.BinMul:
			return b.NewFMul(l, r)
		case ast.BinDiv:
			return b.NewFDiv(l, r)
		case ast.BinRem:
			return b.NewFRem(l, r)
		case ast.BinEq:
			return b.NewFCmp(enum.FPredOEQ, l, r)
		case ast.BinNe:
			return b.NewFCmp(enum.FPredONE, l, r)
		case ast.BinLt:
			return b.NewFCmp(enum.FPredOLT, l, r)
		case ast.BinLe:
			return b.NewFCmp(enum.FPredOLE, l, r)
		case ast.BinGt:
			return b.NewFCmp(enum.FPredOGT, l, r)
		case ast.BinGe:
			return b.NewFCmp(enum.FPredOGE, l, r)
		}
	} else if isIntLike(t) || types.IsPtrLike(t) {
		signed := types.IsSigned(t)
		switch d.Op {
		case ast.BinEq:
			return b.NewICmp(enum.IPredEQ, l, r)
		case ast.BinNe:
			return b.NewICmp(enum.IPredNE, l, r)
		}
		if isIntLike(t) {
			switch d.Op {
			case ast.BinAdd:
				return b.NewAdd(l, r)
			case ast.BinSub:
				return b.NewSub(l, r)
			case ast.BinMul:
				return b.NewMul(l, r)
			case ast.BinDiv:
				if signed {
					return b.NewSDiv(l, r)
				}
				return b.NewUDiv(l, r)
			case ast.BinRem:
				if signed {
					return b.NewSRem(l, r)
				}
				return b.NewURem(l, r)
			case ast.BinLt:
				return b.NewICmp(pick(signed, enum.IPredSLT, enum.IPredULT), l, r)
			case ast.BinLe:
				return b.NewICmp(pick(signed, enum.IPredSLE, enum.IPredULE), l, r)
			case ast.BinGt:
				return b.NewICmp(pick(signed, enum.IPredSGT, enum.IPredUGT), l, r)
			case ast.BinGe:
				return b.NewICmp(pick(signed, enum.IPredSGE, enum.IPredUGE), l, r)
			case ast.BinAnd, ast.BinBitAnd:
				return b.NewAnd(l, r)
			case ast.BinOr, ast.BinBitOr:
				return b.NewOr(l, r)
			case ast.BinBitXor:
				return b.NewXor(l, r)
			case ast.BinShl:
				return b.NewShl(l, r)
			case ast.BinShr:
				if signed {
					return b.NewAShr(l, r)
				}
				return b.NewLShr(l, r)
			}
		}
	}
	diag.Abort(0, diag.GenBadOperand, x.Span, "operator '%s' does not apply to '%s'", d.Op, t)
	return nil
}

func pick(signed bool, s, u enum.IPred) enum.IPred {
	if signed {
		return s
	}
	return u
}

func (fe *funcEmitter) emitUnary(x *ast.Expr, d ast.UnaryData) value.Value {
	v := fe.emitExpr(d.Operand)
	t := d.Operand.Type
	switch d.Op {
	case ast.UnaryNeg:
		if types.IsFloat(t) {
			return fe.cur.NewFNeg(v)
		}
		if isIntLike(t) {
			return fe.cur.NewSub(constant.NewInt(v.Type().(*lltypes.IntType), 0), v)
		}
	case ast.UnaryNot:
		if types.IsBool(t) {
			return fe.cur.NewXor(v, constant.True)
		}
		if isIntLike(t) {
			return fe.cur.NewICmp(enum.IPredEQ, v, constant.NewInt(v.Type().(*lltypes.IntType), 0))
		}
	case ast.UnaryBitNot:
		if isIntLike(t) {
			return fe.cur.NewXor(v, constant.NewInt(v.Type().(*lltypes.IntType), -1))
		}
	}
	diag.Abort(0, diag.GenBadOperand, x.Span, "operator '%s' does not apply to '%s'", d.Op, t)
	return nil
}

// truth lowers a condition to an i1.
func (fe *funcEmitter) truth(x *ast.Expr) value.Value {
	v := fe.emitExpr(x)
	t := x.Type
	switch {
	case types.IsBool(t):
		return v
	case isIntLike(t):
		return fe.cur.NewICmp(enum.IPredNE, v, constant.NewInt(v.Type().(*lltypes.IntType), 0))
	case types.IsPtrLike(t):
		return fe.cur.NewICmp(enum.IPredNE, v, constant.NewNull(v.Type().(*lltypes.PointerType)))
	}
	diag.Abort(1, diag.GenBadOperand, x.Span, "condition of type '%s' is not a boolean", t)
	return nil
}
