package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

const (
	intrinsicMemCpy  = "llvm.memcpy.p0i8.p0i8.i64"
	intrinsicMemMove = "llvm.memmove.p0i8.p0i8.i64"
	intrinsicMemSet  = "llvm.memset.p0i8.i64"
)

func (fe *funcEmitter) emitBuiltin(x *ast.Expr, d ast.BuiltinData) value.Value {
	switch d.Builtin {
	case ast.BuiltinHalloc:
		return fe.e.resolveSite(ast.SiteHeap, d.TypeArg, "", x.Span)
	case ast.BuiltinSizeOf:
		return fe.e.layoutConst(x, fe.e.layoutOf(d.TypeArg, x.Span).Size)
	case ast.BuiltinAlignOf:
		return fe.e.layoutConst(x, fe.e.layoutOf(d.TypeArg, x.Span).Align)
	case ast.BuiltinMemCpy, ast.BuiltinMemMove:
		fe.wantArgs(x, d, 3)
		name := intrinsicMemCpy
		if d.Builtin == ast.BuiltinMemMove {
			name = intrinsicMemMove
		}
		fn := fe.e.intrinsic(name, lltypes.I8Ptr, lltypes.I8Ptr, lltypes.I64, lltypes.I1)
		dst := fe.pointerAs(fe.emitExpr(d.Args[0]), lltypes.I8)
		src := fe.pointerAs(fe.emitExpr(d.Args[1]), lltypes.I8)
		n := fe.numericCast(fe.emitExpr(d.Args[2]), d.Args[2].Type, types.U64)
		return fe.cur.NewCall(fn, dst, src, n, constant.False)
	case ast.BuiltinMemSet:
		fe.wantArgs(x, d, 3)
		fn := fe.e.intrinsic(intrinsicMemSet, lltypes.I8Ptr, lltypes.I8, lltypes.I64, lltypes.I1)
		dst := fe.pointerAs(fe.emitExpr(d.Args[0]), lltypes.I8)
		val := fe.numericCast(fe.emitExpr(d.Args[1]), d.Args[1].Type, types.U8)
		n := fe.numericCast(fe.emitExpr(d.Args[2]), d.Args[2].Type, types.U64)
		return fe.cur.NewCall(fn, dst, val, n, constant.False)
	}
	diag.Abort(0, diag.GenUnsupported, x.Span, "unknown builtin %d", d.Builtin)
	return nil
}

func (fe *funcEmitter) wantArgs(x *ast.Expr, d ast.BuiltinData, n int) {
	if len(d.Args) != n {
		diag.Abort(1, diag.GenBadOperand, x.Span, "builtin takes %d arguments, got %d", n, len(d.Args))
	}
}

// layoutConst types a size or alignment by the builtin's result type,
// falling back to the target size type.
func (e *Emitter) layoutConst(x *ast.Expr, n int) constant.Constant {
	it, ok := e.llvmType(orSize(x.Type)).(*lltypes.IntType)
	if !ok {
		it = e.sizeType()
	}
	return constant.NewInt(it, int64(n))
}

func orSize(t types.Type) types.Type {
	if isIntLike(t) {
		return t
	}
	return types.USize
}

// intrinsic declares a void LLVM intrinsic on first use.
func (e *Emitter) intrinsic(name string, params ...lltypes.Type) *ir.Func {
	if fn, ok := e.intrinsics[name]; ok {
		return fn
	}
	ps := make([]*ir.Param, 0, len(params))
	for _, p := range params {
		ps = append(ps, ir.NewParam("", p))
	}
	fn := e.mod.NewFunc(name, lltypes.Void, ps...)
	e.intrinsics[name] = fn
	return fn
}
