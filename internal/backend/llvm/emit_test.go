package llvm

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/layout"
	"github.com/thrushlang/thrushc-sub009/internal/trace"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

func TestModuleCarriesTarget(t *testing.T) {
	m, err := EmitModule(context.Background(), unitOf(), Options{Target: layout.AArch64LinuxGNU()})
	if err != nil {
		t.Fatal(err)
	}
	if m.TargetTriple != layout.AArch64LinuxGNU().Triple || m.DataLayout == "" {
		t.Fatalf("target not applied: %q %q", m.TargetTriple, m.DataLayout)
	}
}

func TestExplicitCasts(t *testing.T) {
	f32, f64 := types.F32, types.F64
	cases := []struct {
		name string
		from types.Type
		to   types.Type
		val  *ast.Expr
		want string
	}{
		{"sext", types.S8, types.S32, lit(1, types.S8), "*ir.InstSExt"},
		{"zext", types.U8, types.U32, lit(1, types.U8), "*ir.InstZExt"},
		{"trunc", types.S64, types.S16, lit(1, types.S64), "*ir.InstTrunc"},
		{"fpext", f32, f64, &ast.Expr{Kind: ast.ExprLiteral, Type: f32, Data: ast.LiteralData{Kind: ast.LiteralFloat, Float: 1.5}}, "*ir.InstFPExt"},
		{"sitofp", types.S32, f64, lit(3, types.S32), "*ir.InstSIToFP"},
		{"fptoui", f64, types.U16, &ast.Expr{Kind: ast.ExprLiteral, Type: f64, Data: ast.LiteralData{Kind: ast.LiteralFloat, Float: 2}}, "*ir.InstFPToUI"},
		{"ptrtoint", types.MakePtr(types.U8), types.USize, &ast.Expr{Kind: ast.ExprLiteral, Type: types.MakePtr(types.U8), Data: ast.LiteralData{Kind: ast.LiteralNull}}, "*ir.InstPtrToInt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := unitOf(fn("main", tc.to,
				local("v", tc.from, ast.SiteStack, tc.val),
				ret(cast(ref("v", tc.from), tc.to)),
			))
			f := funcNamed(t, mustEmit(t, u), "main")
			if got := fmt.Sprintf("%T", entryRet(t, f).X); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestSameWidthCastIsNoop(t *testing.T) {
	u := unitOf(fn("main", types.U32,
		local("v", types.S32, ast.SiteStack, lit(1, types.S32)),
		ret(cast(ref("v", types.S32), types.U32)),
	))
	f := funcNamed(t, mustEmit(t, u), "main")
	if _, ok := entryRet(t, f).X.(*ir.InstLoad); !ok {
		t.Fatalf("s32 as u32 must not emit a conversion, got %T", entryRet(t, f).X)
	}
}

func TestGlobalsLinkageAndThreadModes(t *testing.T) {
	u := unitOf()
	u.Consts = []*ast.Const{
		{Name: "LIMIT", Type: types.U64, Value: lit(64, types.U64)},
		{Name: "EXPORTED", Type: types.S32, Value: lit(1, types.S32), Attrs: ast.Attributes{Public: true}},
	}
	u.Statics = []*ast.Static{
		{Name: "counter", Type: types.U32, Mutable: true, Attrs: ast.Attributes{ThreadMode: ast.ThreadLocalDynamic}},
		{Name: "table", Type: types.MakeFixedArray(types.U8, 4), Attrs: ast.Attributes{Public: true}},
		{Name: "errno", Type: types.S32, Mutable: true, Attrs: ast.Attributes{Extern: true, ExternName: "__errno"}},
	}
	m := mustEmit(t, u)

	limit := globalNamed(t, m, "LIMIT")
	if limit.Linkage != enum.LinkagePrivate || !limit.Immutable || limit.UnnamedAddr != enum.UnnamedAddrUnnamedAddr {
		t.Fatalf("private constant expected, got linkage=%v immutable=%v", limit.Linkage, limit.Immutable)
	}
	if g := globalNamed(t, m, "EXPORTED"); g.Linkage != enum.LinkageNone {
		t.Fatalf("public constant must keep default linkage, got %v", g.Linkage)
	}

	counter := globalNamed(t, m, "counter")
	if counter.TLSModel != enum.TLSModelLocalDynamic || counter.Immutable || counter.Linkage != enum.LinkageInternal {
		t.Fatalf("counter: tls=%v immutable=%v linkage=%v", counter.TLSModel, counter.Immutable, counter.Linkage)
	}
	if _, ok := counter.Init.(*constant.ZeroInitializer); !ok {
		t.Fatalf("static without value must be zero-initialised, got %T", counter.Init)
	}

	table := globalNamed(t, m, "table")
	if !table.Immutable || table.Linkage != enum.LinkageNone {
		t.Fatalf("table: immutable=%v linkage=%v", table.Immutable, table.Linkage)
	}

	errno := globalNamed(t, m, "__errno")
	if errno.Init != nil || errno.Linkage != enum.LinkageExternal {
		t.Fatalf("extern static must be an external declaration")
	}
	if got := errno.LLString(); !strings.HasPrefix(got, "@__errno = external global i32") {
		t.Fatalf("extern static printed as %q", got)
	}
}

func TestDuplicateGlobalFaults(t *testing.T) {
	u := unitOf(fn("dup", types.Void), fn("dup", types.Void))
	mustFault(t, u, diag.GenDuplicateGlobal)
}

func TestFunctionAttributesAndLinkage(t *testing.T) {
	helper := fn("helper", types.Void)
	helper.Attrs = ast.Attributes{Inline: true, Hot: true}
	puts := &ast.Func{
		Name:   "puts",
		Params: []ast.Param{{Name: "s", Type: types.MakePtr(types.Char)}},
		Ret:    types.S32,
		Attrs:  ast.Attributes{Extern: true},
	}
	m := mustEmit(t, unitOf(helper, puts))

	h := funcNamed(t, m, "helper")
	if h.Linkage != enum.LinkageInternal {
		t.Fatalf("non-public function should be internal, got %v", h.Linkage)
	}
	if len(h.FuncAttrs) != 2 || h.FuncAttrs[0] != enum.FuncAttrAlwaysInline || h.FuncAttrs[1] != enum.FuncAttrHot {
		t.Fatalf("unexpected attributes %v", h.FuncAttrs)
	}
	if p := funcNamed(t, m, "puts"); len(p.Blocks) != 0 || p.Linkage != enum.LinkageNone {
		t.Fatalf("extern function must be a bare declaration")
	}
}

func TestFunctionConventionsAndHardening(t *testing.T) {
	tests := []struct {
		name    string
		attrs   ast.Attributes
		conv    enum.CallingConv
		linkage enum.Linkage
		want    []enum.FuncAttr
	}{
		{"plain", ast.Attributes{}, enum.CallingConvNone, enum.LinkageInternal, nil},
		{"fast hinted", ast.Attributes{Convention: ast.ConvFast, InlineHint: true}, enum.CallingConvFast, enum.LinkageInternal, []enum.FuncAttr{enum.FuncAttrInlineHint}},
		{"always inline wins over hint", ast.Attributes{Inline: true, InlineHint: true}, enum.CallingConvNone, enum.LinkageInternal, []enum.FuncAttr{enum.FuncAttrAlwaysInline}},
		{"cold small", ast.Attributes{Convention: ast.ConvCold, MinSize: true, NoUnwind: true}, enum.CallingConvCold, enum.LinkageInternal, []enum.FuncAttr{enum.FuncAttrMinSize, enum.FuncAttrNoUnwind}},
		{"safe stack", ast.Attributes{Stack: ast.StackSafe}, enum.CallingConvNone, enum.LinkageInternal, []enum.FuncAttr{enum.FuncAttrSafeStack}},
		{"strong stack", ast.Attributes{Stack: ast.StackStrong}, enum.CallingConvNone, enum.LinkageInternal, []enum.FuncAttr{enum.FuncAttrSSPStrong}},
		{"weak stack", ast.Attributes{Stack: ast.StackWeak}, enum.CallingConvNone, enum.LinkageInternal, []enum.FuncAttr{enum.FuncAttrSSP}},
		{"pure precise", ast.Attributes{PreciseFloats: true, Pure: true}, enum.CallingConvNone, enum.LinkageInternal, []enum.FuncAttr{enum.FuncAttrStrictFP, enum.FuncAttrReadNone}},
		{"weak linkage", ast.Attributes{Public: true, Linkage: ast.LinkageWeak}, enum.CallingConvNone, enum.LinkageWeak, nil},
		{"haskell", ast.Attributes{Public: true, Convention: ast.ConvGHC}, enum.CallingConvGHC, enum.LinkageNone, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fn("work", types.Void)
			f.Attrs = tt.attrs
			got := funcNamed(t, mustEmit(t, unitOf(f)), "work")
			if got.CallingConv != tt.conv {
				t.Fatalf("calling convention = %v, want %v", got.CallingConv, tt.conv)
			}
			if got.Linkage != tt.linkage {
				t.Fatalf("linkage = %v, want %v", got.Linkage, tt.linkage)
			}
			if len(got.FuncAttrs) != len(tt.want) {
				t.Fatalf("attributes = %v, want %v", got.FuncAttrs, tt.want)
			}
			for i, w := range tt.want {
				if got.FuncAttrs[i] != w {
					t.Fatalf("attribute %d = %v, want %v", i, got.FuncAttrs[i], w)
				}
			}
		})
	}
}

func TestConventionIsPrintedOnDeclarations(t *testing.T) {
	ext := &ast.Func{
		Name:  "callback",
		Ret:   types.Void,
		Attrs: ast.Attributes{Extern: true, Convention: ast.ConvTail},
	}
	m := mustEmit(t, unitOf(ext))
	if got := funcNamed(t, m, "callback").LLString(); !strings.Contains(got, "declare tailcc void @callback()") {
		t.Fatalf("declaration printed as %q", got)
	}
}

func TestStaticLinkageOverride(t *testing.T) {
	u := unitOf()
	u.Statics = []*ast.Static{
		{Name: "shared", Type: types.U32, Mutable: true, Attrs: ast.Attributes{Linkage: ast.LinkageCommon}},
	}
	if g := globalNamed(t, mustEmit(t, u), "shared"); g.Linkage != enum.LinkageCommon {
		t.Fatalf("explicit linkage ignored, got %v", g.Linkage)
	}
}

func TestCallCastsArgumentsAndPromotesVariadics(t *testing.T) {
	printf := &ast.Func{
		Name:     "printf",
		Params:   []ast.Param{{Name: "fmt", Type: types.MakePtr(types.Char)}},
		Ret:      types.S32,
		Variadic: true,
		Attrs:    ast.Attributes{Extern: true},
	}
	str := &ast.Expr{Kind: ast.ExprLiteral, Type: types.MakePtr(types.Char), Data: ast.LiteralData{Kind: ast.LiteralStr, Str: "%f %d\n"}}
	half := &ast.Expr{Kind: ast.ExprLiteral, Type: types.F32, Data: ast.LiteralData{Kind: ast.LiteralFloat, Float: 0.5}}
	call := &ast.Expr{Kind: ast.ExprCall, Type: types.S32, Data: ast.CallData{
		Name: "printf",
		Args: []*ast.Expr{str, half, lit(7, types.U8)},
	}}
	m := mustEmit(t, unitOf(printf, fn("main", types.Void, exprStmt(call))))
	f := funcNamed(t, m, "main")

	calls := collect[*ir.InstCall](f)
	if len(calls) != 1 || len(calls[0].Args) != 3 {
		t.Fatalf("expected one call with 3 args")
	}
	if _, ok := calls[0].Args[1].(*ir.InstFPExt); !ok {
		t.Fatalf("f32 variadic argument should be promoted to double, got %T", calls[0].Args[1])
	}
	if _, ok := calls[0].Args[2].(*ir.InstZExt); !ok {
		t.Fatalf("u8 variadic argument should be promoted to int, got %T", calls[0].Args[2])
	}
	g := globalNamed(t, m, ".str")
	if g.Linkage != enum.LinkagePrivate || !g.Immutable {
		t.Fatalf("string literal should be a private constant")
	}
}

func TestCallResultMeetsExpressionType(t *testing.T) {
	small := fn("small", types.U8, ret(lit(200, types.U8)))
	call := &ast.Expr{Kind: ast.ExprCall, Type: types.S32, Data: ast.CallData{Name: "small"}}
	f := funcNamed(t, mustEmit(t, unitOf(small, fn("main", types.S32, ret(call)))), "main")
	ext, ok := entryRet(t, f).X.(*ir.InstZExt)
	if !ok {
		t.Fatalf("u8 result used as s32 should zero-extend, got %T", entryRet(t, f).X)
	}
	if _, ok := ext.From.(*ir.InstCall); !ok {
		t.Fatalf("extension should wrap the call, got %T", ext.From)
	}
}

func TestControlFlowTerminatesEveryBlock(t *testing.T) {
	cond := &ast.Expr{Kind: ast.ExprBinary, Type: types.Bool, Data: ast.BinaryData{
		Op: ast.BinLt, Left: ref("i", types.S32), Right: lit(10, types.S32),
	}}
	inc := &ast.Stmt{Kind: ast.StmtAssign, Data: ast.AssignData{
		Target: ref("i", types.S32),
		Value: &ast.Expr{Kind: ast.ExprBinary, Type: types.S32, Data: ast.BinaryData{
			Op: ast.BinAdd, Left: ref("i", types.S32), Right: lit(1, types.S32),
		}},
	}}
	ifStmt := &ast.Stmt{Kind: ast.StmtIf, Data: ast.IfData{
		Cond: &ast.Expr{Kind: ast.ExprBinary, Type: types.Bool, Data: ast.BinaryData{
			Op: ast.BinEq, Left: ref("i", types.S32), Right: lit(5, types.S32),
		}},
		Then: &ast.Block{Stmts: []*ast.Stmt{{Kind: ast.StmtBreak, Data: ast.BreakData{}}}},
		Elifs: []ast.ElifClause{{
			Cond: &ast.Expr{Kind: ast.ExprLiteral, Type: types.Bool, Data: ast.LiteralData{Kind: ast.LiteralBool, Bool: false}},
			Then: &ast.Block{Stmts: []*ast.Stmt{{Kind: ast.StmtContinue, Data: ast.ContinueData{}}}},
		}},
	}}
	while := &ast.Stmt{Kind: ast.StmtWhile, Data: ast.WhileData{
		Cond: cond,
		Body: &ast.Block{Stmts: []*ast.Stmt{ifStmt, inc}},
	}}
	u := unitOf(fn("main", types.S32,
		local("i", types.S32, ast.SiteStack, lit(0, types.S32)),
		while,
		ret(ref("i", types.S32)),
	))
	f := funcNamed(t, mustEmit(t, u), "main")
	for _, b := range f.Blocks {
		if b.Term == nil {
			t.Fatalf("block %s is not terminated", b.Name())
		}
	}
	if last := f.Blocks[len(f.Blocks)-1]; last.Name() != "while.end" {
		t.Fatalf("loop exit should be laid out last, got %s", last.Name())
	}
}

func TestLoopControlOutsideLoopFaults(t *testing.T) {
	u := unitOf(fn("main", types.Void, &ast.Stmt{Kind: ast.StmtBreak, Span: at(12), Data: ast.BreakData{}}))
	f := mustFault(t, u, diag.GenLoopControl)
	if f.Span != at(12) {
		t.Fatalf("fault span = %v", f.Span)
	}
}

func TestUnboundReferenceFaults(t *testing.T) {
	x := ref("ghost", types.S32)
	x.Span = at(3)
	f := mustFault(t, unitOf(fn("main", types.S32, ret(x))), diag.GenUnboundSymbol)
	if !strings.Contains(f.Msg, "ghost") {
		t.Fatalf("message should name the symbol: %q", f.Msg)
	}
}

func TestParametersAreSpilled(t *testing.T) {
	add := &ast.Func{
		Name:   "add",
		Params: []ast.Param{{Name: "a", Type: types.S32}, {Name: "b", Type: types.S32, Mutable: true}},
		Ret:    types.S32,
		Attrs:  ast.Attributes{Public: true},
		Body: &ast.Block{Stmts: []*ast.Stmt{
			ret(&ast.Expr{Kind: ast.ExprBinary, Type: types.S32, Data: ast.BinaryData{
				Op: ast.BinAdd, Left: ref("a", types.S32), Right: ref("b", types.S32),
			}}),
		}},
	}
	f := funcNamed(t, mustEmit(t, unitOf(add)), "add")
	allocas := collect[*ir.InstAlloca](f)
	if len(allocas) != 2 || allocas[0].Name() != "a.addr" || allocas[1].Name() != "b.addr" {
		t.Fatalf("expected a.addr and b.addr slots")
	}
	if _, ok := entryRet(t, f).X.(*ir.InstAdd); !ok {
		t.Fatalf("expected add result, got %T", entryRet(t, f).X)
	}
}

func TestBuiltinsLowerToLayoutAndIntrinsics(t *testing.T) {
	pair := types.MakeStruct("Pair", []types.Type{types.U8, types.U64}, types.StructModifiers{})
	size := &ast.Expr{Kind: ast.ExprBuiltin, Type: types.U64, Data: ast.BuiltinData{Builtin: ast.BuiltinSizeOf, TypeArg: pair}}
	ptrT := types.MakePtr(pair)
	memset := &ast.Expr{Kind: ast.ExprBuiltin, Type: types.Void, Data: ast.BuiltinData{
		Builtin: ast.BuiltinMemSet,
		Args:    []*ast.Expr{ref("p", ptrT), lit(0, types.U8), size},
	}}
	halloc := &ast.Expr{Kind: ast.ExprBuiltin, Type: ptrT, Data: ast.BuiltinData{Builtin: ast.BuiltinHalloc, TypeArg: pair}}
	m := mustEmit(t, unitOf(fn("main", types.Void, instr("p", ptrT, halloc), exprStmt(memset))))
	f := funcNamed(t, m, "main")

	calls := collect[*ir.InstCall](f)
	if len(calls) != 2 {
		t.Fatalf("expected malloc and memset calls, got %d", len(calls))
	}
	if calls[1].Callee.Ident() != "@"+intrinsicMemSet {
		t.Fatalf("unexpected callee %s", calls[1].Callee.Ident())
	}
	if c, ok := calls[1].Args[2].(*constant.Int); !ok || c.X.Int64() != 16 {
		t.Fatalf("sizeof(Pair) should fold to 16, got %v", calls[1].Args[2])
	}
}

func TestFunctionSpanCarriesSymbolsAtDebug(t *testing.T) {
	add := &ast.Func{
		Name:   "add",
		Params: []ast.Param{{Name: "a", Type: types.S32}},
		Ret:    types.S32,
		Attrs:  ast.Attributes{Public: true},
		Body:   &ast.Block{Stmts: []*ast.Stmt{ret(ref("a", types.S32))}},
	}
	for _, level := range []trace.Level{trace.LevelUnit, trace.LevelDebug} {
		ring := trace.NewRingTracer(64, level)
		ctx := trace.WithTracer(context.Background(), ring)
		if _, err := EmitModule(ctx, unitOf(add), Options{}); err != nil {
			t.Fatalf("%s: emit: %v", level, err)
		}
		var dump string
		var found bool
		for _, ev := range ring.Snapshot() {
			if ev.Kind == trace.KindSpanEnd && ev.Name == "fn:add" {
				dump, found = ev.Extra["symbols"], true
			}
		}
		if level < trace.LevelDebug {
			if found {
				t.Fatalf("%s: function spans are debug only", level)
			}
			continue
		}
		if !found || !strings.Contains(dump, "#0 module: add(fn)") || !strings.Contains(dump, "#1 params: a(param)") {
			t.Fatalf("symbol dump missing from fn span: %q", dump)
		}
	}
}
