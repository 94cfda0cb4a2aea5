package llvm

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

func TestStackLocalLoadIsUnchanged(t *testing.T) {
	u := unitOf(fn("main", types.S32,
		local("x", types.S32, ast.SiteStack, lit(7, types.S32)),
		ret(load(ref("x", types.S32), types.S32, nil, ast.Modifiers{})),
	))
	f := funcNamed(t, mustEmit(t, u), "main")

	allocas := collect[*ir.InstAlloca](f)
	if len(allocas) != 1 || allocas[0].Name() != "x" {
		t.Fatalf("expected one alloca named x, got %d", len(allocas))
	}
	ld, ok := entryRet(t, f).X.(*ir.InstLoad)
	if !ok {
		t.Fatalf("return value is not a load: %T", entryRet(t, f).X)
	}
	if ld.Src != allocas[0] {
		t.Fatalf("load must read the slot bound to x directly")
	}
	stores := collect[*ir.InstStore](f)
	if len(stores) != 1 || stores[0].Dst != allocas[0] {
		t.Fatalf("expected the initializer stored into x")
	}
	if c, ok := stores[0].Src.(*constant.Int); !ok || c.X.Int64() != 7 {
		t.Fatalf("stored value is not 7: %v", stores[0].Src)
	}
}

func TestHeapLoadWithSameWidthCastEmitsNoConversion(t *testing.T) {
	s32 := types.S32
	u := unitOf(fn("main", types.S32,
		local("y", types.U32, ast.SiteHeap, nil),
		exprStmt(write(ref("y", types.U32), lit(5, types.U32), ast.Modifiers{})),
		ret(load(ref("y", types.U32), types.U32, &s32, ast.Modifiers{})),
	))
	m := mustEmit(t, u)
	f := funcNamed(t, m, "main")

	calls := collect[*ir.InstCall](f)
	if len(calls) != 1 || calls[0].Callee.Ident() != "@malloc" {
		t.Fatalf("expected a single malloc call, got %d calls", len(calls))
	}
	if c, ok := calls[0].Args[0].(*constant.Int); !ok || c.X.Int64() != 4 {
		t.Fatalf("malloc size should be 4 bytes, got %v", calls[0].Args[0])
	}
	if _, ok := entryRet(t, f).X.(*ir.InstLoad); !ok {
		t.Fatalf("u32 -> s32 must be a plain reinterpretation, got %T", entryRet(t, f).X)
	}
	if n := len(collect[*ir.InstSExt](f)) + len(collect[*ir.InstZExt](f)) + len(collect[*ir.InstTrunc](f)); n != 0 {
		t.Fatalf("unexpected %d integer conversions", n)
	}
	if strings.Contains(m.String(), "@free") {
		t.Fatalf("heap storage must not be freed automatically")
	}
}

func TestLoadCastWidensBySourceSignedness(t *testing.T) {
	s64 := types.S64
	u := unitOf(fn("main", types.S64,
		local("a", types.U8, ast.SiteStack, lit(200, types.U8)),
		ret(load(ref("a", types.U8), types.U8, &s64, ast.Modifiers{})),
	))
	f := funcNamed(t, mustEmit(t, u), "main")
	if _, ok := entryRet(t, f).X.(*ir.InstZExt); !ok {
		t.Fatalf("u8 -> s64 load cast should zero-extend, got %T", entryRet(t, f).X)
	}
}

func TestAddressStructFieldIgnoresPacking(t *testing.T) {
	for _, packed := range []bool{false, true} {
		point := types.MakeStruct("Point", []types.Type{types.S32, types.S32}, types.StructModifiers{Packed: packed})
		addr := &ast.Expr{
			Kind: ast.ExprAddress,
			Type: types.MakePtr(types.S32),
			Data: ast.AddressData{Base: ref("p", point), Indexes: []*ast.Expr{lit(1, types.U32)}},
		}
		u := unitOf(fn("main", types.Void,
			local("p", point, ast.SiteStack, nil),
			instr("q", types.MakePtr(types.S32), addr),
		))
		f := funcNamed(t, mustEmit(t, u), "main")

		geps := collect[*ir.InstGetElementPtr](f)
		if len(geps) != 1 {
			t.Fatalf("packed=%v: expected one getelementptr, got %d", packed, len(geps))
		}
		g := geps[0]
		if len(g.Indices) != 2 {
			t.Fatalf("packed=%v: expected 2 indices, got %d", packed, len(g.Indices))
		}
		for i, want := range []int64{0, 1} {
			c, ok := g.Indices[i].(*constant.Int)
			if !ok || c.X.Int64() != want {
				t.Fatalf("packed=%v: index %d = %v, want %d", packed, i, g.Indices[i], want)
			}
		}
		if g.Name() != "q" {
			t.Fatalf("instr result should carry its name, got %q", g.Name())
		}
		st, ok := g.ElemType.(*lltypes.StructType)
		if !ok || st.Packed != packed {
			t.Fatalf("packed=%v: gep over wrong struct type %v", packed, g.ElemType)
		}
	}
}

func TestAddressRejectsDynamicFieldIndex(t *testing.T) {
	point := types.MakeStruct("Point", []types.Type{types.S32, types.S32}, types.StructModifiers{})
	addr := &ast.Expr{
		Kind: ast.ExprAddress,
		Type: types.MakePtr(types.S32),
		Span: at(30),
		Data: ast.AddressData{Base: ref("p", point), Indexes: []*ast.Expr{ref("i", types.U32)}},
	}
	u := unitOf(fn("main", types.Void,
		local("p", point, ast.SiteStack, nil),
		local("i", types.U32, ast.SiteStack, lit(0, types.U32)),
		instr("q", types.MakePtr(types.S32), addr),
	))
	mustFault(t, u, diag.GenBadIndex)
}

func TestResolveSiteWithoutFunctionFaults(t *testing.T) {
	e := newEmitter(unitOf(), Options{})
	span := at(42)
	var err error
	func() {
		defer diag.Recover(&err)
		e.resolveSite(ast.SiteStack, types.S32, "x", span)
		t.Fatalf("resolveSite returned without a function")
	}()
	f, ok := diag.AsFault(err)
	if !ok || f.Code != diag.GenNoFunction {
		t.Fatalf("expected GenNoFunction, got %v", err)
	}
	if f.Span != span {
		t.Fatalf("fault must carry the requesting span, got %v", f.Span)
	}
	if !strings.HasPrefix(f.Origin, "emit_lli_test.go:") {
		t.Fatalf("origin should name the caller, got %q", f.Origin)
	}
}

func TestResolveSiteWithoutInsertionBlockFaults(t *testing.T) {
	e := newEmitter(unitOf(), Options{})
	e.fe = &funcEmitter{e: e, names: map[string]int{}}
	span := at(7)
	var err error
	func() {
		defer diag.Recover(&err)
		e.resolveSite(ast.SiteStack, types.S32, "x", span)
	}()
	f, ok := diag.AsFault(err)
	if !ok || f.Code != diag.GenNoInsertPoint || f.Span != span {
		t.Fatalf("expected GenNoInsertPoint at %v, got %v", span, err)
	}
}

func TestResolveSiteRejectsVoidAndNamelessStatic(t *testing.T) {
	u := unitOf(fn("main", types.Void, local("v", types.Void, ast.SiteStack, nil)))
	mustFault(t, u, diag.GenUnsizedType)

	e := newEmitter(unitOf(), Options{})
	var err error
	func() {
		defer diag.Recover(&err)
		e.resolveSite(ast.SiteStatic, types.S32, "", at(1))
	}()
	if f, ok := diag.AsFault(err); !ok || f.Code != diag.GenNamelessStatic {
		t.Fatalf("expected GenNamelessStatic, got %v", err)
	}
}

func TestStackAllocasAreHoistedToEntry(t *testing.T) {
	loop := &ast.Stmt{Kind: ast.StmtLoop, Data: ast.LoopData{Body: &ast.Block{Stmts: []*ast.Stmt{
		local("inner", types.S64, ast.SiteStack, lit(1, types.S64)),
		{Kind: ast.StmtBreak, Data: ast.BreakData{}},
	}}}}
	u := unitOf(fn("main", types.Void,
		local("outer", types.S32, ast.SiteStack, lit(0, types.S32)),
		loop,
	))
	f := funcNamed(t, mustEmit(t, u), "main")
	entry := f.Blocks[0]
	for i, name := range []string{"outer", "inner"} {
		a, ok := entry.Insts[i].(*ir.InstAlloca)
		if !ok || a.Name() != name {
			t.Fatalf("entry instruction %d should be the alloca for %s, got %v", i, name, entry.Insts[i])
		}
	}
	for _, b := range f.Blocks[1:] {
		for _, inst := range b.Insts {
			if _, ok := inst.(*ir.InstAlloca); ok {
				t.Fatalf("alloca outside the entry block in %s", b.Name())
			}
		}
	}
}

func TestAtomicVolatileModifiers(t *testing.T) {
	strict := ast.Modifiers{Volatile: true, Ordering: ast.OrderingSeqCst}
	u := unitOf(fn("main", types.U32,
		local("c", types.U32, ast.SiteStack, nil),
		exprStmt(write(ref("c", types.U32), lit(1, types.U32), strict)),
		ret(load(ref("c", types.U32), types.U32, nil, ast.Modifiers{Ordering: ast.OrderingAcqRel})),
	))
	f := funcNamed(t, mustEmit(t, u), "main")

	var st *ir.InstStore
	for _, s := range collect[*ir.InstStore](f) {
		if s.Atomic {
			st = s
		}
	}
	if st == nil || !st.Volatile || st.Ordering != enum.AtomicOrderingSequentiallyConsistent {
		t.Fatalf("write should be an atomic volatile seq_cst store: %+v", st)
	}
	if st.Align != 4 {
		t.Fatalf("atomic store needs explicit alignment, got %d", st.Align)
	}
	ld := entryRet(t, f).X.(*ir.InstLoad)
	if !ld.Atomic || ld.Volatile || ld.Ordering != enum.AtomicOrderingAcquire {
		t.Fatalf("acq_rel load should weaken to acquire: atomic=%v volatile=%v ordering=%v", ld.Atomic, ld.Volatile, ld.Ordering)
	}
}

func TestDerefLoadsThroughPointerValue(t *testing.T) {
	ptrT := types.MakePtr(types.S16)
	deref := &ast.Expr{Kind: ast.ExprDeref, Type: types.S16, Data: ast.DerefData{
		Value:     ref("p", ptrT),
		Modifiers: ast.Modifiers{Volatile: true},
	}}
	halloc := &ast.Expr{Kind: ast.ExprBuiltin, Type: ptrT, Data: ast.BuiltinData{Builtin: ast.BuiltinHalloc, TypeArg: types.S16}}
	u := unitOf(fn("main", types.S16,
		instr("p", ptrT, halloc),
		ret(deref),
	))
	f := funcNamed(t, mustEmit(t, u), "main")
	ld, ok := entryRet(t, f).X.(*ir.InstLoad)
	if !ok || !ld.Volatile {
		t.Fatalf("deref should be a volatile load, got %T", entryRet(t, f).X)
	}
	if _, ok := ld.Src.(*ir.InstBitCast); !ok {
		t.Fatalf("deref should read the halloc pointer, got %T", ld.Src)
	}
}

func TestLocalStaticSite(t *testing.T) {
	u := unitOf(fn("counter", types.S32,
		local("n", types.S32, ast.SiteStatic, lit(3, types.S32)),
		ret(ref("n", types.S32)),
	))
	m := mustEmit(t, u)
	g := globalNamed(t, m, "local.static.n")
	if g.Linkage != enum.LinkagePrivate {
		t.Fatalf("local statics are private, got %v", g.Linkage)
	}
	if c, ok := g.Init.(*constant.Int); !ok || c.X.Int64() != 3 {
		t.Fatalf("local static keeps its constant initializer, got %v", g.Init)
	}

	bad := unitOf(fn("counter", types.S32,
		local("m", types.S32, ast.SiteStack, lit(1, types.S32)),
		local("n", types.S32, ast.SiteStatic, ref("m", types.S32)),
		ret(ref("n", types.S32)),
	))
	mustFault(t, bad, diag.GenNotConstant)
}

func TestOrderingsLegalPerAccess(t *testing.T) {
	tests := []struct {
		in    ast.MemoryOrdering
		load  enum.AtomicOrdering
		store enum.AtomicOrdering
	}{
		{ast.OrderingMonotonic, enum.AtomicOrderingMonotonic, enum.AtomicOrderingMonotonic},
		{ast.OrderingAcquire, enum.AtomicOrderingAcquire, enum.AtomicOrderingMonotonic},
		{ast.OrderingRelease, enum.AtomicOrderingMonotonic, enum.AtomicOrderingRelease},
		{ast.OrderingAcqRel, enum.AtomicOrderingAcquire, enum.AtomicOrderingRelease},
		{ast.OrderingSeqCst, enum.AtomicOrderingSequentiallyConsistent, enum.AtomicOrderingSequentiallyConsistent},
	}
	for _, tt := range tests {
		if got := loadOrdering(tt.in); got != tt.load {
			t.Errorf("load %d: got %v, want %v", tt.in, got, tt.load)
		}
		if got := storeOrdering(tt.in); got != tt.store {
			t.Errorf("store %d: got %v, want %v", tt.in, got, tt.store)
		}
	}
}

func TestPointerSlotsAreReachedThroughTheirPointer(t *testing.T) {
	ptrT := types.MakePtr(types.S32)
	body := func() []*ast.Stmt {
		addr := &ast.Expr{
			Kind: ast.ExprAddress,
			Type: ptrT,
			Data: ast.AddressData{Base: ref("p", ptrT), Indexes: []*ast.Expr{lit(1, types.U32)}},
		}
		return []*ast.Stmt{
			exprStmt(write(ref("p", ptrT), lit(5, types.S32), ast.Modifiers{})),
			instr("q", ptrT, addr),
			ret(load(ref("p", ptrT), types.S32, nil, ast.Modifiers{})),
		}
	}
	param := &ast.Func{
		Name:   "set",
		Params: []ast.Param{{Name: "p", Type: ptrT}},
		Ret:    types.S32,
		Attrs:  ast.Attributes{Public: true},
		Body:   &ast.Block{Stmts: body()},
	}
	halloc := &ast.Expr{Kind: ast.ExprBuiltin, Type: ptrT, Data: ast.BuiltinData{Builtin: ast.BuiltinHalloc, TypeArg: types.S32}}
	loc := fn("set", types.S32, append([]*ast.Stmt{local("p", ptrT, ast.SiteStack, halloc)}, body()...)...)

	for name, f := range map[string]*ast.Func{"param": param, "local": loc} {
		t.Run(name, func(t *testing.T) {
			g := funcNamed(t, mustEmit(t, unitOf(f)), "set")
			pointerLoad := func(v any) bool {
				ld, ok := v.(*ir.InstLoad)
				return ok && lltypes.Equal(ld.ElemType, lltypes.NewPointer(lltypes.I32))
			}

			var five *ir.InstStore
			for _, st := range collect[*ir.InstStore](g) {
				if c, ok := st.Src.(*constant.Int); ok && c.X.Int64() == 5 {
					five = st
				}
			}
			if five == nil || !lltypes.Equal(five.Src.Type(), lltypes.I32) {
				t.Fatalf("write should store i32 5, got %+v", five)
			}
			if !pointerLoad(five.Dst) {
				t.Fatalf("write should go through the held pointer, got %T", five.Dst)
			}

			geps := collect[*ir.InstGetElementPtr](g)
			if len(geps) != 1 || !lltypes.Equal(geps[0].ElemType, lltypes.I32) || !pointerLoad(geps[0].Src) {
				t.Fatalf("address should step over i32 elements of the held pointer")
			}

			ld, ok := entryRet(t, g).X.(*ir.InstLoad)
			if !ok || !lltypes.Equal(ld.ElemType, lltypes.I32) || !pointerLoad(ld.Src) {
				t.Fatalf("load should read i32 through the held pointer, got %v", entryRet(t, g).X)
			}
		})
	}
}

func TestWritingAPointerRebindsTheSlot(t *testing.T) {
	ptrT := types.MakePtr(types.S32)
	halloc := func() *ast.Expr {
		return &ast.Expr{Kind: ast.ExprBuiltin, Type: ptrT, Data: ast.BuiltinData{Builtin: ast.BuiltinHalloc, TypeArg: types.S32}}
	}
	u := unitOf(fn("main", ptrT,
		local("p", ptrT, ast.SiteStack, halloc()),
		instr("r", ptrT, halloc()),
		exprStmt(write(ref("p", ptrT), ref("r", ptrT), ast.Modifiers{})),
		ret(load(ref("p", ptrT), ptrT, nil, ast.Modifiers{})),
	))
	f := funcNamed(t, mustEmit(t, u), "main")
	stores := collect[*ir.InstStore](f)
	last := stores[len(stores)-1]
	if _, ok := last.Dst.(*ir.InstAlloca); !ok {
		t.Fatalf("a pointer-typed write should land in the slot, got %T", last.Dst)
	}
	ld := entryRet(t, f).X.(*ir.InstLoad)
	if _, ok := ld.Src.(*ir.InstAlloca); !ok {
		t.Fatalf("a pointer-typed load should read the slot, got %T", ld.Src)
	}
}

func TestOpaquePointerLoadUsesLoadedType(t *testing.T) {
	s64 := types.S64
	opaque := types.MakeOpaquePtr()
	param := func(src *ast.Expr) *ast.Func {
		return &ast.Func{
			Name:   "widen",
			Params: []ast.Param{{Name: "p", Type: types.MakePtr(types.S32)}},
			Ret:    types.S64,
			Attrs:  ast.Attributes{Public: true},
			Body:   &ast.Block{Stmts: []*ast.Stmt{ret(src)}},
		}
	}
	src := cast(ref("p", types.MakePtr(types.S32)), opaque)

	f := funcNamed(t, mustEmit(t, unitOf(param(load(src, types.S32, &s64, ast.Modifiers{})))), "widen")
	ext, ok := entryRet(t, f).X.(*ir.InstSExt)
	if !ok {
		t.Fatalf("s32 loaded as s64 should sign-extend, got %T", entryRet(t, f).X)
	}
	ld, ok := ext.From.(*ir.InstLoad)
	if !ok || !lltypes.Equal(ld.ElemType, lltypes.I32) {
		t.Fatalf("expected an i32 load, got %v", ext.From)
	}

	untyped := &ast.Expr{Kind: ast.ExprLoad, Type: s64, Span: at(9), Data: ast.LoadData{Source: src, Cast: &s64}}
	mustFault(t, unitOf(param(untyped)), diag.GenBadOperand)
}
