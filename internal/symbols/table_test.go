package symbols

import (
	"testing"

	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

func local(name string, ty types.Type) Symbol {
	return Symbol{Name: name, Kind: SymbolLocal, Type: ty}
}

func TestPopHidesInnerNames(t *testing.T) {
	table := NewTable()
	table.EnterScope(ScopeParams, source.Span{})
	table.EnterScope(ScopeBlock, source.Span{})
	table.Declare(local("tmp", types.S32))
	if _, ok := table.Lookup("tmp"); !ok {
		t.Fatalf("tmp should be visible inside its block")
	}
	table.LeaveScope()
	if _, ok := table.Lookup("tmp"); ok {
		t.Fatalf("tmp must not be visible after its frame is popped")
	}
	if table.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", table.Depth())
	}
}

func TestShadowingAcrossFrames(t *testing.T) {
	table := NewTable()
	table.EnterScope(ScopeBlock, source.Span{})
	table.Declare(local("x", types.S32))
	table.EnterScope(ScopeBlock, source.Span{})
	table.Declare(local("x", types.U8))

	sym, ok := table.Lookup("x")
	if !ok || !types.Equal(sym.Type, types.U8) || sym.Depth != 2 {
		t.Fatalf("inner binding expected, got %+v", sym)
	}
	table.LeaveScope()
	sym, ok = table.Lookup("x")
	if !ok || !types.Equal(sym.Type, types.S32) || sym.Depth != 1 {
		t.Fatalf("outer binding expected after pop, got %+v", sym)
	}
}

func TestRedeclareWithinFrameIsLastWriteWins(t *testing.T) {
	table := NewTable()
	table.EnterScope(ScopeBlock, source.Span{})
	table.Declare(local("v", types.S8))
	table.Declare(local("v", types.S64))
	sym, _ := table.Lookup("v")
	if !types.Equal(sym.Type, types.S64) {
		t.Fatalf("expected the latest declaration, got %s", sym.Type)
	}
}

func TestMarksDoNotLeakToShadowedNames(t *testing.T) {
	table := NewTable()
	table.EnterScope(ScopeBlock, source.Span{})
	table.Declare(local("n", types.S32))
	table.EnterScope(ScopeBlock, source.Span{})
	table.Declare(local("n", types.S32))

	if !table.MarkUsed("n") || !table.MarkMutated("n") {
		t.Fatalf("marking a visible name must succeed")
	}
	inner, _ := table.Lookup("n")
	if !inner.Used() || !inner.Mutated() {
		t.Fatalf("inner binding not marked: %+v", inner)
	}
	table.LeaveScope()
	outer, _ := table.Lookup("n")
	if outer.Used() || outer.Mutated() {
		t.Fatalf("outer binding must stay untouched, got flags %b", outer.Flags)
	}
	if table.MarkUsed("missing") {
		t.Fatalf("marking an unknown name must report false")
	}
}

func TestNamesAreNFCNormalised(t *testing.T) {
	table := NewTable()
	table.Declare(Symbol{Name: "caf\u00e9", Kind: SymbolStatic, Type: types.U8})
	if _, ok := table.Lookup("cafe\u0301"); !ok {
		t.Fatalf("decomposed spelling should find the composed declaration")
	}
}

func TestDeclareGlobalFromNestedFrame(t *testing.T) {
	table := NewTable()
	table.EnterScope(ScopeParams, source.Span{})
	table.DeclareGlobal(Symbol{Name: "main", Kind: SymbolFunction})
	table.LeaveScope()
	sym, ok := table.Lookup("main")
	if !ok || sym.Depth != 0 {
		t.Fatalf("global should live in frame 0, got %+v, %v", sym, ok)
	}
}

func TestLeavingModuleScopePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	NewTable().LeaveScope()
}
