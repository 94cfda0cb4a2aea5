package llvm

import (
	"context"
	"testing"

	"github.com/llir/llvm/ir"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

func at(off uint32) source.Span {
	return source.Span{File: 1, Start: off, End: off + 1}
}

func lit(v uint64, t types.Type) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprLiteral, Type: t, Data: ast.LiteralData{Kind: ast.LiteralInt, Int: v, Signed: types.IsSigned(t)}}
}

func ref(name string, t types.Type) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprRef, Type: t, Data: ast.RefData{Name: name}}
}

func cast(x *ast.Expr, to types.Type) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprCast, Type: to, Data: ast.CastData{Value: x}}
}

func load(src *ast.Expr, t types.Type, castTo *types.Type, mods ast.Modifiers) *ast.Expr {
	typ := t
	if castTo != nil {
		typ = *castTo
	}
	return &ast.Expr{Kind: ast.ExprLoad, Type: typ, Data: ast.LoadData{Source: src, Type: t, Cast: castTo, Modifiers: mods}}
}

func write(target, v *ast.Expr, mods ast.Modifiers) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprWrite, Type: types.Void, Data: ast.WriteData{Target: target, Value: v, WriteType: v.Type, Modifiers: mods}}
}

func local(name string, t types.Type, site ast.AllocSite, v *ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtLocal, Data: ast.LocalData{Name: name, Type: t, Site: site, Value: v, Mutable: true}}
}

func instr(name string, t types.Type, v *ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtInstr, Data: ast.InstrData{Name: name, Type: t, Value: v}}
}

func exprStmt(x *ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtExpr, Data: ast.ExprStmtData{Expr: x}}
}

func ret(v *ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtReturn, Data: ast.ReturnData{Value: v}}
}

func fn(name string, retT types.Type, stmts ...*ast.Stmt) *ast.Func {
	return &ast.Func{Name: name, Ret: retT, Body: &ast.Block{Stmts: stmts}, Attrs: ast.Attributes{Public: true}}
}

func unitOf(funcs ...*ast.Func) *ast.Unit {
	return &ast.Unit{Name: "test", Path: "test.th", Funcs: funcs}
}

func mustEmit(t *testing.T, u *ast.Unit) *ir.Module {
	t.Helper()
	m, err := EmitModule(context.Background(), u, Options{})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return m
}

func mustFault(t *testing.T, u *ast.Unit, code diag.Code) *diag.Fault {
	t.Helper()
	m, err := EmitModule(context.Background(), u, Options{})
	if err == nil {
		t.Fatalf("expected %s, got a module", code.ID())
	}
	if m != nil {
		t.Fatalf("a faulting unit must not yield a module")
	}
	f, ok := diag.AsFault(err)
	if !ok {
		t.Fatalf("expected a fault, got %v", err)
	}
	if f.Code != code {
		t.Fatalf("expected %s, got %s", code.ID(), f)
	}
	return f
}

func funcNamed(t *testing.T, m *ir.Module, name string) *ir.Func {
	t.Helper()
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func globalNamed(t *testing.T, m *ir.Module, name string) *ir.Global {
	t.Helper()
	for _, g := range m.Globals {
		if g.Name() == name {
			return g
		}
	}
	t.Fatalf("global %s not found", name)
	return nil
}

func instsOf(f *ir.Func) []ir.Instruction {
	var out []ir.Instruction
	for _, b := range f.Blocks {
		out = append(out, b.Insts...)
	}
	return out
}

func collect[T ir.Instruction](f *ir.Func) []T {
	var out []T
	for _, inst := range instsOf(f) {
		if v, ok := inst.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func entryRet(t *testing.T, f *ir.Func) *ir.TermRet {
	t.Helper()
	for _, b := range f.Blocks {
		if r, ok := b.Term.(*ir.TermRet); ok {
			return r
		}
	}
	t.Fatalf("%s has no ret", f.Name())
	return nil
}
