package llvm

import (
	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/symbols"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// emitBlock lowers b in a fresh scope. Statements after a terminator are
// unreachable and are dropped.
func (fe *funcEmitter) emitBlock(b *ast.Block) {
	if b == nil {
		return
	}
	fe.e.syms.EnterScope(symbols.ScopeBlock, b.Span)
	defer fe.e.syms.LeaveScope()
	for _, s := range b.Stmts {
		if fe.terminated() {
			return
		}
		fe.emitStmt(s)
	}
}

func (fe *funcEmitter) emitStmt(s *ast.Stmt) {
	switch d := s.Data.(type) {
	case ast.LocalData:
		fe.emitLocal(s, d)
	case ast.InstrData:
		fe.emitInstr(s, d)
	case ast.AssignData:
		fe.emitAssign(s, d)
	case ast.ExprStmtData:
		fe.emitExpr(d.Expr)
	case ast.ReturnData:
		fe.emitReturn(d)
	case ast.BreakData:
		fe.cur.NewBr(fe.innermostLoop(s).brk)
	case ast.ContinueData:
		fe.cur.NewBr(fe.innermostLoop(s).cont)
	case ast.IfData:
		fe.emitIf(d)
	case ast.WhileData:
		fe.emitWhile(d)
	case ast.LoopData:
		fe.emitLoop(d)
	case ast.BlockStmtData:
		fe.emitBlock(d.Block)
	default:
		diag.Abort(0, diag.GenUnsupported, s.Span, "cannot lower %s statement", s.Kind)
	}
}

// emitLocal allocates a local at its site and stores the initializer.
// A struct constructor initializer writes through an anchor on the slot;
// once the anchor is written the store is skipped. The name is bound
// only after the initializer, so it cannot refer to itself.
func (fe *funcEmitter) emitLocal(s *ast.Stmt, d ast.LocalData) {
	var slot value.Value
	if d.Site == ast.SiteStatic {
		slot = fe.e.resolveSite(ast.SiteStatic, d.Type, d.Name, s.Span)
		if d.Value != nil {
			slot.(*ir.Global).Init = fe.e.mustConst(d.Value, d.Type, d.Name)
		}
	} else {
		slot = fe.e.resolveSite(d.Site, d.Type, d.Name, s.Span)
		if d.Value != nil {
			prev := fe.anchor
			fe.anchor = nil
			if init := ast.Unparen(d.Value); init.Kind == ast.ExprStructLit {
				fe.anchor = NewAnchor(slot)
			}
			v := fe.emitExpr(d.Value)
			if !fe.anchor.IsTriggered() {
				fe.store(fe.coerce(v, d.Value.Type, d.Type), slot, d.Type, ast.Modifiers{}, s.Span)
			}
			fe.anchor = prev
		}
	}

	var flags symbols.SymbolFlags
	if d.Mutable {
		flags |= symbols.SymbolFlagMutable
	}
	fe.e.syms.Declare(symbols.Symbol{
		Name:   d.Name,
		Kind:   symbols.SymbolLocal,
		Handle: slot,
		Type:   d.Type,
		Site:   d.Site,
		Flags:  flags,
		Span:   s.Span,
	})
}

// emitInstr binds the value of a low-level instruction to a name. The
// symbol's handle is the value itself.
func (fe *funcEmitter) emitInstr(s *ast.Stmt, d ast.InstrData) {
	v := fe.emitExpr(d.Value)
	if v == nil {
		diag.Abort(0, diag.GenBadOperand, s.Span, "instruction '%s' produces no value", d.Name)
	}
	v = fe.coerce(v, d.Value.Type, d.Type)
	if _, void := v.Type().(*lltypes.VoidType); void {
		diag.Abort(0, diag.GenBadOperand, s.Span, "instruction '%s' produces no value", d.Name)
	}
	if inst, ok := v.(ir.Instruction); ok {
		if named, ok := inst.(interface {
			IsUnnamed() bool
			SetName(string)
		}); ok && named.IsUnnamed() {
			named.SetName(fe.local(d.Name))
		}
	}
	fe.e.syms.Declare(symbols.Symbol{
		Name:   d.Name,
		Kind:   symbols.SymbolLLI,
		Handle: v,
		Type:   d.Type,
		Span:   s.Span,
	})
}

func (fe *funcEmitter) emitAssign(s *ast.Stmt, d ast.AssignData) {
	ptr, elem, ok := fe.place(d.Target)
	if !ok {
		if name, isRef := ast.AsRef(d.Target); isRef {
			sym := fe.lookup(name, d.Target.Span)
			if sym.Kind == symbols.SymbolLLI && types.IsPtrLike(sym.Type) {
				ptr, elem, ok = sym.Handle, pointee(sym.Type), true
			}
		}
	}
	if !ok || elem.Kind == types.KindInvalid {
		diag.Abort(0, diag.GenBadOperand, s.Span, "assignment target is not addressable")
	}
	if name, isRef := ast.AsRef(d.Target); isRef {
		fe.e.syms.MarkMutated(name)
	}
	v := fe.coerce(fe.emitExpr(d.Value), d.Value.Type, elem)
	fe.store(v, ptr, elem, ast.Modifiers{}, s.Span)
}

func (fe *funcEmitter) emitReturn(d ast.ReturnData) {
	if d.Value == nil || types.IsVoid(fe.decl.Ret) {
		if d.Value != nil {
			fe.emitExpr(d.Value)
		}
		fe.cur.NewRet(nil)
		return
	}
	v := fe.coerce(fe.emitExpr(d.Value), d.Value.Type, fe.decl.Ret)
	fe.cur.NewRet(v)
}

func (fe *funcEmitter) emitIf(d ast.IfData) {
	end := fe.newBlock("if.end")
	fe.branch(d.Cond, d.Then, end)
	for _, elif := range d.Elifs {
		fe.branch(elif.Cond, elif.Then, end)
	}
	if d.Else != nil {
		fe.emitBlock(d.Else)
	}
	fe.jump(end)
	fe.enter(end)
}

// branch lowers one guarded arm: the arm falls through to end and the
// current block moves to the test of the next arm.
func (fe *funcEmitter) branch(cond *ast.Expr, then *ast.Block, end *ir.Block) {
	thenB := fe.newBlock("if.then")
	next := fe.newBlock("if.next")
	fe.cur.NewCondBr(fe.truth(cond), thenB, next)
	fe.cur = thenB
	fe.emitBlock(then)
	fe.jump(end)
	fe.cur = next
}

func (fe *funcEmitter) emitWhile(d ast.WhileData) {
	cond := fe.newBlock("while.cond")
	body := fe.newBlock("while.body")
	end := fe.newBlock("while.end")
	fe.jump(cond)
	fe.cur = cond
	fe.cur.NewCondBr(fe.truth(d.Cond), body, end)
	fe.cur = body
	fe.loopBody(d.Body, loopFrame{cont: cond, brk: end})
	fe.jump(cond)
	fe.enter(end)
}

func (fe *funcEmitter) emitLoop(d ast.LoopData) {
	body := fe.newBlock("loop.body")
	end := fe.newBlock("loop.end")
	fe.jump(body)
	fe.cur = body
	fe.loopBody(d.Body, loopFrame{cont: body, brk: end})
	fe.jump(body)
	fe.enter(end)
}

func (fe *funcEmitter) loopBody(b *ast.Block, frame loopFrame) {
	fe.loops = append(fe.loops, frame)
	defer func() { fe.loops = fe.loops[:len(fe.loops)-1] }()
	fe.emitBlock(b)
}

func (fe *funcEmitter) innermostLoop(s *ast.Stmt) loopFrame {
	if len(fe.loops) == 0 {
		diag.Abort(1, diag.GenLoopControl, s.Span, "%s outside of a loop", s.Kind)
	}
	return fe.loops[len(fe.loops)-1]
}

// jump branches to target unless the current block already ended.
func (fe *funcEmitter) jump(target *ir.Block) {
	if !fe.terminated() {
		fe.cur.NewBr(target)
	}
}

// enter makes b current and moves it after the blocks emitted since it
// was created, keeping join blocks below the arms that reach them.
func (fe *funcEmitter) enter(b *ir.Block) {
	blocks := fe.fn.Blocks
	for i, x := range blocks {
		if x == b {
			copy(blocks[i:], blocks[i+1:])
			blocks[len(blocks)-1] = b
			break
		}
	}
	fe.cur = b
}
