package llvm

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/symbols"
	"github.com/thrushlang/thrushc-sub009/internal/trace"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

type loopFrame struct {
	cont *ir.Block
	brk  *ir.Block
}

type funcEmitter struct {
	e     *Emitter
	decl  *ast.Func
	fn    *ir.Func
	entry *ir.Block
	cur   *ir.Block

	// allocaIdx is where the next hoisted alloca goes in entry.
	allocaIdx int
	loops     []loopFrame
	anchor    *PointerAnchor
	names     map[string]int
}

// declareFunc creates the IR function for f and binds it in the module
// frame. Bodies are lowered later so calls may refer forward.
func (e *Emitter) declareFunc(f *ast.Func) *ir.Func {
	params := make([]*ir.Param, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, ir.NewParam(p.Name, e.llvmType(p.Type)))
	}
	name := f.Attrs.SymbolName(f.Name)
	e.claimGlobal(name, f.Span)

	fn := e.mod.NewFunc(name, e.llvmType(f.Ret), params...)
	fn.Sig.Variadic = f.Variadic
	fn.CallingConv = callingConvs[f.Attrs.Convention]
	if f.Body != nil && !f.Attrs.Public && !f.Attrs.Extern && name != "main" {
		fn.Linkage = enum.LinkageInternal
	}
	if f.Attrs.Linkage != ast.LinkageDefault {
		fn.Linkage = linkages[f.Attrs.Linkage]
	}
	fn.FuncAttrs = append(fn.FuncAttrs, funcAttrs(f.Attrs)...)

	e.syms.DeclareGlobal(symbols.Symbol{
		Name:   f.Name,
		Kind:   symbols.SymbolFunction,
		Handle: fn,
		Type:   f.Signature(),
		Span:   f.Span,
	})
	return fn
}

var callingConvs = [...]enum.CallingConv{
	ast.ConvDefault:      enum.CallingConvNone,
	ast.ConvC:            enum.CallingConvC,
	ast.ConvFast:         enum.CallingConvFast,
	ast.ConvTail:         enum.CallingConvTail,
	ast.ConvCold:         enum.CallingConvCold,
	ast.ConvPreserveMost: enum.CallingConvPreserveMost,
	ast.ConvPreserveAll:  enum.CallingConvPreserveAll,
	ast.ConvSwift:        enum.CallingConvSwift,
	ast.ConvGHC:          enum.CallingConvGHC,
	ast.ConvHiPE:         enum.CallingConvHiPE,
}

var linkages = [...]enum.Linkage{
	ast.LinkageDefault:             enum.LinkageNone,
	ast.LinkageExternal:            enum.LinkageExternal,
	ast.LinkageInternal:            enum.LinkageInternal,
	ast.LinkagePrivate:             enum.LinkagePrivate,
	ast.LinkageWeak:                enum.LinkageWeak,
	ast.LinkageWeakODR:             enum.LinkageWeakODR,
	ast.LinkageLinkOnce:            enum.LinkageLinkOnce,
	ast.LinkageLinkOnceODR:         enum.LinkageLinkOnceODR,
	ast.LinkageCommon:              enum.LinkageCommon,
	ast.LinkageAppending:           enum.LinkageAppending,
	ast.LinkageExternWeak:          enum.LinkageExternWeak,
	ast.LinkageAvailableExternally: enum.LinkageAvailableExternally,
}

var stackAttrs = [...]enum.FuncAttr{
	ast.StackSafe:   enum.FuncAttrSafeStack,
	ast.StackStrong: enum.FuncAttrSSPStrong,
	ast.StackWeak:   enum.FuncAttrSSP,
}

// funcAttrs lists the IR attributes of a function in a fixed order.
func funcAttrs(a ast.Attributes) []ir.FuncAttribute {
	var out []ir.FuncAttribute
	switch {
	case a.Inline:
		out = append(out, enum.FuncAttrAlwaysInline)
	case a.NoInline:
		out = append(out, enum.FuncAttrNoInline)
	case a.InlineHint:
		out = append(out, enum.FuncAttrInlineHint)
	}
	if a.Hot {
		out = append(out, enum.FuncAttrHot)
	}
	if a.MinSize {
		out = append(out, enum.FuncAttrMinSize)
	}
	if a.NoUnwind {
		out = append(out, enum.FuncAttrNoUnwind)
	}
	if a.Stack != ast.StackDefault {
		out = append(out, stackAttrs[a.Stack])
	}
	if a.PreciseFloats {
		out = append(out, enum.FuncAttrStrictFP)
	}
	if a.Pure {
		out = append(out, enum.FuncAttrReadNone)
	}
	return out
}

func (e *Emitter) emitFunc(f *ast.Func, fn *ir.Func) {
	sp := trace.Begin(e.tracer, trace.ScopeFunc, "fn:"+f.Name, e.span)
	defer sp.End("")

	fe := &funcEmitter{
		e:     e,
		decl:  f,
		fn:    fn,
		names: make(map[string]int),
	}
	for _, p := range fn.Params {
		fe.names[p.Name()] = 1
	}
	fe.entry = fn.NewBlock(fe.local("entry"))
	fe.cur = fe.entry

	e.fe = fe
	defer func() { e.fe = nil }()

	e.syms.EnterScope(symbols.ScopeParams, f.Span)
	defer e.syms.LeaveScope()

	for i, p := range f.Params {
		slot := e.resolveSite(ast.SiteStack, p.Type, p.Name+".addr", p.Span)
		fe.store(fn.Params[i], slot, p.Type, ast.Modifiers{}, p.Span)
		var flags symbols.SymbolFlags
		if p.Mutable {
			flags |= symbols.SymbolFlagMutable
		}
		e.syms.Declare(symbols.Symbol{
			Name:   p.Name,
			Kind:   symbols.SymbolParam,
			Handle: slot,
			Type:   p.Type,
			Site:   ast.SiteStack,
			Flags:  flags,
			Span:   p.Span,
		})
	}

	fe.emitBlock(f.Body)
	fe.finish()
	sp.WithExtra("blocks", fmt.Sprint(len(fn.Blocks)))
	if sp.ID() != 0 {
		sp.WithExtra("symbols", e.syms.Dump())
	}
}

// finish terminates every open block: void functions return, everything
// else falls into unreachable.
func (fe *funcEmitter) finish() {
	void := types.IsVoid(fe.decl.Ret)
	for _, b := range fe.fn.Blocks {
		if b.Term != nil {
			continue
		}
		if void {
			b.NewRet(nil)
		} else {
			b.NewUnreachable()
		}
	}
}

// local returns a function-unique local name derived from hint.
func (fe *funcEmitter) local(hint string) string {
	n, seen := fe.names[hint]
	fe.names[hint] = n + 1
	if !seen {
		return hint
	}
	name := fmt.Sprintf("%s.%d", hint, n)
	for {
		if _, taken := fe.names[name]; !taken {
			fe.names[name] = 1
			return name
		}
		n++
		fe.names[hint] = n + 1
		name = fmt.Sprintf("%s.%d", hint, n)
	}
}

func (fe *funcEmitter) newBlock(hint string) *ir.Block {
	return fe.fn.NewBlock(fe.local(hint))
}

func (fe *funcEmitter) terminated() bool {
	return fe.cur == nil || fe.cur.Term != nil
}

// hoistAlloca places an alloca in the entry block after the allocas
// already hoisted there, so every stack slot dominates its uses.
func (fe *funcEmitter) hoistAlloca(ty lltypes.Type, name string, align int) *ir.InstAlloca {
	a := ir.NewAlloca(ty)
	a.Align = ir.Align(align)
	if name != "" {
		a.SetName(fe.local(name))
	}
	insts := append(fe.entry.Insts, nil)
	copy(insts[fe.allocaIdx+1:], insts[fe.allocaIdx:])
	insts[fe.allocaIdx] = a
	fe.entry.Insts = insts
	fe.allocaIdx++
	return a
}
