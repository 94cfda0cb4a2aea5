package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/layout"
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// resolveSite creates storage for a value of type ty at site and returns
// a pointer to it. It never returns a placeholder: every failure aborts
// with span and the call site that asked for the storage.
func (e *Emitter) resolveSite(site ast.AllocSite, ty types.Type, name string, span source.Span) value.Value {
	fe := e.fe
	if site != ast.SiteStatic {
		if fe == nil {
			diag.Abort(1, diag.GenNoFunction, span, "cannot allocate '%s' on the %s outside of a function", nameOr(name), site)
		}
		if fe.cur == nil {
			diag.Abort(1, diag.GenNoInsertPoint, span, "cannot allocate '%s' on the %s: no insertion block", nameOr(name), site)
		}
	}
	if k := types.Unwrap(ty).Kind; k == types.KindVoid || k == types.KindInvalid {
		diag.Abort(1, diag.GenUnsizedType, span, "cannot allocate '%s': type '%s' has no storage size", nameOr(name), ty)
	}
	lay := e.layoutOf(ty, span)
	llty := e.llvmType(ty)

	switch site {
	case ast.SiteStack:
		return fe.hoistAlloca(llty, name, lay.Align)
	case ast.SiteHeap:
		return fe.heapAlloc(llty, name, lay.Size)
	case ast.SiteStatic:
		if name == "" {
			diag.Abort(1, diag.GenNamelessStatic, span, "static storage of type '%s' needs a name", ty)
		}
		g := e.mod.NewGlobalDef(e.uniqueGlobal("local.static."+name), constant.NewZeroInitializer(llty))
		g.Linkage = enum.LinkagePrivate
		g.Align = ir.Align(lay.Align)
		return g
	}
	diag.Abort(1, diag.GenUnsupported, span, "unknown allocation site %d", site)
	return nil
}

func (e *Emitter) layoutOf(ty types.Type, span source.Span) layout.Layout {
	lay, err := e.layout.Of(ty)
	if err != nil {
		diag.Abort(2, diag.GenLayout, span, "%v", err)
	}
	return lay
}

func (e *Emitter) alignOf(ty types.Type, span source.Span) ir.Align {
	return ir.Align(e.layoutOf(ty, span).Align)
}

// heapAlloc calls malloc for size bytes and casts the result to a
// pointer to ty. Nothing frees it; heap lifetime is up to the program.
func (fe *funcEmitter) heapAlloc(ty lltypes.Type, name string, size int) value.Value {
	sizeT := fe.e.sizeType()
	malloc := fe.e.runtimeFunc("malloc", lltypes.I8Ptr, sizeT)
	raw := fe.cur.NewCall(malloc, constant.NewInt(sizeT, int64(size)))
	if lltypes.Equal(ty, lltypes.I8) {
		if name != "" {
			raw.SetName(fe.local(name))
		}
		return raw
	}
	ptr := fe.cur.NewBitCast(raw, lltypes.NewPointer(ty))
	if name != "" {
		ptr.SetName(fe.local(name))
	}
	return ptr
}

// runtimeFunc returns the C runtime function name, declaring it on first
// use. An existing declaration of the same name is reused.
func (e *Emitter) runtimeFunc(name string, ret lltypes.Type, params ...lltypes.Type) *ir.Func {
	for _, f := range e.mod.Funcs {
		if f.Name() == name {
			return f
		}
	}
	ps := make([]*ir.Param, 0, len(params))
	for _, p := range params {
		ps = append(ps, ir.NewParam("", p))
	}
	e.globalNames[name]++
	return e.mod.NewFunc(name, ret, ps...)
}

func nameOr(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}
