package llvm

import (
	"context"
	"fmt"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/layout"
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/symbols"
	"github.com/thrushlang/thrushc-sub009/internal/trace"
)

// Options configures lowering of one unit.
type Options struct {
	Target layout.Target
}

type structKey struct {
	name   string
	packed bool
}

// Emitter lowers one unit into one IR module. It is not safe for
// concurrent use; concurrent builds create one Emitter per unit.
type Emitter struct {
	unit   *ast.Unit
	mod    *ir.Module
	layout *layout.Engine
	syms   *symbols.Table
	tracer trace.Tracer
	span   uint64

	structs     map[structKey]*lltypes.StructType
	typeNames   map[string]struct{}
	strs        map[string]*ir.Global
	intrinsics  map[string]*ir.Func
	globalNames map[string]int

	// fe is the function currently being lowered; nil between functions.
	fe *funcEmitter
}

func newEmitter(unit *ast.Unit, opts Options) *Emitter {
	target := opts.Target
	if target.Triple == "" {
		target = layout.X86_64LinuxGNU()
	}
	mod := ir.NewModule()
	mod.SourceFilename = unit.Path
	mod.TargetTriple = target.Triple
	mod.DataLayout = target.DataLayout
	return &Emitter{
		unit:        unit,
		mod:         mod,
		layout:      layout.New(target),
		syms:        symbols.NewTable(),
		tracer:      trace.Nop,
		structs:     make(map[structKey]*lltypes.StructType),
		typeNames:   make(map[string]struct{}),
		strs:        make(map[string]*ir.Global),
		intrinsics:  make(map[string]*ir.Func),
		globalNames: make(map[string]int),
	}
}

// EmitModule lowers unit into a fresh IR module. Backend faults raised
// while lowering are returned as *diag.Fault; the partial module is
// discarded.
func EmitModule(ctx context.Context, unit *ast.Unit, opts Options) (mod *ir.Module, err error) {
	if unit == nil {
		return nil, fmt.Errorf("emit: nil unit")
	}
	e := newEmitter(unit, opts)
	e.tracer = trace.FromContext(ctx)
	sp := trace.Begin(e.tracer, trace.ScopeUnit, "unit:"+unit.Name, trace.CurrentSpan(ctx).SpanID)
	e.span = sp.ID()
	defer func() {
		if err != nil {
			sp.WithExtra("error", err.Error())
		}
		sp.End("")
	}()

	defer diag.Recover(&err)

	for _, c := range unit.Consts {
		e.emitConst(c)
	}
	for _, s := range unit.Statics {
		e.emitStatic(s)
	}
	fns := make([]*ir.Func, len(unit.Funcs))
	for i, f := range unit.Funcs {
		fns[i] = e.declareFunc(f)
	}
	for i, f := range unit.Funcs {
		if f.Body == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.emitFunc(f, fns[i])
	}
	return e.mod, nil
}

// Module exposes the module under construction.
func (e *Emitter) Module() *ir.Module { return e.mod }

// claimGlobal reserves a declared global name. Declared names come from
// one flat namespace; a repeat is a fault.
func (e *Emitter) claimGlobal(name string, span source.Span) {
	if _, seen := e.globalNames[name]; seen {
		diag.Abort(1, diag.GenDuplicateGlobal, span, "global '%s' is defined more than once", name)
	}
	e.globalNames[name] = 1
}

// uniqueGlobal returns name, suffixed when a global of that name already
// exists in the module.
func (e *Emitter) uniqueGlobal(name string) string {
	n, seen := e.globalNames[name]
	e.globalNames[name] = n + 1
	if !seen {
		return name
	}
	return fmt.Sprintf("%s.%d", name, n)
}
