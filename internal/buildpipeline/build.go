// Package buildpipeline drives `.tast` units through the LLVM backend.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"fortio.org/safecast"
	"github.com/llir/llvm/ir"
	"golang.org/x/sync/errgroup"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/astio"
	"github.com/thrushlang/thrushc-sub009/internal/backend/llvm"
	"github.com/thrushlang/thrushc-sub009/internal/layout"
	"github.com/thrushlang/thrushc-sub009/internal/observ"
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/trace"
)

// Request configures one build.
type Request struct {
	Inputs   []string // `.tast` files
	Names    []string // display names for progress, parallel to Inputs
	OutDir   string
	Target   layout.Target
	Jobs     int       // <= 0 means GOMAXPROCS
	Stdout   io.Writer // when set, IR goes here instead of files
	Progress ProgressSink
}

// Unit is one lowered input.
type Unit struct {
	Input  string
	Output string // empty when written to Stdout
	Unit   *ast.Unit
	Module *ir.Module
}

// Result captures build artefacts and timings.
type Result struct {
	Units []Unit
	Files *source.FileSet
	Timer *observ.Timer
}

// Build decodes every input, lowers the units concurrently and writes one
// `.ll` file per unit. If any unit faults, the remaining units are
// cancelled and nothing is written. Result.Files is always set so that
// a returned *diag.Fault can be rendered.
func Build(ctx context.Context, req *Request) (Result, error) {
	res := Result{Files: source.NewFileSet(), Timer: observ.NewTimer()}
	if req == nil {
		return res, fmt.Errorf("missing build request")
	}
	if len(req.Inputs) == 0 {
		return res, fmt.Errorf("no input files")
	}
	names := req.Names
	if len(names) != len(req.Inputs) {
		names = DisplayNames(req.Inputs, "")
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	ctx, root := trace.Start(ctx, trace.ScopeDriver, "build")
	defer root.End("")

	req.reportAll(names, StageDecode, StatusQueued)

	docs, err := decodeAll(ctx, req, names, jobs, &res)
	if err != nil {
		return res, err
	}

	units := make([]Unit, len(docs))
	for i, doc := range docs {
		units[i] = Unit{Input: req.Inputs[i], Unit: doc.Unit}
	}
	if err := emitAll(ctx, req, names, jobs, units, res.Timer); err != nil {
		return res, err
	}
	res.Units = units

	if err := writeAll(ctx, req, names, units, res.Timer); err != nil {
		return res, err
	}
	root.WithExtra("units", fmt.Sprint(len(units)))
	return res, nil
}

func decodeAll(ctx context.Context, req *Request, names []string, jobs int, res *Result) ([]*astio.Document, error) {
	endPhase := res.Timer.Begin(string(StageDecode))
	ctx, span := trace.Start(ctx, trace.ScopePass, "decode")
	defer span.End("")

	docs := make([]*astio.Document, len(req.Inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Inputs)))
	for i, path := range req.Inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id, err := safecast.Conv[source.FileID](i)
			if err != nil {
				return err
			}
			start := time.Now()
			req.report(names[i], StageDecode, StatusWorking, nil, 0)
			// file IDs follow input order; the set is filled in that order below
			doc, err := astio.ReadFile(path, id)
			if err != nil {
				req.report(names[i], StageDecode, StatusError, err, time.Since(start))
				return fmt.Errorf("decode: %w", err)
			}
			docs[i] = doc
			req.report(names[i], StageDecode, StatusDone, nil, time.Since(start))
			return nil
		})
	}
	err := g.Wait()
	endPhase(fmt.Sprintf("%d units", len(req.Inputs)))
	if err != nil {
		return nil, err
	}

	for i, doc := range docs {
		path := doc.Unit.Path
		if path == "" {
			path = req.Inputs[i]
		}
		res.Files.Add(path, doc.Source)
	}
	return docs, nil
}

func emitAll(ctx context.Context, req *Request, names []string, jobs int, units []Unit, timer *observ.Timer) error {
	endPhase := timer.Begin(string(StageEmit))
	ctx, span := trace.Start(ctx, trace.ScopePass, "emit")

	var done atomic.Int64
	status := func() string { return fmt.Sprintf("%d/%d units emitted", done.Load(), len(units)) }
	hb := trace.StartHeartbeat(trace.FromContext(ctx), heartbeatInterval(ctx), status)
	defer hb.Stop()

	opts := llvm.Options{Target: req.Target}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))
	for i := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				req.report(names[i], StageEmit, StatusSkipped, nil, 0)
				return err
			}
			start := time.Now()
			req.report(names[i], StageEmit, StatusWorking, nil, 0)
			mod, err := llvm.EmitModule(gctx, units[i].Unit, opts)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					req.report(names[i], StageEmit, StatusSkipped, nil, time.Since(start))
				} else {
					req.report(names[i], StageEmit, StatusError, err, time.Since(start))
				}
				return err
			}
			units[i].Module = mod
			done.Add(1)
			req.report(names[i], StageEmit, StatusDone, nil, time.Since(start))
			return nil
		})
	}
	err := g.Wait()
	endPhase(status())
	if err != nil {
		span.WithExtra("error", err.Error())
	}
	span.End("")
	return err
}

func writeAll(ctx context.Context, req *Request, names []string, units []Unit, timer *observ.Timer) error {
	defer timer.Begin(string(StageWrite))("")
	ctx, span := trace.Start(ctx, trace.ScopePass, "write")
	defer span.End("")

	if req.Stdout != nil {
		for i := range units {
			if _, err := io.WriteString(req.Stdout, units[i].Module.String()); err != nil {
				return fmt.Errorf("write IR: %w", err)
			}
		}
		req.reportAll(names, StageWrite, StatusDone)
		return nil
	}

	outputs, err := outputPaths(req.OutDir, req.Inputs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(req.OutDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	for i := range units {
		start := time.Now()
		if err := os.WriteFile(outputs[i], []byte(units[i].Module.String()), 0o600); err != nil {
			err = fmt.Errorf("failed to write LLVM IR: %w", err)
			req.report(names[i], StageWrite, StatusError, err, time.Since(start))
			return err
		}
		units[i].Output = outputs[i]
		trace.Point(trace.FromContext(ctx), trace.ScopePass, "wrote", outputs[i], span.ID())
		req.report(names[i], StageWrite, StatusDone, nil, time.Since(start))
	}
	return nil
}

// outputPaths maps each input to dir/<stem>.ll. Two inputs with the same
// stem would overwrite each other and are rejected.
func outputPaths(dir string, inputs []string) ([]string, error) {
	out := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, in := range inputs {
		stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		path := filepath.Join(dir, stem+".ll")
		if prev, dup := seen[path]; dup {
			return nil, fmt.Errorf("inputs %s and %s both write %s", prev, in, path)
		}
		seen[path] = in
		out[i] = path
	}
	return out, nil
}

type heartbeatKey struct{}

// WithHeartbeat sets the trace heartbeat interval used while emitting.
func WithHeartbeat(ctx context.Context, every time.Duration) context.Context {
	return context.WithValue(ctx, heartbeatKey{}, every)
}

func heartbeatInterval(ctx context.Context) time.Duration {
	d, _ := ctx.Value(heartbeatKey{}).(time.Duration)
	return d
}
