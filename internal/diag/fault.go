package diag

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/thrushlang/thrushc-sub009/internal/source"
)

// Fault is an unrecoverable backend failure. It is raised with Abort and
// recovered once at the unit boundary.
type Fault struct {
	Code   Code
	Span   source.Span
	Origin string // internal call site, file:line
	Msg    string
}

func (f *Fault) Error() string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s [%s]", f.Code.ID(), f.Msg, f.Origin)
}

// Abort panics with a *Fault. skip counts the frames above the caller of
// Abort that should be reported as the origin; 0 reports Abort's caller.
func Abort(skip int, code Code, span source.Span, format string, args ...any) {
	panic(newFault(skip+1, code, span, fmt.Sprintf(format, args...)))
}

func newFault(skip int, code Code, span source.Span, msg string) *Fault {
	origin := "unknown"
	if _, file, line, ok := runtime.Caller(skip + 1); ok {
		origin = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return &Fault{Code: code, Span: span, Origin: origin, Msg: msg}
}

// Recover converts a recovered *Fault into err. Any other panic value is
// re-raised. Use as `defer diag.Recover(&err)`.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	f, ok := r.(*Fault)
	if !ok {
		panic(r)
	}
	*err = f
}

// AsFault extracts a *Fault from an error chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
