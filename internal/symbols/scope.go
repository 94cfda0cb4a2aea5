package symbols

import "github.com/thrushlang/thrushc-sub009/internal/source"

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeModule            // functions, statics, constants
	ScopeParams            // function parameters
	ScopeBlock             // function body and nested blocks
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeParams:
		return "params"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope is one frame of the scope stack.
type Scope struct {
	Kind  ScopeKind
	Span  source.Span
	names map[string]*Symbol
	order []string // declaration order, for debugging dumps
}

func newScope(kind ScopeKind, span source.Span) *Scope {
	return &Scope{Kind: kind, Span: span, names: make(map[string]*Symbol, 8)}
}

// Len reports the number of distinct names bound in the frame.
func (s *Scope) Len() int {
	return len(s.names)
}
