package symbols

import (
	"github.com/llir/llvm/ir/value"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// SymbolKind classifies declared entities.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolParam
	SymbolLocal
	SymbolStatic
	SymbolConst
	// SymbolLLI binds the value of a low-level instruction; its handle is
	// that value, not a slot holding it.
	SymbolLLI
	SymbolFunction
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolParam:
		return "param"
	case SymbolLocal:
		return "local"
	case SymbolStatic:
		return "static"
	case SymbolConst:
		return "const"
	case SymbolLLI:
		return "lli"
	case SymbolFunction:
		return "fn"
	default:
		return "invalid"
	}
}

// SymbolFlags encode usage facts consumed by the external linter.
type SymbolFlags uint8

const (
	SymbolFlagMutable SymbolFlags = 1 << iota
	SymbolFlagUsed
	SymbolFlagMutated
)

// Symbol binds a name to its storage. Handle belongs to the IR module; the
// record only refers to it.
type Symbol struct {
	Name   string
	Kind   SymbolKind
	Handle value.Value
	Type   types.Type
	Site   ast.AllocSite
	Flags  SymbolFlags
	Depth  int // index of the owning frame
	Span   source.Span
}

func (s Symbol) Mutable() bool { return s.Flags&SymbolFlagMutable != 0 }
func (s Symbol) Used() bool    { return s.Flags&SymbolFlagUsed != 0 }
func (s Symbol) Mutated() bool { return s.Flags&SymbolFlagMutated != 0 }
