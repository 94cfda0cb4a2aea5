package symbols

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/thrushlang/thrushc-sub009/internal/source"
)

// Table is the scope stack of one compilation unit. Frame 0 is the module
// frame; a function pushes its parameter frame followed by block frames.
// It is not safe for concurrent use.
type Table struct {
	frames []*Scope
}

// NewTable builds a table holding only the module frame.
func NewTable() *Table {
	return &Table{frames: []*Scope{newScope(ScopeModule, source.Span{})}}
}

func normalize(name string) string {
	return norm.NFC.String(name)
}

// EnterScope pushes an empty frame.
func (t *Table) EnterScope(kind ScopeKind, span source.Span) {
	t.frames = append(t.frames, newScope(kind, span))
}

// LeaveScope pops the innermost frame and discards its records. The module
// frame is never popped.
func (t *Table) LeaveScope() {
	if len(t.frames) <= 1 {
		panic("symbols: leaving the module scope")
	}
	t.frames[len(t.frames)-1] = nil
	t.frames = t.frames[:len(t.frames)-1]
}

// Depth is the index of the innermost frame.
func (t *Table) Depth() int {
	return len(t.frames) - 1
}

// Len reports the number of frames, module frame included.
func (t *Table) Len() int {
	return len(t.frames)
}

// Declare binds sym.Name in the innermost frame. A second declaration of the
// same name within one frame replaces the first.
func (t *Table) Declare(sym Symbol) {
	t.declareAt(len(t.frames)-1, sym)
}

// DeclareGlobal binds sym in the module frame regardless of the current depth.
func (t *Table) DeclareGlobal(sym Symbol) {
	t.declareAt(0, sym)
}

func (t *Table) declareAt(depth int, sym Symbol) {
	name := normalize(sym.Name)
	sym.Name = name
	sym.Depth = depth
	frame := t.frames[depth]
	if _, exists := frame.names[name]; !exists {
		frame.order = append(frame.order, name)
	}
	frame.names[name] = &sym
}

// Lookup walks frames innermost to outermost and returns a copy of the first
// binding found.
func (t *Table) Lookup(name string) (Symbol, bool) {
	idx := t.owner(normalize(name))
	if idx < 0 {
		return Symbol{}, false
	}
	return *t.frames[idx].names[normalize(name)], true
}

// owner returns the index of the innermost frame binding name, or -1.
func (t *Table) owner(name string) int {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if _, ok := t.frames[i].names[name]; ok {
			return i
		}
	}
	return -1
}

// MarkUsed flags the visible binding of name as used.
func (t *Table) MarkUsed(name string) bool {
	return t.mark(name, SymbolFlagUsed)
}

// MarkMutated flags the visible binding of name as mutated.
func (t *Table) MarkMutated(name string) bool {
	return t.mark(name, SymbolFlagMutated)
}

func (t *Table) mark(name string, flag SymbolFlags) bool {
	name = normalize(name)
	idx := t.owner(name)
	if idx < 0 {
		return false
	}
	t.frames[idx].names[name].Flags |= flag
	return true
}

// Dump renders the stack innermost-last, for trace output.
func (t *Table) Dump() string {
	var sb strings.Builder
	for i, frame := range t.frames {
		fmt.Fprintf(&sb, "#%d %s:", i, frame.Kind)
		for _, name := range frame.order {
			sym := frame.names[name]
			fmt.Fprintf(&sb, " %s(%s)", name, sym.Kind)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
