// Package layout computes storage size and alignment of thrush types
// for a target.
package layout

import (
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// Layout is the storage footprint of a type.
type Layout struct {
	Size  int
	Align int
	// Offsets holds the byte offset of each field of a struct.
	Offsets []int
}

var unsized = Layout{Align: 1}

// Engine computes layouts for one target. Named struct layouts are
// memoized per packing. An Engine belongs to one unit and is not safe
// for concurrent use.
type Engine struct {
	Target Target

	structs map[structKey]Layout
}

type structKey struct {
	name   string
	packed bool
}

func New(target Target) *Engine {
	return &Engine{Target: target, structs: make(map[structKey]Layout)}
}

// maxDepth bounds nesting of element and field types.
const maxDepth = 64

// Of returns the layout of t. Types without storage, such as void,
// yield an *Error of kind ErrUnsized.
func (e *Engine) Of(t types.Type) (Layout, error) {
	l, err := e.of(t, 0)
	if err != nil {
		return l, err
	}
	return l, nil
}

func (e *Engine) of(t types.Type, depth int) (Layout, *Error) {
	if depth > maxDepth {
		return unsized, &Error{Kind: ErrTooDeep, Type: t}
	}
	if t.Kind != types.KindStruct || t.Name == "" {
		return e.compute(t, depth)
	}
	key := structKey{name: t.Name, packed: t.Modifiers.Packed}
	if l, ok := e.structs[key]; ok {
		return l, nil
	}
	l, err := e.compute(t, depth)
	if err == nil {
		if e.structs == nil {
			e.structs = make(map[structKey]Layout)
		}
		e.structs[key] = l
	}
	return l, err
}

// SizeOf returns the size of t in bytes.
func (e *Engine) SizeOf(t types.Type) (int, error) {
	l, err := e.Of(t)
	return l.Size, err
}

// AlignOf returns the alignment of t in bytes.
func (e *Engine) AlignOf(t types.Type) (int, error) {
	l, err := e.Of(t)
	return l.Align, err
}
