package llvm

import "github.com/llir/llvm/ir/value"

type anchorState uint8

const (
	anchorEmpty anchorState = iota
	anchorWritten
)

// PointerAnchor redirects a struct constructor into an existing slot so
// the fields are written in place instead of through a temporary.
type PointerAnchor struct {
	Ptr   value.Value
	state anchorState
}

func NewAnchor(ptr value.Value) *PointerAnchor {
	return &PointerAnchor{Ptr: ptr}
}

func (a *PointerAnchor) IsTriggered() bool {
	return a != nil && a.state == anchorWritten
}

// Trigger marks the anchor written. It reports true only on the first
// call; later writes through the same anchor must be skipped.
func (a *PointerAnchor) Trigger() bool {
	if a == nil || a.state == anchorWritten {
		return false
	}
	a.state = anchorWritten
	return true
}
