package layout

import (
	"fmt"

	"github.com/thrushlang/thrushc-sub009/internal/types"
)

type ErrorKind uint8

const (
	ErrUnsized ErrorKind = iota + 1
	ErrLength
	ErrTooDeep
)

// Error reports a type whose layout cannot be computed.
type Error struct {
	Kind ErrorKind
	Type types.Type
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrUnsized:
		return fmt.Sprintf("type %s has no storage size", e.Type)
	case ErrLength:
		return fmt.Sprintf("array length of %s does not fit: %v", e.Type, e.Err)
	case ErrTooDeep:
		return fmt.Sprintf("type %s is nested too deeply", e.Type)
	}
	return fmt.Sprintf("no layout for %s", e.Type)
}

func (e *Error) Unwrap() error { return e.Err }
