package trace

import "time"

// Kind tells span boundaries from instant events.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{"unknown", "begin", "end", "point", "heartbeat"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[0]
}

// Scope is what a span covers. Coarser scopes have lower values.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // a CLI command
	ScopePass                    // decode, emit or write across all units
	ScopeUnit                    // lowering of one .tast unit
	ScopeFunc                    // lowering of one function body
)

var scopeNames = [...]string{"unknown", "driver", "pass", "unit", "func"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return scopeNames[0]
}

// Event is one trace record. Begin and end events of a span share SpanID.
type Event struct {
	Time     time.Time
	Seq      uint64 // stamped by the sink
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	GID      uint64
	Name     string // "build", "unit:main", "fn:main"
	Detail   string
	Extra    map[string]string
}
