package trace

import (
	"fmt"
	"strings"
)

// Level is the --trace-level verbosity.
type Level uint8

const (
	LevelOff   Level = iota
	LevelError       // unit spans kept in the ring, printed after a fault
	LevelPhase       // build and pass spans
	LevelUnit        // plus unit spans
	LevelDebug       // plus function spans
)

var levelNames = [...]string{"off", "error", "phase", "unit", "debug"}

// finest is the finest scope each level keeps.
var finest = [...]Scope{0, ScopeUnit, ScopePass, ScopeUnit, ScopeFunc}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel reads the --trace-level flag.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are kept at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	return int(l) < len(finest) && scope != 0 && scope <= finest[l]
}
