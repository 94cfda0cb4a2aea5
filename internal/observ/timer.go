// Package observ measures build phases for --timings.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type phase struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
}

// Timer records build phases in the order they begin. Phases of one
// build may end on other goroutines.
type Timer struct {
	mu     sync.Mutex
	phases []phase
}

func NewTimer() *Timer { return &Timer{} }

// Begin starts the phase name. Calling the returned func ends it and
// attaches note; later calls are ignored.
func (t *Timer) Begin(name string) (end func(note string)) {
	t.mu.Lock()
	idx := len(t.phases)
	t.phases = append(t.phases, phase{name: name, start: time.Now()})
	t.mu.Unlock()

	var once sync.Once
	return func(note string) {
		once.Do(func() {
			t.mu.Lock()
			p := &t.phases[idx]
			p.dur = time.Since(p.start)
			p.note = note
			t.mu.Unlock()
		})
	}
}

// Duration returns the duration of the latest phase called name.
func (t *Timer) Duration(name string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.phases) - 1; i >= 0; i-- {
		if t.phases[i].name == name {
			return t.phases[i].dur, true
		}
	}
	return 0, false
}

// PhaseReport is one phase in milliseconds.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report is the serialisable view of a Timer.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func ms(d time.Duration) float64 { return d.Seconds() * 1e3 }

func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	var r Report
	for _, p := range t.phases {
		r.Phases = append(r.Phases, PhaseReport{Name: p.name, DurationMS: ms(p.dur), Note: p.note})
		r.TotalMS += ms(p.dur)
	}
	return r
}

// Summary renders the phases as the table printed by --timings.
func (t *Timer) Summary() string {
	r := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	row := func(name string, msec float64, note string) {
		fmt.Fprintf(&b, "  %-12s %9.2f ms", name, msec)
		if note != "" {
			fmt.Fprintf(&b, "  // %s", note)
		}
		b.WriteByte('\n')
	}
	for _, p := range r.Phases {
		row(p.Name, p.DurationMS, p.Note)
	}
	row("total", r.TotalMS, "")
	return b.String()
}
