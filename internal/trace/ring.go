package trace

import (
	"io"
	"sync"
)

const defaultRingSize = 4096

// RingTracer retains the most recent events of a build. With
// --trace-level=error it is the only sink and is printed after a fault.
type RingTracer struct {
	level Level

	mu    sync.Mutex
	buf   []Event
	next  int // slot the next event goes to
	count int // occupied slots, at most len(buf)
}

func NewRingTracer(size int, level Level) *RingTracer {
	if size <= 0 {
		size = defaultRingSize
	}
	return &RingTracer{level: level, buf: make([]Event, size)}
}

// Emit stores ev, overwriting the oldest event once the ring is full.
// Heartbeats bypass the level filter.
func (t *RingTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	t.buf[t.next] = *ev
	t.buf[t.next].Seq = NextSeq()
	t.next = (t.next + 1) % len(t.buf)
	t.count = min(t.count+1, len(t.buf))
	t.mu.Unlock()
}

// Snapshot copies the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, 0, t.count)
	oldest := (t.next - t.count + len(t.buf)) % len(t.buf)
	for i := range t.count {
		out = append(out, t.buf[(oldest+i)%len(t.buf)])
	}
	return out
}

// Dump writes the retained events with times relative to the oldest one.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	events := t.Snapshot()
	if len(events) == 0 {
		return nil
	}
	if format == FormatAuto {
		format = FormatText
	}
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format, events[0].Time)); err != nil {
			return err
		}
	}
	return nil
}

// Len reports how many events are retained.
func (t *RingTracer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
