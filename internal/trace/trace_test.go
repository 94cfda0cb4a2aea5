package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeUnit, false},
		{LevelUnit, ScopeUnit, true},
		{LevelUnit, ScopeFunc, false},
		{LevelDebug, ScopeFunc, true},
		{LevelError, ScopeUnit, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if l, err := ParseLevel("UNIT"); err != nil || l != LevelUnit {
		t.Fatalf("ParseLevel(UNIT) = %v, %v", l, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if f, err := ParseFormat("ndjson"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat(ndjson) = %v, %v", f, err)
	}
	if resolveFormat(FormatAuto, "out.ndjson") != FormatNDJSON {
		t.Fatalf(".ndjson path should select NDJSON")
	}
	if resolveFormat(FormatAuto, "-") != FormatText {
		t.Fatalf("stderr should default to text")
	}
}

func TestStreamSpanPairs(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelUnit, FormatNDJSON)

	root := Begin(tr, ScopePass, "emit", 0)
	unit := Begin(tr, ScopeUnit, "unit:main", root.ID())
	fn := Begin(tr, ScopeFunc, "fn:main", unit.ID())
	fn.End("")
	unit.WithExtra("funcs", "1").End("")
	root.End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events (func span filtered), got %d:\n%s", len(lines), buf.String())
	}
	var ev jsonEvent
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != "end" || ev.Name != "unit:main" || ev.Extra["funcs"] != "1" {
		t.Fatalf("unexpected unit end event: %+v", ev)
	}
	if ev.ParentID != root.ID() {
		t.Fatalf("unit span parent = %d, want %d", ev.ParentID, root.ID())
	}
}

func TestTextFormatIsStable(t *testing.T) {
	origin := time.Unix(100, 0)
	ev := &Event{
		Time:   origin.Add(1500 * time.Microsecond),
		Kind:   KindSpanEnd,
		Scope:  ScopeUnit,
		Name:   "unit:main",
		Detail: "ok",
		Extra:  map[string]string{"z": "1", "a": "2"},
	}
	got := string(FormatEvent(ev, FormatText, origin))
	want := "[    1.500ms]     ← unit unit:main (ok) {a=2, z=1}\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRingWrapsAndDumps(t *testing.T) {
	r := NewRingTracer(3, LevelUnit)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(r, ScopePass, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("ring kept the wrong events: %+v", snap)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Fatalf("dump wrote %d lines", n)
	}
}

func TestNewErrorLevelUsesRing(t *testing.T) {
	tr, err := New(Config{Level: LevelError, Mode: ModeStream})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if RingOf(tr) == nil {
		t.Fatalf("error level must buffer in a ring")
	}
	off, _ := New(Config{Level: LevelOff})
	if off.Enabled() {
		t.Fatalf("off tracer must be disabled")
	}
}

func TestMultiCopiesEvents(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRingTracer(8, LevelPhase)
	m := NewMultiTracer(LevelPhase, NewStreamTracer(&buf, LevelPhase, FormatText), ring)
	Begin(m, ScopePass, "write", 0).End("")
	if ring.Len() != 2 {
		t.Fatalf("ring got %d events", ring.Len())
	}
	if m.Ring() != ring {
		t.Fatalf("multi must expose its ring")
	}
}

func TestContextCarriesTracer(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("missing tracer must be Nop")
	}
	r := NewRingTracer(4, LevelPhase)
	ctx := WithTracer(context.Background(), r)
	ctx = WithSpanContext(ctx, SpanContext{SpanID: 7})
	if FromContext(ctx) != Tracer(r) || CurrentSpan(ctx).SpanID != 7 {
		t.Fatalf("context lost tracer or span")
	}
}

func TestHeartbeatStops(t *testing.T) {
	r := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond, func() string { return "1/2 units" })
	deadline := time.Now().Add(2 * time.Second)
	for r.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	snap := r.Snapshot()
	if len(snap) == 0 {
		t.Fatalf("no heartbeat recorded")
	}
	if !strings.HasSuffix(snap[0].Detail, "1/2 units") {
		t.Fatalf("status text missing: %q", snap[0].Detail)
	}
	if StartHeartbeat(Nop, time.Millisecond, nil) != nil {
		t.Fatalf("disabled tracer must not start a heartbeat")
	}
}

func TestStartNestsUnderCurrentSpan(t *testing.T) {
	r := NewRingTracer(8, LevelUnit)
	ctx := WithTracer(context.Background(), r)
	ctx, pass := Start(ctx, ScopePass, "emit")
	inner, unit := Start(ctx, ScopeUnit, "unit:a")
	unit.End("")
	pass.End("")
	if CurrentSpan(inner).SpanID != unit.ID() {
		t.Fatalf("unit span must be current in its context")
	}
	snap := r.Snapshot()
	if len(snap) != 4 || snap[1].ParentID != pass.ID() {
		t.Fatalf("unexpected events %+v", snap)
	}

	// a filtered span keeps the parent current
	same, fn := Start(ctx, ScopeFunc, "fn:a")
	if fn.ID() != 0 || CurrentSpan(same).SpanID != pass.ID() {
		t.Fatalf("filtered span must not become current")
	}
}
