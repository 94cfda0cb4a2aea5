package trace

import (
	"context"
	"fmt"
	"time"
)

// Heartbeat emits a driver-scope event at a fixed interval while units
// are lowered. Beats without span ends in between point at a stuck unit.
type Heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartHeartbeat returns nil when tracing is off or every is not
// positive. The status text, when status is non-nil, follows the beat
// number in the event detail.
func StartHeartbeat(t Tracer, every time.Duration, status func() string) *Heartbeat {
	if t == nil || !t.Enabled() || every <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Heartbeat{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		beat(ctx, t, every, status)
	}()
	return h
}

func beat(ctx context.Context, t Tracer, every time.Duration, status func() string) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			detail := fmt.Sprintf("#%d", n)
			if status != nil {
				detail += " " + status()
			}
			t.Emit(&Event{Time: now, Kind: KindHeartbeat, Scope: ScopeDriver, Name: "heartbeat", Detail: detail})
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine. It may be called
// on nil and more than once.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
