package trace

import "errors"

// MultiTracer fans events out to several sinks, typically a stream plus
// the ring that is dumped on a fault.
type MultiTracer struct {
	sinks []Tracer
	level Level
}

func NewMultiTracer(level Level, sinks ...Tracer) *MultiTracer {
	return &MultiTracer{sinks: sinks, level: level}
}

// Emit hands each sink its own copy; sinks stamp Seq on what they get.
func (t *MultiTracer) Emit(ev *Event) {
	for _, sink := range t.sinks {
		cp := *ev
		sink.Emit(&cp)
	}
}

func (t *MultiTracer) Flush() error { return t.each(Tracer.Flush) }
func (t *MultiTracer) Close() error { return t.each(Tracer.Close) }
func (t *MultiTracer) Level() Level { return t.level }

func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }

// each runs op on every sink and joins the failures.
func (t *MultiTracer) each(op func(Tracer) error) error {
	var errs []error
	for _, sink := range t.sinks {
		if err := op(sink); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ring returns the first ring sink, if any.
func (t *MultiTracer) Ring() *RingTracer {
	for _, sink := range t.sinks {
		if r, ok := sink.(*RingTracer); ok {
			return r
		}
	}
	return nil
}
