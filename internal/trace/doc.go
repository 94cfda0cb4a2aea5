// Package trace records what the compiler is doing while it lowers units.
//
// Tracing is off unless the CLI enables it:
//
//	thrushc build --trace=- --trace-level=unit main.tast
//
// Sinks:
//
//   - Nop: disabled tracing, zero work per event
//   - StreamTracer: writes each event as it happens (stderr or a file)
//   - RingTracer: keeps the last N events in memory, dumped on a fault
//   - MultiTracer: fans out to several sinks
//
// Events carry a Scope. The Level decides which scopes are kept:
// phase keeps driver and pass events, unit adds one span per lowered
// unit, debug adds one span per function.
//
// The tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "emit", 0)
//	defer span.End("")
package trace
