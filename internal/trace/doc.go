// Package trace records what a diagconv run is doing as a stream of span
// and point events.
//
// A Tracer travels in context.Context; code that has nothing configured gets
// Nop and pays nothing:
//
//	t := trace.FromContext(ctx)
//	span := trace.Begin(t, trace.ScopeStage, "parse", trace.CurrentSpan(ctx).SpanID)
//	defer span.End("")
//
// Scopes go from coarse to fine: a command, one input file, a conversion
// stage (read, parse, resolve, encode, write) and per-layer detail. The level
// decides which of them reach the output:
//
//   - off: nothing
//   - error: nothing is written, the ring is dumped when a command fails
//   - phase: commands and files
//   - detail: plus stages
//   - debug: everything
//
// Events are written as text or newline-delimited JSON. A file destination
// can be size-rotated, see OpenOutput.
package trace
