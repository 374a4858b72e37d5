// Package diag is the warning/diagnostic model shared by the resolver, the
// format readers and the converter.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – compact numeric identifier (see codes.go) with a stable ID such
//     as "RES3002".
//   - Subject – the thing the diagnostic is about: a layer short-name, a
//     "Layer.Service" path or a file name.
//   - Message – short, human oriented text.
//   - Notes – optional secondary messages.
//
// # Emitting diagnostics
//
// Producers take a Reporter and never own storage. BagReporter aggregates
// diagnostics into a Bag, which supports sorting, deduplication and merging.
// Lenient resolution hands its Bag back to the caller together with the
// best-effort result, so warnings are never dropped silently.
//
// Package diag performs no IO. Rendering lives in Format/Diagnostic.String,
// printing in cmd/diagconv.
package diag
