// Package resolve flattens ODX layer inheritance into self-contained variants.
//
// Layers (protocols, functional groups, base variants, ECU variants and
// ECU-shared-data) reference their parents by short-name. Resolve builds a
// graph over those references, rejects or breaks cycles, orders layers
// parents-first and merges every keyed collection down the chain: an element
// redefined by a descendant replaces the inherited one. DOP references are
// bound after the merge against the merged dictionary of each output layer,
// and the optional audience filter runs last.
//
// Every output layer is a deep copy. Nothing returned aliases the input or
// another output layer.
//
// Strict mode stops at the first CycleError or ReferenceError. Lenient mode
// records the same findings as warnings in Result.Warnings and continues with
// a best-effort result.
package resolve
