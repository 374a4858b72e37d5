// Package match selects the ECU variant whose variant patterns are satisfied
// by values read from a live ECU.
package match

import (
	"fmt"
	"strconv"
	"strings"

	"diagconv/internal/ir"
)

// Key identifies an observed value: the service that was sent and the
// response parameter the value was decoded from.
type Key struct {
	DiagService string
	OutParam    string
}

func (k Key) String() string { return k.DiagService + "." + k.OutParam }

// Observations are the values observed on the bus, keyed by Key.
type Observations map[Key]string

// Result of Match. Matched is false when no pattern held; that is an
// expected outcome, not an error.
type Result struct {
	Variant *ir.Variant
	Index   int
	Matched bool
}

// VariantName returns the matched short-name or "undetermined".
func (r Result) VariantName() string {
	if !r.Matched || r.Variant == nil {
		return "undetermined"
	}
	return r.Variant.ShortName()
}

// Match returns the first variant, in declaration order, with at least one
// fully satisfied pattern. A pattern holds when every matching parameter was
// observed with the expected value. An empty pattern never holds.
func Match(variants []ir.Variant, obs Observations) Result {
	for i := range variants {
		for _, p := range variants[i].VariantPatterns {
			if patternHolds(p, obs) {
				return Result{Variant: &variants[i], Index: i, Matched: true}
			}
		}
	}
	return Result{Index: -1}
}

func patternHolds(p ir.VariantPattern, obs Observations) bool {
	if len(p.MatchingParameters) == 0 {
		return false
	}
	for _, mp := range p.MatchingParameters {
		got, ok := obs[Key{DiagService: mp.DiagService, OutParam: mp.OutParam}]
		if !ok || !valuesEqual(mp.ExpectedValue, got) {
			return false
		}
	}
	return true
}

// valuesEqual compares numerically when both sides parse as integers
// ("0x1A" equals "26"), otherwise as exact strings.
func valuesEqual(expected, observed string) bool {
	expected, observed = strings.TrimSpace(expected), strings.TrimSpace(observed)
	if expected == observed {
		return true
	}
	negA, a, okA := parseInteger(expected)
	negB, b, okB := parseInteger(observed)
	return okA && okB && negA == negB && a == b
}

// parseInteger reads hex after a 0x or 0X prefix and base 10 otherwise, so a
// leading zero never switches to octal. Only decimal values take a sign.
func parseInteger(s string) (neg bool, mag uint64, ok bool) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return false, v, err == nil
	}
	if rest, cut := strings.CutPrefix(s, "-"); cut {
		neg, s = true, rest
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return neg && v != 0, v, err == nil
}

// ParseObservation parses "Service.Param=value". The service name may itself
// contain dots; the last dot before '=' separates the param.
func ParseObservation(s string) (Key, string, error) {
	lhs, value, ok := strings.Cut(s, "=")
	if !ok {
		return Key{}, "", fmt.Errorf("observation %q: missing '='", s)
	}
	dot := strings.LastIndexByte(lhs, '.')
	if dot <= 0 || dot == len(lhs)-1 {
		return Key{}, "", fmt.Errorf("observation %q: want Service.Param=value", s)
	}
	return Key{DiagService: strings.TrimSpace(lhs[:dot]), OutParam: strings.TrimSpace(lhs[dot+1:])}, value, nil
}

// ParseObservations builds Observations from repeated --observe values.
// A later value for the same key replaces an earlier one.
func ParseObservations(items []string) (Observations, error) {
	obs := make(Observations, len(items))
	for _, it := range items {
		k, v, err := ParseObservation(it)
		if err != nil {
			return nil, err
		}
		obs[k] = v
	}
	return obs, nil
}
