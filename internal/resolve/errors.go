package resolve

import (
	"fmt"
	"strings"
)

// CycleError reports an inheritance cycle. Layers lists the short-names along
// the cycle, starting and ending with the same layer.
type CycleError struct {
	Layers []string
}

func (e *CycleError) Error() string {
	return "inheritance cycle: " + strings.Join(e.Layers, " -> ")
}

type ReferenceKind uint8

const (
	// RefDanglingParent: a PARENT-REF names a layer that does not exist.
	RefDanglingParent ReferenceKind = iota
	// RefAmbiguousOverride: two parents with equal priority define the same
	// short-name with differing content.
	RefAmbiguousOverride
	// RefDanglingDop: a param names a DOP missing from the merged layer.
	RefDanglingDop
	// RefDuplicateLayer: two different layers share one short-name.
	RefDuplicateLayer
)

func (k ReferenceKind) String() string {
	switch k {
	case RefDanglingParent:
		return "dangling parent"
	case RefAmbiguousOverride:
		return "ambiguous override"
	case RefDanglingDop:
		return "dangling DOP"
	case RefDuplicateLayer:
		return "duplicate layer"
	}
	return "reference"
}

// ReferenceError is a dangling or ambiguous name reference. Name is the
// unresolved short-name, Referrer the place that mentions it
// ("EV_1" or "EV_1.ReadVIN.Param").
type ReferenceError struct {
	Kind       ReferenceKind
	Name       string
	Referrer   string
	Candidates []string
}

func (e *ReferenceError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %q", e.Kind, e.Name)
	if e.Referrer != "" {
		fmt.Fprintf(&sb, " referenced from %s", e.Referrer)
	}
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&sb, " (candidates: %s)", strings.Join(e.Candidates, ", "))
	}
	return sb.String()
}
