package resolve

import (
	"slices"
	"strings"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
)

type Mode uint8

const (
	Strict Mode = iota
	Lenient
)

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

// Layer is one raw ODX layer as produced by a format reader: local
// definitions plus references to parents by short-name.
type Layer struct {
	Kind            ir.LayerKind
	DiagLayer       ir.DiagLayer
	ParentRefs      []ir.ParentRef
	VariantPatterns []ir.VariantPattern
	Dops            []ir.Dop
	Dtcs            []ir.Dtc
}

type Options struct {
	Mode Mode
	// Audiences restricts services and jobs to those visible to at least one
	// of the named additional audiences. Empty means no filtering.
	Audiences []string
	// MaxWarnings caps Result.Warnings; zero selects a default.
	MaxWarnings int
}

type Result struct {
	Variants         []ir.Variant
	FunctionalGroups []ir.FunctionalGroup
	Dtcs             []ir.Dtc
	Warnings         *diag.Bag
}

// Apply copies the resolved collections into db.
func (res *Result) Apply(db *ir.DiagDatabase) {
	db.Variants = res.Variants
	db.FunctionalGroups = res.FunctionalGroups
	db.Dtcs = res.Dtcs
}

const defaultMaxWarnings = 4096

type resolver struct {
	opts     Options
	warnings *diag.Bag
	reporter diag.Reporter
}

// fail returns err in strict mode. In lenient mode it records a warning and
// returns nil so the caller continues with a best-effort result.
func (r *resolver) fail(err error, code diag.Code, subject, msg string) error {
	if r.opts.Mode == Strict {
		return err
	}
	r.reporter.Report(code, diag.SevWarning, subject, msg, nil)
	return nil
}

// Resolve merges the inheritance graph formed by layers. Output variants are
// base variants followed by ECU variants, each in declaration order; protocols
// and ECU-shared-data only contribute to their descendants.
func Resolve(layers []Layer, opts Options) (*Result, error) {
	maxWarnings := opts.MaxWarnings
	if maxWarnings <= 0 {
		maxWarnings = defaultMaxWarnings
	}
	bag := diag.NewBag(maxWarnings)
	r := &resolver{
		opts:     opts,
		warnings: bag,
		reporter: diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
	}

	idx, err := r.buildIndex(layers)
	if err != nil {
		return nil, err
	}
	g, err := r.buildGraph(idx)
	if err != nil {
		return nil, err
	}
	if err := r.breakCycles(idx, &g); err != nil {
		return nil, err
	}
	topo := ToposortKahn(g)
	if topo.Cyclic {
		// breakCycles leaves an acyclic graph; reaching this is a bug.
		names := make([]string, 0, len(topo.Cycles))
		for _, id := range topo.Cycles {
			names = append(names, idx.IDToName[id])
		}
		return nil, &CycleError{Layers: names}
	}

	merged := make([]*mergedLayer, len(idx.Layers))
	for _, id := range topo.Order {
		m, err := r.merge(idx, g, merged, id)
		if err != nil {
			return nil, err
		}
		merged[id] = m
	}

	res := &Result{Warnings: bag}
	for _, kind := range []ir.LayerKind{ir.LayerBaseVariant, ir.LayerEcuVariant} {
		for id, l := range idx.Layers {
			if l.Kind != kind {
				continue
			}
			layer, err := r.finish(merged[id])
			if err != nil {
				return nil, err
			}
			res.Variants = append(res.Variants, ir.Variant{
				DiagLayer:       layer,
				IsBaseVariant:   kind == ir.LayerBaseVariant,
				VariantPatterns: cloneEach(l.VariantPatterns, ir.ClonePattern),
				ParentRefs:      survivingRefs(l, g.Parents[id]),
			})
		}
	}
	for id, l := range idx.Layers {
		if l.Kind != ir.LayerFunctionalGroup {
			continue
		}
		layer, err := r.finish(merged[id])
		if err != nil {
			return nil, err
		}
		res.FunctionalGroups = append(res.FunctionalGroups, ir.FunctionalGroup{
			DiagLayer:  layer,
			ParentRefs: survivingRefs(l, g.Parents[id]),
		})
	}
	res.Dtcs = collectDtcs(idx, merged)
	return res, nil
}

// finish produces the owned output copy of a merged layer: deep clone, DOP
// binding, audience filter. The filter runs last so that inherited and
// overridden audiences are already in place.
func (r *resolver) finish(m *mergedLayer) (ir.DiagLayer, error) {
	layer := m.layer.Clone()
	if err := r.bindDops(&layer, m.dops); err != nil {
		return ir.DiagLayer{}, err
	}
	ir.FilterLayer(&layer, r.opts.Audiences...)
	return layer, nil
}

// survivingRefs keeps the parent refs whose edges were not dropped.
func survivingRefs(l *Layer, edges []Edge) []ir.ParentRef {
	if len(edges) == 0 {
		return nil
	}
	out := make([]ir.ParentRef, 0, len(edges))
	for _, e := range edges {
		out = append(out, ir.CloneParentRef(l.ParentRefs[e.Ref]))
	}
	return out
}

// collectDtcs unions DTCs of all output layers, first trouble code wins.
func collectDtcs(idx LayerIndex, merged []*mergedLayer) []ir.Dtc {
	var out []ir.Dtc
	seen := make(map[uint32]struct{})
	kinds := []ir.LayerKind{ir.LayerBaseVariant, ir.LayerEcuVariant, ir.LayerFunctionalGroup}
	for _, kind := range kinds {
		for id, l := range idx.Layers {
			if l.Kind != kind {
				continue
			}
			for _, d := range merged[id].dtcs {
				if _, dup := seen[d.TroubleCode]; dup {
					continue
				}
				seen[d.TroubleCode] = struct{}{}
				out = append(out, ir.CloneDtc(d))
			}
		}
	}
	return out
}

func cloneEach[T any](in []T, fn func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i := range in {
		out[i] = fn(in[i])
	}
	return out
}

func subject(parts ...string) string {
	parts = slices.DeleteFunc(parts, func(s string) bool { return s == "" })
	return strings.Join(parts, ".")
}
