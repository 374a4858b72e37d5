package resolve

import (
	"fmt"
	"reflect"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
)

// mergedLayer is the flattened view of one layer. Its slices may share
// sub-trees with parents; finish clones before anything leaves the package.
type mergedLayer struct {
	layer ir.DiagLayer
	dops  []ir.Dop
	dtcs  []ir.Dtc
}

// contribution is what one direct parent hands down, after its
// NOT-INHERITED lists have been applied.
type contribution[T any] struct {
	parent   string
	priority int32
	items    []T
}

func serviceKey(s *ir.DiagService) string { return s.ShortName }
func jobKey(j *ir.SingleEcuJob) string { return j.ShortName }
func comParamKey(c *ir.ComParamRef) string { return c.ShortName }
func stateChartKey(s *ir.StateChart) string { return s.ShortName }
func audienceKey(a *ir.AdditionalAudience) string { return a.ShortName }
func functClassKey(f *ir.FunctClass) string { return f.ShortName }
func dopKey(d *ir.Dop) string { return d.ShortName }
func dtcKey(d *ir.Dtc) string { return d.ShortName }

// merge flattens layer id. All parents are already merged because layers are
// visited in topological order.
func (r *resolver) merge(idx LayerIndex, g Graph, merged []*mergedLayer, id LayerID) (*mergedLayer, error) {
	l := idx.Layers[id]
	name := idx.IDToName[id]
	edges := g.Parents[id]

	var (
		services    = make([]contribution[ir.DiagService], 0, len(edges))
		jobs        = make([]contribution[ir.SingleEcuJob], 0, len(edges))
		comParams   = make([]contribution[ir.ComParamRef], 0, len(edges))
		stateCharts = make([]contribution[ir.StateChart], 0, len(edges))
		audiences   = make([]contribution[ir.AdditionalAudience], 0, len(edges))
		functClass  = make([]contribution[ir.FunctClass], 0, len(edges))
		dops        = make([]contribution[ir.Dop], 0, len(edges))
		dtcs        = make([]contribution[ir.Dtc], 0, len(edges))
	)
	for _, e := range edges {
		ref := &l.ParentRefs[e.Ref]
		p := merged[e.To]
		parent := idx.IDToName[e.To]
		prio := ref.PriorityValue()

		services = append(services, contribution[ir.DiagService]{parent, prio, dropNamed(p.layer.DiagServices, ref.NotInheritedDiagComms, serviceKey)})
		jobs = append(jobs, contribution[ir.SingleEcuJob]{parent, prio, dropNamed(p.layer.SingleEcuJobs, ref.NotInheritedDiagComms, jobKey)})
		comParams = append(comParams, contribution[ir.ComParamRef]{parent, prio, p.layer.ComParamRefs})
		stateCharts = append(stateCharts, contribution[ir.StateChart]{parent, prio, p.layer.StateCharts})
		audiences = append(audiences, contribution[ir.AdditionalAudience]{parent, prio, p.layer.AdditionalAudiences})
		functClass = append(functClass, contribution[ir.FunctClass]{parent, prio, p.layer.FunctClasses})
		dops = append(dops, contribution[ir.Dop]{parent, prio, dropNamed(p.dops, ref.NotInheritedDops, dopKey)})
		dtcs = append(dtcs, contribution[ir.Dtc]{parent, prio, p.dtcs})
	}

	own := &l.DiagLayer
	out := &mergedLayer{layer: ir.DiagLayer{ShortName: own.ShortName, LongName: own.LongName}}
	var err error
	if out.layer.DiagServices, err = mergeKeyed(r, name, "service", services, own.DiagServices, serviceKey); err != nil {
		return nil, err
	}
	if out.layer.SingleEcuJobs, err = mergeKeyed(r, name, "job", jobs, own.SingleEcuJobs, jobKey); err != nil {
		return nil, err
	}
	if out.layer.ComParamRefs, err = mergeKeyed(r, name, "comparam", comParams, own.ComParamRefs, comParamKey); err != nil {
		return nil, err
	}
	if out.layer.StateCharts, err = mergeKeyed(r, name, "state chart", stateCharts, own.StateCharts, stateChartKey); err != nil {
		return nil, err
	}
	if out.layer.AdditionalAudiences, err = mergeKeyed(r, name, "audience", audiences, own.AdditionalAudiences, audienceKey); err != nil {
		return nil, err
	}
	if out.layer.FunctClasses, err = mergeKeyed(r, name, "funct class", functClass, own.FunctClasses, functClassKey); err != nil {
		return nil, err
	}
	if out.dops, err = mergeKeyed(r, name, "DOP", dops, l.Dops, dopKey); err != nil {
		return nil, err
	}
	if out.dtcs, err = mergeKeyed(r, name, "DTC", dtcs, l.Dtcs, dtcKey); err != nil {
		return nil, err
	}
	return out, nil
}

// dropNamed removes items listed in a NOT-INHERITED list.
func dropNamed[T any](items []T, names []string, keyOf func(*T) string) []T {
	if len(names) == 0 || len(items) == 0 {
		return items
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[key(n)] = struct{}{}
	}
	out := make([]T, 0, len(items))
	for i := range items {
		if _, ok := drop[key(keyOf(&items[i]))]; ok {
			continue
		}
		out = append(out, items[i])
	}
	return out
}

// mergeKeyed combines the contributions of all direct parents and then
// applies the layer's own definitions.
//
// Between parents: identical content is shared (diamond), a higher priority
// replaces a lower one in place, equal priority with different content is an
// ambiguous override. Own definitions replace every inherited element with
// the same short-name, so parents that disagree about a name the layer
// overrides are never reported. Own definitions follow the inherited ones in
// declaration order.
func mergeKeyed[T any](r *resolver, layer, what string, contribs []contribution[T], own []T, keyOf func(*T) string) ([]T, error) {
	type origin struct {
		parent   string
		priority int32
	}
	ownKeys := make(map[string]struct{}, len(own))
	for i := range own {
		ownKeys[key(keyOf(&own[i]))] = struct{}{}
	}
	var (
		out     []T
		origins []origin
		pos     = make(map[string]int)
	)
	for _, c := range contribs {
		for i := range c.items {
			item := c.items[i]
			name := keyOf(&item)
			k := key(name)
			if _, overridden := ownKeys[k]; overridden {
				continue
			}
			j, ok := pos[k]
			if !ok || origins[j].parent == c.parent {
				if !ok {
					pos[k] = len(out)
				}
				out = append(out, item)
				origins = append(origins, origin{c.parent, c.priority})
				continue
			}
			if reflect.DeepEqual(out[j], item) {
				continue
			}
			prev := origins[j]
			switch {
			case c.priority > prev.priority:
				out[j] = item
				origins[j] = origin{c.parent, c.priority}
			case c.priority < prev.priority:
				// уступает уже выбранному родителю
			default:
				err := &ReferenceError{
					Kind:       RefAmbiguousOverride,
					Name:       name,
					Referrer:   layer,
					Candidates: []string{prev.parent, c.parent},
				}
				msg := fmt.Sprintf("%s %q defined differently by %s and %s with equal priority %d, keeping %s",
					what, name, prev.parent, c.parent, c.priority, prev.parent)
				if ferr := r.fail(err, diag.ResAmbiguousOverride, layer, msg); ferr != nil {
					return nil, ferr
				}
			}
		}
	}
	return append(out, own...), nil
}
