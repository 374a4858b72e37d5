package resolve

import (
	"fmt"

	"fortio.org/safecast"

	"diagconv/internal/diag"
)

// Edge goes from a layer to one of its parents. Ref is the index of the
// originating ParentRef in the child's ParentRefs.
type Edge struct {
	To  LayerID
	Ref int
}

type Graph struct {
	Parents [][]Edge // Parents[child] = edges to parents in declaration order
}

func toLayerID(i int) (LayerID, error) {
	id, err := safecast.Conv[LayerID](i)
	if err != nil {
		return 0, fmt.Errorf("layer id overflow: %w", err)
	}
	return id, nil
}

// buildGraph resolves every ParentRef against the index. Repeated refs to one
// parent keep the first occurrence.
func (r *resolver) buildGraph(idx LayerIndex) (Graph, error) {
	g := Graph{Parents: make([][]Edge, len(idx.Layers))}
	for from, l := range idx.Layers {
		seen := make(map[LayerID]struct{}, len(l.ParentRefs))
		for ri, ref := range l.ParentRefs {
			to, ok := idx.NameToID[key(ref.ShortName)]
			if !ok {
				err := &ReferenceError{Kind: RefDanglingParent, Name: ref.ShortName, Referrer: idx.IDToName[from]}
				if ferr := r.fail(err, diag.ResDanglingParent, idx.IDToName[from],
					fmt.Sprintf("parent %q not found, edge dropped", ref.ShortName)); ferr != nil {
					return Graph{}, ferr
				}
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			g.Parents[from] = append(g.Parents[from], Edge{To: to, Ref: ri})
		}
	}
	return g, nil
}

const (
	white = iota
	gray
	black
)

// breakCycles runs a depth-first walk with an in-progress marker. A back edge
// closes a cycle: strict mode returns a CycleError, lenient mode drops that
// edge and keeps walking. The graph is acyclic afterwards.
func (r *resolver) breakCycles(idx LayerIndex, g *Graph) error {
	state := make([]uint8, len(g.Parents))
	stack := make([]LayerID, 0, len(g.Parents))

	var visit func(n LayerID) error
	visit = func(n LayerID) error {
		state[n] = gray
		stack = append(stack, n)
		kept := g.Parents[n][:0]
		for _, e := range g.Parents[n] {
			switch state[e.To] {
			case gray:
				names := cycleNames(idx, stack, e.To)
				err := &CycleError{Layers: names}
				if ferr := r.fail(err, diag.ResCycle, idx.IDToName[n],
					fmt.Sprintf("%s, edge %s -> %s dropped", err.Error(), idx.IDToName[n], idx.IDToName[e.To])); ferr != nil {
					return ferr
				}
				continue
			case white:
				if err := visit(e.To); err != nil {
					return err
				}
			}
			kept = append(kept, e)
		}
		g.Parents[n] = kept
		stack = stack[:len(stack)-1]
		state[n] = black
		return nil
	}

	for i := range g.Parents {
		if state[i] != white {
			continue
		}
		id, err := toLayerID(i)
		if err != nil {
			return err
		}
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// cycleNames returns the stack slice from the repeated node plus the node
// again, e.g. A -> B -> C -> A.
func cycleNames(idx LayerIndex, stack []LayerID, repeated LayerID) []string {
	start := 0
	for i, id := range stack {
		if id == repeated {
			start = i
			break
		}
	}
	names := make([]string, 0, len(stack)-start+1)
	for _, id := range stack[start:] {
		names = append(names, idx.IDToName[id])
	}
	return append(names, idx.IDToName[repeated])
}
