package resolve

import (
	"fmt"
	"slices"
)

type Topo struct {
	Order   []LayerID   // родители раньше потомков
	Batches [][]LayerID // волны слоёв, не зависящих друг от друга
	Cyclic  bool
	Cycles  []LayerID // узлы, оставшиеся в цикле
}

// ToposortKahn orders layers parents-first. Ties inside a batch are broken by
// id, which is declaration order.
func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Parents)
	indeg := make([]int, nodeCount)
	children := make([][]LayerID, nodeCount)
	for child, edges := range g.Parents {
		indeg[child] = len(edges)
		for _, e := range edges {
			id, err := toLayerID(child)
			if err != nil {
				panic(fmt.Errorf("layer id overflow: %w", err))
			}
			children[e.To] = append(children[e.To], id)
		}
	}

	topo := &Topo{
		Order:   make([]LayerID, 0, nodeCount),
		Batches: make([][]LayerID, 0),
	}

	current := make([]LayerID, 0, nodeCount)
	for i := range nodeCount {
		if indeg[i] == 0 {
			id, err := toLayerID(i)
			if err != nil {
				panic(fmt.Errorf("layer id overflow: %w", err))
			}
			current = append(current, id)
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := make([]LayerID, len(current))
		copy(batch, current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]LayerID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, child := range children[id] {
				indeg[child]--
				if indeg[child] == 0 {
					next = append(next, child)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != nodeCount {
		topo.Cyclic = true
		for i := range nodeCount {
			if indeg[i] > 0 {
				id, err := toLayerID(i)
				if err != nil {
					panic(fmt.Errorf("layer id overflow: %w", err))
				}
				topo.Cycles = append(topo.Cycles, id)
			}
		}
	}
	return topo
}
