package resolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToposortKahnBatches(t *testing.T) {
	// 0: EV -> 1: BV -> 2: UDS ; 3: FG -> 2
	g := Graph{Parents: [][]Edge{
		{{To: 1}},
		{{To: 2}},
		nil,
		{{To: 2}},
	}}
	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("expected acyclic graph")
	}
	if diff := cmp.Diff([]LayerID{2, 1, 3, 0}, topo.Order); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]LayerID{{2}, {1, 3}, {0}}, topo.Batches); diff != "" {
		t.Fatalf("batches (-want +got):\n%s", diff)
	}
}

func TestToposortKahnReportsCycle(t *testing.T) {
	g := Graph{Parents: [][]Edge{{{To: 1}}, {{To: 0}}, nil}}
	topo := ToposortKahn(g)
	if !topo.Cyclic {
		t.Fatalf("expected cycle")
	}
	if diff := cmp.Diff([]LayerID{0, 1}, topo.Cycles); diff != "" {
		t.Fatalf("cycles (-want +got):\n%s", diff)
	}
}
