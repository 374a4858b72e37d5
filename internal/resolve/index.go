package resolve

import (
	"fmt"
	"reflect"

	"golang.org/x/text/unicode/norm"

	"diagconv/internal/diag"
)

type LayerID uint32

// LayerIndex maps normalised short-names to dense ids. Ids follow first
// declaration order so that traversal order matches the document.
type LayerIndex struct {
	NameToID map[string]LayerID
	IDToName []string
	Layers   []*Layer
}

// key normalises a short-name for lookups. ODX files from different tools
// disagree on Unicode composition of umlauts in names.
func key(name string) string {
	return norm.NFC.String(name)
}

// buildIndex собирает уникальные имена слоёв. Identical duplicates collapse
// silently; differing ones are a RefDuplicateLayer (first wins in lenient mode).
func (r *resolver) buildIndex(layers []Layer) (LayerIndex, error) {
	idx := LayerIndex{
		NameToID: make(map[string]LayerID, len(layers)),
		IDToName: make([]string, 0, len(layers)),
		Layers:   make([]*Layer, 0, len(layers)),
	}
	for i := range layers {
		l := &layers[i]
		name := l.DiagLayer.ShortName
		k := key(name)
		if id, dup := idx.NameToID[k]; dup {
			if reflect.DeepEqual(idx.Layers[id], l) {
				continue
			}
			err := &ReferenceError{Kind: RefDuplicateLayer, Name: name}
			if ferr := r.fail(err, diag.ResDuplicateLayer, name,
				fmt.Sprintf("layer %q declared twice with different content, keeping the first", name)); ferr != nil {
				return LayerIndex{}, ferr
			}
			continue
		}
		id, err := toLayerID(len(idx.IDToName))
		if err != nil {
			return LayerIndex{}, err
		}
		idx.NameToID[k] = id
		idx.IDToName = append(idx.IDToName, name)
		idx.Layers = append(idx.Layers, l)
	}
	return idx, nil
}
