package odx

import "diagconv/internal/ir"

type layerInfo struct {
	name string
	kind ir.LayerKind
}

type responseEntry struct {
	msg  *message
	kind ir.ResponseKind
}

// index maps ODX IDs to the elements that carry them, across all documents
// of one conversion. The first declaration of an ID wins.
type index struct {
	layers     map[string]layerInfo
	requests   map[string]*message
	responses  map[string]responseEntry
	dops       map[string]string
	structures map[string]*structure
	units      map[string]*unit
	dimensions map[string]*physicalDimension
	libraries  map[string]*library
	// names covers everything referenced by short-name only: funct classes,
	// states, transitions, additional audiences, diag comms.
	names map[string]string
}

type layerGroup struct {
	kind   ir.LayerKind
	layers []rawLayer
}

func layerGroups(c *container) []layerGroup {
	return []layerGroup{
		{ir.LayerProtocol, items(c.Protocols)},
		{ir.LayerFunctionalGroup, items(c.FunctionalGroups)},
		{ir.LayerEcuSharedData, items(c.EcuSharedDatas)},
		{ir.LayerBaseVariant, items(c.BaseVariants)},
		{ir.LayerEcuVariant, items(c.EcuVariants)},
	}
}

func newIndex(docs []*document) *index {
	ix := &index{
		layers:     make(map[string]layerInfo),
		requests:   make(map[string]*message),
		responses:  make(map[string]responseEntry),
		dops:       make(map[string]string),
		structures: make(map[string]*structure),
		units:      make(map[string]*unit),
		dimensions: make(map[string]*physicalDimension),
		libraries:  make(map[string]*library),
		names:      make(map[string]string),
	}
	for _, doc := range docs {
		for _, g := range layerGroups(doc.Container) {
			for i := range g.layers {
				ix.addLayer(g.kind, &g.layers[i])
			}
		}
	}
	return ix
}

func put[T any](m map[string]T, id string, v T) {
	if id == "" {
		return
	}
	if _, dup := m[id]; !dup {
		m[id] = v
	}
}

func (ix *index) addLayer(kind ir.LayerKind, l *rawLayer) {
	put(ix.layers, l.ID, layerInfo{name: clean(l.ShortName), kind: kind})

	for i := range items(l.FunctClasses) {
		fc := &(*l.FunctClasses)[i]
		put(ix.names, fc.ID, clean(fc.ShortName))
	}
	for i := range items(l.Services) {
		s := &(*l.Services)[i]
		put(ix.names, s.ID, clean(s.ShortName))
	}
	for i := range items(l.Jobs) {
		j := &(*l.Jobs)[i]
		put(ix.names, j.ID, clean(j.ShortName))
	}
	for i := range items(l.Requests) {
		m := &(*l.Requests)[i]
		put(ix.requests, m.ID, m)
	}
	for _, rs := range []struct {
		list *[]message
		kind ir.ResponseKind
	}{
		{l.PosResponses, ir.ResponsePositive},
		{l.NegResponses, ir.ResponseNegative},
		{l.GlobalNegResponses, ir.ResponseGlobalNegative},
	} {
		for i := range items(rs.list) {
			m := &(*rs.list)[i]
			put(ix.responses, m.ID, responseEntry{msg: m, kind: rs.kind})
		}
	}
	for i := range items(l.StateCharts) {
		sc := &(*l.StateCharts)[i]
		for j := range items(sc.States) {
			st := &(*sc.States)[j]
			put(ix.names, st.ID, clean(st.ShortName))
		}
		for j := range items(sc.StateTransitions) {
			tr := &(*sc.StateTransitions)[j]
			put(ix.names, tr.ID, clean(tr.ShortName))
		}
	}
	for i := range items(l.AdditionalAudiences) {
		aa := &(*l.AdditionalAudiences)[i]
		put(ix.names, aa.ID, clean(aa.ShortName))
	}
	for i := range items(l.Libraries) {
		lib := &(*l.Libraries)[i]
		put(ix.libraries, lib.ID, lib)
	}
	if l.DataDictionary != nil {
		ix.addDictionary(l.DataDictionary)
	}
}

func (ix *index) addDictionary(dd *dataDictionary) {
	for _, d := range items(dd.DataObjectProps) {
		put(ix.dops, d.ID, clean(d.ShortName))
	}
	for _, d := range items(dd.DtcDops) {
		put(ix.dops, d.ID, clean(d.ShortName))
	}
	for i := range items(dd.Structures) {
		s := &(*dd.Structures)[i]
		put(ix.dops, s.ID, clean(s.ShortName))
		put(ix.structures, s.ID, s)
	}
	for _, s := range items(dd.EnvDatas) {
		put(ix.dops, s.ID, clean(s.ShortName))
	}
	for _, fields := range [][]field{items(dd.StaticFields), items(dd.DynamicLengthFields), items(dd.EndOfPduFields)} {
		for _, f := range fields {
			put(ix.dops, f.ID, clean(f.ShortName))
		}
	}
	for _, named := range [][]namedElement{items(dd.Muxs), items(dd.EnvDataDescs)} {
		for _, n := range named {
			put(ix.dops, n.ID, clean(n.ShortName))
		}
	}
	if us := dd.UnitSpec; us != nil {
		for i := range items(us.Units) {
			u := &(*us.Units)[i]
			put(ix.units, u.ID, u)
		}
		for i := range items(us.PhysicalDimensions) {
			pd := &(*us.PhysicalDimensions)[i]
			put(ix.dimensions, pd.ID, pd)
		}
	}
}
