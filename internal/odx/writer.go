package odx

import (
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
)

const (
	odxModelVersion = "2.2.0"
	dtcDopName      = "DOP_DTC"
)

type WriteOptions struct {
	// Reporter receives a warning for every IR field ODX cannot carry.
	// Nil drops them.
	Reporter diag.Reporter
}

// Write emits db as a single flattened DIAG-LAYER-CONTAINER. Every layer is
// already merged, so PARENT-REFs are kept only towards layers present in
// the output and IDs are generated from short-names.
func Write(w io.Writer, db *ir.DiagDatabase, opts WriteOptions) error {
	rep := opts.Reporter
	if rep == nil {
		rep = diag.NopReporter{}
	}
	e := &emitter{rep: rep, ids: make(map[string]int)}
	doc := e.document(db)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("odx: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("odx: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Marshal is Write into a byte slice.
func Marshal(db *ir.DiagDatabase, opts WriteOptions) ([]byte, error) {
	var sb strings.Builder
	if err := Write(&sb, db, opts); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

type emitter struct {
	rep diag.Reporter
	ids map[string]int
	// short-name -> generated ID of every layer in the output
	layerIDs map[string]string
}

func (e *emitter) dropped(subject, format string, args ...any) {
	e.rep.Report(diag.CnvDroppedField, diag.SevWarning, subject, fmt.Sprintf(format, args...), nil)
}

// id builds a unique ID from parts; repeats get a numeric suffix.
func (e *emitter) id(parts ...string) string {
	id := strings.Join(parts, ".")
	id = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' {
			return '_'
		}
		return r
	}, id)
	n := e.ids[id]
	e.ids[id] = n + 1
	if n == 0 {
		return id
	}
	return fmt.Sprintf("%s_%d", id, n+1)
}

func (e *emitter) document(db *ir.DiagDatabase) *document {
	c := &container{
		ID:        e.id("DLC", db.EcuName),
		ShortName: db.EcuName,
	}
	if db.Revision != "" {
		c.AdminData = &adminData{DocRevisions: wrap([]docRevision{{RevisionLabel: db.Revision}})}
	}
	if len(db.Metadata) > 0 {
		meta := sdg{SI: metadataSI}
		for _, k := range slices.Sorted(maps.Keys(db.Metadata)) {
			meta.Sds = append(meta.Sds, sd{SI: k, Value: db.Metadata[k]})
		}
		c.Sdgs = wrap([]sdg{meta})
	}
	if db.Memory != nil {
		e.dropped(db.EcuName, "memory configuration has no ODX representation")
	}

	e.layerIDs = make(map[string]string, len(db.Variants)+len(db.FunctionalGroups))
	for _, v := range db.Variants {
		prefix := "EV"
		if v.IsBaseVariant {
			prefix = "BV"
		}
		e.layerIDs[v.ShortName()] = e.id(prefix, v.ShortName())
	}
	for _, fg := range db.FunctionalGroups {
		e.layerIDs[fg.DiagLayer.ShortName] = e.id("FG", fg.DiagLayer.ShortName)
	}

	dtcOwner := dtcLayer(db)
	if dtcOwner == "" && len(db.Dtcs) > 0 {
		e.dropped(db.EcuName, "%d DTC(s) dropped: no layer to carry them", len(db.Dtcs))
	}
	dtcsFor := func(name string) []ir.Dtc {
		if name == dtcOwner {
			return db.Dtcs
		}
		return nil
	}

	var base, ecu, groups []rawLayer
	for i := range db.Variants {
		v := &db.Variants[i]
		l := e.layer(&v.DiagLayer, v.ParentRefs, v.VariantPatterns, dtcsFor(v.ShortName()))
		if v.IsBaseVariant {
			base = append(base, l)
		} else {
			ecu = append(ecu, l)
		}
	}
	for i := range db.FunctionalGroups {
		fg := &db.FunctionalGroups[i]
		groups = append(groups, e.layer(&fg.DiagLayer, fg.ParentRefs, nil, dtcsFor(fg.DiagLayer.ShortName)))
	}
	c.FunctionalGroups = wrap(groups)
	c.BaseVariants = wrap(base)
	c.EcuVariants = wrap(ecu)

	return &document{
		XMLNSXsi:  xsiNamespace,
		Model:     odxModelVersion,
		Version:   db.Version,
		Container: c,
	}
}

// dtcLayer picks the layer that carries the database DTCs: the first base
// variant, else the first variant, else the first functional group.
func dtcLayer(db *ir.DiagDatabase) string {
	for _, v := range db.Variants {
		if v.IsBaseVariant {
			return v.ShortName()
		}
	}
	if len(db.Variants) > 0 {
		return db.Variants[0].ShortName()
	}
	if len(db.FunctionalGroups) > 0 {
		return db.FunctionalGroups[0].DiagLayer.ShortName
	}
	return ""
}

// layerScope holds the IDs generated inside one layer so that services can
// point at funct classes, states and audiences of the same layer.
type layerScope struct {
	e           *emitter
	id          string
	name        string
	functClass  map[string]string
	audiences   map[string]string
	states      map[string]string
	transitions map[string]string
	libraries   map[string]string
	dopIDs      map[string]string
	dopSeen     map[string]*ir.Dop
	units       map[string]string
	dimensions  map[string]string
	dict        dataDictionary
	libs        []library
	requests    []message
	pos         []message
	neg         []message
	globalNeg   []message
}

func (ls *layerScope) lookup(m map[string]string, name string) link {
	if id, ok := m[name]; ok {
		return link{IDRef: id}
	}
	return link{IDRef: name}
}

func (ls *layerScope) links(m map[string]string, names []string) *[]link {
	out := make([]link, 0, len(names))
	for _, n := range names {
		out = append(out, ls.lookup(m, n))
	}
	return wrap(out)
}

func (e *emitter) layer(l *ir.DiagLayer, refs []ir.ParentRef, patterns []ir.VariantPattern, dtcs []ir.Dtc) rawLayer {
	id := e.layerIDs[l.ShortName]
	ls := &layerScope{
		e:           e,
		id:          id,
		name:        l.ShortName,
		functClass:  make(map[string]string),
		audiences:   make(map[string]string),
		states:      make(map[string]string),
		transitions: make(map[string]string),
		libraries:   make(map[string]string),
		dopIDs:      make(map[string]string),
		dopSeen:     make(map[string]*ir.Dop),
		units:       make(map[string]string),
		dimensions:  make(map[string]string),
	}
	out := rawLayer{ID: id, ShortName: l.ShortName, LongName: odxText(l.LongName)}

	var fcs []functClass
	for _, fc := range l.FunctClasses {
		fid := e.id(id, "FC", fc.ShortName)
		ls.functClass[fc.ShortName] = fid
		fcs = append(fcs, functClass{ID: fid, ShortName: fc.ShortName})
	}
	out.FunctClasses = wrap(fcs)

	var auds []additionalAudience
	for _, aa := range l.AdditionalAudiences {
		aid := e.id(id, "AA", aa.ShortName)
		ls.audiences[aa.ShortName] = aid
		auds = append(auds, additionalAudience{ID: aid, ShortName: aa.ShortName, LongName: odxText(aa.LongName)})
	}
	out.AdditionalAudiences = wrap(auds)

	var charts []stateChart
	for i := range l.StateCharts {
		charts = append(charts, ls.stateChart(&l.StateCharts[i]))
	}
	out.StateCharts = wrap(charts)

	var services []diagService
	for i := range l.DiagServices {
		services = append(services, ls.service(&l.DiagServices[i]))
	}
	out.Services = wrap(services)

	var jobs []singleEcuJob
	for i := range l.SingleEcuJobs {
		jobs = append(jobs, ls.job(&l.SingleEcuJobs[i]))
	}
	out.Jobs = wrap(jobs)
	out.Libraries = wrap(ls.libs)

	out.Requests = wrap(ls.requests)
	out.PosResponses = wrap(ls.pos)
	out.NegResponses = wrap(ls.neg)
	out.GlobalNegResponses = wrap(ls.globalNeg)

	var cps []comParamRef
	for _, cp := range l.ComParamRefs {
		ref := comParamRef{
			link:        link{IDRef: cp.ShortName},
			SimpleValue: cp.SimpleValue,
		}
		if len(cp.ComplexValues) > 0 {
			ref.ComplexValue = &complexValue{SimpleValues: cp.ComplexValues}
		}
		if cp.Protocol != "" {
			ref.ProtocolSnref = &snref{ShortName: cp.Protocol}
		}
		if cp.ProtStack != "" {
			ref.ProtStackSnref = &snref{ShortName: cp.ProtStack}
		}
		cps = append(cps, ref)
	}
	out.ComParamRefs = wrap(cps)

	out.ParentRefs = wrap(ls.parentRefs(refs))
	out.VariantPatterns = wrap(variantPatterns(patterns))

	if len(dtcs) > 0 {
		ls.dtcDop(dtcs)
	}
	if !reflect.DeepEqual(ls.dict, dataDictionary{}) {
		dd := ls.dict
		out.DataDictionary = &dd
	}
	return out
}

func (ls *layerScope) parentRefs(refs []ir.ParentRef) []parentRef {
	var out []parentRef
	for _, ref := range refs {
		pid, ok := ls.e.layerIDs[ref.ShortName]
		if !ok {
			ls.e.dropped(ls.name, "parent %s %q is not part of the output, reference dropped", ref.Kind, ref.ShortName)
			continue
		}
		if ref.Priority != nil {
			ls.e.dropped(ls.name, "priority of parent %q has no ODX representation", ref.ShortName)
		}
		out = append(out, parentRef{
			link:                           link{IDRef: pid},
			Type:                           xsiType(ref.Kind.String() + "-REF"),
			NotInheritedDiagComms:          notInheritedList(ref.NotInheritedDiagComms, func(s *snref) notInherited { return notInherited{DiagComm: s} }),
			NotInheritedDops:               notInheritedList(ref.NotInheritedDops, func(s *snref) notInherited { return notInherited{DopBase: s} }),
			NotInheritedTables:             notInheritedList(ref.NotInheritedTables, func(s *snref) notInherited { return notInherited{Table: s} }),
			NotInheritedGlobalNegResponses: notInheritedList(ref.NotInheritedGlobalNegResponses, func(s *snref) notInherited { return notInherited{GlobalNegResps: s} }),
		})
	}
	return out
}

func notInheritedList(names []string, mk func(*snref) notInherited) *[]notInherited {
	out := make([]notInherited, 0, len(names))
	for _, n := range names {
		out = append(out, mk(&snref{ShortName: n}))
	}
	return wrap(out)
}

func variantPatterns(patterns []ir.VariantPattern) []variantPattern {
	var out []variantPattern
	for _, p := range patterns {
		mps := make([]matchingParameter, 0, len(p.MatchingParameters))
		for _, mp := range p.MatchingParameters {
			m := matchingParameter{
				ExpectedValue:   mp.ExpectedValue,
				DiagCommSnref:   &snref{ShortName: mp.DiagService},
				OutParamIfSnref: &snref{ShortName: mp.OutParam},
			}
			if mp.UsePhysicalAddressing != nil {
				m.UsePhysicalAddressing = strconv.FormatBool(*mp.UsePhysicalAddressing)
			}
			mps = append(mps, m)
		}
		out = append(out, variantPattern{MatchingParameters: wrap(mps)})
	}
	return out
}

func (ls *layerScope) stateChart(sc *ir.StateChart) stateChart {
	cid := ls.e.id(ls.id, "SC", sc.ShortName)
	out := stateChart{ID: cid, ShortName: sc.ShortName, Semantic: sc.Semantic}
	if sc.StartState != "" {
		out.StartState = &snref{ShortName: sc.StartState}
	}
	var states []state
	for _, st := range sc.States {
		sid := ls.e.id(cid, "ST", st.ShortName)
		if _, dup := ls.states[st.ShortName]; !dup {
			ls.states[st.ShortName] = sid
		}
		states = append(states, state{ID: sid, ShortName: st.ShortName, LongName: odxText(st.LongName)})
	}
	out.States = wrap(states)
	var trs []stateTransition
	for _, tr := range sc.Transitions {
		tid := ls.e.id(cid, "STT", tr.ShortName)
		if _, dup := ls.transitions[tr.ShortName]; !dup {
			ls.transitions[tr.ShortName] = tid
		}
		trs = append(trs, stateTransition{
			ID:        tid,
			ShortName: tr.ShortName,
			Source:    &snref{ShortName: tr.Source},
			Target:    &snref{ShortName: tr.Target},
		})
	}
	out.StateTransitions = wrap(trs)
	return out
}

func (ls *layerScope) audience(a *ir.Audience) *audience {
	if a == nil {
		return nil
	}
	return &audience{
		IsSupplier:      flag(a.IsSupplier),
		IsDevelopment:   flag(a.IsDevelopment),
		IsManufacturing: flag(a.IsManufacturing),
		IsAfterSales:    flag(a.IsAfterSales),
		IsAfterMarket:   flag(a.IsAfterMarket),
		EnabledRefs:     ls.links(ls.audiences, a.Enabled),
		DisabledRefs:    ls.links(ls.audiences, a.Disabled),
	}
}

func (ls *layerScope) service(s *ir.DiagService) diagService {
	sid := ls.e.id(ls.id, "DS", s.ShortName)
	out := diagService{
		ID:                    sid,
		Semantic:              s.Semantic,
		DiagnosticClass:       s.DiagnosticClass,
		IsMandatory:           flag(s.IsMandatory),
		IsFinal:               flag(s.IsFinal),
		IsCyclic:              flag(s.IsCyclic),
		IsMultiple:            flag(s.IsMultiple),
		Addressing:            s.Addressing.String(),
		TransmissionMode:      s.TransmissionMode.String(),
		ShortName:             s.ShortName,
		LongName:              odxText(s.LongName),
		FunctClassRefs:        ls.links(ls.functClass, s.FunctClassRefs),
		Audience:              ls.audience(s.Audience),
		PreConditionStateRefs: ls.links(ls.states, s.PreConditionStateRefs),
		StateTransitionRefs:   ls.links(ls.transitions, s.StateTransitionRefs),
	}
	if !s.IsExecutable {
		out.IsExecutable = "false"
	}
	subject := ls.name + "." + s.ShortName
	if s.Request != nil {
		name := firstNonEmpty(s.Request.ShortName, "RQ_"+s.ShortName)
		rid := ls.e.id(ls.id, "RQ", name)
		ls.requests = append(ls.requests, message{ID: rid, ShortName: name, Params: wrap(ls.params(s.Request.Params, subject))})
		out.RequestRef = &link{IDRef: rid}
	}
	out.PosResponseRefs = wrap(ls.responses(s.PosResponses, "PR_"+s.ShortName, subject))
	out.NegResponseRefs = wrap(ls.responses(s.NegResponses, "NR_"+s.ShortName, subject))
	return out
}

// responses places each response in the list matching its kind and returns
// the refs in service order.
func (ls *layerScope) responses(rs []ir.Response, fallback, subject string) []link {
	var refs []link
	for i := range rs {
		r := &rs[i]
		name := r.ShortName
		if name == "" {
			name = fallback
			if len(rs) > 1 {
				name = fmt.Sprintf("%s_%d", fallback, i)
			}
		}
		m := message{ShortName: name, Params: wrap(ls.params(r.Params, subject))}
		switch r.Kind {
		case ir.ResponseNegative:
			m.ID = ls.e.id(ls.id, "NR", name)
			ls.neg = append(ls.neg, m)
		case ir.ResponseGlobalNegative:
			m.ID = ls.e.id(ls.id, "GNR", name)
			ls.globalNeg = append(ls.globalNeg, m)
		default:
			m.ID = ls.e.id(ls.id, "PR", name)
			ls.pos = append(ls.pos, m)
		}
		refs = append(refs, link{IDRef: m.ID})
	}
	return refs
}

func (ls *layerScope) params(ps []ir.Param, owner string) []param {
	out := make([]param, 0, len(ps))
	for i := range ps {
		p := &ps[i]
		op := param{
			Type:                 xsiType(p.Type.String()),
			Semantic:             p.Semantic,
			ShortName:            p.ShortName,
			BytePosition:         fmtU32(p.BytePosition),
			BitPosition:          fmtU32(p.BitPosition),
			CodedValue:           p.CodedValue,
			CodedValues:          wrap(p.CodedValues),
			PhysicalDefaultValue: p.PhysicalDefaultValue,
			PhysConstantValue:    p.PhysConstantValue,
			DiagCodedType:        codedTypeOf(p.DiagCodedType),
			BitLength:            fmtU32(p.BitLength),
			RequestBytePos:       fmtI32(p.RequestBytePos),
			ByteLength:           fmtU32(p.MatchByteLength),
		}
		switch {
		case p.Dop != nil:
			op.DopRef = &link{IDRef: ls.dop(p.Dop, owner+"."+p.ShortName)}
		case p.DopRef != "":
			op.DopSnref = &snref{ShortName: p.DopRef}
		}
		out = append(out, op)
	}
	return out
}

func (ls *layerScope) job(j *ir.SingleEcuJob) singleEcuJob {
	out := singleEcuJob{
		ID:              ls.e.id(ls.id, "SEJ", j.ShortName),
		Semantic:        j.Semantic,
		ShortName:       j.ShortName,
		LongName:        odxText(j.LongName),
		Audience:        ls.audience(j.Audience),
		InputParams:     wrap(ls.jobParams(j.InputParams, j.ShortName)),
		OutputParams:    wrap(ls.jobParams(j.OutputParams, j.ShortName)),
		NegOutputParams: wrap(ls.jobParams(j.NegOutputParams, j.ShortName)),
	}
	var codes []progCode
	for _, pc := range j.ProgCodes {
		code := progCode{
			CodeFile:   pc.CodeFile,
			Encryption: pc.Encryption,
			Syntax:     pc.Syntax,
			Revision:   pc.Revision,
			EntryPoint: pc.EntryPoint,
		}
		var refs []link
		for _, lib := range pc.Libraries {
			refs = append(refs, link{IDRef: ls.library(lib)})
		}
		code.LibraryRefs = wrap(refs)
		codes = append(codes, code)
	}
	out.ProgCodes = wrap(codes)
	return out
}

func (ls *layerScope) library(lib ir.Library) string {
	key := lib.ShortName + "\x00" + lib.CodeFile
	if id, ok := ls.libraries[key]; ok {
		return id
	}
	id := ls.e.id(ls.id, "LIB", lib.ShortName)
	ls.libraries[key] = id
	ls.libs = append(ls.libs, library{
		ID:         id,
		ShortName:  lib.ShortName,
		CodeFile:   lib.CodeFile,
		Encryption: lib.Encryption,
		Syntax:     lib.Syntax,
		EntryPoint: lib.EntryPoint,
	})
	return id
}

func (ls *layerScope) jobParams(ps []ir.JobParam, owner string) []jobParam {
	out := make([]jobParam, 0, len(ps))
	for i := range ps {
		p := &ps[i]
		jp := jobParam{
			Semantic:             p.Semantic,
			ShortName:            p.ShortName,
			LongName:             odxText(p.LongName),
			PhysicalDefaultValue: p.PhysicalDefaultValue,
		}
		switch {
		case p.Dop != nil:
			jp.DopBaseRef = &link{IDRef: ls.dop(p.Dop, owner+"."+p.ShortName)}
		case p.DopRef != "":
			l := ls.lookup(ls.dopIDs, p.DopRef)
			jp.DopBaseRef = &l
		}
		out = append(out, jp)
	}
	return out
}

// dop registers d in the layer dictionary once per short-name and returns
// its ID. The ID is reserved before params are visited so that a structure
// that contains itself terminates.
func (ls *layerScope) dop(d *ir.Dop, subject string) string {
	if id, ok := ls.dopIDs[d.ShortName]; ok {
		if prev := ls.dopSeen[d.ShortName]; prev != nil && prev != d && !reflect.DeepEqual(prev, d) {
			ls.e.dropped(subject, "DOP %q differs from an earlier DOP of the same name, the first one is kept", d.ShortName)
		}
		return id
	}
	id := ls.e.id(ls.id, "DOP", d.ShortName)
	ls.dopIDs[d.ShortName] = id
	ls.dopSeen[d.ShortName] = d
	dd := &ls.dict
	owner := ls.name + "." + d.ShortName

	switch d.Kind {
	case ir.DopStructure, ir.DopEnvData:
		s := structure{ID: id, ShortName: d.ShortName, ByteSize: fmtU32(d.ByteSize), Params: wrap(ls.params(d.Params, owner))}
		if d.Kind == ir.DopStructure {
			dd.Structures = appendWrapped(dd.Structures, s)
		} else {
			dd.EnvDatas = appendWrapped(dd.EnvDatas, s)
		}
	case ir.DopStaticField, ir.DopDynamicLengthField, ir.DopEndOfPduField:
		sid := ls.e.id(id, "STRUCT")
		dd.Structures = appendWrapped(dd.Structures, structure{
			ID:        sid,
			ShortName: d.ShortName + "_STRUCT",
			ByteSize:  fmtU32(d.ByteSize),
			Params:    wrap(ls.params(d.Params, owner)),
		})
		f := field{ID: id, ShortName: d.ShortName, BasicStructureRef: &link{IDRef: sid}}
		switch d.Kind {
		case ir.DopStaticField:
			dd.StaticFields = appendWrapped(dd.StaticFields, f)
		case ir.DopDynamicLengthField:
			dd.DynamicLengthFields = appendWrapped(dd.DynamicLengthFields, f)
		default:
			dd.EndOfPduFields = appendWrapped(dd.EndOfPduFields, f)
		}
	case ir.DopMux:
		dd.Muxs = appendWrapped(dd.Muxs, namedElement{ID: id, ShortName: d.ShortName})
	case ir.DopEnvDataDesc:
		dd.EnvDataDescs = appendWrapped(dd.EnvDataDescs, namedElement{ID: id, ShortName: d.ShortName})
	case ir.DopDtc:
		dd.DtcDops = appendWrapped(dd.DtcDops, dtcDop{
			ID:            id,
			ShortName:     d.ShortName,
			DiagCodedType: codedTypeOf(d.DiagCodedType),
			PhysicalType:  physicalTypeOf(d.PhysicalType),
			CompuMethod:   compuMethodOf(d.CompuMethod),
		})
	default:
		dd.DataObjectProps = appendWrapped(dd.DataObjectProps, dataObjectProp{
			ID:             id,
			ShortName:      d.ShortName,
			CompuMethod:    compuMethodOf(d.CompuMethod),
			DiagCodedType:  codedTypeOf(d.DiagCodedType),
			PhysicalType:   physicalTypeOf(d.PhysicalType),
			InternalConstr: constraintXML(d.InternalConstr),
			UnitRef:        ls.unit(d.Unit),
			PhysConstr:     constraintXML(d.PhysConstr),
		})
	}
	return id
}

func (ls *layerScope) dtcDop(dtcs []ir.Dtc) {
	out := dtcDop{
		ID:        ls.e.id(ls.id, "DOP", dtcDopName),
		ShortName: dtcDopName,
		DiagCodedType: &diagCodedType{
			Type:         "STANDARD-LENGTH-TYPE",
			BaseDataType: ir.DataUint32.String(),
			BitLength:    "24",
		},
		PhysicalType: &physicalType{BaseDataType: ir.DataUint32.String()},
		CompuMethod:  &compuMethod{Category: "IDENTICAL"},
	}
	var list []dtc
	for _, d := range dtcs {
		x := dtc{
			ID:                 ls.e.id(ls.id, "DTC", d.ShortName),
			ShortName:          d.ShortName,
			TroubleCode:        strconv.FormatUint(uint64(d.TroubleCode), 10),
			DisplayTroubleCode: d.DisplayTroubleCode,
			Level:              fmtU32(d.Level),
			IsTemporary:        flag(d.IsTemporary),
		}
		for i := range d.Texts {
			x.Texts = append(x.Texts, *odxText(&d.Texts[i]))
		}
		list = append(list, x)
	}
	out.Dtcs = wrap(list)
	ls.dict.DtcDops = appendWrapped(ls.dict.DtcDops, out)
}

func (ls *layerScope) unit(u *ir.Unit) *link {
	if u == nil {
		return nil
	}
	if id, ok := ls.units[u.ShortName]; ok {
		return &link{IDRef: id}
	}
	id := ls.e.id(ls.id, "UNIT", u.ShortName)
	ls.units[u.ShortName] = id
	x := unit{
		ID:             id,
		ShortName:      u.ShortName,
		DisplayName:    u.DisplayName,
		FactorSIToUnit: fmtF64(u.FactorSIToUnit),
		OffsetSIToUnit: fmtF64(u.OffsetSIToUnit),
	}
	if pd := u.PhysicalDimension; pd != nil {
		did, ok := ls.dimensions[pd.ShortName]
		if !ok {
			did = ls.e.id(ls.id, "PD", pd.ShortName)
			ls.dimensions[pd.ShortName] = did
			ls.unitSpec().PhysicalDimensions = appendWrapped(ls.unitSpec().PhysicalDimensions, physicalDimension{
				ID:                   did,
				ShortName:            pd.ShortName,
				LengthExp:            fmtI32(pd.LengthExp),
				MassExp:              fmtI32(pd.MassExp),
				TimeExp:              fmtI32(pd.TimeExp),
				CurrentExp:           fmtI32(pd.CurrentExp),
				TemperatureExp:       fmtI32(pd.TemperatureExp),
				MolarAmountExp:       fmtI32(pd.MolarAmountExp),
				LuminousIntensityExp: fmtI32(pd.LuminousIntensityExp),
			})
		}
		x.PhysicalDimensionRef = &link{IDRef: did}
	}
	ls.unitSpec().Units = appendWrapped(ls.unitSpec().Units, x)
	return &link{IDRef: id}
}

func (ls *layerScope) unitSpec() *unitSpec {
	if ls.dict.UnitSpec == nil {
		ls.dict.UnitSpec = &unitSpec{}
	}
	return ls.dict.UnitSpec
}

func appendWrapped[T any](p *[]T, v T) *[]T {
	if p == nil {
		return &[]T{v}
	}
	*p = append(*p, v)
	return p
}

func codedTypeOf(t *ir.DiagCodedType) *diagCodedType {
	if t == nil {
		return nil
	}
	out := &diagCodedType{
		Type:             xsiType(t.Type),
		BaseDataType:     t.BaseDataType.String(),
		BaseTypeEncoding: t.BaseTypeEncoding,
		IsCondensed:      flag(t.IsCondensed),
		Termination:      t.Termination,
		BitLength:        fmtU32(t.BitLength),
		MinLength:        fmtU32(t.MinLength),
		MaxLength:        fmtU32(t.MaxLength),
	}
	if !t.IsHighLowByteOrder {
		out.IsHighLowByteOrder = "false"
	}
	if len(t.BitMask) > 0 {
		out.BitMask = strings.ToUpper(hex.EncodeToString(t.BitMask))
	}
	if t.LengthKeyRef != "" {
		out.LengthKeyRef = &link{IDRef: t.LengthKeyRef}
	}
	return out
}

func physicalTypeOf(p *ir.PhysicalType) *physicalType {
	if p == nil {
		return nil
	}
	return &physicalType{
		BaseDataType: p.BaseDataType.String(),
		DisplayRadix: p.DisplayRadix,
		Precision:    fmtU32(p.Precision),
	}
}

func compuMethodOf(c *ir.CompuMethod) *compuMethod {
	if c == nil {
		return nil
	}
	out := &compuMethod{Category: c.Category}
	if len(c.InternalToPhys) > 0 || c.DefaultValue != nil {
		out.InternalToPhys = &compuConversion{
			Scales:  wrap(compuScalesOf(c.InternalToPhys)),
			Default: compuValuesOf(c.DefaultValue),
		}
	}
	if len(c.PhysToInternal) > 0 {
		out.PhysToInternal = &compuConversion{Scales: wrap(compuScalesOf(c.PhysToInternal))}
	}
	return out
}

func compuScalesOf(in []ir.CompuScale) []compuScale {
	out := make([]compuScale, 0, len(in))
	for i := range in {
		s := &in[i]
		cs := compuScale{
			ShortLabel:   odxText(s.ShortLabel),
			LowerLimit:   limitXML(s.LowerLimit),
			UpperLimit:   limitXML(s.UpperLimit),
			InverseValue: compuValuesOf(s.InverseValue),
			Const:        compuValuesOf(s.Const),
		}
		if len(s.Numerators)+len(s.Denominators) > 0 {
			cs.Rational = &rationalCoeffs{
				Numerators:   wrap(fmtFloats(s.Numerators)),
				Denominators: wrap(fmtFloats(s.Denominators)),
			}
		}
		out = append(out, cs)
	}
	return out
}

func compuValuesOf(v *ir.CompuValues) *compuValues {
	if v == nil {
		return nil
	}
	out := &compuValues{V: fmtF64(v.V)}
	if v.VT != "" || v.VTTI != "" {
		out.VT = &text{TI: v.VTTI, Value: v.VT}
	}
	return out
}

func limitXML(l *ir.Limit) *limit {
	if l == nil {
		return nil
	}
	return &limit{IntervalType: l.IntervalType, Value: l.Value}
}

func constraintXML(c *ir.Constraint) *constraint {
	if c == nil {
		return nil
	}
	out := &constraint{LowerLimit: limitXML(c.LowerLimit), UpperLimit: limitXML(c.UpperLimit)}
	var scs []scaleConstr
	for _, sc := range c.ScaleConstrs {
		scs = append(scs, scaleConstr{
			Validity:   sc.Validity,
			ShortLabel: odxText(sc.ShortLabel),
			LowerLimit: limitXML(sc.LowerLimit),
			UpperLimit: limitXML(sc.UpperLimit),
		})
	}
	out.ScaleConstrs = wrap(scs)
	return out
}

func odxText(t *ir.Text) *text {
	if t == nil {
		return nil
	}
	return &text{TI: t.TI, Value: t.Value}
}

func flag(v bool) string {
	if v {
		return "true"
	}
	return ""
}

func fmtU32(v *uint32) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func fmtI32(v *int32) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(int64(*v), 10)
}

func fmtF64(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func fmtFloats(in []float64) []string {
	out := make([]string, 0, len(in))
	for i := range in {
		out = append(out, fmtF64(&in[i]))
	}
	return out
}
