package odx

import (
	"strings"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
	"diagconv/internal/resolve"
)

// layer maps one raw diag layer to resolver input. References by ID are
// translated to short-names here; inheritance is left to the resolver.
func (b *builder) layer(kind ir.LayerKind, l *rawLayer) resolve.Layer {
	name := clean(l.ShortName)
	out := resolve.Layer{
		Kind: kind,
		DiagLayer: ir.DiagLayer{
			ShortName: name,
			LongName:  irText(l.LongName),
		},
	}
	dl := &out.DiagLayer

	for _, fc := range items(l.FunctClasses) {
		dl.FunctClasses = append(dl.FunctClasses, ir.FunctClass{ShortName: clean(fc.ShortName)})
	}
	for i := range items(l.ComParamRefs) {
		dl.ComParamRefs = append(dl.ComParamRefs, b.comParamRef(&(*l.ComParamRefs)[i]))
	}
	for i := range items(l.Services) {
		dl.DiagServices = append(dl.DiagServices, b.service(l, &(*l.Services)[i]))
	}
	for i := range items(l.Jobs) {
		dl.SingleEcuJobs = append(dl.SingleEcuJobs, b.job(name, &(*l.Jobs)[i]))
	}
	for i := range items(l.StateCharts) {
		dl.StateCharts = append(dl.StateCharts, stateChartOf(&(*l.StateCharts)[i]))
	}
	for _, aa := range items(l.AdditionalAudiences) {
		dl.AdditionalAudiences = append(dl.AdditionalAudiences, ir.AdditionalAudience{
			ShortName: clean(aa.ShortName),
			LongName:  irText(aa.LongName),
		})
	}
	for i := range items(l.ParentRefs) {
		out.ParentRefs = append(out.ParentRefs, b.parentRef(&(*l.ParentRefs)[i]))
	}
	for _, vp := range items(l.VariantPatterns) {
		out.VariantPatterns = append(out.VariantPatterns, variantPatternOf(vp))
	}
	if l.DataDictionary != nil {
		out.Dops, out.Dtcs = b.dictionary(name, l.DataDictionary)
	}
	return out
}

func (b *builder) comParamRef(c *comParamRef) ir.ComParamRef {
	// COMPARAMs live in COMPARAM-SUBSET documents that are rarely shipped
	// alongside; the ID-REF then doubles as the name.
	name := c.IDRef
	if n, ok := b.ix.names[c.IDRef]; ok {
		name = n
	}
	out := ir.ComParamRef{
		ShortName:   name,
		SimpleValue: clean(c.SimpleValue),
		Protocol:    snrefName(c.ProtocolSnref),
		ProtStack:   snrefName(c.ProtStackSnref),
	}
	if c.ComplexValue != nil {
		out.ComplexValues = cleanAll(c.ComplexValue.SimpleValues)
	}
	return out
}

func (b *builder) service(l *rawLayer, s *diagService) ir.DiagService {
	name := clean(s.ShortName)
	subject := clean(l.ShortName) + "." + name
	out := ir.DiagService{
		ShortName:             name,
		LongName:              irText(s.LongName),
		Semantic:              clean(s.Semantic),
		DiagnosticClass:       clean(s.DiagnosticClass),
		IsMandatory:           isTrue(s.IsMandatory),
		IsExecutable:          !isFalse(s.IsExecutable),
		IsFinal:               isTrue(s.IsFinal),
		IsCyclic:              isTrue(s.IsCyclic),
		IsMultiple:            isTrue(s.IsMultiple),
		Audience:              b.audience(s.Audience, subject),
		FunctClassRefs:        b.refs(items(s.FunctClassRefs), subject),
		PreConditionStateRefs: b.refs(items(s.PreConditionStateRefs), subject),
		StateTransitionRefs:   b.refs(items(s.StateTransitionRefs), subject),
	}
	if v := clean(s.Addressing); v != "" {
		a, err := ir.ParseAddressing(v)
		if err != nil {
			b.warn(diag.OdxBadEnum, subject, "%v, using PHYSICAL", err)
		}
		out.Addressing = a
	}
	if v := clean(s.TransmissionMode); v != "" {
		m, err := ir.ParseTransmissionMode(legacyTransmissionMode(v))
		if err != nil {
			b.warn(diag.OdxBadEnum, subject, "%v, using SEND-AND-RECEIVE", err)
		}
		out.TransmissionMode = m
	}

	if s.RequestRef != nil {
		if m := b.request(l, s.RequestRef.IDRef); m != nil {
			out.Request = &ir.Request{
				ShortName: clean(m.ShortName),
				Params:    b.params(items(m.Params), subject),
			}
		} else {
			b.warn(diag.OdxMissingResponse, subject, "request %q not found", s.RequestRef.IDRef)
		}
	}
	out.PosResponses = b.responses(l, items(s.PosResponseRefs), ir.ResponsePositive, subject)
	out.NegResponses = b.responses(l, items(s.NegResponseRefs), ir.ResponseNegative, subject)
	return out
}

// legacyTransmissionMode accepts the short SEND/RECEIVE spellings of older
// ODX 2.0 files.
func legacyTransmissionMode(v string) string {
	switch v {
	case "SEND":
		return "SEND-ONLY"
	case "RECEIVE":
		return "RECEIVE-ONLY"
	}
	return v
}

// request looks in the owning layer first, then in the document-wide index.
func (b *builder) request(l *rawLayer, id string) *message {
	for i := range items(l.Requests) {
		if (*l.Requests)[i].ID == id {
			return &(*l.Requests)[i]
		}
	}
	return b.ix.requests[id]
}

func (b *builder) responses(l *rawLayer, refs []link, want ir.ResponseKind, subject string) []ir.Response {
	if len(refs) == 0 {
		return nil
	}
	out := make([]ir.Response, 0, len(refs))
	for _, ref := range refs {
		m, kind := b.response(l, ref.IDRef, want)
		if m == nil {
			b.warn(diag.OdxMissingResponse, subject, "response %q not found", ref.IDRef)
			continue
		}
		out = append(out, ir.Response{
			ShortName: clean(m.ShortName),
			Kind:      kind,
			Params:    b.params(items(m.Params), subject),
		})
	}
	return out
}

func (b *builder) response(l *rawLayer, id string, want ir.ResponseKind) (*message, ir.ResponseKind) {
	for _, rs := range []struct {
		list *[]message
		kind ir.ResponseKind
	}{
		{l.PosResponses, ir.ResponsePositive},
		{l.NegResponses, ir.ResponseNegative},
		{l.GlobalNegResponses, ir.ResponseGlobalNegative},
	} {
		for i := range items(rs.list) {
			if (*rs.list)[i].ID == id {
				return &(*rs.list)[i], rs.kind
			}
		}
	}
	if e, ok := b.ix.responses[id]; ok {
		return e.msg, e.kind
	}
	return nil, want
}

func (b *builder) job(layerName string, j *singleEcuJob) ir.SingleEcuJob {
	name := clean(j.ShortName)
	subject := layerName + "." + name
	out := ir.SingleEcuJob{
		ShortName:       name,
		LongName:        irText(j.LongName),
		Semantic:        clean(j.Semantic),
		Audience:        b.audience(j.Audience, subject),
		InputParams:     b.jobParams(items(j.InputParams), subject),
		OutputParams:    b.jobParams(items(j.OutputParams), subject),
		NegOutputParams: b.jobParams(items(j.NegOutputParams), subject),
	}
	for _, pc := range items(j.ProgCodes) {
		code := ir.ProgCode{
			CodeFile:   clean(pc.CodeFile),
			Encryption: clean(pc.Encryption),
			Syntax:     clean(pc.Syntax),
			Revision:   clean(pc.Revision),
			EntryPoint: clean(pc.EntryPoint),
		}
		for _, ref := range items(pc.LibraryRefs) {
			lib, ok := b.ix.libraries[ref.IDRef]
			if !ok {
				b.warn(diag.OdxUnknownIDRef, subject, "unknown library %q", ref.IDRef)
				continue
			}
			code.Libraries = append(code.Libraries, ir.Library{
				ShortName:  clean(lib.ShortName),
				CodeFile:   clean(lib.CodeFile),
				Encryption: clean(lib.Encryption),
				Syntax:     clean(lib.Syntax),
				EntryPoint: clean(lib.EntryPoint),
			})
		}
		out.ProgCodes = append(out.ProgCodes, code)
	}
	return out
}

func (b *builder) jobParams(in []jobParam, subject string) []ir.JobParam {
	if len(in) == 0 {
		return nil
	}
	out := make([]ir.JobParam, 0, len(in))
	for i := range in {
		p := &in[i]
		out = append(out, ir.JobParam{
			ShortName:            clean(p.ShortName),
			LongName:             irText(p.LongName),
			Semantic:             clean(p.Semantic),
			PhysicalDefaultValue: clean(p.PhysicalDefaultValue),
			DopRef:               b.dopRef(p.DopBaseRef, nil, subject+"."+clean(p.ShortName)),
		})
	}
	return out
}

func stateChartOf(sc *stateChart) ir.StateChart {
	out := ir.StateChart{
		ShortName:  clean(sc.ShortName),
		Semantic:   firstNonEmpty(sc.Semantic, sc.SemanticAttr),
		StartState: snrefName(sc.StartState),
	}
	for _, st := range items(sc.States) {
		out.States = append(out.States, ir.State{ShortName: clean(st.ShortName), LongName: irText(st.LongName)})
	}
	for _, tr := range items(sc.StateTransitions) {
		out.Transitions = append(out.Transitions, ir.StateTransition{
			ShortName: clean(tr.ShortName),
			Source:    snrefName(tr.Source),
			Target:    snrefName(tr.Target),
		})
	}
	return out
}

func (b *builder) audience(a *audience, subject string) *ir.Audience {
	if a == nil {
		return nil
	}
	return &ir.Audience{
		Enabled:         b.refs(items(a.EnabledRefs), subject),
		Disabled:        b.refs(items(a.DisabledRefs), subject),
		IsSupplier:      isTrue(a.IsSupplier),
		IsDevelopment:   isTrue(a.IsDevelopment),
		IsManufacturing: isTrue(a.IsManufacturing),
		IsAfterSales:    isTrue(a.IsAfterSales),
		IsAfterMarket:   isTrue(a.IsAfterMarket),
	}
}

// parentRef resolves the referenced layer through the ID index. A parent in
// a document that is not part of this run falls back to DOCREF, which names
// the target layer; the resolver reports it if it is still missing.
func (b *builder) parentRef(p *parentRef) ir.ParentRef {
	out := ir.ParentRef{
		NotInheritedDiagComms:          notInheritedNames(p.NotInheritedDiagComms),
		NotInheritedDops:               notInheritedNames(p.NotInheritedDops),
		NotInheritedTables:             notInheritedNames(p.NotInheritedTables),
		NotInheritedGlobalNegResponses: notInheritedNames(p.NotInheritedGlobalNegResponses),
	}
	if info, ok := b.ix.layers[p.IDRef]; ok {
		out.ShortName, out.Kind = info.name, info.kind
		return out
	}
	out.ShortName = firstNonEmpty(p.DocRef, p.IDRef)
	out.Kind = ir.LayerBaseVariant
	if k, err := ir.ParseLayerKind(strings.TrimSuffix(string(p.Type), "-REF")); err == nil {
		out.Kind = k
	}
	return out
}

func notInheritedNames(p *[]notInherited) []string {
	var out []string
	for _, n := range items(p) {
		if name := clean(n.name()); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func variantPatternOf(vp variantPattern) ir.VariantPattern {
	var out ir.VariantPattern
	for _, mp := range items(vp.MatchingParameters) {
		out.MatchingParameters = append(out.MatchingParameters, ir.MatchingParameter{
			DiagService:           snrefName(mp.DiagCommSnref),
			OutParam:              firstNonEmpty(snrefName(mp.OutParamIfSnref), snrefName(mp.OutParamSnref)),
			ExpectedValue:         clean(mp.ExpectedValue),
			UsePhysicalAddressing: optBool(mp.UsePhysicalAddressing),
		})
	}
	return out
}
