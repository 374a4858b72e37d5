package payload

import (
	"bytes"
	"maps"
	"slices"

	flatbuffers "github.com/google/flatbuffers/go"

	"diagconv/internal/ir"
)

// ToPayload serialises db. Empty strings and empty lists are left out of the
// buffer; optional scalars keep their presence.
func ToPayload(db *ir.DiagDatabase, featureFlags ...string) []byte {
	e := &encoder{b: flatbuffers.NewBuilder(64 << 10)}
	root := e.database(db, featureFlags)
	e.b.Finish(root)
	return bytes.Clone(e.b.FinishedBytes())
}

func (e *encoder) database(db *ir.DiagDatabase, featureFlags []string) flatbuffers.UOffsetT {
	version := e.str(db.Version)
	name := e.str(db.EcuName)
	revision := e.str(db.Revision)
	metadata := e.metadata(db.Metadata)
	flags := e.strs(featureFlags)
	variants := encodeEach(e, db.Variants, e.variant)
	groups := encodeEach(e, db.FunctionalGroups, e.functionalGroup)
	dtcs := encodeEach(e, db.Dtcs, e.dtc)
	var memory flatbuffers.UOffsetT
	if db.Memory != nil {
		memory = e.memory(db.Memory)
	}

	e.start(ecuNumFields)
	e.ref(ecuVersion, version)
	e.ref(ecuName, name)
	e.ref(ecuRevision, revision)
	e.ref(ecuMetadata, metadata)
	e.ref(ecuFeatureFlags, flags)
	e.ref(ecuVariants, variants)
	e.ref(ecuFunctionalGroups, groups)
	e.ref(ecuDtcs, dtcs)
	e.ref(ecuMemory, memory)
	return e.end()
}

// metadata keeps a present but empty map as an empty vector.
func (e *encoder) metadata(m map[string]string) flatbuffers.UOffsetT {
	if m == nil {
		return 0
	}
	keys := slices.Sorted(maps.Keys(m))
	offs := make([]flatbuffers.UOffsetT, len(keys))
	for i, k := range keys {
		key, value := e.str(k), e.str(m[k])
		e.start(kvNumFields)
		e.ref(kvKey, key)
		e.ref(kvValue, value)
		offs[i] = e.end()
	}
	e.b.StartVector(flatbuffers.SizeUOffsetT, len(offs), flatbuffers.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		e.b.PrependUOffsetT(offs[i])
	}
	return e.b.EndVector(len(offs))
}

// text writes a Text or LongName table; both have the same fields.
func (e *encoder) text(t *ir.Text) flatbuffers.UOffsetT {
	if t == nil {
		return 0
	}
	value, ti := e.str(t.Value), e.str(t.TI)
	e.start(textNumFields)
	e.ref(textValue, value)
	e.ref(textTI, ti)
	return e.end()
}

func (e *encoder) variant(v *ir.Variant) flatbuffers.UOffsetT {
	layer := e.layer(&v.DiagLayer)
	patterns := encodeEach(e, v.VariantPatterns, e.pattern)
	parents := encodeEach(e, v.ParentRefs, e.parentRef)

	e.start(variantNumFields)
	e.ref(variantDiagLayer, layer)
	e.flag(variantIsBase, v.IsBaseVariant)
	e.ref(variantPatterns, patterns)
	e.ref(variantParentRefs, parents)
	return e.end()
}

func (e *encoder) functionalGroup(g *ir.FunctionalGroup) flatbuffers.UOffsetT {
	layer := e.layer(&g.DiagLayer)
	parents := encodeEach(e, g.ParentRefs, e.parentRef)

	e.start(groupNumFields)
	e.ref(groupDiagLayer, layer)
	e.ref(groupParentRefs, parents)
	return e.end()
}

// layerStub is a DiagLayer that carries only its short name. References on
// the wire embed the referenced object; the ir keeps just the name.
func (e *encoder) layerStub(name string) flatbuffers.UOffsetT {
	n := e.str(name)
	e.start(layerNumFields)
	e.ref(layerShortName, n)
	return e.end()
}

func (e *encoder) protocolStub(name string) flatbuffers.UOffsetT {
	if name == "" {
		return 0
	}
	layer := e.layerStub(name)
	e.start(protocolNumFields)
	e.ref(protocolDiagLayer, layer)
	return e.end()
}

func (e *encoder) parentTarget(p *ir.ParentRef) (uint8, flatbuffers.UOffsetT) {
	switch p.Kind {
	case ir.LayerBaseVariant, ir.LayerEcuVariant:
		layer := e.layerStub(p.ShortName)
		e.start(variantNumFields)
		e.ref(variantDiagLayer, layer)
		e.flag(variantIsBase, p.Kind == ir.LayerBaseVariant)
		return refVariant, e.end()
	case ir.LayerFunctionalGroup:
		layer := e.layerStub(p.ShortName)
		e.start(groupNumFields)
		e.ref(groupDiagLayer, layer)
		return refFunctionalGroup, e.end()
	case ir.LayerEcuSharedData:
		layer := e.layerStub(p.ShortName)
		e.start(sharedNumFields)
		e.ref(sharedDiagLayer, layer)
		return refEcuSharedData, e.end()
	default:
		layer := e.layerStub(p.ShortName)
		e.start(protocolNumFields)
		e.ref(protocolDiagLayer, layer)
		return refProtocol, e.end()
	}
}

func (e *encoder) parentRef(p *ir.ParentRef) flatbuffers.UOffsetT {
	tag, target := e.parentTarget(p)
	comms := e.strs(p.NotInheritedDiagComms)
	dops := e.strs(p.NotInheritedDops)
	tables := e.strs(p.NotInheritedTables)
	negs := e.strs(p.NotInheritedGlobalNegResponses)

	e.start(parentNumFields)
	e.u8(parentRefType, tag)
	e.ref(parentRef, target)
	e.ref(parentNotInheritedDiagComms, comms)
	e.ref(parentNotInheritedDops, dops)
	e.ref(parentNotInheritedTables, tables)
	e.ref(parentNotInheritedGlobalNegResponses, negs)
	e.optI32(parentPriority, p.Priority)
	return e.end()
}

func (e *encoder) functClass(name string) flatbuffers.UOffsetT {
	n := e.str(name)
	e.start(functClassNumFields)
	e.ref(functClassShortName, n)
	return e.end()
}

func (e *encoder) layer(l *ir.DiagLayer) flatbuffers.UOffsetT {
	name := e.str(l.ShortName)
	long := e.text(l.LongName)
	classes := encodeEach(e, l.FunctClasses, func(fc *ir.FunctClass) flatbuffers.UOffsetT {
		return e.functClass(fc.ShortName)
	})
	comParams := encodeEach(e, l.ComParamRefs, e.comParam)
	services := encodeEach(e, l.DiagServices, e.service)
	jobs := encodeEach(e, l.SingleEcuJobs, e.job)
	charts := encodeEach(e, l.StateCharts, e.stateChart)
	audiences := encodeEach(e, l.AdditionalAudiences, func(a *ir.AdditionalAudience) flatbuffers.UOffsetT {
		return e.additionalAudience(a.ShortName, a.LongName)
	})

	e.start(layerNumFields)
	e.ref(layerShortName, name)
	e.ref(layerLongName, long)
	e.ref(layerFunctClasses, classes)
	e.ref(layerComParamRefs, comParams)
	e.ref(layerDiagServices, services)
	e.ref(layerSingleEcuJobs, jobs)
	e.ref(layerStateCharts, charts)
	e.ref(layerAdditionalAudiences, audiences)
	return e.end()
}

func (e *encoder) additionalAudience(name string, long *ir.Text) flatbuffers.UOffsetT {
	n, ln := e.str(name), e.text(long)
	e.start(addAudienceNumFields)
	e.ref(addAudienceShortName, n)
	e.ref(addAudienceLongName, ln)
	return e.end()
}

// comParam spreads the ir reference over the wire objects it names: the
// parameter itself, its value, the protocol and the protocol stack.
func (e *encoder) comParam(c *ir.ComParamRef) flatbuffers.UOffsetT {
	var simple flatbuffers.UOffsetT
	if c.SimpleValue != "" {
		simple = e.simpleValue(c.SimpleValue)
	}
	var complexValue flatbuffers.UOffsetT
	if len(c.ComplexValues) > 0 {
		entries := encodeEach(e, c.ComplexValues, func(v *string) flatbuffers.UOffsetT { return e.simpleValue(*v) })
		types := bytes.Repeat([]byte{entrySimpleValue}, len(c.ComplexValues))
		tags := e.bytes(types)
		e.start(complexNumFields)
		e.ref(complexEntriesType, tags)
		e.ref(complexEntries, entries)
		complexValue = e.end()
	}
	var param flatbuffers.UOffsetT
	if c.ShortName != "" {
		n := e.str(c.ShortName)
		e.start(comParamNumFields)
		e.ref(comParamShortName, n)
		param = e.end()
	}
	protocol := e.protocolStub(c.Protocol)
	var stack flatbuffers.UOffsetT
	if c.ProtStack != "" {
		n := e.str(c.ProtStack)
		e.start(stackNumFields)
		e.ref(stackShortName, n)
		stack = e.end()
	}

	e.start(cpRefNumFields)
	e.ref(cpRefSimpleValue, simple)
	e.ref(cpRefComplexValue, complexValue)
	e.ref(cpRefComParam, param)
	e.ref(cpRefProtocol, protocol)
	e.ref(cpRefProtStack, stack)
	return e.end()
}

func (e *encoder) simpleValue(v string) flatbuffers.UOffsetT {
	s := e.str(v)
	e.start(simpleNumFields)
	e.ref(simpleValue, s)
	return e.end()
}

// diagComm holds what services and single ECU jobs share on the wire.
type diagComm struct {
	ShortName             string
	LongName              *ir.Text
	Semantic              string
	DiagnosticClass       string
	FunctClassRefs        []string
	PreConditionStateRefs []string
	StateTransitionRefs   []string
	Audience              *ir.Audience
	IsMandatory           bool
	IsExecutable          bool
	IsFinal               bool
}

func (e *encoder) diagComm(c *diagComm) flatbuffers.UOffsetT {
	name := e.str(c.ShortName)
	long := e.text(c.LongName)
	semantic := e.str(c.Semantic)
	classes := encodeEach(e, c.FunctClassRefs, func(s *string) flatbuffers.UOffsetT { return e.functClass(*s) })
	class, className := e.named(diagClasses, c.DiagnosticClass)
	preconds := encodeEach(e, c.PreConditionStateRefs, func(s *string) flatbuffers.UOffsetT {
		state := e.state(*s, nil)
		e.start(preCondNumFields)
		e.ref(preCondState, state)
		return e.end()
	})
	transitions := encodeEach(e, c.StateTransitionRefs, func(s *string) flatbuffers.UOffsetT {
		n := e.str(*s)
		e.start(transitionNumFields)
		e.ref(transitionShortName, n)
		tr := e.end()
		e.start(transRefNumFields)
		e.ref(transRefStateTransition, tr)
		return e.end()
	})
	audience := e.audience(c.Audience)

	e.start(commNumFields)
	e.ref(commShortName, name)
	e.ref(commLongName, long)
	e.ref(commSemantic, semantic)
	e.ref(commFunctClass, classes)
	e.optU8(commDiagClassType, class)
	e.ref(commPreConditionStateRefs, preconds)
	e.ref(commStateTransitionRefs, transitions)
	e.ref(commAudience, audience)
	e.flag(commIsMandatory, c.IsMandatory)
	e.flag(commIsExecutable, c.IsExecutable)
	e.flag(commIsFinal, c.IsFinal)
	e.ref(commDiagClassName, className)
	return e.end()
}

func (e *encoder) service(s *ir.DiagService) flatbuffers.UOffsetT {
	comm := e.diagComm(&diagComm{
		ShortName:             s.ShortName,
		LongName:              s.LongName,
		Semantic:              s.Semantic,
		DiagnosticClass:       s.DiagnosticClass,
		FunctClassRefs:        s.FunctClassRefs,
		PreConditionStateRefs: s.PreConditionStateRefs,
		StateTransitionRefs:   s.StateTransitionRefs,
		Audience:              s.Audience,
		IsMandatory:           s.IsMandatory,
		IsExecutable:          s.IsExecutable,
		IsFinal:               s.IsFinal,
	})
	var request flatbuffers.UOffsetT
	if s.Request != nil {
		params := e.params(s.Request.Params, 0)
		rn := e.str(s.Request.ShortName)
		e.start(requestNumFields)
		e.ref(requestParams, params)
		e.ref(requestShortName, rn)
		request = e.end()
	}
	pos := encodeEach(e, s.PosResponses, e.response)
	neg := encodeEach(e, s.NegResponses, e.response)

	e.start(serviceNumFields)
	e.ref(serviceDiagComm, comm)
	e.ref(serviceRequest, request)
	e.ref(servicePosResponses, pos)
	e.ref(serviceNegResponses, neg)
	e.flag(serviceIsCyclic, s.IsCyclic)
	e.flag(serviceIsMultiple, s.IsMultiple)
	e.enum(serviceAddressing, addressings.wire(uint8(s.Addressing)))
	e.enum(serviceTransmissionMode, transmissionModes.wire(uint8(s.TransmissionMode)))
	return e.end()
}

// serviceStub and paramStub stand in for the objects a matching parameter
// points at.
func (e *encoder) serviceStub(name string) flatbuffers.UOffsetT {
	if name == "" {
		return 0
	}
	comm := e.diagComm(&diagComm{ShortName: name})
	e.start(serviceNumFields)
	e.ref(serviceDiagComm, comm)
	return e.end()
}

func (e *encoder) paramStub(name string) flatbuffers.UOffsetT {
	if name == "" {
		return 0
	}
	n := e.str(name)
	e.start(paramNumFields)
	e.ref(paramShortName, n)
	return e.end()
}

func (e *encoder) response(r *ir.Response) flatbuffers.UOffsetT {
	params := e.params(r.Params, 0)
	name := e.str(r.ShortName)
	e.start(responseNumFields)
	e.enum(responseType, responseKinds.wire(uint8(r.Kind)))
	e.ref(responseParams, params)
	e.ref(responseShortName, name)
	return e.end()
}

func (e *encoder) audience(a *ir.Audience) flatbuffers.UOffsetT {
	if a == nil {
		return 0
	}
	ref := func(s *string) flatbuffers.UOffsetT { return e.additionalAudience(*s, nil) }
	enabled := encodeEach(e, a.Enabled, ref)
	disabled := encodeEach(e, a.Disabled, ref)
	e.start(audienceNumFields)
	e.ref(audienceEnabled, enabled)
	e.ref(audienceDisabled, disabled)
	e.flag(audienceIsSupplier, a.IsSupplier)
	e.flag(audienceIsDevelopment, a.IsDevelopment)
	e.flag(audienceIsManufacturing, a.IsManufacturing)
	e.flag(audienceIsAfterSales, a.IsAfterSales)
	e.flag(audienceIsAfterMarket, a.IsAfterMarket)
	return e.end()
}

func (e *encoder) job(j *ir.SingleEcuJob) flatbuffers.UOffsetT {
	comm := e.diagComm(&diagComm{
		ShortName: j.ShortName,
		LongName:  j.LongName,
		Semantic:  j.Semantic,
		Audience:  j.Audience,
	})
	progCodes := encodeEach(e, j.ProgCodes, e.progCode)
	in := encodeEach(e, j.InputParams, e.jobParam)
	out := encodeEach(e, j.OutputParams, e.jobParam)
	neg := encodeEach(e, j.NegOutputParams, e.jobParam)

	e.start(jobNumFields)
	e.ref(jobDiagComm, comm)
	e.ref(jobProgCodes, progCodes)
	e.ref(jobInputParams, in)
	e.ref(jobOutputParams, out)
	e.ref(jobNegOutputParams, neg)
	return e.end()
}

func (e *encoder) progCode(p *ir.ProgCode) flatbuffers.UOffsetT {
	file := e.str(p.CodeFile)
	encryption := e.str(p.Encryption)
	syntax := e.str(p.Syntax)
	revision := e.str(p.Revision)
	entry := e.str(p.EntryPoint)
	libs := encodeEach(e, p.Libraries, func(l *ir.Library) flatbuffers.UOffsetT {
		n, f := e.str(l.ShortName), e.str(l.CodeFile)
		enc, syn, ep := e.str(l.Encryption), e.str(l.Syntax), e.str(l.EntryPoint)
		e.start(libNumFields)
		e.ref(libShortName, n)
		e.ref(libCodeFile, f)
		e.ref(libEncryption, enc)
		e.ref(libSyntax, syn)
		e.ref(libEntryPoint, ep)
		return e.end()
	})

	e.start(progNumFields)
	e.ref(progCodeFile, file)
	e.ref(progEncryption, encryption)
	e.ref(progSyntax, syntax)
	e.ref(progRevision, revision)
	e.ref(progEntryPoint, entry)
	e.ref(progLibraries, libs)
	return e.end()
}

func (e *encoder) jobParam(p *ir.JobParam) flatbuffers.UOffsetT {
	name := e.str(p.ShortName)
	long := e.text(p.LongName)
	def := e.str(p.PhysicalDefaultValue)
	dop := e.dop(p.Dop, 0)
	semantic := e.str(p.Semantic)
	dopRef := e.str(p.DopRef)

	e.start(jobParamNumFields)
	e.ref(jobParamShortName, name)
	e.ref(jobParamLongName, long)
	e.ref(jobParamPhysicalDefault, def)
	e.ref(jobParamDop, dop)
	e.ref(jobParamSemantic, semantic)
	e.ref(jobParamDopRef, dopRef)
	e.flag(jobParamDopUnresolved, p.DopUnresolved)
	return e.end()
}

func (e *encoder) params(ps []ir.Param, depth int) flatbuffers.UOffsetT {
	return encodeEach(e, ps, func(p *ir.Param) flatbuffers.UOffsetT { return e.param(p, depth) })
}

// param writes the fields of p that the specific_data member for its type
// has room for into that member. Everything else lands in the trailing
// slots so the round trip stays lossless.
func (e *encoder) param(p *ir.Param, depth int) flatbuffers.UOffsetT {
	name := e.str(p.ShortName)
	semantic := e.str(p.Semantic)
	def := e.str(p.PhysicalDefaultValue)

	rest := *p
	var tag uint8
	var data flatbuffers.UOffsetT
	switch p.Type {
	case ir.ParamCodedConst:
		coded, dct := e.str(p.CodedValue), e.codedType(p.DiagCodedType)
		e.start(codedConstNumFields)
		e.ref(codedConstValue, coded)
		e.ref(codedConstDiagCodedType, dct)
		tag, data = paramDataCodedConst, e.end()
		rest.CodedValue, rest.DiagCodedType = "", nil
	case ir.ParamNrcConst:
		coded, dct := e.strs(p.CodedValues), e.codedType(p.DiagCodedType)
		e.start(nrcConstNumFields)
		e.ref(nrcConstValues, coded)
		e.ref(nrcConstDiagCodedType, dct)
		tag, data = paramDataNrcConst, e.end()
		rest.CodedValues, rest.DiagCodedType = nil, nil
	case ir.ParamPhysConst:
		constant, dop := e.str(p.PhysConstantValue), e.dop(p.Dop, depth+1)
		e.start(physConstNumFields)
		e.ref(physConstValue, constant)
		e.ref(physConstDop, dop)
		tag, data = paramDataPhysConst, e.end()
		rest.PhysConstantValue, rest.Dop = "", nil
	case ir.ParamValue:
		dop := e.dop(p.Dop, depth+1)
		e.start(valueNumFields)
		e.ref(valueDefault, def)
		e.ref(valueDop, dop)
		tag, data = paramDataValue, e.end()
		rest.Dop = nil
	case ir.ParamSystem:
		dop := e.dop(p.Dop, depth+1)
		e.start(systemNumFields)
		e.ref(systemDop, dop)
		tag, data = paramDataSystem, e.end()
		rest.Dop = nil
	case ir.ParamLengthKey:
		dop := e.dop(p.Dop, depth+1)
		e.start(lengthKeyRefNumFields)
		e.ref(lengthKeyRefDop, dop)
		tag, data = paramDataLengthKeyRef, e.end()
		rest.Dop = nil
	case ir.ParamMatchingRequestParam:
		e.start(matchReqNumFields)
		e.optI32(matchReqBytePos, p.RequestBytePos)
		e.optU32(matchReqByteLength, p.MatchByteLength)
		tag, data = paramDataMatchingRequestParam, e.end()
		rest.RequestBytePos, rest.MatchByteLength = nil, nil
	case ir.ParamReserved:
		e.start(reservedNumFields)
		e.optU32(reservedBitLength, p.BitLength)
		tag, data = paramDataReserved, e.end()
		rest.BitLength = nil
	case ir.ParamDynamic:
		e.start(0)
		tag, data = paramDataDynamic, e.end()
	}

	coded := e.str(rest.CodedValue)
	codedValues := e.strs(rest.CodedValues)
	constant := e.str(rest.PhysConstantValue)
	dct := e.codedType(rest.DiagCodedType)
	dop := e.dop(rest.Dop, depth+1)
	dopRef := e.str(p.DopRef)

	e.start(paramNumFields)
	e.enum(paramType, paramTypes.wire(uint8(p.Type)))
	e.ref(paramShortName, name)
	e.ref(paramSemantic, semantic)
	e.ref(paramPhysicalDefault, def)
	e.optU32(paramBytePosition, p.BytePosition)
	e.optU32(paramBitPosition, p.BitPosition)
	e.u8(paramSpecificType, tag)
	e.ref(paramSpecific, data)
	e.ref(paramCodedValue, coded)
	e.ref(paramCodedValues, codedValues)
	e.ref(paramPhysConstant, constant)
	e.ref(paramDiagCodedType, dct)
	e.optU32(paramBitLength, rest.BitLength)
	e.optI32(paramRequestBytePos, rest.RequestBytePos)
	e.optU32(paramByteLength, rest.MatchByteLength)
	e.ref(paramDop, dop)
	e.ref(paramDopRef, dopRef)
	e.flag(paramDopUnresolved, p.DopUnresolved)
	return e.end()
}

// dop writes a bound data object property. Structures nested deeper than
// the decoder accepts are cut off and keep only their name.
func (e *encoder) dop(d *ir.Dop, depth int) flatbuffers.UOffsetT {
	if d == nil {
		return 0
	}
	name := e.str(d.ShortName)
	rest := *d
	if depth >= maxDopDepth {
		rest.Params = nil
	}

	var tag uint8
	var data flatbuffers.UOffsetT
	switch d.Kind {
	case ir.DopRegular:
		compu := e.compuMethod(d.CompuMethod)
		dct := e.codedType(d.DiagCodedType)
		phys := e.physicalType(d.PhysicalType)
		internal := e.constraint(d.InternalConstr)
		unit := e.unit(d.Unit)
		physConstr := e.constraint(d.PhysConstr)
		e.start(normalNumFields)
		e.ref(normalCompuMethod, compu)
		e.ref(normalDiagCodedType, dct)
		e.ref(normalPhysicalType, phys)
		e.ref(normalInternalConstr, internal)
		e.ref(normalUnit, unit)
		e.ref(normalPhysConstr, physConstr)
		tag, data = dopDataNormal, e.end()
		rest.CompuMethod, rest.DiagCodedType, rest.PhysicalType = nil, nil, nil
		rest.InternalConstr, rest.Unit, rest.PhysConstr = nil, nil, nil
	case ir.DopStructure:
		params := e.params(rest.Params, depth)
		e.start(structNumFields)
		e.ref(structParams, params)
		e.optU32(structByteSize, d.ByteSize)
		e.flag(structIsVisible, true)
		tag, data = dopDataStructure, e.end()
		rest.Params, rest.ByteSize = nil, nil
	case ir.DopDtc:
		dct := e.codedType(d.DiagCodedType)
		phys := e.physicalType(d.PhysicalType)
		compu := e.compuMethod(d.CompuMethod)
		e.start(dtcDopNumFields)
		e.ref(dtcDopDiagCodedType, dct)
		e.ref(dtcDopPhysicalType, phys)
		e.ref(dtcDopCompuMethod, compu)
		e.flag(dtcDopIsVisible, true)
		tag, data = dopDataDtc, e.end()
		rest.DiagCodedType, rest.PhysicalType, rest.CompuMethod = nil, nil, nil
	case ir.DopEnvData:
		params := e.params(rest.Params, depth)
		e.start(envDataNumFields)
		e.ref(envDataParams, params)
		tag, data = dopDataEnvData, e.end()
		rest.Params = nil
	}

	dct := e.codedType(rest.DiagCodedType)
	phys := e.physicalType(rest.PhysicalType)
	compu := e.compuMethod(rest.CompuMethod)
	unit := e.unit(rest.Unit)
	internal := e.constraint(rest.InternalConstr)
	physConstr := e.constraint(rest.PhysConstr)
	params := e.params(rest.Params, depth)

	e.start(dopNumFields)
	e.enum(dopType, dopKinds.wire(uint8(d.Kind)))
	e.ref(dopShortName, name)
	e.u8(dopSpecificType, tag)
	e.ref(dopSpecific, data)
	e.ref(dopDiagCodedType, dct)
	e.ref(dopPhysicalType, phys)
	e.ref(dopCompuMethod, compu)
	e.ref(dopUnit, unit)
	e.ref(dopInternalConstr, internal)
	e.ref(dopPhysConstr, physConstr)
	e.ref(dopParams, params)
	e.optU32(dopByteSize, rest.ByteSize)
	return e.end()
}

func (e *encoder) physicalType(pt *ir.PhysicalType) flatbuffers.UOffsetT {
	if pt == nil {
		return 0
	}
	radix, radixName := e.named(radixes, pt.DisplayRadix)
	e.start(physNumFields)
	e.optU32(physPrecision, pt.Precision)
	e.enum(physBaseDataType, dataTypes.wire(uint8(pt.BaseDataType)))
	e.optU8(physDisplayRadix, radix)
	e.ref(physDisplayRadixName, radixName)
	return e.end()
}

// codedType puts the length fields into the specific_data member selected by
// the type name; the rest follow in the trailing slots.
func (e *encoder) codedType(t *ir.DiagCodedType) flatbuffers.UOffsetT {
	if t == nil {
		return 0
	}
	encoding := e.str(t.BaseTypeEncoding)
	kind, typeName := e.named(codedTypeNames, t.Type)

	var tag uint8
	if kind != nil {
		tag = *kind + 1
	}
	rest := *t
	var data, terminationName flatbuffers.UOffsetT
	switch tag {
	case lengthLeading:
		e.start(leadingNumFields)
		e.optU32(leadingBitLength, t.BitLength)
		data = e.end()
		rest.BitLength = nil
	case lengthMinMax:
		var termination *uint8
		termination, terminationName = e.named(terminations, t.Termination)
		e.start(minMaxNumFields)
		e.optU32(minMaxMinLength, t.MinLength)
		e.optU32(minMaxMaxLength, t.MaxLength)
		e.optU8(minMaxTermination, termination)
		data = e.end()
		rest.MinLength, rest.MaxLength, rest.Termination = nil, nil, ""
	case lengthParam:
		key := e.paramStub(t.LengthKeyRef)
		e.start(paramLengthNumFields)
		e.ref(paramLengthKey, key)
		data = e.end()
		rest.LengthKeyRef = ""
	case lengthStandard:
		mask := e.bytes(t.BitMask)
		e.start(standardNumFields)
		e.optU32(standardBitLength, t.BitLength)
		e.ref(standardBitMask, mask)
		e.flag(standardCondensed, t.IsCondensed)
		data = e.end()
		rest.BitLength, rest.BitMask, rest.IsCondensed = nil, nil, false
	}

	mask := e.bytes(rest.BitMask)
	if rest.Termination != "" {
		terminationName = e.str(rest.Termination)
	}
	lengthKey := e.str(rest.LengthKeyRef)

	e.start(dctNumFields)
	e.optU8(dctType, kind)
	e.ref(dctBaseTypeEncoding, encoding)
	e.enum(dctBaseDataType, dataTypes.wire(uint8(t.BaseDataType)))
	e.flag(dctHighLowByteOrder, t.IsHighLowByteOrder)
	e.u8(dctSpecificType, tag)
	e.ref(dctSpecific, data)
	e.ref(dctTypeName, typeName)
	e.optU32(dctBitLength, rest.BitLength)
	e.ref(dctBitMask, mask)
	e.flag(dctCondensed, rest.IsCondensed)
	e.optU32(dctMinLength, rest.MinLength)
	e.optU32(dctMaxLength, rest.MaxLength)
	e.ref(dctTerminationName, terminationName)
	e.ref(dctLengthKeyRef, lengthKey)
	return e.end()
}

func (e *encoder) compuMethod(c *ir.CompuMethod) flatbuffers.UOffsetT {
	if c == nil {
		return 0
	}
	category, categoryName := e.named(compuCategories, c.Category)
	var toPhys flatbuffers.UOffsetT
	if len(c.InternalToPhys) > 0 || c.DefaultValue != nil {
		scales := encodeEach(e, c.InternalToPhys, e.compuScale)
		var def flatbuffers.UOffsetT
		if c.DefaultValue != nil {
			values := e.compuValues(c.DefaultValue)
			e.start(defaultNumFields)
			e.ref(defaultValues, values)
			def = e.end()
		}
		e.start(toPhysNumFields)
		e.ref(toPhysScales, scales)
		e.ref(toPhysDefault, def)
		toPhys = e.end()
	}
	var toInternal flatbuffers.UOffsetT
	if len(c.PhysToInternal) > 0 {
		scales := encodeEach(e, c.PhysToInternal, e.compuScale)
		e.start(toInternalNumFields)
		e.ref(toInternalScales, scales)
		toInternal = e.end()
	}

	e.start(compuNumFields)
	e.optU8(compuCategory, category)
	e.ref(compuInternalToPhys, toPhys)
	e.ref(compuPhysToInternal, toInternal)
	e.ref(compuCategoryName, categoryName)
	return e.end()
}

func (e *encoder) compuScale(s *ir.CompuScale) flatbuffers.UOffsetT {
	label := e.text(s.ShortLabel)
	lower := e.limit(s.LowerLimit)
	upper := e.limit(s.UpperLimit)
	inverse := e.compuValues(s.InverseValue)
	constant := e.compuValues(s.Const)
	var coEffs flatbuffers.UOffsetT
	if len(s.Numerators) > 0 || len(s.Denominators) > 0 {
		num, den := e.float64s(s.Numerators), e.float64s(s.Denominators)
		e.start(coEffsNumFields)
		e.ref(coEffsNumerator, num)
		e.ref(coEffsDenominator, den)
		coEffs = e.end()
	}

	e.start(scaleNumFields)
	e.ref(scaleShortLabel, label)
	e.ref(scaleLowerLimit, lower)
	e.ref(scaleUpperLimit, upper)
	e.ref(scaleInverseValue, inverse)
	e.ref(scaleConst, constant)
	e.ref(scaleRationalCoEffs, coEffs)
	return e.end()
}

func (e *encoder) compuValues(v *ir.CompuValues) flatbuffers.UOffsetT {
	if v == nil {
		return 0
	}
	vt, ti := e.str(v.VT), e.str(v.VTTI)
	e.start(valuesNumFields)
	e.optF64(valuesV, v.V)
	e.ref(valuesVT, vt)
	e.ref(valuesVTTI, ti)
	return e.end()
}

func (e *encoder) limit(l *ir.Limit) flatbuffers.UOffsetT {
	if l == nil {
		return 0
	}
	value := e.str(l.Value)
	interval, intervalName := e.named(intervalTypes, l.IntervalType)
	e.start(limitNumFields)
	e.ref(limitValue, value)
	e.optU8(limitIntervalType, interval)
	e.ref(limitIntervalTypeName, intervalName)
	return e.end()
}

func (e *encoder) constraint(c *ir.Constraint) flatbuffers.UOffsetT {
	if c == nil {
		return 0
	}
	lower := e.limit(c.LowerLimit)
	upper := e.limit(c.UpperLimit)
	scales := encodeEach(e, c.ScaleConstrs, func(s *ir.ScaleConstr) flatbuffers.UOffsetT {
		label, lo, hi := e.text(s.ShortLabel), e.limit(s.LowerLimit), e.limit(s.UpperLimit)
		validity, validityName := e.named(validities, s.Validity)
		e.start(scaleConstrNumFields)
		e.ref(scaleConstrShortLabel, label)
		e.ref(scaleConstrLowerLimit, lo)
		e.ref(scaleConstrUpperLimit, hi)
		e.optU8(scaleConstrValidity, validity)
		e.ref(scaleConstrValidityName, validityName)
		return e.end()
	})

	e.start(constrNumFields)
	e.ref(constrLowerLimit, lower)
	e.ref(constrUpperLimit, upper)
	e.ref(constrScaleConstrs, scales)
	return e.end()
}

func (e *encoder) unit(u *ir.Unit) flatbuffers.UOffsetT {
	if u == nil {
		return 0
	}
	name, display := e.str(u.ShortName), e.str(u.DisplayName)
	var dim flatbuffers.UOffsetT
	if pd := u.PhysicalDimension; pd != nil {
		dn := e.str(pd.ShortName)
		e.start(dimNumFields)
		e.ref(dimShortName, dn)
		e.optI32(dimLengthExp, pd.LengthExp)
		e.optI32(dimMassExp, pd.MassExp)
		e.optI32(dimTimeExp, pd.TimeExp)
		e.optI32(dimCurrentExp, pd.CurrentExp)
		e.optI32(dimTemperatureExp, pd.TemperatureExp)
		e.optI32(dimMolarAmountExp, pd.MolarAmountExp)
		e.optI32(dimLuminousIntensityExp, pd.LuminousIntensityExp)
		dim = e.end()
	}

	e.start(unitNumFields)
	e.ref(unitShortName, name)
	e.ref(unitDisplayName, display)
	e.optF64(unitFactorSIToUnit, u.FactorSIToUnit)
	e.optF64(unitOffsetSIToUnit, u.OffsetSIToUnit)
	e.ref(unitPhysicalDimension, dim)
	return e.end()
}

func (e *encoder) state(name string, long *ir.Text) flatbuffers.UOffsetT {
	n, ln := e.str(name), e.text(long)
	e.start(stateNumFields)
	e.ref(stateShortName, n)
	e.ref(stateLongName, ln)
	return e.end()
}

func (e *encoder) stateChart(sc *ir.StateChart) flatbuffers.UOffsetT {
	name := e.str(sc.ShortName)
	semantic := e.str(sc.Semantic)
	transitions := encodeEach(e, sc.Transitions, func(t *ir.StateTransition) flatbuffers.UOffsetT {
		n, src, dst := e.str(t.ShortName), e.str(t.Source), e.str(t.Target)
		e.start(transitionNumFields)
		e.ref(transitionShortName, n)
		e.ref(transitionSource, src)
		e.ref(transitionTarget, dst)
		return e.end()
	})
	start := e.str(sc.StartState)
	states := encodeEach(e, sc.States, func(s *ir.State) flatbuffers.UOffsetT {
		return e.state(s.ShortName, s.LongName)
	})

	e.start(chartNumFields)
	e.ref(chartShortName, name)
	e.ref(chartSemantic, semantic)
	e.ref(chartTransitions, transitions)
	e.ref(chartStartState, start)
	e.ref(chartStates, states)
	return e.end()
}

func (e *encoder) pattern(p *ir.VariantPattern) flatbuffers.UOffsetT {
	params := encodeEach(e, p.MatchingParameters, func(m *ir.MatchingParameter) flatbuffers.UOffsetT {
		want := e.str(m.ExpectedValue)
		svc := e.serviceStub(m.DiagService)
		out := e.paramStub(m.OutParam)
		e.start(matchNumFields)
		e.ref(matchExpectedValue, want)
		e.ref(matchDiagService, svc)
		e.ref(matchOutParam, out)
		e.optBool(matchUsePhysicalAddressing, m.UsePhysicalAddressing)
		return e.end()
	})
	e.start(patternNumFields)
	e.ref(patternMatchingParameters, params)
	return e.end()
}

// dtc writes the first text where every reader expects it and any further
// ones into the trailing texts vector.
func (e *encoder) dtc(d *ir.Dtc) flatbuffers.UOffsetT {
	name := e.str(d.ShortName)
	display := e.str(d.DisplayTroubleCode)
	var text, more flatbuffers.UOffsetT
	if len(d.Texts) > 0 {
		text = e.text(&d.Texts[0])
		more = encodeEach(e, d.Texts[1:], e.text)
	}

	e.start(dtcNumFields)
	e.ref(dtcShortName, name)
	e.u32(dtcTroubleCode, d.TroubleCode)
	e.ref(dtcDisplayTroubleCode, display)
	e.ref(dtcText, text)
	e.optU32(dtcLevel, d.Level)
	e.flag(dtcIsTemporary, d.IsTemporary)
	e.ref(dtcTexts, more)
	return e.end()
}

func (e *encoder) memory(m *ir.MemoryConfig) flatbuffers.UOffsetT {
	e.start(addrFormatNumFields)
	e.u32(addrFormatAddressBytes, m.DefaultAddressFormat.AddressBytes)
	e.u32(addrFormatLengthBytes, m.DefaultAddressFormat.LengthBytes)
	format := e.end()
	regions := encodeEach(e, m.Regions, func(r *ir.MemoryRegion) flatbuffers.UOffsetT {
		name, desc := e.str(r.Name), e.str(r.Description)
		access, accessName := e.named(memoryAccesses, r.Access)
		level := e.str(r.SecurityLevel)
		sessions := e.strs(r.Sessions)
		e.start(regionNumFields)
		e.ref(regionName, name)
		e.ref(regionDescription, desc)
		e.u64(regionStartAddress, r.StartAddress)
		e.u64(regionSize, r.Size)
		e.optU8(regionAccess, access)
		e.ref(regionSecurityLevel, level)
		e.ref(regionSessions, sessions)
		e.ref(regionAccessName, accessName)
		return e.end()
	})
	blocks := encodeEach(e, m.DataBlocks, func(b *ir.DataBlock) flatbuffers.UOffsetT {
		name := e.str(b.Name)
		typ, typeName := e.named(blockTypes, b.Type)
		layout, layoutName := e.named(blockFormats, b.Format)
		session, checksum := e.str(b.Session), e.str(b.ChecksumType)
		e.start(blockNumFields)
		e.ref(blockName, name)
		e.optU8(blockType, typ)
		e.u64(blockMemoryAddress, b.MemoryAddress)
		e.u64(blockMemorySize, b.MemorySize)
		e.optU8(blockFormat, layout)
		e.optU32(blockMaxBlockLength, b.MaxBlockLength)
		e.ref(blockSession, session)
		e.ref(blockChecksumType, checksum)
		e.ref(blockTypeName, typeName)
		e.ref(blockFormatName, layoutName)
		return e.end()
	})

	e.start(memoryNumFields)
	e.ref(memoryAddressFormat, format)
	e.ref(memoryRegions, regions)
	e.ref(memoryDataBlocks, blocks)
	return e.end()
}
