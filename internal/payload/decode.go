package payload

import (
	"fmt"

	"diagconv/internal/ir"
)

// FromPayload parses a buffer produced by ToPayload. It returns the database
// and the feature flags stored next to it. Malformed buffers yield a
// *DecodeError, never a panic.
func FromPayload(buf []byte) (db *ir.DiagDatabase, featureFlags []string, err error) {
	if len(buf) < 8 {
		return nil, nil, &DecodeError{Msg: fmt.Sprintf("buffer too short (%d bytes)", len(buf))}
	}
	defer func() {
		if r := recover(); r != nil {
			db, featureFlags = nil, nil
			if de, ok := r.(*DecodeError); ok {
				err = de
				return
			}
			err = &DecodeError{Msg: fmt.Sprint(r)}
		}
	}()

	root := rootTable(buf)
	db = &ir.DiagDatabase{
		Version:          root.str(ecuVersion),
		EcuName:          root.str(ecuName),
		Revision:         root.str(ecuRevision),
		Variants:         decodeEach(root.tables(ecuVariants), decodeVariant),
		FunctionalGroups: decodeEach(root.tables(ecuFunctionalGroups), decodeFunctionalGroup),
		Dtcs:             decodeEach(root.tables(ecuDtcs), decodeDtc),
	}
	if root.field(ecuMetadata) != 0 {
		kvs := root.tables(ecuMetadata)
		db.Metadata = make(map[string]string, len(kvs))
		for _, kv := range kvs {
			db.Metadata[kv.str(kvKey)] = kv.str(kvValue)
		}
	}
	if m, ok := root.child(ecuMemory); ok {
		db.Memory = decodeMemory(m)
	}
	return db, root.strs(ecuFeatureFlags), nil
}

func decodeText(t table) ir.Text {
	return ir.Text{Value: t.str(textValue), TI: t.str(textTI)}
}

func optText(t table, slot int) *ir.Text {
	c, ok := t.child(slot)
	if !ok {
		return nil
	}
	v := decodeText(c)
	return &v
}

// nameOf reads the string at nameSlot of the table referenced from slot.
func nameOf(t table, slot, nameSlot int) string {
	if c, ok := t.child(slot); ok {
		return c.str(nameSlot)
	}
	return ""
}

func decodeVariant(t table) ir.Variant {
	v := ir.Variant{
		IsBaseVariant:   t.flag(variantIsBase),
		VariantPatterns: decodeEach(t.tables(variantPatterns), decodePattern),
		ParentRefs:      decodeEach(t.tables(variantParentRefs), decodeParentRef),
	}
	if l, ok := t.child(variantDiagLayer); ok {
		v.DiagLayer = decodeLayer(l)
	}
	return v
}

func decodeFunctionalGroup(t table) ir.FunctionalGroup {
	g := ir.FunctionalGroup{ParentRefs: decodeEach(t.tables(groupParentRefs), decodeParentRef)}
	if l, ok := t.child(groupDiagLayer); ok {
		g.DiagLayer = decodeLayer(l)
	}
	return g
}

func decodeParentRef(t table) ir.ParentRef {
	p := ir.ParentRef{
		Priority:                       t.optI32(parentPriority),
		NotInheritedDiagComms:          t.strs(parentNotInheritedDiagComms),
		NotInheritedDops:               t.strs(parentNotInheritedDops),
		NotInheritedTables:             t.strs(parentNotInheritedTables),
		NotInheritedGlobalNegResponses: t.strs(parentNotInheritedGlobalNegResponses),
	}
	tag, target, ok := t.union(parentRefType)
	if !ok {
		return p
	}
	switch tag {
	case refVariant:
		p.Kind = ir.LayerEcuVariant
		if target.flag(variantIsBase) {
			p.Kind = ir.LayerBaseVariant
		}
		p.ShortName = nameOf(target, variantDiagLayer, layerShortName)
	case refProtocol:
		p.Kind = ir.LayerProtocol
		p.ShortName = nameOf(target, protocolDiagLayer, layerShortName)
	case refFunctionalGroup:
		p.Kind = ir.LayerFunctionalGroup
		p.ShortName = nameOf(target, groupDiagLayer, layerShortName)
	case refEcuSharedData:
		p.Kind = ir.LayerEcuSharedData
		p.ShortName = nameOf(target, sharedDiagLayer, layerShortName)
	}
	return p
}

func decodeLayer(t table) ir.DiagLayer {
	return ir.DiagLayer{
		ShortName: t.str(layerShortName),
		LongName:  optText(t, layerLongName),
		FunctClasses: decodeEach(t.tables(layerFunctClasses), func(c table) ir.FunctClass {
			return ir.FunctClass{ShortName: c.str(functClassShortName)}
		}),
		ComParamRefs:  decodeEach(t.tables(layerComParamRefs), decodeComParam),
		DiagServices:  decodeEach(t.tables(layerDiagServices), decodeService),
		SingleEcuJobs: decodeEach(t.tables(layerSingleEcuJobs), decodeJob),
		StateCharts:   decodeEach(t.tables(layerStateCharts), decodeStateChart),
		AdditionalAudiences: decodeEach(t.tables(layerAdditionalAudiences), func(a table) ir.AdditionalAudience {
			return ir.AdditionalAudience{ShortName: a.str(addAudienceShortName), LongName: optText(a, addAudienceLongName)}
		}),
	}
}

// decodeComParam keeps the simple entries of a complex value; nested
// complex entries have no ir counterpart.
func decodeComParam(t table) ir.ComParamRef {
	c := ir.ComParamRef{
		ShortName: nameOf(t, cpRefComParam, comParamShortName),
		ProtStack: nameOf(t, cpRefProtStack, stackShortName),
	}
	if v, ok := t.child(cpRefSimpleValue); ok {
		c.SimpleValue = v.str(simpleValue)
	}
	if cv, ok := t.child(cpRefComplexValue); ok {
		tags := cv.bytes(complexEntriesType)
		for i, entry := range cv.tables(complexEntries) {
			if i < len(tags) && tags[i] == entrySimpleValue {
				c.ComplexValues = append(c.ComplexValues, entry.str(simpleValue))
			}
		}
	}
	if p, ok := t.child(cpRefProtocol); ok {
		c.Protocol = nameOf(p, protocolDiagLayer, layerShortName)
	}
	return c
}

func decodeDiagComm(t table, slot int) diagComm {
	c, ok := t.child(slot)
	if !ok {
		return diagComm{}
	}
	return diagComm{
		ShortName:       c.str(commShortName),
		LongName:        optText(c, commLongName),
		Semantic:        c.str(commSemantic),
		DiagnosticClass: c.named(diagClasses, commDiagClassType, commDiagClassName),
		FunctClassRefs: decodeEach(c.tables(commFunctClass), func(f table) string {
			return f.str(functClassShortName)
		}),
		PreConditionStateRefs: decodeEach(c.tables(commPreConditionStateRefs), func(p table) string {
			return nameOf(p, preCondState, stateShortName)
		}),
		StateTransitionRefs: decodeEach(c.tables(commStateTransitionRefs), func(r table) string {
			return nameOf(r, transRefStateTransition, transitionShortName)
		}),
		Audience:     decodeAudience(c, commAudience),
		IsMandatory:  c.flag(commIsMandatory),
		IsExecutable: c.flag(commIsExecutable),
		IsFinal:      c.flag(commIsFinal),
	}
}

func decodeService(t table) ir.DiagService {
	c := decodeDiagComm(t, serviceDiagComm)
	s := ir.DiagService{
		ShortName:             c.ShortName,
		LongName:              c.LongName,
		Semantic:              c.Semantic,
		DiagnosticClass:       c.DiagnosticClass,
		Addressing:            ir.Addressing(addressings.ir(t.u8(serviceAddressing), uint8(ir.AddressingPhysical))),
		TransmissionMode:      ir.TransmissionMode(transmissionModes.ir(t.u8(serviceTransmissionMode), uint8(ir.TransmissionSendAndReceive))),
		IsMandatory:           c.IsMandatory,
		IsExecutable:          c.IsExecutable,
		IsFinal:               c.IsFinal,
		IsCyclic:              t.flag(serviceIsCyclic),
		IsMultiple:            t.flag(serviceIsMultiple),
		Audience:              c.Audience,
		FunctClassRefs:        c.FunctClassRefs,
		PreConditionStateRefs: c.PreConditionStateRefs,
		StateTransitionRefs:   c.StateTransitionRefs,
		PosResponses:          decodeEach(t.tables(servicePosResponses), decodeResponse),
		NegResponses:          decodeEach(t.tables(serviceNegResponses), decodeResponse),
	}
	if r, ok := t.child(serviceRequest); ok {
		s.Request = &ir.Request{ShortName: r.str(requestShortName), Params: decodeParams(r, requestParams, 0)}
	}
	return s
}

func decodeResponse(t table) ir.Response {
	return ir.Response{
		ShortName: t.str(responseShortName),
		Kind:      ir.ResponseKind(responseKinds.ir(t.u8(responseType), uint8(ir.ResponsePositive))),
		Params:    decodeParams(t, responseParams, 0),
	}
}

func decodeAudience(t table, slot int) *ir.Audience {
	a, ok := t.child(slot)
	if !ok {
		return nil
	}
	name := func(x table) string { return x.str(addAudienceShortName) }
	return &ir.Audience{
		Enabled:         decodeEach(a.tables(audienceEnabled), name),
		Disabled:        decodeEach(a.tables(audienceDisabled), name),
		IsSupplier:      a.flag(audienceIsSupplier),
		IsDevelopment:   a.flag(audienceIsDevelopment),
		IsManufacturing: a.flag(audienceIsManufacturing),
		IsAfterSales:    a.flag(audienceIsAfterSales),
		IsAfterMarket:   a.flag(audienceIsAfterMarket),
	}
}

func decodeJob(t table) ir.SingleEcuJob {
	c := decodeDiagComm(t, jobDiagComm)
	return ir.SingleEcuJob{
		ShortName:       c.ShortName,
		LongName:        c.LongName,
		Semantic:        c.Semantic,
		Audience:        c.Audience,
		ProgCodes:       decodeEach(t.tables(jobProgCodes), decodeProgCode),
		InputParams:     decodeEach(t.tables(jobInputParams), decodeJobParam),
		OutputParams:    decodeEach(t.tables(jobOutputParams), decodeJobParam),
		NegOutputParams: decodeEach(t.tables(jobNegOutputParams), decodeJobParam),
	}
}

func decodeProgCode(t table) ir.ProgCode {
	return ir.ProgCode{
		CodeFile:   t.str(progCodeFile),
		Encryption: t.str(progEncryption),
		Syntax:     t.str(progSyntax),
		Revision:   t.str(progRevision),
		EntryPoint: t.str(progEntryPoint),
		Libraries: decodeEach(t.tables(progLibraries), func(l table) ir.Library {
			return ir.Library{
				ShortName:  l.str(libShortName),
				CodeFile:   l.str(libCodeFile),
				Encryption: l.str(libEncryption),
				Syntax:     l.str(libSyntax),
				EntryPoint: l.str(libEntryPoint),
			}
		}),
	}
}

func decodeJobParam(t table) ir.JobParam {
	p := ir.JobParam{
		ShortName:            t.str(jobParamShortName),
		LongName:             optText(t, jobParamLongName),
		Semantic:             t.str(jobParamSemantic),
		PhysicalDefaultValue: t.str(jobParamPhysicalDefault),
		DopRef:               t.str(jobParamDopRef),
		DopUnresolved:        t.flag(jobParamDopUnresolved),
	}
	if d, ok := t.child(jobParamDop); ok {
		p.Dop = decodeDop(d, 0)
	}
	return p
}

func decodeParams(t table, slot, depth int) []ir.Param {
	return decodeEach(t.tables(slot), func(p table) ir.Param { return decodeParam(p, depth) })
}

// decodeParam reads the trailing slots first and then takes whatever the
// specific_data member carries.
func decodeParam(t table, depth int) ir.Param {
	p := ir.Param{
		ShortName:            t.str(paramShortName),
		Semantic:             t.str(paramSemantic),
		Type:                 ir.ParamType(paramTypes.ir(t.u8(paramType), uint8(ir.ParamValue))),
		BytePosition:         t.optU32(paramBytePosition),
		BitPosition:          t.optU32(paramBitPosition),
		CodedValue:           t.str(paramCodedValue),
		CodedValues:          t.strs(paramCodedValues),
		PhysicalDefaultValue: t.str(paramPhysicalDefault),
		PhysConstantValue:    t.str(paramPhysConstant),
		DiagCodedType:        decodeCodedType(t, paramDiagCodedType),
		BitLength:            t.optU32(paramBitLength),
		RequestBytePos:       t.optI32(paramRequestBytePos),
		MatchByteLength:      t.optU32(paramByteLength),
		DopRef:               t.str(paramDopRef),
		DopUnresolved:        t.flag(paramDopUnresolved),
	}
	if d, ok := t.child(paramDop); ok {
		p.Dop = decodeDop(d, depth+1)
	}

	tag, data, ok := t.union(paramSpecificType)
	if !ok {
		return p
	}
	switch tag {
	case paramDataCodedConst:
		p.CodedValue = data.str(codedConstValue)
		p.DiagCodedType = decodeCodedType(data, codedConstDiagCodedType)
	case paramDataNrcConst:
		p.CodedValues = data.strs(nrcConstValues)
		p.DiagCodedType = decodeCodedType(data, nrcConstDiagCodedType)
	case paramDataPhysConst:
		p.PhysConstantValue = data.str(physConstValue)
		p.Dop = decodeChildDop(data, physConstDop, depth+1)
	case paramDataValue:
		if p.PhysicalDefaultValue == "" {
			p.PhysicalDefaultValue = data.str(valueDefault)
		}
		p.Dop = decodeChildDop(data, valueDop, depth+1)
	case paramDataSystem:
		p.Dop = decodeChildDop(data, systemDop, depth+1)
	case paramDataLengthKeyRef:
		p.Dop = decodeChildDop(data, lengthKeyRefDop, depth+1)
	case paramDataMatchingRequestParam:
		p.RequestBytePos = data.optI32(matchReqBytePos)
		p.MatchByteLength = data.optU32(matchReqByteLength)
	case paramDataReserved:
		p.BitLength = data.optU32(reservedBitLength)
	}
	return p
}

func decodeChildDop(t table, slot, depth int) *ir.Dop {
	d, ok := t.child(slot)
	if !ok {
		return nil
	}
	return decodeDop(d, depth)
}

func decodeDop(t table, depth int) *ir.Dop {
	if depth > maxDopDepth {
		fail("data object properties nested deeper than %d", maxDopDepth)
	}
	d := &ir.Dop{
		ShortName:      t.str(dopShortName),
		Kind:           ir.DopKind(dopKinds.ir(t.u8(dopType), uint8(ir.DopRegular))),
		DiagCodedType:  decodeCodedType(t, dopDiagCodedType),
		PhysicalType:   decodePhysicalType(t, dopPhysicalType),
		CompuMethod:    decodeCompuMethod(t, dopCompuMethod),
		Unit:           decodeUnit(t, dopUnit),
		InternalConstr: decodeConstraint(t, dopInternalConstr),
		PhysConstr:     decodeConstraint(t, dopPhysConstr),
		Params:         decodeParams(t, dopParams, depth),
		ByteSize:       t.optU32(dopByteSize),
	}

	tag, data, ok := t.union(dopSpecificType)
	if !ok {
		return d
	}
	switch tag {
	case dopDataNormal:
		d.CompuMethod = decodeCompuMethod(data, normalCompuMethod)
		d.DiagCodedType = decodeCodedType(data, normalDiagCodedType)
		d.PhysicalType = decodePhysicalType(data, normalPhysicalType)
		d.InternalConstr = decodeConstraint(data, normalInternalConstr)
		d.Unit = decodeUnit(data, normalUnit)
		d.PhysConstr = decodeConstraint(data, normalPhysConstr)
	case dopDataStructure:
		d.Params = decodeParams(data, structParams, depth)
		d.ByteSize = data.optU32(structByteSize)
	case dopDataDtc:
		d.DiagCodedType = decodeCodedType(data, dtcDopDiagCodedType)
		d.PhysicalType = decodePhysicalType(data, dtcDopPhysicalType)
		d.CompuMethod = decodeCompuMethod(data, dtcDopCompuMethod)
	case dopDataEnvData:
		d.Params = decodeParams(data, envDataParams, depth)
	}
	return d
}

func decodePhysicalType(t table, slot int) *ir.PhysicalType {
	pt, ok := t.child(slot)
	if !ok {
		return nil
	}
	return &ir.PhysicalType{
		BaseDataType: ir.DataType(dataTypes.ir(pt.u8(physBaseDataType), uint8(ir.DataUint32))),
		DisplayRadix: pt.named(radixes, physDisplayRadix, physDisplayRadixName),
		Precision:    pt.optU32(physPrecision),
	}
}

func decodeCodedType(t table, slot int) *ir.DiagCodedType {
	c, ok := t.child(slot)
	if !ok {
		return nil
	}
	d := &ir.DiagCodedType{
		Type:               c.named(codedTypeNames, dctType, dctTypeName),
		BaseDataType:       ir.DataType(dataTypes.ir(c.u8(dctBaseDataType), uint8(ir.DataUint32))),
		BaseTypeEncoding:   c.str(dctBaseTypeEncoding),
		IsHighLowByteOrder: c.flag(dctHighLowByteOrder),
		BitLength:          c.optU32(dctBitLength),
		BitMask:            c.bytes(dctBitMask),
		IsCondensed:        c.flag(dctCondensed),
		MinLength:          c.optU32(dctMinLength),
		MaxLength:          c.optU32(dctMaxLength),
		Termination:        c.str(dctTerminationName),
		LengthKeyRef:       c.str(dctLengthKeyRef),
	}

	tag, data, ok := c.union(dctSpecificType)
	if !ok {
		return d
	}
	switch tag {
	case lengthLeading:
		d.BitLength = data.optU32(leadingBitLength)
	case lengthMinMax:
		d.MinLength = data.optU32(minMaxMinLength)
		d.MaxLength = data.optU32(minMaxMaxLength)
		if d.Termination == "" {
			d.Termination = data.enumName(terminations, minMaxTermination)
		}
	case lengthParam:
		d.LengthKeyRef = nameOf(data, paramLengthKey, paramShortName)
	case lengthStandard:
		d.BitLength = data.optU32(standardBitLength)
		d.BitMask = data.bytes(standardBitMask)
		d.IsCondensed = data.flag(standardCondensed)
	}
	return d
}

func decodeCompuMethod(t table, slot int) *ir.CompuMethod {
	c, ok := t.child(slot)
	if !ok {
		return nil
	}
	m := &ir.CompuMethod{Category: c.named(compuCategories, compuCategory, compuCategoryName)}
	if tp, ok := c.child(compuInternalToPhys); ok {
		m.InternalToPhys = decodeEach(tp.tables(toPhysScales), decodeCompuScale)
		if def, ok := tp.child(toPhysDefault); ok {
			m.DefaultValue = decodeCompuValues(def, defaultValues)
		}
	}
	if ti, ok := c.child(compuPhysToInternal); ok {
		m.PhysToInternal = decodeEach(ti.tables(toInternalScales), decodeCompuScale)
	}
	return m
}

func decodeCompuScale(t table) ir.CompuScale {
	s := ir.CompuScale{
		ShortLabel:   optText(t, scaleShortLabel),
		LowerLimit:   decodeLimit(t, scaleLowerLimit),
		UpperLimit:   decodeLimit(t, scaleUpperLimit),
		InverseValue: decodeCompuValues(t, scaleInverseValue),
		Const:        decodeCompuValues(t, scaleConst),
	}
	if co, ok := t.child(scaleRationalCoEffs); ok {
		s.Numerators = co.float64s(coEffsNumerator)
		s.Denominators = co.float64s(coEffsDenominator)
	}
	return s
}

func decodeCompuValues(t table, slot int) *ir.CompuValues {
	c, ok := t.child(slot)
	if !ok {
		return nil
	}
	return &ir.CompuValues{V: c.optF64(valuesV), VT: c.str(valuesVT), VTTI: c.str(valuesVTTI)}
}

func decodeLimit(t table, slot int) *ir.Limit {
	c, ok := t.child(slot)
	if !ok {
		return nil
	}
	return &ir.Limit{
		Value:        c.str(limitValue),
		IntervalType: c.named(intervalTypes, limitIntervalType, limitIntervalTypeName),
	}
}

func decodeConstraint(t table, slot int) *ir.Constraint {
	c, ok := t.child(slot)
	if !ok {
		return nil
	}
	return &ir.Constraint{
		LowerLimit: decodeLimit(c, constrLowerLimit),
		UpperLimit: decodeLimit(c, constrUpperLimit),
		ScaleConstrs: decodeEach(c.tables(constrScaleConstrs), func(s table) ir.ScaleConstr {
			return ir.ScaleConstr{
				ShortLabel: optText(s, scaleConstrShortLabel),
				LowerLimit: decodeLimit(s, scaleConstrLowerLimit),
				UpperLimit: decodeLimit(s, scaleConstrUpperLimit),
				Validity:   s.named(validities, scaleConstrValidity, scaleConstrValidityName),
			}
		}),
	}
}

func decodeUnit(t table, slot int) *ir.Unit {
	c, ok := t.child(slot)
	if !ok {
		return nil
	}
	u := &ir.Unit{
		ShortName:      c.str(unitShortName),
		DisplayName:    c.str(unitDisplayName),
		FactorSIToUnit: c.optF64(unitFactorSIToUnit),
		OffsetSIToUnit: c.optF64(unitOffsetSIToUnit),
	}
	if pd, ok := c.child(unitPhysicalDimension); ok {
		u.PhysicalDimension = &ir.PhysicalDimension{
			ShortName:            pd.str(dimShortName),
			LengthExp:            pd.optI32(dimLengthExp),
			MassExp:              pd.optI32(dimMassExp),
			TimeExp:              pd.optI32(dimTimeExp),
			CurrentExp:           pd.optI32(dimCurrentExp),
			TemperatureExp:       pd.optI32(dimTemperatureExp),
			MolarAmountExp:       pd.optI32(dimMolarAmountExp),
			LuminousIntensityExp: pd.optI32(dimLuminousIntensityExp),
		}
	}
	return u
}

func decodeStateChart(t table) ir.StateChart {
	return ir.StateChart{
		ShortName:  t.str(chartShortName),
		Semantic:   t.str(chartSemantic),
		StartState: t.str(chartStartState),
		States: decodeEach(t.tables(chartStates), func(s table) ir.State {
			return ir.State{ShortName: s.str(stateShortName), LongName: optText(s, stateLongName)}
		}),
		Transitions: decodeEach(t.tables(chartTransitions), func(tr table) ir.StateTransition {
			return ir.StateTransition{
				ShortName: tr.str(transitionShortName),
				Source:    tr.str(transitionSource),
				Target:    tr.str(transitionTarget),
			}
		}),
	}
}

func decodePattern(t table) ir.VariantPattern {
	return ir.VariantPattern{
		MatchingParameters: decodeEach(t.tables(patternMatchingParameters), func(m table) ir.MatchingParameter {
			mp := ir.MatchingParameter{
				OutParam:              nameOf(m, matchOutParam, paramShortName),
				ExpectedValue:         m.str(matchExpectedValue),
				UsePhysicalAddressing: m.optBool(matchUsePhysicalAddressing),
			}
			if s, ok := m.child(matchDiagService); ok {
				mp.DiagService = nameOf(s, serviceDiagComm, commShortName)
			}
			return mp
		}),
	}
}

func decodeDtc(t table) ir.Dtc {
	d := ir.Dtc{
		ShortName:          t.str(dtcShortName),
		TroubleCode:        t.u32(dtcTroubleCode),
		DisplayTroubleCode: t.str(dtcDisplayTroubleCode),
		Level:              t.optU32(dtcLevel),
		IsTemporary:        t.flag(dtcIsTemporary),
	}
	if first, ok := t.child(dtcText); ok {
		d.Texts = append([]ir.Text{decodeText(first)}, decodeEach(t.tables(dtcTexts), decodeText)...)
	}
	return d
}

func decodeMemory(t table) *ir.MemoryConfig {
	m := &ir.MemoryConfig{
		Regions: decodeEach(t.tables(memoryRegions), func(r table) ir.MemoryRegion {
			return ir.MemoryRegion{
				Name:          r.str(regionName),
				Description:   r.str(regionDescription),
				StartAddress:  r.u64(regionStartAddress),
				Size:          r.u64(regionSize),
				Access:        r.named(memoryAccesses, regionAccess, regionAccessName),
				SecurityLevel: r.str(regionSecurityLevel),
				Sessions:      r.strs(regionSessions),
			}
		}),
		DataBlocks: decodeEach(t.tables(memoryDataBlocks), func(b table) ir.DataBlock {
			return ir.DataBlock{
				Name:           b.str(blockName),
				Type:           b.named(blockTypes, blockType, blockTypeName),
				MemoryAddress:  b.u64(blockMemoryAddress),
				MemorySize:     b.u64(blockMemorySize),
				Format:         b.named(blockFormats, blockFormat, blockFormatName),
				MaxBlockLength: b.optU32(blockMaxBlockLength),
				Session:        b.str(blockSession),
				ChecksumType:   b.str(blockChecksumType),
			}
		}),
	}
	if f, ok := t.child(memoryAddressFormat); ok {
		m.DefaultAddressFormat = ir.AddressFormat{
			AddressBytes: f.u32(addrFormatAddressBytes),
			LengthBytes:  f.u32(addrFormatLengthBytes),
		}
	}
	return m
}
