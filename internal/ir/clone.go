package ir

import (
	"maps"
	"slices"
)

// Clone returns a deep copy of db. Nothing in the result aliases db.
func (db *DiagDatabase) Clone() *DiagDatabase {
	if db == nil {
		return nil
	}
	out := &DiagDatabase{
		Version:  db.Version,
		EcuName:  db.EcuName,
		Revision: db.Revision,
		Metadata: maps.Clone(db.Metadata),
		Dtcs:     cloneEach(db.Dtcs, cloneDtc),
		Memory:   db.Memory.Clone(),
	}
	out.Variants = cloneEach(db.Variants, func(v Variant) Variant { return v.Clone() })
	out.FunctionalGroups = cloneEach(db.FunctionalGroups, func(fg FunctionalGroup) FunctionalGroup {
		return FunctionalGroup{DiagLayer: fg.DiagLayer.Clone(), ParentRefs: cloneEach(fg.ParentRefs, CloneParentRef)}
	})
	return out
}

func (v Variant) Clone() Variant {
	return Variant{
		DiagLayer:       v.DiagLayer.Clone(),
		IsBaseVariant:   v.IsBaseVariant,
		VariantPatterns: cloneEach(v.VariantPatterns, ClonePattern),
		ParentRefs:      cloneEach(v.ParentRefs, CloneParentRef),
	}
}

func (l DiagLayer) Clone() DiagLayer {
	return DiagLayer{
		ShortName:           l.ShortName,
		LongName:            cloneText(l.LongName),
		FunctClasses:        slices.Clone(l.FunctClasses),
		ComParamRefs:        cloneEach(l.ComParamRefs, CloneComParamRef),
		DiagServices:        cloneEach(l.DiagServices, CloneService),
		SingleEcuJobs:       cloneEach(l.SingleEcuJobs, CloneJob),
		StateCharts:         cloneEach(l.StateCharts, CloneStateChart),
		AdditionalAudiences: cloneEach(l.AdditionalAudiences, cloneAdditionalAudience),
	}
}

func CloneParentRef(p ParentRef) ParentRef {
	p.Priority = clonePtr(p.Priority)
	p.NotInheritedDiagComms = slices.Clone(p.NotInheritedDiagComms)
	p.NotInheritedDops = slices.Clone(p.NotInheritedDops)
	p.NotInheritedTables = slices.Clone(p.NotInheritedTables)
	p.NotInheritedGlobalNegResponses = slices.Clone(p.NotInheritedGlobalNegResponses)
	return p
}

func ClonePattern(p VariantPattern) VariantPattern {
	return VariantPattern{MatchingParameters: cloneEach(p.MatchingParameters, func(m MatchingParameter) MatchingParameter {
		m.UsePhysicalAddressing = clonePtr(m.UsePhysicalAddressing)
		return m
	})}
}

func CloneComParamRef(c ComParamRef) ComParamRef {
	c.ComplexValues = slices.Clone(c.ComplexValues)
	return c
}

func CloneService(s DiagService) DiagService {
	s.LongName = cloneText(s.LongName)
	s.Audience = s.Audience.Clone()
	s.FunctClassRefs = slices.Clone(s.FunctClassRefs)
	s.PreConditionStateRefs = slices.Clone(s.PreConditionStateRefs)
	s.StateTransitionRefs = slices.Clone(s.StateTransitionRefs)
	if s.Request != nil {
		s.Request = &Request{ShortName: s.Request.ShortName, Params: cloneEach(s.Request.Params, CloneParam)}
	}
	s.PosResponses = cloneEach(s.PosResponses, cloneResponse)
	s.NegResponses = cloneEach(s.NegResponses, cloneResponse)
	return s
}

func cloneResponse(r Response) Response {
	r.Params = cloneEach(r.Params, CloneParam)
	return r
}

func CloneJob(j SingleEcuJob) SingleEcuJob {
	j.LongName = cloneText(j.LongName)
	j.Audience = j.Audience.Clone()
	j.ProgCodes = cloneEach(j.ProgCodes, func(p ProgCode) ProgCode {
		p.Libraries = slices.Clone(p.Libraries)
		return p
	})
	j.InputParams = cloneEach(j.InputParams, CloneJobParam)
	j.OutputParams = cloneEach(j.OutputParams, CloneJobParam)
	j.NegOutputParams = cloneEach(j.NegOutputParams, CloneJobParam)
	return j
}

func CloneJobParam(p JobParam) JobParam {
	p.LongName = cloneText(p.LongName)
	p.Dop = p.Dop.Clone()
	return p
}

func CloneParam(p Param) Param {
	p.BytePosition = clonePtr(p.BytePosition)
	p.BitPosition = clonePtr(p.BitPosition)
	p.CodedValues = slices.Clone(p.CodedValues)
	p.DiagCodedType = p.DiagCodedType.Clone()
	p.BitLength = clonePtr(p.BitLength)
	p.RequestBytePos = clonePtr(p.RequestBytePos)
	p.MatchByteLength = clonePtr(p.MatchByteLength)
	p.Dop = p.Dop.Clone()
	return p
}

func (d *Dop) Clone() *Dop {
	if d == nil {
		return nil
	}
	out := *d
	out.DiagCodedType = d.DiagCodedType.Clone()
	if d.PhysicalType != nil {
		pt := *d.PhysicalType
		pt.Precision = clonePtr(pt.Precision)
		out.PhysicalType = &pt
	}
	out.CompuMethod = d.CompuMethod.Clone()
	out.Unit = d.Unit.Clone()
	out.InternalConstr = d.InternalConstr.Clone()
	out.PhysConstr = d.PhysConstr.Clone()
	out.Params = cloneEach(d.Params, CloneParam)
	out.ByteSize = clonePtr(d.ByteSize)
	return &out
}

func (t *DiagCodedType) Clone() *DiagCodedType {
	if t == nil {
		return nil
	}
	out := *t
	out.BitLength = clonePtr(t.BitLength)
	out.BitMask = slices.Clone(t.BitMask)
	out.MinLength = clonePtr(t.MinLength)
	out.MaxLength = clonePtr(t.MaxLength)
	return &out
}

func (c *CompuMethod) Clone() *CompuMethod {
	if c == nil {
		return nil
	}
	return &CompuMethod{
		Category:       c.Category,
		InternalToPhys: cloneEach(c.InternalToPhys, cloneScale),
		PhysToInternal: cloneEach(c.PhysToInternal, cloneScale),
		DefaultValue:   c.DefaultValue.Clone(),
	}
}

func cloneScale(s CompuScale) CompuScale {
	s.ShortLabel = cloneText(s.ShortLabel)
	s.LowerLimit = clonePtr(s.LowerLimit)
	s.UpperLimit = clonePtr(s.UpperLimit)
	s.InverseValue = s.InverseValue.Clone()
	s.Const = s.Const.Clone()
	s.Numerators = slices.Clone(s.Numerators)
	s.Denominators = slices.Clone(s.Denominators)
	return s
}

func (v *CompuValues) Clone() *CompuValues {
	if v == nil {
		return nil
	}
	out := *v
	out.V = clonePtr(v.V)
	return &out
}

func (c *Constraint) Clone() *Constraint {
	if c == nil {
		return nil
	}
	return &Constraint{
		LowerLimit: clonePtr(c.LowerLimit),
		UpperLimit: clonePtr(c.UpperLimit),
		ScaleConstrs: cloneEach(c.ScaleConstrs, func(s ScaleConstr) ScaleConstr {
			s.ShortLabel = cloneText(s.ShortLabel)
			s.LowerLimit = clonePtr(s.LowerLimit)
			s.UpperLimit = clonePtr(s.UpperLimit)
			return s
		}),
	}
}

func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	out := *u
	out.FactorSIToUnit = clonePtr(u.FactorSIToUnit)
	out.OffsetSIToUnit = clonePtr(u.OffsetSIToUnit)
	if u.PhysicalDimension != nil {
		pd := *u.PhysicalDimension
		pd.LengthExp = clonePtr(pd.LengthExp)
		pd.MassExp = clonePtr(pd.MassExp)
		pd.TimeExp = clonePtr(pd.TimeExp)
		pd.CurrentExp = clonePtr(pd.CurrentExp)
		pd.TemperatureExp = clonePtr(pd.TemperatureExp)
		pd.MolarAmountExp = clonePtr(pd.MolarAmountExp)
		pd.LuminousIntensityExp = clonePtr(pd.LuminousIntensityExp)
		out.PhysicalDimension = &pd
	}
	return &out
}

func CloneStateChart(sc StateChart) StateChart {
	sc.States = cloneEach(sc.States, func(s State) State {
		s.LongName = cloneText(s.LongName)
		return s
	})
	sc.Transitions = slices.Clone(sc.Transitions)
	return sc
}

func cloneAdditionalAudience(a AdditionalAudience) AdditionalAudience {
	a.LongName = cloneText(a.LongName)
	return a
}

func (a *Audience) Clone() *Audience {
	if a == nil {
		return nil
	}
	out := *a
	out.Enabled = slices.Clone(a.Enabled)
	out.Disabled = slices.Clone(a.Disabled)
	return &out
}

func cloneDtc(d Dtc) Dtc {
	d.Level = clonePtr(d.Level)
	d.Texts = slices.Clone(d.Texts)
	return d
}

// CloneDtc is exported for the resolver, which copies layer DTCs into the database.
func CloneDtc(d Dtc) Dtc { return cloneDtc(d) }

func (m *MemoryConfig) Clone() *MemoryConfig {
	if m == nil {
		return nil
	}
	return &MemoryConfig{
		DefaultAddressFormat: m.DefaultAddressFormat,
		Regions: cloneEach(m.Regions, func(r MemoryRegion) MemoryRegion {
			r.Sessions = slices.Clone(r.Sessions)
			return r
		}),
		DataBlocks: cloneEach(m.DataBlocks, func(b DataBlock) DataBlock {
			b.MaxBlockLength = clonePtr(b.MaxBlockLength)
			return b
		}),
	}
}

func cloneText(t *Text) *Text { return clonePtr(t) }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneEach keeps nil as nil so that cloned values compare equal to originals.
func cloneEach[T any](in []T, fn func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i := range in {
		out[i] = fn(in[i])
	}
	return out
}
