package odx

import (
	"encoding/hex"
	"strings"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
)

// dictionary collects every DOP-BASE of a layer and the DTCs of its
// DTC-DOPs. DTCs are deduplicated by trouble code within the layer.
func (b *builder) dictionary(layerName string, dd *dataDictionary) ([]ir.Dop, []ir.Dtc) {
	var (
		dops []ir.Dop
		dtcs []ir.Dtc
	)
	seen := make(map[uint32]string)
	for i := range items(dd.DtcDops) {
		d := &(*dd.DtcDops)[i]
		subject := layerName + "." + clean(d.ShortName)
		dops = append(dops, ir.Dop{
			ShortName:     clean(d.ShortName),
			Kind:          ir.DopDtc,
			DiagCodedType: b.codedType(d.DiagCodedType, subject),
			PhysicalType:  b.physicalType(d.PhysicalType, subject),
			CompuMethod:   b.compuMethod(d.CompuMethod, subject),
		})
		for j := range items(d.Dtcs) {
			t := b.dtc(&(*d.Dtcs)[j], subject)
			if prev, dup := seen[t.TroubleCode]; dup {
				b.warn(diag.OdxDuplicateDtc, subject, "DTC %s repeats trouble code 0x%06X of %s, keeping the first", t.ShortName, t.TroubleCode, prev)
				continue
			}
			seen[t.TroubleCode] = t.ShortName
			dtcs = append(dtcs, t)
		}
	}
	for _, d := range items(dd.EnvDataDescs) {
		dops = append(dops, ir.Dop{ShortName: clean(d.ShortName), Kind: ir.DopEnvDataDesc})
	}
	for i := range items(dd.DataObjectProps) {
		dops = append(dops, b.dataObjectProp(layerName, &(*dd.DataObjectProps)[i]))
	}
	for i := range items(dd.Structures) {
		s := &(*dd.Structures)[i]
		dops = append(dops, b.structure(layerName, s, ir.DopStructure))
	}
	for _, group := range []struct {
		list *[]field
		kind ir.DopKind
	}{
		{dd.StaticFields, ir.DopStaticField},
		{dd.DynamicLengthFields, ir.DopDynamicLengthField},
		{dd.EndOfPduFields, ir.DopEndOfPduField},
	} {
		for i := range items(group.list) {
			dops = append(dops, b.field(layerName, &(*group.list)[i], group.kind))
		}
	}
	for _, m := range items(dd.Muxs) {
		dops = append(dops, ir.Dop{ShortName: clean(m.ShortName), Kind: ir.DopMux})
	}
	for i := range items(dd.EnvDatas) {
		dops = append(dops, b.structure(layerName, &(*dd.EnvDatas)[i], ir.DopEnvData))
	}
	return dops, dtcs
}

func (b *builder) dataObjectProp(layerName string, d *dataObjectProp) ir.Dop {
	subject := layerName + "." + clean(d.ShortName)
	return ir.Dop{
		ShortName:      clean(d.ShortName),
		Kind:           ir.DopRegular,
		DiagCodedType:  b.codedType(d.DiagCodedType, subject),
		PhysicalType:   b.physicalType(d.PhysicalType, subject),
		CompuMethod:    b.compuMethod(d.CompuMethod, subject),
		Unit:           b.unit(d.UnitRef, subject),
		InternalConstr: constraintOf(d.InternalConstr),
		PhysConstr:     constraintOf(d.PhysConstr),
	}
}

func (b *builder) structure(layerName string, s *structure, kind ir.DopKind) ir.Dop {
	subject := layerName + "." + clean(s.ShortName)
	return ir.Dop{
		ShortName: clean(s.ShortName),
		Kind:      kind,
		Params:    b.params(items(s.Params), subject),
		ByteSize:  b.u32(s.ByteSize, subject, "BYTE-SIZE"),
	}
}

// field flattens a field onto the params of its basic structure.
func (b *builder) field(layerName string, f *field, kind ir.DopKind) ir.Dop {
	subject := layerName + "." + clean(f.ShortName)
	out := ir.Dop{ShortName: clean(f.ShortName), Kind: kind}
	if f.BasicStructureRef == nil {
		return out
	}
	s, ok := b.ix.structures[f.BasicStructureRef.IDRef]
	if !ok {
		b.warn(diag.OdxUnknownIDRef, subject, "unknown basic structure %q", f.BasicStructureRef.IDRef)
		return out
	}
	out.Params = b.params(items(s.Params), subject)
	out.ByteSize = b.u32(s.ByteSize, subject, "BYTE-SIZE")
	return out
}

func (b *builder) params(in []param, owner string) []ir.Param {
	if len(in) == 0 {
		return nil
	}
	out := make([]ir.Param, 0, len(in))
	for i := range in {
		out = append(out, b.param(&in[i], owner))
	}
	return out
}

func (b *builder) param(p *param, owner string) ir.Param {
	name := clean(p.ShortName)
	subject := owner + "." + name
	return ir.Param{
		ShortName:            name,
		Semantic:             clean(p.Semantic),
		Type:                 b.paramType(string(p.Type), subject),
		BytePosition:         b.u32(p.BytePosition, subject, "BYTE-POSITION"),
		BitPosition:          b.u32(p.BitPosition, subject, "BIT-POSITION"),
		CodedValue:           clean(p.CodedValue),
		CodedValues:          cleanAll(items(p.CodedValues)),
		PhysicalDefaultValue: clean(p.PhysicalDefaultValue),
		PhysConstantValue:    clean(p.PhysConstantValue),
		DiagCodedType:        b.codedType(p.DiagCodedType, subject),
		BitLength:            b.u32(p.BitLength, subject, "BIT-LENGTH"),
		RequestBytePos:       b.i32(p.RequestBytePos, subject, "REQUEST-BYTE-POS"),
		MatchByteLength:      b.u32(firstNonEmpty(p.ByteLength, p.MatchByteLength), subject, "BYTE-LENGTH"),
		DopRef:               b.dopRef(p.DopRef, p.DopSnref, subject),
	}
}

func (b *builder) paramType(xsi, subject string) ir.ParamType {
	xsi = clean(xsi)
	if xsi == "" {
		return ir.ParamValue
	}
	if t, err := ir.ParseParamType(xsi); err == nil {
		return t
	}
	b.warn(diag.OdxUnknownParamType, subject, "param type %q treated as VALUE", xsi)
	return ir.ParamTypeFromXSI(xsi)
}

// dopRef names the DOP a param points at. DOP-REF goes through the ID index,
// DOP-SNREF is already a short-name. The binding itself is the resolver's.
func (b *builder) dopRef(ref *link, sn *snref, subject string) string {
	if ref != nil {
		if name, ok := b.ix.dops[ref.IDRef]; ok {
			return name
		}
		b.warn(diag.OdxUnknownIDRef, subject, "unknown DOP %q", ref.IDRef)
		return ref.IDRef
	}
	return snrefName(sn)
}

func (b *builder) dataType(s string, def ir.DataType, subject string) ir.DataType {
	s = clean(s)
	if s == "" {
		return def
	}
	dt, err := ir.ParseDataType(s)
	if err != nil {
		b.warn(diag.OdxBadEnum, subject, "%v, using %s", err, def)
		return def
	}
	return dt
}

func (b *builder) codedType(t *diagCodedType, subject string) *ir.DiagCodedType {
	if t == nil {
		return nil
	}
	typ := clean(string(t.Type))
	if typ == "" {
		typ = "STANDARD-LENGTH-TYPE"
	}
	out := &ir.DiagCodedType{
		Type:               typ,
		BaseDataType:       b.dataType(t.BaseDataType, ir.DataUint32, subject),
		BaseTypeEncoding:   clean(t.BaseTypeEncoding),
		IsHighLowByteOrder: !isFalse(t.IsHighLowByteOrder),
		BitLength:          b.u32(t.BitLength, subject, "BIT-LENGTH"),
		BitMask:            b.hexBytes(t.BitMask, subject),
		IsCondensed:        isTrue(t.IsCondensed),
		MinLength:          b.u32(t.MinLength, subject, "MIN-LENGTH"),
		MaxLength:          b.u32(t.MaxLength, subject, "MAX-LENGTH"),
		Termination:        firstNonEmpty(t.Termination, t.TerminationElement),
	}
	if t.LengthKeyRef != nil {
		out.LengthKeyRef = t.LengthKeyRef.IDRef
	}
	return out
}

// hexBytes decodes a BIT-MASK. An odd digit count is left-padded.
func (b *builder) hexBytes(s, subject string) []byte {
	s = clean(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		b.warn(diag.OdxBadNumber, subject, "BIT-MASK %q is not hex", s)
		return nil
	}
	return out
}

func (b *builder) physicalType(p *physicalType, subject string) *ir.PhysicalType {
	if p == nil {
		return nil
	}
	return &ir.PhysicalType{
		BaseDataType: b.dataType(p.BaseDataType, ir.DataFloat64, subject),
		DisplayRadix: clean(p.DisplayRadix),
		Precision:    b.u32(p.Precision, subject, "PRECISION"),
	}
}

func (b *builder) compuMethod(c *compuMethod, subject string) *ir.CompuMethod {
	if c == nil {
		return nil
	}
	out := &ir.CompuMethod{Category: clean(c.Category)}
	if itp := c.InternalToPhys; itp != nil {
		out.InternalToPhys = b.compuScales(items(itp.Scales), subject)
		out.DefaultValue = b.compuValues(itp.Default, subject)
	}
	if pti := c.PhysToInternal; pti != nil {
		out.PhysToInternal = b.compuScales(items(pti.Scales), subject)
		if out.DefaultValue == nil {
			out.DefaultValue = b.compuValues(pti.Default, subject)
		}
	}
	return out
}

func (b *builder) compuScales(in []compuScale, subject string) []ir.CompuScale {
	if len(in) == 0 {
		return nil
	}
	out := make([]ir.CompuScale, 0, len(in))
	for i := range in {
		s := &in[i]
		cs := ir.CompuScale{
			ShortLabel:   irText(s.ShortLabel),
			LowerLimit:   limitOf(s.LowerLimit),
			UpperLimit:   limitOf(s.UpperLimit),
			InverseValue: b.compuValues(s.InverseValue, subject),
			Const:        b.compuValues(s.Const, subject),
		}
		if r := s.Rational; r != nil {
			cs.Numerators = b.floats(items(r.Numerators), subject, "COMPU-NUMERATOR")
			cs.Denominators = b.floats(items(r.Denominators), subject, "COMPU-DENOMINATOR")
		}
		out = append(out, cs)
	}
	return out
}

func (b *builder) compuValues(v *compuValues, subject string) *ir.CompuValues {
	if v == nil {
		return nil
	}
	out := &ir.CompuValues{}
	if s := clean(v.V); s != "" {
		out.V = b.f64(s, subject, "V")
		if out.V == nil {
			b.warn(diag.OdxUnknownCompuValue, subject, "compu value %q dropped", s)
		}
	}
	if v.VT != nil {
		out.VT = clean(v.VT.Value)
		out.VTTI = v.VT.TI
	}
	return out
}

func limitOf(l *limit) *ir.Limit {
	if l == nil {
		return nil
	}
	return &ir.Limit{Value: clean(l.Value), IntervalType: clean(l.IntervalType)}
}

func constraintOf(c *constraint) *ir.Constraint {
	if c == nil {
		return nil
	}
	out := &ir.Constraint{
		LowerLimit: limitOf(c.LowerLimit),
		UpperLimit: limitOf(c.UpperLimit),
	}
	for _, sc := range items(c.ScaleConstrs) {
		out.ScaleConstrs = append(out.ScaleConstrs, ir.ScaleConstr{
			ShortLabel: irText(sc.ShortLabel),
			LowerLimit: limitOf(sc.LowerLimit),
			UpperLimit: limitOf(sc.UpperLimit),
			Validity:   clean(sc.Validity),
		})
	}
	return out
}

func (b *builder) unit(ref *link, subject string) *ir.Unit {
	if ref == nil {
		return nil
	}
	u, ok := b.ix.units[ref.IDRef]
	if !ok {
		b.warn(diag.OdxUnknownIDRef, subject, "unknown unit %q", ref.IDRef)
		return nil
	}
	out := &ir.Unit{
		ShortName:      clean(u.ShortName),
		DisplayName:    clean(u.DisplayName),
		FactorSIToUnit: b.f64(u.FactorSIToUnit, subject, "FACTOR-SI-TO-UNIT"),
		OffsetSIToUnit: b.f64(u.OffsetSIToUnit, subject, "OFFSET-SI-TO-UNIT"),
	}
	if u.PhysicalDimensionRef != nil {
		pd, ok := b.ix.dimensions[u.PhysicalDimensionRef.IDRef]
		if !ok {
			b.warn(diag.OdxUnknownIDRef, subject, "unknown physical dimension %q", u.PhysicalDimensionRef.IDRef)
			return out
		}
		out.PhysicalDimension = &ir.PhysicalDimension{
			ShortName:            clean(pd.ShortName),
			LengthExp:            b.i32(pd.LengthExp, subject, "LENGTH-EXP"),
			MassExp:              b.i32(pd.MassExp, subject, "MASS-EXP"),
			TimeExp:              b.i32(pd.TimeExp, subject, "TIME-EXP"),
			CurrentExp:           b.i32(pd.CurrentExp, subject, "CURRENT-EXP"),
			TemperatureExp:       b.i32(pd.TemperatureExp, subject, "TEMPERATURE-EXP"),
			MolarAmountExp:       b.i32(pd.MolarAmountExp, subject, "MOLAR-AMOUNT-EXP"),
			LuminousIntensityExp: b.i32(pd.LuminousIntensityExp, subject, "LUMINOUS-INTENSITY-EXP"),
		}
	}
	return out
}

func (b *builder) dtc(d *dtc, subject string) ir.Dtc {
	out := ir.Dtc{
		ShortName:          clean(d.ShortName),
		DisplayTroubleCode: clean(d.DisplayTroubleCode),
		Level:              b.u32(d.Level, subject, "LEVEL"),
		IsTemporary:        isTrue(d.IsTemporary),
	}
	if code := b.u32(d.TroubleCode, subject+"."+out.ShortName, "TROUBLE-CODE"); code != nil {
		out.TroubleCode = *code
	}
	for i := range d.Texts {
		out.Texts = append(out.Texts, *irText(&d.Texts[i]))
	}
	return out
}
