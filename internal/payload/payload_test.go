package payload

import (
	"errors"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"diagconv/internal/ir"
)

func ptr[T any](v T) *T { return &v }

func richDB() *ir.DiagDatabase {
	u8 := &ir.Dop{
		ShortName:     "DOP_U8",
		DiagCodedType: &ir.DiagCodedType{Type: "STANDARD-LENGTH-TYPE", BaseDataType: ir.DataUint32, BitLength: ptr[uint32](8), BitMask: []byte{0xF0}},
		PhysicalType:  &ir.PhysicalType{BaseDataType: ir.DataFloat64, Precision: ptr[uint32](0)},
		CompuMethod: &ir.CompuMethod{
			Category: "LINEAR",
			InternalToPhys: []ir.CompuScale{{
				LowerLimit:   &ir.Limit{Value: "0", IntervalType: "CLOSED"},
				Numerators:   []float64{-40, 1},
				Denominators: []float64{1},
				Const:        &ir.CompuValues{V: ptr(0.0)},
			}},
			DefaultValue: &ir.CompuValues{VT: "n/a", VTTI: "TI_NA"},
		},
		Unit: &ir.Unit{
			ShortName:         "degC",
			FactorSIToUnit:    ptr(1.0),
			OffsetSIToUnit:    ptr(-273.15),
			PhysicalDimension: &ir.PhysicalDimension{ShortName: "Temp", TemperatureExp: ptr[int32](1), MassExp: ptr[int32](0)},
		},
		InternalConstr: &ir.Constraint{
			UpperLimit:   &ir.Limit{Value: "255"},
			ScaleConstrs: []ir.ScaleConstr{{ShortLabel: &ir.Text{Value: "invalid"}, Validity: "NOT-VALID"}},
		},
		ByteSize: ptr[uint32](1),
	}
	structure := &ir.Dop{
		ShortName: "STRUCT_Temp",
		Kind:      ir.DopStructure,
		Params:    []ir.Param{{ShortName: "Raw", Type: ir.ParamValue, DopRef: "DOP_U8", Dop: u8.Clone()}},
	}
	return &ir.DiagDatabase{
		Version:  "1.0.0",
		EcuName:  "ECM1",
		Revision: "3",
		Metadata: map[string]string{"source": "unit", "author": "x"},
		Variants: []ir.Variant{
			{
				IsBaseVariant: true,
				DiagLayer: ir.DiagLayer{
					ShortName:    "BV_ECM1",
					LongName:     &ir.Text{Value: "Engine", TI: "TI_1"},
					FunctClasses: []ir.FunctClass{{ShortName: "Ident"}},
					ComParamRefs: []ir.ComParamRef{{ShortName: "CP_Baud", SimpleValue: "500000", Protocol: "UDS"}},
					DiagServices: []ir.DiagService{{
						ShortName:        "ReadTemp",
						Addressing:       ir.AddressingFunctional,
						TransmissionMode: ir.TransmissionSendOnly,
						IsExecutable:     true,
						Audience:         &ir.Audience{Enabled: []string{"Workshop"}, IsAfterSales: true},
						FunctClassRefs:   []string{"Ident"},
						Request: &ir.Request{ShortName: "RQ", Params: []ir.Param{{
							ShortName:      "SID",
							Type:           ir.ParamCodedConst,
							BytePosition:   ptr[uint32](0),
							BitPosition:    ptr[uint32](0),
							CodedValue:     "0x22",
							DiagCodedType:  &ir.DiagCodedType{Type: "STANDARD-LENGTH-TYPE", BitLength: ptr[uint32](8)},
							RequestBytePos: ptr[int32](-1),
						}}},
						PosResponses: []ir.Response{{ShortName: "PR", Params: []ir.Param{{ShortName: "Temp", Type: ir.ParamValue, DopRef: "STRUCT_Temp", Dop: structure}}}},
						NegResponses: []ir.Response{{ShortName: "NR", Kind: ir.ResponseNegative, Params: []ir.Param{{ShortName: "Missing", DopRef: "nope", DopUnresolved: true}}}},
					}},
					SingleEcuJobs: []ir.SingleEcuJob{{
						ShortName:    "FlashJob",
						ProgCodes:    []ir.ProgCode{{CodeFile: "flash.jar", Syntax: "JAR", EntryPoint: "Main", Libraries: []ir.Library{{ShortName: "L", CodeFile: "lib.jar"}}}},
						OutputParams: []ir.JobParam{{ShortName: "Out", DopRef: "DOP_U8", Dop: u8}},
					}},
					StateCharts: []ir.StateChart{{
						ShortName:   "Session",
						StartState:  "Default",
						States:      []ir.State{{ShortName: "Default"}, {ShortName: "Extended", LongName: &ir.Text{}}},
						Transitions: []ir.StateTransition{{ShortName: "T1", Source: "Default", Target: "Extended"}},
					}},
					AdditionalAudiences: []ir.AdditionalAudience{{ShortName: "Workshop"}},
				},
			},
			{
				DiagLayer:       ir.DiagLayer{ShortName: "EV_ECM1_A"},
				VariantPatterns: []ir.VariantPattern{{MatchingParameters: []ir.MatchingParameter{{DiagService: "ReadId", OutParam: "Id", ExpectedValue: "0x10", UsePhysicalAddressing: ptr(false)}}}},
				ParentRefs:      []ir.ParentRef{{ShortName: "BV_ECM1", Kind: ir.LayerBaseVariant, Priority: ptr[int32](0), NotInheritedDiagComms: []string{"X"}}},
			},
		},
		FunctionalGroups: []ir.FunctionalGroup{{DiagLayer: ir.DiagLayer{ShortName: "FG_All"}, ParentRefs: []ir.ParentRef{{ShortName: "PR_UDS"}}}},
		Dtcs:             []ir.Dtc{{ShortName: "P0100", TroubleCode: 0x0100, DisplayTroubleCode: "P0100", Level: ptr[uint32](0), Texts: []ir.Text{{Value: "Mass air flow"}}}},
		Memory: &ir.MemoryConfig{
			DefaultAddressFormat: ir.AddressFormat{AddressBytes: 4, LengthBytes: 2},
			Regions:              []ir.MemoryRegion{{Name: "Flash", StartAddress: 0x8000_0000, Size: 1 << 20, Sessions: []string{"Programming"}}},
			DataBlocks:           []ir.DataBlock{{Name: "App", MemoryAddress: 0x8000_0000, MemorySize: 4096, MaxBlockLength: ptr[uint32](0xFFF)}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	db := richDB()
	buf := ToPayload(db, "signed")
	got, flags, err := FromPayload(buf)
	if err != nil {
		t.Fatalf("FromPayload: %v", err)
	}
	if diff := cmp.Diff(db, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"signed"}, flags); diff != "" {
		t.Fatalf("feature flags (-want +got):\n%s", diff)
	}
}

func TestRoundTripEmptyCollections(t *testing.T) {
	db := &ir.DiagDatabase{
		EcuName:  "E",
		Metadata: map[string]string{},
		Variants: []ir.Variant{{DiagLayer: ir.DiagLayer{ShortName: "V", DiagServices: []ir.DiagService{}}}},
	}
	got, _, err := FromPayload(ToPayload(db))
	if err != nil {
		t.Fatalf("FromPayload: %v", err)
	}
	if diff := cmp.Diff(db, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestZeroOptionalScalarsKeepPresence(t *testing.T) {
	db := &ir.DiagDatabase{Dtcs: []ir.Dtc{{ShortName: "D", Level: ptr[uint32](0)}, {ShortName: "E"}}}
	got, _, err := FromPayload(ToPayload(db))
	if err != nil {
		t.Fatalf("FromPayload: %v", err)
	}
	if got.Dtcs[0].Level == nil || *got.Dtcs[0].Level != 0 {
		t.Fatalf("level 0 lost: %v", got.Dtcs[0].Level)
	}
	if got.Dtcs[1].Level != nil {
		t.Fatalf("absent level became %d", *got.Dtcs[1].Level)
	}
}

func TestDeterministicOutput(t *testing.T) {
	a := ToPayload(richDB())
	b := ToPayload(richDB())
	if string(a) != string(b) {
		t.Fatalf("two encodings of the same database differ")
	}
}

func TestMalformedPayload(t *testing.T) {
	good := ToPayload(richDB())
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"short", []byte{1, 2, 3}},
		{"bad root", []byte{0xFF, 0xFF, 0xFF, 0x7F, 0, 0, 0, 0}},
		{"truncated", good[:len(good)/3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := FromPayload(tt.buf)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
		})
	}
}

// unionDB exercises every specific_data member and the spellings that only
// fit in the trailing name slots.
func unionDB() *ir.DiagDatabase {
	params := []ir.Param{
		{
			ShortName:   "Nrc",
			Type:        ir.ParamNrcConst,
			CodedValues: []string{"0x11", "0x12"},
			DiagCodedType: &ir.DiagCodedType{
				Type:         "MIN-MAX-LENGTH-TYPE",
				BaseDataType: ir.DataByteField,
				MinLength:    ptr[uint32](1),
				MaxLength:    ptr[uint32](4),
				Termination:  "ZERO",
			},
		},
		{
			ShortName:         "Phys",
			Type:              ir.ParamPhysConst,
			PhysConstantValue: "12",
			Dop: &ir.Dop{
				ShortName:     "D_Dtc",
				Kind:          ir.DopDtc,
				DiagCodedType: &ir.DiagCodedType{Type: "LEADING-LENGTH-INFO-TYPE", BitLength: ptr[uint32](8)},
				PhysicalType:  &ir.PhysicalType{BaseDataType: ir.DataASCIIString, DisplayRadix: "HEX"},
				Unit:          &ir.Unit{ShortName: "u"},
			},
		},
		{
			ShortName: "Sys",
			Type:      ir.ParamSystem,
			Dop: &ir.Dop{
				ShortName: "D_Env",
				Kind:      ir.DopEnvData,
				Params:    []ir.Param{{ShortName: "Inner", Type: ir.ParamReserved, BitLength: ptr[uint32](4)}},
			},
		},
		{ShortName: "Len", Type: ir.ParamLengthKey, Dop: &ir.Dop{ShortName: "D_Mux", Kind: ir.DopMux, ByteSize: ptr[uint32](2)}},
		{ShortName: "Match", Type: ir.ParamMatchingRequestParam, RequestBytePos: ptr[int32](2), MatchByteLength: ptr[uint32](0)},
		{ShortName: "Dyn", Type: ir.ParamDynamic, BytePosition: ptr[uint32](3)},
		{ShortName: "Key", Type: ir.ParamTableKey, CodedValue: "7", DopRef: "TAB"},
		{
			ShortName:            "Odd",
			Type:                 ir.ParamValue,
			PhysicalDefaultValue: "1",
			DiagCodedType:        &ir.DiagCodedType{Type: "PARAM-LENGTH-INFO-TYPE", LengthKeyRef: "Len", Termination: "HEX-FF"},
			Dop: &ir.Dop{
				ShortName: "D_Plain",
				CompuMethod: &ir.CompuMethod{
					Category:       "VENDOR-SPECIFIC",
					PhysToInternal: []ir.CompuScale{{UpperLimit: &ir.Limit{Value: "9", IntervalType: "HALF-OPEN"}}},
				},
				PhysicalType: &ir.PhysicalType{DisplayRadix: "base36"},
				PhysConstr:   &ir.Constraint{ScaleConstrs: []ir.ScaleConstr{{Validity: "MAYBE"}}},
			},
		},
	}
	return &ir.DiagDatabase{
		EcuName: "ECM2",
		Variants: []ir.Variant{{
			DiagLayer: ir.DiagLayer{
				ShortName:    "EV_ECM2",
				ComParamRefs: []ir.ComParamRef{{ShortName: "CP_Timing", ComplexValues: []string{"a", "b"}, ProtStack: "ISO_15765_2"}},
				DiagServices: []ir.DiagService{
					{
						ShortName:             "Ident",
						Semantic:              "IDENTIFICATION",
						DiagnosticClass:       "VARIANTIDENTIFICATION",
						Addressing:            ir.AddressingFunctionalOrPhysical,
						TransmissionMode:      ir.TransmissionSendOrReceive,
						IsMandatory:           true,
						IsFinal:               true,
						IsCyclic:              true,
						IsMultiple:            true,
						PreConditionStateRefs: []string{"Extended"},
						StateTransitionRefs:   []string{"T1"},
						Request:               &ir.Request{Params: params},
						NegResponses:          []ir.Response{{Kind: ir.ResponseGlobalNegative}},
					},
					{ShortName: "Custom", DiagnosticClass: "CUSTOM-CLASS"},
				},
				SingleEcuJobs: []ir.SingleEcuJob{{
					ShortName: "Job",
					LongName:  &ir.Text{Value: "A job"},
					Semantic:  "FLASH",
					Audience:  &ir.Audience{Disabled: []string{"Dealer"}, IsSupplier: true},
					InputParams: []ir.JobParam{{
						ShortName:            "In",
						LongName:             &ir.Text{Value: "input"},
						Semantic:             "DATA",
						PhysicalDefaultValue: "0",
						DopRef:               "MISSING",
						DopUnresolved:        true,
					}},
				}},
			},
			ParentRefs: []ir.ParentRef{
				{ShortName: "EV_Other", Kind: ir.LayerEcuVariant, NotInheritedDops: []string{"D"}},
				{ShortName: "FG_Body", Kind: ir.LayerFunctionalGroup, Priority: ptr[int32](2), NotInheritedTables: []string{"T"}},
				{ShortName: "ES_Shared", Kind: ir.LayerEcuSharedData, NotInheritedGlobalNegResponses: []string{"GNR"}},
			},
		}},
		Dtcs: []ir.Dtc{{
			ShortName:   "U0100",
			TroubleCode: 0xC10000,
			IsTemporary: true,
			Texts:       []ir.Text{{Value: "Lost comm", TI: "TI_A"}, {Value: "Kommunikation"}, {Value: "Comm perdue"}},
		}},
		Memory: &ir.MemoryConfig{
			Regions: []ir.MemoryRegion{
				{Name: "Flash", Description: "program flash", Access: "read_write"},
				{Name: "HSM", Access: "secret"},
			},
			DataBlocks: []ir.DataBlock{
				{Name: "App", Type: "download", Format: "encrypted_compressed", Session: "Programming", ChecksumType: "CRC32"},
				{Name: "Patch", Type: "patch", Format: "lz4"},
			},
		},
	}
}

func TestRoundTripUnionMembers(t *testing.T) {
	db := unionDB()
	got, _, err := FromPayload(ToPayload(db))
	if err != nil {
		t.Fatalf("FromPayload: %v", err)
	}
	if diff := cmp.Diff(db, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWireLayout(t *testing.T) {
	root := rootTable(ToPayload(richDB()))
	layer, ok := root.tables(ecuVariants)[0].child(variantDiagLayer)
	if !ok {
		t.Fatalf("variant has no diag layer")
	}
	svc := layer.tables(layerDiagServices)[0]
	if got := nameOf(svc, serviceDiagComm, commShortName); got != "ReadTemp" {
		t.Fatalf("diag_comm.short_name = %q", got)
	}
	if got := svc.u8(serviceAddressing); got != 0 {
		t.Fatalf("addressing = %d, want 0 (FUNCTIONAL)", got)
	}
	if got := svc.u8(serviceTransmissionMode); got != 0 {
		t.Fatalf("transmission_mode = %d, want 0 (SEND_ONLY)", got)
	}

	req, ok := svc.child(serviceRequest)
	if !ok {
		t.Fatalf("service has no request")
	}
	sid := req.tables(requestParams)[0]
	tag, data, ok := sid.union(paramSpecificType)
	if !ok || tag != paramDataCodedConst {
		t.Fatalf("SID specific_data tag = %d, want CodedConst", tag)
	}
	if got := data.str(codedConstValue); got != "0x22" {
		t.Fatalf("CodedConst.coded_value = %q", got)
	}
	if sid.field(paramCodedValue) != 0 {
		t.Fatalf("coded value also written to the trailing slot")
	}
	if sid.optI32(paramRequestBytePos) == nil {
		t.Fatalf("request byte position missing from the trailing slot")
	}

	resp := svc.tables(servicePosResponses)[0]
	temp := resp.tables(responseParams)[0]
	if got := temp.u8(paramType); got != 11 {
		t.Fatalf("param_type = %d, want 11 (VALUE)", got)
	}
	_, value, _ := temp.union(paramSpecificType)
	dop, ok := value.child(valueDop)
	if !ok {
		t.Fatalf("Value.dop missing")
	}
	if got := dop.u8(dopType); got != 8 {
		t.Fatalf("dop_type = %d, want 8 (STRUCTURE)", got)
	}
	if tag, _, _ := dop.union(dopSpecificType); tag != dopDataStructure {
		t.Fatalf("dop specific_data tag = %d, want Structure", tag)
	}
}

func TestEmptyMetadataStaysPresent(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
	}{
		{"empty", map[string]string{}},
		{"absent", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := FromPayload(ToPayload(&ir.DiagDatabase{EcuName: "E", Metadata: tt.metadata}))
			if err != nil {
				t.Fatalf("FromPayload: %v", err)
			}
			if (got.Metadata == nil) != (tt.metadata == nil) || len(got.Metadata) != 0 {
				t.Fatalf("metadata = %#v, want %#v", got.Metadata, tt.metadata)
			}
		})
	}
}

func offsets(b *flatbuffers.Builder, offs ...flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	b.StartVector(flatbuffers.SizeUOffsetT, len(offs), flatbuffers.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

// TestDecodeOlderLayout feeds tables that end before the trailing slots were
// added. Missing fields must decode as zero values.
func TestDecodeOlderLayout(t *testing.T) {
	b := flatbuffers.NewBuilder(0)

	sidName, coded := b.CreateString("SID"), b.CreateString("0x22")
	b.StartObject(codedConstNumFields)
	b.PrependUOffsetTSlot(codedConstValue, coded, 0)
	codedConst := b.EndObject()
	b.StartObject(paramSpecific + 1)
	b.PrependUOffsetTSlot(paramShortName, sidName, 0)
	b.PrependUint8Slot(paramSpecificType, paramDataCodedConst, 0)
	b.PrependUOffsetTSlot(paramSpecific, codedConst, 0)
	sid := b.EndObject()

	unitName := b.CreateString("degC")
	b.StartObject(unitNumFields)
	b.PrependUOffsetTSlot(unitShortName, unitName, 0)
	unit := b.EndObject()
	b.StartObject(normalNumFields)
	b.PrependUOffsetTSlot(normalUnit, unit, 0)
	normal := b.EndObject()
	dopName := b.CreateString("DOP_T")
	b.StartObject(dopSpecific + 1)
	b.PrependUOffsetTSlot(dopShortName, dopName, 0)
	b.PrependUint8Slot(dopSpecificType, dopDataNormal, 0)
	b.PrependUOffsetTSlot(dopSpecific, normal, 0)
	dop := b.EndObject()
	b.StartObject(valueNumFields)
	b.PrependUOffsetTSlot(valueDop, dop, 0)
	value := b.EndObject()
	tempName := b.CreateString("Temp")
	b.StartObject(paramSpecific + 1)
	b.PrependUint8Slot(paramType, 11, 0)
	b.PrependUOffsetTSlot(paramShortName, tempName, 0)
	b.PrependUint8Slot(paramSpecificType, paramDataValue, 0)
	b.PrependUOffsetTSlot(paramSpecific, value, 0)
	temp := b.EndObject()

	params := offsets(b, sid, temp)
	b.StartObject(requestSdgs + 1)
	b.PrependUOffsetTSlot(requestParams, params, 0)
	request := b.EndObject()
	svcName := b.CreateString("ReadTemp")
	b.StartObject(commIsFinal + 1)
	b.PrependUOffsetTSlot(commShortName, svcName, 0)
	comm := b.EndObject()
	b.StartObject(serviceComParamRefs + 1)
	b.PrependUOffsetTSlot(serviceDiagComm, comm, 0)
	b.PrependUOffsetTSlot(serviceRequest, request, 0)
	b.PrependUint8Slot(serviceAddressing, 1, 0)
	b.PrependUint8Slot(serviceTransmissionMode, 2, 0)
	svc := b.EndObject()

	services := offsets(b, svc)
	layerName := b.CreateString("BV")
	b.StartObject(layerNumFields)
	b.PrependUOffsetTSlot(layerShortName, layerName, 0)
	b.PrependUOffsetTSlot(layerDiagServices, services, 0)
	layer := b.EndObject()
	b.StartObject(variantNumFields)
	b.PrependUOffsetTSlot(variantDiagLayer, layer, 0)
	b.PrependBoolSlot(variantIsBase, true, false)
	variant := b.EndObject()

	maf, dtcName := b.CreateString("Mass air flow"), b.CreateString("P0100")
	b.StartObject(textNumFields)
	b.PrependUOffsetTSlot(textValue, maf, 0)
	text := b.EndObject()
	b.StartObject(dtcLevel + 1)
	b.PrependUOffsetTSlot(dtcShortName, dtcName, 0)
	b.PrependUint32Slot(dtcTroubleCode, 0x0100, 0)
	b.PrependUOffsetTSlot(dtcText, text, 0)
	dtc := b.EndObject()

	variants, dtcs := offsets(b, variant), offsets(b, dtc)
	ecu := b.CreateString("ECM1")
	b.StartObject(ecuDtcs + 1)
	b.PrependUOffsetTSlot(ecuName, ecu, 0)
	b.PrependUOffsetTSlot(ecuVariants, variants, 0)
	b.PrependUOffsetTSlot(ecuDtcs, dtcs, 0)
	b.Finish(b.EndObject())

	got, flags, err := FromPayload(b.FinishedBytes())
	if err != nil {
		t.Fatalf("FromPayload: %v", err)
	}
	want := &ir.DiagDatabase{
		EcuName: "ECM1",
		Variants: []ir.Variant{{
			IsBaseVariant: true,
			DiagLayer: ir.DiagLayer{
				ShortName: "BV",
				DiagServices: []ir.DiagService{{
					ShortName:        "ReadTemp",
					Addressing:       ir.AddressingPhysical,
					TransmissionMode: ir.TransmissionSendAndReceive,
					Request: &ir.Request{Params: []ir.Param{
						{ShortName: "SID", Type: ir.ParamCodedConst, CodedValue: "0x22"},
						{ShortName: "Temp", Type: ir.ParamValue, Dop: &ir.Dop{ShortName: "DOP_T", Unit: &ir.Unit{ShortName: "degC"}}},
					}},
				}},
			},
		}},
		Dtcs: []ir.Dtc{{ShortName: "P0100", TroubleCode: 0x0100, Texts: []ir.Text{{Value: "Mass air flow"}}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("older layout mismatch (-want +got):\n%s", diff)
	}
	if flags != nil {
		t.Fatalf("feature flags = %v, want none", flags)
	}
}
