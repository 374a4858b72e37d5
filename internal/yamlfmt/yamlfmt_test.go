package yamlfmt

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"diagconv/internal/ir"
)

func ptr[T any](v T) *T { return &v }

func sampleDB() *ir.DiagDatabase {
	vin := &ir.Dop{
		ShortName: "DOP_VIN",
		DiagCodedType: &ir.DiagCodedType{
			Type:               "STANDARD-LENGTH-TYPE",
			BaseDataType:       ir.DataASCIIString,
			IsHighLowByteOrder: true,
			BitLength:          ptr[uint32](136),
			BitMask:            ir.HexBytes{0x00, 0xFF},
		},
		PhysicalType: &ir.PhysicalType{BaseDataType: ir.DataUnicode2String},
		CompuMethod:  &ir.CompuMethod{Category: "IDENTICAL"},
	}
	readVIN := ir.DiagService{
		ShortName:      "ReadVIN",
		Semantic:       "IDENTIFICATION",
		IsExecutable:   true,
		Addressing:     ir.AddressingFunctionalOrPhysical,
		FunctClassRefs: []string{"Ident"},
		Request: &ir.Request{ShortName: "RQ_ReadVIN", Params: []ir.Param{
			{ShortName: "SID", Type: ir.ParamCodedConst, BytePosition: ptr[uint32](0), CodedValue: "34"},
		}},
		PosResponses: []ir.Response{{ShortName: "PR_ReadVIN", Params: []ir.Param{
			{ShortName: "VIN", Type: ir.ParamValue, BytePosition: ptr[uint32](3), DopRef: "DOP_VIN", Dop: vin},
		}}},
		NegResponses: []ir.Response{{ShortName: "NR", Kind: ir.ResponseNegative}},
	}
	return &ir.DiagDatabase{
		EcuName:  "ECU",
		Version:  "1.4",
		Revision: "B.2",
		Metadata: map[string]string{"supplier": "ACME", "schema": "x"},
		Variants: []ir.Variant{
			{
				DiagLayer: ir.DiagLayer{
					ShortName:    "ECU_Base",
					FunctClasses: []ir.FunctClass{{ShortName: "Ident"}},
					DiagServices: []ir.DiagService{readVIN},
				},
				IsBaseVariant: true,
			},
			{
				DiagLayer: ir.DiagLayer{ShortName: "ECU_A", DiagServices: []ir.DiagService{readVIN}},
				ParentRefs: []ir.ParentRef{{
					ShortName:             "ECU_Base",
					Kind:                  ir.LayerBaseVariant,
					Priority:              ptr[int32](2),
					NotInheritedDiagComms: []string{"EcuReset"},
				}},
				VariantPatterns: []ir.VariantPattern{{MatchingParameters: []ir.MatchingParameter{
					{DiagService: "ReadVIN", OutParam: "VIN", ExpectedValue: "WVW", UsePhysicalAddressing: ptr(false)},
				}}},
			},
		},
		Dtcs: []ir.Dtc{{ShortName: "P0100", TroubleCode: 0x100, Level: ptr[uint32](2), Texts: []ir.Text{{Value: "MAF", TI: "T1"}}}},
		Memory: &ir.MemoryConfig{
			DefaultAddressFormat: ir.AddressFormat{AddressBytes: 4, LengthBytes: 2},
			Regions:              []ir.MemoryRegion{{Name: "flash", StartAddress: 0x8000, Size: 0x1000, Sessions: []string{"prog"}}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	db := sampleDB()
	out, err := Marshal(db)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.HasPrefix(string(out), "schema: "+SchemaID+"\n") {
		t.Fatalf("output does not start with the schema id:\n%s", out)
	}
	if !strings.Contains(string(out), `bit_mask: 00FF`) && !strings.Contains(string(out), `bit_mask: "00FF"`) {
		t.Fatalf("bit mask not written as hex:\n%s", out)
	}
	got, err := Unmarshal(out)
	if err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if diff := cmp.Diff(db, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	const doc = `schema: diagconv/v1
ecu:
  name: ECU
variants:
  - diag_layer:
      short_name: V
      colour: red
`
	_, err := Unmarshal([]byte(doc))
	var sve *SchemaValidationError
	if !errors.As(err, &sve) {
		t.Fatalf("err = %v, want SchemaValidationError", err)
	}
	if sve.Line != 7 || !strings.Contains(sve.Msg, "colour") {
		t.Fatalf("error = %+v", sve)
	}
}

func TestSchemaChecks(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
		line int
	}{
		{
			name: "missing schema",
			doc:  "ecu:\n  name: E\n",
			path: "schema",
			line: 1,
		},
		{
			name: "wrong schema",
			doc:  "schema: other/v9\necu:\n  name: E\n",
			path: "schema",
			line: 1,
		},
		{
			name: "missing ecu name",
			doc:  "schema: diagconv/v1\necu:\n  version: \"1\"\n",
			path: "ecu.name",
			line: 3,
		},
		{
			name: "variant without short name",
			doc:  "schema: diagconv/v1\necu:\n  name: E\nvariants:\n  - diag_layer:\n      long_name:\n        value: x\n",
			path: "variants[0].diag_layer.short_name",
			line: 6,
		},
		{
			name: "bad param type",
			doc: `schema: diagconv/v1
ecu:
  name: E
variants:
  - diag_layer:
      short_name: V
      diag_services:
        - short_name: S
          request:
            params:
              - short_name: P
                type: CODED-KONST
`,
			path: "variants[0].diag_layer.diag_services[0].request.params[0].type",
			line: 12,
		},
		{
			name: "bad parent kind",
			doc: `schema: diagconv/v1
ecu:
  name: E
variants:
  - diag_layer:
      short_name: V
    parent_refs:
      - short_name: B
        kind: GRANDPARENT
`,
			path: "variants[0].parent_refs[0].kind",
			line: 9,
		},
		{
			name: "bad data type",
			doc: `schema: diagconv/v1
ecu:
  name: E
variants:
  - diag_layer:
      short_name: V
      diag_services:
        - short_name: S
          request:
            params:
              - short_name: P
                type: VALUE
                diag_coded_type:
                  type: STANDARD-LENGTH-TYPE
                  base_data_type: A_UINT128
`,
			path: "variants[0].diag_layer.diag_services[0].request.params[0].diag_coded_type.base_data_type",
			line: 15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.doc))
			var sve *SchemaValidationError
			if !errors.As(err, &sve) {
				t.Fatalf("err = %v, want SchemaValidationError", err)
			}
			if sve.Path != tt.path || sve.Line != tt.line {
				t.Fatalf("error at %s line %d, want %s line %d (%v)", sve.Path, sve.Line, tt.path, tt.line, err)
			}
		})
	}
}

func TestEmptyAndMalformed(t *testing.T) {
	if _, err := Unmarshal(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty: err = %v", err)
	}
	_, err := Unmarshal([]byte("schema: [unclosed\n"))
	if err == nil {
		t.Fatalf("malformed YAML accepted")
	}
	var sve *SchemaValidationError
	if errors.As(err, &sve) {
		t.Fatalf("syntax error reported as schema error: %v", err)
	}
}

func TestMinimalDocument(t *testing.T) {
	db, err := Read(strings.NewReader("schema: diagconv/v1\necu:\n  name: Solo\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(&ir.DiagDatabase{EcuName: "Solo"}, db); diff != "" {
		t.Fatalf("db (-want +got):\n%s", diff)
	}
}
