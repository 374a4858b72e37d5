package odx

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
	"diagconv/internal/resolve"
)

const sampleODX = `<?xml version="1.0" encoding="UTF-8"?>
<ODX xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" MODEL-VERSION="2.2.0" VERSION="1.4">
  <DIAG-LAYER-CONTAINER ID="DLC.ECU">
    <SHORT-NAME>ECU</SHORT-NAME>
    <ADMIN-DATA>
      <DOC-REVISIONS>
        <DOC-REVISION><REVISION-LABEL>A.1</REVISION-LABEL></DOC-REVISION>
        <DOC-REVISION><REVISION-LABEL>B.2</REVISION-LABEL></DOC-REVISION>
      </DOC-REVISIONS>
    </ADMIN-DATA>
    <SDGS>
      <SDG SI="diagconv.metadata"><SD SI="supplier">ACME</SD></SDG>
      <SDG SI="other"><SD SI="ignored">x</SD></SDG>
    </SDGS>
    <BASE-VARIANTS>
      <BASE-VARIANT ID="BV.ECU">
        <SHORT-NAME>ECU_Base</SHORT-NAME>
        <FUNCT-CLASSS>
          <FUNCT-CLASS ID="FC.Ident"><SHORT-NAME>Ident</SHORT-NAME></FUNCT-CLASS>
        </FUNCT-CLASSS>
        <DIAG-DATA-DICTIONARY-SPEC>
          <DTC-DOPS>
            <DTC-DOP ID="DOP.DTC">
              <SHORT-NAME>DTC_DOP</SHORT-NAME>
              <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_UINT32"><BIT-LENGTH>24</BIT-LENGTH></DIAG-CODED-TYPE>
              <PHYSICAL-TYPE BASE-DATA-TYPE="A_UINT32"/>
              <COMPU-METHOD><CATEGORY>IDENTICAL</CATEGORY></COMPU-METHOD>
              <DTCS>
                <DTC ID="DTC.P0100">
                  <SHORT-NAME>P0100</SHORT-NAME>
                  <TROUBLE-CODE>256</TROUBLE-CODE>
                  <DISPLAY-TROUBLE-CODE>P0100</DISPLAY-TROUBLE-CODE>
                  <TEXT TI="T.MAF">Mass air flow circuit</TEXT>
                  <LEVEL>2</LEVEL>
                </DTC>
                <DTC ID="DTC.P0100.dup">
                  <SHORT-NAME>P0100_again</SHORT-NAME>
                  <TROUBLE-CODE>0x100</TROUBLE-CODE>
                </DTC>
              </DTCS>
            </DTC-DOP>
          </DTC-DOPS>
          <DATA-OBJECT-PROPS>
            <DATA-OBJECT-PROP ID="DOP.VIN">
              <SHORT-NAME>DOP_VIN</SHORT-NAME>
              <COMPU-METHOD><CATEGORY>IDENTICAL</CATEGORY></COMPU-METHOD>
              <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_ASCIISTRING"><BIT-LENGTH>136</BIT-LENGTH></DIAG-CODED-TYPE>
              <PHYSICAL-TYPE BASE-DATA-TYPE="A_UNICODE2STRING"/>
            </DATA-OBJECT-PROP>
            <DATA-OBJECT-PROP ID="DOP.Temp">
              <SHORT-NAME>DOP_Temp</SHORT-NAME>
              <COMPU-METHOD>
                <CATEGORY>LINEAR</CATEGORY>
                <COMPU-INTERNAL-TO-PHYS>
                  <COMPU-SCALES>
                    <COMPU-SCALE>
                      <LOWER-LIMIT INTERVAL-TYPE="CLOSED">0</LOWER-LIMIT>
                      <COMPU-RATIONAL-COEFFS>
                        <COMPU-NUMERATOR><V>-40</V><V>0.5</V></COMPU-NUMERATOR>
                        <COMPU-DENOMINATOR><V>1</V></COMPU-DENOMINATOR>
                      </COMPU-RATIONAL-COEFFS>
                    </COMPU-SCALE>
                  </COMPU-SCALES>
                </COMPU-INTERNAL-TO-PHYS>
              </COMPU-METHOD>
              <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_UINT32" IS-HIGHLOW-BYTE-ORDER="false"><BIT-LENGTH>8</BIT-LENGTH></DIAG-CODED-TYPE>
              <PHYSICAL-TYPE BASE-DATA-TYPE="A_FLOAT64"/>
              <UNIT-REF ID-REF="UNIT.degC"/>
            </DATA-OBJECT-PROP>
          </DATA-OBJECT-PROPS>
          <UNIT-SPEC>
            <UNITS>
              <UNIT ID="UNIT.degC">
                <SHORT-NAME>degC</SHORT-NAME>
                <DISPLAY-NAME>°C</DISPLAY-NAME>
                <PHYSICAL-DIMENSION-REF ID-REF="PD.temp"/>
              </UNIT>
            </UNITS>
            <PHYSICAL-DIMENSIONS>
              <PHYSICAL-DIMENSION ID="PD.temp"><SHORT-NAME>temperature</SHORT-NAME><TEMPERATURE-EXP>1</TEMPERATURE-EXP></PHYSICAL-DIMENSION>
            </PHYSICAL-DIMENSIONS>
          </UNIT-SPEC>
        </DIAG-DATA-DICTIONARY-SPEC>
        <DIAG-COMMS>
          <DIAG-SERVICE ID="DS.ReadVIN" SEMANTIC="IDENTIFICATION">
            <SHORT-NAME>ReadVIN</SHORT-NAME>
            <FUNCT-CLASS-REFS><FUNCT-CLASS-REF ID-REF="FC.Ident"/></FUNCT-CLASS-REFS>
            <REQUEST-REF ID-REF="RQ.ReadVIN"/>
            <POS-RESPONSE-REFS><POS-RESPONSE-REF ID-REF="PR.ReadVIN"/></POS-RESPONSE-REFS>
            <NEG-RESPONSE-REFS><NEG-RESPONSE-REF ID-REF="NR.Generic"/></NEG-RESPONSE-REFS>
          </DIAG-SERVICE>
          <DIAG-SERVICE ID="DS.ReadTemp" SEMANTIC="DATA" ADDRESSING="FUNCTIONAL">
            <SHORT-NAME>ReadTemp</SHORT-NAME>
            <POS-RESPONSE-REFS><POS-RESPONSE-REF ID-REF="PR.ReadTemp"/></POS-RESPONSE-REFS>
          </DIAG-SERVICE>
          <DIAG-SERVICE ID="DS.Reset">
            <SHORT-NAME>EcuReset</SHORT-NAME>
          </DIAG-SERVICE>
        </DIAG-COMMS>
        <REQUESTS>
          <REQUEST ID="RQ.ReadVIN">
            <SHORT-NAME>RQ_ReadVIN</SHORT-NAME>
            <PARAMS>
              <PARAM xsi:type="CODED-CONST" SEMANTIC="SERVICE-ID">
                <SHORT-NAME>SID</SHORT-NAME>
                <BYTE-POSITION>0</BYTE-POSITION>
                <CODED-VALUE>34</CODED-VALUE>
                <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_UINT32"><BIT-LENGTH>8</BIT-LENGTH></DIAG-CODED-TYPE>
              </PARAM>
              <PARAM xsi:type="CODED-CONST" SEMANTIC="ID">
                <SHORT-NAME>DID</SHORT-NAME>
                <BYTE-POSITION>1</BYTE-POSITION>
                <CODED-VALUE>61840</CODED-VALUE>
                <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_UINT32"><BIT-LENGTH>16</BIT-LENGTH></DIAG-CODED-TYPE>
              </PARAM>
            </PARAMS>
          </REQUEST>
        </REQUESTS>
        <POS-RESPONSES>
          <POS-RESPONSE ID="PR.ReadVIN">
            <SHORT-NAME>PR_ReadVIN</SHORT-NAME>
            <PARAMS>
              <PARAM xsi:type="CODED-CONST" SEMANTIC="SERVICE-ID">
                <SHORT-NAME>SID</SHORT-NAME>
                <BYTE-POSITION>0</BYTE-POSITION>
                <CODED-VALUE>98</CODED-VALUE>
                <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_UINT32"><BIT-LENGTH>8</BIT-LENGTH></DIAG-CODED-TYPE>
              </PARAM>
              <PARAM xsi:type="VALUE" SEMANTIC="DATA">
                <SHORT-NAME>VIN</SHORT-NAME>
                <BYTE-POSITION>3</BYTE-POSITION>
                <DOP-REF ID-REF="DOP.VIN"/>
              </PARAM>
            </PARAMS>
          </POS-RESPONSE>
          <POS-RESPONSE ID="PR.ReadTemp">
            <SHORT-NAME>PR_ReadTemp</SHORT-NAME>
            <PARAMS>
              <PARAM xsi:type="VALUE">
                <SHORT-NAME>Temp</SHORT-NAME>
                <BYTE-POSITION>3</BYTE-POSITION>
                <DOP-SNREF SHORT-NAME="DOP_Temp"/>
              </PARAM>
            </PARAMS>
          </POS-RESPONSE>
        </POS-RESPONSES>
        <NEG-RESPONSES>
          <NEG-RESPONSE ID="NR.Generic">
            <SHORT-NAME>NR_Generic</SHORT-NAME>
            <PARAMS>
              <PARAM xsi:type="NRC-CONST">
                <SHORT-NAME>NRC</SHORT-NAME>
                <BYTE-POSITION>2</BYTE-POSITION>
                <CODED-VALUES><CODED-VALUE>17</CODED-VALUE><CODED-VALUE>18</CODED-VALUE></CODED-VALUES>
                <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_UINT32"><BIT-LENGTH>8</BIT-LENGTH></DIAG-CODED-TYPE>
              </PARAM>
            </PARAMS>
          </NEG-RESPONSE>
        </NEG-RESPONSES>
      </BASE-VARIANT>
    </BASE-VARIANTS>
    <ECU-VARIANTS>
      <ECU-VARIANT ID="EV.ECU_A">
        <SHORT-NAME>ECU_A</SHORT-NAME>
        <PARENT-REFS>
          <PARENT-REF ID-REF="BV.ECU" xsi:type="BASE-VARIANT-REF">
            <NOT-INHERITED-DIAG-COMMS>
              <NOT-INHERITED-DIAG-COMM><DIAG-COMM-SNREF SHORT-NAME="EcuReset"/></NOT-INHERITED-DIAG-COMM>
            </NOT-INHERITED-DIAG-COMMS>
          </PARENT-REF>
        </PARENT-REFS>
        <ECU-VARIANT-PATTERNS>
          <ECU-VARIANT-PATTERN>
            <MATCHING-PARAMETERS>
              <MATCHING-PARAMETER>
                <EXPECTED-VALUE>WVW_A</EXPECTED-VALUE>
                <DIAG-COMM-SNREF SHORT-NAME="ReadVIN"/>
                <OUT-PARAM-IF-SNREF SHORT-NAME="VIN"/>
              </MATCHING-PARAMETER>
            </MATCHING-PARAMETERS>
          </ECU-VARIANT-PATTERN>
        </ECU-VARIANT-PATTERNS>
      </ECU-VARIANT>
    </ECU-VARIANTS>
  </DIAG-LAYER-CONTAINER>
</ODX>
`

func parseSample(t *testing.T) *Result {
	t.Helper()
	res, err := ParseBytes([]byte(sampleODX), Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return res
}

func variant(t *testing.T, db *ir.DiagDatabase, name string) *ir.Variant {
	t.Helper()
	for i := range db.Variants {
		if db.Variants[i].ShortName() == name {
			return &db.Variants[i]
		}
	}
	t.Fatalf("variant %q missing", name)
	return nil
}

func service(t *testing.T, l *ir.DiagLayer, name string) *ir.DiagService {
	t.Helper()
	for i := range l.DiagServices {
		if l.DiagServices[i].ShortName == name {
			return &l.DiagServices[i]
		}
	}
	t.Fatalf("service %q missing in %s", name, l.ShortName)
	return nil
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestParseHeader(t *testing.T) {
	db := parseSample(t).DB
	if db.EcuName != "ECU" || db.Version != "1.4" || db.Revision != "B.2" {
		t.Fatalf("header = %q/%q/%q", db.EcuName, db.Version, db.Revision)
	}
	if diff := cmp.Diff(map[string]string{"supplier": "ACME"}, db.Metadata); diff != "" {
		t.Fatalf("metadata (-want +got):\n%s", diff)
	}
}

func TestInheritedServiceUnchanged(t *testing.T) {
	db := parseSample(t).DB
	if len(db.Variants) != 2 {
		t.Fatalf("got %d variants, want 2", len(db.Variants))
	}
	base := variant(t, db, "ECU_Base")
	ecu := variant(t, db, "ECU_A")
	if !base.IsBaseVariant || ecu.IsBaseVariant {
		t.Fatalf("base flags: %v %v", base.IsBaseVariant, ecu.IsBaseVariant)
	}

	want := service(t, &base.DiagLayer, "ReadVIN")
	got := service(t, &ecu.DiagLayer, "ReadVIN")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inherited ReadVIN differs (-base +ecu):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Ident"}, got.FunctClassRefs); diff != "" {
		t.Fatalf("funct class refs (-want +got):\n%s", diff)
	}
	if got.Request == nil || len(got.Request.Params) != 2 || got.Request.Params[1].CodedValue != "61840" {
		t.Fatalf("request = %+v", got.Request)
	}
	if len(got.NegResponses) != 1 || got.NegResponses[0].Kind != ir.ResponseNegative {
		t.Fatalf("neg responses = %+v", got.NegResponses)
	}
	if diff := cmp.Diff([]string{"17", "18"}, got.NegResponses[0].Params[0].CodedValues); diff != "" {
		t.Fatalf("NRC values (-want +got):\n%s", diff)
	}
}

func TestNotInheritedServiceDropped(t *testing.T) {
	db := parseSample(t).DB
	ecu := variant(t, db, "ECU_A")
	for _, s := range ecu.DiagLayer.DiagServices {
		if s.ShortName == "EcuReset" {
			t.Fatalf("EcuReset inherited despite NOT-INHERITED-DIAG-COMM")
		}
	}
	service(t, &variant(t, db, "ECU_Base").DiagLayer, "EcuReset")

	want := []ir.ParentRef{{
		ShortName:             "ECU_Base",
		Kind:                  ir.LayerBaseVariant,
		NotInheritedDiagComms: []string{"EcuReset"},
	}}
	if diff := cmp.Diff(want, ecu.ParentRefs); diff != "" {
		t.Fatalf("parent refs (-want +got):\n%s", diff)
	}
}

func TestDopBinding(t *testing.T) {
	db := parseSample(t).DB
	ecu := variant(t, db, "ECU_A")

	vin := service(t, &ecu.DiagLayer, "ReadVIN").PosResponses[0].Params[1]
	if vin.DopRef != "DOP_VIN" || vin.Dop == nil {
		t.Fatalf("VIN param not bound: ref=%q dop=%v", vin.DopRef, vin.Dop)
	}
	if vin.Dop.DiagCodedType.BaseDataType != ir.DataASCIIString {
		t.Fatalf("VIN coded type = %s", vin.Dop.DiagCodedType.BaseDataType)
	}
	if vin.Dop.PhysicalType.BaseDataType != ir.DataUnicode2String {
		t.Fatalf("VIN physical type = %s", vin.Dop.PhysicalType.BaseDataType)
	}

	temp := service(t, &ecu.DiagLayer, "ReadTemp")
	if temp.Addressing != ir.AddressingFunctional {
		t.Fatalf("addressing = %s", temp.Addressing)
	}
	dop := temp.PosResponses[0].Params[0].Dop
	if dop == nil {
		t.Fatalf("DOP-SNREF not bound")
	}
	if dop.DiagCodedType.IsHighLowByteOrder {
		t.Fatalf("IS-HIGHLOW-BYTE-ORDER=false ignored")
	}
	if diff := cmp.Diff([]float64{-40, 0.5}, dop.CompuMethod.InternalToPhys[0].Numerators); diff != "" {
		t.Fatalf("numerators (-want +got):\n%s", diff)
	}
	if dop.Unit == nil || dop.Unit.DisplayName != "°C" || dop.Unit.PhysicalDimension == nil {
		t.Fatalf("unit = %+v", dop.Unit)
	}
	if got := dop.Unit.PhysicalDimension.TemperatureExp; got == nil || *got != 1 {
		t.Fatalf("temperature exp = %v", got)
	}
}

func TestDuplicateDtcTroubleCode(t *testing.T) {
	res := parseSample(t)
	if len(res.DB.Dtcs) != 1 {
		t.Fatalf("got %d DTCs, want 1: %+v", len(res.DB.Dtcs), res.DB.Dtcs)
	}
	d := res.DB.Dtcs[0]
	if d.ShortName != "P0100" || d.TroubleCode != 0x100 || d.Level == nil || *d.Level != 2 {
		t.Fatalf("dtc = %+v", d)
	}
	if diff := cmp.Diff([]ir.Text{{Value: "Mass air flow circuit", TI: "T.MAF"}}, d.Texts); diff != "" {
		t.Fatalf("texts (-want +got):\n%s", diff)
	}
	if !hasCode(res.Warnings, diag.OdxDuplicateDtc) {
		t.Fatalf("no duplicate DTC warning in %v", res.Warnings.Strings())
	}
}

func TestVariantPattern(t *testing.T) {
	ecu := variant(t, parseSample(t).DB, "ECU_A")
	want := []ir.VariantPattern{{MatchingParameters: []ir.MatchingParameter{{
		DiagService:   "ReadVIN",
		OutParam:      "VIN",
		ExpectedValue: "WVW_A",
	}}}}
	if diff := cmp.Diff(want, ecu.VariantPatterns); diff != "" {
		t.Fatalf("patterns (-want +got):\n%s", diff)
	}
}

func TestXsiTypeWithoutNamespaceDeclaration(t *testing.T) {
	const doc = `<ODX VERSION="2.0">
  <DIAG-LAYER-CONTAINER>
    <SHORT-NAME>Bare</SHORT-NAME>
    <BASE-VARIANTS>
      <BASE-VARIANT ID="BV">
        <SHORT-NAME>Bare_BV</SHORT-NAME>
        <DIAG-COMMS>
          <DIAG-SERVICE ID="DS" TRANSMISSION-MODE="SEND"><SHORT-NAME>Tester</SHORT-NAME><REQUEST-REF ID-REF="RQ"/></DIAG-SERVICE>
        </DIAG-COMMS>
        <REQUESTS>
          <REQUEST ID="RQ">
            <SHORT-NAME>RQ_Tester</SHORT-NAME>
            <PARAMS>
              <PARAM xsi:type="CODED-CONST"><SHORT-NAME>SID</SHORT-NAME><CODED-VALUE>0x3E</CODED-VALUE></PARAM>
              <PARAM xsi:type="FANCY-NEW-TYPE"><SHORT-NAME>Odd</SHORT-NAME></PARAM>
            </PARAMS>
          </REQUEST>
        </REQUESTS>
      </BASE-VARIANT>
    </BASE-VARIANTS>
  </DIAG-LAYER-CONTAINER>
</ODX>`
	res, err := ParseBytes([]byte(doc), Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s := service(t, &variant(t, res.DB, "Bare_BV").DiagLayer, "Tester")
	if s.TransmissionMode != ir.TransmissionSendOnly {
		t.Fatalf("transmission mode = %s", s.TransmissionMode)
	}
	params := s.Request.Params
	if params[0].Type != ir.ParamCodedConst || params[1].Type != ir.ParamValue {
		t.Fatalf("param types = %s, %s", params[0].Type, params[1].Type)
	}
	if !hasCode(res.Warnings, diag.OdxUnknownParamType) {
		t.Fatalf("no unknown param type warning in %v", res.Warnings.Strings())
	}
}

func TestParseWithoutContainer(t *testing.T) {
	_, err := ParseBytes([]byte(`<ODX><COMPARAM-SPEC ID="CPS"><SHORT-NAME>CP</SHORT-NAME></COMPARAM-SPEC></ODX>`), Options{})
	if !errors.Is(err, ErrNoContainer) {
		t.Fatalf("err = %v, want ErrNoContainer", err)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := ParseBytes([]byte(`<ODX><DIAG-LAYER-CONTAINER>`), Options{}); err == nil {
		t.Fatalf("truncated document parsed")
	}
}

const danglingDopODX = `<ODX xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <DIAG-LAYER-CONTAINER>
    <SHORT-NAME>D</SHORT-NAME>
    <BASE-VARIANTS>
      <BASE-VARIANT ID="BV">
        <SHORT-NAME>D_BV</SHORT-NAME>
        <DIAG-COMMS><DIAG-SERVICE ID="DS"><SHORT-NAME>Read</SHORT-NAME><POS-RESPONSE-REFS><POS-RESPONSE-REF ID-REF="PR"/></POS-RESPONSE-REFS></DIAG-SERVICE></DIAG-COMMS>
        <POS-RESPONSES>
          <POS-RESPONSE ID="PR"><SHORT-NAME>PR_Read</SHORT-NAME><PARAMS>
            <PARAM xsi:type="VALUE"><SHORT-NAME>X</SHORT-NAME><DOP-SNREF SHORT-NAME="Nowhere"/></PARAM>
          </PARAMS></POS-RESPONSE>
        </POS-RESPONSES>
      </BASE-VARIANT>
    </BASE-VARIANTS>
  </DIAG-LAYER-CONTAINER>
</ODX>`

func TestDanglingDopByMode(t *testing.T) {
	_, err := ParseBytes([]byte(danglingDopODX), Options{Mode: resolve.Strict})
	var refErr *resolve.ReferenceError
	if !errors.As(err, &refErr) || refErr.Name != "Nowhere" {
		t.Fatalf("strict err = %v, want dangling DOP reference", err)
	}

	res, err := ParseBytes([]byte(danglingDopODX), Options{Mode: resolve.Lenient})
	if err != nil {
		t.Fatalf("lenient: %v", err)
	}
	p := service(t, &variant(t, res.DB, "D_BV").DiagLayer, "Read").PosResponses[0].Params[0]
	if !p.DopUnresolved || p.Dop != nil || p.DopRef != "Nowhere" {
		t.Fatalf("param = %+v", p)
	}
	if !hasCode(res.Warnings, diag.ResDanglingDop) {
		t.Fatalf("no dangling DOP warning in %v", res.Warnings.Strings())
	}
}

func TestUnknownIDRefKeepsRawID(t *testing.T) {
	doc := strings.Replace(sampleODX, `<FUNCT-CLASS-REF ID-REF="FC.Ident"/>`, `<FUNCT-CLASS-REF ID-REF="FC.Missing"/>`, 1)
	res, err := ParseBytes([]byte(doc), Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := service(t, &variant(t, res.DB, "ECU_Base").DiagLayer, "ReadVIN").FunctClassRefs
	if diff := cmp.Diff([]string{"FC.Missing"}, got); diff != "" {
		t.Fatalf("refs (-want +got):\n%s", diff)
	}
	if !hasCode(res.Warnings, diag.OdxUnknownIDRef) {
		t.Fatalf("no unknown ID-REF warning")
	}
}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestParsePDX(t *testing.T) {
	data := buildZip(t, map[string]string{
		"index.xml":        `<CATALOG/>`,
		"ECU.odx-d":        sampleODX,
		"comparams.odx-c":  `<ODX><COMPARAM-SUBSET><SHORT-NAME>CPS</SHORT-NAME></COMPARAM-SUBSET></ODX>`,
		"jobs/ReadAll.jar": "PK",
		"docs/readme.txt":  "not odx",
	})
	res, err := ParsePDXBytes(data, Options{})
	if err != nil {
		t.Fatalf("pdx: %v", err)
	}
	if len(res.DB.Variants) != 2 || res.DB.EcuName != "ECU" {
		t.Fatalf("db = %s with %d variants", res.DB.EcuName, len(res.DB.Variants))
	}
	var skipped []string
	for _, d := range res.Warnings.Items() {
		if d.Code == diag.OdxSkippedEntry {
			skipped = append(skipped, d.Subject)
		}
	}
	if diff := cmp.Diff([]string{"comparams.odx-c"}, skipped); diff != "" {
		t.Fatalf("skipped entries (-want +got):\n%s", diff)
	}
}

func TestParsePDXWithoutODX(t *testing.T) {
	data := buildZip(t, map[string]string{"index.xml": `<CATALOG/>`})
	if _, err := ParsePDXBytes(data, Options{}); !errors.Is(err, ErrNoODX) {
		t.Fatalf("err = %v, want ErrNoODX", err)
	}
	if _, err := ParsePDXBytes([]byte("not a zip"), Options{}); err == nil {
		t.Fatalf("garbage archive accepted")
	}
}

func TestIsODXEntry(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.odx", true},
		{"A.ODX-D", true},
		{"dir/b.odx-c", true},
		{"index.xml", false},
		{"odx.txt", false},
	}
	for _, tt := range tests {
		if got := IsODXEntry(tt.name); got != tt.want {
			t.Errorf("IsODXEntry(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	first := parseSample(t)
	out, err := Marshal(first.DB, WriteOptions{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Contains(out, []byte(`xsi:type="CODED-CONST"`)) {
		t.Fatalf("xsi:type missing from output:\n%s", out)
	}
	second, err := ParseBytes(out, Options{})
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, out)
	}
	if diff := cmp.Diff(first.DB, second.DB, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip (-first +second):\n%s", diff)
	}
}

func TestWriteReportsDroppedFields(t *testing.T) {
	db := &ir.DiagDatabase{
		EcuName: "M",
		Variants: []ir.Variant{{
			DiagLayer:  ir.DiagLayer{ShortName: "M_BV"},
			ParentRefs: []ir.ParentRef{{ShortName: "Elsewhere", Kind: ir.LayerProtocol}},
		}},
		Memory: &ir.MemoryConfig{DefaultAddressFormat: ir.AddressFormat{AddressBytes: 4, LengthBytes: 4}},
	}
	bag := diag.NewBag(16)
	out, err := Marshal(db, WriteOptions{Reporter: diag.BagReporter{Bag: bag}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if bytes.Contains(out, []byte("PARENT-REF")) {
		t.Fatalf("reference to a missing layer written:\n%s", out)
	}
	if got := bag.Len(); got != 2 {
		t.Fatalf("got %d warnings, want 2: %v", got, bag.Strings())
	}
	if !hasCode(bag, diag.CnvDroppedField) {
		t.Fatalf("no dropped-field warning")
	}
}

func TestWriteDtcsWithoutLayer(t *testing.T) {
	db := &ir.DiagDatabase{EcuName: "Empty", Dtcs: []ir.Dtc{{ShortName: "P1", TroubleCode: 1}}}
	bag := diag.NewBag(4)
	if _, err := Marshal(db, WriteOptions{Reporter: diag.BagReporter{Bag: bag}}); err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !hasCode(bag, diag.CnvDroppedField) {
		t.Fatalf("dropped DTCs not reported")
	}
}
