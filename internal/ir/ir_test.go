package ir

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func u32(v uint32) *uint32 { return &v }

func sampleDB() *DiagDatabase {
	return &DiagDatabase{
		EcuName:  "ECM1",
		Version:  "1.0",
		Metadata: map[string]string{"author": "test"},
		Variants: []Variant{{
			DiagLayer: DiagLayer{
				ShortName: "EV_ECM1",
				DiagServices: []DiagService{{
					ShortName: "ReadVIN",
					Request: &Request{Params: []Param{{
						ShortName:    "SID",
						Type:         ParamCodedConst,
						BytePosition: u32(0),
						CodedValue:   "0x22",
						Dop:          &Dop{ShortName: "DOP_U8", DiagCodedType: &DiagCodedType{Type: "STANDARD-LENGTH-TYPE", BitLength: u32(8)}},
					}}},
					Audience: &Audience{Enabled: []string{"Workshop"}},
				}},
			},
			VariantPatterns: []VariantPattern{{MatchingParameters: []MatchingParameter{{DiagService: "ReadId", OutParam: "Id", ExpectedValue: "1"}}}},
		}},
		Dtcs: []Dtc{{ShortName: "P0001", TroubleCode: 1, Level: u32(2)}},
	}
}

func TestCloneIsDeep(t *testing.T) {
	db := sampleDB()
	cp := db.Clone()
	if diff := cmp.Diff(db, cp); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	cp.Metadata["author"] = "other"
	cp.Variants[0].DiagLayer.DiagServices[0].Request.Params[0].Dop.ShortName = "changed"
	*cp.Variants[0].DiagLayer.DiagServices[0].Request.Params[0].BytePosition = 7
	cp.Variants[0].DiagLayer.DiagServices[0].Audience.Enabled[0] = "Dealer"
	*cp.Dtcs[0].Level = 9

	orig := db.Variants[0].DiagLayer.DiagServices[0]
	if db.Metadata["author"] != "test" {
		t.Fatalf("metadata aliased")
	}
	if orig.Request.Params[0].Dop.ShortName != "DOP_U8" {
		t.Fatalf("dop aliased")
	}
	if *orig.Request.Params[0].BytePosition != 0 {
		t.Fatalf("byte position aliased")
	}
	if orig.Audience.Enabled[0] != "Workshop" {
		t.Fatalf("audience aliased")
	}
	if *db.Dtcs[0].Level != 2 {
		t.Fatalf("dtc level aliased")
	}
}

func TestAudienceVisible(t *testing.T) {
	tests := []struct {
		name   string
		aud    *Audience
		target string
		want   bool
	}{
		{"no audience", nil, "Workshop", true},
		{"empty audience", &Audience{}, "Workshop", true},
		{"enabled contains", &Audience{Enabled: []string{"Workshop"}}, "Workshop", true},
		{"enabled misses", &Audience{Enabled: []string{"Dealer"}}, "Workshop", false},
		{"disabled", &Audience{Disabled: []string{"Workshop"}}, "Workshop", false},
		{"enabled and disabled", &Audience{Enabled: []string{"Workshop"}, Disabled: []string{"Workshop"}}, "Workshop", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.aud.Visible(tt.target); got != tt.want {
				t.Fatalf("Visible(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestFilterByAudience(t *testing.T) {
	db := &DiagDatabase{Variants: []Variant{{DiagLayer: DiagLayer{
		ShortName: "V",
		DiagServices: []DiagService{
			{ShortName: "Open"},
			{ShortName: "DevOnly", Audience: &Audience{Enabled: []string{"Development"}}},
			{ShortName: "NotAftersales", Audience: &Audience{Disabled: []string{"AfterSales"}}},
		},
		SingleEcuJobs: []SingleEcuJob{
			{ShortName: "FlashJob", Audience: &Audience{Enabled: []string{"Development"}}},
		},
	}}}}

	FilterByAudience(db, "AfterSales")
	var names []string
	for _, s := range db.Variants[0].DiagLayer.DiagServices {
		names = append(names, s.ShortName)
	}
	if diff := cmp.Diff([]string{"Open"}, names); diff != "" {
		t.Fatalf("services after filter (-want +got):\n%s", diff)
	}
	if len(db.Variants[0].DiagLayer.SingleEcuJobs) != 0 {
		t.Fatalf("job should have been filtered")
	}
}

func TestFilterByAudienceAnyTarget(t *testing.T) {
	l := DiagLayer{DiagServices: []DiagService{
		{ShortName: "DevOnly", Audience: &Audience{Enabled: []string{"Development"}}},
	}}
	FilterLayer(&l, "AfterSales", "Development")
	if len(l.DiagServices) != 1 {
		t.Fatalf("service visible to one of the targets must be kept")
	}
}

func TestValidate(t *testing.T) {
	db := &DiagDatabase{
		Variants: []Variant{{DiagLayer: DiagLayer{
			ShortName:    "V",
			DiagServices: []DiagService{{ShortName: "A"}, {ShortName: "A"}, {}},
			StateCharts:  []StateChart{{ShortName: "Session"}},
		}}},
		Dtcs: []Dtc{{ShortName: "D1", TroubleCode: 5}, {ShortName: "D2", TroubleCode: 5}},
	}
	issues := Validate(db)
	want := []string{
		"ECU name is empty",
		"duplicate service name",
		"service short name is empty",
		"state chart has no states",
		"duplicate trouble code",
	}
	if len(issues) != len(want) {
		t.Fatalf("got %d issues, want %d: %v", len(issues), len(want), issues)
	}
	for i, w := range want {
		if !strings.Contains(issues[i].Message, w) {
			t.Fatalf("issue[%d] = %q, want it to contain %q", i, issues[i].String(), w)
		}
	}
}

func TestValidateCleanDatabase(t *testing.T) {
	if issues := Validate(sampleDB()); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestEnumText(t *testing.T) {
	for v := ParamCodedConst; v <= ParamTableEntry; v++ {
		b, err := v.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", v, err)
		}
		var back ParamType
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("unmarshal %q: %v", b, err)
		}
		if back != v {
			t.Fatalf("round trip %d -> %q -> %d", v, b, back)
		}
	}
	if _, err := ParseAddressing("SIDEWAYS"); err == nil {
		t.Fatalf("expected error for unknown addressing")
	}
	if got := ParamTypeFromXSI("SOMETHING-NEW"); got != ParamValue {
		t.Fatalf("unknown xsi type = %v, want VALUE", got)
	}
	if got := DataType(200).String(); got != "UNKNOWN(200)" {
		t.Fatalf("out of range name = %q", got)
	}
}

func TestStatsAndCodeFiles(t *testing.T) {
	db := &DiagDatabase{Variants: []Variant{
		{DiagLayer: DiagLayer{
			DiagServices:  []DiagService{{ShortName: "A"}, {ShortName: "B"}},
			ComParamRefs:  []ComParamRef{{ShortName: "CP_Baud"}},
			SingleEcuJobs: []SingleEcuJob{{ShortName: "J", ProgCodes: []ProgCode{{CodeFile: "b.jar", Libraries: []Library{{CodeFile: "lib.jar"}}}}}},
		}},
		{DiagLayer: DiagLayer{
			SingleEcuJobs: []SingleEcuJob{{ShortName: "J2", ProgCodes: []ProgCode{{CodeFile: "a.jar"}, {CodeFile: "b.jar"}}}},
		}},
	}}
	st := db.Stats()
	if st.Services != 2 || st.Jobs != 2 || st.ComParams != 1 || st.Variants != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if diff := cmp.Diff([]string{"a.jar", "b.jar", "lib.jar"}, db.CodeFiles()); diff != "" {
		t.Fatalf("code files (-want +got):\n%s", diff)
	}
}
