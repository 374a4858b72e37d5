package match

import (
	"testing"

	"diagconv/internal/ir"
)

func variant(name string, patterns ...[]ir.MatchingParameter) ir.Variant {
	v := ir.Variant{DiagLayer: ir.DiagLayer{ShortName: name}}
	for _, p := range patterns {
		v.VariantPatterns = append(v.VariantPatterns, ir.VariantPattern{MatchingParameters: p})
	}
	return v
}

func mp(service, param, value string) ir.MatchingParameter {
	return ir.MatchingParameter{DiagService: service, OutParam: param, ExpectedValue: value}
}

func TestFirstDeclaredWins(t *testing.T) {
	variants := []ir.Variant{
		variant("EV_A", []ir.MatchingParameter{mp("IdentRead", "Supplier", "0x10")}),
		variant("EV_B", []ir.MatchingParameter{mp("IdentRead", "Supplier", "16")}),
	}
	obs := Observations{{DiagService: "IdentRead", OutParam: "Supplier"}: "16"}
	res := Match(variants, obs)
	if !res.Matched || res.VariantName() != "EV_A" || res.Index != 0 {
		t.Fatalf("got %+v (%s), want EV_A", res, res.VariantName())
	}
}

func TestAllParametersRequired(t *testing.T) {
	variants := []ir.Variant{
		variant("EV_A", []ir.MatchingParameter{mp("Ident", "Hw", "1"), mp("Ident", "Sw", "2")}),
		variant("EV_B", []ir.MatchingParameter{mp("Ident", "Hw", "1")}),
	}
	obs := Observations{{"Ident", "Hw"}: "1", {"Ident", "Sw"}: "3"}
	res := Match(variants, obs)
	if res.VariantName() != "EV_B" {
		t.Fatalf("got %s, want EV_B", res.VariantName())
	}
}

func TestAnyPatternOfVariant(t *testing.T) {
	variants := []ir.Variant{
		variant("EV_A",
			[]ir.MatchingParameter{mp("Ident", "Hw", "9")},
			[]ir.MatchingParameter{mp("Ident", "Hw", "1")},
		),
	}
	res := Match(variants, Observations{{"Ident", "Hw"}: "1"})
	if !res.Matched {
		t.Fatalf("second pattern should match")
	}
}

func TestNoMatch(t *testing.T) {
	variants := []ir.Variant{
		variant("EV_A", []ir.MatchingParameter{mp("Ident", "Hw", "1")}),
		variant("EV_Empty", nil),
		{DiagLayer: ir.DiagLayer{ShortName: "EV_NoPatterns"}},
	}
	res := Match(variants, Observations{{"Ident", "Hw"}: "2"})
	if res.Matched || res.Variant != nil || res.Index != -1 {
		t.Fatalf("unexpected match %+v", res)
	}
	if res.VariantName() != "undetermined" {
		t.Fatalf("name = %q", res.VariantName())
	}
}

func TestValuesEqual(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"0x1A", "26", true},
		{" 26 ", "26", true},
		{"ABC", "ABC", true},
		{"ABC", "abc", false},
		{"0xFFFFFFFFFFFFFFFF", "18446744073709551615", true},
		{"1", "01", true},
		{"1.0", "1", false},
		{"010", "10", true},
		{"010", "8", false},
		{"0X1a", "26", true},
		{"1_0", "10", false},
		{"0x1_0", "16", false},
		{"0b11", "3", false},
		{"0o17", "15", false},
		{"-05", "-5", true},
		{"-0", "0", true},
		{"-1", "0xFFFFFFFFFFFFFFFF", false},
	}
	for _, c := range cases {
		if got := valuesEqual(c.a, c.b); got != c.want {
			t.Fatalf("valuesEqual(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestParseObservations(t *testing.T) {
	obs, err := ParseObservations([]string{"Ident.Read.Hw=0x01", "Ident.Read.Hw=0x02", "Sess.Mode=default"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := obs[Key{"Ident.Read", "Hw"}]; got != "0x02" {
		t.Fatalf("Hw = %q", got)
	}
	if got := obs[Key{"Sess", "Mode"}]; got != "default" {
		t.Fatalf("Mode = %q", got)
	}
	for _, bad := range []string{"NoEquals", ".Param=1", "Service.=1", "Service=1"} {
		if _, _, err := ParseObservation(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
