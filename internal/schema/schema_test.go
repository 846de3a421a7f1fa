package schema

import (
	"reflect"
	"testing"
)

func TestValidateTimeRange(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"2025-03-10到2025-03-30", true},
		{"近一个月", true},
		{"最近三天", true},
		{"上周", true},
		{"很久以前", false},
		{"", false},
	}
	for _, c := range cases {
		if got := Validate(SlotTimeRange, c.value); got != c.want {
			t.Errorf("Validate(time_range, %q) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestValidateFlowDirection(t *testing.T) {
	for _, ok := range []string{"流出", "流入", "双向", "流入流出", "流出和流入"} {
		if !Validate(SlotFlowDirection, ok) {
			t.Errorf("Validate(flow_direction, %q) = false", ok)
		}
	}
	for _, bad := range []string{"", "向上", "流出和向南"} {
		if Validate(SlotFlowDirection, bad) {
			t.Errorf("Validate(flow_direction, %q) = true", bad)
		}
	}
}

func TestIsGeographic(t *testing.T) {
	for _, g := range []string{"浙江", "杭州", "本省", "外省", "浙江和江苏", "浙江各地市", "广东省"} {
		if !IsGeographic(g) {
			t.Errorf("IsGeographic(%q) = false", g)
		}
	}
	for _, n := range []string{"", "1.2.3.4", "气象局", "浙江和1.2.3.4"} {
		if IsGeographic(n) {
			t.Errorf("IsGeographic(%q) = true", n)
		}
	}
}

func TestExtractIPs(t *testing.T) {
	got := ExtractIPs("从1.2.3.4到10.0.0.0/8的流量，1.2.3.4重复")
	want := []string{"10.0.0.0/8", "1.2.3.4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractIPs = %v, want %v", got, want)
	}
}

func TestTokenize(t *testing.T) {
	toks := Tokenize("查询浙江各地市idc省内流出流入的月均流量")
	has := func(w string) bool {
		for _, tok := range toks {
			if tok == w {
				return true
			}
		}
		return false
	}
	for _, w := range []string{"浙江", "省内", "流出", "idc"} {
		if !has(w) {
			t.Errorf("Tokenize missing %q in %v", w, toks)
		}
	}
}

func TestAccumulateKeywords(t *testing.T) {
	hist := []string{"浙江", "流出"}
	cur := []string{"流出", "1.2.3.4"}
	got := AccumulateKeywords(hist, cur, false)
	want := []string{"浙江", "流出", "1.2.3.4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("union = %v, want %v", got, want)
	}
	if got := AccumulateKeywords(hist, cur, true); !reflect.DeepEqual(got, []string{"流出", "1.2.3.4"}) {
		t.Errorf("reset = %v", got)
	}
}

func TestAttributesGetSetRoundTrip(t *testing.T) {
	var a Attributes
	a.Set(SlotExclusions, "天翼云和天翼看家")
	if !reflect.DeepEqual(a.Exclusions, []string{"天翼云", "天翼看家"}) {
		t.Errorf("Exclusions = %v", a.Exclusions)
	}
	if got := a.Get(SlotExclusions); got != "天翼云和天翼看家" {
		t.Errorf("Get(exclusions) = %q", got)
	}
}

func TestApplyDefaults(t *testing.T) {
	a := &Attributes{TimeGranularity: "逐日"}
	a.ApplyDefaults()
	if a.TimeGranularity != "逐日" {
		t.Error("default overwrote resolved granularity")
	}
	if a.FlowDirection != DefaultFlowDirection || a.DataType != DefaultDataType || a.UpDownDirection != DefaultUpDownDirection {
		t.Errorf("defaults not applied: %+v", a)
	}
}

func TestDeriveEndpointTypes(t *testing.T) {
	a := &Attributes{Source: "浙江", Destination: "1.2.3.4"}
	a.DeriveEndpointTypes()
	if a.SourceType != GeographicEndpointType {
		t.Errorf("SourceType = %q", a.SourceType)
	}
	if a.DestinationType != "" {
		t.Errorf("DestinationType = %q, want empty for non-geographic", a.DestinationType)
	}
}
