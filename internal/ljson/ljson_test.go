package ljson

import "testing"

func TestExtractPlainObject(t *testing.T) {
	got := Extract(`{"a": 1}`)
	if got != `{"a": 1}` {
		t.Errorf("Extract = %q", got)
	}
}

func TestExtractSurroundingProse(t *testing.T) {
	text := "Sure, here is the result:\n```json\n{\"scene\": \"地域流量分析\"}\n```\nHope that helps."
	got := Extract(text)
	if got != `{"scene": "地域流量分析"}` {
		t.Errorf("Extract = %q", got)
	}
}

func TestExtractNestedBraces(t *testing.T) {
	text := `prefix {"outer": {"inner": "}"}, "n": 2} suffix {"second": true}`
	got := Extract(text)
	if got != `{"outer": {"inner": "}"}, "n": 2}` {
		t.Errorf("Extract = %q", got)
	}
}

func TestExtractUnbalanced(t *testing.T) {
	if got := Extract(`{"a": [1, 2`); got != "" {
		t.Errorf("Extract = %q, want empty", got)
	}
	if got := Extract("no braces here"); got != "" {
		t.Errorf("Extract = %q, want empty", got)
	}
}

func TestUnmarshal(t *testing.T) {
	var v struct {
		Source string `json:"source"`
	}
	if !Unmarshal(`reply: {"source": "浙江"} done`, &v) {
		t.Fatal("Unmarshal returned false")
	}
	if v.Source != "浙江" {
		t.Errorf("Source = %q", v.Source)
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	var v map[string]any
	if Unmarshal(`{"source": }`, &v) {
		t.Error("Unmarshal accepted malformed JSON")
	}
	if Unmarshal("", &v) {
		t.Error("Unmarshal accepted empty input")
	}
}

func TestObject(t *testing.T) {
	m, ok := Object(`{"rewrites": ["a", "b"]}`)
	if !ok {
		t.Fatal("Object returned false")
	}
	if _, ok := m["rewrites"]; !ok {
		t.Error("missing rewrites key")
	}
}
