package extract

import (
	"testing"

	"github.com/ziadkadry99/queryflow/internal/schema"
)

func ruleResult(v string, c float64) Result {
	return Result{Value: v, Confidence: c, Provenance: ProvRule}
}

func llmResult(v string, c float64) Result {
	return Result{Value: v, Confidence: c, Provenance: ProvLLM}
}

func TestMergeFieldHighConfidenceRuleWins(t *testing.T) {
	got := MergeField(schema.SlotTimeRange, ruleResult("2025年3月10日到3月30日", 0.95), llmResult("昨天", 0.99))
	if got.Source != ProvRule || got.Value != "2025年3月10日到3月30日" {
		t.Errorf("merged = %+v, rule at 0.95 must always win", got)
	}
}

func TestMergeFieldLLMNeedsMargin(t *testing.T) {
	// 0.75 vs rule 0.65: margin 0.10 < 0.15, both valid, higher wins.
	got := MergeField(schema.SlotSource, ruleResult("浙江", 0.65), llmResult("杭州", 0.75))
	if got.Source != ProvLLM || got.Value != "杭州" {
		t.Errorf("merged = %+v", got)
	}

	// Margin satisfied: 0.85 >= 0.65 + 0.15.
	got = MergeField(schema.SlotSource, ruleResult("浙江", 0.65), llmResult("杭州", 0.85))
	if got.Source != ProvLLM {
		t.Errorf("merged = %+v", got)
	}
}

func TestMergeFieldTiePrefersLLM(t *testing.T) {
	got := MergeField(schema.SlotDestination, ruleResult("省内", 0.6), llmResult("外省", 0.6))
	if got.Source != ProvLLM || got.Value != "外省" {
		t.Errorf("merged = %+v, tie must prefer LLM", got)
	}
}

func TestMergeFieldSingleValid(t *testing.T) {
	// LLM value fails the time validator, rule value stands.
	got := MergeField(schema.SlotTimeRange, ruleResult("近一个月", 0.7), llmResult("不确定", 0.95))
	if got.Source != ProvRule || got.Value != "近一个月" {
		t.Errorf("merged = %+v", got)
	}

	got = MergeField(schema.SlotTimeRange, ruleResult("", 0), llmResult("最近三天", 0.6))
	if got.Source != ProvLLM || got.Value != "最近三天" {
		t.Errorf("merged = %+v", got)
	}
}

func TestMergeFieldNeitherValid(t *testing.T) {
	got := MergeField(schema.SlotTimeRange, ruleResult("", 0), llmResult("某个时候", 0.9))
	if got.Source != "none" || got.Value != "" {
		t.Errorf("merged = %+v", got)
	}
}

func TestMergeAllUntouchedSlotsSkipped(t *testing.T) {
	rule := Results{schema.SlotSource: ruleResult("浙江", 0.95)}
	m := MergeAll(rule, Results{})
	if _, ok := m.Fields[schema.SlotDataType]; ok {
		t.Error("untouched slot must not appear in merged fields")
	}
	if len(m.Clarify) != 0 {
		t.Errorf("Clarify = %v, untouched slots are default-fill territory", m.Clarify)
	}
}

func TestMergeAllAttemptedButInvalidClarifies(t *testing.T) {
	llmOnly := Results{schema.SlotTimeRange: llmResult("某个时候", 0.9)}
	m := MergeAll(Results{}, llmOnly)
	if len(m.Clarify) != 1 || m.Clarify[0] != schema.SlotTimeRange {
		t.Errorf("Clarify = %v", m.Clarify)
	}
}

func TestMergeAllLowConfidenceClarifies(t *testing.T) {
	rule := Results{schema.SlotSource: ruleResult("浙江", 0.4)}
	m := MergeAll(rule, Results{})
	if len(m.Clarify) != 1 || m.Clarify[0] != schema.SlotSource {
		t.Errorf("Clarify = %v", m.Clarify)
	}
}

func TestMergedApply(t *testing.T) {
	rule := Results{
		schema.SlotSource:      ruleResult("浙江", 0.95),
		schema.SlotDestination: ruleResult("省内", 0.9),
	}
	m := MergeAll(rule, Results{})
	attrs := &schema.Attributes{}
	m.Apply(attrs)

	if attrs.Source != "浙江" || attrs.Destination != "省内" {
		t.Errorf("attrs = %+v", attrs)
	}
	if attrs.SourceType != schema.GeographicEndpointType {
		t.Errorf("SourceType = %q, geographic endpoints type silently", attrs.SourceType)
	}
	if attrs.TimeGranularity != schema.DefaultTimeGranularity {
		t.Errorf("TimeGranularity = %q", attrs.TimeGranularity)
	}
}
