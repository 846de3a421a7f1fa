// Package template turns a fully-resolved scene and attribute set into
// one canonical declarative question plus paraphrases. Clause assembly
// is append-only: an empty slot contributes no clause at all, so the
// rendered question can never contain a dangling connector.
package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/queryflow/internal/ljson"
	"github.com/ziadkadry99/queryflow/internal/llm"
	"github.com/ziadkadry99/queryflow/internal/schema"
)

// Defaults supplies the built-in values used when a slot stayed empty
// through extraction and default filling.
type Defaults struct {
	TimeRange   string
	SpeedUnit   string
	Aggregation string
	Breakdown   string
	Rewrites    int
}

// BuiltinDefaults returns the stock defaults.
func BuiltinDefaults() Defaults {
	return Defaults{
		TimeRange:   "近一个月",
		SpeedUnit:   "Gbps",
		Aggregation: "按均值统计",
		Breakdown:   "按类型进行细分统计",
		Rewrites:    1,
	}
}

// Synthesizer builds canonical questions and paraphrases.
type Synthesizer struct {
	provider llm.Provider
	model    string
	defaults Defaults
}

// NewSynthesizer constructs a synthesizer. provider may be nil; rewrites
// then come from the local deterministic fallback.
func NewSynthesizer(provider llm.Provider, model string, defaults Defaults) *Synthesizer {
	if defaults.Rewrites <= 0 {
		defaults.Rewrites = 1
	}
	return &Synthesizer{provider: provider, model: model, defaults: defaults}
}

// Build renders the canonical question in fixed clause order:
// [time, source→destination, metric] + [endpoint types] +
// [unit, aggregation] + [requirements] + [direction + exclusions].
func (s *Synthesizer) Build(attrs *schema.Attributes) string {
	timeRange := attrs.TimeRange
	if timeRange == "" {
		timeRange = s.defaults.TimeRange
	}
	metric := attrs.DataType
	if metric == "" {
		metric = schema.DefaultDataType
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("查询%s内，%s到%s的%s",
		timeRange, attrs.Source, attrs.Destination, metric))

	if typeClause := endpointTypeClause(attrs); typeClause != "" {
		parts = append(parts, typeClause)
	}

	agg := s.defaults.Aggregation
	if strings.Contains(metric, "峰值") {
		agg = "按峰值统计"
	}
	parts = append(parts, "单位"+s.defaults.SpeedUnit+"，"+agg)

	if attrs.TimeGranularity != "" && attrs.TimeGranularity != schema.DefaultTimeGranularity {
		parts = append(parts, "时间粒度为"+attrs.TimeGranularity)
	}
	if attrs.SupplementaryInfo != "" {
		parts = append(parts, attrs.SupplementaryInfo)
	}

	if tail := directionExclusionClause(attrs); tail != "" {
		parts = append(parts, tail)
	}

	return strings.Join(parts, "，")
}

func endpointTypeClause(attrs *schema.Attributes) string {
	switch {
	case attrs.SourceType != "" && attrs.DestinationType != "" && attrs.SourceType == attrs.DestinationType:
		return "源端和对端类型为" + attrs.SourceType
	case attrs.SourceType != "" && attrs.DestinationType != "":
		return "源端类型为" + attrs.SourceType + "，对端类型为" + attrs.DestinationType
	case attrs.SourceType != "":
		return "源端类型为" + attrs.SourceType
	case attrs.DestinationType != "":
		return "对端类型为" + attrs.DestinationType
	}
	return ""
}

// directionExclusionClause renders flow direction and exclusions. The
// two are independent: an empty exclusion list must leave no trace.
func directionExclusionClause(attrs *schema.Attributes) string {
	var parts []string
	if attrs.FlowDirection != "" {
		parts = append(parts, attrs.FlowDirection+"方向")
	}
	if attrs.UpDownDirection != "" && attrs.UpDownDirection != schema.DefaultUpDownDirection {
		parts = append(parts, attrs.UpDownDirection)
	}
	if len(attrs.Exclusions) > 0 {
		parts = append(parts, "剔除"+strings.Join(attrs.Exclusions, "和"))
	}
	return strings.Join(parts, "，")
}

const rewriteSystemPrompt = `你是问题改写助手。改写用户给出的查询问题，要求：
1. 保留问题中的每一个属性（时间、源端、对端、类型、单位、粒度等）；
2. 剔除条件和流向是两个独立的条款，不得合并或混淆；
3. 输出%d个改写。
严格输出JSON：{"rewrites": ["改写1", "改写2"]}，不要输出任何解释。`

// Rewrite produces n paraphrases of the canonical question via the
// completion service, falling back to deterministic local transformations
// when the reply cannot be parsed as the expected list.
func (s *Synthesizer) Rewrite(ctx context.Context, question string) []string {
	n := s.defaults.Rewrites
	if s.provider != nil {
		system := fmt.Sprintf(rewriteSystemPrompt, n)
		reply, err := llm.Ask(ctx, s.provider, s.model, system, question, true)
		if err == nil {
			var parsed struct {
				Rewrites []string `json:"rewrites"`
			}
			if ljson.Unmarshal(reply, &parsed) {
				var out []string
				for _, r := range parsed.Rewrites {
					if r = strings.TrimSpace(r); r != "" {
						out = append(out, r)
					}
				}
				if len(out) > 0 {
					if len(out) > n {
						out = out[:n]
					}
					return out
				}
			}
		}
	}

	local := LocalRewrites(question)
	if n < len(local) {
		return local[:n]
	}
	return local
}

// LocalRewrites applies three fixed textual transformations to the
// canonical question.
func LocalRewrites(question string) []string {
	first := "请帮我" + question
	second := strings.Replace(question, "查询", "统计", 1)
	third := "我想了解" + strings.TrimPrefix(question, "查询")
	return []string{first, second, third}
}
