package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/queryflow/internal/ljson"
	"github.com/ziadkadry99/queryflow/internal/llm"
	"github.com/ziadkadry99/queryflow/internal/schema"
)

// LLMExtractor asks the completion service to fill all twelve slots in
// one structured prompt. Malformed replies degrade to an empty result,
// never an error: the rule-only path must always be able to continue.
type LLMExtractor struct {
	provider llm.Provider
	model    string
}

// NewLLMExtractor constructs an extractor bound to a provider and model.
func NewLLMExtractor(provider llm.Provider, model string) *LLMExtractor {
	return &LLMExtractor{provider: provider, model: model}
}

const extractSystemPrompt = `你是网络流量查询的字段抽取助手。从用户问题中抽取以下字段：
源端、对端、源端类型、对端类型、时间、时间粒度、流向、数据类型、剔除条件、模糊匹配、上行下行、补充信息。
严格输出JSON，格式：
{"attributes": {"源端": "...", "对端": "..."}, "confidence": {"源端": 0.9, "对端": 0.8}}
只包含能从原文推断出的字段，confidence取0到1之间的小数。剔除条件用"和"连接多个值。不要输出任何解释。`

// Extract prompts the completion service for all slots. The rule
// extractor's evidence is passed as hints so the model can confirm or
// refine what patterns already found.
func (e *LLMExtractor) Extract(ctx context.Context, text string, c *Context, hints Results) Results {
	var sb strings.Builder
	sb.WriteString("用户问题：")
	sb.WriteString(text)
	if c != nil && len(c.History) > 0 {
		sb.WriteString("\n历史输入：")
		sb.WriteString(strings.Join(c.History, " / "))
	}
	if len(hints) > 0 {
		sb.WriteString("\n规则抽取线索：")
		// Canonical slot order keeps the prompt byte-stable run to run.
		for _, slot := range schema.Slots {
			r, ok := hints[slot]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "%s=%s(%s) ", schema.ChineseName[slot], r.Value, r.Evidence)
		}
	}

	reply, err := llm.Ask(ctx, e.provider, e.model, extractSystemPrompt, sb.String(), true)
	if err != nil {
		return Results{}
	}
	return parseExtractionReply(reply)
}

type extractionReply struct {
	Attributes map[string]any     `json:"attributes"`
	Confidence map[string]float64 `json:"confidence"`
}

// parseExtractionReply tolerates prose around the JSON block and either
// flat or nested attribute shapes.
func parseExtractionReply(reply string) Results {
	var parsed extractionReply
	if !ljson.Unmarshal(reply, &parsed) || len(parsed.Attributes) == 0 {
		return Results{}
	}
	res := Results{}
	for name, raw := range parsed.Attributes {
		slot, ok := schema.SlotByChineseName[name]
		if !ok {
			continue
		}
		value := stringify(raw)
		if value == "" {
			continue
		}
		conf := parsed.Confidence[name]
		if conf <= 0 {
			conf = 0.6
		}
		if conf > 1 {
			conf = 1
		}
		res[slot] = Result{Value: value, Confidence: conf, Provenance: ProvLLM, Evidence: "completion service"}
	}
	return res
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case bool:
		if t {
			return "是"
		}
		return ""
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
	case []any:
		var parts []string
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "和")
	}
	return ""
}
