package scene

import (
	"context"
	"strings"

	"github.com/ziadkadry99/queryflow/internal/ljson"
	"github.com/ziadkadry99/queryflow/internal/llm"
	"github.com/ziadkadry99/queryflow/internal/schema"
)

// PrimaryClassifier picks the broad analytic category. The completion
// service proposes, but keyword corrections always have the last word:
// anomaly and composition signals are too diagnostic to overrule.
type PrimaryClassifier struct {
	provider llm.Provider
	model    string
	hinter   Hinter
	fewshotK int
}

var anomalyKeywords = []string{
	"异常", "pcdn", "PCDN", "拉流", "被拉流", "cdn", "CDN",
	"cdntype", "访问域名", "域名数",
}

var compositionKeywords = []string{"占比", "成分", "结构", "组成", "终端用户"}

var rankKeywords = []string{"排名", "排行", "top", "TOP", "前十", "前5", "前5名"}

var flowKeywords = []string{"流向", "流出", "流入", "去向"}

const primarySystemPrompt = `你是网络流量分析的场景分类助手。请将用户问题分为以下场景之一：
流量流向分析、流量成分分析、异常流量分析。
严格输出JSON：{"scene": "场景名"}，不要输出任何解释。`

// Classify determines the primary scene for text. A keyword correction
// on the current turn has the last word. When the turn itself carries no
// signal (a bare "确认", a slot revision) the completion service sees the
// history window, and a rule-only run falls back to the most recent
// signal in history so follow-up turns classify from context.
func (c *PrimaryClassifier) Classify(ctx context.Context, text string, history []string) Outcome {
	if corrected, signal := correctPrimary(text); corrected != "" {
		return Outcome{
			Chosen:     corrected,
			Confidence: 1,
			Candidates: []Candidate{{Name: corrected, Raw: 100, Score: 1, Signals: []string{signal}}},
		}
	}

	if c.provider != nil {
		var sb strings.Builder
		if len(history) > 0 {
			sb.WriteString("对话历史：\n")
			for _, h := range history {
				sb.WriteString(h)
				sb.WriteString("\n")
			}
		}
		sb.WriteString("用户问题：")
		sb.WriteString(text)
		sb.WriteString(fewshotBlock(ctx, c.hinter, text, c.fewshotK))
		reply, err := llm.Ask(ctx, c.provider, c.model, primarySystemPrompt, sb.String(), true)
		if err == nil {
			var parsed struct {
				Scene string `json:"scene"`
			}
			if ljson.Unmarshal(reply, &parsed) && schema.ValidScene(parsed.Scene, schema.PrimaryScenes) {
				return Outcome{Chosen: parsed.Scene, Confidence: 0.8}
			}
		}
	}

	for i := len(history) - 1; i >= 0; i-- {
		if corrected, signal := correctPrimary(history[i]); corrected != "" {
			return Outcome{
				Chosen:     corrected,
				Confidence: 0.6,
				Candidates: []Candidate{{Name: corrected, Raw: 60, Score: 0.6, Signals: []string{signal}}},
			}
		}
	}
	return Outcome{Chosen: schema.SceneFlow, Confidence: 0.5}
}

// correctPrimary applies the keyword override rules. Anomaly signals
// outrank composition; settlement wording exempts composition words.
func correctPrimary(text string) (string, string) {
	for _, w := range anomalyKeywords {
		if strings.Contains(text, w) {
			return schema.SceneAnomaly, w
		}
	}
	if !strings.Contains(text, "结算详情") && !strings.Contains(text, "结算数据") {
		for _, w := range compositionKeywords {
			if strings.Contains(text, w) {
				return schema.SceneComposition, w
			}
		}
	}
	if schema.ContainsAny(text, flowKeywords) && schema.ContainsAny(text, rankKeywords) {
		return schema.SceneFlow, "flow+rank"
	}
	return "", ""
}
