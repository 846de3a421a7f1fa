package scene

import (
	"context"
	"strings"

	"github.com/ziadkadry99/queryflow/internal/ljson"
	"github.com/ziadkadry99/queryflow/internal/llm"
	"github.com/ziadkadry99/queryflow/internal/schema"
)

// SecondaryClassifier picks the sub-category. Identity-bearing tokens
// (customer, account, port) outrank topological ones (IP, region); the
// level always resolves because 地域流量分析 is the domain default.
type SecondaryClassifier struct {
	provider llm.Provider
	model    string
}

var ipKeywords = []string{"IP", "ip", "网段", "端口", "路由器", "CR", "地址"}

var regionKeywords = append(append([]string{}, schema.GeographicCategories...), "省份", "地域")

const secondarySystemPrompt = `你是网络流量分析的场景分类助手。请将用户问题分为以下场景之一：
地域流量分析、IP流量分析、客户流量分析。
严格输出JSON：{"scene": "场景名"}，不要输出任何解释。`

// Classify determines the secondary scene from text and the accumulated
// keyword set.
func (c *SecondaryClassifier) Classify(ctx context.Context, text string, keywords []string, threshold float64) Outcome {
	joined := text + " " + strings.Join(keywords, " ")

	// Candidate order is the tie-break: identity signals (customer,
	// account) outrank an IP literal, which outranks region wording.
	order := []string{schema.SceneCustomer, schema.SceneIPTraff, schema.SceneRegion}
	cands := make(map[string]*Candidate, len(order))
	for _, name := range order {
		cands[name] = &Candidate{Name: name}
	}
	bump := func(name string, pts int, signal string) {
		c := cands[name]
		c.Raw += pts
		c.Signals = append(c.Signals, signal)
	}

	hasIP := len(schema.ExtractIPs(joined)) > 0
	hasCity := strings.Contains(joined, "地市")
	hasPort := strings.Contains(joined, "端口")

	if schema.IsCustomerName(joined) {
		bump(schema.SceneCustomer, 80, "customer signal")
	}
	if strings.Contains(joined, "账号") || strings.Contains(joined, "帐号") {
		bump(schema.SceneCustomer, 60, "账号")
	}
	if hasIP {
		bump(schema.SceneIPTraff, 80, "ip literal")
	}
	if schema.ContainsAny(joined, ipKeywords) {
		bump(schema.SceneIPTraff, 60, "ip keyword")
	}
	if schema.ContainsAny(joined, regionKeywords) || containsGeoName(joined) {
		bump(schema.SceneRegion, 40, "region keyword")
	}

	// Exclusive overrides, fixed priority. A port is more specific than
	// a customer name; an explicit city wording reclaims an IP-looking
	// query for the region scene.
	switch {
	case hasPort:
		cands[schema.SceneIPTraff].Raw = 100
		cands[schema.SceneCustomer].Raw -= 50
		cands[schema.SceneIPTraff].Signals = append(cands[schema.SceneIPTraff].Signals, "端口 override")
	case hasIP && hasCity:
		cands[schema.SceneRegion].Raw = 100
		cands[schema.SceneIPTraff].Raw -= 50
		cands[schema.SceneRegion].Signals = append(cands[schema.SceneRegion].Signals, "地市 override")
	}

	list := make([]Candidate, 0, len(order))
	for _, name := range order {
		cand := cands[name]
		if cand.Raw > 100 {
			cand.Raw = 100
		}
		if cand.Raw < 0 {
			cand.Raw = 0
		}
		cand.Score = float64(cand.Raw) / 100
		list = append(list, *cand)
	}
	// Stable sort keeps the priority order on equal scores.
	sortCandidates(list)

	top := list[0]
	if top.Score >= threshold {
		return Outcome{Chosen: top.Name, Confidence: top.Score, Candidates: list}
	}

	if c.provider != nil {
		reply, err := llm.Ask(ctx, c.provider, c.model, secondarySystemPrompt, "用户问题："+text, true)
		if err == nil {
			var parsed struct {
				Scene string `json:"scene"`
			}
			if ljson.Unmarshal(reply, &parsed) && schema.ValidScene(parsed.Scene, schema.SecondaryScenes) {
				return Outcome{Chosen: parsed.Scene, Confidence: 0.7, Candidates: list}
			}
		}
	}

	// The domain default: region analysis.
	return Outcome{Chosen: schema.SceneRegion, Confidence: threshold, Candidates: list}
}

func containsGeoName(text string) bool {
	for _, set := range [][]string{schema.Provinces, schema.Cities} {
		for _, name := range set {
			if strings.Contains(text, name) {
				return true
			}
		}
	}
	return false
}
