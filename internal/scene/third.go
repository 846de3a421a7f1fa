package scene

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/queryflow/internal/ljson"
	"github.com/ziadkadry99/queryflow/internal/llm"
	"github.com/ziadkadry99/queryflow/internal/schema"
)

// ThirdClassifier picks the specific query pattern out of twelve
// candidate labels.
type ThirdClassifier struct {
	provider llm.Provider
	model    string
	hinter   Hinter
	fewshotK int
}

const thirdSystemPrompt = `你是网络流量分析的场景分类助手。请从以下候选中选择最匹配用户问题的查询模式：
%s
严格输出JSON：{"scene": "候选名"}，只能从候选中选择，不要输出任何解释。`

// Classify scores the twelve third-level labels, applies the exclusive
// override chain, and falls back to the completion service below
// threshold.
func (c *ThirdClassifier) Classify(ctx context.Context, text string, keywords []string, secondaryScene string, threshold float64) Outcome {
	joined := text + " " + strings.Join(keywords, " ")
	list := scoreThird(joined, secondaryScene)

	if name, signal := overrideThird(joined, secondaryScene); name != "" {
		applyOverride(list, name, signal)
	}
	sortCandidates(list)

	top := list[0]
	if top.Score >= threshold {
		return Outcome{Chosen: top.Name, Confidence: top.Score, Candidates: list}
	}

	if c.provider != nil {
		system := fmt.Sprintf(thirdSystemPrompt, strings.Join(schema.ThirdScenes, "、"))
		user := "用户问题：" + text + ruleHints(list) + fewshotBlock(ctx, c.hinter, text, c.fewshotK)
		reply, err := llm.Ask(ctx, c.provider, c.model, system, user, true)
		if err == nil {
			var parsed struct {
				Scene string `json:"scene"`
			}
			if ljson.Unmarshal(reply, &parsed) && schema.ValidScene(parsed.Scene, schema.ThirdScenes) {
				return Outcome{Chosen: parsed.Scene, Confidence: 0.7, Candidates: list}
			}
		}
	}

	return Outcome{
		Candidates: list,
		Prompt: "无法确定具体查询模式，请在以下选项中选择：" +
			strings.Join(schema.ThirdScenes, "、"),
	}
}

// scoreThird applies the per-label scoring increments.
func scoreThird(joined, secondaryScene string) []Candidate {
	ips := schema.ExtractIPs(joined)
	hasCIDR := schema.CIDRPattern.MatchString(joined)
	hasCustomerID := strings.Contains(joined, "客户id") || strings.Contains(joined, "客户ID")

	cands := make([]Candidate, 0, len(schema.ThirdScenes))
	anyDirect := false
	for _, name := range schema.ThirdScenes {
		cand := Candidate{Name: name}
		bump := func(pts int, signal string) {
			cand.Raw += pts
			cand.Signals = append(cand.Signals, signal)
		}

		if strings.Contains(joined, name) {
			bump(50, "label match")
		}
		switch name {
		case schema.ThirdIP:
			if len(ips) > 0 {
				bump(80, "ip literal")
			}
		case schema.ThirdPort:
			if strings.Contains(joined, "端口") {
				bump(60, "端口")
				if strings.Contains(joined, "路由") || strings.Contains(joined, "详情") {
					bump(50, "路由/详情")
				}
			}
		case schema.ThirdSubnet:
			if hasCustomerID {
				cand.Raw = 0
				cand.Signals = append(cand.Signals, "suppressed by 客户id")
			} else if strings.Contains(joined, "网段流量") {
				cand.Raw = 100
				cand.Signals = append(cand.Signals, "exact phrase")
			} else if hasCIDR || strings.Contains(joined, "网段") || strings.Contains(joined, "子网") {
				bump(80, "网段 signal")
			}
		case schema.ThirdCity:
			if strings.Contains(joined, "地市") {
				bump(40, "地市")
			}
		case schema.ThirdInterProvince:
			if strings.Contains(joined, "省际") {
				bump(40, "省际")
			}
		case schema.ThirdCustomer:
			if hasCustomerID || schema.ContainsAny(joined, schema.CustomerEntities) {
				cand.Raw = 100
				cand.Signals = append(cand.Signals, "customer identity")
			} else if schema.IsCustomerName(joined) {
				bump(80, "customer signal")
			}
		case schema.ThirdAccount:
			if strings.Contains(joined, "账号") || strings.Contains(joined, "帐号") {
				bump(60, "账号")
			}
		}

		if cand.Raw >= 90 {
			cand.Raw = 100
		}
		if cand.Raw > 0 {
			anyDirect = true
		}
		cands = append(cands, cand)
	}

	// No direct signal anywhere: boost the labels related to the
	// secondary scene so the fallback stays in its neighborhood.
	if !anyDirect {
		related := schema.RelatedThirdScenes[secondaryScene]
		for i := range cands {
			for _, r := range related {
				if cands[i].Name == r {
					cands[i].Raw += 20
					cands[i].Signals = append(cands[i].Signals, "related to "+secondaryScene)
				}
			}
		}
	}

	for i := range cands {
		if cands[i].Raw > 100 {
			cands[i].Raw = 100
		}
		if cands[i].Raw < 0 {
			cands[i].Raw = 0
		}
		cands[i].Score = float64(cands[i].Raw) / 100
	}
	return cands
}

// overrideThird is the exclusive override chain, strict priority order:
// identity-bearing tokens beat topology, topology beats geography.
func overrideThird(joined, secondaryScene string) (string, string) {
	ips := schema.ExtractIPs(joined)
	hasSubnetWord := strings.Contains(joined, "网段") || schema.CIDRPattern.MatchString(joined)

	switch {
	case strings.Contains(joined, "客户id"), strings.Contains(joined, "客户ID"):
		return schema.ThirdCustomer, "客户id"
	case strings.Contains(joined, "端口"):
		return schema.ThirdPort, "端口"
	case len(ips) >= 2:
		return schema.ThirdIP, "multiple ips"
	case strings.Contains(joined, "账号"), strings.Contains(joined, "帐号"):
		return schema.ThirdAccount, "账号"
	case strings.Contains(joined, "AS号"), strings.Contains(joined, "地市") && strings.Contains(joined, "路由"):
		return schema.ThirdCity, "AS/地市路由"
	case strings.Contains(joined, "结算详情"), strings.Contains(joined, "结算数据"):
		return schema.ThirdCity, "结算详情"
	case secondaryScene == schema.SceneIPTraff && len(ips) > 0:
		return schema.ThirdIP, "ip scene"
	case len(ips) == 1 && !hasSubnetWord:
		return schema.ThirdIP, "single ip"
	case hasSubnetWord:
		return schema.ThirdSubnet, "网段"
	}
	return "", ""
}

// applyOverride forces the chosen label to the maximum score and
// suppresses the labels it is most often confused with.
func applyOverride(cands []Candidate, name, signal string) {
	suppress := map[string]int{}
	switch name {
	case schema.ThirdCustomer:
		suppress[schema.ThirdSubnet] = 50
	case schema.ThirdPort:
		suppress[schema.ThirdIP] = 50
	case schema.ThirdIP:
		suppress[schema.ThirdInterProvince] = 30
	}
	for i := range cands {
		if cands[i].Name == name {
			cands[i].Raw = 100
			cands[i].Score = 1
			cands[i].Signals = append(cands[i].Signals, "override: "+signal)
			continue
		}
		if pts, ok := suppress[cands[i].Name]; ok {
			cands[i].Raw -= pts
			if cands[i].Raw < 0 {
				cands[i].Raw = 0
			}
			cands[i].Score = float64(cands[i].Raw) / 100
		}
	}
}

func ruleHints(cands []Candidate) string {
	var sb strings.Builder
	sb.WriteString("\n规则打分：")
	for _, c := range cands {
		if c.Raw > 0 {
			fmt.Fprintf(&sb, "%s=%d ", c.Name, c.Raw)
		}
	}
	return sb.String()
}
