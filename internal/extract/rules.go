package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ziadkadry99/queryflow/internal/schema"
)

// RuleExtractor applies an ordered list of deterministic strategies per
// slot. Each strategy carries a fixed confidence for its tier; the first
// strategy that matches wins the slot.
type RuleExtractor struct{}

// NewRuleExtractor constructs a rule extractor.
func NewRuleExtractor() *RuleExtractor { return &RuleExtractor{} }

var (
	accountRe         = regexp.MustCompile(`(?:账号|帐号)[为是]?[:：]?\s*([A-Za-z0-9_-]{4,})`)
	bracketRe         = regexp.MustCompile(`【([^】]+)】`)
	ipListRe          = regexp.MustCompile(`\[([^\]]+)\]`)
	ipRangeRe         = regexp.MustCompile(`((?:\d{1,3}\.){3}\d{1,3})\s*(?:到|至|-)\s*(\d{1,3})([^.\d]|$)`)
	sourcePhraseRe    = regexp.MustCompile(`源端(?:是|为)?[:：]?\s*([^，。,；;\s的]+)`)
	destPhraseRe      = regexp.MustCompile(`(?:对端|目的端)(?:是|为)?[:：]?\s*([^，。,；;\s的]+)`)
	destMarkerRe      = regexp.MustCompile(`(?:流出到|流入到|流出至|流入至|流向)([^，。,；;\s的]+)`)
	fromToRe          = regexp.MustCompile(`从(.+?)(?:到|至)([^，。,；;\s的]+)`)
	sourceIPHintRe    = regexp.MustCompile(`源\s*[Ii][Pp][为是]?[:：]?\s*((?:\d{1,3}\.){3}\d{1,3}(?:/\d{1,2})?)`)
	destIPHintRe      = regexp.MustCompile(`目的\s*[Ii][Pp][为是]?[:：]?\s*((?:\d{1,3}\.){3}\d{1,3}(?:/\d{1,2})?)`)

	monthDayRangeRe = regexp.MustCompile(`(\d{4}年)?(\d{1,2})月(\d{1,2})日?号?\s*(?:到|至|-)\s*(?:(\d{1,2})月)?(\d{1,2})日?号?`)
	dateRangeRe     = regexp.MustCompile(`(\d{4}[-/.]\d{1,2}[-/.]\d{1,2})\s*(?:到|至|-)\s*(\d{4}[-/.]\d{1,2}[-/.]\d{1,2})`)
	relativeTimeRe  = regexp.MustCompile(`(?:最近|近)([一二两三四五六七八九十半\d]+)个?(天|日|月|周|星期|小时)`)
	quarterRe       = regexp.MustCompile(`第?([一二三四1-4])季度|Q([1-4])`)
	singleDateRe    = regexp.MustCompile(`(\d{4})[年./-](\d{1,2})[月./-](\d{1,2})日?`)
	monthOnlyRe     = regexp.MustCompile(`(\d{4}年)?(\d{1,2})月份?`)
	shortYearRe     = regexp.MustCompile(`(\d{2})年`)

	exclusionRe = regexp.MustCompile(`(?:剔除|排除|除了|不含|不包含)([^，。；;]+)`)
	topNRe      = regexp.MustCompile(`(?:前|[Tt][Oo][Pp]\s*)(\d+|[一二三四五六七八九十]+)(?:名|个|条)?`)
)

var simpleTimeWords = []string{
	"近一个月", "近一周", "上个月", "上月", "上周", "上一周", "本月", "本周",
	"昨天", "今天", "前天", "去年", "今年",
}

var destCategories = []string{"本省", "外省", "省内", "省外", "跨省", "全国"}

var operators = []string{"联通", "电信", "移动"}

// Extract runs every slot's strategy chain against text.
func (e *RuleExtractor) Extract(text string, ctx *Context) Results {
	res := Results{}
	prior := ctx.prior()

	set := func(slot schema.Slot, value string, conf float64, evidence string) {
		if value == "" {
			return
		}
		if cur, ok := res[slot]; ok && cur.Confidence >= conf {
			return
		}
		res[slot] = Result{Value: value, Confidence: conf, Provenance: ProvRule, Evidence: evidence}
	}

	timeValue := e.extractTimeRange(text)
	if timeValue.Value != "" {
		res[schema.SlotTimeRange] = timeValue
	} else if prior.TimeRange != "" {
		set(schema.SlotTimeRange, prior.TimeRange, 0.8, "carried forward")
	}

	// Destination before source: several source strategies need to know
	// which tokens the destination already claimed.
	dest := e.extractDestination(text, ctx, timeValue.Value)
	if dest.Value != "" {
		res[schema.SlotDestination] = dest
	}
	src := e.extractSource(text, ctx, dest.Value, timeValue.Value)
	if src.Value != "" {
		res[schema.SlotSource] = src
	}

	// A lone boundary category names the source side: "外省流出" means
	// traffic originating outside the province.
	if src.Value == "" && dest.Value != "" {
		switch dest.Value {
		case "外省", "省外", "跨省", "省内":
			src = Result{Value: dest.Value, Confidence: dest.Confidence, Provenance: ProvRule, Evidence: dest.Evidence}
			res[schema.SlotSource] = src
			dest = Result{}
			delete(res, schema.SlotDestination)
		case "本省", "全国":
			src = Result{Value: "本省", Confidence: 0.75, Provenance: ProvRule, Evidence: "complement of " + dest.Value}
			res[schema.SlotSource] = src
		}
	}
	// Cross-boundary category sources imply their counterpart.
	if dest.Value == "" && src.Value != "" {
		switch src.Value {
		case "外省", "省外", "跨省":
			set(schema.SlotDestination, "本省", 0.75, "complement of "+src.Value)
		case "省内":
			set(schema.SlotDestination, "外省", 0.75, "complement of 省内")
		}
	}

	e.extractGranularity(text, set)
	e.extractDataType(text, set)
	e.extractDirections(text, set)
	e.extractExclusions(text, set)
	e.extractEndpointTypes(text, set)
	e.extractSupplementary(text, set)

	if strings.Contains(text, "模糊匹配") || strings.Contains(text, "模糊查询") {
		set(schema.SlotFuzzyMatch, "是", 0.95, "模糊匹配")
	}

	return res
}

func (e *RuleExtractor) extractSource(text string, ctx *Context, dest, timeValue string) Result {
	prior := ctx.prior()
	stripped := text
	if timeValue != "" {
		stripped = strings.Replace(stripped, timeValue, "", 1)
	}

	if m := accountRe.FindStringSubmatch(text); m != nil {
		return Result{Value: m[1], Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := bracketRe.FindStringSubmatch(text); m != nil {
		return Result{Value: m[1], Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := ipListRe.FindStringSubmatch(text); m != nil {
		if ips := schema.ExtractIPs(m[1]); len(ips) > 0 {
			return Result{Value: strings.Join(ips, "和"), Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
		}
	}
	if m := ipRangeRe.FindStringSubmatch(text); m != nil {
		return Result{Value: m[1] + "至" + m[2], Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := sourceIPHintRe.FindStringSubmatch(text); m != nil {
		return Result{Value: m[1], Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := sourcePhraseRe.FindStringSubmatch(text); m != nil {
		return Result{Value: m[1], Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := fromToRe.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		if v != "" && !strings.ContainsAny(v, "0123456789") || schema.IsGeographic(v) || len(schema.ExtractIPs(v)) > 0 {
			if ips := schema.ExtractIPs(v); len(ips) > 0 {
				v = strings.Join(ips, "和")
			}
			return Result{Value: v, Confidence: 0.9, Provenance: ProvRule, Evidence: m[0]}
		}
	}
	if ips := schema.ExtractIPs(stripped); len(ips) > 0 {
		remaining := ips
		if destHint := destIPHintRe.FindStringSubmatch(text); destHint != nil {
			remaining = nil
			for _, ip := range ips {
				if ip != destHint[1] {
					remaining = append(remaining, ip)
				}
			}
		}
		if len(remaining) > 0 && remaining[0] != dest {
			return Result{Value: strings.Join(remaining, "和"), Confidence: 0.9, Provenance: ProvRule, Evidence: "ip literal"}
		}
	}
	if v := compositeRegion(stripped); v != "" && v != dest {
		return Result{Value: v, Confidence: 0.85, Provenance: ProvRule, Evidence: v}
	}
	for _, entity := range schema.CustomerEntities {
		if strings.Contains(text, entity) {
			return Result{Value: entity, Confidence: 0.85, Provenance: ProvRule, Evidence: entity}
		}
	}
	if geo := firstGeoToken(stripped, dest); geo != "" {
		return Result{Value: geo, Confidence: 0.7, Provenance: ProvRule, Evidence: geo}
	}
	if prior.Source != "" {
		return Result{Value: prior.Source, Confidence: 0.8, Provenance: ProvRule, Evidence: "carried forward"}
	}
	return Result{}
}

func (e *RuleExtractor) extractDestination(text string, ctx *Context, timeValue string) Result {
	prior := ctx.prior()
	stripped := text
	if timeValue != "" {
		stripped = strings.Replace(stripped, timeValue, "", 1)
	}

	if m := destPhraseRe.FindStringSubmatch(text); m != nil {
		return Result{Value: m[1], Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := destIPHintRe.FindStringSubmatch(text); m != nil {
		return Result{Value: m[1], Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := destMarkerRe.FindStringSubmatch(stripped); m != nil {
		return Result{Value: m[1], Confidence: 0.9, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := fromToRe.FindStringSubmatch(stripped); m != nil {
		return Result{Value: m[2], Confidence: 0.9, Provenance: ProvRule, Evidence: m[0]}
	}
	for _, op := range operators {
		if strings.Contains(text, op) {
			return Result{Value: op, Confidence: 0.85, Provenance: ProvRule, Evidence: op}
		}
	}
	for _, cat := range destCategories {
		if strings.Contains(stripped, cat) {
			return Result{Value: cat, Confidence: 0.8, Provenance: ProvRule, Evidence: cat}
		}
	}
	if prior.Destination != "" {
		return Result{Value: prior.Destination, Confidence: 0.8, Provenance: ProvRule, Evidence: "carried forward"}
	}
	return Result{}
}

func (e *RuleExtractor) extractTimeRange(text string) Result {
	text = normalizeShortYears(text)

	if m := dateRangeRe.FindStringSubmatch(text); m != nil {
		v := dotToDash(m[1]) + "到" + dotToDash(m[2])
		return Result{Value: v, Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := monthDayRangeRe.FindStringSubmatch(text); m != nil {
		year, m1, d1, m2, d2 := m[1], m[2], m[3], m[4], m[5]
		if m2 == "" {
			m2 = m1 // "3月10日到30日" completes to the same month
		}
		v := fmt.Sprintf("%s%s月%s日到%s月%s日", year, m1, d1, m2, d2)
		return Result{Value: v, Confidence: 0.95, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := relativeTimeRe.FindStringSubmatch(text); m != nil {
		unit := m[2]
		if unit == "月" {
			unit = "个月"
		}
		return Result{Value: "最近" + m[1] + unit, Confidence: 0.9, Provenance: ProvRule, Evidence: m[0]}
	}
	for _, w := range simpleTimeWords {
		if strings.Contains(text, w) {
			return Result{Value: w, Confidence: 0.9, Provenance: ProvRule, Evidence: w}
		}
	}
	if m := quarterRe.FindStringSubmatch(text); m != nil {
		q := m[1]
		if q == "" {
			q = m[2]
		}
		return Result{Value: "第" + q + "季度", Confidence: 0.85, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := singleDateRe.FindStringSubmatch(text); m != nil {
		v := fmt.Sprintf("%s年%s月%s日", m[1], m[2], m[3])
		return Result{Value: v, Confidence: 0.8, Provenance: ProvRule, Evidence: m[0]}
	}
	if m := monthOnlyRe.FindStringSubmatch(text); m != nil {
		return Result{Value: m[1] + m[2] + "月", Confidence: 0.7, Provenance: ProvRule, Evidence: m[0]}
	}
	return Result{}
}

var granularityWords = []struct {
	word  string
	value string
}{
	{"逐时", "逐时"}, {"每小时", "逐时"}, {"小时粒度", "逐时"},
	{"逐日", "逐日"}, {"每天", "日"}, {"按天", "日"}, {"日均", "日"},
	{"逐月", "逐月"}, {"每月", "月"}, {"按月", "月"}, {"月均", "月"},
}

func (e *RuleExtractor) extractGranularity(text string, set func(schema.Slot, string, float64, string)) {
	for _, g := range granularityWords {
		if strings.Contains(text, g.word) {
			set(schema.SlotTimeGranularity, g.value, 0.9, g.word)
			return
		}
	}
}

var dataTypeWords = []struct {
	word  string
	value string
}{
	{"峰值", "流量峰值"}, {"最大流量", "流量峰值"},
	{"均值", "流量均值"}, {"平均流量", "流量均值"}, {"平均", "流量均值"},
	{"95值", "95值"},
}

func (e *RuleExtractor) extractDataType(text string, set func(schema.Slot, string, float64, string)) {
	for _, d := range dataTypeWords {
		if strings.Contains(text, d.word) {
			set(schema.SlotDataType, d.value, 0.9, d.word)
			return
		}
	}
}

func (e *RuleExtractor) extractDirections(text string, set func(schema.Slot, string, float64, string)) {
	hasOut := strings.Contains(text, "流出")
	hasIn := strings.Contains(text, "流入")
	switch {
	case strings.Contains(text, "双向"):
		set(schema.SlotFlowDirection, "双向", 0.9, "双向")
	case hasOut && hasIn:
		set(schema.SlotFlowDirection, "流出和流入", 0.85, "流出+流入")
	case hasOut:
		set(schema.SlotFlowDirection, "流出", 0.9, "流出")
	case hasIn:
		set(schema.SlotFlowDirection, "流入", 0.9, "流入")
	}

	switch {
	case strings.Contains(text, "上下行"):
		set(schema.SlotUpDownDirection, "上行和下行", 0.9, "上下行")
	case strings.Contains(text, "上行") && strings.Contains(text, "下行"):
		set(schema.SlotUpDownDirection, "上行和下行", 0.85, "上行+下行")
	case strings.Contains(text, "上行"):
		set(schema.SlotUpDownDirection, "上行", 0.9, "上行")
	case strings.Contains(text, "下行"):
		set(schema.SlotUpDownDirection, "下行", 0.9, "下行")
	}
}

func (e *RuleExtractor) extractExclusions(text string, set func(schema.Slot, string, float64, string)) {
	m := exclusionRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	var items []string
	for _, part := range schema.SplitList(m[1]) {
		part = strings.TrimSuffix(strings.TrimSuffix(part, "的"), "了")
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	if len(items) > 0 {
		set(schema.SlotExclusions, strings.Join(items, "和"), 0.9, m[0])
	}
}

func (e *RuleExtractor) extractEndpointTypes(text string, set func(schema.Slot, string, float64, string)) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "idc+man"), strings.Contains(text, "IDC+城域网"):
		set(schema.SlotSourceType, "IDC+MAN", 0.85, "idc+man")
	case strings.Contains(lower, "idc") && (strings.Contains(lower, "man") || strings.Contains(text, "城域网")):
		set(schema.SlotSourceType, "IDC+MAN", 0.8, "idc,man")
	case strings.Contains(lower, "idc"):
		set(schema.SlotSourceType, "IDC", 0.85, "idc")
	case strings.Contains(text, "城域网"), strings.Contains(lower, "man网"):
		set(schema.SlotSourceType, "MAN", 0.85, "城域网")
	case strings.Contains(text, "骨干网"):
		set(schema.SlotSourceType, "骨干网", 0.85, "骨干网")
	}
}

func (e *RuleExtractor) extractSupplementary(text string, set func(schema.Slot, string, float64, string)) {
	var notes []string
	if m := topNRe.FindStringSubmatch(text); m != nil {
		notes = append(notes, "取前"+m[1])
	}
	if strings.Contains(text, "细分") {
		notes = append(notes, "按类型进行细分统计")
	}
	if strings.Contains(text, "导出") || strings.Contains(text, "输出明细") {
		notes = append(notes, "输出明细")
	}
	if len(notes) > 0 {
		set(schema.SlotSupplementary, strings.Join(notes, "，"), 0.8, "supplementary keywords")
	}
}

// compositeRegion recognizes "浙江各地市" style province+city-breakdown
// endpoints.
func compositeRegion(text string) string {
	for _, p := range schema.Provinces {
		for _, suffix := range []string{"各地市", "省各地市", "各城市"} {
			if strings.Contains(text, p+suffix) {
				return p + "各地市"
			}
		}
	}
	return ""
}

func firstGeoToken(text, exclude string) string {
	for _, set := range [][]string{schema.Provinces, schema.Cities} {
		for _, name := range set {
			if name == exclude {
				continue
			}
			if exclude != "" && strings.Contains(exclude, name) {
				continue
			}
			if strings.Contains(text, name) {
				return name
			}
		}
	}
	return ""
}

func normalizeShortYears(text string) string {
	return shortYearRe.ReplaceAllStringFunc(text, func(m string) string {
		i := strings.Index(text, m)
		if i > 0 {
			prev := text[i-1]
			if prev >= '0' && prev <= '9' {
				return m
			}
		}
		return "20" + m
	})
}

func dotToDash(s string) string {
	s = strings.ReplaceAll(s, ".", "-")
	return strings.ReplaceAll(s, "/", "-")
}
