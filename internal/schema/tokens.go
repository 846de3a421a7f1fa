package schema

import (
	"regexp"
	"strings"
)

var (
	// IPPattern matches a dotted IPv4 literal.
	IPPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	// CIDRPattern matches an IPv4 network in prefix notation.
	CIDRPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}/\d{1,2}\b`)

	asciiRun = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9.+/_-]*`)
)

// ExtractIPs returns the IPv4 literals in text, in order, deduplicated.
// CIDR prefixes are returned whole, not as their base address.
func ExtractIPs(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range CIDRPattern.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	masked := CIDRPattern.ReplaceAllString(text, " ")
	for _, m := range IPPattern.FindAllString(masked, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// tokenLexicon is every domain word Tokenize recognizes, longest first
// so composites win over their substrings.
var tokenLexicon = func() []string {
	var words []string
	words = append(words, PrimaryScenes...)
	words = append(words, SecondaryScenes...)
	words = append(words, ThirdScenes...)
	words = append(words, Provinces...)
	words = append(words, Cities...)
	words = append(words, GeographicCategories...)
	words = append(words, CustomerEntities...)
	words = append(words, CustomerKeywords...)
	words = append(words, EndpointTypes...)
	words = append(words,
		"客户id", "客户ID", "账号", "端口", "网段", "路由器", "路由",
		"结算详情", "结算数据", "剔除", "排除", "模糊匹配",
		"流出", "流入", "双向", "上行", "下行", "逐时", "逐日", "逐月",
		"流量均值", "流量峰值", "月均流量", "日均流量",
	)
	// Longest-match ordering.
	for i := 1; i < len(words); i++ {
		for j := i; j > 0 && len(words[j]) > len(words[j-1]); j-- {
			words[j], words[j-1] = words[j-1], words[j]
		}
	}
	return words
}()

// Tokenize extracts the recognizable domain tokens from text: IP/CIDR
// literals, lexicon words, and ASCII identifier runs. Order follows first
// occurrence; duplicates are removed.
func Tokenize(text string) []string {
	type hit struct {
		pos int
		tok string
	}
	var hits []hit
	seen := map[string]bool{}
	add := func(pos int, tok string) {
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		hits = append(hits, hit{pos, tok})
	}

	for _, ip := range ExtractIPs(text) {
		add(strings.Index(text, ip), ip)
	}
	masked := CIDRPattern.ReplaceAllStringFunc(text, blank)
	masked = IPPattern.ReplaceAllStringFunc(masked, blank)
	for _, w := range tokenLexicon {
		if i := strings.Index(masked, w); i >= 0 {
			add(i, w)
		}
	}
	for _, loc := range asciiRun.FindAllStringIndex(masked, -1) {
		add(loc[0], masked[loc[0]:loc[1]])
	}

	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.tok
	}
	return out
}

func blank(s string) string { return strings.Repeat(" ", len(s)) }

// AccumulateKeywords merges the history keyword set with the current
// turn's tokens, preserving order and dropping duplicates. When reset is
// true (a fresh session or task) only the current tokens are kept.
func AccumulateKeywords(history, current []string, reset bool) []string {
	if reset {
		return dedup(current)
	}
	return dedup(append(append([]string{}, history...), current...))
}

func dedup(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// splitAny splits s on every separator in seps.
func splitAny(s string, seps []string) []string {
	parts := []string{s}
	for _, sep := range seps {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// SplitList splits a Chinese-style enumeration on the usual connectors.
func SplitList(s string) []string {
	var out []string
	for _, p := range splitAny(s, []string{"和", "或", "、", "，", ","}) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
