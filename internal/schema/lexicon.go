package schema

import "strings"

// Provinces covers the mainland provincial names used in traffic reports.
var Provinces = []string{
	"北京", "天津", "河北", "山西", "内蒙古", "辽宁", "吉林", "黑龙江",
	"上海", "江苏", "浙江", "安徽", "福建", "江西", "山东", "河南",
	"湖北", "湖南", "广东", "广西", "海南", "重庆", "四川", "贵州",
	"云南", "西藏", "陕西", "甘肃", "青海", "宁夏", "新疆",
}

// Cities covers the in-province city names.
var Cities = []string{
	"杭州", "宁波", "温州", "嘉兴", "湖州", "绍兴", "金华", "衢州",
	"舟山", "台州", "丽水",
}

// GeographicCategories are aggregate place words that behave like
// geographic endpoints.
var GeographicCategories = []string{
	"本省", "外省", "省内", "省外", "跨省", "省际", "全国", "各地市", "地市",
}

// CustomerEntities are named organizations that identify a customer even
// without an explicit customer keyword.
var CustomerEntities = []string{"气象局", "公安局", "税务局", "人民银行"}

// CustomerKeywords signal that the query is about a specific customer.
var CustomerKeywords = []string{"客户", "专线客户", "大客户"}

// EndpointTypes are the recognized endpoint type names.
var EndpointTypes = []string{"IDC", "城域网", "MAN", "IDC+MAN", "骨干网"}

// IsGeographic reports whether value names a province, city, or
// geographic category (possibly a list of them).
func IsGeographic(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	parts := splitAny(value, []string{"和", "、", "，", ","})
	matched := false
	for _, part := range parts {
		if part == "" {
			continue
		}
		if !isGeographicToken(part) {
			return false
		}
		matched = true
	}
	return matched
}

func isGeographicToken(tok string) bool {
	for _, set := range [][]string{Provinces, Cities, GeographicCategories} {
		for _, name := range set {
			if tok == name || strings.TrimSuffix(tok, "省") == name || strings.TrimSuffix(tok, "市") == name {
				return true
			}
		}
	}
	// "浙江各地市" style composites.
	for _, name := range GeographicCategories {
		if strings.HasSuffix(tok, name) && containsAny(tok, Provinces) {
			return true
		}
	}
	return false
}

// IsCustomerName reports whether text carries a customer signal: a
// customer keyword, a named entity, or a 【name】 bracket.
func IsCustomerName(text string) bool {
	if strings.Contains(text, "【") && strings.Contains(text, "】") {
		return true
	}
	return containsAny(text, CustomerKeywords) || containsAny(text, CustomerEntities)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether text contains any of words.
func ContainsAny(text string, words []string) bool { return containsAny(text, words) }
