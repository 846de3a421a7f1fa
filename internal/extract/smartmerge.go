package extract

import (
	"strings"

	"github.com/ziadkadry99/queryflow/internal/schema"
)

// promptSlotWords maps slot-indicative wording in a clarification prompt
// to the slot it asked about.
var promptSlotWords = map[schema.Slot][]string{
	schema.SlotTimeRange:       {"时间", "哪一年", "几月", "哪个月"},
	schema.SlotSource:          {"源端", "源IP", "源ip"},
	schema.SlotDestination:     {"对端", "目的端", "目的IP"},
	schema.SlotTimeGranularity: {"时间粒度", "粒度"},
	schema.SlotExclusions:      {"剔除", "排除"},
}

// RequestedSlots scans the prior clarification prompt for the slots the
// assistant explicitly asked about.
func RequestedSlots(priorPrompt string) map[schema.Slot]bool {
	requested := map[schema.Slot]bool{}
	if priorPrompt == "" {
		return requested
	}
	for slot, words := range promptSlotWords {
		for _, w := range words {
			if strings.Contains(priorPrompt, w) {
				requested[slot] = true
				break
			}
		}
	}
	return requested
}

// SmartMerge applies a revision turn's merged fields onto previously
// resolved attributes. Only slots the assistant asked about, or slots
// whose content pattern is unambiguously present in the new text, are
// overwritten; everything else is preserved so a short corrective reply
// cannot wipe resolved context. Returns the updated attribute set.
func SmartMerge(prior *schema.Attributes, update *Merged, priorPrompt string) *schema.Attributes {
	attrs := prior.Clone()
	requested := RequestedSlots(priorPrompt)

	for _, slot := range schema.Slots {
		field, ok := update.Fields[slot]
		if !ok || field.Value == "" {
			continue
		}
		if field.RuleValue != "" && field.RuleValue == attrs.Get(slot) && !requested[slot] {
			// A carried-forward echo of the existing value, not an update.
			continue
		}
		if !requested[slot] && !unambiguous(slot, field) {
			continue
		}
		if slot == schema.SlotExclusions {
			attrs.Exclusions = unionValues(attrs.Exclusions, schema.SplitList(field.Value))
			continue
		}
		attrs.Set(slot, field.Value)
	}

	// Updated endpoints re-derive their types.
	if src, ok := update.Fields[schema.SlotSource]; ok && src.Value != "" && src.Value == attrs.Source {
		if schema.IsGeographic(attrs.Source) {
			attrs.SourceType = schema.GeographicEndpointType
		}
	}
	if dst, ok := update.Fields[schema.SlotDestination]; ok && dst.Value != "" && dst.Value == attrs.Destination {
		if schema.IsGeographic(attrs.Destination) {
			attrs.DestinationType = schema.GeographicEndpointType
		}
	}
	attrs.ApplyDefaults()
	return attrs
}

// unambiguous reports whether the new value's content pattern identifies
// its slot on its own: an IP literal for an endpoint, a dated range for
// time, an exclusion that came from an explicit 剔除 marker.
func unambiguous(slot schema.Slot, field MergedField) bool {
	switch slot {
	case schema.SlotTimeRange:
		return field.Source == ProvRule && field.Confidence >= 0.85
	case schema.SlotSource, schema.SlotDestination:
		return len(schema.ExtractIPs(field.Value)) > 0 && field.Source == ProvRule
	case schema.SlotExclusions:
		return field.Source == ProvRule && field.Confidence >= 0.85
	case schema.SlotTimeGranularity, schema.SlotFlowDirection, schema.SlotUpDownDirection, schema.SlotDataType:
		return field.Source == ProvRule && field.Confidence >= 0.85
	}
	return false
}

func unionValues(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range append(append([]string{}, a...), b...) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
