package schema

import "strings"

// Validator reports whether a string form of a slot value is usable.
type Validator func(string) bool

var flowDirections = map[string]bool{
	"流出": true, "流入": true, "双向": true, "流入流出": true,
}

var speedUnits = map[string]bool{
	"gbps": true, "mbps": true, "gb": true, "mb": true,
}

// validators holds the per-slot validity predicates. Slots without an
// entry accept any non-empty value.
var validators = map[Slot]Validator{
	SlotSource:      nonEmpty,
	SlotDestination: nonEmpty,
	SlotTimeRange:   validTimeRange,
	SlotFlowDirection: func(v string) bool {
		if v == "" {
			return false
		}
		for _, part := range splitAny(v, []string{"和", "、", "，", ","}) {
			if part != "" && !flowDirections[part] {
				return false
			}
		}
		return true
	},
}

// Validate applies the slot's validity predicate.
func Validate(slot Slot, value string) bool {
	if v, ok := validators[slot]; ok {
		return v(value)
	}
	return value != ""
}

// ValidSpeedUnit reports whether v names a recognized rate/volume unit.
func ValidSpeedUnit(v string) bool {
	return speedUnits[strings.ToLower(strings.TrimSpace(v))]
}

func nonEmpty(v string) bool { return strings.TrimSpace(v) != "" }

// A usable time range carries either a digit or a relative-time word.
func validTimeRange(v string) bool {
	if strings.TrimSpace(v) == "" {
		return false
	}
	if strings.ContainsAny(v, "0123456789") {
		return true
	}
	for _, w := range []string{"月", "天", "日", "小时", "星期", "周"} {
		if strings.Contains(v, w) {
			return true
		}
	}
	return false
}
