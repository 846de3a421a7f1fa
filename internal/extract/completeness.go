package extract

import (
	"regexp"
	"strings"

	"github.com/ziadkadry99/queryflow/internal/schema"
)

// CompletenessResult reports whether the attribute set can proceed to
// question synthesis, and what to ask otherwise.
type CompletenessResult struct {
	Missing []schema.Slot
	Prompt  string
}

// Ready reports whether no required slot is missing.
func (c *CompletenessResult) Ready() bool { return len(c.Missing) == 0 }

var yearlessRangeRe = regexp.MustCompile(`^\d{1,2}月\d{1,2}日`)

// CheckCompleteness partitions the slots into strictly-required and
// contextually-required, and builds one scene-aware clarification prompt
// covering everything missing. time_range owns a default (近一个月) so
// its total absence default-fills rather than asks; a partial time (a
// dated range with no year) still asks.
func CheckCompleteness(secondaryScene string, attrs *schema.Attributes) *CompletenessResult {
	res := &CompletenessResult{}
	var asks []string

	if !attrs.Resolved(schema.SlotSource) {
		res.Missing = append(res.Missing, schema.SlotSource)
		if strings.Contains(attrs.SupplementaryInfo, "AI") {
			asks = append(asks, "麻烦补充下源端信息（AI对应IP具体是哪些？）")
		} else {
			asks = append(asks, sourcePrompt(secondaryScene))
		}
	}
	if !attrs.Resolved(schema.SlotDestination) {
		res.Missing = append(res.Missing, schema.SlotDestination)
		asks = append(asks, destinationPrompt(secondaryScene))
	}
	if attrs.TimeRange != "" && yearlessRangeRe.MatchString(attrs.TimeRange) {
		res.Missing = append(res.Missing, schema.SlotTimeRange)
		asks = append(asks, "请确认时间是哪一年的（如2025年3月10日到3月30日）")
	}

	// Non-geographic endpoints need an explicit type; geographic ones
	// were already silently typed IDC+MAN.
	if attrs.Source != "" && attrs.SourceType == "" && !schema.IsGeographic(attrs.Source) &&
		len(schema.ExtractIPs(attrs.Source)) == 0 && !schema.IsCustomerName(attrs.Source) {
		res.Missing = append(res.Missing, schema.SlotSourceType)
		asks = append(asks, "请确认源端类型（IDC、城域网还是IDC+MAN？）")
	}

	if len(asks) > 0 {
		res.Prompt = strings.Join(asks, "；")
	}
	return res
}

func sourcePrompt(scene string) string {
	switch scene {
	case schema.SceneIPTraff:
		return "请补充源端信息（具体是哪些IP或网段？）"
	case schema.SceneCustomer:
		return "请补充源端信息（具体是哪个客户或账号？）"
	case schema.SceneRegion:
		return "请补充源端信息（哪个省份或地市？）"
	}
	return "请补充源端信息"
}

func destinationPrompt(scene string) string {
	switch scene {
	case schema.SceneIPTraff:
		return "请补充对端信息（流向哪些IP或哪个方向？）"
	case schema.SceneRegion:
		return "请补充对端信息（省内、外省还是具体省份？）"
	}
	return "请补充对端信息"
}
