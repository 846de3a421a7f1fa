package schema

// Slot identifies one of the twelve attribute slots.
type Slot string

const (
	SlotSource          Slot = "source"
	SlotDestination     Slot = "destination"
	SlotSourceType      Slot = "source_type"
	SlotDestinationType Slot = "destination_type"
	SlotTimeRange       Slot = "time_range"
	SlotTimeGranularity Slot = "time_granularity"
	SlotFlowDirection   Slot = "flow_direction"
	SlotDataType        Slot = "data_type"
	SlotExclusions      Slot = "exclusion_conditions"
	SlotFuzzyMatch      Slot = "fuzzy_match"
	SlotUpDownDirection Slot = "up_down_direction"
	SlotSupplementary   Slot = "supplementary_info"
)

// Slots lists every slot in canonical order.
var Slots = []Slot{
	SlotSource, SlotDestination, SlotSourceType, SlotDestinationType,
	SlotTimeRange, SlotTimeGranularity, SlotFlowDirection, SlotDataType,
	SlotExclusions, SlotFuzzyMatch, SlotUpDownDirection, SlotSupplementary,
}

// ChineseName maps a slot to the field name used in the wire-level
// attribute bag and in clarification prompts.
var ChineseName = map[Slot]string{
	SlotSource:          "源端",
	SlotDestination:     "对端",
	SlotSourceType:      "源端类型",
	SlotDestinationType: "对端类型",
	SlotTimeRange:       "时间",
	SlotTimeGranularity: "时间粒度",
	SlotFlowDirection:   "流向",
	SlotDataType:        "数据类型",
	SlotExclusions:      "剔除条件",
	SlotFuzzyMatch:      "模糊匹配",
	SlotUpDownDirection: "上行下行",
	SlotSupplementary:   "补充信息",
}

// SlotByChineseName is the inverse of ChineseName.
var SlotByChineseName = func() map[string]Slot {
	m := make(map[string]Slot, len(ChineseName))
	for slot, name := range ChineseName {
		m[name] = slot
	}
	return m
}()

// Slot defaults applied when neither extractor produced a value.
const (
	DefaultTimeGranularity = "逐时"
	DefaultFlowDirection   = "流出"
	DefaultDataType        = "流量均值"
	DefaultUpDownDirection = "上行"

	// GeographicEndpointType is filled silently for source/destination
	// values recognized as geographic; the user is never asked for it.
	GeographicEndpointType = "IDC+MAN"
)

// Attributes is the fixed attribute record owned by a conversation. Slots
// are additive across turns: a later turn never erases a resolved slot
// unless the new input explicitly updates it.
type Attributes struct {
	Source            string   `json:"源端,omitempty"`
	Destination       string   `json:"对端,omitempty"`
	SourceType        string   `json:"源端类型,omitempty"`
	DestinationType   string   `json:"对端类型,omitempty"`
	TimeRange         string   `json:"时间,omitempty"`
	TimeGranularity   string   `json:"时间粒度,omitempty"`
	FlowDirection     string   `json:"流向,omitempty"`
	DataType          string   `json:"数据类型,omitempty"`
	Exclusions        []string `json:"剔除条件,omitempty"`
	FuzzyMatch        bool     `json:"模糊匹配,omitempty"`
	UpDownDirection   string   `json:"上行下行,omitempty"`
	SupplementaryInfo string   `json:"补充信息,omitempty"`
}

// Get returns the string value of a slot. Exclusions are returned joined
// with "和"; fuzzy match as "是"/"".
func (a *Attributes) Get(slot Slot) string {
	switch slot {
	case SlotSource:
		return a.Source
	case SlotDestination:
		return a.Destination
	case SlotSourceType:
		return a.SourceType
	case SlotDestinationType:
		return a.DestinationType
	case SlotTimeRange:
		return a.TimeRange
	case SlotTimeGranularity:
		return a.TimeGranularity
	case SlotFlowDirection:
		return a.FlowDirection
	case SlotDataType:
		return a.DataType
	case SlotExclusions:
		return joinValues(a.Exclusions)
	case SlotFuzzyMatch:
		if a.FuzzyMatch {
			return "是"
		}
		return ""
	case SlotUpDownDirection:
		return a.UpDownDirection
	case SlotSupplementary:
		return a.SupplementaryInfo
	}
	return ""
}

// Set assigns a slot from its string form. Exclusions split on "和";
// fuzzy match treats any non-empty value as true.
func (a *Attributes) Set(slot Slot, value string) {
	switch slot {
	case SlotSource:
		a.Source = value
	case SlotDestination:
		a.Destination = value
	case SlotSourceType:
		a.SourceType = value
	case SlotDestinationType:
		a.DestinationType = value
	case SlotTimeRange:
		a.TimeRange = value
	case SlotTimeGranularity:
		a.TimeGranularity = value
	case SlotFlowDirection:
		a.FlowDirection = value
	case SlotDataType:
		a.DataType = value
	case SlotExclusions:
		a.Exclusions = splitValues(value)
	case SlotFuzzyMatch:
		a.FuzzyMatch = value != ""
	case SlotUpDownDirection:
		a.UpDownDirection = value
	case SlotSupplementary:
		a.SupplementaryInfo = value
	}
}

// Resolved reports whether the slot holds a value passing its validator.
func (a *Attributes) Resolved(slot Slot) bool {
	return Validate(slot, a.Get(slot))
}

// ApplyDefaults fills the defaultable slots that are still empty.
func (a *Attributes) ApplyDefaults() {
	if a.TimeGranularity == "" {
		a.TimeGranularity = DefaultTimeGranularity
	}
	if a.FlowDirection == "" {
		a.FlowDirection = DefaultFlowDirection
	}
	if a.DataType == "" {
		a.DataType = DefaultDataType
	}
	if a.UpDownDirection == "" {
		a.UpDownDirection = DefaultUpDownDirection
	}
}

// DeriveEndpointTypes fills source/destination types for geographic
// endpoints without asking the user.
func (a *Attributes) DeriveEndpointTypes() {
	if a.SourceType == "" && IsGeographic(a.Source) {
		a.SourceType = GeographicEndpointType
	}
	if a.DestinationType == "" && IsGeographic(a.Destination) {
		a.DestinationType = GeographicEndpointType
	}
}

// Clone returns a deep copy.
func (a *Attributes) Clone() *Attributes {
	c := *a
	c.Exclusions = append([]string(nil), a.Exclusions...)
	return &c
}

func joinValues(vs []string) string {
	out := ""
	for i, v := range vs {
		if i > 0 {
			out += "和"
		}
		out += v
	}
	return out
}

func splitValues(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range splitAny(s, []string{"和", "、", "，", ","}) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
