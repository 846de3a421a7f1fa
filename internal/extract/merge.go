package extract

import "github.com/ziadkadry99/queryflow/internal/schema"

// Merge thresholds. A rule hit at or above ruleAccept wins outright; an
// LLM hit needs both llmAccept and a margin over the rule confidence.
const (
	ruleAccept   = 0.9
	llmAccept    = 0.7
	llmMargin    = 0.15
	clarifyBelow = 0.5
)

// MergedField is the reconciled outcome for one slot.
type MergedField struct {
	Slot       schema.Slot
	Value      string
	Confidence float64
	Source     string // rule | llm | none
	RuleValue  string
	LLMValue   string
}

// Merged is one turn's authoritative attribute update.
type Merged struct {
	Fields map[schema.Slot]MergedField
	// Clarify lists slots where a value was attempted but the merged
	// result is invalid or below the clarify threshold. Slots that
	// neither extractor touched are left for default filling and are
	// NOT listed here.
	Clarify []schema.Slot
}

// MergeField reconciles one slot's two candidates.
func MergeField(slot schema.Slot, rule, llmRes Result) MergedField {
	out := MergedField{Slot: slot, Source: "none", RuleValue: rule.Value, LLMValue: llmRes.Value}

	ruleValid := rule.Value != "" && schema.Validate(slot, rule.Value)
	llmValid := llmRes.Value != "" && schema.Validate(slot, llmRes.Value)

	switch {
	case ruleValid && rule.Confidence >= ruleAccept:
		out.Value, out.Confidence, out.Source = rule.Value, rule.Confidence, ProvRule
	case llmValid && llmRes.Confidence >= llmAccept && llmRes.Confidence >= rule.Confidence+llmMargin:
		out.Value, out.Confidence, out.Source = llmRes.Value, llmRes.Confidence, ProvLLM
	case ruleValid && llmValid:
		// At equal confidence the LLM wins: natural-language nuance
		// outweighs pattern rigidity.
		if rule.Confidence > llmRes.Confidence {
			out.Value, out.Confidence, out.Source = rule.Value, rule.Confidence, ProvRule
		} else {
			out.Value, out.Confidence, out.Source = llmRes.Value, llmRes.Confidence, ProvLLM
		}
	case ruleValid:
		out.Value, out.Confidence, out.Source = rule.Value, rule.Confidence, ProvRule
	case llmValid:
		out.Value, out.Confidence, out.Source = llmRes.Value, llmRes.Confidence, ProvLLM
	}
	return out
}

// MergeAll reconciles both extractors' full outputs.
func MergeAll(ruleRes, llmRes Results) *Merged {
	m := &Merged{Fields: make(map[schema.Slot]MergedField, len(schema.Slots))}
	for _, slot := range schema.Slots {
		r, hasRule := ruleRes[slot]
		l, hasLLM := llmRes[slot]
		if !hasRule && !hasLLM {
			continue // untouched: default-fill territory, not a conflict
		}
		field := MergeField(slot, r, l)
		m.Fields[slot] = field
		if field.Value == "" || field.Confidence < clarifyBelow {
			m.Clarify = append(m.Clarify, slot)
		}
	}
	return m
}

// Apply writes the merged fields into the attribute set, then fills
// defaults and derives geographic endpoint types.
func (m *Merged) Apply(attrs *schema.Attributes) {
	for _, slot := range schema.Slots {
		field, ok := m.Fields[slot]
		if !ok || field.Value == "" {
			continue
		}
		attrs.Set(slot, field.Value)
	}
	attrs.DeriveEndpointTypes()
	attrs.ApplyDefaults()
}
