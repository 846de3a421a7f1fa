// Package extract resolves the twelve attribute slots from user text. A
// deterministic rule extractor and an LLM extractor each produce per-slot
// candidates; the merge engine reconciles them by confidence and
// validity, and the completeness checker decides what still has to be
// asked.
package extract

import "github.com/ziadkadry99/queryflow/internal/schema"

// Provenance tags the origin of an extracted value.
const (
	ProvRule = "rule"
	ProvLLM  = "llm"
)

// Result is one extractor's candidate for one slot.
type Result struct {
	Value      string
	Confidence float64
	Provenance string
	Evidence   string
}

// Results maps slots to extraction candidates. Absent slot = the
// extractor produced nothing for it.
type Results map[schema.Slot]Result

// Context carries the conversational surroundings of the current turn.
type Context struct {
	// Prior holds the attributes resolved on earlier turns, if any.
	Prior *schema.Attributes
	// History is the bounded window of prior user turns, oldest first.
	History []string
	// PriorPrompt is the clarification the assistant asked last turn.
	PriorPrompt string
	// SecondaryScene, when known, steers completeness phrasing.
	SecondaryScene string
}

func (c *Context) prior() *schema.Attributes {
	if c == nil || c.Prior == nil {
		return &schema.Attributes{}
	}
	return c.Prior
}
