// Package scene implements the three-level classification cascade. Each
// level scores its closed label vocabulary with deterministic rules and
// exclusive overrides, and falls back to the completion service only
// when the rule score stays below the level threshold. An LLM answer
// outside the valid label set is discarded: the completion service is
// not constrained to a closed vocabulary and may hallucinate.
package scene

import (
	"context"
	"sort"
	"strings"

	"github.com/ziadkadry99/queryflow/internal/llm"
)

// Level thresholds. Initial classification demands more rule evidence
// than an in-flow re-check of a pending level.
const (
	ThresholdInitial = 0.5
	ThresholdRecheck = 0.3
)

// Candidate is one scored label at one level.
type Candidate struct {
	Name    string   `json:"name"`
	Raw     int      `json:"raw_score"`
	Score   float64  `json:"score"`
	Signals []string `json:"signals,omitempty"`
}

// Outcome is the result of one classification level.
type Outcome struct {
	Chosen     string      `json:"chosen,omitempty"`
	Confidence float64     `json:"confidence"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Prompt     string      `json:"prompt,omitempty"`
}

// Resolved reports whether the level settled on a label.
func (o *Outcome) Resolved() bool { return o.Chosen != "" }

// Hinter supplies labeled example queries similar to the input, used as
// few-shot context in fallback prompts. A nil Hinter or empty result
// leaves the prompt unchanged.
type Hinter interface {
	Similar(ctx context.Context, text string, k int) []string
}

// Classifiers bundles the three levels with their shared dependencies.
type Classifiers struct {
	Primary   *PrimaryClassifier
	Secondary *SecondaryClassifier
	Third     *ThirdClassifier
}

// New constructs the cascade. provider may be nil, in which case every
// level runs rule-only.
func New(provider llm.Provider, model string, hinter Hinter, fewshotK int) *Classifiers {
	return &Classifiers{
		Primary:   &PrimaryClassifier{provider: provider, model: model, hinter: hinter, fewshotK: fewshotK},
		Secondary: &SecondaryClassifier{provider: provider, model: model},
		Third:     &ThirdClassifier{provider: provider, model: model, hinter: hinter, fewshotK: fewshotK},
	}
}

func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
}

func fewshotBlock(ctx context.Context, hinter Hinter, text string, k int) string {
	if hinter == nil || k <= 0 {
		return ""
	}
	examples := hinter.Similar(ctx, text, k)
	if len(examples) == 0 {
		return ""
	}
	return "\n参考示例：\n" + strings.Join(examples, "\n")
}
