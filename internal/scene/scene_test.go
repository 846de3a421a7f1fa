package scene

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ziadkadry99/queryflow/internal/llm"
	"github.com/ziadkadry99/queryflow/internal/schema"
)

// mockProvider returns a fixed reply for every completion call.
type mockProvider struct {
	reply string
	err   error
	calls atomic.Int64
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.reply}, nil
}

func TestPrimaryAnomalyOverride(t *testing.T) {
	p := &PrimaryClassifier{provider: &mockProvider{reply: `{"scene": "流量流向分析"}`}}
	out := p.Classify(context.Background(), "查询pcdn异常流量", nil)
	if out.Chosen != schema.SceneAnomaly {
		t.Errorf("Chosen = %q, keyword correction must beat the LLM", out.Chosen)
	}
	if out.Confidence != 1 {
		t.Errorf("Confidence = %v", out.Confidence)
	}
}

func TestPrimaryCompositionSettlementExemption(t *testing.T) {
	p := &PrimaryClassifier{}
	out := p.Classify(context.Background(), "查询各类业务的流量占比", nil)
	if out.Chosen != schema.SceneComposition {
		t.Errorf("Chosen = %q", out.Chosen)
	}

	out = p.Classify(context.Background(), "查询结算详情中各项占比", nil)
	if out.Chosen == schema.SceneComposition {
		t.Error("结算详情 must exempt composition keywords")
	}
}

func TestPrimaryLLMChoice(t *testing.T) {
	m := &mockProvider{reply: `{"scene": "流量成分分析"}`}
	p := &PrimaryClassifier{provider: m}
	out := p.Classify(context.Background(), "帮我看看流量情况", nil)
	if out.Chosen != schema.SceneComposition {
		t.Errorf("Chosen = %q", out.Chosen)
	}
	if m.calls.Load() != 1 {
		t.Errorf("calls = %d", m.calls.Load())
	}
}

func TestPrimaryOutOfVocabularyDiscarded(t *testing.T) {
	p := &PrimaryClassifier{provider: &mockProvider{reply: `{"scene": "天气分析"}`}}
	out := p.Classify(context.Background(), "帮我看看流量情况", nil)
	if out.Chosen != schema.SceneFlow {
		t.Errorf("Chosen = %q, hallucinated label must fall back to default", out.Chosen)
	}
}

func TestPrimaryHistoryCarriesContext(t *testing.T) {
	p := &PrimaryClassifier{}
	out := p.Classify(context.Background(), "时间改成近一周", []string{"查询pcdn异常流量"})
	if out.Chosen != schema.SceneAnomaly {
		t.Errorf("Chosen = %q, a context-free follow-up must classify from history", out.Chosen)
	}
	if out.Confidence >= 1 {
		t.Errorf("Confidence = %v, history evidence must rank below a current-turn signal", out.Confidence)
	}
}

func TestPrimaryCurrentTurnBeatsHistory(t *testing.T) {
	p := &PrimaryClassifier{}
	out := p.Classify(context.Background(), "查询各类业务的流量占比", []string{"查询pcdn异常流量"})
	if out.Chosen != schema.SceneComposition {
		t.Errorf("Chosen = %q, current turn signal must win over history", out.Chosen)
	}
}

func TestSecondaryPriority(t *testing.T) {
	c := &SecondaryClassifier{}
	cases := []struct {
		text string
		want string
	}{
		{"查询【天翼云科技】的流量", schema.SceneCustomer},
		{"查询1.2.3.4的流量", schema.SceneIPTraff},
		{"查询1.2.3.4所在地市的流量", schema.SceneRegion},  // 地市 reclaims an IP query
		{"查询客户端口8080的流量", schema.SceneIPTraff}, // 端口 beats customer
		{"查询浙江的流量", schema.SceneRegion},
		{"随便看看", schema.SceneRegion}, // domain default
	}
	for _, tc := range cases {
		out := c.Classify(context.Background(), tc.text, nil, ThresholdRecheck)
		if out.Chosen != tc.want {
			t.Errorf("secondary(%q) = %q, want %q", tc.text, out.Chosen, tc.want)
		}
	}
}

func TestSecondaryLLMFallbackGuard(t *testing.T) {
	m := &mockProvider{reply: `{"scene": "端口流量分析"}`}
	c := &SecondaryClassifier{provider: m}
	out := c.Classify(context.Background(), "随便看看", nil, ThresholdRecheck)
	if out.Chosen != schema.SceneRegion {
		t.Errorf("Chosen = %q, invalid LLM label must fall back to default", out.Chosen)
	}
}

func TestSecondaryTieBreakIsDeterministic(t *testing.T) {
	c := &SecondaryClassifier{}
	for i := 0; i < 50; i++ {
		out := c.Classify(context.Background(), "客户的1.2.3.4", nil, ThresholdRecheck)
		if out.Chosen != schema.SceneCustomer {
			t.Fatalf("run %d: Chosen = %q, customer signal must outrank an equal-scored IP literal", i, out.Chosen)
		}
	}
}

func TestThirdCustomerIDBeatsSubnet(t *testing.T) {
	c := &ThirdClassifier{}
	out := c.Classify(context.Background(), "客户id为123的10.0.0.0/8网段流量", nil, schema.SceneCustomer, ThresholdRecheck)
	if out.Chosen != schema.ThirdCustomer {
		t.Errorf("Chosen = %q, customer identity outranks topology", out.Chosen)
	}
	for _, cand := range out.Candidates {
		if cand.Name == schema.ThirdSubnet && cand.Score > 0.5 {
			t.Errorf("subnet score = %v, should be suppressed", cand.Score)
		}
	}
}

func TestThirdPortBeatsIP(t *testing.T) {
	c := &ThirdClassifier{}
	out := c.Classify(context.Background(), "查询1.2.3.4端口流量详情", nil, schema.SceneIPTraff, ThresholdRecheck)
	if out.Chosen != schema.ThirdPort {
		t.Errorf("Chosen = %q", out.Chosen)
	}
}

func TestThirdMultipleIPs(t *testing.T) {
	c := &ThirdClassifier{}
	out := c.Classify(context.Background(), "查询1.2.3.4和5.6.7.8的流量", nil, schema.SceneIPTraff, ThresholdRecheck)
	if out.Chosen != schema.ThirdIP {
		t.Errorf("Chosen = %q", out.Chosen)
	}
}

func TestThirdCityFromRegionQuery(t *testing.T) {
	c := &ThirdClassifier{}
	out := c.Classify(context.Background(), "查询浙江各地市idc省内流出流入的月均流量", nil, schema.SceneRegion, ThresholdRecheck)
	if out.Chosen != schema.ThirdCity {
		t.Errorf("Chosen = %q, want 地市", out.Chosen)
	}
}

func TestThirdUnresolvedPromptsCandidates(t *testing.T) {
	c := &ThirdClassifier{}
	out := c.Classify(context.Background(), "随便看看", nil, "", ThresholdInitial)
	if out.Resolved() {
		t.Fatalf("Chosen = %q, want unresolved", out.Chosen)
	}
	if !strings.Contains(out.Prompt, schema.ThirdIP) || !strings.Contains(out.Prompt, schema.ThirdCity) {
		t.Errorf("Prompt = %q, must name the candidate set", out.Prompt)
	}
}

func TestThirdLLMFallbackClosedVocabulary(t *testing.T) {
	valid := &mockProvider{reply: `{"scene": "地市"}`}
	c := &ThirdClassifier{provider: valid}
	out := c.Classify(context.Background(), "看看流量分布", nil, schema.SceneRegion, ThresholdInitial)
	if out.Chosen != schema.ThirdCity {
		t.Errorf("Chosen = %q", out.Chosen)
	}

	invalid := &mockProvider{reply: `{"scene": "火星流量"}`}
	c = &ThirdClassifier{provider: invalid}
	out = c.Classify(context.Background(), "看看流量分布", nil, schema.SceneRegion, ThresholdInitial)
	if out.Resolved() {
		t.Errorf("Chosen = %q, out-of-vocabulary answer must be discarded", out.Chosen)
	}
}

func TestThirdRelatedBoost(t *testing.T) {
	c := &ThirdClassifier{}
	out := c.Classify(context.Background(), "看看流量分布", nil, schema.SceneRegion, ThresholdInitial)
	var cityScore, ipScore float64
	for _, cand := range out.Candidates {
		switch cand.Name {
		case schema.ThirdCity:
			cityScore = cand.Score
		case schema.ThirdIP:
			ipScore = cand.Score
		}
	}
	if cityScore <= ipScore {
		t.Errorf("city %v <= ip %v, related labels should be boosted", cityScore, ipScore)
	}
}
