package resolver

import (
	"context"
	"reflect"
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

func ruleOnlyEngine() *Engine {
	return NewEngine(Options{})
}

func TestCasualChatSkipsPipelines(t *testing.T) {
	m := &mockProvider{reply: `{"scene": "流量流向分析"}`}
	e := NewEngine(Options{Provider: m, Model: "test"})

	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:  "s1",
		StatusCode: StatusNewSession,
		UserInput:  "你好",
	})
	if resp.StatusCode != StatusCasualChat {
		t.Fatalf("StatusCode = %d, want %d", resp.StatusCode, StatusCasualChat)
	}
	if resp.AnalysisResult == "" {
		t.Error("casual chat reply must carry a greeting")
	}
	if got := m.calls.Load(); got != 0 {
		t.Errorf("provider called %d times on a casual turn, want 0", got)
	}
}

func TestFullTurnRegionQuery(t *testing.T) {
	e := ruleOnlyEngine()

	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:  "s1",
		StatusCode: StatusNewSession,
		UserInput:  "查询浙江各地市idc省内流出流入的月均流量，剔除天翼云和天翼看家",
	})
	if resp.StatusCode != StatusConfirmation {
		t.Fatalf("StatusCode = %d (analysis %q), want %d", resp.StatusCode, resp.AnalysisResult, StatusConfirmation)
	}
	if resp.SecondaryScene != schema.SceneRegion {
		t.Errorf("SecondaryScene = %q", resp.SecondaryScene)
	}
	if resp.Intermediate.ThirdScene != schema.ThirdCity {
		t.Errorf("ThirdScene = %q", resp.Intermediate.ThirdScene)
	}

	attrs := resp.Intermediate.Attributes
	if attrs == nil {
		t.Fatal("Attributes missing from intermediate result")
	}
	if attrs.Source != "浙江各地市" {
		t.Errorf("Source = %q", attrs.Source)
	}
	if attrs.Destination != "省内" {
		t.Errorf("Destination = %q", attrs.Destination)
	}
	if attrs.TimeGranularity != "月" {
		t.Errorf("TimeGranularity = %q", attrs.TimeGranularity)
	}
	if attrs.FlowDirection != "流出和流入" {
		t.Errorf("FlowDirection = %q", attrs.FlowDirection)
	}
	if len(attrs.Exclusions) != 2 {
		t.Errorf("Exclusions = %v", attrs.Exclusions)
	}

	if resp.Question == "" || !strings.Contains(resp.Question, "浙江各地市") {
		t.Errorf("Question = %q", resp.Question)
	}
	if !strings.HasPrefix(resp.AnalysisResult, "请确认问题：") {
		t.Errorf("AnalysisResult = %q", resp.AnalysisResult)
	}
	if len(resp.Rewrites) == 0 {
		t.Error("no rewrites returned")
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	e := ruleOnlyEngine()
	req := func() *TurnRequest {
		return &TurnRequest{
			SessionID:  "s1",
			StatusCode: StatusNewSession,
			UserInput:  "查询杭州到外省近一周的流量峰值",
		}
	}
	a := e.Resolve(context.Background(), req())
	b := e.Resolve(context.Background(), req())
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input produced different replies:\n%+v\n%+v", a, b)
	}
}

func TestUnknownStatusCode(t *testing.T) {
	e := ruleOnlyEngine()
	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:    "s1",
		StatusCode:   999,
		UserInput:    "查询流量",
		HistoryInput: []string{"查询流量"},
	})
	if resp.StatusCode != StatusSceneMismatch {
		t.Fatalf("StatusCode = %d, want %d", resp.StatusCode, StatusSceneMismatch)
	}
	if resp.Error == "" {
		t.Error("unknown status must set the error field")
	}
}

func TestDeclaredPrimaryMismatch(t *testing.T) {
	e := ruleOnlyEngine()
	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:    "s1",
		StatusCode:   StatusFieldPending,
		UserInput:    "查询杭州的流量",
		HistoryInput: []string{"查询杭州的流量"},
		PrimaryScene: schema.SceneAnomaly,
	})
	if resp.StatusCode != StatusSceneMismatch {
		t.Fatalf("StatusCode = %d, want %d", resp.StatusCode, StatusSceneMismatch)
	}
	if resp.PrimaryScene != schema.SceneFlow {
		t.Errorf("corrected PrimaryScene = %q", resp.PrimaryScene)
	}
}

func TestConfirmationAdvancesDownstream(t *testing.T) {
	e := ruleOnlyEngine()
	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:      "s1",
		StatusCode:     StatusConfirmation,
		UserInput:      "确认",
		HistoryInput:   []string{"查询杭州到外省的流量"},
		PrimaryScene:   schema.SceneFlow,
		SecondaryScene: schema.SceneRegion,
		Intermediate: IntermediateResult{
			Questions: []string{"查询近一个月内，杭州到外省的流量", "请帮我查询近一个月内，杭州到外省的流量"},
		},
	})
	if resp.StatusCode != StatusDownstream {
		t.Fatalf("StatusCode = %d, want %d", resp.StatusCode, StatusDownstream)
	}
	if resp.Question != "查询近一个月内，杭州到外省的流量" {
		t.Errorf("Question = %q", resp.Question)
	}
	if len(resp.Rewrites) != 1 {
		t.Errorf("Rewrites = %v", resp.Rewrites)
	}
}

func TestConfirmationAtNonDefaultPrimaryScene(t *testing.T) {
	e := ruleOnlyEngine()
	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:      "s1",
		StatusCode:     StatusConfirmation,
		UserInput:      "确认",
		HistoryInput:   []string{"查询pcdn异常流量"},
		PrimaryScene:   schema.SceneAnomaly,
		SecondaryScene: schema.SceneRegion,
		Intermediate: IntermediateResult{
			Questions: []string{"查询近一个月内，全省的pcdn异常流量"},
		},
	})
	if resp.StatusCode != StatusDownstream {
		t.Fatalf("StatusCode = %d (analysis %q), want %d: a bare confirmation must not re-open scene matching",
			resp.StatusCode, resp.AnalysisResult, StatusDownstream)
	}
	if resp.Question != "查询近一个月内，全省的pcdn异常流量" {
		t.Errorf("Question = %q", resp.Question)
	}
}

func TestRevisionKeepsDeclaredSceneFromHistory(t *testing.T) {
	e := ruleOnlyEngine()
	prior := &schema.Attributes{}
	prior.Source = "全省"
	prior.ApplyDefaults()

	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:      "s1",
		StatusCode:     StatusUserRevision,
		UserInput:      "时间改成近一周",
		HistoryInput:   []string{"查询pcdn异常流量"},
		PrimaryScene:   schema.SceneAnomaly,
		SecondaryScene: schema.SceneRegion,
		Intermediate:   IntermediateResult{Attributes: prior},
	})
	if resp.StatusCode == StatusSceneMismatch {
		t.Fatalf("revision bounced to scene mismatch: %q", resp.AnalysisResult)
	}
}

func TestClarifyKeepsResolvedSlots(t *testing.T) {
	m := &mockProvider{reply: `{"attributes": {"流向": "横向"}, "confidence": {"流向": 0.9}}`}
	e := NewEngine(Options{Provider: m, Model: "test"})

	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:  "s1",
		StatusCode: StatusNewSession,
		UserInput:  "查询绍兴近一周的流量，对端是外省",
	})
	if resp.StatusCode != StatusFieldPending {
		t.Fatalf("StatusCode = %d (analysis %q), want %d", resp.StatusCode, resp.AnalysisResult, StatusFieldPending)
	}
	if !strings.Contains(resp.AnalysisResult, "流向") {
		t.Errorf("AnalysisResult = %q, must name the ambiguous slot", resp.AnalysisResult)
	}
	attrs := resp.Intermediate.Attributes
	if attrs == nil {
		t.Fatal("Attributes = nil, clean slots dropped on clarification")
	}
	if attrs.Source != "绍兴" || attrs.Destination != "外省" {
		t.Errorf("clean slots dropped on clarification: Source = %q, Destination = %q", attrs.Source, attrs.Destination)
	}
	if attrs.TimeRange != "最近一周" {
		t.Errorf("TimeRange = %q", attrs.TimeRange)
	}
}

func TestDenialRevisesQuestion(t *testing.T) {
	e := ruleOnlyEngine()
	prior := &schema.Attributes{}
	prior.Source = "杭州"
	prior.Destination = "外省"
	prior.DeriveEndpointTypes()
	prior.ApplyDefaults()

	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:      "s1",
		StatusCode:     StatusConfirmation,
		UserInput:      "不对，时间改成近一周",
		HistoryInput:   []string{"查询杭州到外省的流量"},
		PrimaryScene:   schema.SceneFlow,
		SecondaryScene: schema.SceneRegion,
		Intermediate: IntermediateResult{
			Attributes:     prior,
			AnalysisResult: "请确认问题：查询近一个月内，杭州到外省的流量",
		},
	})
	if resp.StatusCode != StatusConfirmation {
		t.Fatalf("StatusCode = %d (analysis %q), want %d", resp.StatusCode, resp.AnalysisResult, StatusConfirmation)
	}
	if !strings.HasPrefix(resp.AnalysisResult, "问题已修改") {
		t.Errorf("AnalysisResult = %q", resp.AnalysisResult)
	}
	attrs := resp.Intermediate.Attributes
	if attrs.TimeRange != "最近一周" {
		t.Errorf("TimeRange = %q", attrs.TimeRange)
	}
	if attrs.Source != "杭州" || attrs.Destination != "外省" {
		t.Errorf("endpoints changed on a time-only revision: %q -> %q", attrs.Source, attrs.Destination)
	}
}

func TestRevisionPreservesEndpoints(t *testing.T) {
	e := ruleOnlyEngine()
	prior := &schema.Attributes{}
	prior.Source = "宁波"
	prior.Destination = "省内"
	prior.DeriveEndpointTypes()
	prior.ApplyDefaults()

	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:      "s1",
		StatusCode:     StatusUserRevision,
		UserInput:      "粒度改成每天",
		HistoryInput:   []string{"查询宁波省内的流量"},
		PrimaryScene:   schema.SceneFlow,
		SecondaryScene: schema.SceneRegion,
		Intermediate: IntermediateResult{
			Attributes:     prior,
			AnalysisResult: "请确认问题：查询近一个月内，宁波到省内的流量",
		},
	})
	if resp.StatusCode != StatusConfirmation {
		t.Fatalf("StatusCode = %d (analysis %q)", resp.StatusCode, resp.AnalysisResult)
	}
	attrs := resp.Intermediate.Attributes
	if attrs.TimeGranularity != "日" {
		t.Errorf("TimeGranularity = %q", attrs.TimeGranularity)
	}
	if attrs.Source != "宁波" || attrs.Destination != "省内" {
		t.Errorf("endpoints changed: %q -> %q", attrs.Source, attrs.Destination)
	}
}

func TestThirdPendingStaysPendingWithoutSignal(t *testing.T) {
	e := ruleOnlyEngine()
	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:      "s1",
		StatusCode:     StatusThirdPending,
		UserInput:      "流量情况",
		HistoryInput:   []string{"查询流量"},
		SecondaryScene: schema.SceneIPTraff,
	})
	if resp.StatusCode != StatusThirdPending {
		t.Fatalf("StatusCode = %d (analysis %q), want %d", resp.StatusCode, resp.AnalysisResult, StatusThirdPending)
	}
	if !strings.Contains(resp.AnalysisResult, "IP") {
		t.Errorf("prompt must list candidate refinements, got %q", resp.AnalysisResult)
	}
}

func TestMissingDestinationAsksOnce(t *testing.T) {
	e := ruleOnlyEngine()
	resp := e.Resolve(context.Background(), &TurnRequest{
		SessionID:  "s1",
		StatusCode: StatusNewSession,
		UserInput:  "查询绍兴近一周的流量",
	})
	if resp.StatusCode != StatusFieldPending {
		t.Fatalf("StatusCode = %d (analysis %q), want %d", resp.StatusCode, resp.AnalysisResult, StatusFieldPending)
	}
	if !strings.Contains(resp.AnalysisResult, "对端") {
		t.Errorf("clarification = %q, must mention the destination", resp.AnalysisResult)
	}
	if resp.Intermediate.Attributes.Source != "绍兴" {
		t.Errorf("Source = %q", resp.Intermediate.Attributes.Source)
	}
}

func TestPanicRecoveryIsReplyNotCrash(t *testing.T) {
	e := ruleOnlyEngine()
	// A nil transition table forces the boundary recover path.
	e.transitions = nil
	resp := e.Resolve(context.Background(), &TurnRequest{SessionID: "s1", StatusCode: StatusNewSession, UserInput: "查询"})
	if resp.StatusCode != StatusSceneMismatch {
		t.Fatalf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Error == "" {
		t.Error("recovered panic must surface in the error field")
	}
}
