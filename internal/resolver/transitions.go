package resolver

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/queryflow/internal/intent"
)

// transition is one row of the state table: a predicate over the turn
// and the handler that produces the reply. Rows are evaluated in order;
// the first match wins.
type transition struct {
	name    string
	applies func(*turn) bool
	handle  func(context.Context, *turn) *TurnResponse
}

func status(codes ...int) func(*turn) bool {
	return func(tc *turn) bool {
		for _, c := range codes {
			if tc.req.StatusCode == c {
				return true
			}
		}
		return false
	}
}

func (e *Engine) buildTransitions() []transition {
	return []transition{
		{
			name:    "casual chat",
			applies: func(tc *turn) bool { return intent.IsCasualChat(tc.text) },
			handle:  e.handleCasualChat,
		},
		{
			name:    "empty history starts a session",
			applies: func(tc *turn) bool { return len(tc.history) == 0 },
			handle:  e.handleNewSession,
		},
		{
			name:    "explicit new task abandons current context",
			applies: func(tc *turn) bool { return intent.IsNewTask(tc.text) },
			handle:  e.handleNewTask,
		},
		{
			name: "declared primary scene mismatch",
			applies: func(tc *turn) bool {
				if tc.req.PrimaryScene == "" ||
					tc.req.StatusCode == StatusNewSession || tc.req.StatusCode == StatusNewTask {
					return false
				}
				// A bare confirmation or denial carries no scene of its
				// own and must never bounce the session.
				if intent.IsConfirmation(tc.text) || intent.IsDenial(tc.text) {
					return false
				}
				return tc.primaryScene(e).Chosen != tc.req.PrimaryScene
			},
			handle: e.handleSceneMismatch,
		},
		{name: "new session/task", applies: status(StatusNewSession, StatusNewTask), handle: e.handleNewSession},
		{name: "primary pending", applies: status(StatusPrimaryPending), handle: e.handleNewSession},
		{name: "secondary pending", applies: status(StatusSecondaryPending), handle: e.handleSecondaryPending},
		{name: "field pending", applies: status(StatusFieldPending), handle: e.handleRevision},
		{name: "confirmation", applies: status(StatusConfirmation), handle: e.handleConfirmation},
		{name: "user revision", applies: status(StatusUserRevision), handle: e.handleRevision},
		{name: "third pending", applies: status(StatusThirdPending), handle: e.handleThirdPending},
		{name: "downstream hand-off", applies: status(StatusDownstream, StatusDownstreamDone), handle: e.handleDownstream},
		{name: "task follow-up after casual chat", applies: status(StatusCasualChat), handle: e.handleNewTask},
		{name: "unknown status", applies: func(*turn) bool { return true }, handle: e.handleUnknownStatus},
	}
}

func (e *Engine) handleCasualChat(ctx context.Context, tc *turn) *TurnResponse {
	resp := tc.respond(StatusCasualChat, tc.req.PrimaryScene, tc.req.SecondaryScene)
	resp.AnalysisResult = "您好，我是流量分析助手，可以帮您查询地域、IP、客户等维度的流量情况。请描述您要查询的内容。"
	return resp
}

func (e *Engine) handleSceneMismatch(ctx context.Context, tc *turn) *TurnResponse {
	computed := tc.primaryScene(e)
	resp := tc.respond(StatusSceneMismatch, computed.Chosen, tc.req.SecondaryScene)
	resp.AnalysisResult = fmt.Sprintf("当前问题属于「%s」场景，与已确认的「%s」不一致，请重新发起场景识别。",
		computed.Chosen, tc.req.PrimaryScene)
	return resp
}

func (e *Engine) handleDownstream(ctx context.Context, tc *turn) *TurnResponse {
	// Query execution belongs to the downstream collaborator; echo the
	// context back untouched.
	resp := tc.respond(tc.req.StatusCode, tc.req.PrimaryScene, tc.req.SecondaryScene)
	resp.Intermediate.AnalysisResult = tc.req.Intermediate.AnalysisResult
	resp.AnalysisResult = "查询已交由执行服务处理"
	return resp
}

func (e *Engine) handleUnknownStatus(ctx context.Context, tc *turn) *TurnResponse {
	resp := tc.respond(StatusSceneMismatch, tc.req.PrimaryScene, tc.req.SecondaryScene)
	resp.AnalysisResult = fmt.Sprintf("未知状态码：%d", tc.req.StatusCode)
	resp.Error = fmt.Sprintf("unknown status code %d", tc.req.StatusCode)
	return resp
}
