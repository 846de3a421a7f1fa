package resolver

import (
	"context"
	"strings"

	"github.com/ziadkadry99/queryflow/internal/extract"
	"github.com/ziadkadry99/queryflow/internal/intent"
	"github.com/ziadkadry99/queryflow/internal/scene"
	"github.com/ziadkadry99/queryflow/internal/schema"
)

// handleNewSession runs the full cascade for a fresh session, task, or
// primary re-check: primary scene, secondary scene, early third scene,
// then straight into field resolution.
func (e *Engine) handleNewSession(ctx context.Context, tc *turn) *TurnResponse {
	primary := tc.primaryScene(e)
	secondary := e.classifiers.Secondary.Classify(ctx, tc.text, tc.keywords, scene.ThresholdInitial)
	return e.resolveThirdAndFields(ctx, tc, primary.Chosen, secondary.Chosen, scene.ThresholdRecheck)
}

// handleNewTask discards the previous scene and attribute context but
// keeps the conversation history.
func (e *Engine) handleNewTask(ctx context.Context, tc *turn) *TurnResponse {
	tc.prior = &schema.Attributes{}
	tc.keywords = schema.AccumulateKeywords(nil, schema.Tokenize(tc.text), true)
	tc.req.Intermediate.ThirdScene = ""
	tc.req.Intermediate.Questions = nil
	return e.handleNewSession(ctx, tc)
}

func (e *Engine) handleSecondaryPending(ctx context.Context, tc *turn) *TurnResponse {
	primary := tc.primaryScene(e)
	secondary := e.classifiers.Secondary.Classify(ctx, tc.text, tc.keywords, scene.ThresholdRecheck)
	return e.resolveThirdAndFields(ctx, tc, primary.Chosen, secondary.Chosen, scene.ThresholdRecheck)
}

func (e *Engine) handleThirdPending(ctx context.Context, tc *turn) *TurnResponse {
	secondary := tc.req.SecondaryScene
	if secondary == "" {
		secondary = schema.SceneRegion
	}
	third := e.classifiers.Third.Classify(ctx, tc.text, tc.keywords, secondary, scene.ThresholdRecheck)
	if !third.Resolved() {
		resp := tc.respond(StatusThirdPending, tc.req.PrimaryScene, secondary)
		resp.AnalysisResult = third.Prompt
		resp.Intermediate.AnalysisResult = third.Prompt
		return resp
	}
	tc.req.Intermediate.ThirdScene = third.Chosen
	return e.runFieldPipeline(ctx, tc, tc.req.PrimaryScene, secondary, false)
}

// resolveThirdAndFields computes the third level (falling back to the
// per-secondary default when even the completion service stays silent)
// and continues into field resolution.
func (e *Engine) resolveThirdAndFields(ctx context.Context, tc *turn, primary, secondary string, threshold float64) *TurnResponse {
	third := e.classifiers.Third.Classify(ctx, tc.text, tc.keywords, secondary, threshold)
	if !third.Resolved() {
		if def, ok := schema.DefaultThirdScene[secondary]; ok {
			third.Chosen = def
			third.Confidence = threshold
		} else {
			resp := tc.respond(StatusThirdPending, primary, secondary)
			resp.AnalysisResult = third.Prompt
			resp.Intermediate.AnalysisResult = third.Prompt
			return resp
		}
	}
	tc.req.Intermediate.ThirdScene = third.Chosen
	return e.runFieldPipeline(ctx, tc, primary, secondary, false)
}

// handleRevision re-enters field processing using the new text as an
// update to previously resolved slots.
func (e *Engine) handleRevision(ctx context.Context, tc *turn) *TurnResponse {
	return e.runFieldPipeline(ctx, tc, tc.req.PrimaryScene, tc.req.SecondaryScene, true)
}

// handleConfirmation advances to the downstream collaborator on an
// affirmative reply; anything else is treated as a revision.
func (e *Engine) handleConfirmation(ctx context.Context, tc *turn) *TurnResponse {
	if intent.IsConfirmation(tc.text) {
		resp := tc.respond(StatusDownstream, tc.req.PrimaryScene, tc.req.SecondaryScene)
		resp.Intermediate.Questions = tc.req.Intermediate.Questions
		if len(tc.req.Intermediate.Questions) > 0 {
			resp.Question = tc.req.Intermediate.Questions[0]
			resp.Rewrites = tc.req.Intermediate.Questions[1:]
		}
		resp.AnalysisResult = "已确认，开始执行查询"
		return resp
	}
	revised := e.runFieldPipeline(ctx, tc, tc.req.PrimaryScene, tc.req.SecondaryScene, true)
	if revised.StatusCode == StatusConfirmation {
		revised.AnalysisResult = "问题已修改，请确认：" + revised.Question
	}
	return revised
}

// runFieldPipeline is the shared tail of every scene-resolved path:
// extract, merge, check completeness, and synthesize the question.
func (e *Engine) runFieldPipeline(ctx context.Context, tc *turn, primary, secondary string, revision bool) *TurnResponse {
	ec := &extract.Context{
		Prior:          tc.prior,
		History:        tc.history,
		PriorPrompt:    tc.req.Intermediate.AnalysisResult,
		SecondaryScene: secondary,
	}

	ruleRes := e.rules.Extract(tc.text, ec)
	llmRes := extract.Results{}
	if e.llmExtract != nil {
		llmRes = e.llmExtract.Extract(ctx, tc.text, ec, ruleRes)
	}
	merged := extract.MergeAll(ruleRes, llmRes)

	// The merged fields are the turn's attribute update; slots that
	// resolved cleanly stick even when another slot needs clarifying.
	var attrs *schema.Attributes
	if revision {
		attrs = extract.SmartMerge(tc.prior, merged, tc.req.Intermediate.AnalysisResult)
	} else {
		attrs = tc.prior.Clone()
		merged.Apply(attrs)
	}
	tc.prior = attrs

	if len(merged.Clarify) > 0 {
		resp := tc.respond(StatusFieldPending, primary, secondary)
		resp.Intermediate.Keywords = filterIPs(tc.keywords)
		resp.AnalysisResult = clarifyPrompt(merged.Clarify)
		resp.Intermediate.AnalysisResult = resp.AnalysisResult
		return resp
	}

	check := extract.CheckCompleteness(secondary, attrs)
	if !check.Ready() {
		resp := tc.respond(StatusFieldPending, primary, secondary)
		resp.Intermediate.Keywords = filterIPs(tc.keywords)
		resp.AnalysisResult = check.Prompt
		resp.Intermediate.AnalysisResult = check.Prompt
		return resp
	}

	question := e.synth.Build(attrs)
	rewrites := e.synth.Rewrite(ctx, question)

	resp := tc.respond(StatusConfirmation, primary, secondary)
	resp.Question = question
	resp.Rewrites = rewrites
	resp.Intermediate.Questions = append([]string{question}, rewrites...)
	resp.AnalysisResult = "请确认问题：" + question
	resp.Intermediate.AnalysisResult = resp.AnalysisResult
	return resp
}

// clarifyPrompt names the slots whose extracted values stayed too
// ambiguous to trust.
func clarifyPrompt(slots []schema.Slot) string {
	names := make([]string, 0, len(slots))
	for _, s := range slots {
		names = append(names, schema.ChineseName[s])
	}
	return "以下信息不够明确，请补充说明：" + strings.Join(names, "、")
}

// filterIPs drops literal IP tokens from the keyword set surfaced in
// clarification replies.
func filterIPs(keywords []string) []string {
	var out []string
	for _, k := range keywords {
		if schema.IPPattern.MatchString(k) {
			continue
		}
		out = append(out, k)
	}
	return out
}
