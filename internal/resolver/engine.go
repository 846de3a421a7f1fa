package resolver

import (
	"context"
	"fmt"
	"log"

	"github.com/ziadkadry99/queryflow/internal/extract"
	"github.com/ziadkadry99/queryflow/internal/llm"
	"github.com/ziadkadry99/queryflow/internal/scene"
	"github.com/ziadkadry99/queryflow/internal/schema"
	"github.com/ziadkadry99/queryflow/internal/template"
)

// Engine wires the classifier cascade, the extractors, and the question
// synthesizer behind the transition table. It holds no per-conversation
// state: every transition is a pure function of the request bag.
type Engine struct {
	classifiers *scene.Classifiers
	rules       *extract.RuleExtractor
	llmExtract  *extract.LLMExtractor
	synth       *template.Synthesizer

	historyWindow int
	transitions   []transition
}

// Options configures an Engine.
type Options struct {
	Provider      llm.Provider // may be nil: rule-only operation
	Model         string
	Hinter        scene.Hinter
	FewshotK      int
	HistoryWindow int
	Rewrites      int
}

// NewEngine constructs an engine.
func NewEngine(opts Options) *Engine {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 20
	}
	defaults := template.BuiltinDefaults()
	if opts.Rewrites > 0 {
		defaults.Rewrites = opts.Rewrites
	}
	e := &Engine{
		classifiers:   scene.New(opts.Provider, opts.Model, opts.Hinter, opts.FewshotK),
		rules:         extract.NewRuleExtractor(),
		synth:         template.NewSynthesizer(opts.Provider, opts.Model, defaults),
		historyWindow: opts.HistoryWindow,
	}
	if opts.Provider != nil {
		e.llmExtract = extract.NewLLMExtractor(opts.Provider, opts.Model)
	}
	e.transitions = e.buildTransitions()
	return e
}

// Resolve processes one turn. Every sub-pipeline failure is converted
// into a 500-class response at this boundary; nothing propagates as a
// fault to the front door.
func (e *Engine) Resolve(ctx context.Context, req *TurnRequest) (resp *TurnResponse) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("resolver: recovered panic in session %s: %v", req.SessionID, r)
			resp = &TurnResponse{
				SessionID:      req.SessionID,
				StatusCode:     StatusSceneMismatch,
				PrimaryScene:   req.PrimaryScene,
				SecondaryScene: req.SecondaryScene,
				Intermediate:   req.Intermediate,
				AnalysisResult: "处理请求时发生内部错误，请重试",
				Error:          fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	tc := e.newTurn(ctx, req)
	for _, tr := range e.transitions {
		if tr.applies(tc) {
			return tr.handle(ctx, tc)
		}
	}
	// The table ends with a catch-all; reaching here is a bug.
	panic(fmt.Sprintf("no transition matched status %d", req.StatusCode))
}

// turn carries the per-turn working state through the transition table.
type turn struct {
	req      *TurnRequest
	text     string
	history  []string
	keywords []string
	prior    *schema.Attributes

	primaryDone bool
	primary     scene.Outcome
	ctx         context.Context
}

func (e *Engine) newTurn(ctx context.Context, req *TurnRequest) *turn {
	history := req.HistoryInput
	if len(history) > e.historyWindow {
		history = history[len(history)-e.historyWindow:]
	}

	reset := req.StatusCode == StatusNewSession || req.StatusCode == StatusNewTask || len(history) == 0
	keywords := schema.AccumulateKeywords(req.Intermediate.Keywords, schema.Tokenize(req.UserInput), reset)

	prior := req.Intermediate.Attributes
	if prior == nil {
		prior = &schema.Attributes{}
	}

	return &turn{
		req:      req,
		text:     req.UserInput,
		history:  history,
		keywords: keywords,
		prior:    prior,
		ctx:      ctx,
	}
}

// primaryScene computes and caches the primary classification for this
// turn. Casual-chat turns never reach it.
func (tc *turn) primaryScene(e *Engine) scene.Outcome {
	if !tc.primaryDone {
		tc.primary = e.classifiers.Primary.Classify(tc.ctx, tc.text, tc.history)
		tc.primaryDone = true
	}
	return tc.primary
}

func (tc *turn) respond(status int, primary, secondary string) *TurnResponse {
	return &TurnResponse{
		SessionID:      tc.req.SessionID,
		StatusCode:     status,
		PrimaryScene:   primary,
		SecondaryScene: secondary,
		Intermediate: IntermediateResult{
			Keywords:   tc.keywords,
			ThirdScene: tc.req.Intermediate.ThirdScene,
			Attributes: tc.prior,
			Questions:  tc.req.Intermediate.Questions,
		},
	}
}
