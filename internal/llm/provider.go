package llm

import "context"

// Provider defines the interface to a completion service. The resolver
// treats it as a black box: prompts in, free text out, possibly malformed.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Ask is a convenience wrapper for the common single-shot pattern: one
// system instruction, one user message, text back. An error or empty
// reply both surface as ("", err) so call sites can degrade to their
// rule-only path uniformly.
func Ask(ctx context.Context, p Provider, model, system, user string, jsonMode bool) (string, error) {
	resp, err := p.Complete(ctx, CompletionRequest{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
		Temperature: 0.1,
		JSONMode:    jsonMode,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
