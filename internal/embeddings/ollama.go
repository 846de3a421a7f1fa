package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaEmbedder embeds queries through a local Ollama instance. The
// /api/embed endpoint takes a batch of inputs, so seeding the few-shot
// store costs one round trip.
type OllamaEmbedder struct {
	host   string
	model  string
	dims   int
	client *http.Client
}

// NewOllamaEmbedder binds an embedder to an Ollama host. An empty host
// means the local daemon; dims must match what the model emits.
func NewOllamaEmbedder(model string, dims int, host string) *OllamaEmbedder {
	if host == "" {
		host = defaultOllamaHost
	}
	return &OllamaEmbedder{
		host:   host,
		model:  model,
		dims:   dims,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *OllamaEmbedder) Name() string    { return "ollama/" + e.model }
func (e *OllamaEmbedder) Dimensions() int { return e.dims }

type embedPayload struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedReply struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed sends all texts in a single request.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embedPayload{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama embed: status %d: %s", resp.StatusCode, detail)
	}

	var reply embedReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if len(reply.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d texts", len(reply.Embeddings), len(texts))
	}
	return reply.Embeddings, nil
}
