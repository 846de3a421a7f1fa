// Package embeddings turns query text into vectors for the few-shot
// example store. Both implementations speak to the same services the
// completion providers do, so one configured endpoint can serve both
// halves of the pipeline.
package embeddings

import (
	"context"

	chromem "github.com/philippgille/chromem-go"
)

// Embedder embeds one or more query texts. The analytics queries this
// system sees are short Chinese sentences; implementations may batch
// however their backend prefers.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions is the vector width the model produces.
	Dimensions() int
	// Name identifies the backing model, e.g. "ollama/nomic-embed-text".
	Name() string
}

// ToChromemFunc adapts an Embedder to chromem-go's per-document
// embedding callback.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) == 0 {
			return nil, nil
		}
		return vecs[0], nil
	}
}
