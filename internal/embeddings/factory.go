package embeddings

import (
	"fmt"
	"os"
)

// ollamaDefaultDimensions matches nomic-embed-text, the usual local
// embedding model.
const ollamaDefaultDimensions = 768

// New creates an embedder from the configured provider type. Supported
// types mirror the completion providers: "openai" and "ollama".
func New(providerType, baseURL, model string) (Embedder, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" && baseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIEmbedder(apiKey, baseURL, OpenAIModel(model)), nil

	case "ollama":
		host := baseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		return NewOllamaEmbedder(model, ollamaDefaultDimensions, host), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider type: %s", providerType)
	}
}
