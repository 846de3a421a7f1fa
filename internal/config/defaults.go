package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingModel:    "text-embedding-3-small",
		Port:              8080,
		DataDir:           "data",
		SessionTTLMinutes: 60,
		HistoryWindow:     20,
		RewriteCount:      1,
		FewshotExamples:   3,
	}
}
