package config

// ProviderType identifies a completion-service provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level queryflow configuration, corresponding to
// .queryflow.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	BaseURL        string       `yaml:"base_url" koanf:"base_url"`
	Model          string       `yaml:"model" koanf:"model"`
	EmbeddingModel string       `yaml:"embedding_model" koanf:"embedding_model"`

	Port    int    `yaml:"port" koanf:"port"`
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	// SessionTTLMinutes bounds how long an idle conversation survives in
	// the session store before lazy pruning removes it.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" koanf:"session_ttl_minutes"`

	// HistoryWindow bounds how many prior turns are fed to the resolver.
	HistoryWindow int `yaml:"history_window" koanf:"history_window"`

	// RewriteCount is the number of paraphrases requested for the
	// canonical question.
	RewriteCount int `yaml:"rewrite_count" koanf:"rewrite_count"`

	// FewshotExamples is the number of similar labeled queries retrieved
	// as classification prompt hints. Zero disables retrieval.
	FewshotExamples int `yaml:"fewshot_examples" koanf:"fewshot_examples"`
}
