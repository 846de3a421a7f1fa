package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ziadkadry99/queryflow/internal/config"
	"github.com/ziadkadry99/queryflow/internal/embeddings"
	"github.com/ziadkadry99/queryflow/internal/fewshot"
	"github.com/ziadkadry99/queryflow/internal/llm"
	"github.com/ziadkadry99/queryflow/internal/resolver"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `queryflow init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildProvider creates the completion provider from config. A failure
// is not fatal: the resolver degrades to rule-only operation.
func buildProvider(cfg *config.Config) llm.Provider {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.BaseURL, cfg.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		fmt.Fprintln(os.Stderr, "Running rule-only: LLM fallbacks and paraphrasing are disabled.")
		return nil
	}
	return provider
}

// buildHinter creates and loads the fewshot store. Retrieval is an
// enhancement, so any failure degrades to no hints.
func buildHinter(cfg *config.Config) *fewshot.Store {
	if cfg.FewshotExamples <= 0 {
		return nil
	}
	embedder, err := embeddings.New(string(cfg.Provider), cfg.BaseURL, cfg.EmbeddingModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (fewshot hints disabled)\n", err)
		return nil
	}
	store, err := fewshot.NewStore(embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: creating fewshot store: %v\n", err)
		return nil
	}

	ctx := context.Background()
	if err := store.Load(ctx, cfg.DataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: loading fewshot store: %v\n", err)
	}
	if err := store.Seed(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: seeding fewshot store: %v\n", err)
	}
	return store
}

// buildEngine wires the resolver from config.
func buildEngine(cfg *config.Config, provider llm.Provider) *resolver.Engine {
	opts := resolver.Options{
		Provider:      provider,
		Model:         cfg.Model,
		FewshotK:      cfg.FewshotExamples,
		HistoryWindow: cfg.HistoryWindow,
		Rewrites:      cfg.RewriteCount,
	}
	if hinter := buildHinter(cfg); hinter != nil {
		opts.Hinter = hinter
	}
	return resolver.NewEngine(opts)
}

// sessionTTL converts the configured minutes to a duration.
func sessionTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.SessionTTLMinutes) * time.Minute
}
