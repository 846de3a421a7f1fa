package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .queryflow.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to queryflow! Let's configure the resolver.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select completion provider",
		Items: []string{string(ProviderOpenAI), string(ProviderOllama)},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	defaultModel := cfg.Model
	if cfg.Provider == ProviderOllama {
		defaultModel = "qwen2.5:14b"
	}
	modelPrompt := promptui.Prompt{
		Label:   "Completion model",
		Default: defaultModel,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Endpoint override.
	urlPrompt := promptui.Prompt{
		Label:   "Base URL (blank for provider default)",
		Default: "",
	}
	if cfg.BaseURL, err = urlPrompt.Run(); err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	// 4. Server port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 5. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (SQLite DB and fewshot store)",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	if cfg.Provider == ProviderOpenAI && os.Getenv("OPENAI_API_KEY") == "" && cfg.BaseURL == "" {
		fmt.Println("\nNote: Set OPENAI_API_KEY in your environment before starting the server.")
	}

	if err := cfg.Save(".queryflow.yml"); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	fmt.Println("\nConfiguration saved to .queryflow.yml")

	return cfg, nil
}
