// Package llm holds the page analyzers and the embedder.
package llm

import (
	"fmt"

	"github.com/xhad/sitegraph/internal/types"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config selects and configures an analyzer.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// NewAnalyzer builds the analyzer for cfg.Provider. An empty provider means
// Anthropic.
func NewAnalyzer(cfg Config) (types.Analyzer, error) {
	switch cfg.Provider {
	case "", ProviderAnthropic:
		a, err := NewClaudeAnalyzer(ClaudeConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case ProviderOllama:
		a, err := NewOllamaAnalyzer(OllamaConfig{
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
