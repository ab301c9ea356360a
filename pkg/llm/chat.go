package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/sitegraph/internal/models"
)

// OllamaConfig represents the configuration for a local analyzer.
type OllamaConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
	BaseURL        string // Ollama server URL
}

// OllamaAnalyzer reviews pages with a model served by Ollama.
type OllamaAnalyzer struct {
	config OllamaConfig
	llm    llms.Model
}

// NewOllamaAnalyzer creates an OllamaAnalyzer with the given configuration.
func NewOllamaAnalyzer(config OllamaConfig) (*OllamaAnalyzer, error) {
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.Temperature == 0 {
		config.Temperature = 0.5
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 1500
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = SystemPrompt
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	llm, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &OllamaAnalyzer{
		config: config,
		llm:    llm,
	}, nil
}

func (oa *OllamaAnalyzer) Model() string {
	return oa.config.Model
}

func (oa *OllamaAnalyzer) content(url string, page *models.PageData) ([]llms.MessageContent, error) {
	prompt, err := BuildPrompt(url, page)
	if err != nil {
		return nil, err
	}
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, oa.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, nil
}

func (oa *OllamaAnalyzer) options(extra ...llms.CallOption) []llms.CallOption {
	return append([]llms.CallOption{
		llms.WithTemperature(oa.config.Temperature),
		llms.WithMaxTokens(oa.config.MaxTokens),
	}, extra...)
}

// Analyze generates a review of the page.
func (oa *OllamaAnalyzer) Analyze(ctx context.Context, url string, page *models.PageData) (string, error) {
	content, err := oa.content(url, page)
	if err != nil {
		return "", err
	}

	response, err := oa.llm.GenerateContent(ctx, content, oa.options()...)
	if err != nil {
		return "", fmt.Errorf("ollama error: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return NoContent, nil
	}

	var b strings.Builder
	for _, choice := range response.Choices {
		if choice != nil {
			b.WriteString(choice.Content)
		}
	}
	if text := strings.TrimSpace(b.String()); text != "" {
		return text, nil
	}
	return NoContent, nil
}

// AnalyzeStream generates a review, handing each streamed chunk to fn.
func (oa *OllamaAnalyzer) AnalyzeStream(ctx context.Context, url string, page *models.PageData, fn func(string) error) error {
	content, err := oa.content(url, page)
	if err != nil {
		return err
	}

	_, err = oa.llm.GenerateContent(ctx, content, oa.options(
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return fn(string(chunk))
		}),
	)...)
	if err != nil {
		return fmt.Errorf("ollama error: %w", err)
	}
	return nil
}
