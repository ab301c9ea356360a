package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/sitegraph/internal/models"
)

// EmbedderConfig represents the configuration for the page embedder.
type EmbedderConfig struct {
	Model     string
	MaxTokens int
	BaseURL   string // Ollama server URL
}

// Embedder turns page text into vectors for similarity search.
type Embedder struct {
	Config EmbedderConfig
	Embed  *ollama.LLM
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest" // Default Ollama model
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	emb, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{
		Config: config,
		Embed:  emb,
	}, nil
}

func NewEmbedder() (*Embedder, error) {
	return NewEmbedderWithConfig(EmbedderConfig{})
}

// CreateEmbedding returns one vector per text.
func (e *Embedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.Embed.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding error: %w", err)
	}
	return vectors, nil
}

// PageText is the text embedded for a page: its title, description,
// headings and keywords, cut to maxWords words.
func PageText(url string, page *models.PageData, maxWords int) string {
	parts := []string{url}
	if page != nil {
		parts = append(parts, page.Title, page.MetaDescription, page.MetaKeywords)
		parts = append(parts, page.H1Tags...)
		keywords := make([]string, 0, len(page.KeywordDensity))
		for k := range page.KeywordDensity {
			keywords = append(keywords, k)
		}
		sort.Strings(keywords)
		parts = append(parts, keywords...)
	}

	words := strings.Fields(strings.Join(parts, " "))
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
