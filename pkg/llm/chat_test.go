package llm_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sitegraph/internal/models"
	"github.com/xhad/sitegraph/pkg/llm"
)

func TestNewOllamaAnalyzer(t *testing.T) {
	config := llm.OllamaConfig{
		Model:       "testmodel",
		Temperature: 0.5,
		MaxTokens:   1000,
		BaseURL:     "http://localhost:1234",
	}
	analyzer, err := llm.NewOllamaAnalyzer(config)
	assert.NoError(t, err)
	assert.NotNil(t, analyzer)
	assert.Equal(t, "testmodel", analyzer.Model())

	_, err = llm.NewOllamaAnalyzer(llm.OllamaConfig{Temperature: 1.5})
	assert.Error(t, err)
	_, err = llm.NewOllamaAnalyzer(llm.OllamaConfig{MaxTokens: -1})
	assert.Error(t, err)
}

func TestNewAnalyzer(t *testing.T) {
	a, err := llm.NewAnalyzer(llm.Config{Provider: llm.ProviderOllama, Model: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "mistral", a.Model())

	a, err = llm.NewAnalyzer(llm.Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, llm.DefaultClaudeModel, a.Model())

	a, err = llm.NewAnalyzer(llm.Config{Provider: llm.ProviderAnthropic})
	assert.Error(t, err)
	assert.Nil(t, a)

	_, err = llm.NewAnalyzer(llm.Config{Provider: "gpt"})
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := llm.BuildPrompt("https://example.com/", &models.PageData{Title: "Home", WordCount: 12})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Here is a structured JSON of a webpage (https://example.com/):")
	assert.Contains(t, prompt, "\n  \"title\": \"Home\"")
	assert.Contains(t, prompt, "\"word_count\": 12")
	assert.True(t, strings.HasSuffix(prompt, "Please analyze it based on the instructions provided.\n"))

	_, err = llm.BuildPrompt("https://example.com/", nil)
	assert.Error(t, err)
}

func TestOllamaAnalyze(t *testing.T) {
	if os.Getenv("SITEGRAPH_TEST_OLLAMA") == "" {
		t.Skip("SITEGRAPH_TEST_OLLAMA not set")
	}

	analyzer, err := llm.NewOllamaAnalyzer(llm.OllamaConfig{BaseURL: os.Getenv("OLLAMA_BASE_URL")})
	require.NoError(t, err)

	page := &models.PageData{Title: "Colorful socks", WordCount: 120, HasViewportMeta: true}
	var chunks []string
	err = analyzer.AnalyzeStream(context.Background(), "https://example.com/", page, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}
