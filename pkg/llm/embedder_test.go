package llm_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/sitegraph/internal/models"
	"github.com/xhad/sitegraph/pkg/llm"
)

var config = llm.EmbedderConfig{
	Model:     "nomic-embed-text:latest",
	MaxTokens: 1000,
	BaseURL:   "http://localhost:11434",
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(config)
	require.NoError(t, err)
	assert.NotNil(t, emb.Embed)
	assert.Equal(t, 1000, emb.Config.MaxTokens)

	emb, err = llm.NewEmbedder()
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text:latest", emb.Config.Model)
}

func TestPageText(t *testing.T) {
	page := &models.PageData{
		Title:          "Gopher  Socks",
		H1Tags:         []string{"Warm feet"},
		KeywordDensity: map[string]float64{"wool": 0.1, "blue": 0.2},
	}

	assert.Equal(t, "https://example.com/ Gopher Socks Warm feet blue wool",
		llm.PageText("https://example.com/", page, 0))
	assert.Equal(t, "https://example.com/ Gopher", llm.PageText("https://example.com/", page, 2))
	assert.Equal(t, "https://example.com/x", llm.PageText("https://example.com/x", nil, 10))
}

func TestCreateEmbedding(t *testing.T) {
	if os.Getenv("SITEGRAPH_TEST_OLLAMA") == "" {
		t.Skip("SITEGRAPH_TEST_OLLAMA not set")
	}
	// This test requires a running Ollama server with the embedding model pulled.
	emb, err := llm.NewEmbedderWithConfig(config)
	require.NoError(t, err)

	texts := []string{"This is the first page.", "And this is the second page."}
	embeddings, err := emb.CreateEmbedding(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	for i := range embeddings {
		assert.Equal(t, 768, len(embeddings[i]))
	}
}
