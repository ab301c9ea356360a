package store_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sitegraph/internal/models"
	"github.com/xhad/sitegraph/pkg/store"
)

// keywordEmbedder places texts on three axes by the words they contain.
type keywordEmbedder struct{}

func (keywordEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := []float32{0.01, 0.01, 0.01}
		if strings.Contains(t, "socks") {
			v[0] = 1
		}
		if strings.Contains(t, "wool") {
			v[1] = 1
		}
		if strings.Contains(t, "contact") {
			v[2] = 1
		}
		out[i] = v
	}
	return out, nil
}

func getTestConfig(t *testing.T) store.PageStoreConfig {
	conn := os.Getenv("SITEGRAPH_TEST_DATABASE_URL")
	if conn == "" {
		t.Skip("SITEGRAPH_TEST_DATABASE_URL not set")
	}
	return store.PageStoreConfig{
		ConnString: conn,
		TableName:  "test_pages",
		VectorDim:  3,
		BatchSize:  2,
	}
}

func TestPageStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewWithConfig(ctx, getTestConfig(t))
	require.NoError(t, err)
	defer s.Close()

	site := models.SiteStructure{
		"https://example.com/socks":      {Title: "socks"},
		"https://example.com/wool-socks": {Title: "wool socks", StatusCode: 200},
		"https://example.com/contact":    {Title: "contact"},
		"https://example.com/missing":    nil,
	}

	n, err := s.Store(ctx, site, keywordEmbedder{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	similar, err := s.Similar(ctx, "https://example.com/socks", 2)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, "https://example.com/wool-socks", similar[0].URL)
	assert.Equal(t, "wool socks", similar[0].Title)
	assert.Less(t, similar[0].Distance, similar[1].Distance)

	_, err = s.Similar(ctx, "https://example.com/nowhere", 2)
	assert.ErrorIs(t, err, store.ErrNotIndexed)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded, "https://example.com/wool-socks")
	assert.Equal(t, 200, loaded["https://example.com/wool-socks"].StatusCode)
}

func TestNewWithConfigRequiresConnString(t *testing.T) {
	_, err := store.NewWithConfig(context.Background(), store.PageStoreConfig{})
	assert.Error(t, err)
}
