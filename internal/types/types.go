package types

import (
	"context"

	"github.com/xhad/sitegraph/internal/models"
)

// Core interfaces
type Analyzer interface {
	Analyze(ctx context.Context, url string, page *models.PageData) (string, error)
	AnalyzeStream(ctx context.Context, url string, page *models.PageData, fn func(chunk string) error) error
	Model() string
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type AnalysisCache interface {
	Get(ctx context.Context, url, model string) (string, bool, error)
	Put(ctx context.Context, url, model, analysis string) error
	Close() error
}

type PageStore interface {
	Store(ctx context.Context, site models.SiteStructure, emb Embedder) (int, error)
	Similar(ctx context.Context, url string, limit int) ([]SimilarPage, error)
	Load(ctx context.Context) (models.SiteStructure, error)
	Close()
}

type SimilarPage struct {
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Distance float64 `json:"distance"`
}
