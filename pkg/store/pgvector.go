package store

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/sitegraph/internal/models"
	"github.com/xhad/sitegraph/internal/types"
	"github.com/xhad/sitegraph/pkg/llm"
)

// ErrNotIndexed is returned by Similar for a page with no stored embedding.
var ErrNotIndexed = errors.New("page not indexed")

type PageStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	BatchSize   int
	SearchLimit int
	MaxWords    int
}

// PageStore keeps crawled pages and their embeddings in Postgres.
type PageStore struct {
	config PageStoreConfig
	table  string
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config PageStoreConfig) (*PageStore, error) {
	if config.ConnString == "" {
		return nil, fmt.Errorf("database connection string is required")
	}
	if config.TableName == "" {
		config.TableName = "pages"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.BatchSize == 0 {
		config.BatchSize = 32
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}
	if config.MaxWords == 0 {
		config.MaxWords = 512
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ps := &PageStore{
		config: config,
		table:  pgx.Identifier{config.TableName}.Sanitize(),
		pool:   pool,
	}

	if err := ps.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return ps, nil
}

func (ps *PageStore) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := ps.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			url TEXT PRIMARY KEY,
			title TEXT,
			status_code INTEGER,
			data JSONB NOT NULL,
			embedding vector(%d),
			indexed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, ps.table, ps.config.VectorDim)

	if _, err = ps.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		pgx.Identifier{ps.config.TableName + "_embedding_idx"}.Sanitize(), ps.table)

	if _, err = ps.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Store upserts every described page. When emb is nil pages are stored
// without embeddings. It returns the number of rows written.
func (ps *PageStore) Store(ctx context.Context, site models.SiteStructure, emb types.Embedder) (int, error) {
	var urls []string
	for _, u := range site.URLs() {
		if site[u] != nil {
			urls = append(urls, u)
		}
	}

	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (url, title, status_code, data, embedding, indexed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			status_code = EXCLUDED.status_code,
			data = EXCLUDED.data,
			embedding = COALESCE(EXCLUDED.embedding, %s.embedding),
			indexed_at = EXCLUDED.indexed_at`,
		ps.table, ps.table)

	written := 0
	now := time.Now()
	for start := 0; start < len(urls); start += ps.config.BatchSize {
		batch := urls[start:min(start+ps.config.BatchSize, len(urls))]

		var vectors [][]float32
		if emb != nil {
			texts := make([]string, len(batch))
			for i, u := range batch {
				texts[i] = sanitizeUTF8(llm.PageText(u, site[u], ps.config.MaxWords))
			}
			vectors, err = emb.CreateEmbedding(ctx, texts)
			if err != nil {
				return written, fmt.Errorf("failed to create embeddings: %w", err)
			}
			if len(vectors) != len(batch) {
				return written, fmt.Errorf("embedder returned %d vectors for %d pages", len(vectors), len(batch))
			}
		}

		for i, u := range batch {
			page := site[u]
			data, err := json.Marshal(page)
			if err != nil {
				return written, fmt.Errorf("failed to encode %s: %w", u, err)
			}

			var embedding *pgvector.Vector
			if vectors != nil {
				v := pgvector.NewVector(vectors[i])
				embedding = &v
			}

			_, err = tx.Exec(ctx, stmt,
				u,
				sanitizeUTF8(page.Title),
				page.StatusCode,
				string(data),
				embedding,
				now,
			)
			if err != nil {
				return written, fmt.Errorf("failed to insert page %s: %w", u, err)
			}
			written++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return written, nil
}

// Similar returns the pages nearest to url by cosine distance.
func (ps *PageStore) Similar(ctx context.Context, url string, limit int) ([]types.SimilarPage, error) {
	if limit <= 0 {
		limit = ps.config.SearchLimit
	}

	var indexed bool
	err := ps.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT embedding IS NOT NULL FROM %s WHERE url = $1`, ps.table),
		url,
	).Scan(&indexed)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !indexed) {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT p.url, COALESCE(p.title, ''), p.embedding <=> t.embedding AS distance
		FROM %[1]s p, (SELECT embedding FROM %[1]s WHERE url = $1) t
		WHERE p.url <> $1 AND p.embedding IS NOT NULL
		ORDER BY distance
		LIMIT $2`,
		ps.table)

	rows, err := ps.pool.Query(ctx, query, url, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar pages: %w", err)
	}
	defer rows.Close()

	results := []types.SimilarPage{}
	for rows.Next() {
		var p types.SimilarPage
		if err := rows.Scan(&p.URL, &p.Title, &p.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// Load rebuilds a site structure from the stored page records.
func (ps *PageStore) Load(ctx context.Context) (models.SiteStructure, error) {
	rows, err := ps.pool.Query(ctx, fmt.Sprintf(`SELECT url, data::text FROM %s`, ps.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	structure := models.SiteStructure{}
	for rows.Next() {
		var (
			url  string
			data string
		)
		if err := rows.Scan(&url, &data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var page models.PageData
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", url, err)
		}
		structure[url] = &page
	}
	return structure, rows.Err()
}

func (ps *PageStore) Close() {
	if ps.pool != nil {
		ps.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
