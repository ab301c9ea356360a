package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xhad/sitegraph/internal/types"
	"github.com/xhad/sitegraph/pkg/cache"
	"github.com/xhad/sitegraph/pkg/config"
	"github.com/xhad/sitegraph/pkg/graph"
	"github.com/xhad/sitegraph/pkg/llm"
	"github.com/xhad/sitegraph/pkg/site"
	"github.com/xhad/sitegraph/pkg/store"
	"github.com/xhad/sitegraph/pkg/watcher"
	"github.com/xhad/sitegraph/server"
	"golang.org/x/sync/errgroup"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive page graph",
		Long: `Serve loads links.json and serves the graph explorer, the scorecard and
the analysis API. The file is watched and reloaded when it changes.

Examples:
  sitegraph serve
  sitegraph serve --port 5001 -d out/links.json
  sitegraph serve --from-db`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config or $PORT)")
	cmd.Flags().Bool("no-watch", false, "Do not reload links.json when it changes")
	cmd.Flags().Bool("from-db", false, "Load pages from the Postgres page store instead of links.json")

	return cmd
}

func holderConfig(cfg *config.Config, logger *slog.Logger) site.HolderConfig {
	return site.HolderConfig{
		Path:   cfg.Server.DataPath,
		Width:  cfg.Graph.Width,
		Height: cfg.Graph.Height,
		Layout: graph.LayoutOptions{
			Updates:   cfg.Graph.Updates,
			Repulsion: cfg.Graph.Repulsion,
			Theta:     cfg.Graph.Theta,
			Seed:      cfg.Graph.Seed,
		},
		Logger: logger,
	}
}

func newAnalyzer(cfg *config.Config) (types.Analyzer, error) {
	return llm.NewAnalyzer(llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
}

func openCache(cfg *config.Config) (*cache.SQLiteCache, error) {
	return cache.Open(cfg.Cache.Path, cache.Options{TTL: cfg.Cache.TTL, EnableWAL: true})
}

func openStore(ctx context.Context, cfg *config.Config) (*store.PageStore, error) {
	return store.NewWithConfig(ctx, store.PageStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
	})
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvConfig := server.Config{
		CORSOrigins: cfg.Server.CORSOrigins,
		Width:       cfg.Graph.Width,
		Height:      cfg.Graph.Height,
		HullPadding: cfg.Graph.HullPadding,
		Labels:      cfg.Graph.Labels,
		Logger:      logger,
	}

	if analyzer, err := newAnalyzer(cfg); err != nil {
		logger.Warn("page analysis disabled", "provider", cfg.LLM.Provider, "error", err)
	} else {
		srvConfig.Analyzer = analyzer
	}

	if !cfg.Cache.Disabled {
		c, err := openCache(cfg)
		if err != nil {
			logger.Warn("analysis cache disabled", "path", cfg.Cache.Path, "error", err)
		} else {
			defer c.Close()
			if n, err := c.Prune(ctx); err == nil && n > 0 {
				logger.Info("pruned expired analyses", "count", n)
			}
			srvConfig.Cache = c
		}
	}

	var pages *store.PageStore
	if cfg.Database.URL != "" {
		pages, err = openStore(ctx, cfg)
		if err != nil {
			logger.Warn("page store disabled", "error", err)
		} else {
			defer pages.Close()
			srvConfig.Store = pages
		}
	}

	holder := site.NewHolder(holderConfig(cfg, logger))
	srvConfig.Holder = holder

	watch := cfg.WatchEnabled()
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		watch = false
	}

	if fromDB, _ := cmd.Flags().GetBool("from-db"); fromDB {
		if pages == nil {
			return fmt.Errorf("--from-db requires a reachable database (database.url or $DATABASE_URL)")
		}
		structure, err := pages.Load(ctx)
		if err != nil {
			return err
		}
		holder.Set(structure)
		logger.Info("crawl data loaded from page store", "pages", len(structure))
		watch = false
	} else {
		// a missing or broken file leaves the empty view in place
		_ = holder.Reload()
	}

	srv, err := server.New(srvConfig)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, ":"+strconv.Itoa(cfg.Server.Port))
	})

	if watch {
		w, err := watcher.New(cfg.Server.DataPath, func() {
			_ = holder.Reload()
		}, watcher.WithLogger(logger))
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	return g.Wait()
}
