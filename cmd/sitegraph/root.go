package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xhad/sitegraph/pkg/config"
	"github.com/xhad/sitegraph/pkg/site"
)

// NewRootCmd creates the root command for sitegraph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitegraph",
		Short: "Crawl a website and explore its page graph",
		Long: `sitegraph crawls a website, records SEO and accessibility metadata for
each page in links.json, and serves an interactive graph of the pages with a
site-wide scorecard and per-page LLM analysis.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path (default: sitegraph.yaml or ~/.config/sitegraph/config.yaml)")
	cmd.PersistentFlags().StringP("data", "d", "", "Path to links.json (overrides server.data_path)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewScorecardCmd())
	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewPathCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads .env, the yaml config and the global flags, and installs
// the logger as the slog default.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		cfg.Server.DataPath = data
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, nil, fmt.Errorf("configuration error: %w", errors.Join(joined...))
	}
	return cfg, logger, nil
}

// loadSite builds a holder over the configured links.json and loads it.
func loadSite(cfg *config.Config, logger *slog.Logger) (*site.Holder, error) {
	holder := site.NewHolder(holderConfig(cfg, logger))
	if err := holder.Reload(); err != nil {
		return nil, err
	}
	return holder, nil
}
