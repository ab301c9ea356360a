package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/sitegraph/internal/types"
	"github.com/xhad/sitegraph/pkg/llm"
)

func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Store crawled pages and their embeddings in Postgres",
		Long: `Index upserts every described page of links.json into the pgvector page
store and embeds its text with Ollama so /api/similar can find related pages.

Examples:
  DATABASE_URL=postgres://localhost/sitegraph sitegraph index
  sitegraph index --no-embed`,
		Args: cobra.NoArgs,
		RunE: runIndexCmd,
	}

	cmd.Flags().Bool("no-embed", false, "Store page records without embeddings")
	cmd.Flags().String("ollama-url", "", "Ollama server for embeddings (default $OLLAMA_BASE_URL)")

	return cmd
}

func runIndexCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("index requires database.url or $DATABASE_URL")
	}

	holder, err := loadSite(cfg, logger)
	if err != nil {
		return err
	}
	structure := holder.Snapshot().Structure

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pages, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pages.Close()

	var emb types.Embedder
	if noEmbed, _ := cmd.Flags().GetBool("no-embed"); !noEmbed {
		baseURL, _ := cmd.Flags().GetString("ollama-url")
		if baseURL == "" {
			baseURL = os.Getenv("OLLAMA_BASE_URL")
		}
		if baseURL == "" && cfg.LLM.Provider == llm.ProviderOllama {
			baseURL = cfg.LLM.BaseURL
		}
		e, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			Model:   cfg.LLM.EmbeddingModel,
			BaseURL: baseURL,
		})
		if err != nil {
			return err
		}
		emb = e
	}

	spinner := getSpinner(cmd.ErrOrStderr(), "Indexing pages")
	n, err := pages.Store(ctx, structure, emb)
	_ = spinner.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Indexed %d pages into %s\n", n, cfg.Database.TableName)
	return nil
}
