package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/xhad/sitegraph/pkg/cache"
)

var errNoPage = errors.New("no data found for this URL")

func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Ask the configured LLM to review one crawled page",
		Long: `Analyze sends the page's structured record to the configured provider and
prints its strengths, weaknesses and suggestions for SEO, accessibility and
semantic HTML. Results are cached per URL and model.

Examples:
  sitegraph analyze https://example.com/about
  sitegraph analyze --stream --raw https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().Bool("stream", false, "Print the analysis as it is generated")
	cmd.Flags().Bool("raw", false, "Print Markdown without terminal rendering")
	cmd.Flags().Bool("no-cache", false, "Skip the analysis cache")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	holder, err := loadSite(cfg, logger)
	if err != nil {
		return err
	}

	key, page, ok := holder.Snapshot().Structure.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", errNoPage, args[0])
	}

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var c *cache.SQLiteCache
	noCache, _ := cmd.Flags().GetBool("no-cache")
	if !noCache && !cfg.Cache.Disabled {
		c, err = openCache(cfg)
		if err != nil {
			logger.Warn("analysis cache disabled", "error", err)
		} else {
			defer c.Close()
			if text, ok, err := c.Get(ctx, key, analyzer.Model()); err == nil && ok {
				logger.Debug("analysis served from cache", "url", key)
				return printAnalysis(cmd, text)
			}
		}
	}

	out := cmd.OutOrStdout()
	var text string
	if stream, _ := cmd.Flags().GetBool("stream"); stream {
		var sb strings.Builder
		err = analyzer.AnalyzeStream(ctx, key, page, func(chunk string) error {
			sb.WriteString(chunk)
			_, err := fmt.Fprint(out, chunk)
			return err
		})
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		text = strings.TrimSpace(sb.String())
	} else {
		spinner := getSpinner(cmd.ErrOrStderr(), "Analyzing "+key)
		text, err = analyzer.Analyze(ctx, key, page)
		_ = spinner.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		if err := printAnalysis(cmd, text); err != nil {
			return err
		}
	}

	if c != nil && text != "" {
		if err := c.Put(ctx, key, analyzer.Model(), text); err != nil {
			logger.Warn("analysis cache write failed", "error", err)
		}
	}
	return nil
}

func printAnalysis(cmd *cobra.Command, text string) error {
	out := cmd.OutOrStdout()
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		_, err := fmt.Fprintln(out, text)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := r.Render(text)
	if err != nil {
		return fmt.Errorf("failed to render analysis: %w", err)
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
