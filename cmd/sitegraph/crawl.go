package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/sitegraph/pkg/crawler"
	"github.com/xhad/sitegraph/pkg/site"
)

func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a website and write links.json",
		Long: `Crawl follows same-host links from the start URL and records title, meta
tags, headings, text statistics, accessibility issues and security headers
for every page.

Examples:
  sitegraph crawl https://example.com
  sitegraph crawl --max-pages 250 --depth 4 -d out/links.json https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().Int("depth", 0, "Maximum crawl depth (default from config)")
	cmd.Flags().Int("max-pages", 0, "Maximum number of pages to crawl (default from config)")
	cmd.Flags().Float64("rate-limit", 0, "Requests per second (default from config)")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetInt("depth"); v > 0 {
		cfg.Crawler.MaxDepth = v
	}
	if v, _ := cmd.Flags().GetInt("max-pages"); v > 0 {
		cfg.Crawler.MaxPages = v
	}
	if v, _ := cmd.Flags().GetFloat64("rate-limit"); v > 0 {
		cfg.Crawler.RateLimit = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var onProgress func(string)
	if quiet, _ := cmd.Flags().GetBool("no-progress"); !quiet {
		bar := getProgressBar(cmd.ErrOrStderr(), cfg.Crawler.MaxPages, "Crawling")
		defer bar.Finish()
		onProgress = func(string) { _ = bar.Add(1) }
	}

	c, err := crawler.NewWithConfig(crawler.Config{
		BaseURL:           args[0],
		MaxDepth:          cfg.Crawler.MaxDepth,
		MaxPages:          cfg.Crawler.MaxPages,
		RateLimit:         cfg.Crawler.RateLimit,
		IgnorePatterns:    cfg.Crawler.IgnorePatterns,
		AllowedExtensions: cfg.Crawler.AllowedExtensions,
		Timeout:           cfg.Crawler.Timeout,
		UserAgent:         cfg.Crawler.UserAgent,
		OnProgress:        onProgress,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}

	structure, err := c.Crawl(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to crawl %s: %w", args[0], err)
	}

	if err := site.Save(cfg.Server.DataPath, structure); err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr())
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Crawled %d pages into %s\n", len(structure), cfg.Server.DataPath)
	return nil
}
