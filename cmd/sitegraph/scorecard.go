package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/sitegraph/pkg/scorecard"
)

func NewScorecardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scorecard",
		Short: "Print the site-wide scorecard",
		Long: `Scorecard aggregates links.json into totals and averages: word counts,
readability, sentiment, accessibility issues, semantic elements, security
header coverage, top keywords and status codes.

Examples:
  sitegraph scorecard
  sitegraph scorecard --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: runScorecardCmd,
	}

	cmd.Flags().BoolP("markdown", "m", false, "Output a Markdown report")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().String("title", "", "Report title for --markdown")

	return cmd
}

func runScorecardCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	holder, err := loadSite(cfg, logger)
	if err != nil {
		return err
	}
	sc := holder.Snapshot().Scorecard

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	if md, _ := cmd.Flags().GetBool("markdown"); md {
		title, _ := cmd.Flags().GetString("title")
		return sc.WriteMarkdown(out, title)
	}
	printScorecard(out, sc)
	return nil
}

func printScorecard(w io.Writer, sc scorecard.Scorecard) {
	if sc.TotalPages == 0 {
		color.New(color.FgYellow).Fprintln(w, "No scorecard data loaded.")
		return
	}
	label := color.New(color.FgCyan, color.Bold)
	for _, it := range sc.Items() {
		if len(it.Values) == 1 {
			label.Fprintf(w, "%s: ", it.Label)
			fmt.Fprintln(w, it.Values[0])
			continue
		}
		label.Fprintf(w, "%s:\n", it.Label)
		for _, v := range it.Values {
			fmt.Fprintf(w, "  %s\n", strings.TrimSpace(v))
		}
	}
}
