package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xhad/sitegraph/pkg/graph"
	"github.com/xhad/sitegraph/pkg/render"
)

func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the page graph as SVG",
		Long: `Render lays out the page graph and writes it as a standalone SVG document.

Examples:
  sitegraph render -o graph.svg
  sitegraph render --size pagerank --group status -o graph.svg
  sitegraph render --highlight https://example.com/about --path-from https://example.com/blog/post`,
		Args: cobra.NoArgs,
		RunE: runRenderCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Write the SVG to a file instead of stdout")
	cmd.Flags().String("size", string(graph.SizeUniform), "Node size metric (uniform, connections, inbound, pagerank, word_count, response_time, issues)")
	cmd.Flags().String("group", string(graph.GroupByPath), "Hull grouping (path, status)")
	cmd.Flags().String("highlight", "", "Highlight the neighborhood of this URL")
	cmd.Flags().String("path-from", "", "Mark the shortest path from this URL to the site root")
	cmd.Flags().Bool("labels", false, "Draw URL path labels next to nodes")
	cmd.Flags().Bool("no-hulls", false, "Do not draw group hulls")

	return cmd
}

func runRenderCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sizeFlag, _ := cmd.Flags().GetString("size")
	size, err := graph.ParseSizeMode(sizeFlag)
	if err != nil {
		return err
	}
	groupFlag, _ := cmd.Flags().GetString("group")
	group, err := graph.ParseGroupKey(groupFlag)
	if err != nil {
		return err
	}

	holder, err := loadSite(cfg, logger)
	if err != nil {
		return err
	}
	g := holder.Snapshot().View(size, group)

	labels, _ := cmd.Flags().GetBool("labels")
	noHulls, _ := cmd.Flags().GetBool("no-hulls")
	opts := render.Options{
		Width:       cfg.Graph.Width,
		Height:      cfg.Graph.Height,
		HullPadding: cfg.Graph.HullPadding,
		HideHulls:   noHulls,
		Labels:      labels || cfg.Graph.Labels,
	}

	if id, _ := cmd.Flags().GetString("highlight"); id != "" {
		n, err := g.Resolve(id)
		if err != nil {
			return err
		}
		h, err := g.Highlight(n.ID)
		if err != nil {
			return err
		}
		opts.Highlight = &h
	}
	if from, _ := cmd.Flags().GetString("path-from"); from != "" {
		n, err := g.Resolve(from)
		if err != nil {
			return err
		}
		opts.Path, err = g.PathToRoot(n.ID)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	return render.SVG(out, g, opts)
}
