package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func NewPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <from> [to]",
		Short: "Print the shortest link path between two pages",
		Long: `Path finds the fewest-hop route between two pages, following links in
either direction. Without a target it routes to the site root.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runPathCmd,
	}
}

func runPathCmd(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	holder, err := loadSite(cfg, logger)
	if err != nil {
		return err
	}
	g := holder.Snapshot().Graph

	src, err := g.Resolve(args[0])
	if err != nil {
		return err
	}

	var path []string
	if len(args) == 2 {
		dst, err := g.Resolve(args[1])
		if err != nil {
			return err
		}
		path, err = g.ShortestPath(src.ID, dst.ID)
		if err != nil {
			return err
		}
	} else {
		path, err = g.PathToRoot(src.ID)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	hop := color.New(color.FgCyan)
	for i, id := range path {
		hop.Fprintf(out, "%2d. ", i)
		fmt.Fprintln(out, id)
	}
	return nil
}
