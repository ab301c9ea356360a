package site

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xhad/sitegraph/internal/models"
	"github.com/xhad/sitegraph/pkg/graph"
	"github.com/xhad/sitegraph/pkg/scorecard"
)

// Snapshot is an immutable view of one load of links.json.
type Snapshot struct {
	Structure models.SiteStructure
	Graph     *graph.Graph
	Scorecard scorecard.Scorecard
	LoadedAt  time.Time
	// Width and Height are the viewport the graph was laid out in.
	Width  float64
	Height float64
	// Err is set when no structure could be loaded at all.
	Err error
}

// Empty reports whether there is nothing to draw.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Structure) == 0
}

// View returns a copy of the graph sized by mode and grouped by key.
func (s *Snapshot) View(mode graph.SizeMode, key graph.GroupKey) *graph.Graph {
	g := s.Graph.Clone()
	g.ApplySizes(mode)
	g.AssignGroups(key)
	return g
}

type HolderConfig struct {
	Path   string
	Width  float64
	Height float64
	Layout graph.LayoutOptions
	Logger *slog.Logger
}

// Holder owns the current snapshot and swaps it on reload.
type Holder struct {
	config HolderConfig
	logger *slog.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

func NewHolder(config HolderConfig) *Holder {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.Width == 0 {
		config.Width = 960
	}
	if config.Height == 0 {
		config.Height = 640
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	h := &Holder{config: config, logger: config.Logger}
	h.snap = h.build(models.SiteStructure{})
	return h
}

func (h *Holder) Path() string {
	return h.config.Path
}

// Size returns the viewport the layout is fitted into.
func (h *Holder) Size() (width, height float64) {
	return h.config.Width, h.config.Height
}

// Snapshot returns the current snapshot. It is never nil.
func (h *Holder) Snapshot() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Set replaces the snapshot with one derived from structure.
func (h *Holder) Set(structure models.SiteStructure) *Snapshot {
	snap := h.build(structure)
	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
	return snap
}

// Reload reads the file again. If it fails and a structure was loaded
// before, the previous snapshot stays in place. Otherwise the error is
// recorded on an empty snapshot so the page can show it.
func (h *Holder) Reload() error {
	structure, err := Load(h.config.Path)
	if err != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		if len(h.snap.Structure) > 0 {
			h.logger.Error("reload failed, keeping previous crawl data", "path", h.config.Path, "error", err)
			return err
		}
		snap := h.build(models.SiteStructure{})
		if !errors.Is(err, ErrNoData) {
			snap.Err = err
		}
		h.logger.Warn("no crawl data loaded", "path", h.config.Path, "error", err)
		h.snap = snap
		return err
	}

	snap := h.Set(structure)
	h.logger.Info("crawl data loaded",
		"path", h.config.Path,
		"pages", len(structure),
		"nodes", snap.Graph.Len(),
		"edges", len(snap.Graph.Edges))
	return nil
}

func (h *Holder) build(structure models.SiteStructure) *Snapshot {
	g := graph.Build(structure)
	g.Layout(h.config.Width, h.config.Height, h.config.Layout)
	return &Snapshot{
		Structure: structure,
		Graph:     g,
		Scorecard: scorecard.Calculate(structure),
		LoadedAt:  time.Now(),
		Width:     h.config.Width,
		Height:    h.config.Height,
	}
}

