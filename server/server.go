// Package server exposes the page graph explorer and its JSON API over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xhad/sitegraph/internal/types"
	"github.com/xhad/sitegraph/pkg/graph"
	"github.com/xhad/sitegraph/pkg/render"
	"github.com/xhad/sitegraph/pkg/site"
	"github.com/xhad/sitegraph/pkg/store"
)

type Config struct {
	Holder *site.Holder
	// Analyzer, Cache and Store are optional.
	Analyzer    types.Analyzer
	Cache       types.AnalysisCache
	Store       types.PageStore
	CORSOrigins []string
	// Width and Height default to the holder's layout viewport.
	Width       float64
	Height      float64
	HullPadding float64
	Labels      bool
	Logger      *slog.Logger
}

type Server struct {
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func New(config Config) (*Server, error) {
	if config.Holder == nil {
		return nil, errors.New("server requires a site holder")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Width == 0 || config.Height == 0 {
		config.Width, config.Height = config.Holder.Size()
	}
	if len(config.CORSOrigins) == 0 {
		config.CORSOrigins = []string{"*"}
	}
	s := &Server{config: config, logger: config.Logger}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.allowOrigin(r.Header.Get("Origin")) != ""
		},
	}
	return s, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.cors())

	r.GET("/", s.Index)
	r.GET("/graph.svg", s.GraphSVG)
	r.StaticFS("/assets", http.FS(render.Assets()))

	api := r.Group("/api")
	api.GET("/urls", s.URLs)
	api.GET("/graph", s.Graph)
	api.GET("/scorecard", s.Scorecard)
	api.GET("/node", s.Node)
	api.GET("/highlight", s.Highlight)
	api.GET("/path", s.Path)
	api.GET("/hulls", s.Hulls)
	api.GET("/similar", s.Similar)
	api.POST("/analyze", s.Analyze)

	r.GET("/ws", s.WebSocket)
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) allowOrigin(origin string) string {
	for _, o := range s.config.CORSOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	if origin == "" {
		// same-origin requests carry no Origin header
		return "*"
	}
	return ""
}

func (s *Server) cors() gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if slices.Contains(s.config.CORSOrigins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = s.config.CORSOrigins
	}
	return cors.New(config)
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// viewParams reads the size and group query parameters.
func viewParams(c *gin.Context) (graph.SizeMode, graph.GroupKey, error) {
	size, err := graph.ParseSizeMode(c.Query("size"))
	if err != nil {
		return "", "", err
	}
	group, err := graph.ParseGroupKey(c.Query("group"))
	if err != nil {
		return "", "", err
	}
	return size, group, nil
}

func (s *Server) renderOptions() render.Options {
	return render.Options{
		Width:       s.config.Width,
		Height:      s.config.Height,
		HullPadding: s.config.HullPadding,
		Labels:      s.config.Labels,
	}
}

func (s *Server) Index(c *gin.Context) {
	size, group, err := viewParams(c)
	if err != nil {
		// fall back to the default view rather than a bare error page
		size, group = graph.SizeUniform, graph.GroupByPath
	}

	var buf bytes.Buffer
	view := render.View{Options: s.renderOptions(), Size: size, Group: group}
	if err := render.Page(&buf, s.config.Holder.Snapshot(), view); err != nil {
		s.logger.Error("failed to render page", "error", err)
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) GraphSVG(c *gin.Context) {
	size, group, err := viewParams(c)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.config.Holder.Snapshot()
	g := snap.View(size, group)
	opts := s.renderOptions()

	if id := c.Query("highlight"); id != "" {
		n, err := g.Resolve(id)
		if err != nil {
			errorJSON(c, http.StatusNotFound, err.Error())
			return
		}
		h, err := g.Highlight(n.ID)
		if err != nil {
			errorJSON(c, http.StatusNotFound, err.Error())
			return
		}
		opts.Highlight = &h
	}

	var buf bytes.Buffer
	if err := render.SVG(&buf, g, opts); err != nil {
		s.logger.Error("failed to render svg", "error", err)
		errorJSON(c, http.StatusInternalServerError, "failed to render graph")
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (s *Server) URLs(c *gin.Context) {
	c.JSON(http.StatusOK, s.config.Holder.Snapshot().Structure.URLs())
}

type graphNode struct {
	*graph.Node
	Degree int `json:"degree"`
}

type graphEdge struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	Target string `json:"target"`
}

func (s *Server) Graph(c *gin.Context) {
	size, group, err := viewParams(c)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	g := s.config.Holder.Snapshot().View(size, group)
	nodes := make([]graphNode, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = graphNode{Node: n, Degree: n.Degree()}
	}
	edges := make([]graphEdge, len(g.Edges))
	for i, e := range g.Edges {
		edges[i] = graphEdge{Index: i, Source: g.Nodes[e.Source].ID, Target: g.Nodes[e.Target].ID}
	}
	c.JSON(http.StatusOK, gin.H{"nodes": nodes, "edges": edges})
}

func (s *Server) Scorecard(c *gin.Context) {
	snap := s.config.Holder.Snapshot()
	resp := gin.H{
		"scorecard": snap.Scorecard,
		"items":     snap.Scorecard.Items(),
	}
	if snap.Err != nil {
		resp["error"] = snap.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func requireURL(c *gin.Context, param string) (string, bool) {
	u := c.Query(param)
	if u == "" {
		errorJSON(c, http.StatusBadRequest, fmt.Sprintf("Missing '%s' query parameter", param))
		return "", false
	}
	return u, true
}

func (s *Server) Node(c *gin.Context) {
	u, ok := requireURL(c, "url")
	if !ok {
		return
	}
	detail, err := render.DetailItems(s.config.Holder.Snapshot().Graph, u)
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) Highlight(c *gin.Context) {
	u, ok := requireURL(c, "url")
	if !ok {
		return
	}
	g := s.config.Holder.Snapshot().Graph
	n, err := g.Resolve(u)
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	h, err := g.Highlight(n.ID)
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) Path(c *gin.Context) {
	from, ok := requireURL(c, "from")
	if !ok {
		return
	}
	g := s.config.Holder.Snapshot().Graph

	src, err := g.Resolve(from)
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}

	var path []string
	if to := c.Query("to"); to != "" {
		dst, err := g.Resolve(to)
		if err != nil {
			errorJSON(c, http.StatusNotFound, err.Error())
			return
		}
		path, err = g.ShortestPath(src.ID, dst.ID)
		if err != nil {
			errorJSON(c, http.StatusNotFound, err.Error())
			return
		}
	} else {
		path, err = g.PathToRoot(src.ID)
		if err != nil {
			errorJSON(c, http.StatusNotFound, err.Error())
			return
		}
	}

	edges := g.PathEdges(path)
	if edges == nil {
		edges = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "edges": edges})
}

func (s *Server) Hulls(c *gin.Context) {
	size, group, err := viewParams(c)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	padding := s.config.HullPadding
	if padding == 0 {
		padding = 8
	}
	c.JSON(http.StatusOK, s.config.Holder.Snapshot().View(size, group).Hulls(padding))
}

func (s *Server) Similar(c *gin.Context) {
	u, ok := requireURL(c, "url")
	if !ok {
		return
	}
	if s.config.Store == nil {
		errorJSON(c, http.StatusServiceUnavailable, "Similarity search is not configured")
		return
	}

	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			errorJSON(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if key, _, found := s.config.Holder.Snapshot().Structure.Lookup(u); found {
		u = key
	}
	pages, err := s.config.Store.Similar(c.Request.Context(), u, limit)
	switch {
	case errors.Is(err, store.ErrNotIndexed):
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error("similarity search failed", "url", u, "error", err)
		errorJSON(c, http.StatusInternalServerError, "Similarity search failed")
		return
	}
	c.JSON(http.StatusOK, pages)
}
