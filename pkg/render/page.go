package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/xhad/sitegraph/pkg/graph"
	"github.com/xhad/sitegraph/pkg/scorecard"
	"github.com/xhad/sitegraph/pkg/site"
)

//go:embed templates/*.tmpl assets/*
var content embed.FS

var pageTemplate = template.Must(template.ParseFS(content, "templates/index.html.tmpl"))

// Assets serves the stylesheet and script referenced by the page.
func Assets() fs.FS {
	sub, err := fs.Sub(content, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// View selects how the page draws the graph.
type View struct {
	Options
	Size  graph.SizeMode
	Group graph.GroupKey
	Title string
}

type pageData struct {
	Title    string
	SVG      template.HTML
	Items    []scorecard.Item
	Empty    bool
	Err      string
	Size     graph.SizeMode
	NextSize graph.SizeMode
	Group    graph.GroupKey
}

// Page renders the explorer page for snap.
func Page(w io.Writer, snap *site.Snapshot, view View) error {
	if view.Size == "" {
		view.Size = graph.SizeUniform
	}
	if view.Group == "" {
		view.Group = graph.GroupByPath
	}
	if view.Title == "" {
		view.Title = "Site Graph"
	}

	data := pageData{
		Title:    view.Title,
		Size:     view.Size,
		NextSize: graph.NextSizeMode(view.Size),
		Group:    view.Group,
	}

	switch {
	case snap != nil && snap.Err != nil:
		data.Empty = true
		data.Err = snap.Err.Error()
	case snap.Empty():
		data.Empty = true
	default:
		opts := view.Options
		if opts.Width == 0 || opts.Height == 0 {
			opts.Width, opts.Height = snap.Width, snap.Height
		}
		var buf bytes.Buffer
		if err := SVG(&buf, snap.View(view.Size, view.Group), opts); err != nil {
			return fmt.Errorf("failed to render graph: %w", err)
		}
		data.SVG = template.HTML(inlineSVG(buf.String()))
		data.Items = snap.Scorecard.Items()
	}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// inlineSVG drops the XML prolog so the document can sit inside HTML.
func inlineSVG(doc string) string {
	if i := strings.Index(doc, "<svg"); i > 0 {
		return doc[i:]
	}
	return doc
}
