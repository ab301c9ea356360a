// Package render draws the page graph as SVG and produces the explorer's
// HTML page, scorecard list and node detail panel.
package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"sort"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/xhad/sitegraph/pkg/graph"
)

type Options struct {
	Width       float64
	Height      float64
	HullPadding float64
	HideHulls   bool
	Labels      bool

	// Highlight dims everything outside the selected neighborhood.
	Highlight *graph.Highlight
	// Path marks a node sequence, typically the route to the root.
	Path []string
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = 960
	}
	if o.Height == 0 {
		o.Height = 640
	}
	if o.HullPadding == 0 {
		o.HullPadding = 8
	}
	return o
}

var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// groupColors assigns palette colors to group names in sorted order.
func groupColors(g *graph.Graph) map[string]string {
	var names []string
	for name := range g.Groups() {
		names = append(names, name)
	}
	sort.Strings(names)
	colors := make(map[string]string, len(names))
	for i, name := range names {
		colors[name] = palette[i%len(palette)]
	}
	return colors
}

func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}

func px(v float64) int {
	return int(math.Round(v))
}

// SVG writes the graph as a standalone SVG document: hull polygons first,
// then one line per edge, then one circle per node.
func SVG(w io.Writer, g *graph.Graph, opts Options) error {
	opts = opts.withDefaults()

	onPath := make(map[string]bool, len(opts.Path))
	for _, id := range opts.Path {
		onPath[id] = true
	}
	pathEdges := make(map[int]bool)
	for _, idx := range g.PathEdges(opts.Path) {
		pathEdges[idx] = true
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(px(opts.Width), px(opts.Height),
		fmt.Sprintf(`viewBox="0 0 %d %d"`, px(opts.Width), px(opts.Height)),
		`id="graph"`)

	colors := groupColors(g)

	canvas.Group(`class="hulls"`)
	if !opts.HideHulls {
		for _, h := range g.Hulls(opts.HullPadding) {
			xs := make([]int, len(h.Points))
			ys := make([]int, len(h.Points))
			for i, p := range h.Points {
				xs[i], ys[i] = px(p.X), px(p.Y)
			}
			c := colors[h.Group]
			canvas.Polygon(xs, ys, `class="hull"`, attr("data-group", h.Group),
				fmt.Sprintf("fill:%s;fill-opacity:0.12;stroke:%s;stroke-opacity:0.4;stroke-width:1.5", c, c))
		}
	}
	canvas.Gend()

	canvas.Group(`class="links"`)
	for idx, e := range g.Edges {
		src, dst := g.Nodes[e.Source], g.Nodes[e.Target]
		classes := []string{"link"}
		if opts.Highlight != nil {
			if opts.Highlight.HasEdge(idx) {
				classes = append(classes, "highlight")
			} else {
				classes = append(classes, "dimmed")
			}
		}
		if pathEdges[idx] {
			classes = append(classes, "path")
		}
		canvas.Line(px(src.X), px(src.Y), px(dst.X), px(dst.Y),
			attr("class", strings.Join(classes, " ")),
			attr("data-index", fmt.Sprint(idx)),
			attr("data-source", src.ID),
			attr("data-target", dst.ID))
	}
	canvas.Gend()

	canvas.Group(`class="nodes"`)
	for _, n := range g.Nodes {
		classes := []string{"node"}
		if !n.Known {
			classes = append(classes, "uncrawled")
		}
		if opts.Highlight != nil {
			if opts.Highlight.HasNode(n.ID) {
				classes = append(classes, "highlight")
			} else {
				classes = append(classes, "dimmed")
			}
		}
		if onPath[n.ID] {
			classes = append(classes, "path")
		}

		canvas.Group(`class="node-group"`, attr("data-group", n.Group))
		canvas.Title(nodeTitle(n))
		canvas.Circle(px(n.X), px(n.Y), max(px(n.Radius), 1),
			attr("class", strings.Join(classes, " ")),
			attr("data-url", n.ID),
			attr("data-index", fmt.Sprint(n.Index)),
			attr("stroke", colors[n.Group]))
		if opts.Labels {
			canvas.Text(px(n.X+n.Radius+3), px(n.Y+4), shortLabel(n.ID), `class="label"`)
		}
		canvas.Gend()
	}
	canvas.Gend()

	canvas.End()
	_, err := w.Write(buf.Bytes())
	return err
}

func nodeTitle(n *graph.Node) string {
	if n.Data != nil && n.Data.Title != "" {
		return n.Data.Title + "\n" + n.ID
	}
	return n.ID
}

func shortLabel(id string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(id, "https://"), "http://")
	if i := strings.Index(s, "/"); i >= 0 && i < len(s)-1 {
		s = s[i:]
	}
	if len(s) > 32 {
		s = s[:29] + "..."
	}
	return s
}
