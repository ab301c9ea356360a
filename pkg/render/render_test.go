package render

import (
	"bytes"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sitegraph/internal/models"
	"github.com/xhad/sitegraph/pkg/graph"
	"github.com/xhad/sitegraph/pkg/scorecard"
	"github.com/xhad/sitegraph/pkg/site"
)

func twoPages() models.SiteStructure {
	return models.SiteStructure{
		"https://example.com/": {
			Title:         "Home & Garden",
			InternalLinks: []string{"https://example.com/about?x=1"},
		},
		"https://example.com/about?x=1": {Title: "About"},
	}
}

func snapshot(t *testing.T, structure models.SiteStructure) *site.Snapshot {
	t.Helper()
	return site.NewHolder(site.HolderConfig{}).Set(structure)
}

func TestSVGOneLinePerEdge(t *testing.T) {
	g := graph.Build(twoPages())
	g.Layout(400, 300, graph.LayoutOptions{})

	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, g, Options{Width: 400, Height: 300}))
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, "<line"))
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Contains(t, out, `class="link"`)
	assert.Contains(t, out, `data-source="https://example.com/"`)
	assert.Contains(t, out, `data-target="https://example.com/about?x=1"`)
	assert.Contains(t, out, `data-url="https://example.com/about?x=1"`)
	assert.Contains(t, out, "<title>Home &amp; Garden")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestSVGHighlightAndPath(t *testing.T) {
	structure := twoPages()
	structure["https://example.com/lonely"] = &models.PageData{}
	g := graph.Build(structure)
	g.Layout(400, 300, graph.LayoutOptions{})

	h, err := g.Highlight("https://example.com/")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, g, Options{
		Highlight: &h,
		Path:      []string{"https://example.com/about?x=1", "https://example.com/"},
	}))
	out := buf.String()

	assert.Contains(t, out, `class="link highlight path"`)
	assert.Equal(t, 1, strings.Count(out, `class="node dimmed"`))
	assert.Equal(t, 2, strings.Count(out, `class="node highlight path"`))
}

func TestSVGHulls(t *testing.T) {
	g := graph.Build(models.SiteStructure{
		"https://example.com/blog/a": {InternalLinks: []string{"https://example.com/blog/b"}},
		"https://example.com/blog/b": {},
	})
	g.Layout(400, 300, graph.LayoutOptions{})

	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, g, Options{}))
	assert.Equal(t, 1, strings.Count(buf.String(), "<polygon"))
	assert.Contains(t, buf.String(), `data-group="/blog"`)

	buf.Reset()
	require.NoError(t, SVG(&buf, g, Options{HideHulls: true}))
	assert.NotContains(t, buf.String(), "<polygon")
}

func TestDetailItems(t *testing.T) {
	g := graph.Build(models.SiteStructure{
		"https://example.com/": {
			Title:            "Home",
			H1Tags:           []string{"Welcome", "Hi"},
			WordCount:        42,
			StatusCode:       200,
			ResponseTime:     0.126,
			HasViewportMeta:  true,
			KeywordDensity:   map[string]float64{"a": 0.5, "b": 0.25, "c": 0.1, "d": 0.05, "e": 0.02, "f": 0.01, "z": 0},
			SemanticElements: map[string]bool{"nav": true, "main": false},
			HeadingIssues:    [][2]string{{"h1", "h3"}},
			InternalLinks:    []string{"https://example.com/x"},
		},
	})

	d, err := DetailItems(g, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", d.URL)
	assert.Equal(t, 1, d.Connections)

	byLabel := map[string][]string{}
	var labels []string
	for _, it := range d.Items {
		byLabel[it.Label] = it.Values
		labels = append(labels, it.Label)
	}

	assert.Equal(t, "Title", labels[0])
	assert.Equal(t, "Images Without Alt Text", labels[len(labels)-1])
	assert.Equal(t, []string{"Welcome, Hi"}, byLabel["H1 Tags"])
	assert.Equal(t, []string{"N/A"}, byLabel["Meta Description"])
	assert.Equal(t, []string{"a: 50.00%", "b: 25.00%", "c: 10.00%", "d: 5.00%", "e: 2.00%"}, byLabel["Unigram Density"])
	assert.Equal(t, []string{"Yes"}, byLabel["Has Viewport Meta"])
	assert.Equal(t, []string{"0.13 seconds"}, byLabel["Response Time"])
	assert.Equal(t, []string{"1 links"}, byLabel["Number Of Internal Links"])
	assert.Equal(t, []string{"main: ❌", "nav: ✔️"}, byLabel["Semantic Elements"])
	assert.Equal(t, []string{"h1 → h3"}, byLabel["Heading Structure Issues"])
	assert.Equal(t, []string{"None"}, byLabel["Unlabeled Inputs"])
	assert.Equal(t, []string{"None"}, byLabel["Images Without Alt Text"])

	uncrawled, err := DetailItems(g, "https://example.com/x")
	require.NoError(t, err)
	assert.False(t, uncrawled.Known)
	assert.Equal(t, scorecard.Item{Label: "Status Code", Values: []string{"N/A"}}, uncrawled.Items[16])

	_, err = DetailItems(g, "https://example.com/missing")
	assert.ErrorIs(t, err, graph.ErrUnknownNode)
}

func TestPageEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Page(&buf, snapshot(t, models.SiteStructure{}), View{}))
	out := buf.String()

	assert.Contains(t, out, "No crawl data available to display.")
	assert.Contains(t, out, "No scorecard data loaded.")
	assert.NotContains(t, out, "<svg")
}

func TestPageLoadError(t *testing.T) {
	snap := snapshot(t, models.SiteStructure{})
	snap.Err = errors.New("unexpected end of JSON input")

	var buf bytes.Buffer
	require.NoError(t, Page(&buf, snap, View{}))
	assert.Contains(t, buf.String(), "Could not load or process crawl data.")
	assert.Contains(t, buf.String(), "unexpected end of JSON input")
}

func TestPageWithData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Page(&buf, snapshot(t, twoPages()), View{Size: graph.SizePageRank, Group: graph.GroupByStatus}))
	out := buf.String()

	assert.NotContains(t, out, "<?xml")
	assert.Contains(t, out, `viewBox="0 0 960 640"`)
	assert.Contains(t, out, `id="graph"`)
	assert.Equal(t, 1, strings.Count(out, "<line"))
	assert.Contains(t, out, `id="scorecard-list"`)
	assert.Contains(t, out, "<strong>Total Pages:</strong> 2")
	assert.Contains(t, out, `data-size="pagerank"`)
	assert.Contains(t, out, `data-next-size="word_count"`)
	assert.Contains(t, out, `data-group="status"`)
	assert.Contains(t, out, `id="analyze-node-button"`)
}

func TestPageUsesLayoutViewport(t *testing.T) {
	snap := site.NewHolder(site.HolderConfig{Width: 1600, Height: 1000}).Set(twoPages())

	var buf bytes.Buffer
	require.NoError(t, Page(&buf, snap, View{}))
	assert.Contains(t, buf.String(), `viewBox="0 0 1600 1000"`)
}

func TestAssets(t *testing.T) {
	for _, name := range []string{"app.js", "style.css"} {
		data, err := fs.ReadFile(Assets(), name)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}

	script, err := fs.ReadFile(Assets(), "app.js")
	require.NoError(t, err)
	for _, hook := range []string{"viewBox", "wheel", "dataset.source", "dataset.target"} {
		assert.Contains(t, string(script), hook)
	}
}
