package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homePage = `
<html>
	<head>
		<title>Home Page</title>
		<meta name="description" content="The home page">
		<meta name="Keywords" content="home, test">
		<meta name="viewport" content="width=device-width">
		<link rel="stylesheet" href="/site.css">
		<script type="application/ld+json">{"@type": "WebSite"}</script>
	</head>
	<body>
		<header><nav><a href="/about.html#team">About</a></nav></header>
		<main>
			<h1>Welcome</h1>
			<h3>Skipped a level</h3>
			<p>This is a great test page. It has two sentences.</p>
			<img src="/logo.png" alt="logo">
			<img src="/banner.png">
			<form>
				<label for="email">Email</label>
				<input id="email" type="email">
				<input name="q" type="text">
				<label>Name <input name="name"></label>
				<input type="submit">
			</form>
			<a href="/missing.html">Missing</a>
			<a href="https://external.example.org/x">External</a>
			<a href="mailto:someone@example.com">Mail</a>
			<a href="/about.html">About again</a>
		</main>
		<script>var hidden = "not counted as words";</script>
	</body>
</html>`

const aboutPage = `
<html>
	<head><title>About</title></head>
	<body><h1>About us</h1><p>We build things.</p><a href="/">Home</a></body>
</html>`

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Write([]byte(homePage))
		case "/about.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(aboutPage))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCrawlerConfig(t *testing.T) {
	config := Config{
		BaseURL:        "https://example.com",
		MaxDepth:       5,
		RateLimit:      1.0,
		IgnorePatterns: []string{"/ignore/", "private"},
		Timeout:        10 * time.Second,
	}

	c, err := NewWithConfig(config)
	require.NoError(t, err)
	assert.Equal(t, config.BaseURL, c.config.BaseURL)
	assert.Equal(t, config.MaxDepth, c.config.MaxDepth)
	assert.Equal(t, 100, c.config.MaxPages)

	_, err = NewWithConfig(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestShouldProcessURL(t *testing.T) {
	c, err := NewWithConfig(Config{
		BaseURL:        "https://example.com",
		IgnorePatterns: []string{"/ignore/", "private"},
	})
	require.NoError(t, err)

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com", true},
		{"https://example.com/docs/", true},
		{"https://example.com/about", true},
		{"https://example.com/v1.2/", true},
		{"https://example.com/page.html", true},
		{"https://example.com/INDEX.HTM", true},
		{"https://example.com/search.php?q=go", true},
		{"https://example.com/ignore/page.html", false},
		{"https://other-domain.com/page.html", false},
		{"https://example.com/file.pdf", false},
		{"https://example.com/logo.png", false},
		{"https://example.com/static/app.js", false},
		{"ftp://example.com/page.html", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.shouldProcessURL(tt.url))
		})
	}

	c.config.AllowedExtensions = []string{".html"}
	assert.False(t, c.shouldProcessURL("https://example.com/search.php"))
	assert.True(t, c.shouldProcessURL("https://example.com/about"))
}

func TestCrawlWithMockServer(t *testing.T) {
	server := newTestSite(t)

	var progress []string
	c, err := NewWithConfig(Config{
		BaseURL:   server.URL,
		MaxDepth:  3,
		RateLimit: 100,
		OnProgress: func(url string) {
			progress = append(progress, url)
		},
	})
	require.NoError(t, err)

	site, err := c.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)
	require.Len(t, site, 3)
	assert.Len(t, progress, 3)

	home := site[server.URL+"/"]
	require.NotNil(t, home)
	assert.Equal(t, "Home Page", home.Title)
	assert.Equal(t, "The home page", home.MetaDescription)
	assert.Equal(t, "home, test", home.MetaKeywords)
	assert.True(t, home.HasViewportMeta)
	assert.True(t, home.HasStructuredData)
	assert.Equal(t, 200, home.StatusCode)
	assert.Equal(t, []string{"Welcome"}, home.H1Tags)
	assert.Equal(t, []string{
		server.URL + "/about.html",
		server.URL + "/missing.html",
	}, home.InternalLinks)
	assert.Equal(t, []string{"https://external.example.org/x"}, home.ExternalLinks)
	assert.Equal(t, 2, home.ImageCount)
	assert.Equal(t, 2, home.ScriptCount)
	assert.Equal(t, 1, home.StylesheetCount)
	assert.Equal(t, 2, home.HeadingCount)
	assert.Equal(t, 1, home.ParagraphCount)
	assert.Equal(t, [][2]string{{"h1", "h3"}}, home.HeadingIssues)
	assert.Equal(t, []string{"q"}, home.UnlabeledInputs)
	assert.Equal(t, []string{"/banner.png"}, home.ImagesWithoutAlt)
	assert.True(t, home.SemanticElements["main"])
	assert.True(t, home.SemanticElements["nav"])
	assert.False(t, home.SemanticElements["aside"])
	assert.True(t, home.SecurityHeaders["X-Frame-Options"])
	assert.False(t, home.SecurityHeaders["Content-Security-Policy"])
	assert.Greater(t, home.WordCount, 0)
	assert.NotContains(t, home.KeywordDensity, "hidden")

	missing := site[server.URL+"/missing.html"]
	require.NotNil(t, missing)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Empty(t, missing.InternalLinks)

	about := site[server.URL+"/about.html"]
	require.NotNil(t, about)
	assert.Equal(t, []string{server.URL + "/"}, about.InternalLinks)
}

func TestCrawlRespectsPageLimit(t *testing.T) {
	server := newTestSite(t)

	c, err := NewWithConfig(Config{
		BaseURL:   server.URL,
		MaxPages:  1,
		RateLimit: 100,
	})
	require.NoError(t, err)

	site, err := c.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Len(t, site, 1)
}

func TestCrawlRespectsDepth(t *testing.T) {
	server := newTestSite(t)

	c, err := NewWithConfig(Config{
		BaseURL:   server.URL,
		RateLimit: 100,
	})
	require.NoError(t, err)
	c.config.MaxDepth = 0

	site, err := c.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Len(t, site, 1)
}

func TestCrawlStopsOnCancel(t *testing.T) {
	server := newTestSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var visited []string
	c, err := NewWithConfig(Config{
		BaseURL:   server.URL,
		RateLimit: 100,
		OnProgress: func(url string) {
			visited = append(visited, url)
			if len(visited) == 2 {
				cancel()
			}
		},
	})
	require.NoError(t, err)

	site, err := c.Crawl(ctx, server.URL+"/")
	require.NoError(t, err)
	assert.Len(t, site, 1)
	assert.Contains(t, site, server.URL+"/")
	assert.Len(t, visited, 2)
}

func TestCrawlCancelledBeforeFirstPage(t *testing.T) {
	server := newTestSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := NewWithConfig(Config{BaseURL: server.URL, RateLimit: 100})
	require.NoError(t, err)

	site, err := c.Crawl(ctx, server.URL+"/")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, site)
}

func TestHeadingIssues(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<h2>a</h2><h4>b</h4><h2>c</h2><h3>d</h3><h6>e</h6>`))
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"h2", "h4"}, {"h3", "h6"}}, headingIssues(doc))
}
