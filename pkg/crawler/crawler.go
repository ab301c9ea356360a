package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/sitegraph/internal/models"
	"github.com/xhad/sitegraph/pkg/textstats"
	"golang.org/x/time/rate"
)

// DefaultExtensions lists the file extensions fetched besides directory and
// extensionless paths, which are always fetched.
var DefaultExtensions = []string{".html", ".htm", ".xhtml", ".php", ".asp", ".aspx", ".jsp"}

type Config struct {
	BaseURL           string
	MaxDepth          int
	MaxPages          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	UserAgent         string
	OnProgress        func(url string)
	Logger            *slog.Logger
	Text              *textstats.Processor
}

type Crawler struct {
	config   Config
	client   *http.Client
	visited  map[string]bool
	limiter  *rate.Limiter
	baseHost string
	log      *slog.Logger
	text     *textstats.Processor
}

func NewWithConfig(config Config) (*Crawler, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 3
	}
	if config.MaxPages == 0 {
		config.MaxPages = 100
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = DefaultExtensions
	}
	if config.UserAgent == "" {
		config.UserAgent = "sitegraph/1.0"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Text == nil {
		config.Text = textstats.New()
	}

	parsedURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", config.BaseURL)
	}

	return &Crawler{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		visited:  make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
		log:      config.Logger,
		text:     config.Text,
	}, nil
}

func New(baseURL string) (*Crawler, error) {
	return NewWithConfig(Config{
		BaseURL: baseURL,
	})
}

func (c *Crawler) isInternal(u *url.URL) bool {
	return u.Host == c.baseHost
}

func (c *Crawler) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false
	}
	if !c.isInternal(parsedURL) {
		return false
	}

	if !c.hasAllowedExtension(parsedURL.Path) {
		return false
	}

	for _, pattern := range c.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

// hasAllowedExtension accepts directories, extensionless paths and paths
// whose extension is listed in AllowedExtensions.
func (c *Crawler) hasAllowedExtension(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return true
	}
	for _, allowed := range c.config.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// normalize resolves href against base and drops the fragment.
func normalize(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, err
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs, nil
}

// Crawl walks same-host pages depth first from startURL and returns one
// record per fetched page.
func (c *Crawler) Crawl(ctx context.Context, startURL string) (models.SiteStructure, error) {
	site := make(models.SiteStructure)

	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	start.Fragment = ""

	err = c.crawlRecursive(ctx, start.String(), 0, site)
	if errors.Is(err, errPageLimit) {
		err = nil
	}
	if err != nil && len(site) == 0 {
		return nil, err
	}
	if err != nil {
		c.log.Warn("crawl stopped early", "pages", len(site), "error", err)
	}
	return site, nil
}

var errPageLimit = errors.New("page limit reached")

func (c *Crawler) crawlRecursive(ctx context.Context, urlStr string, depth int, site models.SiteStructure) error {
	if depth > c.config.MaxDepth || c.visited[urlStr] {
		return nil
	}
	if len(site) >= c.config.MaxPages {
		return errPageLimit
	}
	if !c.shouldProcessURL(urlStr) {
		return nil
	}

	c.visited[urlStr] = true
	if c.config.OnProgress != nil {
		c.config.OnProgress(urlStr)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	page, doc, err := c.fetch(ctx, urlStr)
	if err != nil {
		c.log.Warn("failed to crawl", "url", urlStr, "error", err)
		return nil
	}
	site[urlStr] = page
	c.log.Debug("crawled", "url", urlStr, "status", page.StatusCode, "depth", depth)

	if doc == nil {
		return nil
	}

	for _, link := range page.InternalLinks {
		if err := c.crawlRecursive(ctx, link, depth+1, site); err != nil {
			return err
		}
	}
	return nil
}

// fetch downloads one page. Non-200 and non-HTML responses come back with a
// record but no document.
func (c *Crawler) fetch(ctx context.Context, urlStr string) (*models.PageData, *goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	crawledAt := start.UTC()
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || !isHTML(resp.Header.Get("Content-Type")) {
		return &models.PageData{
			StatusCode:   resp.StatusCode,
			ResponseTime: time.Since(start).Seconds(),
			CrawledAt:    &crawledAt,
		}, nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", urlStr, err)
	}
	elapsed := time.Since(start)

	pageURL := resp.Request.URL
	page := c.Extract(doc, pageURL, resp.Header)
	page.StatusCode = resp.StatusCode
	page.ResponseTime = elapsed.Seconds()
	page.CrawledAt = &crawledAt
	return page, doc, nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
