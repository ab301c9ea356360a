package models

import (
	"sort"
	"strings"
	"time"
)

// PageData is the per-URL record stored in links.json.
type PageData struct {
	Title             string             `json:"title"`
	MetaDescription   string             `json:"meta_description"`
	MetaKeywords      string             `json:"meta_keywords"`
	H1Tags            []string           `json:"h1_tags"`
	WordCount         int                `json:"word_count"`
	StatusCode        int                `json:"status_code,omitempty"`
	ResponseTime      float64            `json:"response_time"`
	ReadabilityScore  float64            `json:"readability_score"`
	Sentiment         float64            `json:"sentiment"`
	KeywordDensity    map[string]float64 `json:"keyword_density"`
	ImageCount        int                `json:"image_count"`
	ScriptCount       int                `json:"script_count"`
	StylesheetCount   int                `json:"stylesheet_count"`
	HasViewportMeta   bool               `json:"has_viewport_meta"`
	HeadingCount      int                `json:"heading_count"`
	ParagraphCount    int                `json:"paragraph_count"`
	InternalLinks     []string           `json:"internal_links"`
	ExternalLinks     []string           `json:"external_links"`
	SemanticElements  map[string]bool    `json:"semantic_elements"`
	HeadingIssues     [][2]string        `json:"heading_issues"`
	UnlabeledInputs   []string           `json:"unlabeled_inputs"`
	ImagesWithoutAlt  []string           `json:"images_without_alt"`
	SecurityHeaders   map[string]bool    `json:"security_headers,omitempty"`
	HasStructuredData bool               `json:"has_structured_data"`
	CrawledAt         *time.Time         `json:"crawled_at,omitempty"`
}

// IssueCount is the number of accessibility problems recorded for the page.
func (p *PageData) IssueCount() int {
	if p == nil {
		return 0
	}
	return len(p.HeadingIssues) + len(p.UnlabeledInputs) + len(p.ImagesWithoutAlt)
}

// SemanticTags are the HTML5 landmark elements tracked on every page.
var SemanticTags = []string{"main", "nav", "article", "section", "header", "footer", "aside"}

// SecurityHeaders are the response headers checked on every page.
var SecurityHeaders = []string{
	"Content-Security-Policy",
	"Strict-Transport-Security",
	"X-Content-Type-Options",
	"X-Frame-Options",
	"Referrer-Policy",
}

// SiteStructure maps an absolute URL to its page record. A nil record means
// the page is known but was never described.
type SiteStructure map[string]*PageData

// URLs returns the keys in sorted order.
func (s SiteStructure) URLs() []string {
	urls := make([]string, 0, len(s))
	for u := range s {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Lookup finds a page ignoring a trailing slash on either side.
func (s SiteStructure) Lookup(url string) (string, *PageData, bool) {
	trimmed := strings.TrimRight(url, "/")
	for _, key := range []string{url, trimmed, trimmed + "/"} {
		if page, ok := s[key]; ok && page != nil {
			return key, page, true
		}
	}
	return "", nil, false
}
