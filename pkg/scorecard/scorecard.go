// Package scorecard aggregates per-page metrics into site-wide statistics.
package scorecard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xhad/sitegraph/internal/models"
)

type Scorecard struct {
	TotalPages       int                `json:"totalPages"`
	WordCount        int                `json:"word_count"`
	ReadabilityScore float64            `json:"readability_score"`
	Sentiment        float64            `json:"sentiment"`
	ImageCount       int                `json:"image_count"`
	ScriptCount      int                `json:"script_count"`
	StylesheetCount  int                `json:"stylesheet_count"`
	HeadingCount     int                `json:"heading_count"`
	ParagraphCount   int                `json:"paragraph_count"`
	ResponseTime     float64            `json:"response_time"`
	InternalLinks    int                `json:"internal_links"`
	ExternalLinks    int                `json:"external_links"`
	KeywordDensity   map[string]float64 `json:"keyword_density"`
	StatusCodes      map[int]int        `json:"status_codes"`
	ViewportMeta     int                `json:"viewport_meta_count"`
	SemanticElements map[string]int     `json:"semantic_elements"`
	HeadingIssues    int                `json:"heading_issues"`
	UnlabeledInputs  int                `json:"unlabeled_inputs"`
	ImagesWithoutAlt int                `json:"images_without_alt"`
	StructuredData   int                `json:"structured_data_count"`
	SecurityHeaders  map[string]int     `json:"security_headers"`

	AverageWordCount        float64 `json:"average_word_count"`
	AverageReadabilityScore float64 `json:"average_readability_score"`
	AverageSentiment        float64 `json:"average_sentiment"`
	AverageResponseTime     float64 `json:"average_response_time"`
}

func empty() Scorecard {
	semantic := make(map[string]int, len(models.SemanticTags))
	for _, tag := range models.SemanticTags {
		semantic[tag] = 0
	}
	return Scorecard{
		KeywordDensity:   map[string]float64{},
		StatusCodes:      map[int]int{},
		SemanticElements: semantic,
		SecurityHeaders:  map[string]int{},
	}
}

// Calculate sums every page record. Nil records count toward TotalPages but
// contribute nothing else.
func Calculate(site models.SiteStructure) Scorecard {
	sc := empty()
	sc.TotalPages = len(site)
	if sc.TotalPages == 0 {
		return sc
	}

	for _, page := range site {
		if page == nil {
			continue
		}

		sc.WordCount += page.WordCount
		sc.ReadabilityScore += page.ReadabilityScore
		sc.Sentiment += page.Sentiment
		sc.ImageCount += page.ImageCount
		sc.ScriptCount += page.ScriptCount
		sc.StylesheetCount += page.StylesheetCount
		sc.HeadingCount += page.HeadingCount
		sc.ParagraphCount += page.ParagraphCount
		sc.ResponseTime += page.ResponseTime
		sc.InternalLinks += len(page.InternalLinks)
		sc.ExternalLinks += len(page.ExternalLinks)

		for keyword, density := range page.KeywordDensity {
			sc.KeywordDensity[keyword] += density
		}
		if page.StatusCode != 0 {
			sc.StatusCodes[page.StatusCode]++
		}
		if page.HasViewportMeta {
			sc.ViewportMeta++
		}
		for tag, present := range page.SemanticElements {
			if present {
				sc.SemanticElements[tag]++
			}
		}
		sc.HeadingIssues += len(page.HeadingIssues)
		sc.UnlabeledInputs += len(page.UnlabeledInputs)
		sc.ImagesWithoutAlt += len(page.ImagesWithoutAlt)

		if page.HasStructuredData {
			sc.StructuredData++
		}
		for header, present := range page.SecurityHeaders {
			if present {
				sc.SecurityHeaders[header]++
			}
		}
	}

	n := float64(sc.TotalPages)
	sc.AverageWordCount = float64(sc.WordCount) / n
	sc.AverageReadabilityScore = sc.ReadabilityScore / n
	sc.AverageSentiment = sc.Sentiment / n
	sc.AverageResponseTime = sc.ResponseTime / n
	return sc
}

// Item is one labelled line of the scorecard list. Value lines are joined
// with line breaks when displayed.
type Item struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

func (i Item) String() string {
	return i.Label + ": " + strings.Join(i.Values, ", ")
}

func item(label string, values ...string) Item {
	return Item{Label: label, Values: values}
}

// KeywordAverage is a keyword's summed density divided by the page count.
type KeywordAverage struct {
	Keyword string
	Average float64
}

// TopKeywords returns the n highest summed densities, ties broken alphabetically.
func (sc Scorecard) TopKeywords(n int) []KeywordAverage {
	keys := make([]string, 0, len(sc.KeywordDensity))
	for k := range sc.KeywordDensity {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := sc.KeywordDensity[keys[i]], sc.KeywordDensity[keys[j]]
		if a != b {
			return a > b
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}

	out := make([]KeywordAverage, len(keys))
	for i, k := range keys {
		avg := 0.0
		if sc.TotalPages > 0 {
			avg = sc.KeywordDensity[k] / float64(sc.TotalPages)
		}
		out[i] = KeywordAverage{Keyword: k, Average: avg}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SemanticTagOrder lists the tracked tags first, then any extras alphabetically.
func (sc Scorecard) SemanticTagOrder() []string {
	order := append([]string{}, models.SemanticTags...)
	known := make(map[string]bool, len(order))
	for _, t := range order {
		known[t] = true
	}
	for _, t := range sortedKeys(sc.SemanticElements) {
		if !known[t] {
			order = append(order, t)
		}
	}
	return order
}

// StatusCodeOrder lists the observed codes ascending.
func (sc Scorecard) StatusCodeOrder() []int {
	codes := make([]int, 0, len(sc.StatusCodes))
	for c := range sc.StatusCodes {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

// Items renders the scorecard list in display order.
func (sc Scorecard) Items() []Item {
	items := []Item{
		item("Total Pages", strconv.Itoa(sc.TotalPages)),
		item("Average Word Count", fmt.Sprintf("%.2f", sc.AverageWordCount)),
		item("Average Readability Score", fmt.Sprintf("%.2f", sc.AverageReadabilityScore)),
		item("Average Sentiment", fmt.Sprintf("%.2f", sc.AverageSentiment)),
		item("Average Response Time", fmt.Sprintf("%.2f seconds", sc.AverageResponseTime)),
		item("Total Images", strconv.Itoa(sc.ImageCount)),
		item("Total Scripts", strconv.Itoa(sc.ScriptCount)),
		item("Total Stylesheets", strconv.Itoa(sc.StylesheetCount)),
		item("Total Headings", strconv.Itoa(sc.HeadingCount)),
		item("Total Paragraphs", strconv.Itoa(sc.ParagraphCount)),
		item("Pages with Viewport Meta", strconv.Itoa(sc.ViewportMeta)),
		item("Total Internal Links", strconv.Itoa(sc.InternalLinks)),
		item("Total External Links", strconv.Itoa(sc.ExternalLinks)),
		item("Heading Issues Detected", strconv.Itoa(sc.HeadingIssues)),
		item("Unlabeled Inputs", strconv.Itoa(sc.UnlabeledInputs)),
		item("Images Without Alt Text", strconv.Itoa(sc.ImagesWithoutAlt)),
		item("Pages with Structured Data", strconv.Itoa(sc.StructuredData)),
	}

	var semantic []string
	for _, tag := range sc.SemanticTagOrder() {
		semantic = append(semantic, fmt.Sprintf("%s: %d", tag, sc.SemanticElements[tag]))
	}
	items = append(items, item("Semantic Element Usage", semantic...))

	var headers []string
	for _, h := range models.SecurityHeaders {
		headers = append(headers, fmt.Sprintf("%s: %d", h, sc.SecurityHeaders[h]))
	}
	items = append(items, item("Security Header Coverage", headers...))

	var keywords []string
	for _, kw := range sc.TopKeywords(10) {
		keywords = append(keywords, fmt.Sprintf("%s: (Avg density %.4f)", kw.Keyword, kw.Average))
	}
	if len(keywords) == 0 {
		keywords = []string{"N/A"}
	}
	items = append(items, item("Top Keyword Density (Average)", keywords...))

	var statuses []string
	for _, code := range sc.StatusCodeOrder() {
		statuses = append(statuses, fmt.Sprintf("%d: %d", code, sc.StatusCodes[code]))
	}
	if len(statuses) == 0 {
		statuses = []string{"N/A"}
	}
	items = append(items, item("Status Codes", statuses...))

	return items
}
