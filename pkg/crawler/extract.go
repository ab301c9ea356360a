package crawler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/sitegraph/internal/models"
)

// Extract builds the SEO and accessibility record for a parsed page.
func (c *Crawler) Extract(doc *goquery.Document, pageURL *url.URL, header http.Header) *models.PageData {
	text := visibleText(doc)
	stats := c.text.Process(text)

	internal, external := c.extractLinks(doc, pageURL)

	page := &models.PageData{
		Title:             strings.TrimSpace(doc.Find("title").First().Text()),
		MetaDescription:   metaContent(doc, "description"),
		MetaKeywords:      metaContent(doc, "keywords"),
		H1Tags:            texts(doc.Find("h1")),
		WordCount:         stats.WordCount,
		ReadabilityScore:  stats.Readability,
		Sentiment:         stats.Sentiment,
		KeywordDensity:    stats.KeywordDensity,
		ImageCount:        doc.Find("img").Length(),
		ScriptCount:       doc.Find("script").Length(),
		StylesheetCount:   doc.Find(`link[rel~="stylesheet"]`).Length(),
		HasViewportMeta:   metaContent(doc, "viewport") != "",
		HeadingCount:      doc.Find("h1, h2, h3, h4, h5, h6").Length(),
		ParagraphCount:    doc.Find("p").Length(),
		InternalLinks:     internal,
		ExternalLinks:     external,
		SemanticElements:  semanticElements(doc),
		HeadingIssues:     headingIssues(doc),
		UnlabeledInputs:   unlabeledInputs(doc),
		ImagesWithoutAlt:  imagesWithoutAlt(doc),
		SecurityHeaders:   securityHeaders(header),
		HasStructuredData: doc.Find(`script[type="application/ld+json"], [itemscope]`).Length() > 0,
	}
	return page
}

func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}

func metaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(s.AttrOr("name", ""), name) {
			content = strings.TrimSpace(s.AttrOr("content", ""))
			return false
		}
		return true
	})
	return content
}

func texts(sel *goquery.Selection) []string {
	out := []string{}
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// extractLinks splits anchors into same-host and other-host absolute URLs,
// deduplicated in document order.
func (c *Crawler) extractLinks(doc *goquery.Document, pageURL *url.URL) ([]string, []string) {
	internal := []string{}
	external := []string{}
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, err := normalize(pageURL, href)
		if err != nil {
			c.log.Debug("error parsing URL", "href", href, "error", err)
			return
		}
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}

		link := abs.String()
		if seen[link] {
			return
		}
		seen[link] = true

		if c.isInternal(abs) {
			internal = append(internal, link)
		} else {
			external = append(external, link)
		}
	})

	return internal, external
}

func semanticElements(doc *goquery.Document) map[string]bool {
	elements := make(map[string]bool, len(models.SemanticTags))
	for _, tag := range models.SemanticTags {
		elements[tag] = doc.Find(tag).Length() > 0
	}
	return elements
}

// headingIssues reports consecutive headings that skip a level, such as an
// h1 followed directly by an h3.
func headingIssues(doc *goquery.Document) [][2]string {
	issues := [][2]string{}
	prev := ""
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		if prev != "" && headingLevel(tag) > headingLevel(prev)+1 {
			issues = append(issues, [2]string{prev, tag})
		}
		prev = tag
	})
	return issues
}

func headingLevel(tag string) int {
	if len(tag) != 2 || tag[0] != 'h' {
		return 0
	}
	return int(tag[1] - '0')
}

var unlabeledExempt = map[string]bool{
	"hidden": true, "submit": true, "button": true, "reset": true, "image": true,
}

func unlabeledInputs(doc *goquery.Document) []string {
	labelled := make(map[string]bool)
	doc.Find("label[for]").Each(func(_ int, s *goquery.Selection) {
		labelled[s.AttrOr("for", "")] = true
	})

	out := []string{}
	doc.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		inputType := strings.ToLower(s.AttrOr("type", ""))
		if tag == "input" && unlabeledExempt[inputType] {
			return
		}

		id := s.AttrOr("id", "")
		switch {
		case id != "" && labelled[id]:
			return
		case s.AttrOr("aria-label", "") != "", s.AttrOr("aria-labelledby", "") != "":
			return
		case s.ParentsFiltered("label").Length() > 0:
			return
		}

		switch {
		case id != "":
			out = append(out, id)
		case s.AttrOr("name", "") != "":
			out = append(out, s.AttrOr("name", ""))
		case inputType != "":
			out = append(out, inputType)
		default:
			out = append(out, tag)
		}
	})
	return out
}

func imagesWithoutAlt(doc *goquery.Document) []string {
	out := []string{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("alt"); ok {
			return
		}
		out = append(out, s.AttrOr("src", ""))
	})
	return out
}

func securityHeaders(header http.Header) map[string]bool {
	present := make(map[string]bool, len(models.SecurityHeaders))
	for _, h := range models.SecurityHeaders {
		present[h] = header.Get(h) != ""
	}
	return present
}
