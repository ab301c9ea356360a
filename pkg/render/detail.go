package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xhad/sitegraph/internal/models"
	"github.com/xhad/sitegraph/pkg/graph"
	"github.com/xhad/sitegraph/pkg/scorecard"
)

// Detail is the content of the node detail panel.
type Detail struct {
	URL         string           `json:"url"`
	Known       bool             `json:"known"`
	Connections int              `json:"connections"`
	Items       []scorecard.Item `json:"items"`
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}

// DetailItems builds the detail panel for id.
func DetailItems(g *graph.Graph, id string) (Detail, error) {
	n, err := g.Resolve(id)
	if err != nil {
		return Detail{}, err
	}
	d := n.Data
	if d == nil {
		d = &models.PageData{}
	}
	connections := g.ConnectionCount(n.ID)

	status := "N/A"
	if d.StatusCode != 0 {
		status = strconv.Itoa(d.StatusCode)
	}
	viewport := "No"
	if d.HasViewportMeta {
		viewport = "Yes"
	}
	images := "None"
	if len(d.ImagesWithoutAlt) > 0 {
		images = strconv.Itoa(len(d.ImagesWithoutAlt))
	}

	var issues []string
	for _, pair := range d.HeadingIssues {
		issues = append(issues, pair[0]+" → "+pair[1])
	}

	items := []scorecard.Item{
		{Label: "Title", Values: []string{orNA(d.Title)}},
		{Label: "URL", Values: []string{n.ID}},
		{Label: "Connections", Values: []string{strconv.Itoa(connections)}},
		{Label: "Meta Description", Values: []string{orNA(d.MetaDescription)}},
		{Label: "Meta Keywords", Values: []string{orNA(d.MetaKeywords)}},
		{Label: "H1 Tags", Values: []string{joinOrNone(d.H1Tags)}},
		{Label: "Word Count", Values: []string{strconv.Itoa(d.WordCount)}},
		{Label: "Unigram Density", Values: unigramDensity(d.KeywordDensity)},
		{Label: "Readability Score", Values: []string{fmt.Sprintf("%.2f", d.ReadabilityScore)}},
		{Label: "Sentiment", Values: []string{fmt.Sprintf("%.2f", d.Sentiment)}},
		{Label: "Image Count", Values: []string{strconv.Itoa(d.ImageCount)}},
		{Label: "Script Count", Values: []string{strconv.Itoa(d.ScriptCount)}},
		{Label: "Stylesheet Count", Values: []string{strconv.Itoa(d.StylesheetCount)}},
		{Label: "Has Viewport Meta", Values: []string{viewport}},
		{Label: "Heading Count", Values: []string{strconv.Itoa(d.HeadingCount)}},
		{Label: "Paragraph Count", Values: []string{strconv.Itoa(d.ParagraphCount)}},
		{Label: "Status Code", Values: []string{status}},
		{Label: "Response Time", Values: []string{fmt.Sprintf("%.2f seconds", d.ResponseTime)}},
		{Label: "Number Of Internal Links", Values: []string{fmt.Sprintf("%d links", len(d.InternalLinks))}},
		{Label: "Number Of External Links", Values: []string{fmt.Sprintf("%d links", len(d.ExternalLinks))}},
		{Label: "Semantic Elements", Values: semanticMarks(d.SemanticElements)},
		{Label: "Heading Structure Issues", Values: []string{joinOrNone(issues)}},
		{Label: "Unlabeled Inputs", Values: []string{joinOrNone(d.UnlabeledInputs)}},
		{Label: "Images Without Alt Text", Values: []string{images}},
	}

	return Detail{URL: n.ID, Known: n.Known, Connections: connections, Items: items}, nil
}

// unigramDensity lists the five densest positive keywords as percentages.
func unigramDensity(density map[string]float64) []string {
	if len(density) == 0 {
		return []string{"N/A"}
	}
	type kv struct {
		k string
		v float64
	}
	var entries []kv
	for k, v := range density {
		if v > 0 {
			entries = append(entries, kv{k, v})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].v != entries[j].v {
			return entries[i].v > entries[j].v
		}
		return entries[i].k < entries[j].k
	})
	if len(entries) > 5 {
		entries = entries[:5]
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s: %.2f%%", e.k, e.v*100))
	}
	return out
}

func semanticMarks(elements map[string]bool) []string {
	if len(elements) == 0 {
		return []string{"N/A"}
	}
	order := make([]string, 0, len(elements))
	seen := make(map[string]bool, len(elements))
	for _, tag := range models.SemanticTags {
		if _, ok := elements[tag]; ok {
			order = append(order, tag)
			seen[tag] = true
		}
	}
	var extra []string
	for tag := range elements {
		if !seen[tag] {
			extra = append(extra, tag)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	out := make([]string, 0, len(order))
	for _, tag := range order {
		mark := "❌"
		if elements[tag] {
			mark = "✔️"
		}
		out = append(out, tag+": "+mark)
	}
	return out
}
