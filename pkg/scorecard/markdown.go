package scorecard

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// WriteMarkdown renders the scorecard as a Markdown report.
func (sc Scorecard) WriteMarkdown(w io.Writer, title string) error {
	md := markdown.NewMarkdown(w)
	if title == "" {
		title = "Site Scorecard"
	}
	md.H1(title)
	md.PlainText("")

	if sc.TotalPages == 0 {
		md.PlainText("No scorecard data loaded.")
		return md.Build()
	}

	var rows [][]string
	for _, it := range sc.Items() {
		if len(it.Values) == 1 {
			rows = append(rows, []string{it.Label, it.Values[0]})
		}
	}
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Metric", "Value"}, Rows: rows})
	md.PlainText("")

	md.H2("Semantic Element Usage")
	md.PlainText("")
	var semantic [][]string
	for _, tag := range sc.SemanticTagOrder() {
		semantic = append(semantic, []string{"`<" + tag + ">`", strconv.Itoa(sc.SemanticElements[tag])})
	}
	md.Table(markdown.TableSet{Header: []string{"Element", "Pages"}, Rows: semantic})
	md.PlainText("")

	md.H2("Top Keywords")
	md.PlainText("")
	keywords := sc.TopKeywords(10)
	if len(keywords) == 0 {
		md.PlainText("N/A")
	} else {
		var list []string
		for _, kw := range keywords {
			list = append(list, fmt.Sprintf("%s (avg density %.4f)", kw.Keyword, kw.Average))
		}
		md.OrderedList(list...)
	}
	md.PlainText("")

	md.H2("Status Codes")
	md.PlainText("")
	codes := sc.StatusCodeOrder()
	if len(codes) == 0 {
		md.PlainText("N/A")
		return md.Build()
	}
	chart := piechart.NewPieChart(io.Discard, piechart.WithTitle("Responses"), piechart.WithShowData(true))
	for _, code := range codes {
		chart.LabelAndIntValue(strconv.Itoa(code), uint64(sc.StatusCodes[code]))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())

	errs := 0
	for _, code := range codes {
		if code >= 400 {
			errs += sc.StatusCodes[code]
		}
	}
	if errs > 0 {
		md.PlainText("")
		md.Warningf("%d page(s) returned an error status.", errs)
	}

	return md.Build()
}
