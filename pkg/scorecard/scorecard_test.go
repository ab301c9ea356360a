package scorecard

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sitegraph/internal/models"
)

func TestCalculateEmpty(t *testing.T) {
	sc := Calculate(models.SiteStructure{})

	assert.Zero(t, sc.TotalPages)
	assert.Zero(t, sc.AverageWordCount)
	assert.Len(t, sc.SemanticElements, 7)
	for _, tag := range models.SemanticTags {
		assert.Contains(t, sc.SemanticElements, tag)
		assert.Zero(t, sc.SemanticElements[tag])
	}
	assert.Empty(t, sc.StatusCodes)
}

func TestCalculateTotalsAndAverages(t *testing.T) {
	site := models.SiteStructure{
		"https://example.com/": {
			WordCount:        100,
			ReadabilityScore: 60,
			ResponseTime:     0.2,
			StatusCode:       200,
			HasViewportMeta:  true,
			InternalLinks:    []string{"https://example.com/about"},
			ExternalLinks:    []string{"https://go.dev"},
			KeywordDensity:   map[string]float64{"go": 0.2},
			SemanticElements: map[string]bool{"main": true, "nav": false},
			HeadingIssues:    [][2]string{{"h1", "h3"}},
			ImagesWithoutAlt: []string{"a.png", "b.png"},
		},
		"https://example.com/about": {
			WordCount:        300,
			ReadabilityScore: 40,
			ResponseTime:     0.4,
			StatusCode:       200,
			KeywordDensity:   map[string]float64{"go": 0.1, "team": 0.4},
			SemanticElements: map[string]bool{"main": true},
			UnlabeledInputs:  []string{"email"},
			SecurityHeaders:  map[string]bool{"X-Frame-Options": true},
		},
	}

	sc := Calculate(site)
	assert.Equal(t, 2, sc.TotalPages)
	assert.Equal(t, 400, sc.WordCount)
	assert.InDelta(t, 200, sc.AverageWordCount, 1e-9)
	assert.InDelta(t, 50, sc.AverageReadabilityScore, 1e-9)
	assert.InDelta(t, 0.3, sc.AverageResponseTime, 1e-9)
	assert.Equal(t, 1, sc.InternalLinks)
	assert.Equal(t, 1, sc.ExternalLinks)
	assert.Equal(t, 1, sc.ViewportMeta)
	assert.Equal(t, 2, sc.SemanticElements["main"])
	assert.Zero(t, sc.SemanticElements["nav"])
	assert.Equal(t, map[int]int{200: 2}, sc.StatusCodes)
	assert.Equal(t, 1, sc.HeadingIssues)
	assert.Equal(t, 1, sc.UnlabeledInputs)
	assert.Equal(t, 2, sc.ImagesWithoutAlt)
	assert.Equal(t, 1, sc.SecurityHeaders["X-Frame-Options"])

	top := sc.TopKeywords(10)
	require.Len(t, top, 2)
	assert.Equal(t, "team", top[0].Keyword)
	assert.InDelta(t, 0.2, top[0].Average, 1e-9)
	assert.Equal(t, "go", top[1].Keyword)
	assert.InDelta(t, 0.15, top[1].Average, 1e-9)
}

func TestCalculateNilRecords(t *testing.T) {
	site := models.SiteStructure{
		"https://example.com/":  {WordCount: 90},
		"https://example.com/x": nil,
		"https://example.com/y": nil,
	}

	sc := Calculate(site)
	assert.Equal(t, 3, sc.TotalPages)
	assert.Equal(t, 90, sc.WordCount)
	assert.InDelta(t, 30, sc.AverageWordCount, 1e-9)
}

func TestItems(t *testing.T) {
	sc := Calculate(models.SiteStructure{
		"https://example.com/": {WordCount: 5, StatusCode: 404, ResponseTime: 1.234},
	})

	byLabel := map[string]Item{}
	for _, it := range sc.Items() {
		byLabel[it.Label] = it
	}

	assert.Equal(t, []string{"1"}, byLabel["Total Pages"].Values)
	assert.Equal(t, []string{"5.00"}, byLabel["Average Word Count"].Values)
	assert.Equal(t, []string{"1.23 seconds"}, byLabel["Average Response Time"].Values)
	assert.Equal(t, []string{"404: 1"}, byLabel["Status Codes"].Values)
	assert.Equal(t, []string{"N/A"}, byLabel["Top Keyword Density (Average)"].Values)
	assert.Len(t, byLabel["Semantic Element Usage"].Values, 7)
	assert.Equal(t, "main: 0", byLabel["Semantic Element Usage"].Values[0])
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Calculate(models.SiteStructure{}).WriteMarkdown(&buf, ""))
	assert.Contains(t, buf.String(), "# Site Scorecard")
	assert.Contains(t, buf.String(), "No scorecard data loaded.")

	buf.Reset()
	sc := Calculate(models.SiteStructure{
		"https://example.com/":  {WordCount: 10, StatusCode: 200, KeywordDensity: map[string]float64{"gopher": 0.5}},
		"https://example.com/x": {StatusCode: 500},
	})
	require.NoError(t, sc.WriteMarkdown(&buf, "example.com"))
	out := buf.String()
	assert.Contains(t, out, "# example.com")
	assert.Contains(t, out, "| Total Pages")
	assert.Contains(t, out, "gopher (avg density 0.2500)")
	assert.Contains(t, out, "```mermaid")
	assert.Contains(t, out, "1 page(s) returned an error status.")
}
