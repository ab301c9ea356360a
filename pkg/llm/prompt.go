package llm

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xhad/sitegraph/internal/models"
)

// SystemPrompt frames every page analysis.
const SystemPrompt = `You are an expert analyst. Your task is to review structured JSON data from a webpage.
Summarize the strengths and weaknesses of this page in terms of SEO, accessibility, and semantic HTML structure.
Provide specific, actionable suggestions for improvements.
Structure your response clearly, using Markdown for headings (e.g., ## Strengths, ## Weaknesses, ## Suggestions).`

// NoContent is returned when the model answers with an empty message.
const NoContent = "No content returned from API."

// BuildPrompt embeds the page record as indented JSON in the user message.
func BuildPrompt(url string, page *models.PageData) (string, error) {
	if page == nil {
		return "", fmt.Errorf("no page data for %s", url)
	}
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode page data: %w", err)
	}

	var b strings.Builder
	b.WriteString("\nHere is a structured JSON of a webpage")
	if url != "" {
		fmt.Fprintf(&b, " (%s)", url)
	}
	b.WriteString(":\n\n")
	b.Write(data)
	b.WriteString("\n\nPlease analyze it based on the instructions provided.\n")
	return b.String(), nil
}
