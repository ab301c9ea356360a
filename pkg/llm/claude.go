package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/xhad/sitegraph/internal/models"
)

const DefaultClaudeModel = "claude-3-7-sonnet-20250219"

type ClaudeConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	System      string
}

// ClaudeAnalyzer reviews pages with the Anthropic messages API.
type ClaudeAnalyzer struct {
	config ClaudeConfig
	client *anthropic.Client
}

func NewClaudeAnalyzer(config ClaudeConfig) (*ClaudeAnalyzer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not found in environment variables")
	}
	if config.Model == "" {
		config.Model = DefaultClaudeModel
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 1500
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	} else if config.Temperature == 0 {
		config.Temperature = 0.5
	}
	if config.System == "" {
		config.System = SystemPrompt
	}

	var opts []anthropic.ClientOption
	if config.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
	}

	return &ClaudeAnalyzer{
		config: config,
		client: anthropic.NewClient(config.APIKey, opts...),
	}, nil
}

func (c *ClaudeAnalyzer) Model() string {
	return c.config.Model
}

func (c *ClaudeAnalyzer) request(url string, page *models.PageData) (anthropic.MessagesRequest, error) {
	prompt, err := BuildPrompt(url, page)
	if err != nil {
		return anthropic.MessagesRequest{}, err
	}
	temperature := float32(c.config.Temperature)
	return anthropic.MessagesRequest{
		Model:       anthropic.Model(c.config.Model),
		System:      c.config.System,
		MaxTokens:   c.config.MaxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
	}, nil
}

// Analyze returns the model's Markdown review of the page.
func (c *ClaudeAnalyzer) Analyze(ctx context.Context, url string, page *models.PageData) (string, error) {
	req, err := c.request(url, page)
	if err != nil {
		return "", err
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		if text := strings.TrimSpace(*resp.Content[0].Text); text != "" {
			return text, nil
		}
	}
	return NoContent, nil
}

// AnalyzeStream passes text deltas to fn as they arrive.
func (c *ClaudeAnalyzer) AnalyzeStream(ctx context.Context, url string, page *models.PageData, fn func(string) error) error {
	req, err := c.request(url, page)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var fnErr error
	_, err = c.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
		MessagesRequest: req,
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if fnErr != nil || data.Delta.Text == nil {
				return
			}
			if fnErr = fn(*data.Delta.Text); fnErr != nil {
				cancel()
			}
		},
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("Anthropic API error: %w", err)
	}
	return nil
}
