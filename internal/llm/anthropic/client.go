package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"recommendation-backend/internal/llm"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 4096
)

// Client implements llm.Completer with the Anthropic Messages API.
type Client struct {
	client *anthropic.Client
	model  string
}

// NewClient builds a client. opts are passed to the SDK (base URL overrides in tests).
func NewClient(apiKey, model string, opts ...anthropic.ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is required")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{client: anthropic.NewClient(apiKey, opts...), model: model}, nil
}

func (c *Client) Model() string { return c.model }

// Complete sends a single user message. JSON mode is requested through the system prompt
// since the Messages API has no response format switch.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\nReturn ONLY a JSON object.")
	}
	prompt := req.Prompt
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: defaultMaxTokens,
		System:    system,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		return "", llm.Unavailable("anthropic", err)
	}
	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", llm.Unavailable("anthropic", errors.New("empty response"))
	}
	return text, nil
}

func extractText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

var _ llm.Completer = (*Client)(nil)
