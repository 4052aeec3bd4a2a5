// Package anthropic adapts the Anthropic Messages API to llm.Generator.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sakif/snippet-lab/internal/llm"
)

var _ llm.Generator = (*Client)(nil)

const (
	DefaultModel     = string(sdk.ModelClaude3_7SonnetLatest)
	defaultMaxTokens = 2048
)

// Client is a wrapper around the Anthropic API client.
type Client struct {
	client *sdk.Client
}

// New creates a client. baseURL may be empty for the public API.
func New(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := sdk.NewClient(opts...)
	return &Client{client: &client}, nil
}

// Generate sends prompt as a single user turn and concatenates the text
// blocks of the reply.
func (c *Client) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	if modelID == "" {
		modelID = DefaultModel
	}
	message, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(modelID),
		MaxTokens: int64(defaultMaxTokens),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages: %w", err)
	}

	var b strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			b.WriteString(content.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("anthropic: response had no text content")
	}
	return b.String(), nil
}
