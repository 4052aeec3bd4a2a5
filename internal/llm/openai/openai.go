// Package openai adapts an OpenAI-compatible chat completions API to
// llm.Generator.
package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/sakif/snippet-lab/internal/llm"
)

var _ llm.Generator = (*Client)(nil)

// DefaultModel is used when the caller passes an empty model ID.
const DefaultModel = goopenai.GPT4oMini

// Client wraps the go-openai client.
type Client struct {
	client *goopenai.Client
}

// New creates a client. baseURL may be empty for the public API, or point at
// any OpenAI-compatible server (Azure, Ollama, vLLM).
func New(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{client: goopenai.NewClientWithConfig(cfg)}, nil
}

// Generate sends prompt as a single user message and returns the first
// choice's content.
func (c *Client) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	if modelID == "" {
		modelID = DefaultModel
	}
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: modelID,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
