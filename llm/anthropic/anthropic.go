// Package anthropic adapts the Anthropic SDK to the llm.Client interface.
package anthropic

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spetersoncode/campaigner/llm"
)

const DefaultModel = "claude-sonnet-4-5-20250929"

// Client wraps the Anthropic SDK to implement llm.Client.
type Client struct {
	client *anthropic.Client
	model  string
}

// New creates a new Anthropic client.
// Without WithAPIKey, the key is read from the ANTHROPIC_API_KEY environment
// variable by the underlying SDK.
func New(opts ...ClientOption) *Client {
	c := &Client{
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		client := anthropic.NewClient()
		c.client = &client
	}
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithAPIKey sets the API key explicitly instead of using the environment variable.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		client := anthropic.NewClient(option.WithAPIKey(key))
		c.client = &client
	}
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// Complete sends a conversation and returns the full model reply.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	options := llm.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	maxTokens := int64(4096)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &llm.Response{
		Content:      content,
		Model:        model,
		FinishReason: string(resp.StopReason),
		Usage: llm.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// wrapError categorizes an Anthropic SDK error, honoring Retry-After on
// rate-limit responses.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llm.CategorizeHTTP("anthropic", apiErr.StatusCode,
			llm.RetryAfterFromResponse(apiErr.Response), err)
	}
	return llm.WrapError("anthropic", err)
}

func convertMessages(messages []llm.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case llm.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return result, system
}

var _ llm.Client = (*Client)(nil)
