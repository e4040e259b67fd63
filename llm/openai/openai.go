// Package openai adapts the OpenAI SDK to the llm.Client interface.
package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/llm"
)

const DefaultModel = "gpt-4o"

// Client wraps the OpenAI SDK to implement llm.Client.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

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

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, campaigner.NewTransientError("openai: response contained no choices", 0, nil)
	}

	return &llm.Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: llm.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// wrapError categorizes an OpenAI SDK error, honoring Retry-After on
// rate-limit responses.
func wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return llm.CategorizeHTTP("openai", apiErr.StatusCode,
			llm.RetryAfterFromResponse(apiErr.Response), err)
	}
	return llm.WrapError("openai", err)
}

func convertMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

var _ llm.Client = (*Client)(nil)
