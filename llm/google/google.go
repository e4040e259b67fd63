// Package google adapts the Google GenAI SDK to the llm.Client interface.
package google

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/spetersoncode/campaigner/llm"
)

const DefaultModel = "gemini-2.0-flash"

// Client wraps the Google GenAI SDK to implement llm.Client.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, llm.WrapError("google", err)
	}
	c := &Client{
		client: client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Google client.
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

	contents := convertMessages(messages)
	config := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	content := ""
	finishReason := ""
	if len(resp.Candidates) > 0 {
		finishReason = string(resp.Candidates[0].FinishReason)
		if resp.Candidates[0].Content != nil {
			for _, part := range resp.Candidates[0].Content.Parts {
				if part.Text != "" {
					content += part.Text
				}
			}
		}
	}

	usage := llm.Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &llm.Response{
		Content:      content,
		Model:        model,
		FinishReason: finishReason,
		Usage:        usage,
	}, nil
}

// wrapError categorizes a GenAI SDK error. The SDK carries the HTTP status
// in a Code field rather than a StatusCode method.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.CategorizeHTTP("google", apiErr.Code, 0, err)
	}
	return llm.WrapError("google", err)
}

func convertMessages(messages []llm.Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		// Gemini has no system role; system prompts ride along as user turns.
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

var _ llm.Client = (*Client)(nil)
