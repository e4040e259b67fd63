// Package llm defines the provider-neutral completion client used by the
// pipeline stages, plus the shared message and response types.
//
// Provider adapters live in the subpackages anthropic, openai, and google;
// each maps its SDK's errors into the campaigner error taxonomy so callers
// can decide retry vs. abort without inspecting provider internals.
package llm

import "context"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for a completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is a completed model reply.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Client is the narrow completion interface stages call through the gateway.
type Client interface {
	// Complete sends a conversation and returns the full model reply.
	Complete(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}

// System is a convenience constructor for a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User is a convenience constructor for a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
