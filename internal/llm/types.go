// Package llm defines the LLM provider interface and related types.
// Providers are interchangeable behind this interface.
package llm

import (
	"context"
)

// Role constants for Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a provider's Complete() call.
type CompletionRequest struct {
	Messages     []Message
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	Model        string // override provider default if set
}

// CompletionResponse is returned by Complete().
type CompletionResponse struct {
	Text         string
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// Provider is the core abstraction for language model backends.
// Implementations: AnthropicProvider, OpenAIProvider.
//
// Errors that are worth retrying satisfy errors.IsRetryable from internal/errors:
// transport failures wrap ErrUnavailable and HTTP failures are *APIError.
type Provider interface {
	// Complete sends a completion request and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// ModelID returns the current model identifier string.
	ModelID() string
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
