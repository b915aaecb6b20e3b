// Package suggest turns booking data into schedule and upsell suggestions
// via an LLM.
package suggest

import "context"

// ChatMessage is one turn of a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// LLMRequest is a provider-neutral completion request.
type LLMRequest struct {
	System      string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

// LLMResponse carries the completion text.
type LLMResponse struct {
	Text       string
	StopReason string
}

// LLMClient abstracts the completion provider so the service can be tested
// with a stub.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
