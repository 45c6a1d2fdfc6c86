// Package llm defines the contract with the external language-model
// collaborator. The core never trusts its output: content may be empty,
// truncated, or invalid, and every caller validates before use.
package llm

import "context"

// Request is a single completion request.
type Request struct {
	SystemPrompt    string
	UserMessage     string
	JSONMode        bool
	MaxOutputTokens int
}

// Response is the collaborator's answer. Content may be empty when the
// model returned nothing usable; TokensUsed covers prompt and completion.
type Response struct {
	Content      string
	TokensUsed   int
	FinishReason string
}

// Client is the LLM collaborator boundary. Implementations must honor
// ctx cancellation; callers bound every call with a timeout.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
