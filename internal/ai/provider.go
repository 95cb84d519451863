package ai

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotConfigured means the provider is missing credentials.
	ErrNotConfigured = errors.New("ai provider not configured")
	// ErrSearchUnsupported is returned by providers without a web search mode.
	ErrSearchUnsupported = errors.New("ai provider does not support web search")
	// ErrEmptyResponse means the provider answered without any content.
	ErrEmptyResponse = errors.New("ai provider returned no content")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one completion call. System is sent as the system/instruction
// message when the provider has one.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Source is a web page the provider consulted while answering.
type Source struct {
	Title string
	URL   string
}

type Completion struct {
	Text    string
	Sources []Source
}

// Provider is the completion surface the rule layers depend on.
type Provider interface {
	// CompleteJSON asks for a single JSON object and returns its raw text.
	CompleteJSON(ctx context.Context, req Request) (string, error)
	// CompleteWithSearch lets the model browse the web before answering.
	CompleteWithSearch(ctx context.Context, req Request) (*Completion, error)
}

// UserPrompt is a convenience for single-turn requests.
func UserPrompt(content string) []Message {
	return []Message{{Role: "user", Content: content}}
}

// joinPrompt flattens a request into one text input for APIs that take a
// single prompt.
func joinPrompt(req Request) string {
	parts := make([]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}
