// Package llm adapts remote generative backends to the single-message
// request/response contract the support chat uses.
package llm

import (
	"context"
	"fmt"
)

// Request is one stateless exchange: a fixed system instruction plus the
// current user message. Prior turns are never resent.
type Request struct {
	Model     string
	System    string
	Message   string
	Grounding bool
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Response carries the generated text. Text may be empty when the backend
// answered but produced nothing usable.
type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client is implemented by every backend adapter.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// StatusError is returned when a backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("llm: backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("llm: backend returned status %d: %s", e.StatusCode, e.Body)
}
