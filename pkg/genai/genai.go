package genai

import (
	"context"
	"fmt"
)

// Outcome is a successful conversational result. Blocked is a valid turn:
// the provider answered, it just declined to engage.
type Outcome struct {
	Reply       string
	Blocked     bool
	BlockReason string
}

// Provider turns one user utterance into an Outcome. Transport failures,
// non-2xx statuses and uninterpretable bodies come back as errors
// (*UpstreamError / *MalformedResponseError), never as an Outcome.
type Provider interface {
	Generate(ctx context.Context, prompt string) (*Outcome, error)
}

// UpstreamError is a non-success provider response or a transport failure.
// Hint is best-effort human guidance chosen from the status code; callers
// must not branch on it.
type UpstreamError struct {
	StatusCode int
	Body       string
	Hint       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("provider unreachable: %s", e.Body)
	}
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// MalformedResponseError is a 2xx body with no extractable reply and no
// block reason.
type MalformedResponseError struct {
	Body string
}

func (e *MalformedResponseError) Error() string {
	return "provider returned an uninterpretable response"
}
