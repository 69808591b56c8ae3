package echo

import (
	"context"

	"ai-chat-be/pkg/genai"
)

// ReplyPrefix marks replies as a local stand-in so nobody mistakes them for
// provider output.
const ReplyPrefix = "[echo] "

// EchoProvider answers deterministically without any external dependency.
// Used whenever no provider credential is configured (dev, CI).
type EchoProvider struct{}

var _ genai.Provider = &EchoProvider{}

func NewEchoProvider() *EchoProvider {
	return &EchoProvider{}
}

func (e *EchoProvider) Generate(ctx context.Context, prompt string) (*genai.Outcome, error) {
	return &genai.Outcome{Reply: ReplyPrefix + prompt}, nil
}
