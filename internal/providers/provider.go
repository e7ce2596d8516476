// Package providers contains the LLM clients used for script generation.
package providers

import (
	"context"
)

// LLMClient produces a streaming chat completion for a prompt.
type LLMClient interface {
	// StreamChat starts a completion and returns a live token stream.
	// The caller must drain or close the stream.
	StreamChat(ctx context.Context, req *ChatRequest) (Stream, error)

	// Name returns the client identifier (e.g., "openai").
	Name() string
}

// ChatRequest describes one streaming completion request.
type ChatRequest struct {
	// System is the system instruction; Prompt is the user message.
	System string
	Prompt string

	// Model selection (uses client default if empty).
	Model string

	// Generation parameters. Zero values mean provider defaults.
	Temperature float64
	MaxTokens   int

	// Request tracking.
	RequestID string
}

// Stream is a live, append-only sequence of completion text fragments.
// Recv returns io.EOF when the model finishes; any other error is an
// upstream stream failure.
type Stream interface {
	Recv() (string, error)
	Close() error
}
