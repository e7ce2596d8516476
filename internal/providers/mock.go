package providers

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing. It streams ResponseText back in
// ChunkSize pieces.
type MockClient struct {
	// Configurable behavior
	ResponseText    string
	ChunkSize       int           // characters per token (default 8)
	Latency         time.Duration // delay per token
	ShouldFail      bool          // StreamChat itself fails
	FailAfterTokens int           // stream errors after N tokens (0 = never)

	// State
	requestCount atomic.Int64
}

// NewMockClient creates a mock client with sensible defaults.
func NewMockClient(responseText string) *MockClient {
	return &MockClient{
		ResponseText: responseText,
		ChunkSize:    8,
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Requests returns how many streams were started.
func (c *MockClient) Requests() int {
	return int(c.requestCount.Load())
}

// StreamChat returns a stream replaying the canned response.
func (c *MockClient) StreamChat(ctx context.Context, req *ChatRequest) (Stream, error) {
	c.requestCount.Add(1)
	if c.ShouldFail {
		return nil, fmt.Errorf("mock client configured to fail")
	}
	chunk := c.ChunkSize
	if chunk <= 0 {
		chunk = 8
	}
	return &mockStream{
		ctx:       ctx,
		text:      c.ResponseText,
		chunk:     chunk,
		latency:   c.Latency,
		failAfter: c.FailAfterTokens,
	}, nil
}

type mockStream struct {
	ctx       context.Context
	text      string
	chunk     int
	latency   time.Duration
	failAfter int
	pos       int
	sent      int
	closed    bool
}

func (s *mockStream) Recv() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.failAfter > 0 && s.sent >= s.failAfter {
		return "", fmt.Errorf("mock stream failed after %d tokens", s.sent)
	}
	if s.pos >= len(s.text) {
		return "", io.EOF
	}

	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-s.ctx.Done():
			return "", s.ctx.Err()
		}
	}

	end := s.pos + s.chunk
	if end > len(s.text) {
		end = len(s.text)
	}
	token := s.text[s.pos:end]
	s.pos = end
	s.sent++
	return token, nil
}

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}
