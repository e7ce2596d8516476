package providers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

const (
	OpenAIName          = "openai"
	openAIDefaultModel  = openai.ChatModelGPT4o
	openAIDefaultWindow = 300 * time.Second
)

// OpenAIConfig holds configuration for the OpenAI streaming client.
type OpenAIConfig struct {
	APIKey      string
	Model       string        // "gpt-4o" (default)
	Temperature float64       // 0 = provider default
	MaxTokens   int           // 0 = provider default
	MaxRetries  int           // Retry attempts for SDK transport
	Timeout     time.Duration // HTTP timeout covering the whole stream
	BaseURL     string        // Optional (tests)
	HTTPClient  *http.Client  // Optional (tests)
}

// OpenAIClient implements LLMClient using the official OpenAI SDK with
// server-sent-event streaming.
type OpenAIClient struct {
	model       string
	temperature float64
	maxTokens   int
	client      openai.Client
}

// NewOpenAIClient creates a new OpenAI streaming client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = openAIDefaultWindow
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// StreamChat starts a streaming chat completion.
func (c *OpenAIClient) StreamChat(ctx context.Context, req *ChatRequest) (Stream, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
	}
	if temp := firstNonZero(req.Temperature, c.temperature); temp != 0 {
		params.Temperature = openai.Float(temp)
	}
	if max := firstNonZeroInt(req.MaxTokens, c.maxTokens); max != 0 {
		params.MaxCompletionTokens = openai.Int(int64(max))
	}

	inner := c.client.Chat.Completions.NewStreaming(ctx, params)
	return &openAIStream{inner: inner}, nil
}

// openAIStream adapts the SDK's SSE stream to the Stream interface,
// flattening chunks to their content deltas.
type openAIStream struct {
	inner *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *openAIStream) Recv() (string, error) {
	for s.inner.Next() {
		chunk := s.inner.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
	if err := s.inner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *openAIStream) Close() error {
	return s.inner.Close()
}

func firstNonZero(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
