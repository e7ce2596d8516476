// Package avatar talks to the talking-avatar rendering provider.
package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.heygen.com"

// Render job statuses as reported by the provider.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Config holds configuration for the render client.
type Config struct {
	APIKey     string
	TemplateID string
	BaseURL    string // Optional (tests)
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// Client submits template render jobs and polls their status.
type Client struct {
	apiKey     string
	templateID string
	baseURL    string
	client     *http.Client
}

// New creates a render client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		templateID: cfg.TemplateID,
		baseURL:    cfg.BaseURL,
		client:     cfg.HTTPClient,
	}
}

// RenderJob identifies a submitted render.
type RenderJob struct {
	ID     string
	Status string
}

// RenderStatus is one status poll result.
type RenderStatus struct {
	ID       string
	Status   string
	VideoURL string
}

// Done reports whether the job reached a terminal state.
func (s *RenderStatus) Done() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// templateVariable matches the provider's template variable shape.
type templateVariable struct {
	Name       string             `json:"name"`
	Type       string             `json:"type"`
	Properties variableProperties `json:"properties"`
}

type variableProperties struct {
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
	Fit     string `json:"fit,omitempty"`
}

type generateRequest struct {
	TemplateID string                      `json:"template_id"`
	Title      string                      `json:"title"`
	Variables  map[string]templateVariable `json:"variables"`
}

type generateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

// Submit starts a render of the configured template: the script text flows
// into the "script_it" text variable, the background video into the
// "background" video variable.
func (c *Client) Submit(ctx context.Context, title, script, backgroundURL string) (*RenderJob, error) {
	vars := map[string]templateVariable{
		"script_it": {
			Name:       "script_it",
			Type:       "text",
			Properties: variableProperties{Content: script},
		},
	}
	if backgroundURL != "" {
		vars["background"] = templateVariable{
			Name:       "background",
			Type:       "video",
			Properties: variableProperties{URL: backgroundURL, Fit: "cover"},
		}
	}

	body, err := json.Marshal(generateRequest{
		TemplateID: c.templateID,
		Title:      title,
		Variables:  vars,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/template/%s/generate", c.baseURL, c.templateID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render submission failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render submission error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if gr.Data.VideoID == "" {
		return nil, fmt.Errorf("render submission response missing video id")
	}

	return &RenderJob{ID: gr.Data.VideoID, Status: StatusPending}, nil
}

type statusResponse struct {
	Data struct {
		VideoID  string `json:"video_id"`
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
	} `json:"data"`
}

// Status polls one render job.
func (c *Client) Status(ctx context.Context, id string) (*RenderStatus, error) {
	endpoint := fmt.Sprintf("%s/v1/video_status.get?video_id=%s", c.baseURL, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var sr statusResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &RenderStatus{
		ID:       sr.Data.VideoID,
		Status:   sr.Data.Status,
		VideoURL: sr.Data.VideoURL,
	}, nil
}
