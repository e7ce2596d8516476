// Package footage resolves script keywords to local stock video files.
package footage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	PexelsName           = "pexels"
	pexelsDefaultBaseURL = "https://api.pexels.com"
	pexelsDefaultPerPage = 10
)

// ErrNoFootage is returned when no clip matches a keyword within the
// configured quality bounds.
var ErrNoFootage = errors.New("no matching footage found")

// VideoRef is one downloadable stock clip.
type VideoRef struct {
	ID           int64
	URL          string
	ThumbnailURL string
	Width        int
	Height       int
	FPS          float64
	Duration     int // seconds
}

// PexelsConfig holds configuration for the Pexels videos client.
type PexelsConfig struct {
	APIKey     string
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
	Timeout    time.Duration

	// File selection policy. Zero values fall back to defaults aimed at
	// vertical short-form video: 720-2048 px tall, >= 24 fps, 5-60 s.
	MinHeight   int
	MaxHeight   int
	MinFPS      float64
	MinDuration int
	MaxDuration int
}

// PexelsClient searches the Pexels videos API.
type PexelsClient struct {
	apiKey  string
	baseURL string
	client  *http.Client

	minHeight   int
	maxHeight   int
	minFPS      float64
	minDuration int
	maxDuration int
}

// NewPexelsClient creates a new Pexels client.
func NewPexelsClient(cfg PexelsConfig) *PexelsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = pexelsDefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MinHeight == 0 {
		cfg.MinHeight = 720
	}
	if cfg.MaxHeight == 0 {
		cfg.MaxHeight = 2048
	}
	if cfg.MinFPS == 0 {
		cfg.MinFPS = 24
	}
	if cfg.MinDuration == 0 {
		cfg.MinDuration = 5
	}
	if cfg.MaxDuration == 0 {
		cfg.MaxDuration = 60
	}

	return &PexelsClient{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		client:      cfg.HTTPClient,
		minHeight:   cfg.MinHeight,
		maxHeight:   cfg.MaxHeight,
		minFPS:      cfg.MinFPS,
		minDuration: cfg.MinDuration,
		maxDuration: cfg.MaxDuration,
	}
}

// pexelsSearchResponse mirrors the Pexels videos search payload.
type pexelsSearchResponse struct {
	Videos []struct {
		ID         int64  `json:"id"`
		Duration   int    `json:"duration"`
		Image      string `json:"image"`
		VideoFiles []struct {
			ID       int64   `json:"id"`
			Quality  string  `json:"quality"`
			FileType string  `json:"file_type"`
			Width    int     `json:"width"`
			Height   int     `json:"height"`
			FPS      float64 `json:"fps"`
			Link     string  `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
}

// Search returns the best matching clip for a keyword, or ErrNoFootage when
// nothing within the quality policy exists. Transport errors, 429 and 5xx
// responses are retried; other non-2xx responses are fatal for the call.
func (c *PexelsClient) Search(ctx context.Context, keyword string) (*VideoRef, error) {
	var ref *VideoRef
	err := retry.Do(
		func() error {
			var err error
			ref, err = c.searchOnce(ctx, keyword)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (c *PexelsClient) searchOnce(ctx context.Context, keyword string) (*VideoRef, error) {
	q := url.Values{}
	q.Set("query", keyword)
	q.Set("per_page", fmt.Sprint(pexelsDefaultPerPage))
	q.Set("orientation", "portrait")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/search?"+q.Encode(), nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("pexels error (status %d): %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, retry.Unrecoverable(err)
	}

	var sr pexelsSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
	}

	for _, v := range sr.Videos {
		if v.Duration < c.minDuration || v.Duration > c.maxDuration {
			continue
		}
		for _, f := range v.VideoFiles {
			if f.Height < c.minHeight || f.Height > c.maxHeight {
				continue
			}
			if f.FPS < c.minFPS {
				continue
			}
			return &VideoRef{
				ID:           v.ID,
				URL:          f.Link,
				ThumbnailURL: v.Image,
				Width:        f.Width,
				Height:       f.Height,
				FPS:          f.FPS,
				Duration:     v.Duration,
			}, nil
		}
	}

	return nil, retry.Unrecoverable(ErrNoFootage)
}
