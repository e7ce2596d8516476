package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
)

// UploaderConfig holds configuration for the asset upload client.
type UploaderConfig struct {
	Endpoint   string // POST target accepting multipart "file"
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// Uploader pushes finished background videos to the asset host and returns
// durable HTTPS URLs.
type Uploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewUploader creates a new upload client.
func NewUploader(cfg UploaderConfig) *Uploader {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Uploader{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   cfg.HTTPClient,
	}
}

// uploadResponse is the asset host's reply.
type uploadResponse struct {
	URL string `json:"url"`
}

// UploadFile reads a local file and uploads it under its base name.
func (u *Uploader) UploadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read upload file: %w", err)
	}
	return u.Upload(ctx, data, filepath.Base(path))
}

// Upload sends file bytes and returns the durable URL, retrying transient
// transport failures.
func (u *Uploader) Upload(ctx context.Context, content []byte, filename string) (string, error) {
	var result string
	err := retry.Do(
		func() error {
			url, err := u.doUpload(ctx, content, filename)
			if err != nil {
				return err
			}
			result = url
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
	)
	return result, err
}

func (u *Uploader) doUpload(ctx context.Context, content []byte, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", retry.Unrecoverable(fmt.Errorf("failed to build form: %w", err))
	}
	if _, err := part.Write(content); err != nil {
		return "", retry.Unrecoverable(err)
	}
	if err := mw.Close(); err != nil {
		return "", retry.Unrecoverable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("upload error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return "", retry.Unrecoverable(fmt.Errorf("upload error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var ur uploadResponse
	if err := json.Unmarshal(respBody, &ur); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if ur.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}
	return ur.URL, nil
}
