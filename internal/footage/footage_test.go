package footage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
)

func searchPayload(duration int, files []map[string]any) string {
	payload := map[string]any{
		"videos": []map[string]any{
			{
				"id":          4550475,
				"duration":    duration,
				"image":       "https://images.example/thumb.jpg",
				"video_files": files,
			},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestPexelsClient_Search(t *testing.T) {
	t.Run("picks file within policy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "test-key" {
				t.Errorf("unexpected authorization: %s", got)
			}
			if got := r.URL.Query().Get("query"); got != "transport" {
				t.Errorf("query = %q", got)
			}
			fmt.Fprint(w, searchPayload(12, []map[string]any{
				{"id": 1, "quality": "sd", "width": 360, "height": 640, "fps": 30, "link": "https://v.example/sd.mp4"},
				{"id": 2, "quality": "hd", "width": 720, "height": 1280, "fps": 50, "link": "https://v.example/hd.mp4"},
			}))
		}))
		defer server.Close()

		client := NewPexelsClient(PexelsConfig{APIKey: "test-key", BaseURL: server.URL})
		ref, err := client.Search(context.Background(), "transport")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if ref.URL != "https://v.example/hd.mp4" {
			t.Errorf("URL = %q, want the 720p file", ref.URL)
		}
		if ref.ThumbnailURL == "" {
			t.Error("thumbnail missing")
		}
	})

	t.Run("no file within policy returns ErrNoFootage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Duration too long for the default 60s cap.
			fmt.Fprint(w, searchPayload(600, []map[string]any{
				{"id": 1, "height": 1280, "fps": 30, "link": "https://v.example/long.mp4"},
			}))
		}))
		defer server.Close()

		client := NewPexelsClient(PexelsConfig{APIKey: "k", BaseURL: server.URL})
		_, err := client.Search(context.Background(), "law")
		if !errors.Is(err, ErrNoFootage) {
			t.Errorf("Search() error = %v, want ErrNoFootage", err)
		}
	})

	t.Run("empty result returns ErrNoFootage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"videos":[]}`)
		}))
		defer server.Close()

		client := NewPexelsClient(PexelsConfig{APIKey: "k", BaseURL: server.URL})
		_, err := client.Search(context.Background(), "nothing")
		if !errors.Is(err, ErrNoFootage) {
			t.Errorf("Search() error = %v, want ErrNoFootage", err)
		}
	})

	t.Run("rate limiting is retried until attempts run out", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewPexelsClient(PexelsConfig{APIKey: "k", BaseURL: server.URL})
		if _, err := client.Search(context.Background(), "x"); err == nil {
			t.Error("expected error for rate limited search")
		}
		if got := atomic.LoadInt32(&calls); got != 3 {
			t.Errorf("attempts = %d, want 3", got)
		}
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "bad request", http.StatusBadRequest)
		}))
		defer server.Close()

		client := NewPexelsClient(PexelsConfig{APIKey: "k", BaseURL: server.URL})
		if _, err := client.Search(context.Background(), "x"); err == nil {
			t.Error("expected error for non-200 status")
		}
		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Errorf("attempts = %d, want 1", got)
		}
	})
}

// fakeSearcher returns a fixed ref or error.
type fakeSearcher struct {
	ref *VideoRef
	err error
}

func (f *fakeSearcher) Search(_ context.Context, _ string) (*VideoRef, error) {
	return f.ref, f.err
}

func TestService_Resolve(t *testing.T) {
	t.Run("downloads and caches", func(t *testing.T) {
		fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "fake mp4 bytes")
		}))
		defer fileServer.Close()

		cache, err := NewCache(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		svc := NewService(&fakeSearcher{ref: &VideoRef{URL: fileServer.URL + "/clip.mp4"}}, cache)

		path, err := svc.Resolve(context.Background(), "traffic safety")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading cached file: %v", err)
		}
		if string(data) != "fake mp4 bytes" {
			t.Errorf("cached content = %q", data)
		}

		// Second resolve is a cache hit: the searcher error would surface
		// otherwise.
		svc2 := NewService(&fakeSearcher{err: errors.New("should not be called")}, cache)
		again, err := svc2.Resolve(context.Background(), "traffic safety")
		if err != nil {
			t.Fatalf("cached Resolve() error = %v", err)
		}
		if again != path {
			t.Errorf("cache path changed: %q vs %q", again, path)
		}
	})

	t.Run("not found propagates ErrNoFootage", func(t *testing.T) {
		cache, _ := NewCache(t.TempDir())
		svc := NewService(&fakeSearcher{err: ErrNoFootage}, cache)
		_, err := svc.Resolve(context.Background(), "nope")
		if !errors.Is(err, ErrNoFootage) {
			t.Errorf("Resolve() error = %v, want ErrNoFootage", err)
		}
	})
}

func TestCacheKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Traffic Safety", "traffic-safety"},
		{"  cars  ", "cars"},
		{"a/b?c", "a-b-c"},
	}
	for _, tt := range tests {
		if got := cacheKey(tt.in); got != tt.want {
			t.Errorf("cacheKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
