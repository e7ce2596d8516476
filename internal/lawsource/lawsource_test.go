package lawsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Run("converts html to markdown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<html><body><h1>Art. 7</h1><p>Chiunque <strong>cagiona</strong> un danno...</p></body></html>`))
		}))
		defer srv.Close()

		f := NewFetcher().WithHTTPClient(srv.Client())
		got, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if !strings.Contains(got, "# Art. 7") {
			t.Errorf("expected markdown heading, got %q", got)
		}
		if !strings.Contains(got, "**cagiona**") {
			t.Errorf("expected bold markdown, got %q", got)
		}
	})

	t.Run("plain text passes through", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("Art. 7. Chiunque cagiona un danno...\n"))
		}))
		defer srv.Close()

		f := NewFetcher().WithHTTPClient(srv.Client())
		got, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if got != "Art. 7. Chiunque cagiona un danno..." {
			t.Errorf("unexpected text %q", got)
		}
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewFetcher().WithHTTPClient(srv.Client())
		if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := NewFetcher().WithHTTPClient(srv.Client())
		if _, err := f.Fetch(ctx, srv.URL); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}
