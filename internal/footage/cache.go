package footage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Cache is a keyed on-disk store for downloaded clips, keyed by keyword.
// Entries are reused on a simple existence check and never invalidated;
// staleness is an accepted tradeoff for stock footage.
type Cache struct {
	dir string
}

// NewCache creates the cache directory if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Path returns the cache file path for a keyword.
func (c *Cache) Path(keyword string) string {
	return filepath.Join(c.dir, cacheKey(keyword)+".mp4")
}

// Get returns the cached file path for a keyword if it exists.
func (c *Cache) Get(keyword string) (string, bool) {
	path := c.Path(keyword)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// cacheKey flattens a keyword to a safe file name.
func cacheKey(keyword string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(keyword)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Service resolves keywords to local clip files: cache first, then a search
// plus download.
type Service struct {
	search Searcher
	cache  *Cache
	client *http.Client
}

// Searcher finds a downloadable clip for a keyword.
type Searcher interface {
	Search(ctx context.Context, keyword string) (*VideoRef, error)
}

// NewService creates a footage service.
func NewService(search Searcher, cache *Cache) *Service {
	return &Service{
		search: search,
		cache:  cache,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Resolve returns a local file path for the keyword's best clip.
// Returns ErrNoFootage (wrapped) when the search comes up empty.
func (s *Service) Resolve(ctx context.Context, keyword string) (string, error) {
	if path, ok := s.cache.Get(keyword); ok {
		return path, nil
	}

	ref, err := s.search.Search(ctx, keyword)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", keyword, err)
	}

	path := s.cache.Path(keyword)
	if err := s.download(ctx, ref.URL, path); err != nil {
		return "", fmt.Errorf("download %q: %w", keyword, err)
	}
	return path, nil
}

// download fetches a clip to the cache path, retrying transient failures.
// The file is written to a temp name and renamed so a partial download never
// satisfies a later cache existence check.
func (s *Service) download(ctx context.Context, srcURL, destPath string) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := s.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("download status %d", resp.StatusCode)
			}

			tmp := destPath + ".tmp"
			f, err := os.Create(tmp)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if _, err := io.Copy(f, resp.Body); err != nil {
				f.Close()
				_ = os.Remove(tmp)
				return err
			}
			if err := f.Close(); err != nil {
				_ = os.Remove(tmp)
				return err
			}
			return os.Rename(tmp, destPath)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
	)
}
