package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultTimeout bounds one HTTP fetch.
	DefaultTimeout = 30 * time.Second

	// MaxDocumentSize bounds the size of a fetched schema document.
	MaxDocumentSize = 16 << 20
)

// ErrUnsupportedScheme is returned for URIs no fetcher handles.
var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

// Fetcher retrieves the schema document at an absolute URI without
// fragment.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, uri string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}

// FileFetcher reads "file" URIs and plain paths. Relative paths are taken
// from Dir, or the working directory when Dir is empty.
type FileFetcher struct {
	Dir string
}

// Fetch implements Fetcher.
func (f FileFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI %q: %w", uri, err)
	}
	var path string
	switch u.Scheme {
	case "file":
		path = filepath.FromSlash(u.Path)
	case "":
		path = filepath.FromSlash(u.Path)
		if !filepath.IsAbs(path) && f.Dir != "" {
			path = filepath.Join(f.Dir, path)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return data, nil
}

// SchemeFetcher dispatches on the URI scheme. The empty scheme is used for
// plain paths.
type SchemeFetcher map[string]Fetcher

// Fetch implements Fetcher.
func (s SchemeFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI %q: %w", uri, err)
	}
	f, ok := s[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return f.Fetch(ctx, uri)
}

// DefaultFetcher reads local files only.
func DefaultFetcher() Fetcher {
	f := FileFetcher{}
	return SchemeFetcher{"": f, "file": f}
}

// HTTPFetcher retrieves schemas over HTTP(S), optionally keeping a copy of
// each document in a cache directory.
type HTTPFetcher struct {
	httpClient *http.Client
	cacheDir   string
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.httpClient = client
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.httpClient.Timeout = timeout
	}
}

// WithCacheDir stores fetched documents under dir and serves later fetches
// of the same URI from there.
func WithCacheDir(dir string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.cacheDir = dir
	}
}

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	cached := f.cachePath(uri)
	if cached != "" {
		if data, err := os.ReadFile(cached); err == nil {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/schema+json, application/json, application/yaml;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schema not found: %s (status %d)", uri, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("schema %s exceeds %d bytes", uri, MaxDocumentSize)
	}

	if cached != "" {
		if err := os.MkdirAll(f.cacheDir, 0o755); err == nil {
			_ = os.WriteFile(cached, data, 0o644)
		}
	}
	return data, nil
}

func (f *HTTPFetcher) cachePath(uri string) string {
	if f.cacheDir == "" {
		return ""
	}
	return filepath.Join(f.cacheDir, strconv.FormatUint(xxhash.Sum64String(uri), 16)+".json")
}
