package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrFetch marks a source that could not be retrieved
var ErrFetch = errors.New("fetch failure")

// DefaultTimeout applies when no timeout is configured
const DefaultTimeout = 60 * time.Second

// Fetcher retrieves the body behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over HTTP with a per-request timeout and no retry
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher. timeout <= 0 uses DefaultTimeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch GETs url. Any transport error or non-2xx status is ErrFetch.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패 '%s': %w", url, ErrFetch)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("'%s' 요청 실패 (%v): %w", url, err, ErrFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("'%s' 응답 상태 %d: %w", url, resp.StatusCode, ErrFetch)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("'%s' 본문 읽기 실패 (%v): %w", url, err, ErrFetch)
	}
	return body, nil
}

// Source is a named remote dataset
type Source struct {
	Name string
	URL  string
}

// Artifact is a fetched and transformed source body, ready for the cache
type Artifact struct {
	Name string
	Body []byte
}

// FetchAll retrieves every source and applies its transform. Nothing is
// returned unless all sources succeed. Results keep sources order.
func FetchAll(ctx context.Context, f Fetcher, sources []Source, workers int) ([]Artifact, error) {
	if workers < 1 {
		workers = 1
	}

	artifacts := make([]Artifact, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			if src.URL == "" {
				return fmt.Errorf("'%s' URL 미설정: %w", src.Name, ErrFetch)
			}
			body, err := f.Fetch(gctx, src.URL)
			if err != nil {
				return fmt.Errorf("'%s' 가져오기 실패: %w", src.Name, err)
			}
			body, err = Transform(src.Name, body)
			if err != nil {
				return fmt.Errorf("'%s' 변환 실패: %w", src.Name, err)
			}
			artifacts[i] = Artifact{Name: src.Name, Body: body}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}
