package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go-sheet-pipeline/internal/model"
)

// DefaultMaxBytes caps a fetched export.
const DefaultMaxBytes = 64 << 20

// ErrBodyTooLarge rejects exports over MaxBytes instead of parsing a truncated table.
var ErrBodyTooLarge = errors.New("export exceeds size limit")

// Fetcher retrieves the raw bytes of one export.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

// HTTPFetcher GETs published exports with bounded retry and a breaker per
// host. file:// URLs and bare paths are read from disk.
type HTTPFetcher struct {
	Client   *http.Client
	Retry    model.RetryPolicy
	Breaker  model.BreakerPolicy
	MaxBytes int64
	// OnBreaker observes breaker transitions (metrics).
	OnBreaker func(host string, s BreakerState)

	mu       sync.Mutex
	breakers map[string]*Breaker
}

func NewHTTPFetcher(timeout time.Duration, retry model.RetryPolicy, breaker model.BreakerPolicy) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: timeout},
		Retry:    retry,
		Breaker:  breaker,
		MaxBytes: DefaultMaxBytes,
		breakers: map[string]*Breaker{},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, raw string) ([]byte, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
	case "file":
		return readFile(u.Path)
	case "":
		return readFile(raw)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	br := f.breaker(u.Host)
	var body []byte
	err = Retry(ctx, f.Retry, u.Host, func(ctx context.Context) error {
		return br.Execute(ctx, func(ctx context.Context) error {
			var gerr error
			body, gerr = f.get(ctx, u.String())
			return gerr
		})
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, Permanent(err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.CopyN(io.Discard, resp.Body, 512)
		err := fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			return nil, Permanent(err)
		}
		return nil, err
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > limit {
		return nil, Permanent(fmt.Errorf("GET %s: %w (%d bytes)", u, ErrBodyTooLarge, limit))
	}
	return b, nil
}

func (f *HTTPFetcher) breaker(host string) *Breaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.breakers == nil {
		f.breakers = map[string]*Breaker{}
	}
	b, ok := f.breakers[host]
	if !ok {
		b = NewBreaker(host, f.Breaker, f.OnBreaker)
		f.breakers[host] = b
	}
	return b
}

func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, Permanent(err)
	}
	return b, nil
}
