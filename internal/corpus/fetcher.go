package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patterson-s/EliteResearchAgent/internal/cache"
	"github.com/patterson-s/EliteResearchAgent/internal/util"
	"github.com/patterson-s/EliteResearchAgent/internal/worker"
)

// Fetcher retrieves page HTML for corpus ingestion. It honors robots.txt,
// rate-limits per domain and caches page bodies so re-ingesting a person
// does not re-crawl their sources.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Timeout    time.Duration
	UserAgent  string
	MaxBytes   int64
	Limiter    *worker.Limiter
	Cache      cache.Cache // optional
	CacheTTL   time.Duration
	HTTPProxy  string
	HTTPSProxy string
}

// NewFetcher creates a new Fetcher
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 5 * 1024 * 1024
	}
	if opts.Limiter == nil {
		opts.Limiter = worker.NewLimiter(1, 2)
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 24 * time.Hour
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, ""),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		robots:    util.NewRobotsChecker(opts.UserAgent, opts.Timeout),
		limiter:   opts.Limiter,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
	}
}

// Fetch retrieves the HTML body of a URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if f.cache != nil {
		if body, found := f.cache.Get(cache.PageKey(rawURL)); found {
			return string(body), nil
		}
	}

	allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return "", fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if f.cache != nil {
		_ = f.cache.Set(cache.PageKey(rawURL), body, f.cacheTTL)
	}

	return string(body), nil
}
