package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const userAgent = "joblist/1.0 (+https://github.com/rsilvagit/joblist)"

// Options configures the outbound client.
type Options struct {
	ProxyURL string
	Timeout  time.Duration
	// RatePerSecond limits requests per host. Zero disables limiting.
	RatePerSecond float64
	Burst         int
	// MaxRetries is the number of extra attempts on 429/503. Zero means a
	// single attempt.
	MaxRetries int
	// BaseBackoff is doubled on every retry.
	BaseBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 10 * time.Second
	}
	if o.Burst == 0 {
		o.Burst = 1
	}
	if o.BaseBackoff == 0 {
		o.BaseBackoff = 500 * time.Millisecond
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return o
}

type ctxKey int

const (
	tokenKey ctxKey = iota
	languageKey
)

// WithToken attaches a bearer token to requests made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// WithLanguage forwards the caller's language to requests made with ctx.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey, lang)
}

// Client wraps http.Client with auth forwarding, per-host rate limiting and
// optional retry.
type Client struct {
	inner       *http.Client
	logger      arbor.ILogger
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	limit       rate.Limit
	burst       int
	maxRetries  int
	baseBackoff time.Duration
}

// New creates a Client with the given options.
func New(opts Options, logger arbor.ILogger) (*Client, error) {
	opts = opts.withDefaults()

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("httpclient: invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Client{
		inner:       &http.Client{Transport: transport, Timeout: opts.Timeout},
		logger:      logger,
		limiters:    make(map[string]*rate.Limiter),
		limit:       limit,
		burst:       opts.Burst,
		maxRetries:  opts.MaxRetries,
		baseBackoff: opts.BaseBackoff,
	}, nil
}

// Do executes the request with JSON headers, the context's bearer token,
// rate limiting and, when configured, retry with exponential backoff.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)

	var resp *http.Response
	var err error

	for attempt := 0; ; attempt++ {
		// Every attempt, retries included, takes a token.
		if err := c.wait(req.Context(), req.URL.Host); err != nil {
			return nil, fmt.Errorf("httpclient: rate limit: %w", err)
		}

		resp, err = c.inner.Do(req)
		if err != nil {
			return nil, fmt.Errorf("httpclient: request failed: %w", err)
		}

		if !retryable(resp.StatusCode) || attempt >= c.maxRetries || req.GetBody == nil && req.Body != nil {
			return resp, nil
		}

		resp.Body.Close()
		backoff := c.baseBackoff * time.Duration(1<<uint(attempt))
		c.logger.Warn().
			Str("host", req.URL.Host).
			Int("status", resp.StatusCode).
			Str("backoff", backoff.String()).
			Int("attempt", attempt+1).
			Msg("Retrying request")

		select {
		case <-time.After(backoff):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}

		if req.GetBody != nil {
			body, gerr := req.GetBody()
			if gerr != nil {
				return nil, fmt.Errorf("httpclient: rewinding body: %w", gerr)
			}
			req.Body = body
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if token, ok := req.Context().Value(tokenKey).(string); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if lang, ok := req.Context().Value(languageKey).(string); ok && lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
}

func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[host] = l
	}
	return l
}

func (c *Client) wait(ctx context.Context, host string) error {
	if c.limit == rate.Inf {
		return nil
	}
	return c.limiter(host).Wait(ctx)
}
