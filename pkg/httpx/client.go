// Package httpx provides an HTTP client hardened for scraping: header
// rotation, per-host pacing, and retry with backoff on throttling responses.
package httpx

import (
	"crypto/tls"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Kenfack-franck/jobHunterAi/pkg/resilience"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.2 Safari/605.1.15",
}

// Options configures the client.
type Options struct {
	ProxyURL   string
	Timeout    time.Duration
	MaxRetries int
	// HostRate is the sustained requests-per-second allowed per host.
	HostRate float64
	// HostBurst is the per-host burst capacity.
	HostBurst int
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.HostRate == 0 {
		o.HostRate = 0.5
	}
	if o.HostBurst == 0 {
		o.HostBurst = 2
	}
	return o
}

// Client wraps http.Client with scraping protections. Safe for concurrent use.
type Client struct {
	inner      *http.Client
	mu         sync.Mutex
	limiters   map[string]*resilience.Limiter
	hostRate   float64
	hostBurst  int
	maxRetries int
}

// New creates a Client with the given options.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}
	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("httpx: invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		inner:      &http.Client{Transport: transport, Timeout: opts.Timeout},
		limiters:   make(map[string]*resilience.Limiter),
		hostRate:   opts.HostRate,
		hostBurst:  opts.HostBurst,
		maxRetries: opts.MaxRetries,
	}, nil
}

// Do executes the request with header rotation, per-host pacing, and retry
// with exponential backoff on 429/503.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)

	if err := c.hostLimiter(req.URL.Host).Wait(req.Context()); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.inner.Do(req)
		if err != nil {
			return nil, fmt.Errorf("httpx: request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
			return resp, nil
		}
		if attempt == c.maxRetries-1 {
			// Out of retries. The throttled response goes back to the
			// caller with its body still readable.
			return resp, nil
		}

		resp.Body.Close()
		backoff := time.Duration(1<<uint(attempt)) * 2 * time.Second
		select {
		case <-time.After(backoff):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
}

func (c *Client) hostLimiter(host string) *resilience.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = resilience.NewLimiter(resilience.LimiterOpts{Rate: c.hostRate, Burst: c.hostBurst})
		c.limiters[host] = l
	}
	return l
}

func (c *Client) setHeaders(req *http.Request) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,fr;q=0.8")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Connection", "keep-alive")
}
