package client

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ytget/sigsolver/errs"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3

	userAgentValue   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	acceptEncoding   = "gzip, br"
	initialBackoff   = 200 * time.Millisecond
	maxBackoff       = 3 * time.Second
	successMinCode   = http.StatusOK                  // 200
	successMaxCode   = http.StatusMultipleChoices     // 300
	retryableMinCode = http.StatusInternalServerError // 500

	// maxBodySize caps a downloaded player script.
	maxBodySize = 64 << 20
)

// defaultTransport is a tuned HTTP transport reused across clients.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
	ForceAttemptHTTP2:     true,
	// Bodies are decoded by Text so br is supported too.
	DisableCompression: true,
	ReadBufferSize:     16 * 1024,
	WriteBufferSize:    16 * 1024,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Config holds optional client parameters. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	ProxyURL  string
}

// Client wraps http.Client with retry/backoff and default headers.
type Client struct {
	HTTPClient *http.Client
	Retries    int
	UserAgent  string
}

// New creates a new Client with a tuned Transport, default timeout, and retries.
func New() *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: defaultTransport,
		},
		Retries:   defaultRetries,
		UserAgent: userAgentValue,
	}
}

// NewWith creates a new client with provided config. Zero values use defaults.
func NewWith(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	tr := defaultTransport.Clone()
	if cfg.ProxyURL != "" {
		if proxyFunc, err := proxyFromURLString(cfg.ProxyURL); err == nil {
			tr.Proxy = proxyFunc
		}
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		Retries:   retries,
		UserAgent: ua,
	}
}

// Get performs a GET request with a simple retry policy for transient errors
// (HTTP 5xx or network failures). Backoff waits end early when ctx is done.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	retries := c.Retries
	if retries < 1 {
		retries = 1
	}
	ua := c.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	var (
		resp *http.Response
		err  error
	)
	backoff := initialBackoff
	for attempt := 0; attempt < retries; attempt++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", ua)
		req.Header.Set("Accept-Encoding", acceptEncoding)

		resp, err = c.HTTPClient.Do(req)
		if err == nil && resp.StatusCode < retryableMinCode {
			return resp, nil
		}
		if attempt == retries-1 {
			break
		}
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return resp, err
}

// Text downloads rawURL and returns the decoded body. Transport failures,
// non-2xx statuses and undecodable bodies wrap errs.ErrNetwork.
func (c *Client) Text(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < successMinCode || resp.StatusCode >= successMaxCode {
		return "", fmt.Errorf("%w: unexpected status %d from %s", errs.ErrNetwork, resp.StatusCode, rawURL)
	}

	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("%w: gzip: %v", errs.ErrNetwork, err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", errs.ErrNetwork, err)
	}
	return string(body), nil
}

// proxyFromURLString parses a proxy URL and returns a Proxy function.
func proxyFromURLString(raw string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return http.ProxyURL(u), nil
}
