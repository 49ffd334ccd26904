package cipher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ytget/sigsolver/errs"
	"github.com/ytget/sigsolver/internal/cache"
	"github.com/ytget/sigsolver/internal/logger"
)

// DefaultBaseURL resolves relative player paths.
const DefaultBaseURL = "https://www.youtube.com"

// Downloader retrieves the text behind a URL. *client.Client satisfies it.
type Downloader interface {
	Text(ctx context.Context, rawURL string) (string, error)
}

// Fetcher retrieves player scripts through the raw script tier and keeps
// at most one download per URL in flight.
type Fetcher struct {
	dl     Downloader
	caches *Caches
	log    *logger.ComponentLogger
}

// NewFetcher returns a Fetcher backed by dl and caches.
func NewFetcher(dl Downloader, caches *Caches) *Fetcher {
	return &Fetcher{dl: dl, caches: caches, log: logger.WithComponent(logger.ComponentFetcher)}
}

// Fetch returns the script for key, a normalized player URL.
//
// A cache miss joins the outstanding download for key or starts one.
// The download runs detached from ctx: a caller that gives up stops
// waiting, while the other waiters still get the result. Failures are not
// cached.
func (f *Fetcher) Fetch(ctx context.Context, key string) (string, error) {
	if s, ok := f.caches.Scripts.Get(key); ok {
		f.log.Trace("script cache hit", map[string]interface{}{"url": key})
		return s, nil
	}

	call, leader := f.caches.InFlight.Begin(key)
	if leader {
		go f.download(context.WithoutCancel(ctx), key, call)
	} else {
		f.log.Debug("joining in-flight download", map[string]interface{}{"url": key})
	}

	select {
	case <-call.Done():
		return call.Result()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *Fetcher) download(ctx context.Context, key string, call *cache.Call[string]) {
	settle := func(s string, err error) {
		f.caches.InFlight.Finish(key, call, s, err)
	}
	defer func() {
		if r := recover(); r != nil {
			settle("", fmt.Errorf("%w: download panic: %v", errs.ErrNetwork, r))
		}
	}()
	if s, ok := f.caches.Scripts.Get(key); ok {
		settle(s, nil)
		return
	}

	start := time.Now()
	f.log.Debug("downloading player script", map[string]interface{}{"url": key})
	s, err := f.dl.Text(ctx, key)
	if err != nil {
		f.log.Warn("player script download failed", map[string]interface{}{"url": key, "error": err.Error()})
		settle("", err)
		return
	}
	f.caches.Scripts.Set(key, s)
	f.log.Debug("player script downloaded", map[string]interface{}{
		"url":      key,
		"bytes":    len(s),
		"duration": time.Since(start).String(),
	})
	settle(s, nil)
}

// NormalizePlayerURL trims raw and resolves paths against base. Anything
// that is not an absolute http(s) URL afterwards wraps errs.ErrInvalidURL.
func NormalizePlayerURL(raw, base string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty player url", errs.ErrInvalidURL)
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	} else if strings.HasPrefix(s, "/") {
		s = strings.TrimRight(base, "/") + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidURL, raw)
	}
	return s, nil
}
