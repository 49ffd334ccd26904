package sigsolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ytget/sigsolver/errs"
	"github.com/ytget/sigsolver/internal/cache"
	"github.com/ytget/sigsolver/internal/config"
	"github.com/ytget/sigsolver/internal/logger"
	"github.com/ytget/sigsolver/internal/sandbox"
	"github.com/ytget/sigsolver/pkg/client"
	"github.com/ytget/sigsolver/types"
	"github.com/ytget/sigsolver/youtube/cipher"
)

const defaultWarmConcurrency = 4

// CacheStats describes one cache tier.
type CacheStats = cache.Stats

// Options contains the settings a Service is built from.
//
// Use chainable setters on Service to populate these options.
type Options struct {
	HTTPClient      *http.Client
	Client          client.Config
	Engine          string
	MaxCallStack    int
	BaseURL         string
	Caches          cipher.CacheConfig
	WarmConcurrency int
}

// Service is the high-level API over the solver pipeline. Its setters
// take effect until the first operation builds the pipeline.
type Service struct {
	options Options

	once     sync.Once
	pipeline *cipher.Pipeline
	err      error
}

// WarmResult reports the outcome of warming one player URL.
type WarmResult struct {
	PlayerURL string
	PlayerID  string
	HasN      bool
	HasSig    bool
	Err       error
}

// New creates a Service with default options.
func New() *Service {
	return &Service{}
}

// FromConfig creates a Service from a loaded configuration.
func FromConfig(cfg *config.Config) *Service {
	return New().
		WithClientConfig(cfg.Fetch.Client()).
		WithEngine(cfg.Sandbox.Engine, cfg.Sandbox.MaxCallStack).
		WithBaseURL(cfg.Fetch.BaseURL).
		WithCacheConfig(cfg.Cache.Tiers())
}

// WithHTTPClient sets a custom HTTP client for player downloads.
func (s *Service) WithHTTPClient(c *http.Client) *Service {
	s.options.HTTPClient = c
	return s
}

// WithClientConfig sets timeout, retries, user agent and proxy for player
// downloads.
func (s *Service) WithClientConfig(cfg client.Config) *Service {
	s.options.Client = cfg
	return s
}

// WithEngine selects the sandbox engine ("goja" or "otto"). otto only
// parses ES5, so modern players need goja. maxCallStack bounds recursion
// in goja; zero keeps the engine default.
func (s *Service) WithEngine(engine string, maxCallStack int) *Service {
	s.options.Engine = strings.TrimSpace(engine)
	s.options.MaxCallStack = maxCallStack
	return s
}

// WithBaseURL sets the origin relative player paths are resolved against.
func (s *Service) WithBaseURL(base string) *Service {
	s.options.BaseURL = strings.TrimSpace(base)
	return s
}

// WithCacheConfig sizes the cache tiers. Zero fields keep their defaults.
func (s *Service) WithCacheConfig(cfg cipher.CacheConfig) *Service {
	s.options.Caches = cfg
	return s
}

// WithWarmConcurrency bounds how many players Warm builds at once.
func (s *Service) WithWarmConcurrency(n int) *Service {
	if n < 0 {
		n = 0
	}
	s.options.WarmConcurrency = n
	return s
}

// Pipeline returns the underlying pipeline, building it on first use.
func (s *Service) Pipeline() (*cipher.Pipeline, error) {
	s.once.Do(func() {
		ev, err := sandbox.New(sandbox.Options{Engine: s.options.Engine, MaxCallStack: s.options.MaxCallStack})
		if err != nil {
			s.err = err
			return
		}
		dl := client.NewWith(s.options.Client)
		if s.options.HTTPClient != nil {
			dl.HTTPClient = s.options.HTTPClient
		}
		s.pipeline = cipher.New(cipher.Options{
			Downloader: dl,
			Caches:     cipher.NewCaches(s.options.Caches),
			Evaluator:  ev,
			BaseURL:    s.options.BaseURL,
		})
		logger.WithComponent(logger.ComponentApp).Debug("pipeline ready", map[string]interface{}{
			"engine":   s.options.Engine,
			"base_url": s.options.BaseURL,
		})
	})
	return s.pipeline, s.err
}

// Decrypt runs the player's signature and n transforms.
func (s *Service) Decrypt(ctx context.Context, req types.DecryptRequest) (types.DecryptResponse, error) {
	p, err := s.Pipeline()
	if err != nil {
		return types.DecryptResponse{}, err
	}
	return p.Decrypt(ctx, req)
}

// Resolve rewrites a stream URL with decrypted signature and n values.
func (s *Service) Resolve(ctx context.Context, req types.ResolveRequest) (types.ResolveResponse, error) {
	p, err := s.Pipeline()
	if err != nil {
		return types.ResolveResponse{}, err
	}
	return p.Resolve(ctx, req)
}

// GetSts returns the player's signature timestamp.
func (s *Service) GetSts(ctx context.Context, req types.StsRequest) (types.StsResponse, error) {
	p, err := s.Pipeline()
	if err != nil {
		return types.StsResponse{}, err
	}
	return p.GetSts(ctx, req)
}

// Warm builds solvers for every player URL, at most WarmConcurrency at a
// time. Results keep the input order; the returned error joins the
// per-URL failures.
func (s *Service) Warm(ctx context.Context, playerURLs ...string) ([]WarmResult, error) {
	p, err := s.Pipeline()
	if err != nil {
		return nil, err
	}
	limit := s.options.WarmConcurrency
	if limit <= 0 {
		limit = defaultWarmConcurrency
	}

	results := make([]WarmResult, len(playerURLs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, u := range playerURLs {
		i, u := i, u
		results[i].PlayerURL = u
		results[i].PlayerID, _ = extractPlayerID(u)
		g.Go(func() error {
			pair, err := p.Solvers(gctx, u)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].HasN = pair.N != nil
			results[i].HasSig = pair.Sig != nil
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", r.PlayerURL, r.Err))
		}
	}
	return results, errors.Join(failed...)
}

// CacheStats reports every cache tier by name.
func (s *Service) CacheStats() map[string]CacheStats {
	p, err := s.Pipeline()
	if err != nil {
		return map[string]CacheStats{}
	}
	return p.Caches().Stats()
}

// ClearCaches empties every cache tier.
func (s *Service) ClearCaches() {
	if p, err := s.Pipeline(); err == nil {
		p.Caches().Clear()
	}
}

// Start runs the background expiry sweepers of the cache tiers.
func (s *Service) Start() error {
	p, err := s.Pipeline()
	if err != nil {
		return err
	}
	p.Caches().Start()
	return nil
}

// Stop ends the sweepers started by Start.
func (s *Service) Stop() {
	if p, err := s.Pipeline(); err == nil {
		p.Caches().Stop()
	}
}

// extractPlayerID returns the deployment id from a player URL such as
// /s/player/0123abcd/player_ias.vflset/en_US/base.js.
func extractPlayerID(playerURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(playerURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrInvalidURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "s" && parts[i+1] == "player" && i+2 < len(parts) && parts[i+2] != "" {
			return parts[i+2], nil
		}
	}
	return "", fmt.Errorf("%w: no player id in %q", errs.ErrInvalidURL, playerURL)
}
