package cipher

import (
	"context"
	"time"

	"github.com/ytget/sigsolver/internal/jsast"
	"github.com/ytget/sigsolver/internal/logger"
	"github.com/ytget/sigsolver/internal/sandbox"
	"github.com/ytget/sigsolver/pkg/client"
	"github.com/ytget/sigsolver/youtube/cipher/extract"
	"github.com/ytget/sigsolver/youtube/cipher/synth"
)

// Options configures a Pipeline. Zero fields take defaults.
type Options struct {
	Downloader Downloader
	Caches     *Caches
	Evaluator  sandbox.Evaluator
	// BaseURL resolves relative player paths; DefaultBaseURL when empty.
	BaseURL string
}

// Pipeline turns player URLs into solver pairs and serves the operations
// built on them.
type Pipeline struct {
	fetcher *Fetcher
	caches  *Caches
	eval    sandbox.Evaluator
	base    string
}

// New builds a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Downloader == nil {
		opts.Downloader = client.New()
	}
	if opts.Caches == nil {
		opts.Caches = NewCaches(DefaultCacheConfig())
	}
	if opts.Evaluator == nil {
		opts.Evaluator = &sandbox.Goja{}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Pipeline{
		fetcher: NewFetcher(opts.Downloader, opts.Caches),
		caches:  opts.Caches,
		eval:    opts.Evaluator,
		base:    opts.BaseURL,
	}
}

// Caches returns the pipeline's tiers.
func (p *Pipeline) Caches() *Caches { return p.caches }

// Solvers returns the solver pair for playerURL, consulting the solver,
// module and script tiers in that order and filling each one it missed.
// A nil field in the pair means the player has no transform of that
// family. Failures are never cached.
func (p *Pipeline) Solvers(ctx context.Context, playerURL string) (*sandbox.Pair, error) {
	key, err := NormalizePlayerURL(playerURL, p.base)
	if err != nil {
		return nil, wrap(err, map[string]any{"player_url": playerURL})
	}
	details := map[string]any{"player_url": key}
	log := logger.WithComponent(logger.ComponentCache)

	if pair, ok := p.caches.Solvers.Get(key); ok {
		log.Trace("solver cache hit", details)
		return pair, nil
	}

	module, ok := p.caches.Modules.Get(key)
	if ok {
		log.Trace("module cache hit", details)
	} else {
		src, err := p.fetcher.Fetch(ctx, key)
		if err != nil {
			return nil, wrap(err, details)
		}
		if module, err = buildModule(key, src); err != nil {
			return nil, wrap(err, details)
		}
		p.caches.Modules.Set(key, module)
	}

	pair, err := p.eval.Evaluate(module.Source)
	if err != nil {
		logger.WithComponent(logger.ComponentSandbox).Warn("module evaluation failed", map[string]interface{}{
			"player_url": key,
			"error":      err.Error(),
		})
		return nil, wrap(err, details)
	}
	p.caches.Solvers.Set(key, pair)
	return pair, nil
}

// buildModule parses src, extracts both families and synthesizes the
// module.
func buildModule(key, src string) (*synth.Module, error) {
	start := time.Now()
	plog := logger.WithComponent(logger.ComponentParser)
	prog, err := jsast.Parse(src)
	if err != nil {
		plog.Warn("player script does not parse", map[string]interface{}{"player_url": key, "error": err.Error()})
		return nil, err
	}
	block, err := prog.CoreBlock()
	if err != nil {
		plog.Warn("player script has an unexpected wrapper", map[string]interface{}{"player_url": key, "error": err.Error()})
		return nil, err
	}
	plog.Debug("player script parsed", map[string]interface{}{
		"player_url": key,
		"statements": block.Len(),
		"duration":   time.Since(start).String(),
	})

	found := extract.Scan(block)
	elog := logger.WithComponent(logger.ComponentExtractor)
	elog.Debug("transform candidates", map[string]interface{}{
		"player_url": key,
		"n":          len(found.N),
		"sig":        len(found.Sig),
	})
	module, err := synth.Build(block, found)
	if err != nil {
		elog.Warn("module synthesis failed", map[string]interface{}{"player_url": key, "error": err.Error()})
		return nil, err
	}
	elog.Debug("module synthesized", map[string]interface{}{
		"player_url": key,
		"retained":   module.Retained,
		"dropped":    module.Dropped,
		"n":          module.N != nil,
		"sig":        module.Sig != nil,
	})
	return module, nil
}
