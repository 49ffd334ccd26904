package cipher

import (
	"time"

	"github.com/ytget/sigsolver/internal/cache"
	"github.com/ytget/sigsolver/internal/sandbox"
	"github.com/ytget/sigsolver/youtube/cipher/synth"
)

// Tier names as reported by Caches.Stats.
const (
	TierScripts  = "scripts"
	TierModules  = "modules"
	TierSolvers  = "solvers"
	TierInFlight = "inflight"
	TierSts      = "sts"
)

// CacheConfig sizes every tier. Zero fields take the defaults.
type CacheConfig struct {
	Scripts  cache.Options
	Modules  cache.Options
	Solvers  cache.Options
	InFlight cache.Options
	Sts      cache.Options
}

// DefaultCacheConfig returns the default tier sizes.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Scripts:  cache.Options{Capacity: 300, TTL: time.Hour},
		Modules:  cache.Options{Capacity: 300, TTL: time.Hour},
		Solvers:  cache.Options{Capacity: 150, TTL: 24 * time.Hour, RefreshOnRead: true},
		InFlight: cache.Options{Capacity: 500, TTL: 5 * time.Minute},
		Sts:      cache.Options{Capacity: 300, TTL: 24 * time.Hour},
	}
}

func (c CacheConfig) withDefaults() CacheConfig {
	d := DefaultCacheConfig()
	fill := func(o *cache.Options, def cache.Options) {
		if *o == (cache.Options{}) {
			*o = def
			return
		}
		if o.Capacity == 0 {
			o.Capacity = def.Capacity
		}
		if o.TTL <= 0 {
			o.TTL = def.TTL
		}
	}
	fill(&c.Scripts, d.Scripts)
	fill(&c.Modules, d.Modules)
	fill(&c.Solvers, d.Solvers)
	fill(&c.InFlight, d.InFlight)
	fill(&c.Sts, d.Sts)
	return c
}

// Caches groups the independent per-URL tiers of one pipeline.
type Caches struct {
	Scripts  *cache.Store[string]
	Modules  *cache.Store[*synth.Module]
	Solvers  *cache.Store[*sandbox.Pair]
	InFlight *cache.InFlight[string]
	Sts      *cache.Store[string]
}

// NewCaches builds fresh tiers from cfg.
func NewCaches(cfg CacheConfig) *Caches {
	cfg = cfg.withDefaults()
	return &Caches{
		Scripts:  cache.New[string](cfg.Scripts),
		Modules:  cache.New[*synth.Module](cfg.Modules),
		Solvers:  cache.New[*sandbox.Pair](cfg.Solvers),
		InFlight: cache.NewInFlight[string](cfg.InFlight),
		Sts:      cache.New[string](cfg.Sts),
	}
}

// Stats reports every tier.
func (c *Caches) Stats() map[string]cache.Stats {
	return map[string]cache.Stats{
		TierScripts:  c.Scripts.Stats(),
		TierModules:  c.Modules.Stats(),
		TierSolvers:  c.Solvers.Stats(),
		TierInFlight: c.InFlight.Stats(),
		TierSts:      c.Sts.Stats(),
	}
}

// Clear empties every tier. Fetches already in flight still settle for
// their waiters.
func (c *Caches) Clear() {
	c.Scripts.Clear()
	c.Modules.Clear()
	c.Solvers.Clear()
	c.InFlight.Clear()
	c.Sts.Clear()
}

// Start runs the expiry sweepers of every tier.
func (c *Caches) Start() {
	c.Scripts.Start()
	c.Modules.Start()
	c.Solvers.Start()
	c.InFlight.Start()
	c.Sts.Start()
}

// Stop ends the sweepers started by Start.
func (c *Caches) Stop() {
	c.Scripts.Stop()
	c.Modules.Stop()
	c.Solvers.Stop()
	c.InFlight.Stop()
	c.Sts.Stop()
}
