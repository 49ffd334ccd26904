// Package cache provides the URL-keyed TTL/capacity stores and the
// in-flight registry used by the solver pipeline. Each value is an
// explicitly constructed instance; nothing here is process-wide.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Options configures a Store.
type Options struct {
	Capacity uint64
	TTL      time.Duration
	// RefreshOnRead restarts an entry's TTL on every successful Get.
	RefreshOnRead bool
}

// Stats is a snapshot of a store's counters.
type Stats struct {
	Size      int    `json:"size"`
	Capacity  uint64 `json:"capacity"`
	TTL       string `json:"ttl"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Store is a string-keyed cache with per-entry expiry and least recently
// used eviction once Capacity is reached. It is safe for concurrent use.
type Store[V any] struct {
	opts    Options
	items   *ttlcache.Cache[string, V]
	running atomic.Bool
}

// New builds a Store.
func New[V any](opts Options) *Store[V] {
	o := []ttlcache.Option[string, V]{ttlcache.WithTTL[string, V](opts.TTL)}
	if opts.Capacity > 0 {
		o = append(o, ttlcache.WithCapacity[string, V](opts.Capacity))
	}
	if !opts.RefreshOnRead {
		o = append(o, ttlcache.WithDisableTouchOnHit[string, V]())
	}
	return &Store[V]{opts: opts, items: ttlcache.New[string, V](o...)}
}

// Get returns the live value for key.
func (s *Store[V]) Get(key string) (V, bool) {
	if item := s.items.Get(key); item != nil {
		return item.Value(), true
	}
	var zero V
	return zero, false
}

// Set stores value under key with the store's TTL.
func (s *Store[V]) Set(key string, value V) {
	s.items.Set(key, value, ttlcache.DefaultTTL)
}

// Delete removes key.
func (s *Store[V]) Delete(key string) { s.items.Delete(key) }

// Clear removes every entry.
func (s *Store[V]) Clear() { s.items.DeleteAll() }

// Len returns the number of stored entries, expired ones included until
// they are swept.
func (s *Store[V]) Len() int { return s.items.Len() }

// Stats returns the store's counters.
func (s *Store[V]) Stats() Stats {
	m := s.items.Metrics()
	return Stats{
		Size:      s.items.Len(),
		Capacity:  s.opts.Capacity,
		TTL:       s.opts.TTL.String(),
		Hits:      m.Hits,
		Misses:    m.Misses,
		Evictions: m.Evictions,
	}
}

// Start sweeps expired entries in the background until Stop is called.
func (s *Store[V]) Start() {
	if s.running.CompareAndSwap(false, true) {
		go s.items.Start()
	}
}

// Stop ends the background sweep. It is a no-op when Start was not called.
func (s *Store[V]) Stop() {
	if s.running.CompareAndSwap(true, false) {
		s.items.Stop()
	}
}
