package cache

import "sync"

// Call is one outstanding operation. Waiters block on Done and then read
// Result.
type Call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Done is closed once the call has settled.
func (c *Call[V]) Done() <-chan struct{} { return c.done }

// Result returns the settled value. It must only be read after Done.
func (c *Call[V]) Result() (V, error) { return c.val, c.err }

// InFlight tracks at most one outstanding call per key. Entries expire
// after the store's TTL even if never settled, after which a new caller
// becomes leader again.
type InFlight[V any] struct {
	mu    sync.Mutex
	calls *Store[*Call[V]]
}

// NewInFlight builds a registry. Read refresh is always off.
func NewInFlight[V any](opts Options) *InFlight[V] {
	opts.RefreshOnRead = false
	return &InFlight[V]{calls: New[*Call[V]](opts)}
}

// Begin returns the outstanding call for key. leader is true when the call
// was created by this invocation, in which case the caller must run the
// operation and settle it with Finish.
func (f *InFlight[V]) Begin(key string) (call *Call[V], leader bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.calls.Get(key); ok {
		return c, false
	}
	c := &Call[V]{done: make(chan struct{})}
	f.calls.Set(key, c)
	return c, true
}

// Finish settles call and removes it from the registry, unless it was
// already replaced after expiring.
func (f *InFlight[V]) Finish(key string, call *Call[V], val V, err error) {
	call.val, call.err = val, err
	close(call.done)

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.calls.Get(key); ok && c == call {
		f.calls.Delete(key)
	}
}

// Len returns the number of registered calls.
func (f *InFlight[V]) Len() int { return f.calls.Len() }

// Clear forgets every registered call. Callers already waiting still
// receive their results.
func (f *InFlight[V]) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.Clear()
}

// Stats returns the registry's counters.
func (f *InFlight[V]) Stats() Stats { return f.calls.Stats() }

// Start sweeps expired calls in the background.
func (f *InFlight[V]) Start() { f.calls.Start() }

// Stop ends the background sweep.
func (f *InFlight[V]) Stop() { f.calls.Stop() }
