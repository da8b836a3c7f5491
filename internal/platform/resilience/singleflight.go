package resilience

import "sync"

// SingleFlight collapses concurrent executions of the same key into one.
// Resolve traffic hits the same player name in bursts, so duplicate callers
// wait for the first load instead of stacking identical repository queries.
// The zero value is ready to use.
type SingleFlight struct {
	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	done  chan struct{}
	value any
	err   error
}

// Do runs fn for key unless an execution is already in flight, in which case
// it blocks and returns that execution's result. The boolean reports whether
// the result was shared.
func (f *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	f.mu.Lock()
	if f.inflight == nil {
		f.inflight = make(map[string]*inflightCall)
	}
	if existing, ok := f.inflight[key]; ok {
		f.mu.Unlock()
		<-existing.done
		return existing.value, existing.err, true
	}

	c := &inflightCall{done: make(chan struct{})}
	f.inflight[key] = c
	f.mu.Unlock()

	c.value, c.err = fn()
	close(c.done)

	f.mu.Lock()
	delete(f.inflight, key)
	f.mu.Unlock()

	return c.value, c.err, false
}
