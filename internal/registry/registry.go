// Package registry is an id-keyed handle table, the same shape as the
// name-keyed bean registry it was adapted from, but keyed by a
// monotonic uint64 instead of a string. It gives channel handles the same
// property C's handle tables give libdill: a handle that has been retired
// no longer resolves, so use-after-close is an observable error instead of
// a dangling pointer dereference.
//
// A second instance of this same table backs channel.Typed's pin table,
// keeping an arbitrary Go value reachable by the garbage collector for as
// long as its id is in flight on a byte channel.
package registry

import (
	"sync"
	"sync/atomic"
)

// Registry is a concurrency-safe id -> value table. The zero value is an
// empty, ready to use registry.
type Registry struct {
	mu     sync.RWMutex
	m      map[uint64]any
	nextID uint64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{m: make(map[uint64]any)}
}

// Register assigns obj a fresh id and returns it. The id is never zero,
// so callers may use 0 as a sentinel for "no handle".
func (r *Registry) Register(obj any) uint64 {
	id := atomic.AddUint64(&r.nextID, 1)
	r.mu.Lock()
	if r.m == nil {
		r.m = make(map[uint64]any)
	}
	r.m[id] = obj
	r.mu.Unlock()
	return id
}

// Resolve looks up id. The second return value is false if id was never
// issued or has since been unregistered.
func (r *Registry) Resolve(id uint64) (any, bool) {
	r.mu.RLock()
	obj, ok := r.m[id]
	r.mu.RUnlock()
	return obj, ok
}

// Unregister retires id. It is a no-op if id is not present.
func (r *Registry) Unregister(id uint64) {
	r.mu.Lock()
	delete(r.m, id)
	r.mu.Unlock()
}

// Len reports the number of live handles, for tests and metrics.
func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.m)
	r.mu.RUnlock()
	return n
}
