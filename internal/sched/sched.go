// Package sched tracks process-wide runtime shutdown, independent of any
// caller's context.Context. A channel operation fails with a distinct
// error (see channel.ErrCanceled) once Shutdown has been called, even if
// the caller passed context.Background().
package sched

import (
	"errors"
	"sync"
)

// ErrShutdown is returned by CanBlock once Shutdown has been called.
var ErrShutdown = errors.New("sched: runtime is shutting down")

type hook func()

var (
	mu       sync.Mutex
	down     bool
	hooks    = make(map[int]hook)
	nextHook int
)

// CanBlock reports whether a caller may still start a blocking channel
// operation. It returns ErrShutdown once Shutdown has run.
func CanBlock() error {
	mu.Lock()
	defer mu.Unlock()
	if down {
		return ErrShutdown
	}
	return nil
}

// RegisterForShutdown records fn to be invoked exactly once when Shutdown
// runs, and returns a token to pass to UnregisterForShutdown. Channels
// register here so every parked clause can be woken with ErrCanceled
// instead of hanging forever past process shutdown.
func RegisterForShutdown(fn func()) int {
	mu.Lock()
	defer mu.Unlock()
	id := nextHook
	nextHook++
	hooks[id] = fn
	return id
}

// UnregisterForShutdown removes a hook registered with RegisterForShutdown.
// Channels call this from Close so a long-lived registry does not
// accumulate hooks for channels that are already gone.
func UnregisterForShutdown(id int) {
	mu.Lock()
	defer mu.Unlock()
	delete(hooks, id)
}

// Shutdown flips the process-wide flag and fires every registered hook.
// It is idempotent; only the first call has any effect.
func Shutdown() {
	mu.Lock()
	if down {
		mu.Unlock()
		return
	}
	down = true
	pending := make([]hook, 0, len(hooks))
	for _, h := range hooks {
		pending = append(pending, h)
	}
	hooks = make(map[int]hook)
	mu.Unlock()

	for _, h := range pending {
		h()
	}
}

// Reset restores sched to its initial, not-shut-down state. It exists for
// tests that need process-wide shutdown semantics without cross-test
// pollution; production code never calls it.
func Reset() {
	mu.Lock()
	down = false
	hooks = make(map[int]hook)
	mu.Unlock()
}
