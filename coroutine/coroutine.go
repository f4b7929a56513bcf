package coroutine

import "context"

var defaultPool Pool

func init() {
	defaultPool = NewPool("default", 4096, NewConfig())
}

// Go spawns f on the default pool, the runtime's equivalent of starting a
// coroutine with no particular deadline.
func Go(f func()) {
	CtxGo(context.Background(), f)
}

// CtxGo spawns f on the default pool, carrying ctx through to the pool's
// panic handler if f panics.
func CtxGo(ctx context.Context, f func()) {
	defaultPool.CtxGo(ctx, f)
}

// SetCap changes the default pool's capacity. Changing the global pool's
// capacity affects every other caller sharing it; prefer a dedicated Pool
// for a component with distinct scaling needs.
func SetCap(cap int32) {
	defaultPool.SetCap(cap)
}

// SetPanicHandler installs the default pool's panic handler.
func SetPanicHandler(f func(context.Context, interface{})) {
	defaultPool.SetPanicHandler(f)
}

// WorkerCount reports the default pool's live worker goroutines.
func WorkerCount() int32 {
	return defaultPool.WorkerCount()
}
