package channel

import (
	"context"
	"time"
)

// NonBlocking returns a context whose deadline has already elapsed, the
// idiomatic equivalent of the original's zero-deadline "probe, don't
// block" regime: Send/Recv/Choose called with this context take their
// fast path if one is immediately available and otherwise fail with
// ErrTimedOut instead of parking.
func NonBlocking() context.Context {
	ctx, _ := context.WithDeadline(context.Background(), time.Unix(0, 0))
	return ctx
}
