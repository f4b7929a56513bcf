package channel

import "errors"

// The error taxonomy is deliberately small and flat: every failure a
// channel operation can produce is one of these six sentinels, checked
// with errors.Is. None carries dynamic state; the caller already knows
// which channel and which call failed.
var (
	// ErrCanceled is returned when the runtime has been shut down
	// (internal/sched.Shutdown) or the caller's context was canceled
	// while parked.
	ErrCanceled = errors.New("channel: canceled")

	// ErrBadHandle is returned for an operation against a channel whose
	// handle has already been retired by Close.
	ErrBadHandle = errors.New("channel: bad handle")

	// ErrInvalidArgument is returned for a payload whose length does not
	// match the channel's element size, or a Choose call with no clauses.
	ErrInvalidArgument = errors.New("channel: invalid argument")

	// ErrBrokenPipe is returned when a channel has reached its done or
	// closed state and can no longer complete the requested operation.
	ErrBrokenPipe = errors.New("channel: broken pipe")

	// ErrTimedOut is returned when a context deadline elapses before an
	// operation could complete.
	ErrTimedOut = errors.New("channel: timed out")

	// ErrOutOfMemory is returned by Create when capacity*elemSize exceeds
	// the buffer size Create is willing to allocate on the caller's
	// behalf. Negative elemSize/capacity are ErrInvalidArgument instead;
	// this sentinel covers only the one check Create can make ahead of
	// calling make() for a request within range but still too large.
	ErrOutOfMemory = errors.New("channel: out of memory")
)
