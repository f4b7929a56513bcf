// Package channel implements a CSP-style typed channel: fixed-width
// messages, optional bounded FIFO buffering, rendezvous at zero capacity,
// blocking Send/Recv governed by context.Context deadlines, a terminal
// Done state, and multi-way selection via Choose.
//
// Every "coroutine" in this runtime is a goroutine; unlike the
// single-threaded cooperative runtime this primitive was ported from, Go
// goroutines are preemptible, so each Channel carries its own mutex and
// Choose acquires every participating channel's lock in a stable order
// before probing.
package channel

import (
	"context"
	"strconv"

	"corochan/internal/registry"
	"corochan/internal/sched"
	"corochan/internal/waitqueue"
	"corochan/metrics"
)

// maxBufBytes bounds a single channel's backing buffer. It is well short
// of the actual slice-length ceiling; it exists so a pathological
// elemSize*capacity request fails Create with ErrOutOfMemory instead of
// panicking deep inside make().
const maxBufBytes = 1 << 34

func idLabel(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// outcome reduces an error to a short Prometheus label value.
func outcome(err error) string {
	switch err {
	case nil:
		return "ok"
	case ErrTimedOut:
		return "timeout"
	case ErrBrokenPipe:
		return "broken_pipe"
	case ErrCanceled:
		return "canceled"
	case ErrBadHandle:
		return "bad_handle"
	case ErrInvalidArgument:
		return "invalid_argument"
	default:
		return "error"
	}
}

var handles = registry.New()

// Channel is a typed, bounded-or-unbounded FIFO conduit. The zero value is
// not usable; obtain one from Create.
type Channel struct {
	id       uint64
	elemSize int
	capacity int

	mu        muOrdered
	buf       []byte
	count     int
	head      int
	senders   waitqueue.List
	receivers waitqueue.List
	done      bool
	closed    bool

	shutdownHook int
}

// Create allocates a channel carrying elements of elemSize bytes with room
// for capacity buffered elements (0 means pure rendezvous). elemSize == 0
// is legal and models a pure signal with no payload.
func Create(elemSize, capacity int) (*Channel, error) {
	if elemSize < 0 || capacity < 0 {
		return nil, ErrInvalidArgument
	}
	if err := sched.CanBlock(); err != nil {
		return nil, ErrCanceled
	}
	// capacity*elemSize must not overflow int, and the resulting buffer
	// must not exceed what a single Go slice can address; Create rejects
	// both ahead of allocating rather than letting make() panic.
	if elemSize != 0 && capacity != 0 {
		if capacity > maxBufBytes/elemSize {
			return nil, ErrOutOfMemory
		}
	}

	c := &Channel{
		elemSize: elemSize,
		capacity: capacity,
		buf:      make([]byte, capacity*elemSize),
	}
	c.id = handles.Register(c)
	c.mu.order = c.id
	c.shutdownHook = sched.RegisterForShutdown(func() { c.abandon(ErrCanceled) })
	return c, nil
}

// Close tears the channel down: every parked clause on both queues is
// woken with ErrBrokenPipe, any buffered-but-undelivered items are
// discarded, and the channel's handle is retired so further operations
// against it fail with ErrBadHandle. Calling Close a second time on an
// already-closed channel is a caller bug; the drain loop itself tolerates
// empty queues so it will not panic, but it has nothing left to do.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.drainLocked(ErrBrokenPipe)
	c.mu.Unlock()

	handles.Unregister(c.id)
	sched.UnregisterForShutdown(c.shutdownHook)
}

// Done marks the channel as done: subsequent sends fail immediately with
// ErrBrokenPipe, while receives continue draining any items already
// buffered before failing the same way. Calling Done twice returns
// ErrBrokenPipe and changes nothing on the second call.
func (c *Channel) Done() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return ErrBrokenPipe
	}
	c.done = true
	c.drainSendersLocked(ErrBrokenPipe)
	c.drainReceiversLocked(ErrBrokenPipe)
	return nil
}

func (c *Channel) abandon(err error) {
	c.mu.Lock()
	c.drainLocked(err)
	c.mu.Unlock()
}

func (c *Channel) drainLocked(err error) {
	c.drainSendersLocked(err)
	c.drainReceiversLocked(err)
}

func (c *Channel) drainSendersLocked(err error) {
	for n := c.senders.PopFront(); n != nil; n = c.senders.PopFront() {
		cl := n.Value.(*Clause)
		cl.node = nil
		if !cl.claim() {
			// some sibling clause of this Choose already won on another
			// channel; cl is stale, drop it without triggering.
			continue
		}
		trigger(cl, err)
	}
}

func (c *Channel) drainReceiversLocked(err error) {
	for n := c.receivers.PopFront(); n != nil; n = c.receivers.PopFront() {
		cl := n.Value.(*Clause)
		cl.node = nil
		if !cl.claim() {
			continue
		}
		trigger(cl, err)
	}
}

// trigger wakes a parked clause, standalone or Choose-parked. Either wake
// channel is buffered to exactly one slot, and every caller of trigger has
// already won cl.claim(), so at most one party ever triggers a given clause
// and this send never blocks.
func trigger(cl *Clause, err error) {
	if cl.sel != nil {
		cl.sel <- wakeResult{index: cl.index, err: err}
		return
	}
	cl.wake <- err
}

func mapCtxErr(err error) error {
	switch err {
	case context.DeadlineExceeded:
		return ErrTimedOut
	case context.Canceled:
		return ErrCanceled
	default:
		return ErrCanceled
	}
}

// resolved reports whether id still names a live, open channel.
func resolved(id uint64) bool {
	v, ok := handles.Resolve(id)
	if !ok {
		return false
	}
	ch, ok := v.(*Channel)
	return ok && ch != nil
}

// Send delivers payload, which must be exactly c's element size, handing
// it directly to a waiting receiver or, failing that, buffering it if
// capacity allows. If neither is possible it blocks until a receiver
// arrives, the channel reaches Done/Close, ctx is done, or the process
// shuts down.
func (c *Channel) Send(ctx context.Context, payload []byte) error {
	err := c.send(ctx, payload)
	metrics.RecordOp("send", outcome(err))
	return err
}

func (c *Channel) send(ctx context.Context, payload []byte) error {
	if err := sched.CanBlock(); err != nil {
		return ErrCanceled
	}
	if !resolved(c.id) {
		return ErrBadHandle
	}
	if len(payload) != c.elemSize {
		return ErrInvalidArgument
	}

	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return ErrBrokenPipe
	}
	for {
		n := c.receivers.Front()
		if n == nil {
			break
		}
		c.receivers.Remove(n)
		rc := n.Value.(*Clause)
		rc.node = nil
		if !rc.claim() {
			// a sibling clause of rc's Choose already won on a
			// different channel; rc is stale, look past it.
			continue
		}
		copy(rc.payload, payload)
		c.mu.Unlock()
		trigger(rc, nil)
		return nil
	}
	if c.count < c.capacity {
		c.writeLocked(payload)
		c.mu.Unlock()
		return nil
	}

	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return mapCtxErr(err)
	}

	cl := &Clause{kind: kindSend, ch: c, payload: payload, wake: make(chan error, 1), claimed: new(int32)}
	cl.node = c.senders.PushBack(cl)
	c.mu.Unlock()

	return c.park(ctx, cl, &c.senders)
}

// Recv fills out, which must be exactly c's element size, from a buffered
// item or a waiting sender. If neither is available it blocks until a
// sender arrives, ctx is done, or the process shuts down. A channel that
// has reached Done still drains any items buffered before Done was
// called; only once drained does Recv start failing with ErrBrokenPipe.
func (c *Channel) Recv(ctx context.Context, out []byte) error {
	err := c.recv(ctx, out)
	metrics.RecordOp("recv", outcome(err))
	return err
}

func (c *Channel) recv(ctx context.Context, out []byte) error {
	if err := sched.CanBlock(); err != nil {
		return ErrCanceled
	}
	if !resolved(c.id) {
		return ErrBadHandle
	}
	if len(out) != c.elemSize {
		return ErrInvalidArgument
	}

	c.mu.Lock()
	if c.count > 0 {
		c.readLocked(out)
		for {
			n := c.senders.Front()
			if n == nil {
				break
			}
			c.senders.Remove(n)
			sc := n.Value.(*Clause)
			sc.node = nil
			if !sc.claim() {
				continue
			}
			c.writeLocked(sc.payload)
			c.mu.Unlock()
			trigger(sc, nil)
			return nil
		}
		c.mu.Unlock()
		return nil
	}
	for {
		n := c.senders.Front()
		if n == nil {
			break
		}
		c.senders.Remove(n)
		sc := n.Value.(*Clause)
		sc.node = nil
		if !sc.claim() {
			continue
		}
		copy(out, sc.payload)
		c.mu.Unlock()
		trigger(sc, nil)
		return nil
	}
	if c.done {
		c.mu.Unlock()
		return ErrBrokenPipe
	}

	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return mapCtxErr(err)
	}

	cl := &Clause{kind: kindRecv, ch: c, payload: out, wake: make(chan error, 1), claimed: new(int32)}
	cl.node = c.receivers.PushBack(cl)
	c.mu.Unlock()

	return c.park(ctx, cl, &c.receivers)
}

// park blocks the calling goroutine until cl is triggered by a peer, by
// Done/Close, by process shutdown, or until ctx is done. On a ctx timeout
// or cancellation it claims cl and unlinks it from its queue itself, or,
// if a peer already claimed cl, waits for that peer's result; every other
// wakeup path has already unlinked cl before sending on cl.wake.
func (c *Channel) park(ctx context.Context, cl *Clause, q *waitqueue.List) error {
	gauge := metrics.ChannelParked.WithLabelValues(idLabel(c.id))
	gauge.Inc()
	defer gauge.Dec()

	select {
	case err := <-cl.wake:
		return err
	case <-ctx.Done():
		c.mu.Lock()
		won := cl.claim()
		if won {
			q.Remove(cl.node)
			cl.node = nil
		}
		c.mu.Unlock()
		if won {
			return mapCtxErr(ctx.Err())
		}
		// a peer raced us: it already claimed cl and completes the
		// handoff by sending on cl.wake
		return <-cl.wake
	}
}

func (c *Channel) writeLocked(payload []byte) {
	pos := (c.head + c.count) % c.capacity
	copy(c.buf[pos*c.elemSize:(pos+1)*c.elemSize], payload)
	c.count++
}

func (c *Channel) readLocked(out []byte) {
	copy(out, c.buf[c.head*c.elemSize:(c.head+1)*c.elemSize])
	c.head = (c.head + 1) % c.capacity
	c.count--
}
