package channel

import (
	"context"
	"sort"

	"corochan/internal/sched"
	"corochan/metrics"
)

// Choose probes clauses in order and commits to the first one immediately
// satisfiable. If none is, it parks one internal clause per entry of
// clauses and blocks until one of them is satisfied by a peer, the owning
// channel reaches Done/Close, ctx is done, or the process shuts down.
//
// The returned int is the index into clauses of the clause that won (or,
// on a validation failure, the index of the offending clause); it is -1
// only when the failure is not attributable to a single clause (an empty
// clauses list, a process already shut down, a context already done when
// no clause was satisfiable, or a timeout or cancellation while parked).
func Choose(ctx context.Context, clauses ...Clause) (int, error) {
	idx, err := choose(ctx, clauses...)
	metrics.RecordOp("choose", outcome(err))
	return idx, err
}

func choose(ctx context.Context, clauses ...Clause) (int, error) {
	if len(clauses) == 0 {
		return -1, ErrInvalidArgument
	}
	if err := sched.CanBlock(); err != nil {
		return -1, ErrCanceled
	}

	chs := uniqueSortedChannels(clauses)
	lockAll(chs)

	for i, c := range clauses {
		if !resolved(c.ch.id) {
			unlockAll(chs)
			return i, ErrBadHandle
		}
		if len(c.payload) != c.ch.elemSize {
			unlockAll(chs)
			return i, ErrInvalidArgument
		}

		switch c.kind {
		case kindSend:
			ch := c.ch
			if ch.done {
				unlockAll(chs)
				return i, ErrBrokenPipe
			}
			for {
				n := ch.receivers.Front()
				if n == nil {
					break
				}
				ch.receivers.Remove(n)
				rc := n.Value.(*Clause)
				rc.node = nil
				if !rc.claim() {
					continue
				}
				copy(rc.payload, c.payload)
				unlockAll(chs)
				trigger(rc, nil)
				return i, nil
			}
			if ch.count < ch.capacity {
				ch.writeLocked(c.payload)
				unlockAll(chs)
				return i, nil
			}
		case kindRecv:
			ch := c.ch
			if ch.count > 0 {
				ch.readLocked(c.payload)
				for {
					n := ch.senders.Front()
					if n == nil {
						break
					}
					ch.senders.Remove(n)
					sc := n.Value.(*Clause)
					sc.node = nil
					if !sc.claim() {
						continue
					}
					ch.writeLocked(sc.payload)
					unlockAll(chs)
					trigger(sc, nil)
					return i, nil
				}
				unlockAll(chs)
				return i, nil
			}
			for {
				n := ch.senders.Front()
				if n == nil {
					break
				}
				ch.senders.Remove(n)
				sc := n.Value.(*Clause)
				sc.node = nil
				if !sc.claim() {
					continue
				}
				copy(c.payload, sc.payload)
				unlockAll(chs)
				trigger(sc, nil)
				return i, nil
			}
			if ch.done {
				unlockAll(chs)
				return i, ErrBrokenPipe
			}
		}
	}

	if err := ctx.Err(); err != nil {
		unlockAll(chs)
		return -1, mapCtxErr(err)
	}

	wake := make(chan wakeResult, 1)
	parked := make([]*Clause, len(clauses))
	// Every clause this call parks shares one claimed pointer: they sit
	// on as many channels' queues as there are clauses, each guarded by
	// that channel's own mutex, but this selection may still only ever
	// hand off through exactly one of them.
	claimed := new(int32)
	for i, c := range clauses {
		cl := &Clause{kind: c.kind, ch: c.ch, payload: c.payload, index: i, sel: wake, claimed: claimed}
		if c.kind == kindSend {
			cl.node = c.ch.senders.PushBack(cl)
		} else {
			cl.node = c.ch.receivers.PushBack(cl)
		}
		parked[i] = cl
	}
	unlockAll(chs)

	for _, ch := range chs {
		metrics.ChannelParked.WithLabelValues(idLabel(ch.id)).Inc()
	}
	defer func() {
		for _, ch := range chs {
			metrics.ChannelParked.WithLabelValues(idLabel(ch.id)).Dec()
		}
	}()

	var result wakeResult
	select {
	case result = <-wake:
	case <-ctx.Done():
		result = wakeResult{index: -1, err: mapCtxErr(ctx.Err())}
	}

	lockAll(chs)
	for _, cl := range parked {
		if cl.node == nil {
			continue
		}
		if cl.kind == kindSend {
			cl.ch.senders.Remove(cl.node)
		} else {
			cl.ch.receivers.Remove(cl.node)
		}
		cl.node = nil
	}
	unlockAll(chs)

	// A peer may have claimed this selection concurrently with our ctx
	// firing; it then triggers wake after releasing its lock, so wait for
	// and prefer that genuine result over a synthetic timeout. Winning the
	// claim here instead keeps any later peer from completing against us.
	if result.index == -1 && !parked[0].claim() {
		result = <-wake
	}

	return result.index, result.err
}

type wakeResult struct {
	index int
	err   error
}

func uniqueSortedChannels(clauses []Clause) []*Channel {
	seen := make(map[uint64]*Channel, len(clauses))
	for _, c := range clauses {
		seen[c.ch.id] = c.ch
	}
	out := make([]*Channel, 0, len(seen))
	for _, ch := range seen {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func lockAll(chs []*Channel) {
	for _, ch := range chs {
		ch.mu.Lock()
	}
}

func unlockAll(chs []*Channel) {
	for i := len(chs) - 1; i >= 0; i-- {
		chs[i].mu.Unlock()
	}
}
