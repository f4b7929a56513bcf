package channel

import (
	"sync/atomic"

	"corochan/internal/waitqueue"
)

type kind int

const (
	kindSend kind = iota
	kindRecv
)

// Clause is one pending send or receive, as produced by SendOp/RecvOp and
// consumed by Choose. A standalone Send or Recv call builds a single
// Clause internally and runs it through the same machinery, so there is
// exactly one code path for "is this operation satisfiable right now".
type Clause struct {
	kind    kind
	ch      *Channel
	payload []byte

	// index is this clause's position in the slice passed to Choose; a
	// standalone Send/Recv always reports index 0.
	index int

	node *waitqueue.Node

	// Exactly one of wake/sel is set on any parked Clause: a standalone
	// Send/Recv parks with wake, a Choose parks every one of its
	// clauses sharing one sel channel so the first peer to complete a
	// handoff is the one that wins the selection.
	wake chan error
	sel  chan wakeResult

	// claimed guards against a clause being completed twice. A standalone
	// Send/Recv clause only ever sits on one queue, so it owns a private
	// claimed of its own; every clause a single Choose call parks shares
	// one claimed pointer, since they sit on as many different channels'
	// queues (each with its own mutex) as there are clauses, and only one
	// of those channels may hand off to the selection. Any fast-path peer
	// must win the CAS before it is allowed to pop, copy into, or trigger
	// a parked clause.
	claimed *int32
}

// claim reports whether the caller is the first to complete cl. A losing
// caller must treat cl as if it had never been parked.
func (cl *Clause) claim() bool {
	return atomic.CompareAndSwapInt32(cl.claimed, 0, 1)
}

// SendOp builds a send Clause for use with Choose. payload must be exactly
// ch's element size; Choose validates this lazily, at probe time.
func SendOp(ch *Channel, payload []byte) Clause {
	return Clause{kind: kindSend, ch: ch, payload: payload}
}

// RecvOp builds a receive Clause for use with Choose. out must be exactly
// ch's element size and is written to only if this clause is the one that
// completes.
func RecvOp(ch *Channel, out []byte) Clause {
	return Clause{kind: kindRecv, ch: ch, payload: out}
}
