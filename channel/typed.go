package channel

import (
	"context"
	"encoding/binary"

	"corochan/internal/registry"
)

// pins keeps the actual Go values referenced by in-flight Typed messages
// reachable by the garbage collector. A Typed channel moves only an
// 8-byte pin id through the underlying byte Channel; encoding a Go
// pointer directly into the byte buffer would be invisible to the
// collector, since a []byte is never scanned for pointers the way a
// properly typed field is. Keeping the real value alive in this map
// instead of behind unsafe.Pointer is the whole reason Typed exists.
var pins = registry.New()

// Typed wraps a byte Channel to move values of type T instead of raw
// []byte, for callers who want the ergonomics of a generic channel. It
// has no equivalent in the original C implementation, which predates Go
// generics; it is purely an idiomatic convenience layered on top.
type Typed[T any] struct {
	ch *Channel
}

// NewTyped creates a Typed channel with the given buffered capacity.
func NewTyped[T any](capacity int) (*Typed[T], error) {
	ch, err := Create(8, capacity)
	if err != nil {
		return nil, err
	}
	return &Typed[T]{ch: ch}, nil
}

// Close releases the underlying channel. Any values still pinned for
// messages that were sent but never received leak until process exit;
// callers that need eager cleanup should drain the channel before
// closing it, exactly as they would with a native Go channel.
func (t *Typed[T]) Close() {
	t.ch.Close()
}

// Done marks the underlying channel done.
func (t *Typed[T]) Done() error {
	return t.ch.Done()
}

// Send pins v and hands its id through the underlying byte channel; the
// Recv that takes it unpins it. If the send fails there is no receiver to
// hand ownership to, and Send releases the pin immediately.
func (t *Typed[T]) Send(ctx context.Context, v T) error {
	id := pins.Register(v)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], id)
	if err := t.ch.Send(ctx, buf[:]); err != nil {
		pins.Unregister(id)
		return err
	}
	return nil
}

// Recv blocks for the next value and unpins it before returning.
func (t *Typed[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	var buf [8]byte
	if err := t.ch.Recv(ctx, buf[:]); err != nil {
		return zero, err
	}
	id := binary.LittleEndian.Uint64(buf[:])
	v, ok := pins.Resolve(id)
	pins.Unregister(id)
	if !ok {
		return zero, ErrBadHandle
	}
	return v.(T), nil
}

// SendOp/RecvOp equivalents for Choose: TypedSendOp/TypedRecvOp are not
// provided because Choose operates on the untyped byte Clause directly;
// callers that need to select across Typed channels build their own
// 8-byte scratch buffers and use SendOp/RecvOp against t.Chan().

// Chan exposes the underlying byte Channel for use with Choose.
func (t *Typed[T]) Chan() *Channel {
	return t.ch
}

// Pin manually pins v and returns its id, for callers building a Clause
// by hand to participate in a Choose alongside this Typed channel's byte
// representation.
func Pin(v any) uint64 {
	return pins.Register(v)
}

// Unpin releases a value pinned with Pin, or one whose Recv was aborted
// partway (e.g. by a failed Choose) and must be released manually to
// avoid leaking it for the life of the process.
func Unpin(id uint64) {
	pins.Unregister(id)
}

// Resolve looks up a pinned value by id without unpinning it.
func Resolve(id uint64) (any, bool) {
	return pins.Resolve(id)
}
