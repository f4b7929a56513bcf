package channel

import (
	"context"
	"errors"
	"testing"
	"time"
)

type widget struct {
	name  string
	count int
}

func TestTypedSendRecv(t *testing.T) {
	tc, err := NewTyped[*widget](1)
	if err != nil {
		t.Fatal(err)
	}
	defer tc.Close()

	w := &widget{name: "gizmo", count: 3}
	if err := tc.Send(context.Background(), w); err != nil {
		t.Fatal(err)
	}

	got, err := tc.Recv(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != w {
		t.Fatalf("got %p, want same pointer %p", got, w)
	}
}

func TestTypedRendezvousBlocks(t *testing.T) {
	tc, err := NewTyped[int](0)
	if err != nil {
		t.Fatal(err)
	}
	defer tc.Close()

	recvDone := make(chan int, 1)
	go func() {
		v, err := tc.Recv(context.Background())
		if err != nil {
			t.Error(err)
		}
		recvDone <- v
	}()

	time.Sleep(20 * time.Millisecond)
	if err := tc.Send(context.Background(), 42); err != nil {
		t.Fatal(err)
	}

	select {
	case v := <-recvDone:
		if v != 42 {
			t.Fatalf("got %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Recv never woke")
	}
}

func TestTypedSendFailurePinIsReleased(t *testing.T) {
	tc, err := NewTyped[string](0)
	if err != nil {
		t.Fatal(err)
	}
	defer tc.Close()

	before := pins.Len()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := tc.Send(ctx, "never delivered"); !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Send = %v, want ErrTimedOut", err)
	}

	if after := pins.Len(); after != before {
		t.Fatalf("pin table grew from %d to %d after a failed send", before, after)
	}
}
