package channel

import (
	"errors"
	"testing"
)

func TestNonBlockingProbeFailsFastOnEmptyChannel(t *testing.T) {
	ch, err := Create(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	err = ch.Recv(NonBlocking(), make([]byte, 1))
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Recv = %v, want ErrTimedOut", err)
	}
}

func TestNonBlockingProbeSucceedsWhenReady(t *testing.T) {
	ch, err := Create(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	if err := ch.Send(NonBlocking(), b(1)); err != nil {
		t.Fatalf("Send = %v, want nil (buffer has room)", err)
	}
}
