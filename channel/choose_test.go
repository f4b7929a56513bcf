package channel

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChooseNoClauses(t *testing.T) {
	idx, err := Choose(context.Background())
	if idx != -1 || !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Choose() = %d,%v want -1,ErrInvalidArgument", idx, err)
	}
}

func TestChooseImmediateRecvWins(t *testing.T) {
	a, _ := Create(1, 1)
	defer a.Close()
	bch, _ := Create(1, 1)
	defer bch.Close()

	if err := bch.Send(context.Background(), b(7)); err != nil {
		t.Fatal(err)
	}

	out1 := make([]byte, 1)
	out2 := make([]byte, 1)
	idx, err := Choose(context.Background(), RecvOp(a, out1), RecvOp(bch, out2))
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if idx != 1 {
		t.Fatalf("idx = %d, want 1", idx)
	}
	if out2[0] != 7 {
		t.Fatalf("out2 = %d, want 7", out2[0])
	}
}

func TestChooseProbeOrderIsPriority(t *testing.T) {
	a, _ := Create(1, 1)
	defer a.Close()
	bch, _ := Create(1, 1)
	defer bch.Close()

	if err := a.Send(context.Background(), b(1)); err != nil {
		t.Fatal(err)
	}
	if err := bch.Send(context.Background(), b(2)); err != nil {
		t.Fatal(err)
	}

	out1 := make([]byte, 1)
	out2 := make([]byte, 1)
	idx, err := Choose(context.Background(), RecvOp(a, out1), RecvOp(bch, out2))
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if idx != 0 {
		t.Fatalf("idx = %d, want 0 (first satisfiable clause wins)", idx)
	}
}

func TestChooseParksThenWakes(t *testing.T) {
	a, _ := Create(1, 0)
	defer a.Close()
	bch, _ := Create(1, 0)
	defer bch.Close()

	done := make(chan struct {
		idx int
		err error
	}, 1)
	go func() {
		out1 := make([]byte, 1)
		out2 := make([]byte, 1)
		idx, err := Choose(context.Background(), RecvOp(a, out1), RecvOp(bch, out2))
		done <- struct {
			idx int
			err error
		}{idx, err}
	}()

	time.Sleep(20 * time.Millisecond)
	if err := bch.Send(context.Background(), b(5)); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-done:
		if r.err != nil || r.idx != 1 {
			t.Fatalf("got idx=%d err=%v, want idx=1 err=nil", r.idx, r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("Choose never woke")
	}

	// the sibling clause on `a` must have been unparked, not left dangling
	if a.receivers.Len() != 0 {
		t.Fatalf("sibling clause on a leaked: %d parked receivers", a.receivers.Len())
	}
}

func TestChooseTimesOut(t *testing.T) {
	a, _ := Create(1, 0)
	defer a.Close()
	bch, _ := Create(1, 0)
	defer bch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	out1 := make([]byte, 1)
	out2 := make([]byte, 1)
	idx, err := Choose(ctx, RecvOp(a, out1), RecvOp(bch, out2))
	if idx != -1 || !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Choose = %d,%v want -1,ErrTimedOut", idx, err)
	}
	if a.receivers.Len() != 0 || bch.receivers.Len() != 0 {
		t.Fatalf("parked clauses leaked after timeout")
	}
}

func TestChooseBadClauseIndexReported(t *testing.T) {
	a, _ := Create(4, 1)
	defer a.Close()

	idx, err := Choose(context.Background(), RecvOp(a, make([]byte, 1)))
	if idx != 0 || !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Choose = %d,%v want 0,ErrInvalidArgument", idx, err)
	}
}

// TestChooseCommitsExactlyOnceAcrossChannels guards against a selection
// completing twice when two peers race on two different channels of the
// same Choose: without the claim guard, both Sends below would return nil
// because each locks only its own channel and neither sees the other pop
// the sibling clause.
func TestChooseCommitsExactlyOnceAcrossChannels(t *testing.T) {
	for attempt := 0; attempt < 50; attempt++ {
		a, _ := Create(1, 0)
		bch, _ := Create(1, 0)

		type selResult struct {
			idx int
			err error
		}
		selDone := make(chan selResult, 1)
		out1 := make([]byte, 1)
		out2 := make([]byte, 1)
		go func() {
			idx, err := Choose(context.Background(), RecvOp(a, out1), RecvOp(bch, out2))
			selDone <- selResult{idx, err}
		}()

		// give the selector time to park a clause on both channels
		time.Sleep(10 * time.Millisecond)

		resA := make(chan error, 1)
		resB := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			resA <- a.Send(ctx, b(1))
		}()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			resB <- bch.Send(ctx, b(2))
		}()

		sel := <-selDone
		if sel.err != nil {
			t.Fatalf("attempt %d: Choose: %v", attempt, sel.err)
		}

		errA, errB := <-resA, <-resB
		successes := 0
		if errA == nil {
			successes++
		}
		if errB == nil {
			successes++
		}
		if successes != 1 {
			t.Fatalf("attempt %d: exactly one Send must complete, got errA=%v errB=%v (Choose picked %d)", attempt, errA, errB, sel.idx)
		}
		if sel.idx == 0 && errA != nil {
			t.Fatalf("attempt %d: Choose reported a winning but its Send failed: %v", attempt, errA)
		}
		if sel.idx == 1 && errB != nil {
			t.Fatalf("attempt %d: Choose reported bch winning but its Send failed: %v", attempt, errB)
		}

		a.Close()
		bch.Close()
	}
}

func TestChooseSendWins(t *testing.T) {
	a, _ := Create(1, 1)
	defer a.Close()

	idx, err := Choose(context.Background(), SendOp(a, b(3)))
	if err != nil || idx != 0 {
		t.Fatalf("Choose = %d,%v want 0,nil", idx, err)
	}
	out := make([]byte, 1)
	if err := a.Recv(context.Background(), out); err != nil || out[0] != 3 {
		t.Fatalf("Recv = %d,%v want 3,nil", out[0], err)
	}
}
