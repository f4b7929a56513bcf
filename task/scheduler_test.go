package task

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerAdvancesRounds(t *testing.T) {
	s := NewScheduler()
	var calls int32
	s.CallRegistry("count", func(round int) {
		atomic.AddInt32(&calls, 1)
	})

	go s.Start()

	s.RoundDone()
	s.RoundDone()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&calls) < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&calls) == 0 {
		t.Fatalf("expected at least one round callback, got 0")
	}

	s.Done()
}
