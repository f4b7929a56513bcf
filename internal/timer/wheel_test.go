package timer

import (
	"sync"
	"testing"
	"time"
)

func TestArmFires(t *testing.T) {
	w := New(5 * time.Millisecond)
	w.Run()
	defer w.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	w.Arm(20*time.Millisecond, func() { wg.Done() })

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestArmCancel(t *testing.T) {
	w := New(5 * time.Millisecond)
	w.Run()
	defer w.Close()

	fired := make(chan struct{}, 1)
	cancel := w.Arm(30*time.Millisecond, func() { fired <- struct{}{} })
	cancel()

	select {
	case <-fired:
		t.Fatal("canceled timer must not fire")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestArmOrdering(t *testing.T) {
	w := New(2 * time.Millisecond)
	w.Run()
	defer w.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(3)
	w.Arm(30*time.Millisecond, func() { mu.Lock(); order = append(order, 3); mu.Unlock(); wg.Done() })
	w.Arm(10*time.Millisecond, func() { mu.Lock(); order = append(order, 1); mu.Unlock(); wg.Done() })
	w.Arm(20*time.Millisecond, func() { mu.Lock(); order = append(order, 2); mu.Unlock(); wg.Done() })

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timers never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("fire order = %v, want [1 2 3]", order)
	}
}
