package task

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAssignerCutInLineDispatchesImmediately(t *testing.T) {
	a := NewAssigner()
	w := NewWorker(2)
	w.Start()
	defer w.Done()

	if err := a.RegistryWorker(w); err != nil {
		t.Fatalf("RegistryWorker: %v", err)
	}

	var ran int32
	err := a.RegistryCutInLineTaskBuild(func(data interface{}) ([]*Task, error) {
		return []*Task{NewTask(func(data interface{}) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}, data)}, nil
	})
	if err != nil {
		t.Fatalf("RegistryCutInLineTaskBuild: %v", err)
	}

	if err := a.CutInLine("urgent"); err != nil {
		t.Fatalf("CutInLine: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&ran) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("expected the cut-in-line task to run exactly once, ran=%d", ran)
	}
}

func TestAssignerStartAllocSkipsWithoutRegistration(t *testing.T) {
	a := NewAssigner()
	// Neither RegistryWorker nor RegistryTaskBuild called: StartAlloc must
	// not panic and simply decline the round.
	a.StartAlloc(1)
}
