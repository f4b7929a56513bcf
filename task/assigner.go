package task

import (
	"sync"
	"sync/atomic"

	"corochan/cluster"
)

// Assigner is the concrete Allocator: each round it asks its registered
// task builder for that round's Tasks, annotated per currently-alive
// cluster node, and hands the result to a Worker for execution. It holds
// no scheduling loop of its own — a Scheduler calls StartAlloc once per
// round via CallRegistry.
type Assigner struct {
	mu     sync.Mutex
	worker *Worker

	taskBuild      func(round int64, data interface{}) ([]*Task, error)
	cutInLineBuild func(data interface{}) ([]*Task, error)

	nextTaskID int64

	// partitions records the most recent round's per-node batch, keyed by
	// node name, for introspection via Partitions.
	partitions map[string]*Partition
}

var _ Allocator = (*Assigner)(nil)

func NewAssigner() *Assigner {
	return &Assigner{}
}

func (a *Assigner) RegistryWorker(worker *Worker) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.worker = worker
	return nil
}

func (a *Assigner) RegistryTaskBuild(taskBuild func(round int64, data interface{}) ([]*Task, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.taskBuild = taskBuild
	return nil
}

func (a *Assigner) RegistryCutInLineTaskBuild(taskBuild func(data interface{}) ([]*Task, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cutInLineBuild = taskBuild
	return nil
}

// StartAlloc builds this round's tasks, one batch per node the cluster
// currently reports alive, and hands them to the registered Worker. Nodes
// reported lost are skipped for this round; a node that comes back alive
// is simply picked up again the round after, with no separate recovery
// path.
func (a *Assigner) StartAlloc(round int64) {
	a.mu.Lock()
	worker := a.worker
	build := a.taskBuild
	a.mu.Unlock()

	if worker == nil || build == nil {
		logger.Warn("assigner round %d skipped: worker or task builder not registered", round)
		return
	}

	onlineNodes := cluster.DefaultCluster.GetAliveNodeNames()
	if lostNodes := cluster.DefaultCluster.GetLostNodeNames(); len(lostNodes) > 0 {
		logger.Info("assigner round %d: %d node(s) reported lost: %v", round, len(lostNodes), lostNodes)
	}

	partitions := make(map[string]*Partition, len(onlineNodes))
	var tasks []*Task
	for _, nodeName := range onlineNodes {
		built, err := build(round, nodeName)
		if err != nil {
			logger.Error("assigner round %d: task build failed for node %s: %s", round, nodeName, err)
			continue
		}
		a.stampIDs(built)
		tasks = append(tasks, built...)
		partitions[nodeName] = &Partition{
			NodeName:   nodeName,
			Round:      round,
			BatchCount: 1,
			BatchSize:  len(built),
		}
	}

	a.mu.Lock()
	a.partitions = partitions
	a.mu.Unlock()

	logger.Debug("assigner round %d: dispatching %d task(s) across %d node(s)", round, len(tasks), len(onlineNodes))
	worker.Recv(tasks)
}

// Partitions reports the per-node batch sizes dispatched in the most
// recently started round.
func (a *Assigner) Partitions() map[string]Partition {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]Partition, len(a.partitions))
	for name, p := range a.partitions {
		out[name] = *p
	}
	return out
}

// CutInLine bypasses the round cycle: its tasks are built and dispatched
// immediately. Worker's buckets are still plain FIFO queues, so a
// cut-in-line task only jumps ahead of tasks not yet built for a future
// round, not ones already sitting in a bucket.
func (a *Assigner) CutInLine(data interface{}) error {
	a.mu.Lock()
	worker := a.worker
	build := a.cutInLineBuild
	a.mu.Unlock()

	if worker == nil || build == nil {
		return nil
	}
	built, err := build(data)
	if err != nil {
		return err
	}
	a.stampIDs(built)
	worker.Recv(built)
	return nil
}

func (a *Assigner) stampIDs(tasks []*Task) {
	for _, t := range tasks {
		if t.ID == 0 {
			t.ID = atomic.AddInt64(&a.nextTaskID, 1)
		}
	}
}
