package task

import (
	"context"
	"runtime/debug"
	"time"

	"corochan/channel"
	"corochan/log"
)

var logger = log.New()

// Worker runs submitted Tasks on a fixed set of buckets. Each bucket is a
// *channel.Typed[*Task] rather than a native Go channel, so shutting a
// bucket's reader down is a single channel.Channel.Done() call instead of
// a second, hand-rolled done channel fanned out to every bucket.
type Worker struct {
	buckets     []*channel.Typed[*Task]
	parallelism int
}

// DefaultWorker is the package's global Worker instance, started at init
// time the same way cluster.DefaultCluster is a package-level singleton
// callers wire themselves rather than constructing a Worker by hand.
var DefaultWorker *Worker

func init() {
	DefaultWorker = NewWorker(1024)
	DefaultWorker.Start()
}

func NewWorker(parallelism int) *Worker {
	if parallelism < 1 {
		parallelism = 1024
	}
	w := &Worker{
		parallelism: parallelism,
		buckets:     make([]*channel.Typed[*Task], 0, parallelism),
	}
	for i := 0; i < parallelism; i++ {
		b, err := channel.NewTyped[*Task](1)
		if err != nil {
			panic(err)
		}
		w.buckets = append(w.buckets, b)
	}
	return w
}

func (w *Worker) Start() {
	for i := range w.buckets {
		index := i
		go w.exec(index)
	}
}

func (w *Worker) exec(index int) {
	defer func() {
		if fatal := recover(); fatal != nil {
			logger.Error("worker %d panic, recovered: %v\n%s", index, fatal, string(debug.Stack()))
		}
	}()

	bucket := w.buckets[index]
	logger.Debug("worker %d is start running", index)
	for {
		t, err := bucket.Recv(context.Background())
		if err != nil {
			// the bucket reached Done (via Worker.Done) or was closed
			logger.Debug("worker %d is getting done: %s", index, err)
			return
		}

		recvAt := time.Now()
		if execErr := t.F(t.Data); execErr != nil {
			if t.NeedRetry && t.RetryTimes < t.RetryLimit {
				t.RetryTimes++
				if sendErr := bucket.Send(context.Background(), t); sendErr != nil {
					logger.Warn("worker %d could not requeue task %d: %s", index, t.ID, sendErr)
				}
				continue
			}
			logger.Warn("worker %d task %d failed: %s", index, t.ID, execErr)
		}
		logger.Debug("worker %d finished task %d, elapsed=%s", index, t.ID, time.Since(recvAt))
	}
}

// Done marks every bucket done, waking each worker's blocked Recv with
// ErrBrokenPipe so it exits its loop.
func (w *Worker) Done() {
	for _, b := range w.buckets {
		_ = b.Done()
	}
}

// Recv hashes each task onto a bucket by id and hands it to that bucket's
// worker. Named for the teacher's original method, which receives work on
// the allocator's behalf rather than on the worker's own.
func (w *Worker) Recv(list []*Task) {
	for _, t := range list {
		pos := t.ID % int64(len(w.buckets))
		if pos < 0 {
			pos += int64(len(w.buckets))
		}
		if err := w.buckets[pos].Send(context.Background(), t); err != nil {
			logger.Warn("task %d dropped: %s", t.ID, err)
		}
	}
}
