package task

import (
	"context"
	"sync"

	"corochan/channel"
)

// Scheduler drives round-based dispatch: each time RoundDone is called it
// advances the round counter and invokes every registered callback. The
// teacher's original signaled this with two native `chan interface{}` and
// a bare select; here both signals are zero-payload channel.Channels
// (done a rendezvous, roundDone buffered to one) and the select becomes a
// channel.Choose, so advancing
// a round goes through the same primitive the rest of this module uses
// for everything else.
type Scheduler struct {
	mu        sync.Mutex
	done      *channel.Channel
	round     int
	roundDone *channel.Channel
	roundCall map[string]func(round int)
}

// DefaultScheduler is the package's global Scheduler instance; callers
// register round callbacks on it with CallRegistry and call Start
// themselves once registration is complete.
var DefaultScheduler = NewScheduler()

func NewScheduler() *Scheduler {
	done, err := channel.Create(0, 0)
	if err != nil {
		panic(err)
	}
	roundDone, err := channel.Create(0, 1)
	if err != nil {
		panic(err)
	}
	return &Scheduler{
		done:      done,
		roundDone: roundDone,
		roundCall: make(map[string]func(round int)),
	}
}

func (s *Scheduler) Start() {
	for {
		// done never has a successful send; the only way it wins this
		// Choose is with ErrBrokenPipe from Scheduler.Done, which the err
		// check below already treats as a stop signal regardless of
		// which clause reported it.
		_, err := channel.Choose(context.Background(),
			channel.RecvOp(s.done, nil),
			channel.RecvOp(s.roundDone, nil),
		)
		if err != nil {
			logger.Info("scheduler stopping: %s", err)
			return
		}
		s.startNewRound()
	}
}

// RoundDone signals Start to advance to the next round. Buffered capacity
// 1 means a caller that fires RoundDone while a round is already in
// flight does not block; a second signal arriving before the first is
// consumed is simply coalesced, matching a native Go channel of the same
// capacity.
func (s *Scheduler) RoundDone() {
	if err := s.roundDone.Send(channel.NonBlocking(), nil); err != nil {
		logger.Debug("round already pending: %s", err)
	}
}

func (s *Scheduler) Done() {
	if err := s.done.Done(); err != nil {
		logger.Warn("scheduler already done: %s", err)
	}
}

func (s *Scheduler) startNewRound() {
	s.mu.Lock()
	s.round++
	round := s.round
	calls := make(map[string]func(round int), len(s.roundCall))
	for name, f := range s.roundCall {
		calls[name] = f
	}
	s.mu.Unlock()

	for name, f := range calls {
		logger.Debug("call %s, round: %d", name, round)
		f(round)
	}
}

func (s *Scheduler) CallRegistry(name string, call func(round int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roundCall[name] = call
}
