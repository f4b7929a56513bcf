package cluster

import (
	"time"

	"corochan/channel"
	"corochan/internal/timer"
)

// clusterWheel drives the periodic ticks heartbeat() and stat() select on.
// A single shared wheel ticking every 100ms backs every cluster-level
// period (heartbeat's 2s, stat's 10m) instead of one time.Ticker per loop.
var clusterWheel = timer.New(100 * time.Millisecond)

func init() {
	clusterWheel.Run()
}

// newTicker returns a zero-payload, capacity-1 channel that receives a
// tick roughly every d until stop is called. If a tick arrives before the
// previous one was consumed, that tick is simply dropped (the channel is
// already full), mirroring the way a native time.Ticker drops ticks a slow
// reader fails to keep up with.
func newTicker(d time.Duration) (tick *channel.Channel, stop func()) {
	ch, err := channel.Create(0, 1)
	if err != nil {
		panic(err)
	}

	var cancel func()
	var arm func()
	arm = func() {
		cancel = clusterWheel.Arm(d, func() {
			_ = ch.Send(channel.NonBlocking(), nil)
			arm()
		})
	}
	arm()

	return ch, func() {
		if cancel != nil {
			cancel()
		}
		ch.Close()
	}
}
