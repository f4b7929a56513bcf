package channel

import "sync"

// muOrdered is a plain mutex that also remembers a stable ordering key
// (the owning channel's registry id). Choose needs to lock every channel
// participating in a selection at once; locking them in ascending id order
// avoids the classic deadlock of two concurrent Choose calls acquiring the
// same pair of channels in opposite order.
type muOrdered struct {
	sync.Mutex
	order uint64
}
