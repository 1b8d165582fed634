package converter

import "sync/atomic"

// RunLock keeps ConvertTree calls that share a destination from
// interleaving. Conversions are sequential, so a caller that finds the
// lock held reports "busy" instead of queueing behind the running tree.
type RunLock struct {
	busy atomic.Bool
}

// TryAcquire marks a conversion as running. It returns false, without
// waiting, when one is already in progress.
func (l *RunLock) TryAcquire() bool {
	return l.busy.CompareAndSwap(false, true)
}

// Release marks the running conversion as finished.
func (l *RunLock) Release() {
	l.busy.Store(false)
}

// Busy reports whether a conversion holds the lock.
func (l *RunLock) Busy() bool {
	return l.busy.Load()
}
