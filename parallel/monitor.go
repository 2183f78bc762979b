package parallel

import "time"

// Monitor observes a bridged traversal. Methods are called concurrently
// from worker goroutines and must not block.
type Monitor interface {
	// OnExtract records a chunk of size items taken from the cursor.
	OnExtract(size int, elapsed time.Duration)
	// OnProcess records a chunk handed to a work function and its outcome.
	OnProcess(size int, elapsed time.Duration, err error)
	// OnDrop records chunks this traversal extracted but never reported
	// through OnProcess, because it failed first. It is called at most once,
	// before OnFinish.
	OnDrop(chunks int)
	// OnFinish is called once when the traversal ends, with its result.
	OnFinish(err error)
}

// NoopMonitor discards every event. It is the default so library code stays silent.
type NoopMonitor struct{}

func (NoopMonitor) OnExtract(int, time.Duration)        {}
func (NoopMonitor) OnProcess(int, time.Duration, error) {}
func (NoopMonitor) OnDrop(int)                          {}
func (NoopMonitor) OnFinish(error)                      {}
