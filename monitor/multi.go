package monitor

import (
	"time"

	"chunkseq/parallel"
)

type multi []parallel.Monitor

// Multi forwards every event to each monitor in order. Nil entries are
// dropped.
func Multi(monitors ...parallel.Monitor) parallel.Monitor {
	m := make(multi, 0, len(monitors))
	for _, mon := range monitors {
		if mon != nil {
			m = append(m, mon)
		}
	}
	if len(m) == 0 {
		return parallel.NoopMonitor{}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multi) OnExtract(size int, elapsed time.Duration) {
	for _, mon := range m {
		mon.OnExtract(size, elapsed)
	}
}

func (m multi) OnProcess(size int, elapsed time.Duration, err error) {
	for _, mon := range m {
		mon.OnProcess(size, elapsed, err)
	}
}

func (m multi) OnDrop(chunks int) {
	for _, mon := range m {
		mon.OnDrop(chunks)
	}
}

func (m multi) OnFinish(err error) {
	for _, mon := range m {
		mon.OnFinish(err)
	}
}
