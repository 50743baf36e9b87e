package model

import (
	"sync"
	"sync/atomic"
	"time"
)

// ExportModel tracks the download in progress and the last saved artifact.
// The zero value is idle and usable. Concurrency-safe: the download goroutine
// finishes while the presenter tick reads.
type ExportModel struct {
	busy atomic.Bool

	mu       sync.Mutex
	count    int
	lastPath string
	lastAt   time.Time
}

// TryBegin marks an export as running. It returns false if one already is.
func (m *ExportModel) TryBegin() bool {
	if m == nil {
		return false
	}
	return m.busy.CompareAndSwap(false, true)
}

// Busy reports whether an export is running.
func (m *ExportModel) Busy() bool {
	if m == nil {
		return false
	}
	return m.busy.Load()
}

// Done ends the running export. An empty path records a failure.
func (m *ExportModel) Done(path string, now time.Time) {
	if m == nil {
		return
	}
	if path != "" {
		m.mu.Lock()
		m.count++
		m.lastPath = path
		m.lastAt = now
		m.mu.Unlock()
	}
	m.busy.Store(false)
}

// Last returns the number of saved exports and the most recent path.
func (m *ExportModel) Last() (count int, path string, at time.Time) {
	if m == nil {
		return 0, "", time.Time{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, m.lastPath, m.lastAt
}
