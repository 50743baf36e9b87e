package model

import "sync"

// NoticeModel queues user-facing messages raised off the UI thread. Each
// notice is drained exactly once.
type NoticeModel struct {
	mu      sync.Mutex
	pending []string
}

func NewNoticeModel() *NoticeModel { return &NoticeModel{} }

// Push appends a notice. Empty messages are ignored.
func (m *NoticeModel) Push(msg string) {
	if m == nil || msg == "" {
		return
	}
	m.mu.Lock()
	m.pending = append(m.pending, msg)
	m.mu.Unlock()
}

// Drain returns all pending notices in arrival order and clears the queue.
func (m *NoticeModel) Drain() []string {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pending
	m.pending = nil
	return out
}
