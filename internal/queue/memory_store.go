package queue

import (
	"context"
	"sync"

	"github.com/luisherrera/milltrack-agent/pkg/enums"
)

// MemoryStore is a Store kept entirely in memory. It backs tests and embedded
// callers that want an isolated queue without a database.
type MemoryStore struct {
	mu   sync.Mutex
	subs []Submission
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Enqueue(ctx context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, sub)
	return nil
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Submission, len(m.subs))
	copy(out, m.subs)
	return out, nil
}

func (m *MemoryStore) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subs {
		if sub.ID == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, status enums.SubmissionStatus, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subs {
		if m.subs[i].ID == id {
			m.subs[i].Status = status
			m.subs[i].ErrorMessage = errorMessage
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) IncrementRetry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subs {
		if m.subs[i].ID == id {
			m.subs[i].RetryCount++
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) ResetForRetry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subs {
		if m.subs[i].ID == id {
			m.subs[i].Status = enums.SubmissionStatusPending
			m.subs[i].RetryCount = 0
			m.subs[i].ErrorMessage = ""
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) CountByStatus(ctx context.Context, status enums.SubmissionStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, sub := range m.subs {
		if sub.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = nil
	return nil
}

func (m *MemoryStore) ClearWhere(ctx context.Context, status enums.SubmissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.subs[:0]
	for _, sub := range m.subs {
		if sub.Status != status {
			kept = append(kept, sub)
		}
	}
	m.subs = kept
	return nil
}
