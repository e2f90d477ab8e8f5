package vectorindex

import (
	"context"
	"sync"
	"time"

	"neurabuddy/internal/domain"
)

// MemoryBackend keeps records in process memory. Its generation starts at
// the creation time so two processes never report the same contents.
type MemoryBackend struct {
	mu         sync.RWMutex
	records    map[string]Record
	generation int64
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Record), generation: time.Now().UnixNano()}
}

func (m *MemoryBackend) Put(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
	m.generation++
	return nil
}

func (m *MemoryBackend) Scan(_ context.Context, filter domain.Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		if filter.Matches(r.Fields) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryBackend) DeleteWhere(_ context.Context, key, value string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.records {
		if r.Fields[key] == value {
			delete(m.records, id)
			n++
		}
	}
	if n > 0 {
		m.generation++
	}
	return n, nil
}

func (m *MemoryBackend) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryBackend) Generation(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation, nil
}
