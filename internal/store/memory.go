package store

import (
	"context"
	"errors"
	"maps"
	"sync"
)

var ErrEmptyID = errors.New("entity id cannot be empty")

// Memory is the reference Store backend: an in-process map guarded by a
// single collection-wide lock.
type Memory struct {
	mu   sync.RWMutex
	data map[string]Record
}

func NewMemory() *Memory {
	return &Memory{data: map[string]Record{}}
}

func (m *Memory) Save(_ context.Context, id string, rec Record) error {
	if id == "" {
		return ErrEmptyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = maps.Clone(rec)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.data[id]
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(rec), true, nil
}

func (m *Memory) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.data))
	for _, rec := range m.data {
		out = append(out, maps.Clone(rec))
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[id]; !ok {
		return false, nil
	}
	delete(m.data, id)
	return true, nil
}

func (m *Memory) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[id]
	return ok, nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data), nil
}
