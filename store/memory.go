package store

import (
	"fmt"
	"sync"

	"github.com/appforge/canvasflow/model"
)

// MemoryStore keeps workflows in process, in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*model.Workflow
}

var _ Store = new(MemoryStore)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*model.Workflow)}
}

func (m *MemoryStore) GetAll() ([]model.StoredWorkflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.StoredWorkflow, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, model.StoredWorkflow{StorageKey: key, Workflow: m.entries[key]})
	}
	return out, nil
}

func (m *MemoryStore) Get(key string) (*model.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wf, ok := m.entries[key]
	if !ok {
		return nil, fmt.Errorf("workflow %s not found", key)
	}
	return wf, nil
}

func (m *MemoryStore) Put(key string, wf *model.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = wf
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return nil
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Replace(entries []model.StoredWorkflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = make([]string, 0, len(entries))
	m.entries = make(map[string]*model.Workflow, len(entries))
	for _, e := range entries {
		if _, ok := m.entries[e.StorageKey]; !ok {
			m.order = append(m.order, e.StorageKey)
		}
		m.entries[e.StorageKey] = e.Workflow
	}
	return nil
}
