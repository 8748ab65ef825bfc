package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process. Readers never observe a record
// that is still being written because records are replaced whole under the lock.
type MemoryStore struct {
	data  map[string]*Record
	mutex sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*Record),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rec, exists := m.data[key]
	if !exists {
		return nil, nil
	}
	return rec.clone(), nil
}

func (m *MemoryStore) Put(ctx context.Context, rec *Record) error {
	copied := rec.clone()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.data[rec.Key] = copied
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*Record, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	records := make([]*Record, 0, len(m.data))
	for _, rec := range m.data {
		records = append(records, rec.clone())
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Layered serves reads from front and falls back to back, filling front on a hit.
// Writes go to back first so front never holds an entry the durable store lacks.
type Layered struct {
	front ResultCache
	back  ResultCache
}

func NewLayered(front, back ResultCache) *Layered {
	return &Layered{front: front, back: back}
}

func (l *Layered) Get(ctx context.Context, key string) (*Record, error) {
	rec, err := l.front.Get(ctx, key)
	if err != nil || rec != nil {
		return rec, err
	}

	rec, err = l.back.Get(ctx, key)
	if err != nil || rec == nil {
		return rec, err
	}
	if err := l.front.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (l *Layered) Put(ctx context.Context, rec *Record) error {
	if err := l.back.Put(ctx, rec); err != nil {
		return err
	}
	return l.front.Put(ctx, rec)
}

func (l *Layered) List(ctx context.Context) ([]*Record, error) {
	return l.back.List(ctx)
}

func (l *Layered) Close() error {
	frontErr := l.front.Close()
	if err := l.back.Close(); err != nil {
		return err
	}
	return frontErr
}
