package service

import (
	"context"
	"sync"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
)

type memoryStore struct {
	mu        sync.Mutex
	records   []domain.Record
	appendErr error
	// failOnAppend makes only that append call (1-based) fail with appendErr.
	failOnAppend int
	appends      int
	lists        int
}

func (m *memoryStore) Name() string { return "memory" }

func (m *memoryStore) ListRecords(ctx context.Context) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	return append([]domain.Record(nil), m.records...), nil
}

func (m *memoryStore) AppendRecords(ctx context.Context, records []domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	if m.appendErr != nil && (m.failOnAppend == 0 || m.appends == m.failOnAppend) {
		return m.appendErr
	}
	m.records = append(m.records, records...)
	return nil
}

type memoryCache struct {
	entries     map[string][]domain.Record
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]domain.Record)}
}

func (c *memoryCache) GetRecords(ctx context.Context, source string) ([]domain.Record, bool, error) {
	records, ok := c.entries[source]
	return records, ok, nil
}

func (c *memoryCache) SetRecords(ctx context.Context, source string, records []domain.Record) error {
	c.entries[source] = records
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, source string) error {
	delete(c.entries, source)
	c.invalidated++
	return nil
}

func (c *memoryCache) InvalidateAll(ctx context.Context) error {
	c.entries = make(map[string][]domain.Record)
	c.invalidated++
	return nil
}
