package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"contracttext/pkg/domain"
)

// MemoryStore keeps contracts in-process. It backs tests and local runs
// without Postgres.
type MemoryStore struct {
	mu        sync.RWMutex
	contracts map[string]domain.Contract
	meta      map[string]domain.ExtractionMeta
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contracts: make(map[string]domain.Contract),
		meta:      make(map[string]domain.ExtractionMeta),
	}
}

// Put seeds or replaces a contract record.
func (m *MemoryStore) Put(c domain.Contract) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = c
}

// GetContract retrieves a contract by ID.
func (m *MemoryStore) GetContract(_ context.Context, id string) (domain.Contract, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[id]
	return c, ok, nil
}

// SaveResult applies a terminal outcome, mirroring the zero-row error of the
// Postgres implementation.
func (m *MemoryStore) SaveResult(_ context.Context, id string, upd ResultUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return fmt.Errorf("save result for %s: %w", id, ErrNoRowsUpdated)
	}
	c.RawText = upd.RawText
	c.UploadStatus = upd.Status
	processedAt := upd.ProcessedAt
	c.ProcessedAt = &processedAt
	c.UpdatedAt = time.Now().UTC()
	m.contracts[id] = c
	if upd.Meta != nil {
		m.meta[id] = *upd.Meta
	}
	return nil
}

// Meta returns the extraction metadata recorded for a contract, if any.
func (m *MemoryStore) Meta(id string) (domain.ExtractionMeta, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.meta[id]
	return meta, ok
}
