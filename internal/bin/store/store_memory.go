package store

import (
	"context"
	"sync"

	"cardforge/internal/bin/models"
)

// InMemoryBinStore holds BIN metadata in process memory.
// Used in development and tests; production deployments point at Postgres.
type InMemoryBinStore struct {
	mu      sync.RWMutex
	records map[string]*models.BinRecord // keyed by 6-digit prefix
}

// NewMemory creates an empty in-memory BIN store.
func NewMemory() *InMemoryBinStore {
	return &InMemoryBinStore{
		records: make(map[string]*models.BinRecord),
	}
}

// Lookup resolves a six-digit prefix. Returns nil when absent.
func (s *InMemoryBinStore) Lookup(_ context.Context, prefix string) (*models.BinRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, exists := s.records[prefix]; exists {
		copied := *record
		return &copied, nil
	}
	return nil, nil
}

// Save inserts or replaces a record. Records are immutable once loaded,
// so Save is only exercised by the seeder and tests.
func (s *InMemoryBinStore) Save(_ context.Context, record *models.BinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.records[record.Prefix] = &copied
	return nil
}

// InMemoryBlocklist holds blocked prefixes in process memory.
type InMemoryBlocklist struct {
	mu      sync.RWMutex
	entries map[string]string // prefix -> reason
}

// NewMemoryBlocklist creates an empty in-memory blocklist.
func NewMemoryBlocklist() *InMemoryBlocklist {
	return &InMemoryBlocklist{
		entries: make(map[string]string),
	}
}

// IsBlocked reports whether the prefix is blocked and the recorded reason.
func (s *InMemoryBlocklist) IsBlocked(_ context.Context, prefix string) (bool, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reason, exists := s.entries[prefix]
	return exists, reason, nil
}

// Block adds a prefix to the blocklist.
func (s *InMemoryBlocklist) Block(_ context.Context, entry *models.BlockedPrefix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Prefix] = entry.Reason
	return nil
}
