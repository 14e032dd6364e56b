package settings

import (
	"context"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It is suitable for stdio deployments without a database and for testing.
type MemStore struct {
	mu       sync.RWMutex
	accounts map[string]map[string]string
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		accounts: make(map[string]map[string]string),
	}
}

// Set implements [Store.Set].
func (s *MemStore) Set(ctx context.Context, accountID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		acct = make(map[string]string)
		s.accounts[accountID] = acct
	}
	acct[key] = value
	return nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(ctx context.Context, accountID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.accounts[accountID][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Delete implements [Store.Delete].
func (s *MemStore) Delete(ctx context.Context, accountID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := acct[key]; !ok {
		return ErrNotFound
	}
	delete(acct, key)
	return nil
}

// PurgeAccount implements [Store.PurgeAccount].
func (s *MemStore) PurgeAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, accountID)
	return nil
}
