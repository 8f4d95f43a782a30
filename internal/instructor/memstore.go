package instructor

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store for dev and tests.
type MemStore struct {
	mu      sync.RWMutex
	byEmail map[string]Instructor
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{byEmail: make(map[string]Instructor)}
}

// CreateInstructor inserts an account, rejecting a reused email.
func (m *MemStore) CreateInstructor(ctx context.Context, ins Instructor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[ins.Email]; ok {
		return ErrEmailTaken
	}
	m.byEmail[ins.Email] = ins
	return nil
}

// GetByEmail returns an account by email.
func (m *MemStore) GetByEmail(ctx context.Context, email string) (Instructor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ins, ok := m.byEmail[email]
	if !ok {
		return Instructor{}, ErrBadCredentials
	}
	return ins, nil
}
