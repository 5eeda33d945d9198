package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront_accounts/internal/model"
)

type memoryAccountRepository struct {
	mu       sync.RWMutex
	byID     map[string]*model.Account
	byUserID map[string]string // username -> id
}

// NewMemoryAccountRepository creates an AccountRepository held in process memory.
// It enforces the same unique-username constraint as the Postgres schema.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{
		byID:     make(map[string]*model.Account),
		byUserID: make(map[string]string),
	}
}

func (r *memoryAccountRepository) Create(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUserID[a.Username]; taken {
		return ErrDuplicateUsername
	}
	if _, exists := r.byID[a.ID]; exists {
		return fmt.Errorf("failed to create account: id %s already exists", a.ID)
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	stored := *a
	r.byID[a.ID] = &stored
	r.byUserID[a.Username] = a.ID
	return nil
}

func (r *memoryAccountRepository) FindByUsername(_ context.Context, username string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUserID[username]
	if !ok {
		return nil, nil
	}
	found := *r.byID[id]
	return &found, nil
}

func (r *memoryAccountRepository) FindByID(_ context.Context, id string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	found := *a
	return &found, nil
}

func (r *memoryAccountRepository) Update(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[a.ID]
	if !ok {
		return fmt.Errorf("account not found for update")
	}
	if owner, taken := r.byUserID[a.Username]; taken && owner != a.ID {
		return ErrDuplicateUsername
	}

	delete(r.byUserID, existing.Username)
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	stored := *a
	r.byID[a.ID] = &stored
	r.byUserID[a.Username] = a.ID
	return nil
}

func (r *memoryAccountRepository) Delete(_ context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	delete(r.byID, id)
	delete(r.byUserID, a.Username)
	return a, nil
}
