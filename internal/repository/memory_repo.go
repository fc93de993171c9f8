package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

type memoryRecord struct {
	version int64
	data    []byte
}

// MemoryRepo keeps snapshots as encoded JSON so every Load hands out an
// independent copy, the same way a database round-trip would.
type MemoryRepo struct {
	mu      sync.Mutex
	tenants map[string]memoryRecord
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tenants: make(map[string]memoryRecord)}
}

func (r *MemoryRepo) Load(ctx context.Context, slug string) (*models.TenantState, error) {
	r.mu.Lock()
	rec, ok := r.tenants[slug]
	r.mu.Unlock()
	if !ok {
		return nil, ErrTenantNotFound
	}

	var state models.TenantState
	if err := json.Unmarshal(rec.data, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", slug, err)
	}
	state.Version = rec.version
	return &state, nil
}

func (r *MemoryRepo) Save(ctx context.Context, state *models.TenantState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	slug := state.Restaurant.Slug
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tenants[slug]
	if !ok {
		return ErrTenantNotFound
	}
	if rec.version != state.Version {
		return ErrVersionConflict
	}

	r.tenants[slug] = memoryRecord{version: rec.version + 1, data: data}
	state.Version = rec.version + 1
	return nil
}

func (r *MemoryRepo) Create(ctx context.Context, state *models.TenantState) error {
	if state.Restaurant.Slug == "" {
		return fmt.Errorf("create tenant: empty slug")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tenants[state.Restaurant.Slug]; exists {
		return ErrTenantExists
	}
	r.tenants[state.Restaurant.Slug] = memoryRecord{version: 1, data: data}
	state.Version = 1
	return nil
}
