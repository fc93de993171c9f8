package repository

import (
	"context"
	"errors"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrTenantExists    = errors.New("tenant already exists")
	ErrVersionConflict = errors.New("tenant snapshot was modified concurrently")
)

// Repository stores one snapshot per tenant.
//
// Save must be atomic and must fail with ErrVersionConflict when the stored
// version differs from state.Version, so that two writers who loaded the same
// snapshot can never both succeed. On success state.Version is advanced.
type Repository interface {
	Load(ctx context.Context, slug string) (*models.TenantState, error)
	Save(ctx context.Context, state *models.TenantState) error
	Create(ctx context.Context, state *models.TenantState) error
}
