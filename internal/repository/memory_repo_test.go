package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

func seedState(slug string) *models.TenantState {
	return &models.TenantState{
		Restaurant: models.Restaurant{
			Slug:          slug,
			OpenForOrders: true,
			Coupons:       []models.Coupon{{Code: "PIZZA10", Active: true}},
		},
	}
}

func TestMemoryRepo_CreateAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	state := seedState("bella-napoli")
	require.NoError(t, repo.Create(ctx, state))
	assert.Equal(t, int64(1), state.Version)

	assert.ErrorIs(t, repo.Create(ctx, seedState("bella-napoli")), ErrTenantExists)

	loaded, err := repo.Load(ctx, "bella-napoli")
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Version)
	assert.Equal(t, "PIZZA10", loaded.Restaurant.Coupons[0].Code)

	_, err = repo.Load(ctx, "unknown")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestMemoryRepo_LoadReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	require.NoError(t, repo.Create(ctx, seedState("bella-napoli")))

	a, err := repo.Load(ctx, "bella-napoli")
	require.NoError(t, err)
	a.Restaurant.Coupons[0].Uses = 99

	b, err := repo.Load(ctx, "bella-napoli")
	require.NoError(t, err)
	assert.Zero(t, b.Restaurant.Coupons[0].Uses, "unsaved mutations must not leak")
}

func TestMemoryRepo_SaveRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	require.NoError(t, repo.Create(ctx, seedState("bella-napoli")))

	first, err := repo.Load(ctx, "bella-napoli")
	require.NoError(t, err)
	second, err := repo.Load(ctx, "bella-napoli")
	require.NoError(t, err)

	first.Restaurant.Coupons[0].Uses++
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Restaurant.Coupons[0].Uses += 10
	assert.ErrorIs(t, repo.Save(ctx, second), ErrVersionConflict)

	final, err := repo.Load(ctx, "bella-napoli")
	require.NoError(t, err)
	assert.Equal(t, 1, final.Restaurant.Coupons[0].Uses)
	assert.Equal(t, int64(2), final.Version)
}

func TestMemoryRepo_SaveUnknownTenant(t *testing.T) {
	repo := NewMemoryRepo()
	assert.ErrorIs(t, repo.Save(context.Background(), seedState("ghost")), ErrTenantNotFound)
}
