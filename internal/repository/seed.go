package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

// Seed creates the tenants described by r, which holds either one snapshot
// object or an array of them. Tenants that already exist are skipped.
// It returns the number of tenants created.
func Seed(ctx context.Context, repo Repository, r io.Reader, log *zap.Logger) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}

	var states []*models.TenantState
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &states)
	} else {
		var one models.TenantState
		err = json.Unmarshal(trimmed, &one)
		states = append(states, &one)
	}
	if err != nil {
		return 0, fmt.Errorf("decode seed: %w", err)
	}

	created := 0
	for _, s := range states {
		if s == nil || s.Restaurant.Slug == "" {
			return created, errors.New("seed tenant without slug")
		}
		switch err := repo.Create(ctx, s); {
		case errors.Is(err, ErrTenantExists):
			log.Info("seed tenant already exists", zap.String("slug", s.Restaurant.Slug))
		case err != nil:
			return created, fmt.Errorf("seed %s: %w", s.Restaurant.Slug, err)
		default:
			created++
		}
	}
	return created, nil
}
