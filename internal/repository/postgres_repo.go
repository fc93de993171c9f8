package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

const pqUniqueViolation = "23505"

// PostgresRepo stores each tenant snapshot as one JSONB row guarded by a
// version column.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Load(ctx context.Context, slug string) (*models.TenantState, error) {
	query := `
		SELECT version, data
		FROM tenant_snapshots
		WHERE slug = $1
	`

	var (
		version int64
		data    []byte
	)
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&version, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("load snapshot %s: %w", slug, err)
	}

	var state models.TenantState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", slug, err)
	}
	state.Version = version
	return &state, nil
}

// Save locks the tenant row, checks the version the caller loaded and writes
// the new snapshot in one transaction.
func (r *PostgresRepo) Save(ctx context.Context, state *models.TenantState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	slug := state.Restaurant.Slug

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var current int64
	lock := `
		SELECT version
		FROM tenant_snapshots
		WHERE slug = $1
		FOR UPDATE
	`
	if err := tx.QueryRowContext(ctx, lock, slug).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTenantNotFound
		}
		return fmt.Errorf("lock snapshot %s: %w", slug, err)
	}
	if current != state.Version {
		return ErrVersionConflict
	}

	update := `
		UPDATE tenant_snapshots
		SET data = $2,
		    version = version + 1,
		    updated_at = NOW()
		WHERE slug = $1
	`
	if _, err := tx.ExecContext(ctx, update, slug, data); err != nil {
		return fmt.Errorf("update snapshot %s: %w", slug, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx commit: %w", err)
	}
	committed = true
	state.Version = current + 1
	return nil
}

func (r *PostgresRepo) Create(ctx context.Context, state *models.TenantState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	insert := `
		INSERT INTO tenant_snapshots (slug, version, data, created_at, updated_at)
		VALUES ($1, 1, $2, NOW(), NOW())
	`
	if _, err := r.db.ExecContext(ctx, insert, state.Restaurant.Slug, data); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrTenantExists
		}
		return fmt.Errorf("insert snapshot %s: %w", state.Restaurant.Slug, err)
	}
	state.Version = 1
	return nil
}
