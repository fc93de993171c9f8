package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPostgresConfig_Defaults(t *testing.T) {
	for _, k := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadPostgresConfig()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "postgres://postgres:@localhost:5432/delivery_orders?sslmode=disable", cfg.DSN())
}

func TestLoadPostgresConfig_InvalidPort(t *testing.T) {
	t.Setenv("DB_PORT", "five")
	_, err := LoadPostgresConfig()
	assert.Error(t, err)
}

func TestMigrationNames_Sorted(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_tenant_snapshots.sql", names[0])
	assert.IsIncreasing(t, names)
}
