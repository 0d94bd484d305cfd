package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE", "")
	t.Setenv("CATALOG_SOURCE", "")
	t.Setenv("CATALOG_PRICE_CEILING", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, CatalogSourceFile, cfg.Catalog.Source)
	assert.Equal(t, int64(500), cfg.Catalog.PriceCeiling)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.False(t, cfg.NeedsDB())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE", "Postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("CATALOG_PRICE_CEILING", "-10")
	t.Setenv("TOKEN", "bot-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, int64(0), cfg.Catalog.PriceCeiling, "negative ceiling is clamped")
	assert.Equal(t, "bot-token", cfg.Telegram.Token)
	assert.True(t, cfg.NeedsDB())
	assert.Equal(t, "postgres://postgres:@db.internal:6543/canteen", cfg.DB.URL())
}

func TestLoadRejectsUnknownStorage(t *testing.T) {
	t.Setenv("STORAGE", "redis")

	_, err := Load()
	assert.Error(t, err)
}
