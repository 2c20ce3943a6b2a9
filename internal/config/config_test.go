package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "data/stanza.db", cfg.SQLitePath)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, 30, cfg.HealthIntervalSeconds)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STANZA_HTTP_PORT", "9999")
	t.Setenv("STANZA_DB_DRIVER", "postgres")
	t.Setenv("STANZA_POSTGRES_DSN", "postgres://u:p@localhost/db")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, ":9999", cfg.HTTPAddr())
}

func TestValidate(t *testing.T) {
	t.Run("postgres requires dsn", func(t *testing.T) {
		cfg := Config{DBDriver: "postgres", HTTPPort: 8080}
		assert.Error(t, cfg.Validate())
	})
	t.Run("sqlite requires path", func(t *testing.T) {
		cfg := Config{DBDriver: "sqlite", HTTPPort: 8080}
		assert.Error(t, cfg.Validate())
	})
	t.Run("unknown driver", func(t *testing.T) {
		cfg := Config{DBDriver: "oracle", HTTPPort: 8080}
		assert.Error(t, cfg.Validate())
	})
	t.Run("bad port", func(t *testing.T) {
		cfg := Config{DBDriver: "sqlite", SQLitePath: "x.db", HTTPPort: 0}
		assert.Error(t, cfg.Validate())
	})
	t.Run("ok", func(t *testing.T) {
		cfg := Config{DBDriver: "sqlite", SQLitePath: "x.db", HTTPPort: 8080}
		assert.NoError(t, cfg.Validate())
	})
}
