package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_HOST", "")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 60, cfg.JWTAccessTTLMinutes)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "15")
	t.Setenv("REDIS_PORT", "6380")

	cfg := Load()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 15, cfg.JWTAccessTTLMinutes)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr())
	assert.Contains(t, cfg.DSN(), "@tcp(db.internal:")
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "soon")

	cfg := Load()

	assert.Equal(t, 60, cfg.JWTAccessTTLMinutes)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_HOST", "override-host")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("db_driver: postgres\ndb_host: yaml-host\ndb_name: collab_test\njwt_access_ttl_minutes: 30\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "override-host", cfg.DBHost)
	assert.Equal(t, "collab_test", cfg.DBName)
	assert.Equal(t, 30, cfg.JWTAccessTTLMinutes)
	assert.Contains(t, cfg.DSN(), "dbname=collab_test")
}

func TestLoadFile_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_driver: oracle\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
