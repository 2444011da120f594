package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// clearEnv hides any registry variables set in the surrounding environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STORE_DRIVER", "DATABASE_URL", "REDIS_ADDR", "REDIS_PREFIX", "SQLITE_PATH",
		"AUTH_AUDIENCE", "AUTH_LEEWAY", "REINDEX_ON_TRANSFER", "LOG_DEVELOPMENT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.False(t, cfg.Registry.ReindexOnTransfer)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  shutdown_timeout: 3s
store:
  driver: sqlite
  sqlite_path: /tmp/tasks.db
auth:
  audience: from-file
registry:
  reindex_on_transfer: true
`)
	clearEnv(t)
	t.Setenv("AUTH_AUDIENCE", "from-env")
	t.Setenv("AUTH_LEEWAY", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout, "unset keys keep defaults")
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/tasks.db", cfg.Store.SQLitePath)
	assert.Equal(t, "from-env", cfg.Auth.Audience)
	assert.Equal(t, 30*time.Second, cfg.Auth.Leeway)
	assert.True(t, cfg.Registry.ReindexOnTransfer)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		env  map[string]string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yml") },
		},
		{
			name: "broken yaml",
			path: func(t *testing.T) string { return writeConfig(t, "server: [") },
		},
		{
			name: "unknown driver",
			path: func(t *testing.T) string { return "" },
			env:  map[string]string{"STORE_DRIVER": "mongo"},
		},
		{
			name: "bad bool",
			path: func(t *testing.T) string { return "" },
			env:  map[string]string{"REINDEX_ON_TRANSFER": "maybe"},
		},
		{
			name: "bad duration",
			path: func(t *testing.T) string { return "" },
			env:  map[string]string{"AUTH_LEEWAY": "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.path(t))
			assert.Error(t, err)
		})
	}
}
