package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessExpiry)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.Origins())
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("STORE_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.foxops.io, https://admin.foxops.io,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 2*time.Second, cfg.Store.Timeout)
	assert.Equal(t, []string{"https://app.foxops.io", "https://admin.foxops.io"}, cfg.CORS.Origins())
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestSplitString(t *testing.T) {
	assert.Equal(t, []string{}, splitString(""))
	assert.Equal(t, []string{"a", "b"}, splitString(" a ,, b "))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
