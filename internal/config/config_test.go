package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every REPOSHARE_ env var that Load() reads.
var allConfigKeys = []string{
	"REPOSHARE_LISTEN_ADDR",
	"REPOSHARE_DB_PATH",
	"REPOSHARE_SECRET_KEY",
	"REPOSHARE_GITHUB_CLIENT_ID",
	"REPOSHARE_GITHUB_CLIENT_SECRET",
	"REPOSHARE_LINK_TTL",
}

// isolateConfigEnv saves and unsets all REPOSHARE_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

// setRequired sets the three env vars without which Load() fails.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("REPOSHARE_SECRET_KEY", "super-secret-passphrase")
	t.Setenv("REPOSHARE_GITHUB_CLIENT_ID", "Iv1.abc123")
	t.Setenv("REPOSHARE_GITHUB_CLIENT_SECRET", "client-secret")
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("REPOSHARE_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("REPOSHARE_DB_PATH", "/tmp/test.db")
	t.Setenv("REPOSHARE_LINK_TTL", "24h")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "super-secret-passphrase", cfg.SecretKey)
	assert.Equal(t, "Iv1.abc123", cfg.GitHubClientID)
	assert.Equal(t, "client-secret", cfg.GitHubClientSecret)
	assert.Equal(t, 24*time.Hour, cfg.LinkTTL)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "reposhare.db", cfg.DBPath)
	assert.Equal(t, 168*time.Hour, cfg.LinkTTL)
}

func TestLoad_MissingSecretKey(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REPOSHARE_GITHUB_CLIENT_ID", "Iv1.abc123")
	t.Setenv("REPOSHARE_GITHUB_CLIENT_SECRET", "client-secret")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPOSHARE_SECRET_KEY")
}

func TestLoad_MissingClientID(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REPOSHARE_SECRET_KEY", "super-secret-passphrase")
	t.Setenv("REPOSHARE_GITHUB_CLIENT_SECRET", "client-secret")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPOSHARE_GITHUB_CLIENT_ID")
}

func TestLoad_MissingClientSecret(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REPOSHARE_SECRET_KEY", "super-secret-passphrase")
	t.Setenv("REPOSHARE_GITHUB_CLIENT_ID", "Iv1.abc123")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPOSHARE_GITHUB_CLIENT_SECRET")
}

func TestLoad_InvalidLinkTTL(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("REPOSHARE_LINK_TTL", "not-a-duration")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPOSHARE_LINK_TTL")
}

func TestLoad_NegativeLinkTTL(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("REPOSHARE_LINK_TTL", "-1h")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPOSHARE_LINK_TTL")
}
