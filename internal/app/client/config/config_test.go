package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicsync/internal/domain/sync"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("SERVER_URL", "http://clinic.example")
	t.Setenv("RETRY_COUNT", "4")
	t.Setenv("PROBE_INTERVAL", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "clinic.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "secret.key"), cfg.SecretPath)
	assert.Equal(t, "http://clinic.example", cfg.ServerURL)
	assert.Equal(t, 4, cfg.Sync.RetryCount)
	assert.Equal(t, 3*time.Second, cfg.Sync.ProbeInterval)
	assert.Equal(t, DefaultSync().RequestTimeout, cfg.Sync.RequestTimeout)
	assert.Empty(t, cfg.ConfigFile)
	assert.False(t, cfg.Watch(func(sync.Credentials) {}))
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	file := filepath.Join(dir, "companion.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server_url: http://central.local
api_key: secret
branch_id: 3
branch_name: Северный
push_parallelism: 2
`), 0600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, file, cfg.ConfigFile)
	assert.Equal(t, sync.Credentials{
		ServerURL: "http://central.local", APIKey: "secret", BranchID: 3, BranchName: "Северный",
	}, cfg.Credentials())
	assert.Equal(t, 2, cfg.Sync.PushParallelism)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PUSH_PARALLELISM", "0")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
