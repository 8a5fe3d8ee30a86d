package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.True(t, cfg.Changes.SelectNewFiles)
	assert.Equal(t, DefaultPageSize, cfg.History.PageSize)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoadFile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_dir = "/tmp/gitdesk-data"

[changes]
select_new_files = false

[history]
page_size = 0

[ssh]
insecure_ignore_host_key = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/gitdesk-data", cfg.DataDir)
	assert.Equal(t, filepath.Join("/tmp/gitdesk-data", "gitdesk.db"), cfg.DatabasePath())
	assert.False(t, cfg.Changes.SelectNewFiles)
	assert.Equal(t, DefaultPageSize, cfg.History.PageSize, "non-positive page size falls back")
	assert.True(t, cfg.SSH.InsecureIgnoreHostKey)
}

func TestSave_RoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv("GITDESK_CONFIG", path)

	cfg := Default()
	cfg.Server.Port = 9001
	cfg.Server.TokenHash = "$argon2id$placeholder"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9001, loaded.Server.Port)
	assert.Equal(t, "$argon2id$placeholder", loaded.Server.TokenHash)
	assert.Equal(t, "127.0.0.1:9001", loaded.ServerAddr())
}
