package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T) *App {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("data_dir = %q\nclone_dir = %q\n", filepath.Join(dir, "data"), dir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	t.Setenv("GITDESK_CONFIG", cfgPath)

	app, err := injectApp(false)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestInjectApp(t *testing.T) {
	app := testApp(t)

	require.NotNil(t, app.Engine)
	assert.FileExists(t, app.Config.DatabasePath())
	assert.Equal(t, 50, app.Config.History.PageSize)
}

func TestInjectApp_BadKeyring(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("data_dir = %q\n[signing]\nkeyring = %q\n", dir, filepath.Join(dir, "missing.asc"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	t.Setenv("GITDESK_CONFIG", cfgPath)

	_, err := injectApp(false)
	assert.ErrorContains(t, err, "load signing keyring")
}

func TestSelectOnly(t *testing.T) {
	app := testApp(t)

	repoDir := t.TempDir()
	_, err := git.PlainInit(repoDir, false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, "docs"), 0o755))
	for _, name := range []string{"a.txt", "b.txt", "docs/x.md", "docs/y.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(repoDir, name), []byte(name), 0o644))
	}
	_, err = app.Engine.Open(repoDir)
	require.NoError(t, err)

	require.NoError(t, selectOnly(app.Engine, []string{"./a.txt", "docs/"}))
	selected, total := app.Engine.ChangeCounts()
	assert.Equal(t, 3, selected)
	assert.Equal(t, 4, total)

	assert.Error(t, selectOnly(app.Engine, []string{"missing.txt"}))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".ssh/id_ed25519"), expandHome("~/.ssh/id_ed25519"))
	assert.Equal(t, "/abs/key", expandHome("/abs/key"))
	assert.Equal(t, "~user/key", expandHome("~user/key"))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}
