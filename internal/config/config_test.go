package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{".pdf", ".epub"}, cfg.Documents.Extensions)
	assert.Equal(t, 1000, cfg.Search.Limit)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, filepath.Join(dir, "shelf.db"), cfg.Store.Path)
	assert.Equal(t, "/Android/", cfg.Volumes.PrivateMarker)
	assert.True(t, cfg.Volumes.System)
	assert.True(t, cfg.Permissions.StorageRead)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Trees)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: DEBUG
  format: json
documents:
  extensions: [".pdf", ".mobi"]
search:
  limit: 50
store:
  type: badger
volumes:
  system: false
  extra:
    - /media/sd/Android/data/shelf
trees:
  - authority: local
    type: dir
    options:
      root_id: primary
      path: /srv/books
  - authority: archive
    type: s3
    options:
      bucket: docs
      region: us-east-1
      endpoint: http://localhost:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{".pdf", ".mobi"}, cfg.Documents.Extensions)
	assert.Equal(t, 50, cfg.Search.Limit)
	assert.Equal(t, "badger", cfg.Store.Type)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "shelf.badger"), cfg.Store.Path)
	assert.False(t, cfg.Volumes.System)
	assert.Equal(t, []string{"/media/sd/Android/data/shelf"}, cfg.Volumes.Extra)

	require.Len(t, cfg.Trees, 2)
	assert.Equal(t, "local", cfg.Trees[0].Authority)
	assert.Equal(t, "dir", cfg.Trees[0].Type)

	var dirOpts DirTreeOptions
	require.NoError(t, DecodeOptions(cfg.Trees[0].Options, &dirOpts))
	assert.Equal(t, DirTreeOptions{RootID: "primary", Path: "/srv/books"}, dirOpts)
	assert.Equal(t, "docs", cfg.Trees[1].Options["bucket"])
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SHELF_SEARCH_LIMIT", "7")
	t.Setenv("SHELF_STORE_TYPE", "memory")
	t.Setenv("SHELF_PERMISSIONS_STORAGE_READ", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.Limit)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Empty(t, cfg.Store.Path)
	assert.False(t, cfg.Permissions.StorageRead)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := map[string]string{
		"store type":        "store:\n  type: etcd\n",
		"negative limit":    "search:\n  limit: -1\n",
		"no extensions":     "documents:\n  extensions: []\n",
		"log level":         "logging:\n  level: loud\n",
		"tree type":         "trees:\n  - authority: x\n    type: ftp\n",
		"tree authority":    "trees:\n  - authority: a/b\n    type: dir\n",
		"missing authority": "trees:\n  - type: dir\n",
		"duplicate authority": `trees:
  - authority: local
    type: dir
  - authority: local
    type: s3
`,
		"bad yaml": "search: [unclosed\n",
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestDecodeOptions(t *testing.T) {
	var out DirTreeOptions
	err := DecodeOptions(map[string]any{"root_id": "sd", "path": "/mnt/sd"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "sd", out.RootID)

	err = DecodeOptions(map[string]any{"root_id": "sd", "pth": "/typo"}, &out)
	assert.Error(t, err, "unknown keys are rejected")
}

func TestManager_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelf", "config.yaml")
	m := NewManager(path)
	require.NoError(t, m.Load())
	require.NoError(t, m.ParseError())

	_, err := os.Stat(path)
	require.NoError(t, err, "default config written")

	cfg := m.Get()
	assert.Equal(t, 1000, cfg.Search.Limit)

	// The written file loads back to the same values
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Documents, again.Documents)
	assert.Equal(t, cfg.Store, again.Store)
}

func TestManager_InvalidFallsBack(t *testing.T) {
	path := writeConfig(t, "store:\n  type: etcd\n")
	m := NewManager(path)
	require.NoError(t, m.Load())
	assert.Error(t, m.ParseError())
	assert.Equal(t, "sqlite", m.Get().Store.Type)
}

func TestGenerateConfig_Backup(t *testing.T) {
	path := writeConfig(t, "search:\n  limit: 3\n")

	backup, err := GenerateConfig(path)
	require.NoError(t, err)
	require.NotEmpty(t, backup)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Contains(t, string(data), "limit: 3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Search.Limit)
}
