package fileInfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world\n"), 0644))

	local, err := Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", local.Name)
	assert.Equal(t, path, local.Path)
	assert.Equal(t, int64(12), local.Size)
	assert.Contains(t, local.MimeType, "text/plain")
}

func TestStatDirectory(t *testing.T) {
	_, err := Stat(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestStatMissingFile(t *testing.T) {
	_, err := Stat(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestDetectTypeFallback(t *testing.T) {
	assert.Equal(t, "application/octet-stream", DetectType(filepath.Join(t.TempDir(), "nope")))
}
