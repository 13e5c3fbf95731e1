package webserv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinRoot(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	assert.True(t, withinRoot(dir, f))
	assert.False(t, withinRoot(dir, filepath.Join(dir, "..", "escape.txt")))
}

func TestIsExistingDirectoryOS(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, isExistingDirectoryOS(dir))
	assert.False(t, isExistingDirectoryOS(filepath.Join(dir, "nope")))
}

func TestDefaultStaticFileHandlerServesFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(f, []byte("<html></html>"), 0o644))

	logger := newLogger()
	cache := newAssetCache(logger)
	h := newDefaultStaticFileHandler(cache)

	resp, err := h.ServeFile(f, dir, "GET", &Request{})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "<html></html>", string(resp.Body))
}

func TestDefaultStaticFileHandlerRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	f := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(f, []byte("shh"), 0o644))

	logger := newLogger()
	cache := newAssetCache(logger)
	h := newDefaultStaticFileHandler(cache)

	resp, err := h.ServeFile(f, dir, "GET", &Request{})
	require.NoError(t, err)
	assert.Equal(t, 404, resp.Status)
}

func TestDefaultStaticFileHandlerMissing404(t *testing.T) {
	dir := t.TempDir()
	logger := newLogger()
	cache := newAssetCache(logger)
	h := newDefaultStaticFileHandler(cache)

	resp, err := h.ServeFile(filepath.Join(dir, "missing.html"), dir, "GET", &Request{})
	require.NoError(t, err)
	assert.Equal(t, 404, resp.Status)
}
