package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumukhChakkirala/chatApp/internal/config"
)

func TestUploadWritesFileAndBuildsURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(&config.BlobConfig{Dir: dir})
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "photo.png", "image/png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/photo.png", url)

	content, err := os.ReadFile(filepath.Join(dir, "photo.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), content)
}

func TestUploadStripsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(&config.BlobConfig{Dir: dir})
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "../../etc/passwd", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/passwd", url)

	_, err = os.Stat(filepath.Join(dir, "passwd"))
	assert.NoError(t, err)
}

func TestUploadHonorsBaseURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(&config.BlobConfig{Dir: dir, BaseURL: "https://cdn.example.com"})
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "a.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/a.txt", url)
}
