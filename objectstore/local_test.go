package objectstore

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestLocalUploadDescribesImage(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://localhost:8080/files/")
	require.NoError(t, err)

	obj, err := store.Upload(context.Background(), pngBytes(t, 4, 3), UploadOptions{Folder: "tryon/u1"})
	require.NoError(t, err)

	assert.Equal(t, 4, obj.Width)
	assert.Equal(t, 3, obj.Height)
	assert.Equal(t, "png", obj.Format)
	assert.True(t, strings.HasPrefix(obj.Key, "tryon/u1/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".png"))
	assert.Equal(t, "http://localhost:8080/files/"+obj.Key, obj.URL)
	assert.Equal(t, obj.Key, obj.DeleteToken)
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(obj.Key)))
}

func TestLocalUploadNonImage(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "http://x/files")
	require.NoError(t, err)

	obj, err := store.Upload(context.Background(), []byte("hello"), UploadOptions{FileName: "note.txt"})
	require.NoError(t, err)
	assert.Zero(t, obj.Width)
	assert.Zero(t, obj.Height)
	assert.Equal(t, "note.txt", obj.Key)
	assert.Equal(t, 5, obj.Bytes)
}

func TestLocalDeleteByToken(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://x/files")
	require.NoError(t, err)

	obj, err := store.Upload(context.Background(), pngBytes(t, 1, 1), UploadOptions{Folder: "catalog"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByToken(context.Background(), obj.DeleteToken))
	assert.NoFileExists(t, filepath.Join(dir, filepath.FromSlash(obj.Key)))

	// deleting twice is fine
	require.NoError(t, store.DeleteByToken(context.Background(), obj.DeleteToken))
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "http://x/files")
	require.NoError(t, err)

	assert.Error(t, store.DeleteByToken(context.Background(), "../outside.png"))
	_, err = store.Upload(context.Background(), []byte("x"), UploadOptions{FileName: "../../etc/passwd"})
	assert.Error(t, err)
}

func TestUploadURI(t *testing.T) {
	payload := pngBytes(t, 2, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	store, err := NewLocal(t.TempDir(), "http://x/files")
	require.NoError(t, err)

	obj, err := UploadURI(context.Background(), store, srv.URL+"/shirt.png", UploadOptions{Folder: "garments"})
	require.NoError(t, err)
	assert.Equal(t, 2, obj.Width)

	file := filepath.Join(t.TempDir(), "local.png")
	require.NoError(t, os.WriteFile(file, payload, 0644))
	obj, err = UploadURI(context.Background(), store, "file://"+file, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, len(payload), obj.Bytes)
}

func TestUploadURIFailedDownload(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	store, err := NewLocal(t.TempDir(), "http://x/files")
	require.NoError(t, err)

	_, err = UploadURI(context.Background(), store, srv.URL+"/missing.png", UploadOptions{})
	assert.Error(t, err)
}
