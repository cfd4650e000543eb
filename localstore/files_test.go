package localstore

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-tryon/errs"
)

func TestWriteReadDelete(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	b64 := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	uri, err := files.WriteBase64("wardrobe", "tryon_1.png", "data:image/png;base64,"+b64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"))
	assert.True(t, strings.HasSuffix(uri, filepath.Join("wardrobe", "tryon_1.png")))

	data, err := files.Read(uri)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, files.Delete(uri))
	require.NoError(t, files.Delete(uri))
	_, err = files.Read(uri)
	assert.Error(t, err)
}

func TestFilesStayInsideRoot(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	_, err = files.Read("file:///etc/passwd")
	assert.Error(t, err)
	_, err = files.WriteBase64("../..", "x.png", base64.StdEncoding.EncodeToString([]byte("x")))
	assert.Error(t, err)
}

func TestWriteRejectsBadBase64(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)
	_, err = files.WriteBase64("wardrobe", "x.png", "not base64!")
	assert.Error(t, err)
}

func TestGalleryWithoutAccess(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)
	g := &DirGallery{Files: files}

	_, err = g.Save(context.Background(), "file://whatever")
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestGallerySave(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)
	uri, err := files.WriteBase64("wardrobe", "r.png", base64.StdEncoding.EncodeToString([]byte("img")))
	require.NoError(t, err)

	dir := t.TempDir()
	asset, err := (&DirGallery{Dir: dir, Files: files}).Save(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(dir, "r.png"), asset)
	assert.FileExists(t, filepath.Join(dir, "r.png"))
}

func TestFolderPicker(t *testing.T) {
	_, err := (&DirFolderPicker{}).SaveTo(context.Background(), "r.png", "image/png", []byte("img"))
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)

	dir := t.TempDir()
	_, err = (&DirFolderPicker{Dir: dir}).SaveTo(context.Background(), "r.png", "image/png", []byte("img"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "r.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))
}
