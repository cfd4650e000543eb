// Package localstore writes try-on results to app-private files and exports
// them to the device gallery or a user-chosen folder.
package localstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/raushankrgupta/fitly-tryon/errs"
)

const fileScheme = "file://"

// Files is the app-private document directory.
type Files struct {
	Root string
}

func NewFiles(root string) (*Files, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", abs, err)
	}
	return &Files{Root: abs}, nil
}

// WriteBase64 decodes b64 into Root/dir/name and returns its file:// URI.
func (f *Files) WriteBase64(dir, name, b64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(StripDataURL(b64))
	if err != nil {
		return "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	target := filepath.Join(f.Root, filepath.Clean(dir), filepath.Base(name))
	if !f.contains(target) {
		return "", fmt.Errorf("invalid file location %s/%s", dir, name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return fileScheme + target, nil
}

func (f *Files) Read(uri string) ([]byte, error) {
	p, err := f.resolve(uri)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Delete removes the file; a missing file is not an error.
func (f *Files) Delete(uri string) error {
	p, err := f.resolve(uri)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (f *Files) resolve(uri string) (string, error) {
	p := filepath.Clean(strings.TrimPrefix(uri, fileScheme))
	if !f.contains(p) {
		return "", fmt.Errorf("%s is outside the app directory", uri)
	}
	return p, nil
}

func (f *Files) contains(p string) bool {
	rel, err := filepath.Rel(f.Root, p)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

// StripDataURL drops a "data:image/png;base64," prefix.
func StripDataURL(b64 string) string {
	if strings.HasPrefix(b64, "data:") {
		if i := strings.Index(b64, ","); i >= 0 {
			return b64[i+1:]
		}
	}
	return b64
}

// Gallery is the device photo library.
type Gallery interface {
	// Save copies the local file into the library. It returns
	// errs.ErrPermissionDenied when access was not granted.
	Save(ctx context.Context, localURI string) (string, error)
}

// FolderPicker exports into a folder the user chose.
type FolderPicker interface {
	// SaveTo returns errs.ErrPermissionDenied when no folder was granted.
	SaveTo(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

// DirGallery is a Gallery backed by a directory. An empty Dir means access
// was denied.
type DirGallery struct {
	Dir   string
	Files *Files
}

func (g *DirGallery) Save(ctx context.Context, localURI string) (string, error) {
	if g.Dir == "" {
		return "", errs.ErrPermissionDenied
	}
	data, err := g.Files.Read(localURI)
	if err != nil {
		return "", err
	}
	return copyInto(g.Dir, filepath.Base(strings.TrimPrefix(localURI, fileScheme)), data)
}

// DirFolderPicker is a FolderPicker whose chosen folder is Dir. An empty
// Dir means the user did not grant a folder.
type DirFolderPicker struct {
	Dir string
}

func (p *DirFolderPicker) SaveTo(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	if p.Dir == "" {
		return "", errs.ErrPermissionDenied
	}
	return copyInto(p.Dir, name, data)
}

func copyInto(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	target := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return fileScheme + target, nil
}
