// Package objectstore uploads image payloads and deletes them again by the
// credential returned at upload time.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raushankrgupta/fitly-tryon/config"
)

// UploadOptions describe where an upload lands.
type UploadOptions struct {
	Folder      string
	ContentType string
	// FileName overrides the generated object name.
	FileName string
}

// Object is the result of an upload.
type Object struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	DeleteToken string `json:"-"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Format      string `json:"format,omitempty"`
	Bytes       int    `json:"bytes"`
}

// Store is implemented by the S3, GCS, MinIO and local drivers.
type Store interface {
	Upload(ctx context.Context, data []byte, opts UploadOptions) (*Object, error)
	DeleteByToken(ctx context.Context, token string) error
}

// Open returns the object store selected by OBJECT_STORE. It returns nil, nil
// when no store is configured.
func Open(ctx context.Context) (Store, error) {
	var (
		store Store
		err   error
	)
	switch config.ObjectStore {
	case "":
		return nil, nil
	case "s3":
		var s *S3
		s, err = NewS3(ctx, config.AWSRegion, config.AWSBucketName, config.S3PublicBaseURL)
		store = s
	case "gcs":
		var g *GCS
		g, err = NewGCS(ctx, config.GCSBucket, config.FirebaseCredentials)
		store = g
	case "minio":
		var m *MinIO
		m, err = NewMinIO(config.MinioEndpoint, config.MinioAccessKey, config.MinioSecretKey, config.MinioBucket, config.MinioUseSSL)
		store = m
	case "local":
		var l *Local
		l, err = NewLocal(config.LocalObjectDir, strings.TrimRight(config.PublicBaseURL, "/")+"/files")
		store = l
	default:
		return nil, fmt.Errorf("unknown OBJECT_STORE %q", config.ObjectStore)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// UploadURI uploads the content behind a local path, file:// URI or http(s)
// URL.
func UploadURI(ctx context.Context, store Store, uri string, opts UploadOptions) (*Object, error) {
	data, contentType, err := readURI(ctx, uri)
	if err != nil {
		return nil, err
	}
	if opts.ContentType == "" {
		opts.ContentType = contentType
	}
	return store.Upload(ctx, data, opts)
}

func readURI(ctx context.Context, uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		data, err := os.ReadFile(strings.TrimPrefix(uri, "file://"))
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", uri, err)
		}
		return data, "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, "", err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download %s, status: %d", uri, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// describe fills the image metadata of an upload. Payloads that are not a
// decodable image keep zero dimensions.
func describe(data []byte, opts UploadOptions) (obj Object, contentType, key string) {
	obj.Bytes = len(data)
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		obj.Width, obj.Height, obj.Format = cfg.Width, cfg.Height, format
	}

	contentType = opts.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	name := opts.FileName
	if name == "" {
		ext := obj.Format
		if ext == "jpeg" {
			ext = "jpg"
		}
		if ext == "" {
			ext = "bin"
		}
		name = fmt.Sprintf("%d_%s.%s", time.Now().UnixMilli(), uuid.New().String()[:8], ext)
	}
	key = path.Join(strings.Trim(opts.Folder, "/"), name)
	return obj, contentType, key
}
