package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores objects in a Cloud Storage bucket with public read access
// granted at the bucket level.
type GCS struct {
	Client        *storage.Client
	Bucket        string
	PublicBaseURL string
}

func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	log.Printf("GCS Client Initialized (bucket: %s)", bucket)
	return &GCS{Client: client, Bucket: bucket, PublicBaseURL: "https://storage.googleapis.com"}, nil
}

func (g *GCS) Upload(ctx context.Context, data []byte, opts UploadOptions) (*Object, error) {
	obj, contentType, key := describe(data, opts)

	w := g.Client.Bucket(g.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = 0
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to upload %s to GCS: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to upload %s to GCS: %w", key, err)
	}

	obj.Key = key
	obj.DeleteToken = key
	obj.URL = fmt.Sprintf("%s/%s/%s", g.PublicBaseURL, g.Bucket, key)
	return &obj, nil
}

func (g *GCS) DeleteByToken(ctx context.Context, token string) error {
	err := g.Client.Bucket(g.Bucket).Object(token).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s from GCS: %w", token, err)
	}
	return nil
}
