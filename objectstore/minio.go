package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIO struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

func NewMinIO(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIO, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinIO{client: client, bucket: bucket, endpoint: endpoint, useSSL: useSSL}, nil
}

func (m *MinIO) Upload(ctx context.Context, data []byte, opts UploadOptions) (*Object, error) {
	obj, contentType, key := describe(data, opts)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Printf("minio upload of %s to %s failed: %v", key, m.bucket, err)
		return nil, err
	}

	scheme := "http"
	if m.useSSL {
		scheme = "https"
	}
	obj.Key = key
	obj.DeleteToken = key
	obj.URL = fmt.Sprintf("%s://%s/%s/%s", scheme, m.endpoint, m.bucket, key)
	return &obj, nil
}

func (m *MinIO) DeleteByToken(ctx context.Context, token string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, token, minio.RemoveObjectOptions{}); err != nil {
		log.Printf("minio delete of %s from %s failed: %v", token, m.bucket, err)
		return err
	}
	return nil
}
