package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 stores objects in an S3 bucket. The delete token is the object key.
type S3 struct {
	Client        *s3.Client
	Bucket        string
	PublicBaseURL string
}

// NewS3 initializes the S3 client
func NewS3(ctx context.Context, region, bucket, publicBaseURL string) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("AWS_BUCKET_NAME is not set")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	log.Println("S3 Client Initialized")
	return &S3{
		Client:        s3.NewFromConfig(cfg),
		Bucket:        bucket,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *S3) Upload(ctx context.Context, data []byte, opts UploadOptions) (*Object, error) {
	obj, contentType, key := describe(data, opts)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to S3: %w", err)
	}
	obj.Key = key
	obj.DeleteToken = key
	obj.URL = s.PublicBaseURL + "/" + key
	return &obj, nil
}

func (s *S3) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(token),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", token, err)
	}
	return nil
}
