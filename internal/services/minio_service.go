package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DocumentArchive stores rendered invoice documents in object storage.
type DocumentArchive interface {
	EnsureBucket(ctx context.Context) error
	Store(ctx context.Context, key string, content []byte, contentType string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

type minioArchive struct {
	client *minio.Client
	bucket string
}

// MinioOptions configures the archive client.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

func NewMinioArchive(opts MinioOptions) (DocumentArchive, error) {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}
	return &minioArchive{client: client, bucket: opts.Bucket}, nil
}

// ArchiveKey is the object key for an invoice document filename.
func ArchiveKey(filename string) string {
	return "invoices/" + filename
}

func (m *minioArchive) EnsureBucket(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.bucket, err)
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (m *minioArchive) Store(ctx context.Context, key string, content []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (m *minioArchive) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioArchive) Remove(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}
