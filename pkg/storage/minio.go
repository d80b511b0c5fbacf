// Package storage uploads files to an S3-compatible bucket.
package storage

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"RapidSafe/pkg/util"
)

// Store is an object store keyed by path-like keys.
type Store interface {
	Write(ctx context.Context, key string, r io.Reader, size int64) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type MinioStore struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET"`
	UseSSL    bool   `env:"MINIO_USE_SSL"`
	Prefix    string `env:"MINIO_PREFIX"` // 对象键前缀，可选

	cli *minio.Client
}

// NewMinioStoreFromEnv returns nil when MINIO_ENDPOINT is not set.
func NewMinioStoreFromEnv() (*MinioStore, error) {
	endpoint := util.GetEnv("MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}
	return NewMinioStore(MinioStore{
		Endpoint:  endpoint,
		AccessKey: util.GetEnv("MINIO_ACCESS_KEY"),
		SecretKey: util.GetEnv("MINIO_SECRET_KEY"),
		Bucket:    util.GetEnvDefault("MINIO_BUCKET", "rapidsafe-backups"),
		UseSSL:    util.GetBoolEnv("MINIO_USE_SSL"),
		Prefix:    util.GetEnv("MINIO_PREFIX"),
	})
}

func NewMinioStore(cfg MinioStore) (*MinioStore, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	cfg.cli = cli
	return &cfg, nil
}

func (m *MinioStore) key(k string) string {
	if m.Prefix == "" {
		return k
	}
	return strings.TrimRight(m.Prefix, "/") + "/" + strings.TrimLeft(k, "/")
}

func (m *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := m.cli.BucketExists(ctx, m.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return m.cli.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (m *MinioStore) Write(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := m.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := m.cli.PutObject(ctx, m.Bucket, m.key(key), r, size, minio.PutObjectOptions{ContentType: "application/octet-stream"})
	return err
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	return m.cli.RemoveObject(ctx, m.Bucket, m.key(key), minio.RemoveObjectOptions{})
}

func (m *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.cli.StatObject(ctx, m.Bucket, m.key(key), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
