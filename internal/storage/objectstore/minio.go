package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/linemk/storefront/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage - хранилище файлов (фото товаров)
type ObjectStorage interface {
	// Upload сохраняет объект и возвращает его ключ.
	Upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (string, error)
	// URL строит публичную ссылку на объект по ключу.
	URL(key string) string
}

type minioStorage struct {
	client    *minio.Client
	bucket    string
	location  string
	publicURL string
}

// NewMinioStorage подключается к S3-совместимому хранилищу и создаёт бакет при необходимости
func NewMinioStorage(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &minioStorage{
		client:    client,
		bucket:    cfg.Bucket,
		location:  cfg.Location,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// ObjectKey строит ключ вида <location>/<prefix>/<uuid><ext>; исходное имя файла не перезаписывается
func ObjectKey(location, prefix, filename string) string {
	return path.Join(location, prefix, uuid.NewString()+strings.ToLower(path.Ext(filename)))
}

func (s *minioStorage) Upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := ObjectKey(s.location, prefix, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return key, nil
}

func (s *minioStorage) URL(key string) string {
	return s.publicURL + "/" + strings.TrimLeft(key, "/")
}
