// Package imagestore хранит изображения пользователей и объявлений в S3-совместимом хранилище.
package imagestore

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/classifieds/internal/config"
	"github.com/magabrotheeeer/classifieds/internal/models"
)

// Каталоги в бакете.
const (
	FolderAvatars  = "avatars"
	FolderListings = "listings"
)

// ObjectAPI операции S3, которые использует хранилище.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store загружает и удаляет изображения в одном каталоге бакета.
type Store struct {
	client    ObjectAPI
	bucket    string
	publicURL string
	folder    string
	now       func() time.Time
	newID     func() string
}

// NewClient создает S3-клиент по настройкам из конфига.
func NewClient(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	const op = "imagestore.NewClient"
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			// MinIO не поддерживает virtual-hosted адресацию
			o.UsePathStyle = true
		}
	}), nil
}

// New создает хранилище поверх клиента S3.
func New(client ObjectAPI, bucket, publicURL string) *Store {
	return &Store{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		folder:    FolderListings,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// WithFolder возвращает копию хранилища, пишущую в другой каталог.
func (s *Store) WithFolder(folder string) *Store {
	c := *s
	c.folder = folder
	return &c
}

// Upload загружает локальный файл и возвращает идентификатор и публичный адрес.
func (s *Store) Upload(ctx context.Context, localPath string) (models.Image, error) {
	const op = "imagestore.Upload"

	f, err := os.Open(localPath)
	if err != nil {
		return models.Image{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = f.Close()
	}()

	ext := strings.ToLower(filepath.Ext(localPath))
	now := s.now().UTC()
	key := path.Join(s.folder, now.Format("2006"), now.Format("01"), s.newID()+ext)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err = s.client.PutObject(ctx, input); err != nil {
		return models.Image{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Image{
		ID:  key,
		URL: s.publicURL + "/" + key,
	}, nil
}

// Delete удаляет изображение по идентификатору.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "imagestore.Delete"
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
