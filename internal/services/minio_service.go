package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"medassist/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

type MinioService interface {
	UploadImage(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error
	GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error)
	DeleteImage(ctx context.Context, bucketName, objectName string) error
	EnsureBucketExists(ctx context.Context, bucketName string) error
	Ping(ctx context.Context) error
}

type minioClient struct {
	client *minio.Client
}

func NewMinioService(endpoint, accessKey, secretKey string, useSSL bool) (MinioService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioClient{client: client}, nil
}

func (m *minioClient) UploadImage(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.PutObject(ctx, bucketName, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioClient) GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, bucketName, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioClient) DeleteImage(ctx context.Context, bucketName, objectName string) error {
	return m.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{})
}

func (m *minioClient) EnsureBucketExists(ctx context.Context, bucketName string) error {
	found, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
	}
	return nil
}

func (m *minioClient) Ping(ctx context.Context) error {
	_, err := m.client.ListBuckets(ctx)
	return err
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageUpload is an uploaded file as received by a handler.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// objectKey builds "<owner>/<uuid><ext>" and rejects unsupported content types.
func (u *ImageUpload) objectKey(owner uuid.UUID) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(u.ContentType, ";")[0]))
	ext, ok := allowedImageTypes[ct]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", u.ContentType)
	}
	return fmt.Sprintf("%s/%s%s", owner.String(), uuid.NewString(), ext), nil
}

// ImageResolver turns stored object keys into presigned URLs. A nil
// MinioService leaves URLs empty.
type ImageResolver struct {
	minio          MinioService
	medicineBucket string
	pharmacyBucket string
	expiry         time.Duration
}

func NewImageResolver(minio MinioService, medicineBucket, pharmacyBucket string, expiry time.Duration) *ImageResolver {
	return &ImageResolver{
		minio:          minio,
		medicineBucket: medicineBucket,
		pharmacyBucket: pharmacyBucket,
		expiry:         expiry,
	}
}

func (r *ImageResolver) Medicine(ctx context.Context, m *models.Medicine) {
	if r == nil || r.minio == nil || m == nil || m.ImageKey == nil || *m.ImageKey == "" {
		return
	}
	url, err := r.minio.GetPresignedURL(ctx, r.medicineBucket, *m.ImageKey, r.expiry)
	if err != nil {
		log.Warn().Err(err).Str("medicine_id", m.ID.String()).Msg("Failed to presign medicine image")
		return
	}
	m.ImageURL = url
}

func (r *ImageResolver) Pharmacy(ctx context.Context, p *models.Pharmacy) {
	p.Images = []string{}
	if r == nil || r.minio == nil {
		return
	}
	for _, key := range p.ImageKeys {
		url, err := r.minio.GetPresignedURL(ctx, r.pharmacyBucket, key, r.expiry)
		if err != nil {
			log.Warn().Err(err).Str("pharmacy_id", p.ID.String()).Msg("Failed to presign pharmacy image")
			continue
		}
		p.Images = append(p.Images, url)
	}
}
