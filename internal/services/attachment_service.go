package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AttachmentService stores issuance documents (delivery notes, photos of
// picked stock) in object storage, keyed per tenant and issuance.
type AttachmentService interface {
	Upload(ctx context.Context, tenantID, issuanceID uuid.UUID, name, contentType string, reader io.Reader, size int64) error
	GetPresignedURL(tenantID, issuanceID uuid.UUID, name string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, tenantID, issuanceID uuid.UUID, name string) error
	EnsureBucketExists(ctx context.Context) error
}

type minioAttachmentService struct {
	client *minio.Client
	bucket string
}

func NewAttachmentService(endpoint, accessKey, secretKey, bucket string, useSSL bool) (AttachmentService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioAttachmentService{client: client, bucket: bucket}, nil
}

func objectName(tenantID, issuanceID uuid.UUID, name string) string {
	return fmt.Sprintf("%s/issuances/%s/%s", tenantID.String(), issuanceID.String(), name)
}

func (m *minioAttachmentService) Upload(ctx context.Context, tenantID, issuanceID uuid.UUID, name, contentType string, reader io.Reader, size int64) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.PutObject(ctx, m.bucket, objectName(tenantID, issuanceID, name), reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioAttachmentService) GetPresignedURL(tenantID, issuanceID uuid.UUID, name string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(context.Background(), m.bucket, objectName(tenantID, issuanceID, name), expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioAttachmentService) Delete(ctx context.Context, tenantID, issuanceID uuid.UUID, name string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectName(tenantID, issuanceID, name), minio.RemoveObjectOptions{})
}

func (m *minioAttachmentService) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
