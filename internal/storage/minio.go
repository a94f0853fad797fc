package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOArchive stores rendered agreement PDFs in object storage so the
// signed artifact survives independently of the database record.
type MinIOArchive struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchive creates the archive client and ensures the bucket exists.
func NewMinIOArchive(cfg *MinIOConfig) (*MinIOArchive, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOArchive{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

func objectKey(id string) string {
	return fmt.Sprintf("agreements/%s.pdf", id)
}

// StoreAgreementPDF uploads a rendered agreement under agreements/<id>.pdf.
func (s *MinIOArchive) StoreAgreementPDF(ctx context.Context, id string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(id), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	return err
}

// FetchAgreementPDF returns a reader over the archived PDF for an agreement.
func (s *MinIOArchive) FetchAgreementPDF(ctx context.Context, id string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// stat to surface not-found before the first read
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}
