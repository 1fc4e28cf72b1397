package dilauncher

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/carbridge/pkg/log"
	"github.com/autopeer-io/carbridge/pkg/options"
)

const contentTypeJSON = "application/json"

// S3Exporter uploads the automation file to an S3-compatible bucket.
type S3Exporter struct {
	client     *minio.Client
	bucketName string
	region     string
	objectKey  string
}

var _ Exporter = (*S3Exporter)(nil)

// NewS3Exporter creates an exporter for the bucket and key in opts.
func NewS3Exporter(opts *options.S3Options) (*S3Exporter, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &S3Exporter{
		client:     client,
		bucketName: opts.BucketName,
		region:     opts.Region,
		objectKey:  opts.ObjectKey,
	}, nil
}

// CheckBucket creates the bucket when it does not exist yet.
func (e *S3Exporter) CheckBucket(ctx context.Context) error {
	exists, err := e.client.BucketExists(ctx, e.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", e.bucketName)
		if err := e.client.MakeBucket(ctx, e.bucketName, minio.MakeBucketOptions{Region: e.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (e *S3Exporter) Export(ctx context.Context, data []byte) (string, error) {
	if err := e.CheckBucket(ctx); err != nil {
		return "", err
	}

	info, err := e.client.PutObject(ctx, e.bucketName, e.objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeJSON})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", e.objectKey, err)
	}
	return fmt.Sprintf("s3://%s/%s", info.Bucket, info.Key), nil
}
