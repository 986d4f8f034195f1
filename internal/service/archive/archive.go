// Package archive keeps summaries of reminder runs in S3 compatible storage
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
)

const keyPrefix = "reminder-runs"

type ConnectionInfo struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

type objectPutter interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Archive struct {
	client objectPutter
	bucket string
	logger logger.Logger
}

// Connect creates S3 client and makes sure the bucket exists
func Connect(ctx context.Context, info ConnectionInfo, l logger.Logger) (*Archive, error) {
	client, err := minio.New(info.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(info.AccessKey, info.SecretKey, ""),
		Secure: info.UseSSL,
		Region: info.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating s3 client. Err: %w", err)
	}

	exists, err := client.BucketExists(ctx, info.Bucket)
	if err != nil {
		return nil, fmt.Errorf("error while checking bucket %q. Err: %w", info.Bucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, info.Bucket, minio.MakeBucketOptions{Region: info.Region})
		if err != nil {
			return nil, fmt.Errorf("error while creating bucket %q. Err: %w", info.Bucket, err)
		}
		l.Info("S3 bucket created", "bucket", info.Bucket)
	}

	return New(client, info.Bucket, l), nil
}

func New(client objectPutter, bucket string, l logger.Logger) *Archive {
	return &Archive{client: client, bucket: bucket, logger: l}
}

// Save stores summary as JSON object under ObjectKey
func (a *Archive) Save(ctx context.Context, summary models.ReminderSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("can't encode run summary. Err: %w", err)
	}

	key := ObjectKey(summary)
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("can't upload run summary %s. Err: %w", key, err)
	}

	a.logger.Debug("Run summary archived", "bucket", a.bucket, "key", key, "size", info.Size)
	return nil
}

// ObjectKey is "reminder-runs/YYYY/MM/DD/<runID>.json" with the civil date of the run window
func ObjectKey(summary models.ReminderSummary) string {
	return fmt.Sprintf("%s/%s/%s.json", keyPrefix, summary.Window.Start.Format("2006/01/02"), summary.RunID)
}
