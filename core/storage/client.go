package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"bugsync/core/utils"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client is the subset of the minio API used to mirror attachments.
type Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	// ListObjects streams the objects under opts.Prefix. Each item may carry
	// a listing error in Err.
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// NewClient creates a minio client for cfg. No request is made until the
// first call, so an unreachable endpoint only shows up there.
func NewClient(cfg Config) (Client, error) {
	host, secure := cfg.host()
	client, err := minio.New(host, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    secure,
		Region:    cfg.Region,
		Transport: utils.NewTransport(utils.Seconds(cfg.TimeoutSeconds, 30*time.Second)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client for %q: %w", cfg.Endpoint, err)
	}
	return client, nil
}
