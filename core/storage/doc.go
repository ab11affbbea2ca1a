// Package storage wraps the MinIO Go client behind the small interface the
// attachment mirror uses. It works against AWS S3 and self-hosted MinIO.
//
// # Operations
//
//   - BucketExists / MakeBucket: ensure the mirror bucket.
//   - PutObject: upload an attachment payload.
//   - ListObjects: find what is already mirrored for a bug.
//   - RemoveObject: drop obsolete attachments.
//
// Tests use the testify mock in core/storage/mocks.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
package storage
