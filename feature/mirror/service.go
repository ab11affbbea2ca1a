package mirror

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"bugsync/core/storage"
	"bugsync/feature/bug"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Report lists the object keys touched by a mirror run.
type Report struct {
	Uploaded []string          `json:"uploaded" yaml:"uploaded"`
	Skipped  []string          `json:"skipped" yaml:"skipped"`
	Removed  []string          `json:"removed" yaml:"removed"`
	Failed   map[string]string `json:"failed" yaml:"failed"`
}

// Service copies attachments into object storage.
type Service struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewService creates a new mirror service.
func NewService(client storage.Client, bucket string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, bucket: bucket, logger: logger}
}

// ObjectKey returns bugs/<bug id>/<attachment id>/<file name>.
func ObjectKey(att *bug.Attachment) (string, error) {
	id, ok := att.ID()
	if !ok {
		return "", fmt.Errorf("attachment has no id")
	}
	bugID, ok := att.BugID()
	if !ok {
		return "", fmt.Errorf("attachment %d has no bug id", id)
	}
	name := strings.ReplaceAll(att.String("file_name"), "/", "_")
	if name == "" {
		name = "data"
	}
	return fmt.Sprintf("%s%d/%s", bugPrefix(bugID), id, name), nil
}

func bugPrefix(bugID int64) string {
	return fmt.Sprintf("bugs/%d/", bugID)
}

// Mirror uploads every attachment not yet in the bucket and removes the
// copies of obsolete ones. A failing attachment is recorded in the report
// and does not stop the run.
func (s *Service) Mirror(ctx context.Context, atts []*bug.Attachment) (*Report, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	report := &Report{
		Uploaded: []string{},
		Skipped:  []string{},
		Removed:  []string{},
		Failed:   map[string]string{},
	}
	listed := make(map[int64]map[string]struct{})

	for _, att := range atts {
		key, err := ObjectKey(att)
		if err != nil {
			id, _ := att.ID()
			report.Failed[fmt.Sprintf("attachment %d", id)] = err.Error()
			continue
		}
		bugID, _ := att.BugID()
		existing, ok := listed[bugID]
		if !ok {
			existing, err = s.list(ctx, bugPrefix(bugID))
			if err != nil {
				report.Failed[key] = err.Error()
				continue
			}
			listed[bugID] = existing
		}
		_, mirrored := existing[key]

		switch {
		case att.Bool("is_obsolete"):
			if !mirrored {
				continue
			}
			if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
				report.Failed[key] = err.Error()
				continue
			}
			report.Removed = append(report.Removed, key)
		case mirrored, att.String("data") == "":
			// Attachments fetched without their data are left alone.
			report.Skipped = append(report.Skipped, key)
		default:
			if err := s.upload(ctx, key, att); err != nil {
				report.Failed[key] = err.Error()
				continue
			}
			report.Uploaded = append(report.Uploaded, key)
		}
	}

	s.logger.Info("Mirror finished",
		zap.Int("uploaded", len(report.Uploaded)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("removed", len(report.Removed)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Created bucket", zap.String("bucket", s.bucket))
	return nil
}

func (s *Service) list(ctx context.Context, prefix string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, obj.Err)
		}
		keys[obj.Key] = struct{}{}
	}
	return keys, nil
}

func (s *Service) upload(ctx context.Context, key string, att *bug.Attachment) error {
	data, err := base64.StdEncoding.DecodeString(att.String("data"))
	if err != nil {
		return fmt.Errorf("invalid attachment data: %w", err)
	}
	contentType := att.String("content_type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}
	s.logger.Debug("Uploaded attachment", zap.String("key", key), zap.Int("size", len(data)))
	return nil
}
