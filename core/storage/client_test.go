package storage_test

import (
	"context"
	"testing"

	"bugsync/core/storage"
	"bugsync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Client = (*mocks.Client)(nil)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{
			name: "plain endpoint",
			cfg:  storage.Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "attachments"},
		},
		{
			name: "http scheme is stripped",
			cfg:  storage.Config{Endpoint: "http://localhost:9000", AccessKey: "k", SecretKey: "s"},
		},
		{
			name: "https with region and timeout",
			cfg: storage.Config{
				Endpoint:       "https://s3.amazonaws.com",
				AccessKey:      "k",
				SecretKey:      "s",
				UseSSL:         true,
				Region:         "eu-west-1",
				TimeoutSeconds: 5,
			},
		},
		{
			name:    "empty endpoint",
			cfg:     storage.Config{AccessKey: "k", SecretKey: "s"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := storage.NewClient(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestMockObjects(t *testing.T) {
	m := new(mocks.Client)
	m.On("ListObjects", context.Background(), "attachments", minio.ListObjectsOptions{Prefix: "bugs/1/", Recursive: true}).
		Return(mocks.Objects(minio.ObjectInfo{Key: "bugs/1/10/log.txt"}, minio.ObjectInfo{Key: "bugs/1/11/trace.txt"}))

	var keys []string
	for obj := range m.ListObjects(context.Background(), "attachments", minio.ListObjectsOptions{Prefix: "bugs/1/", Recursive: true}) {
		require.NoError(t, obj.Err)
		keys = append(keys, obj.Key)
	}

	assert.Equal(t, []string{"bugs/1/10/log.txt", "bugs/1/11/trace.txt"}, keys)
	m.AssertExpectations(t)
}
