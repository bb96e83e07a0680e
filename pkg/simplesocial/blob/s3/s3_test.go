package s3

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, mutate func(*Config)) *Backend {
	t.Helper()
	config := Config{
		Region:          "us-east-1",
		Bucket:          "test-bucket",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
	}
	if mutate != nil {
		mutate(&config)
	}
	backend, err := New(config)
	require.NoError(t, err)
	return backend
}

func TestS3Backend_BasicConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("Defaults", func(t *testing.T) {
		backend := newTestBackend(t, func(c *Config) { c.Region = "" })
		assert.Equal(t, "us-east-1", backend.config.Region)
		assert.Equal(t, time.Hour, backend.presignDuration)
		assert.NotNil(t, backend.generator)
	})

	t.Run("CustomPresignDuration", func(t *testing.T) {
		backend := newTestBackend(t, func(c *Config) { c.PresignDuration = 7200 })
		assert.Equal(t, 7200*time.Second, backend.presignDuration)
	})

	t.Run("InvalidSSEAlgorithm", func(t *testing.T) {
		_, err := New(Config{Bucket: "b", EnableSSE: true, SSEAlgorithm: "rot13"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid SSE")
	})
}

func TestS3Backend_PreviewURL(t *testing.T) {
	backend := newTestBackend(t, nil)

	raw, err := backend.GetPreviewURL(context.Background(), "media/objects/ab/cdef_photo.jpg")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/test-bucket/media/objects/ab/"), u.Path)
	assert.Equal(t, "inline", u.Query().Get("response-content-disposition"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"typed not found", &types.NotFound{}, true},
		{"typed no such key", &types.NoSuchKey{}, true},
		{"generic api error code", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

func TestCountingReader(t *testing.T) {
	c := &countingReader{r: strings.NewReader("twelve bytes")}
	buf := make([]byte, 5)
	for {
		if _, err := c.Read(buf); err != nil {
			break
		}
	}
	assert.Equal(t, int64(12), c.n)
}
