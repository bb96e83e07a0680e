package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-social/pkg/simplesocial"
	memorystorage "github.com/tendant/simple-social/pkg/simplesocial/blob/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testData := "Hello, World! This is test data."

	asset, err := backend.Upload(ctx, simplesocial.UploadParams{
		Reader:      strings.NewReader(testData),
		ContentType: "image/png",
		FileName:    "photo.png",
	})
	require.NoError(t, err)
	require.NotEmpty(t, asset.ID)
	assert.Equal(t, memorystorage.BackendName, asset.Backend)
	assert.Equal(t, int64(len(testData)), asset.Size)
	assert.Contains(t, asset.ID, "photo.png")

	t.Run("GetAssetMeta", func(t *testing.T) {
		meta, err := backend.GetAssetMeta(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, asset.ID, meta.ID)
		assert.Equal(t, int64(len(testData)), meta.Size)
		assert.Equal(t, "image/png", meta.ContentType)
		assert.NotEmpty(t, meta.ETag)
	})

	t.Run("Download", func(t *testing.T) {
		reader, err := backend.Download(ctx, asset.ID)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, string(data))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, asset.ID))

		_, err := backend.GetAssetMeta(ctx, asset.ID)
		assert.ErrorIs(t, err, simplesocial.ErrAssetNotFound)
		assert.Equal(t, 0, backend.Len())
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		assert.NoError(t, backend.Delete(ctx, asset.ID))
		assert.NoError(t, backend.Delete(ctx, "never/stored"))
	})
}

func TestMemoryBackend_DefaultContentType(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()

	asset, err := backend.Upload(ctx, simplesocial.UploadParams{Reader: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", asset.ContentType)
}

func TestMemoryBackend_UniqueIDs(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		asset, err := backend.Upload(ctx, simplesocial.UploadParams{
			Reader:   strings.NewReader("same"),
			FileName: "same.jpg",
		})
		require.NoError(t, err)
		assert.False(t, seen[asset.ID], "duplicate asset id %s", asset.ID)
		seen[asset.ID] = true
	}
	assert.Equal(t, 20, backend.Len())
}
