package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/objectkey"
)

// BackendName identifies assets stored by this backend
const BackendName = "memory"

type object struct {
	data        []byte
	contentType string
	updatedAt   time.Time
}

// Backend is an in-memory implementation of the simplesocial.BlobStore interface
type Backend struct {
	mu        sync.RWMutex
	objects   map[string]object
	generator objectkey.Generator
}

// New creates a new in-memory storage backend
func New() *Backend {
	return NewWithGenerator(objectkey.NewRecommendedGenerator())
}

// NewWithGenerator creates an in-memory backend assigning asset ids with gen
func NewWithGenerator(gen objectkey.Generator) *Backend {
	return &Backend{
		objects:   make(map[string]object),
		generator: gen,
	}
}

// Upload stores the reader's content under a freshly generated key
func (b *Backend) Upload(ctx context.Context, params simplesocial.UploadParams) (*simplesocial.MediaAsset, error) {
	data, err := io.ReadAll(params.Reader)
	if err != nil {
		return nil, &simplesocial.StorageFault{Backend: BackendName, Op: "upload", Err: err}
	}

	contentType := params.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := b.generator.GenerateKey(uuid.New(), &objectkey.KeyMetadata{
		FileName:    params.FileName,
		ContentType: contentType,
	})

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = object{
		data:        data,
		contentType: contentType,
		updatedAt:   time.Now().UTC(),
	}

	return &simplesocial.MediaAsset{
		ID:          key,
		Backend:     BackendName,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// GetAssetMeta retrieves metadata for an asset in memory
func (b *Backend) GetAssetMeta(ctx context.Context, assetID string) (*simplesocial.AssetMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[assetID]
	if !exists {
		return nil, simplesocial.ErrAssetNotFound
	}

	sum := md5.Sum(obj.data)
	return &simplesocial.AssetMeta{
		ID:          assetID,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
		UpdatedAt:   obj.updatedAt,
		ETag:        hex.EncodeToString(sum[:]),
	}, nil
}

// Download returns the content of an asset
func (b *Backend) Download(ctx context.Context, assetID string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[assetID]
	if !exists {
		return nil, simplesocial.ErrAssetNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete removes an asset. Deleting an absent asset succeeds.
func (b *Backend) Delete(ctx context.Context, assetID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, assetID)
	return nil
}

// Len returns the number of stored assets
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
