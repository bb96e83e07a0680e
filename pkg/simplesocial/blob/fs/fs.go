package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/objectkey"
)

// BackendName identifies assets stored by this backend
const BackendName = "fs"

var errInvalidAssetID = errors.New("asset id escapes base directory")

// Backend is a filesystem implementation of the simplesocial.BlobStore interface
type Backend struct {
	baseDir   string
	urlPrefix string
	generator objectkey.Generator
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string              // Base directory for storing files
	URLPrefix string              // Optional public URL prefix the files are served under
	Generator objectkey.Generator // Optional; defaults to the recommended generator
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	gen := config.Generator
	if gen == nil {
		gen = objectkey.NewRecommendedGenerator()
	}

	return &Backend{
		baseDir:   filepath.Clean(config.BaseDir),
		urlPrefix: strings.TrimRight(config.URLPrefix, "/"),
		generator: gen,
	}, nil
}

func (b *Backend) path(assetID string) (string, error) {
	p := filepath.Join(b.baseDir, filepath.FromSlash(assetID))
	if p == b.baseDir || !strings.HasPrefix(p, b.baseDir+string(filepath.Separator)) {
		return "", errInvalidAssetID
	}
	return p, nil
}

// Upload writes the reader's content to a freshly generated key
func (b *Backend) Upload(ctx context.Context, params simplesocial.UploadParams) (*simplesocial.MediaAsset, error) {
	key := b.generator.GenerateKey(uuid.New(), &objectkey.KeyMetadata{
		FileName:    params.FileName,
		ContentType: params.ContentType,
	})
	filePath, err := b.path(key)
	if err != nil {
		return nil, &simplesocial.StorageFault{Backend: BackendName, AssetID: key, Op: "upload", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, &simplesocial.StorageFault{Backend: BackendName, AssetID: key, Op: "upload", Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, &simplesocial.StorageFault{Backend: BackendName, AssetID: key, Op: "upload", Err: fmt.Errorf("failed to create file: %w", err)}
	}
	defer file.Close()

	size, err := io.Copy(file, params.Reader)
	if err != nil {
		_ = os.Remove(filePath)
		return nil, &simplesocial.StorageFault{Backend: BackendName, AssetID: key, Op: "upload", Err: fmt.Errorf("failed to write file: %w", err)}
	}

	return &simplesocial.MediaAsset{
		ID:          key,
		Backend:     BackendName,
		ContentType: params.ContentType,
		Size:        size,
	}, nil
}

// GetAssetMeta retrieves metadata for an asset in the filesystem
func (b *Backend) GetAssetMeta(ctx context.Context, assetID string) (*simplesocial.AssetMeta, error) {
	filePath, err := b.path(assetID)
	if err != nil {
		return nil, simplesocial.ErrAssetNotFound
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, simplesocial.ErrAssetNotFound
	} else if err != nil {
		return nil, &simplesocial.StorageFault{Backend: BackendName, AssetID: assetID, Op: "stat", Err: err}
	}

	// Detect content type
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &simplesocial.AssetMeta{
		ID:          assetID,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
	}, nil
}

// GetPreviewURL returns the public URL of an asset when a URL prefix is configured
func (b *Backend) GetPreviewURL(ctx context.Context, assetID string) (string, error) {
	if b.urlPrefix == "" {
		return "", errors.New("url prefix required for filesystem previews")
	}
	return fmt.Sprintf("%s/%s", b.urlPrefix, (&url.URL{Path: assetID}).EscapedPath()), nil
}

// Download opens an asset for reading
func (b *Backend) Download(ctx context.Context, assetID string) (io.ReadCloser, error) {
	filePath, err := b.path(assetID)
	if err != nil {
		return nil, simplesocial.ErrAssetNotFound
	}

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, simplesocial.ErrAssetNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes an asset. Deleting an absent asset succeeds.
func (b *Backend) Delete(ctx context.Context, assetID string) error {
	filePath, err := b.path(assetID)
	if err != nil {
		return &simplesocial.StorageFault{Backend: BackendName, AssetID: assetID, Op: "delete", Err: err}
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &simplesocial.StorageFault{Backend: BackendName, AssetID: assetID, Op: "delete", Err: err}
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir || !strings.HasPrefix(dir, b.baseDir) {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
