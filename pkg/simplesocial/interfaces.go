package simplesocial

import (
	"context"
)

// BlobStore defines the interface for media storage backends
type BlobStore interface {
	// Upload stores an opaque blob and returns the asset handle assigned to it
	Upload(ctx context.Context, params UploadParams) (*MediaAsset, error)

	// GetAssetMeta retrieves metadata for an asset, or ErrAssetNotFound
	GetAssetMeta(ctx context.Context, assetID string) (*AssetMeta, error)

	// Delete removes an asset. Deleting an absent asset succeeds.
	Delete(ctx context.Context, assetID string) error
}

// Previewer derives display URLs for stored assets
type Previewer interface {
	// DerivePreviewURL returns the display URL of an asset under the given
	// transform. It fails with a *PreviewFault when the asset does not exist.
	DerivePreviewURL(ctx context.Context, assetID string, transform PreviewTransform) (string, error)
}

// DocumentStore defines the interface for schema-flexible document persistence
type DocumentStore interface {
	// CreateDocument stores fields as a new document; the store assigns the
	// id and creation timestamp
	CreateDocument(ctx context.Context, collection string, fields Fields) (*Document, error)

	// GetDocument fetches one document by id
	GetDocument(ctx context.Context, collection, id string) (*Document, error)

	// GetDocumentsWhere lists documents matching the query
	GetDocumentsWhere(ctx context.Context, collection string, query Query) ([]*Document, error)

	// UpdateDocument merges partial into the document's top-level fields
	UpdateDocument(ctx context.Context, collection, id string, partial Fields) (*Document, error)

	// DeleteDocument removes a document
	DeleteDocument(ctx context.Context, collection, id string) error
}

// QueryCache holds read results keyed by query and tagged with logical query
// keys so that mutations can invalidate them
type QueryCache interface {
	// Get loads a cached value into dest and reports whether it was present
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set caches value under key with the given tags
	Set(ctx context.Context, key string, value any, tags ...QueryKey) error

	// Generation returns a counter that changes whenever any of keys is
	// invalidated
	Generation(keys ...QueryKey) uint64

	// SetIfUnchanged caches value like Set unless one of tags was invalidated
	// since generation was taken, and reports whether it stored the value
	SetIfUnchanged(ctx context.Context, key string, value any, generation uint64, tags ...QueryKey) (bool, error)

	// Invalidate drops every cached value tagged with any of keys
	Invalidate(ctx context.Context, keys ...QueryKey) error
}

// QueryKey is a logical query key used to tag and invalidate cached reads.
type QueryKey string

// Logical query keys.
const (
	QueryKeyRecentPosts QueryKey = "recent-posts"
	QueryKeyPosts       QueryKey = "posts"
	QueryKeyPostByID    QueryKey = "post-by-id"
	QueryKeyCurrentUser QueryKey = "current-user"
	QueryKeyUsers       QueryKey = "users"
)

// PostByIDKey is the query key of a single post.
func PostByIDKey(postID string) QueryKey {
	return QueryKeyPostByID + "#" + QueryKey(postID)
}

// CurrentUserKey is the query key of one account's current-user view.
func CurrentUserKey(accountID string) QueryKey {
	return QueryKeyCurrentUser + "#" + QueryKey(accountID)
}
