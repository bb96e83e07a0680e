package simplesocial

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrAssetNotFound indicates a media asset is absent from the blob store
	ErrAssetNotFound = errors.New("asset not found")

	// ErrDocumentNotFound indicates a document was not found in its collection
	ErrDocumentNotFound = errors.New("document not found")

	// ErrURLTooLong indicates a derived display URL exceeds MaxDisplayURLLength
	ErrURLTooLong = errors.New("display url too long")

	// ErrInvalidURL indicates a derived display URL is empty or not absolute
	ErrInvalidURL = errors.New("invalid display url")

	// ErrMissingFile indicates a post was submitted without media
	ErrMissingFile = errors.New("media file is required")

	// ErrMissingCreator indicates a post was submitted without a creator account
	ErrMissingCreator = errors.New("creator account is required")
)

// StorageFault represents a failed blob store operation
type StorageFault struct {
	Backend string
	AssetID string
	Op      string
	Err     error
}

func (e *StorageFault) Error() string {
	return fmt.Sprintf("storage operation %s failed for asset %s on backend %s: %v", e.Op, e.AssetID, e.Backend, e.Err)
}

func (e *StorageFault) Unwrap() error {
	return e.Err
}

// PreviewFault represents a failure to derive a display URL for an asset
type PreviewFault struct {
	AssetID string
	Err     error
}

func (e *PreviewFault) Error() string {
	return fmt.Sprintf("preview derivation failed for asset %s: %v", e.AssetID, e.Err)
}

func (e *PreviewFault) Unwrap() error {
	return e.Err
}

// DocumentFault represents a failed document store operation
type DocumentFault struct {
	Collection string
	Op         string
	Reason     string
	Err        error
}

func (e *DocumentFault) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("document operation %s failed on collection %s: %s", e.Op, e.Collection, e.Reason)
	case e.Reason == "" || e.Reason == e.Err.Error():
		return fmt.Sprintf("document operation %s failed on collection %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("document operation %s failed on collection %s: %s: %v", e.Op, e.Collection, e.Reason, e.Err)
}

func (e *DocumentFault) Unwrap() error {
	return e.Err
}

// NewDocumentFault builds a DocumentFault whose reason is the wrapped error text.
// Backends use it so that errors.Is(err, ErrDocumentNotFound) keeps working.
func NewDocumentFault(collection, op string, err error) *DocumentFault {
	reason := "unknown"
	if err != nil {
		reason = err.Error()
	}
	return &DocumentFault{
		Collection: collection,
		Op:         op,
		Reason:     reason,
		Err:        err,
	}
}

// ValidationFault represents a derived value that failed validation
type ValidationFault struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ValidationFault) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func (e *ValidationFault) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means a document or asset does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound) || errors.Is(err, ErrAssetNotFound)
}
