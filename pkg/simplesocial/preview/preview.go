// Package preview derives display URLs for stored media.
//
// A Deriver checks that the asset exists in its blob store and then asks a
// Strategy for the URL. Strategies only build URLs; they never touch storage.
package preview

import (
	"context"
	"errors"
	"fmt"

	"github.com/tendant/simple-social/pkg/simplesocial"
)

// Strategy builds the display URL of an existing asset
type Strategy interface {
	PreviewURL(ctx context.Context, assetID string, transform simplesocial.PreviewTransform) (string, error)
}

// Deriver implements simplesocial.Previewer over a blob store and a Strategy
type Deriver struct {
	store    simplesocial.BlobStore
	strategy Strategy
}

// NewDeriver creates a Deriver
func NewDeriver(store simplesocial.BlobStore, strategy Strategy) *Deriver {
	return &Deriver{store: store, strategy: strategy}
}

// DerivePreviewURL returns the display URL of assetID. The same inputs always
// produce the same URL.
func (d *Deriver) DerivePreviewURL(ctx context.Context, assetID string, transform simplesocial.PreviewTransform) (string, error) {
	if !transform.Gravity.IsValid() {
		return "", &simplesocial.PreviewFault{AssetID: assetID, Err: fmt.Errorf("invalid gravity %q", transform.Gravity)}
	}
	if _, err := d.store.GetAssetMeta(ctx, assetID); err != nil {
		if errors.Is(err, simplesocial.ErrAssetNotFound) {
			return "", &simplesocial.PreviewFault{AssetID: assetID, Err: err}
		}
		return "", &simplesocial.PreviewFault{AssetID: assetID, Err: fmt.Errorf("stat asset: %w", err)}
	}

	u, err := d.strategy.PreviewURL(ctx, assetID, transform)
	if err != nil {
		return "", &simplesocial.PreviewFault{AssetID: assetID, Err: err}
	}
	return u, nil
}
