package preview

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tendant/simple-social/pkg/simplesocial"
)

// StrategyType represents the type of preview URL strategy
type StrategyType string

const (
	// CDN strategy for direct URLs served by an image CDN
	StrategyTypeCDN StrategyType = "cdn"

	// App-routed strategy for URLs served by this service's media route
	StrategyTypeAppRouted StrategyType = "app-routed"

	// Storage-delegated strategy for URLs minted by the blob store (presigned S3, public fs prefix)
	StrategyTypeStorageDelegated StrategyType = "storage-delegated"
)

// URLProvider is implemented by blob stores that can mint their own URLs
type URLProvider interface {
	GetPreviewURL(ctx context.Context, assetID string) (string, error)
}

// Config holds configuration for strategy creation
type Config struct {
	Type       StrategyType
	CDNBaseURL string      // For CDN strategy
	APIBaseURL string      // For app-routed strategy
	Provider   URLProvider // For storage-delegated strategy
}

// NewStrategy creates a preview strategy based on the configuration
func NewStrategy(config Config) (Strategy, error) {
	switch config.Type {
	case StrategyTypeCDN:
		if config.CDNBaseURL == "" {
			return nil, fmt.Errorf("CDN base URL is required for CDN strategy")
		}
		return NewCDNStrategy(config.CDNBaseURL), nil

	case StrategyTypeAppRouted:
		if config.APIBaseURL == "" {
			return nil, fmt.Errorf("API base URL is required for app-routed strategy")
		}
		return NewAppRoutedStrategy(config.APIBaseURL), nil

	case StrategyTypeStorageDelegated:
		if config.Provider == nil {
			return nil, fmt.Errorf("blob store does not mint preview URLs")
		}
		return NewStorageDelegatedStrategy(config.Provider), nil

	default:
		return nil, fmt.Errorf("unknown preview strategy type: %s", config.Type)
	}
}

// transformQuery encodes a transform as query parameters. url.Values sorts
// keys, which keeps derived URLs deterministic.
func transformQuery(t simplesocial.PreviewTransform) url.Values {
	return url.Values{
		"width":   {strconv.Itoa(t.Width)},
		"height":  {strconv.Itoa(t.Height)},
		"gravity": {string(t.Gravity)},
		"quality": {strconv.Itoa(t.Quality)},
	}
}

func escapeAssetID(assetID string) string {
	return (&url.URL{Path: assetID}).EscapedPath()
}

// CDNStrategy builds {base}/{assetID}/preview?gravity=G&height=H&quality=Q&width=W
type CDNStrategy struct {
	CDNBaseURL string
}

// NewCDNStrategy creates a CDN strategy
func NewCDNStrategy(cdnBaseURL string) *CDNStrategy {
	return &CDNStrategy{CDNBaseURL: strings.TrimSuffix(cdnBaseURL, "/")}
}

func (s *CDNStrategy) PreviewURL(ctx context.Context, assetID string, transform simplesocial.PreviewTransform) (string, error) {
	if s.CDNBaseURL == "" {
		return "", fmt.Errorf("CDN base URL not configured")
	}
	return fmt.Sprintf("%s/%s/preview?%s", s.CDNBaseURL, escapeAssetID(assetID), transformQuery(transform).Encode()), nil
}

// AppRoutedStrategy builds {api}/media/{assetID}?... for the service's own media route
type AppRoutedStrategy struct {
	APIBaseURL string
}

// NewAppRoutedStrategy creates an app-routed strategy
func NewAppRoutedStrategy(apiBaseURL string) *AppRoutedStrategy {
	return &AppRoutedStrategy{APIBaseURL: strings.TrimSuffix(apiBaseURL, "/")}
}

func (s *AppRoutedStrategy) PreviewURL(ctx context.Context, assetID string, transform simplesocial.PreviewTransform) (string, error) {
	return fmt.Sprintf("%s/media/%s?%s", s.APIBaseURL, escapeAssetID(assetID), transformQuery(transform).Encode()), nil
}

// StorageDelegatedStrategy asks the blob store for its own URL and appends
// the transform parameters
type StorageDelegatedStrategy struct {
	Provider URLProvider
}

// NewStorageDelegatedStrategy creates a storage-delegated strategy
func NewStorageDelegatedStrategy(provider URLProvider) *StorageDelegatedStrategy {
	return &StorageDelegatedStrategy{Provider: provider}
}

func (s *StorageDelegatedStrategy) PreviewURL(ctx context.Context, assetID string, transform simplesocial.PreviewTransform) (string, error) {
	raw, err := s.Provider.GetPreviewURL(ctx, assetID)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("storage returned invalid url: %w", err)
	}
	q := u.Query()
	for k, v := range transformQuery(transform) {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
