package simplesocial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// DefaultEnrichmentConcurrency bounds the creator lookups in flight while
// enriching a feed.
const DefaultEnrichmentConcurrency = 8

// service implements the Service interface
type service struct {
	documents DocumentStore
	blobs     BlobStore
	previewer Previewer
	cache     QueryCache
	logger    *slog.Logger
	metrics   *Metrics
	hooks     *Hooks

	previewTransform      PreviewTransform
	avatarURL             func(name string) string
	enrichmentConcurrency int
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithDocumentStore sets the document store for the service
func WithDocumentStore(store DocumentStore) Option {
	return func(s *service) {
		s.documents = store
	}
}

// WithBlobStore sets the blob store that receives post media
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobs = store
	}
}

// WithPreviewer sets the previewer that derives display URLs
func WithPreviewer(previewer Previewer) Option {
	return func(s *service) {
		s.previewer = previewer
	}
}

// WithQueryCache sets the read cache. Defaults to a no-op cache.
func WithQueryCache(cache QueryCache) Option {
	return func(s *service) {
		s.cache = cache
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics *Metrics) Option {
	return func(s *service) {
		s.metrics = metrics
	}
}

// WithHooks sets lifecycle hooks
func WithHooks(hooks *Hooks) Option {
	return func(s *service) {
		s.hooks = hooks
	}
}

// WithPreviewTransform overrides DefaultPreviewTransform
func WithPreviewTransform(transform PreviewTransform) Option {
	return func(s *service) {
		s.previewTransform = transform
	}
}

// WithAvatarURLFunc sets the function that builds a placeholder avatar URL
// for profiles created without an image.
func WithAvatarURLFunc(fn func(name string) string) Option {
	return func(s *service) {
		s.avatarURL = fn
	}
}

// WithEnrichmentConcurrency bounds concurrent creator lookups. Values below 1
// are ignored.
func WithEnrichmentConcurrency(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.enrichmentConcurrency = n
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		previewTransform:      DefaultPreviewTransform,
		enrichmentConcurrency: DefaultEnrichmentConcurrency,
	}

	for _, option := range options {
		option(s)
	}

	if s.documents == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.previewer == nil {
		// Backends that derive URLs natively double as previewers.
		p, ok := s.blobs.(Previewer)
		if !ok {
			return nil, fmt.Errorf("previewer is required")
		}
		s.previewer = p
	}
	if !s.previewTransform.Gravity.IsValid() {
		return nil, fmt.Errorf("invalid preview gravity %q", s.previewTransform.Gravity)
	}
	if s.cache == nil {
		s.cache = NewNoopQueryCache()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// invalidate drops cached reads after a successful mutation. Cache faults
// never fail the mutation.
func (s *service) invalidate(ctx context.Context, keys ...QueryKey) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "query cache invalidation failed", "keys", keys, "err", err)
	}
}

// cachedRead serves a read from the cache, falling back to load and caching
// its result under key with tags. A result loaded while one of tags was
// invalidated is returned but not cached.
func cachedRead[T any](ctx context.Context, s *service, key string, tags []QueryKey, load func(context.Context) (T, error)) (T, error) {
	generation := s.cache.Generation(tags...)

	var cached T
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WarnContext(ctx, "query cache read failed", "key", key, "err", err)
	}
	if hit && err == nil {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if _, err := s.cache.SetIfUnchanged(ctx, key, value, generation, tags...); err != nil {
		s.logger.WarnContext(ctx, "query cache write failed", "key", key, "err", err)
	}
	return value, nil
}

// documentFault makes sure a document store error carries the collection and
// operation it failed in.
func documentFault(collection, op string, err error) error {
	if err == nil {
		return nil
	}
	var fault *DocumentFault
	if errors.As(err, &fault) {
		return err
	}
	return NewDocumentFault(collection, op, err)
}
