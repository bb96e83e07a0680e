package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-social/pkg/simplesocial"
	cloudinarystorage "github.com/tendant/simple-social/pkg/simplesocial/blob/cloudinary"
	fsstorage "github.com/tendant/simple-social/pkg/simplesocial/blob/fs"
	memorystorage "github.com/tendant/simple-social/pkg/simplesocial/blob/memory"
	s3storage "github.com/tendant/simple-social/pkg/simplesocial/blob/s3"
	badgerstore "github.com/tendant/simple-social/pkg/simplesocial/docstore/badger"
	memorystore "github.com/tendant/simple-social/pkg/simplesocial/docstore/memory"
	mongostore "github.com/tendant/simple-social/pkg/simplesocial/docstore/mongo"
	pgstore "github.com/tendant/simple-social/pkg/simplesocial/docstore/postgres"
	"github.com/tendant/simple-social/pkg/simplesocial/preview"
	"github.com/tendant/simple-social/pkg/simplesocial/querycache"
)

// Runtime holds the service together with the stores it was built on.
type Runtime struct {
	Service   simplesocial.Service
	Documents simplesocial.DocumentStore
	Blobs     simplesocial.BlobStore
	Metrics   *simplesocial.Metrics

	closers []func() error
}

// Close releases database connections and caches, last opened first.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// BuildService creates a Service instance from the server configuration.
// The returned close releases the pools, databases and caches behind the
// service; the caller owns it.
func (c *ServerConfig) BuildService() (simplesocial.Service, func() error, error) {
	rt, err := c.Build(context.Background())
	if err != nil {
		return nil, nil, err
	}
	return rt.Service, rt.Close, nil
}

// Build opens the configured stores and wires the service over them.
func (c *ServerConfig) Build(ctx context.Context) (*Runtime, error) {
	rt := &Runtime{}
	logger := c.Logger()

	docs, err := c.buildDocumentStore(ctx, rt)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to build document store: %w", err)
	}
	rt.Documents = docs

	blobs, err := c.buildBlobStore()
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}
	rt.Blobs = blobs

	rt.Metrics = simplesocial.NewMetrics(c.MetricsNamespace, c.registerer)

	options := []simplesocial.Option{
		simplesocial.WithDocumentStore(docs),
		simplesocial.WithBlobStore(blobs),
		simplesocial.WithLogger(logger),
		simplesocial.WithMetrics(rt.Metrics),
		simplesocial.WithEnrichmentConcurrency(c.EnrichmentConcurrency),
	}

	previewer, err := c.buildPreviewer(blobs)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to build previewer: %w", err)
	}
	if previewer != nil {
		options = append(options, simplesocial.WithPreviewer(previewer))
	}

	if c.QueryCacheEnabled {
		cache, err := querycache.New(querycache.WithTTL(c.QueryCacheTTL))
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to build query cache: %w", err)
		}
		rt.closers = append(rt.closers, func() error { cache.Close(); return nil })
		options = append(options, simplesocial.WithQueryCache(cache))
	}

	if c.AvatarBaseURL != "" {
		base := c.AvatarBaseURL
		options = append(options, simplesocial.WithAvatarURLFunc(func(name string) string {
			return preview.InitialsAvatarURL(base, name)
		}))
	}

	svc, err := simplesocial.New(options...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Service = svc
	return rt, nil
}

// buildDocumentStore creates a DocumentStore based on DatabaseURL
func (c *ServerConfig) buildDocumentStore(ctx context.Context, rt *Runtime) (simplesocial.DocumentStore, error) {
	kind, err := c.DatabaseKind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case DatabaseMemory:
		return memorystore.New(), nil

	case DatabasePostgres:
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		// Optionally set search_path for the connection
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		rt.closers = append(rt.closers, func() error { pool.Close(); return nil })

		store := pgstore.NewWithPool(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case DatabaseMongo:
		store, err := mongostore.Connect(ctx, c.DatabaseURL, "", c.Logger())
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error { return store.Close(context.Background()) })
		return store, nil

	case DatabaseBadger:
		path := strings.TrimPrefix(c.DatabaseURL, "badger://")
		var (
			store *badgerstore.Store
			err   error
		)
		if path == "" {
			store, err = badgerstore.OpenInMemory(c.Logger())
		} else {
			store, err = badgerstore.Open(path, c.Logger())
		}
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		return store, nil
	}
	return nil, fmt.Errorf("unsupported database kind: %s", kind)
}

// buildBlobStore creates a BlobStore based on StorageURL
func (c *ServerConfig) buildBlobStore() (simplesocial.BlobStore, error) {
	kind, err := c.StorageKind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case StorageMemory:
		return memorystorage.New(), nil

	case StorageFS:
		u, _ := url.Parse(c.StorageURL)
		return fsstorage.New(fsstorage.Config{
			BaseDir:   u.Path,
			URLPrefix: c.FSURLPrefix,
		})

	case StorageS3:
		s3Config, err := c.s3Config()
		if err != nil {
			return nil, err
		}
		return s3storage.New(s3Config)

	case StorageCloudinary:
		return cloudinarystorage.New(cloudinarystorage.Config{
			URL:    c.StorageURL,
			Folder: c.CloudinaryFolder,
		})
	}
	return nil, fmt.Errorf("unsupported storage kind: %s", kind)
}

// s3Config reads s3://bucket?region=...&endpoint=...&path_style=true&sse=AES256
func (c *ServerConfig) s3Config() (s3storage.Config, error) {
	u, err := url.Parse(c.StorageURL)
	if err != nil {
		return s3storage.Config{}, fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	q := u.Query()

	cfg := s3storage.Config{
		Bucket:          u.Host,
		Region:          c.AWSRegion,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
		Endpoint:        q.Get("endpoint"),
		PresignDuration: c.S3PresignSeconds,
	}
	if region := q.Get("region"); region != "" {
		cfg.Region = region
	}
	if raw := q.Get("path_style"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return s3storage.Config{}, fmt.Errorf("invalid path_style in STORAGE_URL: %w", err)
		}
		cfg.UsePathStyle = b
	}
	if raw := q.Get("create_bucket"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return s3storage.Config{}, fmt.Errorf("invalid create_bucket in STORAGE_URL: %w", err)
		}
		cfg.CreateBucketIfNotExist = b
	}
	if sse := q.Get("sse"); sse != "" {
		cfg.EnableSSE = true
		cfg.SSEAlgorithm = sse
		cfg.SSEKMSKeyID = q.Get("kms_key_id")
	}
	return cfg, nil
}

// buildPreviewer returns the previewer for blobs, or nil when the blob store
// derives display URLs natively.
func (c *ServerConfig) buildPreviewer(blobs simplesocial.BlobStore) (simplesocial.Previewer, error) {
	strategy := c.PreviewStrategy
	provider, canDelegate := blobs.(preview.URLProvider)

	if strategy == PreviewStrategyAuto {
		_, native := blobs.(simplesocial.Previewer)
		switch {
		case native:
			strategy = PreviewStrategyNative
		case c.CDNBaseURL != "":
			strategy = PreviewStrategyCDN
		case canDelegate && (!isFS(blobs) || c.FSURLPrefix != ""):
			strategy = PreviewStrategyStorageDelegated
		default:
			strategy = PreviewStrategyAppRouted
		}
	}

	if strategy == PreviewStrategyNative {
		if _, ok := blobs.(simplesocial.Previewer); !ok {
			return nil, errors.New("blob store does not derive preview urls")
		}
		return nil, nil
	}

	cfg := preview.Config{
		Type:       preview.StrategyType(strategy),
		CDNBaseURL: c.CDNBaseURL,
		APIBaseURL: c.APIBaseURL,
	}
	if canDelegate {
		cfg.Provider = provider
	}
	s, err := preview.NewStrategy(cfg)
	if err != nil {
		return nil, err
	}
	return preview.NewDeriver(blobs, s), nil
}

// A filesystem store only mints URLs when it has a public prefix.
func isFS(blobs simplesocial.BlobStore) bool {
	_, ok := blobs.(*fsstorage.Backend)
	return ok
}
