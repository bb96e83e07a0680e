// Package presets builds ready-made simple-social services for local
// development, tests and production.
package presets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/tendant/simple-social/pkg/simplesocial"
	blobmemory "github.com/tendant/simple-social/pkg/simplesocial/blob/memory"
	"github.com/tendant/simple-social/pkg/simplesocial/config"
	docmemory "github.com/tendant/simple-social/pkg/simplesocial/docstore/memory"
	"github.com/tendant/simple-social/pkg/simplesocial/preview"
)

// NewDevelopment creates a service for local development.
//
// Documents live in a badger database and media on the filesystem, both under
// the storage directory (./dev-data by default), so data survives restarts.
// Display URLs point at the media route of a server on localhost.
//
// The returned cleanup closes the stores and removes the storage directory.
//
//	rt, cleanup, err := presets.NewDevelopment()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
func NewDevelopment(opts ...DevelopmentOption) (*config.Runtime, func(), error) {
	cfg := &devConfig{
		storageDir: "./dev-data",
		port:       "8080",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	dir, err := filepath.Abs(cfg.storageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}

	serverConfig, err := config.Load(
		config.WithEnvironment("development"),
		config.WithPort(cfg.port),
		config.WithDatabaseURL("badger://"+filepath.Join(dir, "documents")),
		config.WithStorageURL("file://"+filepath.ToSlash(filepath.Join(dir, "media"))),
		config.WithPreviewStrategy(config.PreviewStrategyAppRouted, fmt.Sprintf("http://localhost:%s/api/v1", cfg.port)),
	)
	if err != nil {
		return nil, nil, err
	}

	rt, err := serverConfig.Build(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}

	cleanup := func() {
		_ = rt.Close()
		os.RemoveAll(dir)
	}
	return rt, cleanup, nil
}

// NewTesting creates a service for unit and integration tests: memory
// document and blob stores, CDN display URLs and no query cache. Every call
// is isolated, so tests may run in parallel.
//
//	func TestFeed(t *testing.T) {
//	    svc := presets.NewTesting(t)
//	    ...
//	}
func NewTesting(t testing.TB, opts ...TestingOption) simplesocial.Service {
	t.Helper()

	cfg := &testConfig{cdnBaseURL: "https://cdn.test"}
	for _, opt := range opts {
		opt(cfg)
	}

	blobs := blobmemory.New()
	options := []simplesocial.Option{
		simplesocial.WithDocumentStore(docmemory.New()),
		simplesocial.WithBlobStore(blobs),
		simplesocial.WithPreviewer(preview.NewDeriver(blobs, preview.NewCDNStrategy(cfg.cdnBaseURL))),
	}

	svc, err := simplesocial.New(append(options, cfg.serviceOptions...)...)
	if err != nil {
		t.Fatalf("failed to create test service: %v", err)
	}

	for _, p := range cfg.profiles {
		if _, err := svc.CreateUserProfile(context.Background(), p); err != nil {
			t.Fatalf("failed to create test profile %s: %v", p.AccountID, err)
		}
	}
	return svc
}

// NewProduction builds the service from the environment and refuses
// configurations that would lose data on restart: memory documents or memory
// media. Options are applied after the environment.
func NewProduction(ctx context.Context, opts ...config.Option) (*config.Runtime, error) {
	base := []config.Option{config.WithEnvironment("production"), config.WithEnv()}
	serverConfig, err := config.Load(append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	database, _ := serverConfig.DatabaseKind()
	if database == config.DatabaseMemory {
		return nil, errors.New("production preset requires a persistent DATABASE_URL (memory not allowed in production)")
	}
	storage, _ := serverConfig.StorageKind()
	if storage == config.StorageMemory {
		return nil, errors.New("production preset requires persistent STORAGE_URL (memory not allowed in production)")
	}

	return serverConfig.Build(ctx)
}

// devConfig holds development preset configuration
type devConfig struct {
	storageDir string
	port       string
}

// testConfig holds testing preset configuration
type testConfig struct {
	cdnBaseURL     string
	profiles       []simplesocial.CreateUserProfileRequest
	serviceOptions []simplesocial.Option
}

// DevelopmentOption is a functional option for NewDevelopment
type DevelopmentOption func(*devConfig)

// WithDevStorage sets the development storage directory
func WithDevStorage(dir string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.storageDir = dir
	}
}

// WithDevPort sets the port display URLs point at
func WithDevPort(port string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.port = port
	}
}

// TestingOption is a functional option for NewTesting
type TestingOption func(*testConfig)

// WithTestCDN sets the CDN base URL of display URLs
func WithTestCDN(baseURL string) TestingOption {
	return func(cfg *testConfig) {
		cfg.cdnBaseURL = baseURL
	}
}

// WithTestProfiles creates the given profiles before the service is returned
func WithTestProfiles(profiles ...simplesocial.CreateUserProfileRequest) TestingOption {
	return func(cfg *testConfig) {
		cfg.profiles = append(cfg.profiles, profiles...)
	}
}

// WithTestServiceOptions applies extra service options, such as hooks or a
// query cache
func WithTestServiceOptions(opts ...simplesocial.Option) TestingOption {
	return func(cfg *testConfig) {
		cfg.serviceOptions = append(cfg.serviceOptions, opts...)
	}
}
