package simplesocial_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-social/pkg/simplesocial"
	blobmemory "github.com/tendant/simple-social/pkg/simplesocial/blob/memory"
	docmemory "github.com/tendant/simple-social/pkg/simplesocial/docstore/memory"
	"github.com/tendant/simple-social/pkg/simplesocial/preview"
)

const cdnBase = "https://cdn.example.com"

var errInjected = errors.New("injected failure")

type fixture struct {
	svc     simplesocial.Service
	docs    *docmemory.Store
	blobs   *blobmemory.Backend
	metrics *simplesocial.Metrics
}

// newFixture wires the service over memory backends and a CDN previewer.
// Extra options are applied last and may replace any of them.
func newFixture(t *testing.T, opts ...simplesocial.Option) *fixture {
	t.Helper()

	f := &fixture{
		docs:    docmemory.New(),
		blobs:   blobmemory.New(),
		metrics: simplesocial.NewMetrics("test", prometheus.NewRegistry()),
	}
	base := []simplesocial.Option{
		simplesocial.WithDocumentStore(f.docs),
		simplesocial.WithBlobStore(f.blobs),
		simplesocial.WithPreviewer(preview.NewDeriver(f.blobs, preview.NewCDNStrategy(cdnBase))),
		simplesocial.WithMetrics(f.metrics),
	}

	svc, err := simplesocial.New(append(base, opts...)...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) createProfile(t *testing.T, accountID, name string) *simplesocial.UserProfile {
	t.Helper()
	profile, err := f.svc.CreateUserProfile(context.Background(), simplesocial.CreateUserProfileRequest{
		AccountID: accountID,
		Name:      name,
		Username:  strings.ToLower(strings.ReplaceAll(name, " ", "")),
		Email:     accountID + "@example.com",
	})
	require.NoError(t, err)
	return profile
}

func (f *fixture) publish(t *testing.T, creatorID, caption string) *simplesocial.Post {
	t.Helper()
	post, err := f.svc.CreatePost(context.Background(), postRequest(creatorID, caption))
	require.NoError(t, err)
	return post
}

func postRequest(creatorID, caption string) simplesocial.CreatePostRequest {
	return simplesocial.CreatePostRequest{
		CreatorID:   creatorID,
		Caption:     caption,
		Location:    "Lisbon",
		Tags:        "travel, sea",
		File:        strings.NewReader("fake image bytes"),
		FileName:    "photo.jpg",
		ContentType: "image/jpeg",
	}
}

// failingDocs injects document store failures on top of the memory store.
type failingDocs struct {
	*docmemory.Store

	failCreate string // collection whose creates fail
	failUpdate string // collection whose updates fail
	failLookup string // users lookups for this account id fail

	lookupDelay map[string]time.Duration // per account id
}

func (d *failingDocs) CreateDocument(ctx context.Context, collection string, fields simplesocial.Fields) (*simplesocial.Document, error) {
	if collection == d.failCreate {
		return nil, errInjected
	}
	return d.Store.CreateDocument(ctx, collection, fields)
}

func (d *failingDocs) UpdateDocument(ctx context.Context, collection, id string, fields simplesocial.Fields) (*simplesocial.Document, error) {
	if collection == d.failUpdate {
		return nil, errInjected
	}
	return d.Store.UpdateDocument(ctx, collection, id, fields)
}

func (d *failingDocs) GetDocumentsWhere(ctx context.Context, collection string, q simplesocial.Query) ([]*simplesocial.Document, error) {
	if collection == simplesocial.CollectionUsers {
		if account, ok := q.Value.(string); ok {
			if delay := d.lookupDelay[account]; delay > 0 {
				time.Sleep(delay)
			}
		}
		if d.failLookup != "" && q.Value == d.failLookup {
			return nil, errInjected
		}
	}
	return d.Store.GetDocumentsWhere(ctx, collection, q)
}

// pausingDocs holds the first posts listing after it has read the store,
// until release is closed.
type pausingDocs struct {
	*docmemory.Store

	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func newPausingDocs() *pausingDocs {
	return &pausingDocs{
		Store:   docmemory.New(),
		loaded:  make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (d *pausingDocs) GetDocumentsWhere(ctx context.Context, collection string, q simplesocial.Query) ([]*simplesocial.Document, error) {
	docs, err := d.Store.GetDocumentsWhere(ctx, collection, q)
	if collection == simplesocial.CollectionPosts {
		d.once.Do(func() {
			close(d.loaded)
			<-d.release
		})
	}
	return docs, err
}

// strictBlobs refuses deletes on a canceled context and can fail deletes
// outright.
type strictBlobs struct {
	*blobmemory.Backend

	failDelete bool
}

func (b *strictBlobs) Delete(ctx context.Context, assetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.failDelete {
		return errInjected
	}
	return b.Backend.Delete(ctx, assetID)
}

// previewerFunc adapts a function to simplesocial.Previewer.
type previewerFunc func(ctx context.Context, assetID string, transform simplesocial.PreviewTransform) (string, error)

func (f previewerFunc) DerivePreviewURL(ctx context.Context, assetID string, transform simplesocial.PreviewTransform) (string, error) {
	return f(ctx, assetID, transform)
}

// stepRecorder collects workflow transitions.
type stepRecorder struct {
	mu    sync.Mutex
	steps []simplesocial.PublishStep
}

func (r *stepRecorder) hook(_ *simplesocial.HookContext, _, to simplesocial.PublishStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, to)
}

func (r *stepRecorder) recorded() []simplesocial.PublishStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]simplesocial.PublishStep(nil), r.steps...)
}

type erroringReader struct{}

func (erroringReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
