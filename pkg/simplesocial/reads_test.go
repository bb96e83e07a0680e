package simplesocial_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-social/pkg/simplesocial"
	docmemory "github.com/tendant/simple-social/pkg/simplesocial/docstore/memory"
	"github.com/tendant/simple-social/pkg/simplesocial/querycache"
)

func TestGetRecentPosts_NewestFirstAndCapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < simplesocial.RecentPostsLimit+3; i++ {
		ids = append(ids, f.publish(t, "acc-1", fmt.Sprintf("post %d", i)).ID)
		time.Sleep(time.Millisecond)
	}

	posts, err := f.svc.GetRecentPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, simplesocial.RecentPostsLimit)
	assert.Equal(t, ids[len(ids)-1], posts[0].ID)
	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt), "feed must be newest first")
	}

	all, err := f.svc.ListPosts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, len(ids))

	some, err := f.svc.ListPosts(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, some, 5)
}

func TestGetPostByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetPostByID(context.Background(), "missing")
	var fault *simplesocial.DocumentFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, simplesocial.CollectionPosts, fault.Collection)
	assert.True(t, simplesocial.IsNotFound(err))
}

func TestGetRecentPostsWithCreators(t *testing.T) {
	docs := &failingDocs{
		Store:      docmemory.New(),
		failLookup: "acc-broken",
		lookupDelay: map[string]time.Duration{
			"acc-1":      30 * time.Millisecond,
			"acc-broken": 10 * time.Millisecond,
		},
	}
	f := newFixture(t,
		simplesocial.WithDocumentStore(docs),
		simplesocial.WithEnrichmentConcurrency(5),
	)
	ctx := context.Background()

	f.createProfile(t, "acc-1", "Jane Doe")
	creators := []string{"acc-1", "acc-ghost", "acc-broken", "acc-1", "acc-ghost"}
	for i, creator := range creators {
		f.publish(t, creator, fmt.Sprintf("post %d", i))
		time.Sleep(time.Millisecond)
	}

	feed, err := f.svc.GetRecentPosts(ctx)
	require.NoError(t, err)
	enriched, err := f.svc.GetRecentPostsWithCreators(ctx)
	require.NoError(t, err)
	require.Len(t, enriched, len(feed))

	wantNames := map[string]string{
		"acc-1":      "Jane Doe",
		"acc-ghost":  simplesocial.UnknownCreatorName,
		"acc-broken": simplesocial.ErrorCreatorName,
	}
	for i, item := range enriched {
		assert.Equal(t, feed[i].ID, item.ID, "enrichment keeps feed order")
		assert.Equal(t, feed[i].CreatorID, item.Creator.AccountID)
		assert.Equal(t, wantNames[item.CreatorID], item.Creator.Name, "post %d", i)
	}

	lookups := f.metrics.CreatorLookups()
	assert.Equal(t, 2.0, testutil.ToFloat64(lookups.WithLabelValues("found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(lookups.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(lookups.WithLabelValues("error")))
}

func TestGetRecentPostsWithCreators_Empty(t *testing.T) {
	f := newFixture(t)

	enriched, err := f.svc.GetRecentPostsWithCreators(context.Background())
	require.NoError(t, err)
	assert.Empty(t, enriched)
}

func TestQueryCache_InvalidatedByMutations(t *testing.T) {
	cache, err := querycache.New()
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	f := newFixture(t, simplesocial.WithQueryCache(cache))
	ctx := context.Background()
	f.createProfile(t, "acc-1", "Jane Doe")
	post := f.publish(t, "acc-1", "cached")

	recent, err := f.svc.GetRecentPosts(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	// A write behind the service's back is invisible while the read is cached.
	_, err = f.docs.CreateDocument(ctx, simplesocial.CollectionPosts, simplesocial.Fields{
		simplesocial.PostFieldCreator: "acc-1",
		simplesocial.PostFieldCaption: "sneaky",
	})
	require.NoError(t, err)
	recent, err = f.svc.GetRecentPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, recent, 1, "served from cache")

	// Publishing invalidates recent-posts.
	f.publish(t, "acc-1", "second")
	recent, err = f.svc.GetRecentPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	// Liking invalidates the post-by-id entry of that post.
	byID, err := f.svc.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, byID.Likes)
	_, err = f.svc.ToggleLike(ctx, post.ID, "acc-2")
	require.NoError(t, err)
	byID, err = f.svc.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"acc-2"}, byID.Likes)

	// Saving invalidates the current user.
	current, err := f.svc.GetCurrentUser(ctx, "acc-1")
	require.NoError(t, err)
	assert.Empty(t, current.Saves)
	_, err = f.svc.SavePost(ctx, "acc-1", post.ID)
	require.NoError(t, err)
	current, err = f.svc.GetCurrentUser(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, current.Saves, 1)
	assert.Equal(t, post.ID, current.Saves[0].PostID)
}

func TestQueryCache_ReadRacingPublishIsNotCached(t *testing.T) {
	cache, err := querycache.New()
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	docs := newPausingDocs()
	f := newFixture(t, simplesocial.WithDocumentStore(docs), simplesocial.WithQueryCache(cache))
	ctx := context.Background()
	f.publish(t, "acc-1", "first")

	type result struct {
		posts []*simplesocial.Post
		err   error
	}
	done := make(chan result, 1)
	go func() {
		posts, err := f.svc.GetRecentPosts(ctx)
		done <- result{posts, err}
	}()

	// The read has loaded one post and not cached it yet.
	<-docs.loaded
	f.publish(t, "acc-1", "second")
	close(docs.release)

	res := <-done
	require.NoError(t, res.err)
	assert.Len(t, res.posts, 1, "the racing read returns what it loaded")

	recent, err := f.svc.GetRecentPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, recent, 2, "the load that raced the publish must not be cached")
}

func TestQueryCache_UserListSeesNewPosts(t *testing.T) {
	cache, err := querycache.New()
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	f := newFixture(t, simplesocial.WithQueryCache(cache))
	ctx := context.Background()
	f.createProfile(t, "acc-1", "Jane Doe")

	users, err := f.svc.ListUsers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PostIDs)

	post := f.publish(t, "acc-1", "hello")

	users, err = f.svc.ListUsers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, []string{post.ID}, users[0].PostIDs)
}
