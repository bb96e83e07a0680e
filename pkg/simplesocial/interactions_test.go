package simplesocial_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-social/pkg/simplesocial"
)

func TestLikePost_OverwritesLikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.publish(t, "acc-1", "likeable")

	liked, err := f.svc.LikePost(ctx, post.ID, []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, liked.Likes)

	cleared, err := f.svc.LikePost(ctx, post.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, cleared.Likes)

	_, err = f.svc.LikePost(ctx, "missing", []string{"u1"})
	assert.ErrorIs(t, err, simplesocial.ErrDocumentNotFound)
	assert.True(t, simplesocial.IsNotFound(err))
}

func TestToggleLike(t *testing.T) {
	var changes []*simplesocial.Post
	f := newFixture(t, simplesocial.WithHooks(&simplesocial.Hooks{
		AfterLikeChange: []simplesocial.AfterLikeChangeHook{
			func(_ *simplesocial.HookContext, post *simplesocial.Post) error {
				changes = append(changes, post)
				return nil
			},
		},
	}))
	ctx := context.Background()
	post := f.publish(t, "acc-1", "toggle me")

	got, err := f.svc.ToggleLike(ctx, post.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.Likes)
	assert.True(t, got.IsLikedBy("u1"))

	got, err = f.svc.ToggleLike(ctx, post.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got.Likes)

	got, err = f.svc.ToggleLike(ctx, post.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, got.Likes)
	assert.False(t, got.IsLikedBy("u1"))

	assert.Len(t, changes, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.Interactions().WithLabelValues("like")))

	_, err = f.svc.ToggleLike(ctx, "missing", "u1")
	assert.ErrorIs(t, err, simplesocial.ErrDocumentNotFound)
}

func TestSavePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.publish(t, "acc-1", "saveable")

	record, err := f.svc.SavePost(ctx, "acc-2", post.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "acc-2", record.UserID)
	assert.Equal(t, post.ID, record.PostID)

	again, err := f.svc.SavePost(ctx, "acc-2", post.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, again.ID, "saving twice returns the existing record")
	assert.Equal(t, 1, f.docs.Len(simplesocial.CollectionSaves))

	// another user saving the same post gets their own record
	other, err := f.svc.SavePost(ctx, "acc-3", post.ID)
	require.NoError(t, err)
	assert.NotEqual(t, record.ID, other.ID)
	assert.Equal(t, 2, f.docs.Len(simplesocial.CollectionSaves))
}

func TestUnsavePost(t *testing.T) {
	var events []bool
	f := newFixture(t, simplesocial.WithHooks(&simplesocial.Hooks{
		AfterSaveChange: []simplesocial.AfterSaveChangeHook{
			func(_ *simplesocial.HookContext, userID, postID string, saved bool) error {
				events = append(events, saved)
				return nil
			},
		},
	}))
	ctx := context.Background()
	post := f.publish(t, "acc-1", "unsaveable")

	err := f.svc.UnsavePost(ctx, "acc-2", post.ID)
	assert.ErrorIs(t, err, simplesocial.ErrDocumentNotFound)

	_, err = f.svc.SavePost(ctx, "acc-2", post.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.UnsavePost(ctx, "acc-2", post.ID))
	assert.Equal(t, 0, f.docs.Len(simplesocial.CollectionSaves))

	assert.Equal(t, []bool{true, false}, events)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Interactions().WithLabelValues("save")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Interactions().WithLabelValues("unsave")))
}

func TestDeleteSavedPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.publish(t, "acc-1", "saved")

	record, err := f.svc.SavePost(ctx, "acc-2", post.ID)
	require.NoError(t, err)

	err = f.svc.DeleteSavedPost(ctx, "acc-3", record.ID)
	assert.ErrorIs(t, err, simplesocial.ErrDocumentNotFound, "records of other users are hidden")
	assert.Equal(t, 1, f.docs.Len(simplesocial.CollectionSaves))

	require.NoError(t, f.svc.DeleteSavedPost(ctx, "acc-2", record.ID))
	assert.Equal(t, 0, f.docs.Len(simplesocial.CollectionSaves))

	err = f.svc.DeleteSavedPost(ctx, "acc-2", record.ID)
	assert.ErrorIs(t, err, simplesocial.ErrDocumentNotFound)
}

func TestToggleSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.publish(t, "acc-1", "toggle save")

	saved, err := f.svc.ToggleSave(ctx, "acc-2", post.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = f.svc.ToggleSave(ctx, "acc-2", post.ID)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, 0, f.docs.Len(simplesocial.CollectionSaves))

	saved, err = f.svc.ToggleSave(ctx, "acc-2", post.ID)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 1, f.docs.Len(simplesocial.CollectionSaves))
}
