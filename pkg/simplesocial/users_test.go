package simplesocial_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/preview"
)

func TestCreateUserProfile(t *testing.T) {
	f := newFixture(t, simplesocial.WithAvatarURLFunc(func(name string) string {
		return preview.InitialsAvatarURL("https://avatars.example.com", name)
	}))
	ctx := context.Background()

	profile, err := f.svc.CreateUserProfile(ctx, simplesocial.CreateUserProfileRequest{
		AccountID: "acc-1",
		Name:      "Jane Doe",
		Username:  "jane",
		Email:     "jane@example.com",
		Bio:       "photos",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "acc-1", profile.AccountID)
	assert.Equal(t, "https://avatars.example.com/avatars/initials?name=JD", profile.ImageURL)
	assert.Equal(t, []string{}, profile.PostIDs)

	withImage, err := f.svc.CreateUserProfile(ctx, simplesocial.CreateUserProfileRequest{
		AccountID: "acc-2",
		Name:      "Sam",
		ImageURL:  "https://img.example.com/sam.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/sam.png", withImage.ImageURL)
}

func TestCreateUserProfile_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateUserProfile(ctx, simplesocial.CreateUserProfileRequest{Name: "Nobody"})
	var fault *simplesocial.ValidationFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, simplesocial.UserFieldAccountID, fault.Field)

	f.createProfile(t, "acc-1", "Jane Doe")
	_, err = f.svc.CreateUserProfile(ctx, simplesocial.CreateUserProfileRequest{AccountID: "acc-1", Name: "Impostor"})
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, 1, f.docs.Len(simplesocial.CollectionUsers))
}

func TestGetUserByAccountID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetUserByAccountID(context.Background(), "acc-missing")
	assert.ErrorIs(t, err, simplesocial.ErrDocumentNotFound)
}

func TestGetCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createProfile(t, "acc-1", "Jane Doe")
	first := f.publish(t, "acc-1", "one")
	second := f.publish(t, "acc-1", "two")

	_, err := f.svc.SavePost(ctx, "acc-1", first.ID)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = f.svc.SavePost(ctx, "acc-1", second.ID)
	require.NoError(t, err)
	// saves of other users are not included
	_, err = f.svc.SavePost(ctx, "acc-2", first.ID)
	require.NoError(t, err)

	current, err := f.svc.GetCurrentUser(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", current.Name)
	assert.Equal(t, []string{first.ID, second.ID}, current.PostIDs)
	require.Len(t, current.Saves, 2)
	assert.Equal(t, second.ID, current.Saves[0].PostID, "newest save first")
	assert.Equal(t, first.ID, current.Saves[1].PostID)

	_, err = f.svc.GetCurrentUser(ctx, "acc-missing")
	assert.True(t, simplesocial.IsNotFound(err))
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, acc := range []string{"acc-1", "acc-2", "acc-3"} {
		f.createProfile(t, acc, "User "+acc)
		time.Sleep(time.Millisecond)
	}

	users, err := f.svc.ListUsers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "acc-3", users[0].AccountID)

	users, err = f.svc.ListUsers(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
