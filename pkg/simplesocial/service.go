package simplesocial

import (
	"context"
)

// Service defines the main interface for the simple-social library
type Service interface {
	// Post publication
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)

	// Post reads
	GetRecentPosts(ctx context.Context) ([]*Post, error)
	GetRecentPostsWithCreators(ctx context.Context) ([]*PostWithCreator, error)
	ListPosts(ctx context.Context, limit int) ([]*Post, error)
	GetPostByID(ctx context.Context, postID string) (*Post, error)

	// Likes
	LikePost(ctx context.Context, postID string, likes []string) (*Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*Post, error)

	// Saves
	SavePost(ctx context.Context, userID, postID string) (*SavedPostRecord, error)
	UnsavePost(ctx context.Context, userID, postID string) error
	DeleteSavedPost(ctx context.Context, userID, recordID string) error
	ToggleSave(ctx context.Context, userID, postID string) (saved bool, err error)

	// Users
	CreateUserProfile(ctx context.Context, req CreateUserProfileRequest) (*UserProfile, error)
	GetUserByAccountID(ctx context.Context, accountID string) (*UserProfile, error)
	GetCurrentUser(ctx context.Context, accountID string) (*CurrentUser, error)
	ListUsers(ctx context.Context, limit int) ([]*UserProfile, error)
}
