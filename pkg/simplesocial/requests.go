package simplesocial

import "io"

// Request DTOs

// CreatePostRequest contains parameters for publishing a post.
//
// Tags is the raw comma separated tag string as typed by the user; it is
// normalized by ParseTags. Caption and Location are stored verbatim.
type CreatePostRequest struct {
	CreatorID   string
	Caption     string
	Location    string
	Tags        string
	File        io.Reader
	FileName    string
	ContentType string
}

// CreateUserProfileRequest contains parameters for creating a user profile
// for an account already known to the identity provider.
type CreateUserProfileRequest struct {
	AccountID string
	Name      string
	Username  string
	Email     string
	ImageURL  string
	Bio       string
}
