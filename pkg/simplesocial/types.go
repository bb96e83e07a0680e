package simplesocial

import (
	"io"
	"time"
)

// Collection names in the document store.
const (
	CollectionPosts = "posts"
	CollectionUsers = "users"
	CollectionSaves = "saves"
)

// Server-assigned document metadata fields. They are accepted as OrderBy and
// Field values in a Query.
const (
	FieldID        = "$id"
	FieldCreatedAt = "$createdAt"
	FieldUpdatedAt = "$updatedAt"
)

// Post document fields. The names are shared with data already stored by
// other clients and must not change.
const (
	PostFieldCreator  = "creator"
	PostFieldCaption  = "caption"
	PostFieldImageURL = "imageUrl"
	PostFieldImageID  = "imageId"
	PostFieldLocation = "location"
	PostFieldTags     = "tags"
	PostFieldLikes    = "likes"
)

// User document fields.
const (
	UserFieldAccountID = "accountId"
	UserFieldName      = "name"
	UserFieldUsername  = "username"
	UserFieldEmail     = "email"
	UserFieldImageURL  = "imageUrl"
	UserFieldBio       = "bio"
	UserFieldPosts     = "posts"
)

// Saved-post document fields.
const (
	SaveFieldUser = "user"
	SaveFieldPost = "posts"
)

// MaxDisplayURLLength is the longest display URL a post may reference.
const MaxDisplayURLLength = 2000

// RecentPostsLimit is the page size of the recent posts feed.
const RecentPostsLimit = 20

// Gravity selects the anchor of a preview crop box.
type Gravity string

// Gravity constants (typed).
const (
	GravityCenter Gravity = "center"
	GravityTop    Gravity = "top"
	GravityBottom Gravity = "bottom"
	GravityLeft   Gravity = "left"
	GravityRight  Gravity = "right"
)

// IsValid reports whether g is a known gravity.
func (g Gravity) IsValid() bool {
	switch g {
	case GravityCenter, GravityTop, GravityBottom, GravityLeft, GravityRight:
		return true
	}
	return false
}

// PreviewTransform holds the provider-side transform applied to an asset when
// deriving its display URL.
type PreviewTransform struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Gravity Gravity `json:"gravity"`
	Quality int     `json:"quality"`
}

// DefaultPreviewTransform is the transform used for post media.
var DefaultPreviewTransform = PreviewTransform{
	Width:   2000,
	Height:  2000,
	Gravity: GravityTop,
	Quality: 100,
}

// MediaAsset is an opaque handle to a blob stored by a BlobStore.
type MediaAsset struct {
	ID          string `json:"id"`
	Backend     string `json:"backend,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// AssetMeta contains metadata about a stored asset
type AssetMeta struct {
	ID          string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// UploadParams contains parameters for uploading an asset
type UploadParams struct {
	Reader      io.Reader
	ContentType string
	FileName    string
}

// Fields is a set of document attributes keyed by persisted field name.
type Fields map[string]any

// Document is a record in a schema-flexible collection.
type Document struct {
	ID         string    `json:"$id"`
	Collection string    `json:"$collection"`
	CreatedAt  time.Time `json:"$createdAt"`
	UpdatedAt  time.Time `json:"$updatedAt"`
	Fields     Fields    `json:"fields"`
}

// Query selects documents by a single equality match with optional ordering
// and limit. An empty Field matches every document in the collection.
type Query struct {
	Field      string
	Value      any
	OrderBy    string
	Descending bool
	Limit      int
}

// Post is a published media post.
//
// CreatorID is the creator's account id, not the id of their profile document.
type Post struct {
	ID        string    `json:"id"`
	CreatorID string    `json:"creator"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"imageUrl"`
	ImageID   string    `json:"imageId"`
	Location  string    `json:"location"`
	Tags      []string  `json:"tags"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsLikedBy reports whether userID is in the post's likes.
func (p *Post) IsLikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// UserProfile is the profile document of an account.
type UserProfile struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	ImageURL  string    `json:"imageUrl"`
	Bio       string    `json:"bio"`
	PostIDs   []string  `json:"posts"`
	CreatedAt time.Time `json:"createdAt"`
}

// SavedPostRecord marks a post as saved by a user.
type SavedPostRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	PostID    string    `json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CurrentUser is a profile together with the posts it has saved.
type CurrentUser struct {
	UserProfile
	Saves []*SavedPostRecord `json:"saves"`
}

// PostCreator is the creator summary attached to an enriched post.
type PostCreator struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// PostWithCreator is a post joined with its creator's profile summary.
type PostWithCreator struct {
	Post
	Creator PostCreator `json:"creator"`
}

// Placeholder creator names used when enrichment cannot resolve a profile.
const (
	UnknownCreatorName = "Unknown User"
	ErrorCreatorName   = "Error fetching user"
)
