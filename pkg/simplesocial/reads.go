package simplesocial

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// GetRecentPosts returns the newest posts, newest first.
func (s *service) GetRecentPosts(ctx context.Context) ([]*Post, error) {
	return cachedRead(ctx, s, "posts:recent", []QueryKey{QueryKeyRecentPosts, QueryKeyPosts}, func(ctx context.Context) ([]*Post, error) {
		return s.queryPosts(ctx, RecentPostsLimit)
	})
}

// ListPosts returns up to limit posts, newest first. A limit of zero or less
// lists every post.
func (s *service) ListPosts(ctx context.Context, limit int) ([]*Post, error) {
	if limit < 0 {
		limit = 0
	}
	key := fmt.Sprintf("posts:list:%d", limit)
	return cachedRead(ctx, s, key, []QueryKey{QueryKeyPosts}, func(ctx context.Context) ([]*Post, error) {
		return s.queryPosts(ctx, limit)
	})
}

func (s *service) queryPosts(ctx context.Context, limit int) ([]*Post, error) {
	docs, err := s.documents.GetDocumentsWhere(ctx, CollectionPosts, Query{
		OrderBy:    FieldCreatedAt,
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, documentFault(CollectionPosts, "list", err)
	}
	return postsFromDocuments(docs), nil
}

// GetPostByID fetches one post.
func (s *service) GetPostByID(ctx context.Context, postID string) (*Post, error) {
	tags := []QueryKey{QueryKeyPostByID, PostByIDKey(postID)}
	return cachedRead(ctx, s, "post:"+postID, tags, func(ctx context.Context) (*Post, error) {
		doc, err := s.documents.GetDocument(ctx, CollectionPosts, postID)
		if err != nil {
			return nil, documentFault(CollectionPosts, "get", err)
		}
		return postFromDocument(doc), nil
	})
}

// GetRecentPostsWithCreators returns the recent feed with each post joined to
// its creator's profile summary.
//
// Creator lookups run concurrently. A post whose creator has no profile gets
// UnknownCreatorName, a post whose lookup failed gets ErrorCreatorName; one
// failed lookup never fails the feed. The output order matches the feed.
func (s *service) GetRecentPostsWithCreators(ctx context.Context) ([]*PostWithCreator, error) {
	posts, err := s.GetRecentPosts(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrichWithCreators(ctx, posts), nil
}

func (s *service) enrichWithCreators(ctx context.Context, posts []*Post) []*PostWithCreator {
	out := make([]*PostWithCreator, len(posts))

	var g errgroup.Group
	g.SetLimit(s.enrichmentConcurrency)
	for i, post := range posts {
		i, post := i, post
		g.Go(func() error {
			out[i] = &PostWithCreator{Post: *post, Creator: s.lookupCreator(ctx, post.CreatorID)}
			return nil
		})
	}
	// lookups report through their placeholder, never through the group
	_ = g.Wait()

	return out
}

func (s *service) lookupCreator(ctx context.Context, accountID string) PostCreator {
	creator := PostCreator{AccountID: accountID}

	doc, err := s.findUserDocument(ctx, accountID)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "creator lookup failed", "account_id", accountID, "err", err)
		s.metrics.recordCreatorLookup("error")
		creator.Name = ErrorCreatorName
	case doc == nil:
		s.metrics.recordCreatorLookup("unknown")
		creator.Name = UnknownCreatorName
	default:
		s.metrics.recordCreatorLookup("found")
		profile := userFromDocument(doc)
		creator.Name = profile.Name
		creator.ImageURL = profile.ImageURL
	}
	return creator
}

// findUserDocument returns the profile document of accountID, or nil when
// the account has no profile.
func (s *service) findUserDocument(ctx context.Context, accountID string) (*Document, error) {
	docs, err := s.documents.GetDocumentsWhere(ctx, CollectionUsers, Query{
		Field: UserFieldAccountID,
		Value: accountID,
		Limit: 1,
	})
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, documentFault(CollectionUsers, "find_by_account", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}
