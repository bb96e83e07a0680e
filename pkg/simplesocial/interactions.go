package simplesocial

import (
	"context"
	"fmt"

	"github.com/samber/lo"
)

// LikePost overwrites the likes of a post with a list computed by the caller.
func (s *service) LikePost(ctx context.Context, postID string, likes []string) (*Post, error) {
	if likes == nil {
		likes = []string{}
	}
	doc, err := s.documents.UpdateDocument(ctx, CollectionPosts, postID, Fields{PostFieldLikes: likes})
	if err != nil {
		err = documentFault(CollectionPosts, "like", err)
		s.hooks.executeError(ctx, "like_post", err)
		return nil, err
	}
	post := postFromDocument(doc)

	s.metrics.recordInteraction("like")
	s.invalidate(ctx, PostByIDKey(postID), QueryKeyRecentPosts, QueryKeyPosts, QueryKeyCurrentUser)
	if err := s.hooks.executeAfterLikeChange(ctx, post); err != nil {
		s.logger.WarnContext(ctx, "after like hook failed", "post_id", postID, "err", err)
	}
	return post, nil
}

// ToggleLike adds userID to the likes of a post, or removes it when present.
//
// The post is read, modified and written back in full. Two users toggling the
// same post concurrently can lose one of the updates; the last write wins.
func (s *service) ToggleLike(ctx context.Context, postID, userID string) (*Post, error) {
	doc, err := s.documents.GetDocument(ctx, CollectionPosts, postID)
	if err != nil {
		return nil, documentFault(CollectionPosts, "get", err)
	}
	likes := stringSliceField(doc.Fields, PostFieldLikes)

	if lo.Contains(likes, userID) {
		likes = lo.Without(likes, userID)
	} else {
		likes = append(likes, userID)
	}
	return s.LikePost(ctx, postID, likes)
}

// SavePost records that userID saved postID. Saving twice returns the
// existing record.
func (s *service) SavePost(ctx context.Context, userID, postID string) (*SavedPostRecord, error) {
	existing, err := s.findSaves(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	doc, err := s.documents.CreateDocument(ctx, CollectionSaves, Fields{
		SaveFieldUser: userID,
		SaveFieldPost: postID,
	})
	if err != nil {
		err = documentFault(CollectionSaves, "create", err)
		s.hooks.executeError(ctx, "save_post", err)
		return nil, err
	}

	s.afterSaveChange(ctx, userID, postID, true)
	return savedPostFromDocument(doc), nil
}

// UnsavePost removes every save record of (userID, postID). It fails with a
// not-found fault when the post was not saved.
func (s *service) UnsavePost(ctx context.Context, userID, postID string) error {
	existing, err := s.findSaves(ctx, userID, postID)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return &DocumentFault{
			Collection: CollectionSaves,
			Op:         "unsave",
			Reason:     "post " + postID + " is not saved by " + userID,
			Err:        ErrDocumentNotFound,
		}
	}
	if err := s.deleteSaves(ctx, existing); err != nil {
		return err
	}

	s.afterSaveChange(ctx, userID, postID, false)
	return nil
}

// DeleteSavedPost removes a save record of userID by id. A record owned by
// another user is reported as not found.
func (s *service) DeleteSavedPost(ctx context.Context, userID, recordID string) error {
	doc, err := s.documents.GetDocument(ctx, CollectionSaves, recordID)
	if err != nil {
		return documentFault(CollectionSaves, "get", err)
	}
	record := savedPostFromDocument(doc)
	if record.UserID != userID {
		return &DocumentFault{
			Collection: CollectionSaves,
			Op:         "delete",
			Reason:     fmt.Sprintf("save %s not found for %s", recordID, userID),
			Err:        ErrDocumentNotFound,
		}
	}
	if err := s.deleteSaves(ctx, []*SavedPostRecord{record}); err != nil {
		return err
	}

	s.afterSaveChange(ctx, record.UserID, record.PostID, false)
	return nil
}

// ToggleSave saves postID for userID, or unsaves it when already saved, and
// reports the resulting state.
func (s *service) ToggleSave(ctx context.Context, userID, postID string) (bool, error) {
	existing, err := s.findSaves(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		if err := s.deleteSaves(ctx, existing); err != nil {
			return true, err
		}
		s.afterSaveChange(ctx, userID, postID, false)
		return false, nil
	}

	if _, err := s.SavePost(ctx, userID, postID); err != nil {
		return false, err
	}
	return true, nil
}

// findSaves lists the save records of (userID, postID). The document store
// filters on a single field, so the post match happens here.
func (s *service) findSaves(ctx context.Context, userID, postID string) ([]*SavedPostRecord, error) {
	docs, err := s.documents.GetDocumentsWhere(ctx, CollectionSaves, Query{Field: SaveFieldUser, Value: userID})
	if err != nil {
		return nil, documentFault(CollectionSaves, "list", err)
	}
	records := lo.Map(docs, func(doc *Document, _ int) *SavedPostRecord {
		return savedPostFromDocument(doc)
	})
	return lo.Filter(records, func(r *SavedPostRecord, _ int) bool {
		return r.PostID == postID
	}), nil
}

func (s *service) deleteSaves(ctx context.Context, records []*SavedPostRecord) error {
	for _, record := range records {
		if err := s.documents.DeleteDocument(ctx, CollectionSaves, record.ID); err != nil {
			err = documentFault(CollectionSaves, "delete", err)
			s.hooks.executeError(ctx, "unsave_post", err)
			return err
		}
	}
	return nil
}

func (s *service) afterSaveChange(ctx context.Context, userID, postID string, saved bool) {
	kind := "unsave"
	if saved {
		kind = "save"
	}
	s.metrics.recordInteraction(kind)
	s.invalidate(ctx, QueryKeyRecentPosts, QueryKeyPosts, QueryKeyCurrentUser)
	if err := s.hooks.executeAfterSaveChange(ctx, userID, postID, saved); err != nil {
		s.logger.WarnContext(ctx, "after save hook failed", "post_id", postID, "user_id", userID, "err", err)
	}
}
