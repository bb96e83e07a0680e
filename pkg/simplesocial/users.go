package simplesocial

import (
	"context"
	"fmt"
)

// CreateUserProfile creates the profile document of an account. A profile
// without an image gets a placeholder avatar when an avatar function is
// configured.
func (s *service) CreateUserProfile(ctx context.Context, req CreateUserProfileRequest) (*UserProfile, error) {
	if req.AccountID == "" {
		return nil, &ValidationFault{Field: UserFieldAccountID, Reason: "account id is required"}
	}

	existing, err := s.findUserDocument(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ValidationFault{
			Field:  UserFieldAccountID,
			Value:  req.AccountID,
			Reason: "account already has a profile",
		}
	}

	imageURL := req.ImageURL
	if imageURL == "" && s.avatarURL != nil {
		imageURL = s.avatarURL(req.Name)
	}

	doc, err := s.documents.CreateDocument(ctx, CollectionUsers, Fields{
		UserFieldAccountID: req.AccountID,
		UserFieldName:      req.Name,
		UserFieldUsername:  req.Username,
		UserFieldEmail:     req.Email,
		UserFieldImageURL:  imageURL,
		UserFieldBio:       req.Bio,
		UserFieldPosts:     []string{},
	})
	if err != nil {
		err = documentFault(CollectionUsers, "create", err)
		s.hooks.executeError(ctx, "create_user", err)
		return nil, err
	}

	s.invalidate(ctx, QueryKeyUsers, QueryKeyCurrentUser)
	s.logger.InfoContext(ctx, "user profile created", "account_id", req.AccountID, "user_id", doc.ID)
	return userFromDocument(doc), nil
}

// GetUserByAccountID fetches the profile of an account.
func (s *service) GetUserByAccountID(ctx context.Context, accountID string) (*UserProfile, error) {
	tags := []QueryKey{QueryKeyUsers, QueryKeyCurrentUser, CurrentUserKey(accountID)}
	return cachedRead(ctx, s, "user:account:"+accountID, tags, func(ctx context.Context) (*UserProfile, error) {
		doc, err := s.findUserDocument(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, &DocumentFault{
				Collection: CollectionUsers,
				Op:         "find_by_account",
				Reason:     fmt.Sprintf("no profile for account %s", accountID),
				Err:        ErrDocumentNotFound,
			}
		}
		return userFromDocument(doc), nil
	})
}

// GetCurrentUser returns the profile of the signed-in account together with
// its save records.
func (s *service) GetCurrentUser(ctx context.Context, accountID string) (*CurrentUser, error) {
	tags := []QueryKey{QueryKeyCurrentUser, CurrentUserKey(accountID)}
	return cachedRead(ctx, s, "current-user:"+accountID, tags, func(ctx context.Context) (*CurrentUser, error) {
		profile, err := s.GetUserByAccountID(ctx, accountID)
		if err != nil {
			return nil, err
		}

		docs, err := s.documents.GetDocumentsWhere(ctx, CollectionSaves, Query{
			Field:      SaveFieldUser,
			Value:      accountID,
			OrderBy:    FieldCreatedAt,
			Descending: true,
		})
		if err != nil {
			return nil, documentFault(CollectionSaves, "list", err)
		}

		saves := make([]*SavedPostRecord, 0, len(docs))
		for _, doc := range docs {
			saves = append(saves, savedPostFromDocument(doc))
		}
		return &CurrentUser{UserProfile: *profile, Saves: saves}, nil
	})
}

// ListUsers returns up to limit profiles, newest first. A limit of zero or
// less lists every profile.
func (s *service) ListUsers(ctx context.Context, limit int) ([]*UserProfile, error) {
	if limit < 0 {
		limit = 0
	}
	key := fmt.Sprintf("users:list:%d", limit)
	return cachedRead(ctx, s, key, []QueryKey{QueryKeyUsers}, func(ctx context.Context) ([]*UserProfile, error) {
		docs, err := s.documents.GetDocumentsWhere(ctx, CollectionUsers, Query{
			OrderBy:    FieldCreatedAt,
			Descending: true,
			Limit:      limit,
		})
		if err != nil {
			return nil, documentFault(CollectionUsers, "list", err)
		}
		users := make([]*UserProfile, 0, len(docs))
		for _, doc := range docs {
			users = append(users, userFromDocument(doc))
		}
		return users, nil
	})
}
