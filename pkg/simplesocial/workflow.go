package simplesocial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// PublishStep is a state of the post publication workflow.
type PublishStep string

// Publication workflow steps (typed).
const (
	StepStart             PublishStep = "start"
	StepUploading         PublishStep = "uploading"
	StepPreviewing        PublishStep = "previewing"
	StepValidatingURL     PublishStep = "validating_url"
	StepCreatingPost      PublishStep = "creating_post"
	StepBackpatchingOwner PublishStep = "backpatching_owner"
	StepCompensating      PublishStep = "compensating"
	StepSucceeded         PublishStep = "succeeded"
	StepFailed            PublishStep = "failed"
)

// publication tracks one run of the workflow.
type publication struct {
	s       *service
	logger  *slog.Logger
	step    PublishStep
	failed  PublishStep
	assetID string
}

func (p *publication) enter(ctx context.Context, next PublishStep) {
	from := p.step
	p.step = next
	p.logger.DebugContext(ctx, "publication step", "from", from, "to", next)
	p.s.hooks.executeStepChange(ctx, from, next)
}

// fail records the step that failed, runs compensation when an asset is
// already committed and returns cause unchanged.
func (p *publication) fail(ctx context.Context, cause error) error {
	p.failed = p.step
	if p.assetID != "" {
		p.enter(ctx, StepCompensating)
		p.s.compensate(ctx, p.logger, p.assetID, cause)
	}
	p.enter(ctx, StepFailed)
	p.logger.ErrorContext(ctx, "post publication failed", "step", p.failed, "err", cause)
	p.s.hooks.executeError(ctx, "create_post", cause)
	return cause
}

// CreatePost runs the publication workflow:
//
//	UPLOADING -> PREVIEWING -> VALIDATING_URL -> CREATING_POST -> BACKPATCHING_OWNER
//
// Once the upload succeeded, any later failure deletes the asset before the
// fault is returned. A failure to backpatch the creator's post list is logged
// and the post is still returned.
func (s *service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	started := time.Now()
	p := &publication{
		s:      s,
		logger: s.logger.With("creator", req.CreatorID),
		step:   StepStart,
	}

	post, err := p.run(ctx, &req)
	if err != nil {
		s.metrics.recordPublish(p.failed, time.Since(started), err)
		return nil, err
	}
	s.metrics.recordPublish(StepSucceeded, time.Since(started), nil)
	return post, nil
}

func (p *publication) run(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	s := p.s

	if req.CreatorID == "" {
		return nil, p.fail(ctx, ErrMissingCreator)
	}
	if req.File == nil {
		return nil, p.fail(ctx, ErrMissingFile)
	}
	if err := s.hooks.executeBeforePostCreate(ctx, req); err != nil {
		return nil, p.fail(ctx, fmt.Errorf("before create hook: %w", err))
	}

	p.enter(ctx, StepUploading)
	asset, err := s.blobs.Upload(ctx, UploadParams{
		Reader:      req.File,
		ContentType: req.ContentType,
		FileName:    req.FileName,
	})
	if err != nil {
		return nil, p.fail(ctx, storageFault("upload", "", err))
	}
	p.assetID = asset.ID
	p.logger = p.logger.With("asset_id", asset.ID)

	p.enter(ctx, StepPreviewing)
	displayURL, err := s.previewer.DerivePreviewURL(ctx, asset.ID, s.previewTransform)
	if err != nil {
		var fault *PreviewFault
		if !errors.As(err, &fault) {
			err = &PreviewFault{AssetID: asset.ID, Err: err}
		}
		return nil, p.fail(ctx, err)
	}

	p.enter(ctx, StepValidatingURL)
	if err := ValidateDisplayURL(displayURL); err != nil {
		return nil, p.fail(ctx, err)
	}

	p.enter(ctx, StepCreatingPost)
	doc, err := s.documents.CreateDocument(ctx, CollectionPosts, Fields{
		PostFieldCreator:  req.CreatorID,
		PostFieldCaption:  req.Caption,
		PostFieldImageURL: displayURL,
		PostFieldImageID:  asset.ID,
		PostFieldLocation: req.Location,
		PostFieldTags:     ParseTags(req.Tags),
		PostFieldLikes:    []string{},
	})
	if err != nil {
		return nil, p.fail(ctx, documentFault(CollectionPosts, "create", err))
	}
	post := postFromDocument(doc)
	// From here on the asset is owned by the post.
	p.assetID = ""

	invalidated := []QueryKey{QueryKeyRecentPosts, QueryKeyPosts, QueryKeyCurrentUser}
	p.enter(ctx, StepBackpatchingOwner)
	if err := s.backpatchOwner(ctx, req.CreatorID, post.ID); err != nil {
		s.metrics.recordBackpatchFailure()
		p.logger.WarnContext(ctx, "post published but missing from creator post list", "post_id", post.ID, "err", err)
		s.hooks.executeError(ctx, "backpatch_owner", err)
	} else {
		// the creator's profile changed, and with it every cached user list
		invalidated = append(invalidated, QueryKeyUsers)
	}

	p.enter(ctx, StepSucceeded)
	s.invalidate(ctx, invalidated...)

	if err := s.hooks.executeAfterPostCreate(ctx, post); err != nil {
		p.logger.WarnContext(ctx, "after create hook failed", "post_id", post.ID, "err", err)
	}
	p.logger.InfoContext(ctx, "post published", "post_id", post.ID)
	return post, nil
}

// backpatchOwner appends postID to the post list of the profile owned by
// accountID. The read and the write are separate calls, so a concurrent
// publication by the same creator can lose an entry.
func (s *service) backpatchOwner(ctx context.Context, accountID, postID string) error {
	owner, err := s.findUserDocument(ctx, accountID)
	if err != nil {
		return err
	}
	if owner == nil {
		return &DocumentFault{
			Collection: CollectionUsers,
			Op:         "backpatch",
			Reason:     fmt.Sprintf("no profile for account %s", accountID),
			Err:        ErrDocumentNotFound,
		}
	}

	postIDs := append(stringSliceField(owner.Fields, UserFieldPosts), postID)
	if _, err := s.documents.UpdateDocument(ctx, CollectionUsers, owner.ID, Fields{UserFieldPosts: postIDs}); err != nil {
		return documentFault(CollectionUsers, "backpatch", err)
	}
	return nil
}

// compensate deletes an asset whose post could not be published. It runs on
// a context that survives caller cancellation; its own failure is logged and
// counted but never replaces cause.
func (s *service) compensate(ctx context.Context, logger *slog.Logger, assetID string, cause error) {
	cctx := context.WithoutCancel(ctx)
	err := s.blobs.Delete(cctx, assetID)
	s.metrics.recordCompensation(err)
	s.hooks.executeCompensate(cctx, assetID, cause, err)
	if err != nil {
		logger.ErrorContext(cctx, "compensation failed, asset left orphaned", "cause", cause, "err", err)
		return
	}
	logger.InfoContext(cctx, "compensation deleted asset", "cause", cause)
}

// ValidateDisplayURL checks a derived display URL before it is stored on a
// post. Empty, relative and over-long URLs are rejected with a
// *ValidationFault.
func ValidateDisplayURL(displayURL string) error {
	if displayURL == "" {
		return &ValidationFault{Field: PostFieldImageURL, Reason: "display url is empty", Err: ErrInvalidURL}
	}
	if len(displayURL) > MaxDisplayURLLength {
		return &ValidationFault{
			Field:  PostFieldImageURL,
			Value:  displayURL[:64] + "...",
			Reason: fmt.Sprintf("display url has %d characters, limit is %d", len(displayURL), MaxDisplayURLLength),
			Err:    ErrURLTooLong,
		}
	}
	u, err := url.Parse(displayURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ValidationFault{Field: PostFieldImageURL, Value: displayURL, Reason: "display url is not absolute", Err: ErrInvalidURL}
	}
	return nil
}

func storageFault(op, assetID string, err error) error {
	var fault *StorageFault
	if errors.As(err, &fault) {
		return err
	}
	return &StorageFault{AssetID: assetID, Op: op, Err: err}
}
