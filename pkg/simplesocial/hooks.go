package simplesocial

import (
	"context"
)

// Hook system allows extending publication behavior without modifying core code.
// Hooks are called at specific points in the post lifecycle.

// Hooks defines all available lifecycle hooks
type Hooks struct {
	// Publication hooks
	BeforePostCreate []BeforePostCreateHook
	AfterPostCreate  []AfterPostCreateHook

	// Workflow hooks
	OnStepChange []StepChangeHook
	OnCompensate []CompensateHook

	// Interaction hooks
	AfterLikeChange []AfterLikeChangeHook
	AfterSaveChange []AfterSaveChangeHook

	// Error hooks
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]any // Custom metadata passed between hooks
	StopChain bool           // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]any),
	}
}

// BeforePostCreateHook is called before any remote call of the publication
// workflow. Returning an error aborts the workflow.
type BeforePostCreateHook func(hctx *HookContext, req *CreatePostRequest) error

// AfterPostCreateHook is called after a post is published
type AfterPostCreateHook func(hctx *HookContext, post *Post) error

// StepChangeHook is called on every workflow transition
type StepChangeHook func(hctx *HookContext, from, to PublishStep)

// CompensateHook is called after an uploaded asset was deleted (or failed to
// be deleted) because a later step failed. compErr is nil on success.
type CompensateHook func(hctx *HookContext, assetID string, cause, compErr error)

// AfterLikeChangeHook is called after a post's likes were overwritten
type AfterLikeChangeHook func(hctx *HookContext, post *Post) error

// AfterSaveChangeHook is called after a save record was created or removed
type AfterSaveChangeHook func(hctx *HookContext, userID, postID string, saved bool) error

// ErrorHook is called when an operation fails
type ErrorHook func(hctx *HookContext, operation string, err error)

// Hook execution helpers. A nil *Hooks runs nothing.

func (h *Hooks) executeBeforePostCreate(ctx context.Context, req *CreatePostRequest) error {
	if h == nil || len(h.BeforePostCreate) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforePostCreate {
		if err := hook(hctx, req); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeAfterPostCreate(ctx context.Context, post *Post) error {
	if h == nil || len(h.AfterPostCreate) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterPostCreate {
		if err := hook(hctx, post); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeStepChange(ctx context.Context, from, to PublishStep) {
	if h == nil || len(h.OnStepChange) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnStepChange {
		hook(hctx, from, to)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeCompensate(ctx context.Context, assetID string, cause, compErr error) {
	if h == nil || len(h.OnCompensate) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnCompensate {
		hook(hctx, assetID, cause, compErr)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeAfterLikeChange(ctx context.Context, post *Post) error {
	if h == nil || len(h.AfterLikeChange) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterLikeChange {
		if err := hook(hctx, post); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeAfterSaveChange(ctx context.Context, userID, postID string, saved bool) error {
	if h == nil || len(h.AfterSaveChange) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterSaveChange {
		if err := hook(hctx, userID, postID, saved); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeError(ctx context.Context, operation string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}
