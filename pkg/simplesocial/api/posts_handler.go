package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-social/pkg/simplesocial"
)

// CreatePostForm holds the text fields of a multipart post submission
type CreatePostForm struct {
	Caption  string `json:"caption" validate:"max=2200"`
	Location string `json:"location" validate:"max=200"`
	Tags     string `json:"tags" validate:"max=500"`
}

// SetLikesRequest is the request body for overwriting the likes of a post
type SetLikesRequest struct {
	Likes []string `json:"likes" validate:"required,dive,required"`
}

// ToggleSaveResponse reports whether a post is saved after a toggle
type ToggleSaveResponse struct {
	PostID string `json:"postId"`
	Saved  bool   `json:"saved"`
}

// CreatePost publishes a post from a multipart form with a file part named
// "file" and optional caption, location and tags fields.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeStatus(w, r, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		h.writeError(w, r, "create_post", invalidRequest("file", "request must be multipart/form-data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := CreatePostForm{
		Caption:  r.FormValue("caption"),
		Location: r.FormValue("location"),
		Tags:     r.FormValue("tags"),
	}
	if err := h.validator.Validate(form); err != nil {
		h.writeError(w, r, "create_post", err)
		return
	}

	req := simplesocial.CreatePostRequest{
		CreatorID: AccountID(r.Context()),
		Caption:   form.Caption,
		Location:  form.Location,
		Tags:      form.Tags,
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		req.File = file
		req.FileName = header.Filename
		req.ContentType = header.Header.Get("Content-Type")
	case !errors.Is(err, http.ErrMissingFile):
		h.writeError(w, r, "create_post", invalidRequest("file", err.Error()))
		return
	}

	post, err := h.service.CreatePost(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "create_post", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

// GetRecentPosts returns the recent feed
func (h *Handler) GetRecentPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.GetRecentPosts(r.Context())
	if err != nil {
		h.writeError(w, r, "recent_posts", err)
		return
	}
	render.JSON(w, r, posts)
}

// GetRecentPostsWithCreators returns the recent feed joined to creator profiles
func (h *Handler) GetRecentPostsWithCreators(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.GetRecentPostsWithCreators(r.Context())
	if err != nil {
		h.writeError(w, r, "recent_posts_with_creators", err)
		return
	}
	render.JSON(w, r, posts)
}

// ListPosts returns posts newest first, capped by the optional limit parameter
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.writeError(w, r, "list_posts", err)
		return
	}
	posts, err := h.service.ListPosts(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, "list_posts", err)
		return
	}
	render.JSON(w, r, posts)
}

// GetPost returns one post
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPostByID(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.writeError(w, r, "get_post", err)
		return
	}
	render.JSON(w, r, post)
}

// SetLikes overwrites the likes of a post
func (h *Handler) SetLikes(w http.ResponseWriter, r *http.Request) {
	var req SetLikesRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, "like_post", invalidRequest("likes", "body must be a JSON object"))
		return
	}
	if err := h.validator.Validate(req); err != nil {
		h.writeError(w, r, "like_post", err)
		return
	}

	post, err := h.service.LikePost(r.Context(), chi.URLParam(r, "postID"), req.Likes)
	if err != nil {
		h.writeError(w, r, "like_post", err)
		return
	}
	render.JSON(w, r, post)
}

// ToggleLike likes a post for the caller, or takes the like back
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.ToggleLike(r.Context(), chi.URLParam(r, "postID"), AccountID(r.Context()))
	if err != nil {
		h.writeError(w, r, "toggle_like", err)
		return
	}
	render.JSON(w, r, post)
}

// SavePost saves a post for the caller
func (h *Handler) SavePost(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.SavePost(r.Context(), AccountID(r.Context()), chi.URLParam(r, "postID"))
	if err != nil {
		h.writeError(w, r, "save_post", err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, record)
}

// UnsavePost removes the caller's save of a post
func (h *Handler) UnsavePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UnsavePost(r.Context(), AccountID(r.Context()), chi.URLParam(r, "postID")); err != nil {
		h.writeError(w, r, "unsave_post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleSave saves a post for the caller, or unsaves it when already saved
func (h *Handler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	saved, err := h.service.ToggleSave(r.Context(), AccountID(r.Context()), postID)
	if err != nil {
		h.writeError(w, r, "toggle_save", err)
		return
	}
	render.JSON(w, r, ToggleSaveResponse{PostID: postID, Saved: saved})
}

// DeleteSave removes one of the caller's save records by id
func (h *Handler) DeleteSave(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSavedPost(r.Context(), AccountID(r.Context()), chi.URLParam(r, "saveID")); err != nil {
		h.writeError(w, r, "delete_save", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, invalidRequest("limit", "must be a non-negative integer")
	}
	return limit, nil
}
