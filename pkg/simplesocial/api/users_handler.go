package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-social/pkg/simplesocial"
)

// CreateUserRequest is the request body for creating the caller's profile
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	ImageURL string `json:"imageUrl" validate:"omitempty,http_url"`
	Bio      string `json:"bio" validate:"max=500"`
}

// CreateUser creates the profile of the signed-in account
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, "create_user", invalidRequest("body", "body must be a JSON object"))
		return
	}
	if err := h.validator.Validate(req); err != nil {
		h.writeError(w, r, "create_user", err)
		return
	}

	profile, err := h.service.CreateUserProfile(r.Context(), simplesocial.CreateUserProfileRequest{
		AccountID: AccountID(r.Context()),
		Name:      req.Name,
		Username:  req.Username,
		Email:     req.Email,
		ImageURL:  req.ImageURL,
		Bio:       req.Bio,
	})
	if err != nil {
		h.writeError(w, r, "create_user", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, profile)
}

// ListUsers returns profiles newest first, capped by the optional limit parameter
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.writeError(w, r, "list_users", err)
		return
	}
	users, err := h.service.ListUsers(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, "list_users", err)
		return
	}
	render.JSON(w, r, users)
}

// GetCurrentUser returns the caller's profile with its saves
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetCurrentUser(r.Context(), AccountID(r.Context()))
	if err != nil {
		h.writeError(w, r, "current_user", err)
		return
	}
	render.JSON(w, r, user)
}
