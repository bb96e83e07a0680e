package api

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/tendant/simple-social/pkg/simplesocial"
)

// DefaultMaxUploadBytes caps the multipart body of a new post.
const DefaultMaxUploadBytes int64 = 32 << 20

// MediaSource streams stored assets for the app-routed media route.
type MediaSource interface {
	GetAssetMeta(ctx context.Context, assetID string) (*simplesocial.AssetMeta, error)
	Download(ctx context.Context, assetID string) (io.ReadCloser, error)
}

// Handler serves the simple-social HTTP API
type Handler struct {
	service        simplesocial.Service
	media          MediaSource
	auth           *jwtauth.JWTAuth
	validator      *Validator
	logger         *slog.Logger
	maxUploadBytes int64
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithAuth sets the HS256 verifier of session tokens. Without it every route
// that needs a signed-in account answers 401.
func WithAuth(auth *jwtauth.JWTAuth) HandlerOption {
	return func(h *Handler) {
		h.auth = auth
	}
}

// WithMediaSource enables GET /media/* over a store that can stream assets
func WithMediaSource(media MediaSource) HandlerOption {
	return func(h *Handler) {
		h.media = media
	}
}

// WithLogger sets the handler logger
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMaxUploadBytes caps the body of POST /posts. Values below 1 are ignored.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler creates a new API handler
func NewHandler(service simplesocial.Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:        service,
		validator:      NewValidator(),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Routes returns the routes of the API, meant to be mounted at /api/v1
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.auth != nil {
		r.Use(jwtauth.Verifier(h.auth))
	}

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/recent", h.GetRecentPosts)
	r.Get("/posts/recent/creators", h.GetRecentPostsWithCreators)
	r.Get("/posts/{postID}", h.GetPost)
	r.Get("/users", h.ListUsers)
	r.Get("/media/*", h.GetMedia)

	r.Group(func(r chi.Router) {
		r.Use(RequireAccount)

		r.Post("/posts", h.CreatePost)
		r.Put("/posts/{postID}/likes", h.SetLikes)
		r.Post("/posts/{postID}/like", h.ToggleLike)
		r.Post("/posts/{postID}/save", h.SavePost)
		r.Delete("/posts/{postID}/save", h.UnsavePost)
		r.Post("/posts/{postID}/save/toggle", h.ToggleSave)
		r.Delete("/saves/{saveID}", h.DeleteSave)

		r.Post("/users", h.CreateUser)
		r.Get("/users/current", h.GetCurrentUser)
	})

	return r
}
