package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// GetMedia streams a stored asset. Display URLs built by the app-routed
// preview strategy point here; their transform parameters are accepted and
// ignored.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		writeStatus(w, r, http.StatusNotFound, "media is not served by this deployment")
		return
	}

	assetID := chi.URLParam(r, "*")
	if assetID == "" {
		writeStatus(w, r, http.StatusNotFound, "asset id is required")
		return
	}

	meta, err := h.media.GetAssetMeta(r.Context(), assetID)
	if err != nil {
		h.writeError(w, r, "get_media", err)
		return
	}
	if meta.ETag != "" && r.Header.Get("If-None-Match") == meta.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	body, err := h.media.Download(r.Context(), assetID)
	if err != nil {
		h.writeError(w, r, "get_media", err)
		return
	}
	defer body.Close()

	if meta.ContentType != "" {
		w.Header().Set("Content-Type", meta.ContentType)
	}
	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	if meta.ETag != "" {
		w.Header().Set("ETag", meta.ETag)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "media stream interrupted", "asset_id", assetID, "err", err)
	}
}
