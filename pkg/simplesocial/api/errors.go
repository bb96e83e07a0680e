package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-social/pkg/simplesocial"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// StatusFor maps a service error to an HTTP status
func StatusFor(err error) int {
	var (
		validation *simplesocial.ValidationFault
		storage    *simplesocial.StorageFault
		preview    *simplesocial.PreviewFault
		invalid    *InvalidRequestError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, simplesocial.ErrMissingFile), errors.Is(err, simplesocial.ErrMissingCreator):
		return http.StatusBadRequest
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case simplesocial.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &storage), errors.As(err, &preview):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError renders err with the status StatusFor picks. Server-side faults
// are logged, their text is still returned to the caller.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "op", op, "status", status, "err", err)
	}

	resp := ErrorResponse{Error: err.Error()}
	var invalid *InvalidRequestError
	if errors.As(err, &invalid) {
		resp.Fields = invalid.Fields
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
