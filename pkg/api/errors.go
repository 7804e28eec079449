package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/reqlab/reqlab/internal/storage"
	"github.com/reqlab/reqlab/pkg/httputil"
)

// Messages returned to clients for failures whose cause stays server-side.
const (
	ErrMsgInternalError = "An internal error occurred"
	ErrMsgInvalidJSON   = "Invalid JSON in request body"
	ErrMsgNotFound      = "Resource not found"
	ErrMsgConflict      = "Resource already exists"
	ErrMsgNoUser        = "Missing " + UserHeader + " header"
	ErrMsgUpstream      = "Failed to reach the target server"
)

// writeDecodeError reports a request body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, httputil.ErrEmptyBody) {
		httputil.WriteBadRequest(w, "invalid_request", "Request body is required")
		return
	}
	httputil.WriteBadRequest(w, "invalid_json", ErrMsgInvalidJSON)
}

// writeStoreError maps storage errors to responses. Unknown errors are
// logged with operation and details and reported as a generic 500.
func writeStoreError(w http.ResponseWriter, log *slog.Logger, err error, operation string, details ...any) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httputil.WriteNotFound(w, "not_found", ErrMsgNotFound)
	case errors.Is(err, storage.ErrDuplicate):
		httputil.WriteError(w, http.StatusConflict, "conflict", ErrMsgConflict)
	case errors.Is(err, storage.ErrInvalid):
		httputil.WriteBadRequest(w, "invalid_request", err.Error())
	default:
		args := append([]any{"operation", operation, "error", err}, details...)
		log.Error("operation failed", args...)
		httputil.WriteInternalError(w, "internal_error", ErrMsgInternalError)
	}
}
