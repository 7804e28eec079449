package api

import (
	"errors"
	"net/http"

	"github.com/reqlab/reqlab/pkg/api/types"
	"github.com/reqlab/reqlab/pkg/httputil"
	"github.com/reqlab/reqlab/pkg/share"
)

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var body types.ShareRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}

	link, err := s.shares.Create(r.Context(), body.Type, body.Data, body.ID)
	switch {
	case errors.Is(err, share.ErrInvalidKind),
		errors.Is(err, share.ErrEmptyData),
		errors.Is(err, share.ErrInvalidData),
		errors.Is(err, share.ErrInvalidID):
		httputil.WriteBadRequest(w, "invalid_request", err.Error())
	case errors.Is(err, share.ErrIDTaken):
		httputil.WriteError(w, http.StatusConflict, "conflict", err.Error())
	case err != nil:
		writeStoreError(w, s.log, err, "create share")
	default:
		s.metrics.CountShare(body.Type)
		httputil.WriteCreated(w, types.ShareResponse{
			ID:        link.ID,
			URL:       link.URL,
			ExpiresAt: link.ExpiresAt,
		})
	}
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sh, err := s.shares.Get(r.Context(), id)
	switch {
	case errors.Is(err, share.ErrNotFound):
		httputil.WriteNotFound(w, "not_found", "Share not found")
	case errors.Is(err, share.ErrExpired):
		httputil.WriteGone(w, "expired", "Share has expired")
	case err != nil:
		writeStoreError(w, s.log, err, "get share", "id", id)
	default:
		httputil.WriteOK(w, sh)
	}
}
