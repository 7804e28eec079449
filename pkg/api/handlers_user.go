package api

import (
	"net/http"
	"strings"

	"github.com/reqlab/reqlab/internal/storage"
	"github.com/reqlab/reqlab/pkg/api/types"
	"github.com/reqlab/reqlab/pkg/httputil"
)

// userStore scopes the store to the caller, or writes a 401 when the user
// header is missing.
func (s *Server) userStore(w http.ResponseWriter, r *http.Request) (*storage.UserStore, bool) {
	userID := strings.TrimSpace(r.Header.Get(UserHeader))
	if userID == "" {
		httputil.WriteUnauthorized(w, ErrMsgNoUser)
		return nil, false
	}
	return storage.ForUser(s.store, userID), true
}

// Saved requests

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	items, err := us.ListRequests(r.Context())
	if err != nil {
		writeStoreError(w, s.log, err, "list requests")
		return
	}
	httputil.WriteOK(w, types.NewList(items))
}

func (s *Server) handleSaveRequest(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	var body types.SaveRequestBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	if body.Request == nil {
		httputil.WriteBadRequest(w, "invalid_request", "request is required")
		return
	}

	saved, updated, err := us.SaveRequest(r.Context(), body.Name, body.Request)
	if err != nil {
		writeStoreError(w, s.log, err, "save request")
		return
	}

	resp := types.SaveRequestResponse{Updated: updated, Item: saved}
	if updated {
		httputil.WriteOK(w, resp)
		return
	}
	httputil.WriteCreated(w, resp)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	saved, err := us.GetRequest(r.Context(), id)
	if err != nil {
		writeStoreError(w, s.log, err, "get request", "id", id)
		return
	}
	httputil.WriteOK(w, saved)
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := us.DeleteRequest(r.Context(), id); err != nil {
		writeStoreError(w, s.log, err, "delete request", "id", id)
		return
	}
	httputil.WriteNoContent(w)
}

// Collections

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	items, err := us.ListCollections(r.Context())
	if err != nil {
		writeStoreError(w, s.log, err, "list collections")
		return
	}
	httputil.WriteOK(w, types.NewList(items))
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	var body types.CollectionBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}

	c, err := us.CreateCollection(r.Context(), body.Name)
	if err != nil {
		writeStoreError(w, s.log, err, "create collection", "name", body.Name)
		return
	}
	httputil.WriteCreated(w, c)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	c, err := us.GetCollection(r.Context(), id)
	if err != nil {
		writeStoreError(w, s.log, err, "get collection", "id", id)
		return
	}
	httputil.WriteOK(w, c)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := us.DeleteCollection(r.Context(), id); err != nil {
		writeStoreError(w, s.log, err, "delete collection", "id", id)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleAddToCollection(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	var body types.CollectionMemberBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	if body.RequestID == "" {
		httputil.WriteBadRequest(w, "invalid_request", "requestId is required")
		return
	}

	id := r.PathValue("id")
	if err := us.AddToCollection(r.Context(), id, body.RequestID); err != nil {
		writeStoreError(w, s.log, err, "add to collection", "id", id, "requestId", body.RequestID)
		return
	}
	c, err := us.GetCollection(r.Context(), id)
	if err != nil {
		writeStoreError(w, s.log, err, "get collection", "id", id)
		return
	}
	httputil.WriteOK(w, c)
}

func (s *Server) handleRemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	id, requestID := r.PathValue("id"), r.PathValue("requestId")
	if err := us.RemoveFromCollection(r.Context(), id, requestID); err != nil {
		writeStoreError(w, s.log, err, "remove from collection", "id", id, "requestId", requestID)
		return
	}
	httputil.WriteNoContent(w)
}

// History

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	items, err := us.ListHistory(r.Context())
	if err != nil {
		writeStoreError(w, s.log, err, "list history")
		return
	}
	httputil.WriteOK(w, types.NewList(items))
}
