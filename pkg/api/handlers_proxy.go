package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/reqlab/reqlab/internal/storage"
	"github.com/reqlab/reqlab/pkg/httputil"
	"github.com/reqlab/reqlab/pkg/proxy"
	"github.com/reqlab/reqlab/pkg/request"
)

// handleProxy executes a request on the caller's behalf. When the caller is
// identified the outcome is appended to their history.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	var body proxy.Request
	if err := httputil.DecodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}

	method := string(request.ParseMethod(body.Method))
	result, err := s.proxy.Execute(r.Context(), &body)
	switch {
	case errors.Is(err, proxy.ErrMissingField):
		s.metrics.ObserveProxy(method, "invalid", 0)
		httputil.WriteBadRequest(w, "missing_field", err.Error())
		return
	case errors.Is(err, proxy.ErrHostBlocked):
		s.metrics.ObserveProxy(method, "blocked", 0)
		httputil.WriteError(w, http.StatusForbidden, "host_blocked", err.Error())
		return
	case err != nil:
		s.log.Warn("proxy failed", "method", body.Method, "url", body.URL, "error", err)
		s.metrics.ObserveProxy(method, "error", 0)
		httputil.WriteBadGateway(w, "upstream_error", ErrMsgUpstream)
		return
	}

	s.metrics.ObserveProxy(method, strconv.Itoa(result.Status),
		time.Duration(result.ResponseTime)*time.Millisecond)
	if userID := strings.TrimSpace(r.Header.Get(UserHeader)); userID != "" {
		s.recordHistory(r, userID, &body, result)
	}
	httputil.WriteOK(w, result)
}

// recordHistory stores the proxy outcome. Failures are logged only; the
// caller still gets the response.
func (s *Server) recordHistory(r *http.Request, userID string, req *proxy.Request, result *proxy.Result) {
	snapshot, err := json.Marshal(result)
	if err != nil {
		s.log.Warn("history snapshot failed", "error", err)
	}

	entry := &storage.HistoryEntry{
		Method:       request.ParseMethod(req.Method),
		URL:          req.URL,
		Status:       result.Status,
		ResponseTime: result.ResponseTime,
		Response:     snapshot,
	}
	if err := storage.ForUser(s.store, userID).AppendHistory(r.Context(), entry); err != nil {
		s.log.Warn("history append failed", "user", userID, "error", err)
	}
}
