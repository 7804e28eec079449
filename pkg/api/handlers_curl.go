package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/reqlab/reqlab/pkg/api/types"
	"github.com/reqlab/reqlab/pkg/curl"
	"github.com/reqlab/reqlab/pkg/httputil"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, types.HealthResponse{
		Status:  "ok",
		Version: s.version,
		Uptime:  int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) handleCurlFormat(w http.ResponseWriter, r *http.Request) {
	var body types.FormatRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	if body.Request == nil {
		httputil.WriteBadRequest(w, "invalid_request", "request is required")
		return
	}

	httputil.WriteOK(w, types.FormatResponse{Curl: curl.Format(body.Request)})
}

// handleCurlParse is the import surface: text that is not a curl command is
// a 400, a command with no usable URL is a 422. Nothing partial is returned.
func (s *Server) handleCurlParse(w http.ResponseWriter, r *http.Request) {
	var body types.ParseRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}

	parsed, err := curl.Import(body.Text)
	switch {
	case errors.Is(err, curl.ErrNotCurl):
		httputil.WriteBadRequest(w, "not_curl", "Invalid cURL command")
	case errors.Is(err, curl.ErrNoURL):
		httputil.WriteUnprocessable(w, "no_url", "Could not extract a URL from the cURL command")
	case err != nil:
		httputil.WriteBadRequest(w, "invalid_request", err.Error())
	default:
		httputil.WriteOK(w, parsed)
	}
}

func (s *Server) handleCurlPrettify(w http.ResponseWriter, r *http.Request) {
	var body types.ParseRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	if !curl.LooksLikeCurl(body.Text) {
		httputil.WriteBadRequest(w, "not_curl", "Invalid cURL command")
		return
	}

	httputil.WriteOK(w, types.PrettifyResponse{Curl: curl.Prettify(body.Text)})
}
