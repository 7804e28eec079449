package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusOK, map[string]string{"curl": "curl -X GET 'https://x'"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "curl -X GET 'https://x'", result["curl"])
	})

	t.Run("nil data writes no body", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusAccepted, nil)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestErrorWriters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		code   string
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "not_curl", "m") }, http.StatusBadRequest, "not_curl"},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "m") }, http.StatusUnauthorized, "unauthorized"},
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "not_found", "m") }, http.StatusNotFound, "not_found"},
		{"gone", func(w http.ResponseWriter) { WriteGone(w, "expired", "m") }, http.StatusGone, "expired"},
		{"unprocessable", func(w http.ResponseWriter) { WriteUnprocessable(w, "no_url", "m") }, http.StatusUnprocessableEntity, "no_url"},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, "internal", "m") }, http.StatusInternalServerError, "internal"},
		{"bad gateway", func(w http.ResponseWriter) { WriteBadGateway(w, "upstream", "m") }, http.StatusBadGateway, "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.status, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, "m", resp.Message)
		})
	}
}

func TestSuccessWriters(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteCreated(rec, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	WriteOK(rec, []string{})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = httptest.NewRecorder()
	WriteNoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Text string `json:"text"`
	}

	t.Run("decodes", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"curl x","extra":1}`))
		var p payload
		require.NoError(t, DecodeJSON(req, &p))
		assert.Equal(t, "curl x", p.Text)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var p payload
		assert.ErrorIs(t, DecodeJSON(req, &p), ErrEmptyBody)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":`))
		var p payload
		err := DecodeJSON(req, &p)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmptyBody)
	})

	t.Run("trailing data", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"a"} {"text":"b"}`))
		var p payload
		assert.Error(t, DecodeJSON(req, &p))
	})
}
