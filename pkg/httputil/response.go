// Package httputil holds the JSON request/response helpers shared by the API.
//
// Every error leaves the server in the same envelope:
//
//	{"error": "not_curl", "message": "input is not a curl command"}
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodySize bounds request bodies read by DecodeJSON.
const MaxBodySize = 1 << 20

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes data as JSON with the given status. A nil data writes
// only the status line.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes the error envelope.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, ErrorResponse{Error: errCode, Message: message})
}

// WriteOK writes a 200 response.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteBadRequest writes a 400 error.
func WriteBadRequest(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusBadRequest, errCode, message)
}

// WriteUnauthorized writes a 401 error.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message)
}

// WriteNotFound writes a 404 error.
func WriteNotFound(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusNotFound, errCode, message)
}

// WriteGone writes a 410 error.
func WriteGone(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusGone, errCode, message)
}

// WriteUnprocessable writes a 422 error.
func WriteUnprocessable(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusUnprocessableEntity, errCode, message)
}

// WriteInternalError writes a 500 error.
func WriteInternalError(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusInternalServerError, errCode, message)
}

// WriteBadGateway writes a 502 error.
func WriteBadGateway(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusBadGateway, errCode, message)
}

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes at most MaxBodySize bytes of r's body into v.
// Unknown fields are ignored; trailing data after the first value is an error.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodySize))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("decode json: %w", err)
	}
	if dec.More() {
		return errors.New("decode json: unexpected data after JSON value")
	}
	return nil
}
