// Package types holds the request and response bodies of the reqlab HTTP API.
package types

import (
	"encoding/json"
	"time"

	"github.com/reqlab/reqlab/pkg/request"
)

// HealthResponse is the health check body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  int64  `json:"uptime"`
}

// ListResponse wraps a list with its length.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewList builds a ListResponse, never serializing items as null.
func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// FormatRequest asks for the cURL rendering of a request.
type FormatRequest struct {
	Request *request.Request `json:"request"`
}

// FormatResponse carries a cURL command.
type FormatResponse struct {
	Curl string `json:"curl"`
}

// ParseRequest carries text pasted by the user.
type ParseRequest struct {
	Text string `json:"text"`
}

// PrettifyResponse carries a cURL command split over continuation lines.
type PrettifyResponse struct {
	Curl string `json:"curl"`
}

// TargetInfo describes a snippet target.
type TargetInfo struct {
	Target   string `json:"target"`
	Label    string `json:"label"`
	Language string `json:"language"`
}

// SnippetRequest asks for a snippet of a request.
type SnippetRequest struct {
	Request *request.Request `json:"request"`
}

// SnippetResponse carries generated code.
type SnippetResponse struct {
	Target   string `json:"target"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

// ShareRequest creates a share. ID is optional.
type ShareRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	ID   string          `json:"id,omitempty"`
}

// ShareResponse is returned by share creation.
type ShareResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SaveRequestBody saves a request, optionally naming it.
type SaveRequestBody struct {
	Name    string           `json:"name,omitempty"`
	Request *request.Request `json:"request"`
}

// SaveRequestResponse reports the stored record and whether it replaced an
// existing one.
type SaveRequestResponse struct {
	Updated bool `json:"updated"`
	Item    any  `json:"item"`
}

// CollectionBody creates a collection.
type CollectionBody struct {
	Name string `json:"name"`
}

// CollectionMemberBody adds a saved request to a collection.
type CollectionMemberBody struct {
	RequestID string `json:"requestId"`
}
