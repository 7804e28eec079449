package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reqlab/reqlab/pkg/request"
)

// Errors returned by Store implementations.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrInvalid   = errors.New("invalid record")
)

// DefaultHistoryLimit is the number of history entries kept per user.
const DefaultHistoryLimit = 50

// SavedRequest is a request a user stored for later.
// (UserID, method, URL) is unique; saving the same pair again updates it.
type SavedRequest struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Request   request.Request `json:"request"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Collection groups saved requests. RequestIDs keeps insertion order.
type Collection struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	RequestIDs []string  `json:"requestIds"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HistoryEntry records one executed request and its outcome.
type HistoryEntry struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Method       request.Method  `json:"method"`
	URL          string          `json:"url"`
	Status       int             `json:"status"`
	ResponseTime int64           `json:"responseTime"`
	Response     json.RawMessage `json:"response,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Share is a public snapshot of a request or collection.
type Share struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Expired reports whether the share is past its expiry at now.
func (s *Share) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store is the persistence contract. Lookups of records owned by another user
// return ErrNotFound.
type Store interface {
	// SaveRequest inserts req, or updates the user's request with the same
	// method and URL. An empty name defaults to "METHOD url" on insert and
	// keeps the stored name on update. updated reports which happened.
	SaveRequest(ctx context.Context, userID, name string, req *request.Request) (saved *SavedRequest, updated bool, err error)
	// ListRequests returns the user's requests, most recently saved first.
	ListRequests(ctx context.Context, userID string) ([]*SavedRequest, error)
	GetRequest(ctx context.Context, userID, id string) (*SavedRequest, error)
	// DeleteRequest also removes the request from the user's collections.
	DeleteRequest(ctx context.Context, userID, id string) error

	// CreateCollection fails with ErrDuplicate if the user already has a
	// collection with that name.
	CreateCollection(ctx context.Context, userID, name string) (*Collection, error)
	ListCollections(ctx context.Context, userID string) ([]*Collection, error)
	GetCollection(ctx context.Context, userID, id string) (*Collection, error)
	DeleteCollection(ctx context.Context, userID, id string) error
	// AddToCollection is a no-op when the request is already a member.
	AddToCollection(ctx context.Context, userID, collectionID, requestID string) error
	RemoveFromCollection(ctx context.Context, userID, collectionID, requestID string) error

	// AppendHistory stores e, assigning ID and CreatedAt when empty, and
	// drops the user's oldest entries beyond the history limit.
	AppendHistory(ctx context.Context, e *HistoryEntry) error
	// ListHistory returns the user's history, newest first.
	ListHistory(ctx context.Context, userID string) ([]*HistoryEntry, error)

	// PutShare fails with ErrDuplicate if the id is taken.
	PutShare(ctx context.Context, s *Share) error
	GetShare(ctx context.Context, id string) (*Share, error)

	Close() error
}

// Option configures a Store implementation.
type Option func(*options)

type options struct {
	historyLimit int
	now          func() time.Time
}

func newOptions(opts []Option) options {
	o := options{historyLimit: DefaultHistoryLimit, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHistoryLimit sets the per-user history cap. Values below 1 are ignored.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historyLimit = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func validRequest(r *request.Request) error {
	if r == nil || r.URL == "" {
		return fmt.Errorf("%w: request url is required", ErrInvalid)
	}
	return nil
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	return nil
}

// defaultName is the name given to a saved request without one.
func defaultName(r *request.Request) string {
	return r.EffectiveMethod().String() + " " + r.URL
}
