// Package share creates and resolves public snapshot links for requests and
// collections.
package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ids "github.com/reqlab/reqlab/internal/id"
	"github.com/reqlab/reqlab/internal/storage"
	"github.com/reqlab/reqlab/pkg/logging"
)

// Kinds of shareable data.
const (
	KindRequest    = "request"
	KindCollection = "collection"
)

// DefaultTTL is how long a share stays readable.
const DefaultTTL = 30 * 24 * time.Hour

var (
	ErrInvalidKind = errors.New("share type must be request or collection")
	ErrEmptyData   = errors.New("share data is required")
	ErrNotFound    = errors.New("share not found")
	ErrExpired     = errors.New("share has expired")
	ErrIDTaken     = errors.New("share id already exists")
	ErrInvalidData = errors.New("share data is not valid JSON")
	ErrInvalidID   = errors.New("share id may only contain letters, digits, '.', '-' and '_'")
)

// Link is the result of Create.
type Link struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service stores shares through a storage.Store.
type Service struct {
	store     storage.Store
	publicURL string
	ttl       time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = logging.OrNop(log) }
}

// NewService returns a Service whose links start with publicURL.
func NewService(store storage.Store, publicURL string, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
		ttl:       DefaultTTL,
		now:       time.Now,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores data under id (a fresh random ID when empty) and returns its link.
func (s *Service) Create(ctx context.Context, kind string, data json.RawMessage, id string) (*Link, error) {
	if kind != KindRequest && kind != KindCollection {
		return nil, ErrInvalidKind
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, ErrEmptyData
	}
	if !json.Valid(data) {
		return nil, ErrInvalidData
	}
	if id == "" {
		id = ids.New()
	} else if err := ids.Validate(id); err != nil {
		return nil, ErrInvalidID
	}

	now := s.now().UTC()
	sh := &storage.Share{
		ID:        id,
		Type:      kind,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.PutShare(ctx, sh); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrIDTaken
		}
		return nil, fmt.Errorf("store share: %w", err)
	}

	s.log.Debug("share created", "id", id, "type", kind, "expiresAt", sh.ExpiresAt)
	return &Link{ID: id, URL: s.URL(id), ExpiresAt: sh.ExpiresAt}, nil
}

// Get returns the share with id, or ErrNotFound / ErrExpired.
func (s *Service) Get(ctx context.Context, id string) (*storage.Share, error) {
	sh, err := s.store.GetShare(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load share: %w", err)
	}
	if sh.Expired(s.now()) {
		return nil, ErrExpired
	}
	return sh, nil
}

// URL returns the public link for id.
func (s *Service) URL(id string) string {
	return s.publicURL + "/shared/" + id
}
