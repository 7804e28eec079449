package storage

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/reqlab/reqlab/pkg/request"
)

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu          sync.RWMutex
	opts        options
	seq         uint64
	requests    map[string]*memRecord[SavedRequest]
	collections map[string]*memRecord[Collection]
	history     map[string][]*HistoryEntry // per user, newest first
	shares      map[string]*Share
}

// memRecord tags a record with a write sequence so that ordering stays
// stable when timestamps collide.
type memRecord[T any] struct {
	seq uint64
	val *T
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:        newOptions(opts),
		requests:    make(map[string]*memRecord[SavedRequest]),
		collections: make(map[string]*memRecord[Collection]),
		history:     make(map[string][]*HistoryEntry),
		shares:      make(map[string]*Share),
	}
}

func (s *MemoryStore) next() uint64 {
	s.seq++
	return s.seq
}

func copyRequest(sr *SavedRequest) *SavedRequest {
	out := *sr
	out.Request = *sr.Request.Clone()
	return &out
}

func copyCollection(c *Collection) *Collection {
	out := *c
	out.RequestIDs = slices.Clone(c.RequestIDs)
	if out.RequestIDs == nil {
		out.RequestIDs = []string{}
	}
	return &out
}

func copyHistory(e *HistoryEntry) *HistoryEntry {
	out := *e
	out.Response = slices.Clone(e.Response)
	return &out
}

// SaveRequest implements Store.
func (s *MemoryStore) SaveRequest(_ context.Context, userID, name string, req *request.Request) (*SavedRequest, bool, error) {
	if err := validRequest(req); err != nil {
		return nil, false, err
	}
	stored := *req.Clone()
	stored.Method = stored.EffectiveMethod()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now().UTC()
	for _, rec := range s.requests {
		sr := rec.val
		if sr.UserID != userID || sr.Request.Method != stored.Method || sr.Request.URL != stored.URL {
			continue
		}
		if name != "" {
			sr.Name = name
		}
		stored.Name = sr.Name
		sr.Request = stored
		sr.UpdatedAt = now
		rec.seq = s.next()
		return copyRequest(sr), true, nil
	}

	if name == "" {
		name = defaultName(&stored)
	}
	stored.Name = name
	sr := &SavedRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Request:   stored,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.requests[sr.ID] = &memRecord[SavedRequest]{seq: s.next(), val: sr}
	return copyRequest(sr), false, nil
}

// ListRequests implements Store.
func (s *MemoryStore) ListRequests(_ context.Context, userID string) ([]*SavedRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*memRecord[SavedRequest], 0)
	for _, rec := range s.requests {
		if rec.val.UserID == userID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.val.UpdatedAt.Equal(b.val.UpdatedAt) {
			return a.val.UpdatedAt.After(b.val.UpdatedAt)
		}
		return a.seq > b.seq
	})

	result := make([]*SavedRequest, len(recs))
	for i, rec := range recs {
		result[i] = copyRequest(rec.val)
	}
	return result, nil
}

// GetRequest implements Store.
func (s *MemoryStore) GetRequest(_ context.Context, userID, id string) (*SavedRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.requests[id]
	if !ok || rec.val.UserID != userID {
		return nil, ErrNotFound
	}
	return copyRequest(rec.val), nil
}

// DeleteRequest implements Store.
func (s *MemoryStore) DeleteRequest(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.requests[id]
	if !ok || rec.val.UserID != userID {
		return ErrNotFound
	}
	delete(s.requests, id)

	for _, c := range s.collections {
		if c.val.UserID == userID {
			c.val.RequestIDs = slices.DeleteFunc(c.val.RequestIDs, func(rid string) bool { return rid == id })
		}
	}
	return nil
}

// CreateCollection implements Store.
func (s *MemoryStore) CreateCollection(_ context.Context, userID, name string) (*Collection, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.collections {
		if rec.val.UserID == userID && rec.val.Name == name {
			return nil, ErrDuplicate
		}
	}

	c := &Collection{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		RequestIDs: []string{},
		CreatedAt:  s.opts.now().UTC(),
	}
	s.collections[c.ID] = &memRecord[Collection]{seq: s.next(), val: c}
	return copyCollection(c), nil
}

// ListCollections implements Store, newest first.
func (s *MemoryStore) ListCollections(_ context.Context, userID string) ([]*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*memRecord[Collection], 0)
	for _, rec := range s.collections {
		if rec.val.UserID == userID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	result := make([]*Collection, len(recs))
	for i, rec := range recs {
		result[i] = copyCollection(rec.val)
	}
	return result, nil
}

// GetCollection implements Store.
func (s *MemoryStore) GetCollection(_ context.Context, userID, id string) (*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[id]
	if !ok || rec.val.UserID != userID {
		return nil, ErrNotFound
	}
	return copyCollection(rec.val), nil
}

// DeleteCollection implements Store.
func (s *MemoryStore) DeleteCollection(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[id]
	if !ok || rec.val.UserID != userID {
		return ErrNotFound
	}
	delete(s.collections, id)
	return nil
}

// AddToCollection implements Store.
func (s *MemoryStore) AddToCollection(_ context.Context, userID, collectionID, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionID]
	if !ok || c.val.UserID != userID {
		return ErrNotFound
	}
	r, ok := s.requests[requestID]
	if !ok || r.val.UserID != userID {
		return ErrNotFound
	}
	if !slices.Contains(c.val.RequestIDs, requestID) {
		c.val.RequestIDs = append(c.val.RequestIDs, requestID)
	}
	return nil
}

// RemoveFromCollection implements Store.
func (s *MemoryStore) RemoveFromCollection(_ context.Context, userID, collectionID, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionID]
	if !ok || c.val.UserID != userID {
		return ErrNotFound
	}
	idx := slices.Index(c.val.RequestIDs, requestID)
	if idx < 0 {
		return ErrNotFound
	}
	c.val.RequestIDs = slices.Delete(c.val.RequestIDs, idx, idx+1)
	return nil
}

// AppendHistory implements Store.
func (s *MemoryStore) AppendHistory(_ context.Context, e *HistoryEntry) error {
	entry := copyHistory(e)
	entry.Method = request.ParseMethod(string(entry.Method))

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.opts.now().UTC()
	}
	e.ID, e.CreatedAt = entry.ID, entry.CreatedAt

	list := append([]*HistoryEntry{entry}, s.history[e.UserID]...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > s.opts.historyLimit {
		list = list[:s.opts.historyLimit]
	}
	s.history[e.UserID] = list
	return nil
}

// ListHistory implements Store.
func (s *MemoryStore) ListHistory(_ context.Context, userID string) ([]*HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.history[userID]
	result := make([]*HistoryEntry, len(list))
	for i, e := range list {
		result[i] = copyHistory(e)
	}
	return result, nil
}

// PutShare implements Store.
func (s *MemoryStore) PutShare(_ context.Context, sh *Share) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.shares[sh.ID]; exists {
		return ErrDuplicate
	}
	stored := *sh
	stored.Data = slices.Clone(sh.Data)
	s.shares[sh.ID] = &stored
	return nil
}

// GetShare implements Store.
func (s *MemoryStore) GetShare(_ context.Context, id string) (*Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shares[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *sh
	out.Data = slices.Clone(sh.Data)
	return &out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
