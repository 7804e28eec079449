package storage

import (
	"context"

	"github.com/reqlab/reqlab/pkg/request"
)

// UserStore is a view of a Store bound to one user id. Reads only see the
// user's records and writes are attributed to the user.
type UserStore struct {
	underlying Store
	userID     string
}

// ForUser returns a view of store for userID.
func ForUser(store Store, userID string) *UserStore {
	return &UserStore{underlying: store, userID: userID}
}

// UserID returns the bound user id.
func (u *UserStore) UserID() string { return u.userID }

func (u *UserStore) SaveRequest(ctx context.Context, name string, req *request.Request) (*SavedRequest, bool, error) {
	return u.underlying.SaveRequest(ctx, u.userID, name, req)
}

func (u *UserStore) ListRequests(ctx context.Context) ([]*SavedRequest, error) {
	return u.underlying.ListRequests(ctx, u.userID)
}

func (u *UserStore) GetRequest(ctx context.Context, id string) (*SavedRequest, error) {
	return u.underlying.GetRequest(ctx, u.userID, id)
}

func (u *UserStore) DeleteRequest(ctx context.Context, id string) error {
	return u.underlying.DeleteRequest(ctx, u.userID, id)
}

func (u *UserStore) CreateCollection(ctx context.Context, name string) (*Collection, error) {
	return u.underlying.CreateCollection(ctx, u.userID, name)
}

func (u *UserStore) ListCollections(ctx context.Context) ([]*Collection, error) {
	return u.underlying.ListCollections(ctx, u.userID)
}

func (u *UserStore) GetCollection(ctx context.Context, id string) (*Collection, error) {
	return u.underlying.GetCollection(ctx, u.userID, id)
}

func (u *UserStore) DeleteCollection(ctx context.Context, id string) error {
	return u.underlying.DeleteCollection(ctx, u.userID, id)
}

func (u *UserStore) AddToCollection(ctx context.Context, collectionID, requestID string) error {
	return u.underlying.AddToCollection(ctx, u.userID, collectionID, requestID)
}

func (u *UserStore) RemoveFromCollection(ctx context.Context, collectionID, requestID string) error {
	return u.underlying.RemoveFromCollection(ctx, u.userID, collectionID, requestID)
}

// AppendHistory records e for the bound user, overriding e.UserID.
func (u *UserStore) AppendHistory(ctx context.Context, e *HistoryEntry) error {
	e.UserID = u.userID
	return u.underlying.AppendHistory(ctx, e)
}

func (u *UserStore) ListHistory(ctx context.Context) ([]*HistoryEntry, error) {
	return u.underlying.ListHistory(ctx, u.userID)
}
