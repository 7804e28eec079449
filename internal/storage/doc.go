// Package storage persists saved requests, collections, history and shares.
//
// Every record except Share belongs to a user id. The id is opaque here: the
// API layer gets it from its auth provider and scopes each call with ForUser.
//
// Key types:
//
//   - Store: the persistence contract
//   - MemoryStore: map-backed, for tests and for `reqlab serve` without a DB
//   - SQLiteStore: database/sql over modernc.org/sqlite, schema embedded
//   - UserStore: a view of a Store bound to one user id
//
// Both implementations are safe for concurrent use and return copies, so
// callers may modify results freely.
package storage
