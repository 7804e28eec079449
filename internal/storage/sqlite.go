package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/reqlab/reqlab/pkg/request"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: SQLite serializes writers, and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, opts: newOptions(opts)}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toUnix(t time.Time) int64 { return t.UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const requestColumns = `id, user_id, name, method, url, headers, body, created_at, updated_at`

func scanRequest(row rowScanner) (*SavedRequest, error) {
	var (
		sr               SavedRequest
		method, headers  string
		created, updated int64
	)
	if err := row.Scan(&sr.ID, &sr.UserID, &sr.Name, &method, &sr.Request.URL, &headers, &sr.Request.Body, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(headers), &sr.Request.Headers); err != nil {
		return nil, fmt.Errorf("decode headers of %s: %w", sr.ID, err)
	}
	sr.Request.Method = request.Method(method)
	sr.Request.Name = sr.Name
	sr.CreatedAt = fromUnix(created)
	sr.UpdatedAt = fromUnix(updated)
	return &sr, nil
}

// SaveRequest implements Store.
func (s *SQLiteStore) SaveRequest(ctx context.Context, userID, name string, req *request.Request) (*SavedRequest, bool, error) {
	if err := validRequest(req); err != nil {
		return nil, false, err
	}
	method := req.EffectiveMethod()
	headers, err := json.Marshal(req.Headers)
	if err != nil {
		return nil, false, fmt.Errorf("encode headers: %w", err)
	}
	now := toUnix(s.opts.now().UTC())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id, existingName string
	err = tx.QueryRowContext(ctx,
		`SELECT id, name FROM saved_requests WHERE user_id = ? AND method = ? AND url = ?`,
		userID, string(method), req.URL).Scan(&id, &existingName)

	updated := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		updated = false
		id = uuid.NewString()
		if name == "" {
			name = defaultName(req)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO saved_requests (id, user_id, name, method, url, headers, body, created_at, updated_at, seq)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM saved_requests))`,
			id, userID, name, string(method), req.URL, string(headers), req.Body, now, now)
	case err != nil:
		return nil, false, fmt.Errorf("lookup request: %w", err)
	default:
		if name == "" {
			name = existingName
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE saved_requests
			 SET name = ?, headers = ?, body = ?, updated_at = ?,
			     seq = (SELECT COALESCE(MAX(seq), 0) + 1 FROM saved_requests)
			 WHERE id = ?`,
			name, string(headers), req.Body, now, id)
	}
	if err != nil {
		return nil, false, fmt.Errorf("save request: %w", err)
	}

	sr, err := scanRequest(tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM saved_requests WHERE id = ?`, id))
	if err != nil {
		return nil, false, fmt.Errorf("reload request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return sr, updated, nil
}

// ListRequests implements Store.
func (s *SQLiteStore) ListRequests(ctx context.Context, userID string) ([]*SavedRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM saved_requests WHERE user_id = ? ORDER BY updated_at DESC, seq DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	result := make([]*SavedRequest, 0)
	for rows.Next() {
		sr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}

// GetRequest implements Store.
func (s *SQLiteStore) GetRequest(ctx context.Context, userID, id string) (*SavedRequest, error) {
	sr, err := scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM saved_requests WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return sr, nil
}

// DeleteRequest implements Store. Collection membership goes with it through
// the foreign key cascade.
func (s *SQLiteStore) DeleteRequest(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, `DELETE FROM saved_requests WHERE id = ? AND user_id = ?`, id, userID)
}

func (s *SQLiteStore) deleteOwned(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCollection implements Store.
func (s *SQLiteStore) CreateCollection(ctx context.Context, userID, name string) (*Collection, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	c := &Collection{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		RequestIDs: []string{},
		CreatedAt:  fromUnix(toUnix(s.opts.now().UTC())),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, toUnix(c.CreatedAt))
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return c, nil
}

// ListCollections implements Store, newest first.
func (s *SQLiteStore) ListCollections(ctx context.Context, userID string) ([]*Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM collections WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	result := make([]*Collection, 0)
	for rows.Next() {
		var (
			c       Collection
			created int64
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &created); err != nil {
			rows.Close()
			return nil, err
		}
		c.CreatedAt = fromUnix(created)
		result = append(result, &c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Members are loaded after the outer cursor is closed; the pool has a
	// single connection.
	for _, c := range result {
		if c.RequestIDs, err = s.members(ctx, c.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *SQLiteStore) members(ctx context.Context, collectionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id FROM collection_requests WHERE collection_id = ? ORDER BY position`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetCollection implements Store.
func (s *SQLiteStore) GetCollection(ctx context.Context, userID, id string) (*Collection, error) {
	var (
		c       Collection
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM collections WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	c.CreatedAt = fromUnix(created)
	if c.RequestIDs, err = s.members(ctx, c.ID); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCollection implements Store.
func (s *SQLiteStore) DeleteCollection(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, `DELETE FROM collections WHERE id = ? AND user_id = ?`, id, userID)
}

// owns reports whether table has a row with id belonging to userID.
func (s *SQLiteStore) owns(ctx context.Context, table, id, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID).Scan(&n)
	return n > 0, err
}

// AddToCollection implements Store.
func (s *SQLiteStore) AddToCollection(ctx context.Context, userID, collectionID, requestID string) error {
	for _, check := range []struct{ table, id string }{
		{"collections", collectionID},
		{"saved_requests", requestID},
	} {
		ok, err := s.owns(ctx, check.table, check.id, userID)
		if err != nil {
			return fmt.Errorf("add to collection: %w", err)
		}
		if !ok {
			return ErrNotFound
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collection_requests (collection_id, request_id, position)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM collection_requests WHERE collection_id = ?))`,
		collectionID, requestID, collectionID)
	if err != nil {
		return fmt.Errorf("add to collection: %w", err)
	}
	return nil
}

// RemoveFromCollection implements Store.
func (s *SQLiteStore) RemoveFromCollection(ctx context.Context, userID, collectionID, requestID string) error {
	ok, err := s.owns(ctx, "collections", collectionID, userID)
	if err != nil {
		return fmt.Errorf("remove from collection: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return s.deleteOwned(ctx,
		`DELETE FROM collection_requests WHERE collection_id = ? AND request_id = ?`, collectionID, requestID)
}

// AppendHistory implements Store.
func (s *SQLiteStore) AppendHistory(ctx context.Context, e *HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.opts.now().UTC()
	}

	var response sql.NullString
	if len(e.Response) > 0 {
		response = sql.NullString{String: string(e.Response), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (id, user_id, method, url, status, response_time, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, string(request.ParseMethod(string(e.Method))), e.URL, e.Status, e.ResponseTime,
		response, toUnix(e.CreatedAt)); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE user_id = ? AND id NOT IN (
		     SELECT id FROM history WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		 )`,
		e.UserID, e.UserID, s.opts.historyLimit); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	return tx.Commit()
}

// ListHistory implements Store.
func (s *SQLiteStore) ListHistory(ctx context.Context, userID string) ([]*HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, method, url, status, response_time, response, created_at
		 FROM history WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	result := make([]*HistoryEntry, 0)
	for rows.Next() {
		var (
			e        HistoryEntry
			method   string
			response sql.NullString
			created  int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &method, &e.URL, &e.Status, &e.ResponseTime, &response, &created); err != nil {
			return nil, err
		}
		e.Method = request.Method(method)
		if response.Valid {
			e.Response = json.RawMessage(response.String)
		}
		e.CreatedAt = fromUnix(created)
		result = append(result, &e)
	}
	return result, rows.Err()
}

// PutShare implements Store.
func (s *SQLiteStore) PutShare(ctx context.Context, sh *Share) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shares (id, type, data, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		sh.ID, sh.Type, string(sh.Data), toUnix(sh.CreatedAt), toUnix(sh.ExpiresAt))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("put share: %w", err)
	}
	return nil
}

// GetShare implements Store.
func (s *SQLiteStore) GetShare(ctx context.Context, id string) (*Share, error) {
	var (
		sh               Share
		data             string
		created, expires int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, type, data, created_at, expires_at FROM shares WHERE id = ?`, id).
		Scan(&sh.ID, &sh.Type, &data, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	sh.Data = json.RawMessage(data)
	sh.CreatedAt = fromUnix(created)
	sh.ExpiresAt = fromUnix(expires)
	return &sh, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
