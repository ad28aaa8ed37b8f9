// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrUnknownDriver = errors.New("unknown database driver")
)

// Document is a single stored document: its id plus the decoded JSON body.
type Document struct {
	ID   string
	Data map[string]any
}

// DataTo decodes the document body into v via a JSON round trip, so absent
// fields default to zero values.
func (d Document) DataTo(v any) error {
	b, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// Store is a JSON document store over a single SQL table.
type Store struct {
	db     *sql.DB
	driver string
	hub    *hub
}

// Open connects to the backing database. driver is "sqlite" or "postgres".
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// modernc sqlite allows one writer; a single connection avoids
		// SQLITE_BUSY under concurrent handler writes.
		db.SetMaxOpenConns(1)
	}

	return &Store{db: db, driver: driver, hub: newHub()}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateSchema creates the documents table. Safe to call multiple times.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (collection, id)
		);
		CREATE INDEX IF NOT EXISTS idx_documents_created
			ON documents(collection, created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get returns a single document by collection and id.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM documents WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&raw)

	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("query document %s/%s: %w", collection, id, err)
	}

	data, err := decodeBody(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

// GetAll returns every document in a collection, ordered by id.
func (s *Store) GetAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM documents WHERE collection = $1 ORDER BY id
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		data, err := decodeBody(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	return docs, rows.Err()
}

// Set creates or fully overwrites a document.
func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}

	now := time.Now().UnixNano()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (collection, id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, collection, id, raw, now)
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}

	s.hub.notify(collection)
	return nil
}

// Update applies a partial update to a document inside a transaction. Keys may
// be dotted paths into nested objects ("policies.abc.likes"); values may be the
// Increment and DeleteField sentinels. The document is created if absent, so
// Update doubles as a merge write.
func (s *Store) Update(ctx context.Context, collection, id string, updates map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update %s/%s: %w", collection, id, err)
	}
	defer tx.Rollback()

	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	if s.driver == DriverPostgres {
		query += ` FOR UPDATE`
	}

	var raw []byte
	err = tx.QueryRowContext(ctx, query, collection, id).Scan(&raw)

	exists := err != sql.ErrNoRows
	if err != nil && exists {
		return fmt.Errorf("lock document %s/%s: %w", collection, id, err)
	}

	data := map[string]any{}
	if exists {
		if data, err = decodeBody(raw); err != nil {
			return err
		}
	}

	if err := applyUpdates(data, updates); err != nil {
		return fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}

	now := time.Now().UnixNano()
	if exists {
		_, err = tx.ExecContext(ctx, `
			UPDATE documents SET data = $1, updated_at = $2
			WHERE collection = $3 AND id = $4
		`, encoded, now, collection, id)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (collection, id, data, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
		`, collection, id, encoded, now)
	}
	if err != nil {
		return fmt.Errorf("write document %s/%s: %w", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update %s/%s: %w", collection, id, err)
	}

	s.hub.notify(collection)
	return nil
}

// Delete removes a document. Deleting an absent document is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}

	s.hub.notify(collection)
	return nil
}

// ListOptions control a paginated listing.
type ListOptions struct {
	// Limit caps the number of documents returned. Zero means no cap.
	Limit int
	// After is the id of the last document of the previous page;
	// listing resumes strictly after it in reverse-chronological order.
	After string
}

// List returns documents newest-first by creation time, for cursor-based
// pagination (the admin log reader uses pages of 50).
func (s *Store) List(ctx context.Context, collection string, opts ListOptions) ([]Document, error) {
	query := `
		SELECT id, data FROM documents
		WHERE collection = $1
	`
	args := []any{collection}
	if opts.After != "" {
		query += `
		AND created_at < (
			SELECT created_at FROM documents WHERE collection = $1 AND id = $2
		)`
		args = append(args, opts.After)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collection %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		data, err := decodeBody(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	return docs, rows.Err()
}

func decodeBody(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document body: %w", err)
	}
	return data, nil
}
