// Package store is the entity store adapter: async key-based upsert and
// find over named collections. Each collection is a table with a JSONB
// data column (one row per document); filters compile to json_extract
// predicates, so the core never depends on more than equality/inclusion
// matching plus a descending-sort/limit option.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Collection names. The backing tables are created by the migrations.
const (
	Questions = "questions"
	Teams     = "teams"
	Guesses   = "guesses"
	Order     = "question_order"
	Settings  = "game_settings"
	Tokens    = "tokens"
	Config    = "config"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// Filter matches documents by field value. A slice value matches any of
// its entries (inclusion). An empty filter matches everything.
type Filter map[string]any

// FindOptions shape a Find: newest-first ordering on a field and a result
// cap, both optional.
type FindOptions struct {
	SortDescBy string
	Limit      int
}

// Store wraps the collection tables.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (f Filter) compile() (string, []any) {
	if len(f) == 0 {
		return "", nil
	}
	var conds []string
	var args []any
	for field, value := range f {
		path := "$." + field
		switch v := value.(type) {
		case []string:
			placeholders := make([]string, len(v))
			args = append(args, path)
			for i, item := range v {
				placeholders[i] = "?"
				args = append(args, item)
			}
			conds = append(conds, fmt.Sprintf("json_extract(data, ?) IN (%s)", strings.Join(placeholders, ",")))
		default:
			conds = append(conds, "json_extract(data, ?) = ?")
			args = append(args, path, v)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// FindOne returns the single document matching the filter, or ErrNotFound.
func FindOne[T any](ctx context.Context, s *Store, collection string, filter Filter) (T, error) {
	var doc T
	where, args := filter.compile()

	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM %s%s LIMIT 1`, collection, where), args...,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("finding in %s: %w", collection, err)
	}
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return doc, fmt.Errorf("decoding document from %s: %w", collection, err)
	}
	return doc, nil
}

// Find returns all documents matching the filter, honoring sort and limit.
func Find[T any](ctx context.Context, s *Store, collection string, filter Filter, opts FindOptions) ([]T, error) {
	where, args := filter.compile()

	query := fmt.Sprintf(`SELECT json(data) FROM %s%s`, collection, where)
	if opts.SortDescBy != "" {
		query += " ORDER BY json_extract(data, ?) DESC"
		args = append(args, "$."+opts.SortDescBy)
	}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding in %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc T
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("decoding document from %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// InsertOne stores a new document under id. Inserting an existing id
// fails.
func (s *Store) InsertOne(ctx context.Context, collection, id string, doc any) error {
	data, modified, err := encode(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, modified, data) VALUES (?, ?, jsonb(?))`, collection),
		id, modified, data,
	)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", collection, err)
	}
	return nil
}

// ReplaceOne overwrites the document with the given id. With upsert the
// document is created when absent; otherwise a missing id is ErrNotFound.
func (s *Store) ReplaceOne(ctx context.Context, collection, id string, doc any, upsert bool) error {
	data, modified, err := encode(doc)
	if err != nil {
		return err
	}

	if upsert {
		_, err = s.db.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, modified, data) VALUES (?, ?, jsonb(?))
			 ON CONFLICT(id) DO UPDATE SET modified = excluded.modified, data = excluded.data`, collection),
			id, modified, data,
		)
		if err != nil {
			return fmt.Errorf("upserting into %s: %w", collection, err)
		}
		return nil
	}

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET modified = ?, data = jsonb(?) WHERE id = ?`, collection),
		modified, data, id,
	)
	if err != nil {
		return fmt.Errorf("replacing in %s: %w", collection, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany removes every document matching the filter and returns how
// many were removed. Used only for credential invalidation; entity
// collections use tombstones instead.
func (s *Store) DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error) {
	where, args := filter.compile()
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s%s`, collection, where), args...,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", collection, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// DeleteOlderThan removes documents whose numeric field is below the
// cutoff. This is the TTL sweep used for ephemeral admin tokens.
func (s *Store) DeleteOlderThan(ctx context.Context, collection, field string, cutoff int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE json_extract(data, ?) < ?`, collection),
		"$."+field, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("expiring from %s: %w", collection, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// encode marshals a document and probes its merge timestamp for the
// indexed modified column.
func encode(doc any) (string, int64, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", 0, fmt.Errorf("encoding document: %w", err)
	}
	var probe struct {
		Modified int64 `json:"_modified"`
	}
	_ = json.Unmarshal(data, &probe)
	return string(data), probe.Modified, nil
}
