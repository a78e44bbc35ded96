/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps one row per chat; messages are stored as JSON.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite chat store path must not be empty")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init schema")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, h *types.ChatHistory) error {
	if err := validID(h.ID); err != nil {
		return err
	}
	msgs, err := json.Marshal(h.Messages)
	if err != nil {
		return errors.Wrap(err, "encode messages")
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO chats(id, title, updated_at, messages)
		VALUES(?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title,
			updated_at=excluded.updated_at, messages=excluded.messages`,
		h.ID, h.Title(), h.Timestamp.UTC().Format(time.RFC3339Nano), string(msgs))
	return errors.Wrapf(err, "upsert chat %v", h.ID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (*types.ChatHistory, error) {
	var (
		h         types.ChatHistory
		updatedAt string
		msgs      string
	)
	if err := row.Scan(&h.ID, &updatedAt, &msgs); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "chat %v timestamp", h.ID)
	}
	h.Timestamp = ts
	if err := json.Unmarshal([]byte(msgs), &h.Messages); err != nil {
		return nil, errors.Wrapf(err, "chat %v messages", h.ID)
	}
	return &h, nil
}

func (s *SQLiteStore) Get(ctx context.Context,
	id string) (*types.ChatHistory, error) {

	row := s.db.QueryRowContext(ctx,
		"SELECT id, updated_at, messages FROM chats WHERE id=?", id)
	h, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get chat %v", id)
	}
	return h, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*types.ChatHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, updated_at, messages FROM chats")
	if err != nil {
		return nil, errors.Wrap(err, "list chats")
	}
	defer rows.Close()

	var ret []*types.ChatHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list chats")
	}
	// timestamps are compared as times, not as their text form
	sortNewestFirst(ret)

	return ret, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chats WHERE id=?", id)
	if err != nil {
		return errors.Wrapf(err, "delete chat %v", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete chat")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
