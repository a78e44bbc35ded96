/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package store persists chat histories on a best-effort basis.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mikeb26/chorus/internal/types"
)

var (
	ErrNotFound  = errors.New("chat not found")
	ErrMissingID = errors.New("chat id is required")
)

// ChatStore is the persistence boundary for chat histories. Put is an
// upsert keyed by id.
type ChatStore interface {
	Put(ctx context.Context, h *types.ChatHistory) error
	Get(ctx context.Context, id string) (*types.ChatHistory, error)
	// List returns every history, newest first.
	List(ctx context.Context) ([]*types.ChatHistory, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// Open returns the store for backend. path is a directory for the json
// backend and a database file for sqlite; memory ignores it.
func Open(backend Backend, path string) (ChatStore, error) {
	switch Backend(strings.ToLower(string(backend))) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendJSON:
		return NewJSONStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	}
	return nil, fmt.Errorf("unsupported store backend %q", backend)
}

// NewChatID returns an id for a chat that does not have one yet.
func NewChatID() string {
	return uuid.NewString()
}

func sortNewestFirst(hh []*types.ChatHistory) {
	sort.SliceStable(hh, func(i, j int) bool {
		return hh[i].Timestamp.After(hh[j].Timestamp)
	})
}

// validID rejects ids that could escape a store's namespace.
func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid chat id %q", id)
	}
	return nil
}
