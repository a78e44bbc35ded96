/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mikeb26/chorus/internal/types"
	"github.com/rs/zerolog/log"
)

const jsonExt = ".json"

// JSONStore persists each chat as <dir>/<id>.json. Writes go through a
// temporary file and a rename so a crash never leaves a torn file behind.
type JSONStore struct {
	mu  sync.RWMutex
	dir string
}

// NewJSONStore uses dir, creating it if needed.
func NewJSONStore(dir string) (*JSONStore, error) {
	if dir == "" {
		return nil, errors.New("json chat store directory must not be empty")
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !info.IsDir():
		return nil, fmt.Errorf("json chat store path %v is not a directory", dir)
	}

	return &JSONStore{dir: dir}, nil
}

func (s *JSONStore) path(id string) string {
	return filepath.Join(s.dir, id+jsonExt)
}

func (s *JSONStore) Put(ctx context.Context, h *types.ChatHistory) error {
	if err := validID(h.ID); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(h.ID)
	tmpPath := target + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(encoded); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}

	return os.Rename(tmpPath, target)
}

func (s *JSONStore) Get(ctx context.Context,
	id string) (*types.ChatHistory, error) {

	if err := validID(id); err != nil {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load(s.path(id))
}

func (s *JSONStore) load(path string) (*types.ChatHistory, error) {
	encoded, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	h, err := decodeHistory(encoded)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return h, nil
}

// List skips files that fail to parse rather than failing the listing.
func (s *JSONStore) List(ctx context.Context) ([]*types.ChatHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.ChatHistory, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), jsonExt) {
			continue
		}
		h, err := s.load(filepath.Join(s.dir, e.Name()))
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("skipping chat")
			continue
		}
		ret = append(ret, h)
	}
	sortNewestFirst(ret)

	return ret, nil
}

func (s *JSONStore) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *JSONStore) Close() error {
	return nil
}
