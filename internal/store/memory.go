/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mikeb26/chorus/internal/types"
)

// MemoryStore keeps histories for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Histories are stored encoded so callers never share memory with the
// store.
func (s *MemoryStore) Put(ctx context.Context, h *types.ChatHistory) error {
	if err := validID(h.ID); err != nil {
		return err
	}
	encoded, err := json.Marshal(h)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[h.ID] = encoded
	return nil
}

func (s *MemoryStore) Get(ctx context.Context,
	id string) (*types.ChatHistory, error) {

	s.mu.RLock()
	encoded, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeHistory(encoded)
}

func (s *MemoryStore) List(ctx context.Context) ([]*types.ChatHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make([]*types.ChatHistory, 0, len(s.data))
	for _, encoded := range s.data {
		h, err := decodeHistory(encoded)
		if err != nil {
			return nil, err
		}
		ret = append(ret, h)
	}
	sortNewestFirst(ret)
	return ret, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func decodeHistory(encoded []byte) (*types.ChatHistory, error) {
	var h types.ChatHistory
	if err := json.Unmarshal(encoded, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
