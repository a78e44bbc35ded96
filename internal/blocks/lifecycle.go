/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package blocks

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrBlockFinished      = errors.New("block already finished")
	ErrSkeletonRequired   = errors.New("block must be introduced with init status")
	ErrAlreadyInitialized = errors.New("block already initialized")
	ErrTypeMismatch       = errors.New("block type does not match earlier version")
	ErrMissingType        = errors.New("block type is required on first emission")
)

// CheckTransition validates moving a block of type t from prev to next.
// prev is empty when the id has not been seen before.
func CheckTransition(t Type, prev, next Status) error {
	if prev == "" {
		switch next {
		case StatusInit:
			return nil
		case StatusRunning, StatusFinished, StatusUpdate:
			if !t.SupportsSkeleton() && next != StatusUpdate {
				return nil
			}
			return fmt.Errorf("%w: %v block went straight to %v",
				ErrSkeletonRequired, t, next)
		}
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}

	if prev == StatusFinished {
		return ErrBlockFinished
	}
	switch next {
	case StatusInit:
		return ErrAlreadyInitialized
	case StatusRunning, StatusUpdate, StatusFinished:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
}

type trackedBlock struct {
	typ    Type
	status Status
}

// Tracker enforces the producer side of the lifecycle for one response
// stream. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	blocks map[string]trackedBlock
}

func NewTracker() *Tracker {
	return &Tracker{blocks: make(map[string]trackedBlock)}
}

// Admit validates b against everything previously admitted for its id and
// records it. Blocks that fail are not recorded.
func (tr *Tracker) Admit(b *Block) error {
	if err := b.Validate(); err != nil {
		return err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	prev, seen := tr.blocks[b.ID]
	typ := b.Type
	if !seen && typ == "" {
		return fmt.Errorf("%w: %v", ErrMissingType, b.ID)
	}
	if seen {
		if typ == "" {
			typ = prev.typ
		} else if typ != prev.typ {
			return fmt.Errorf("%w: %v is %v, got %v", ErrTypeMismatch, b.ID,
				prev.typ, typ)
		}
	}

	if err := CheckTransition(typ, prev.status, b.Status); err != nil {
		return fmt.Errorf("block %v: %w", b.ID, err)
	}

	next := b.Status
	if next == StatusUpdate {
		next = StatusRunning
	}
	tr.blocks[b.ID] = trackedBlock{typ: typ, status: next}
	return nil
}

// Status returns the last admitted status for id.
func (tr *Tracker) Status(id string) (Status, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	b, ok := tr.blocks[id]
	return b.status, ok
}
