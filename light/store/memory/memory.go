// Copyright 2025 The go-tmlight Authors
// This file is part of the go-tmlight library.
//
// The go-tmlight library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-tmlight library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-tmlight library. If not, see <http://www.gnu.org/licenses/>.

// Package memory implements a map backed light block store.
package memory

import (
	"sync"

	"github.com/tmlight/go-tmlight/light/store"
	"github.com/tmlight/go-tmlight/types"
)

type entry struct {
	block  *types.LightBlock
	status store.Status
}

// Store keeps light blocks in memory. Contents are lost on process exit;
// use the db backend for a persistent trust base.
type Store struct {
	mtx     sync.RWMutex
	entries map[int64]*entry
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

var _ store.Store = (*Store)(nil)

// Insert implements store.Store.
func (s *Store) Insert(lb *types.LightBlock, status store.Status) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if existing, ok := s.entries[lb.Height()]; ok {
		if existing.block.Hash() != lb.Hash() {
			return store.ErrConflictingBlock
		}
		return nil
	}
	s.entries[lb.Height()] = &entry{block: lb, status: status}
	return nil
}

// Get implements store.Store.
func (s *Store) Get(height int64) (*types.LightBlock, store.Status, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	e, ok := s.entries[height]
	if !ok {
		return nil, 0, store.ErrBlockNotFound
	}
	return e.block, e.status, nil
}

// GetNonFailed implements store.Store.
func (s *Store) GetNonFailed(height int64) (*types.LightBlock, store.Status, error) {
	lb, status, err := s.Get(height)
	if err != nil {
		return nil, 0, err
	}
	if status == store.StatusFailed {
		return nil, 0, store.ErrBlockNotFound
	}
	return lb, status, nil
}

// Update implements store.Store.
func (s *Store) Update(height int64, status store.Status) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	e, ok := s.entries[height]
	if !ok {
		return store.ErrBlockNotFound
	}
	next, err := store.ApplyUpdate(e.status, status)
	if err != nil {
		return err
	}
	e.status = next
	return nil
}

// LatestTrusted implements store.Store.
func (s *Store) LatestTrusted() (*types.LightBlock, error) {
	return s.Highest(store.StatusTrusted)
}

// Highest implements store.Store.
func (s *Store) Highest(status store.Status) (*types.LightBlock, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var best *entry
	for _, e := range s.entries {
		if e.status != status {
			continue
		}
		if best == nil || e.block.Height() > best.block.Height() {
			best = e
		}
	}
	if best == nil {
		return nil, store.ErrBlockNotFound
	}
	return best.block, nil
}

// Lowest implements store.Store.
func (s *Store) Lowest(status store.Status) (*types.LightBlock, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var best *entry
	for _, e := range s.entries {
		if e.status != status {
			continue
		}
		if best == nil || e.block.Height() < best.block.Height() {
			best = e
		}
	}
	if best == nil {
		return nil, store.ErrBlockNotFound
	}
	return best.block, nil
}

// Prune implements store.Store.
func (s *Store) Prune(keep int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	excess := len(s.entries) - keep
	if excess <= 0 {
		return nil
	}
	// Drop non-trusted entries first, lowest heights first, then reach
	// into trusted ones if still over budget.
	for _, trusted := range []bool{false, true} {
		for excess > 0 {
			height, ok := s.lowestLocked(trusted)
			if !ok {
				break
			}
			delete(s.entries, height)
			excess--
		}
	}
	return nil
}

func (s *Store) lowestLocked(trusted bool) (int64, bool) {
	var (
		found  bool
		lowest int64
	)
	for h, e := range s.entries {
		if (e.status == store.StatusTrusted) != trusted {
			continue
		}
		if !found || h < lowest {
			lowest = h
			found = true
		}
	}
	return lowest, found
}
