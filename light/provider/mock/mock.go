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

// Package mock implements a deterministic, in-memory provider for tests and
// tooling.
package mock

import (
	"context"
	"sync"

	"github.com/tmlight/go-tmlight/light/provider"
	"github.com/tmlight/go-tmlight/types"
)

// Mock serves light blocks from a fixed map of heights. It records every
// request so tests can assert on I/O counts.
type Mock struct {
	chainID string
	id      types.PeerID

	mtx    sync.Mutex
	blocks map[int64]*types.LightBlock
	latest int64
	calls  []int64
	err    error
}

var _ provider.Provider = (*Mock)(nil)

// New returns a mock provider serving the given blocks. The blocks are
// stamped with the mock's peer ID.
func New(chainID string, id types.PeerID, blocks map[int64]*types.LightBlock) *Mock {
	m := &Mock{
		chainID: chainID,
		id:      id,
		blocks:  make(map[int64]*types.LightBlock, len(blocks)),
	}
	for h, lb := range blocks {
		cp := *lb
		cp.Provider = id
		m.blocks[h] = &cp
		if h > m.latest {
			m.latest = h
		}
	}
	return m
}

// NewFailing returns a mock provider that fails every request with err.
func NewFailing(chainID string, id types.PeerID, err error) *Mock {
	return &Mock{chainID: chainID, id: id, err: err}
}

// ChainID implements provider.Provider.
func (m *Mock) ChainID() string { return m.chainID }

// ID implements provider.Provider.
func (m *Mock) ID() types.PeerID { return m.id }

// LightBlock implements provider.Provider.
func (m *Mock) LightBlock(ctx context.Context, height int64) (*types.LightBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.calls = append(m.calls, height)
	if m.err != nil {
		return nil, m.err
	}
	if height == provider.LatestHeight {
		height = m.latest
	}
	lb, ok := m.blocks[height]
	if !ok {
		return nil, provider.ErrHeightNotFound
	}
	return lb, nil
}

// Calls returns the heights requested so far, in order.
func (m *Mock) Calls() []int64 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]int64(nil), m.calls...)
}
