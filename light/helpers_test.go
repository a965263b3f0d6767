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

package light_test

import (
	"sync"
	"time"

	"github.com/tmlight/go-tmlight/internal/test/factory"
	"github.com/tmlight/go-tmlight/types"
)

const (
	chainID  = "test-chain"
	peerID   = types.PeerID("primary")
	blockGap = 30 * time.Minute
)

var bTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fixedClock is a settable clock for driving expiry scenarios.
type fixedClock struct {
	mtx sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock { return &fixedClock{now: now} }

func (c *fixedClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *fixedClock) Set(now time.Time) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = now
}

// genChain builds n consecutive light blocks. The validator set of height h
// is a window of size validators into a shared key list, shifted by
// rotate*(h-1): rotate 0 keeps the set static, 1 swaps one validator per
// height, and rotate >= validators makes consecutive sets disjoint.
// Every block is signed by its full validator set with power 1 each.
func genChain(n int64, validators, rotate int) map[int64]*types.LightBlock {
	all := factory.GenPrivKeysNamed("chain", validators+rotate*int(n))
	window := func(h int64) factory.PrivKeys {
		off := rotate * int(h-1)
		return factory.PrivKeys(all[off : off+validators])
	}
	valsAt := func(h int64) *types.ValidatorSet {
		return window(h).ToValidators(1)
	}

	blocks := make(map[int64]*types.LightBlock, n)
	var lastBlockID types.BlockID
	for h := int64(1); h <= n; h++ {
		lb := window(h).GenLightBlock(chainID, h, bTime.Add(time.Duration(h-1)*blockGap),
			lastBlockID, valsAt(h), valsAt(h+1), factory.Hash("app"), 0, validators, peerID)
		blocks[h] = lb
		lastBlockID = factory.BlockIDFor(lb.SignedHeader)
	}
	return blocks
}
