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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmlight/go-tmlight/internal/test/factory"
	"github.com/tmlight/go-tmlight/light"
	"github.com/tmlight/go-tmlight/light/provider"
	"github.com/tmlight/go-tmlight/light/provider/mock"
	"github.com/tmlight/go-tmlight/light/store"
	"github.com/tmlight/go-tmlight/light/store/memory"
	"github.com/tmlight/go-tmlight/types"
)

const trustPeriod = 4 * time.Hour

// newTestClient anchors a client at height 1 of the given chain.
func newTestClient(t *testing.T, blocks map[int64]*types.LightBlock, opts ...light.Option) (*light.Client, *mock.Mock, *memory.Store) {
	t.Helper()

	primary := mock.New(chainID, peerID, blocks)
	st := memory.New()
	clock := newFixedClock(bTime.Add(time.Hour))

	c, err := light.NewClient(context.Background(), chainID,
		light.TrustOptions{
			Period: trustPeriod,
			Height: 1,
			Hash:   blocks[1].Hash(),
		},
		primary, st,
		append([]light.Option{light.WithClock(clock)}, opts...)...,
	)
	require.NoError(t, err)
	return c, primary, st
}

func TestClientAdjacentTrivial(t *testing.T) {
	blocks := genChain(2, 4, 0)
	c, primary, st := newTestClient(t, blocks)

	lb, err := c.VerifyToTarget(context.Background(), 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, lb.Height())
	assert.Equal(t, blocks[2].Hash(), lb.Hash())

	_, status, err := st.Get(2)
	require.NoError(t, err)
	assert.Equal(t, store.StatusTrusted, status)

	// One fetch for the anchor, one for the target.
	assert.Equal(t, []int64{1, 2}, primary.Calls())

	h, err := c.LastTrustedHeight()
	require.NoError(t, err)
	assert.EqualValues(t, 2, h)
}

func TestClientBisection(t *testing.T) {
	// One validator of nine rotates out per height: by height 100 the
	// overlap with the anchor's next validators is long gone, so the
	// client has to bisect its way across.
	blocks := genChain(100, 9, 1)
	c, primary, st := newTestClient(t, blocks)

	lb, err := c.VerifyToTarget(context.Background(), 100)
	require.NoError(t, err)
	assert.EqualValues(t, 100, lb.Height())

	_, status, err := st.Get(100)
	require.NoError(t, err)
	assert.Equal(t, store.StatusTrusted, status)

	// No block may have failed along the way, and the fetch count stays
	// within the height gap (P7: one fetch per height at most).
	_, err = st.Highest(store.StatusFailed)
	assert.ErrorIs(t, err, store.ErrBlockNotFound)

	calls := primary.Calls()
	assert.LessOrEqual(t, len(calls), 100)
	perHeight := map[int64]int{}
	for _, h := range calls {
		perHeight[h]++
		assert.Equal(t, 1, perHeight[h], "height %d fetched twice", h)
	}
}

func TestClientSequentialFallback(t *testing.T) {
	// Fully disjoint validator sets at every height: every skipping hop
	// fails with not-enough-trust and bisection degrades to walking
	// adjacent heights.
	blocks := genChain(10, 4, 4)
	c, primary, _ := newTestClient(t, blocks)

	lb, err := c.VerifyToTarget(context.Background(), 10)
	require.NoError(t, err)
	assert.EqualValues(t, 10, lb.Height())

	// Every height in (1, 10] is fetched exactly once.
	calls := primary.Calls()
	assert.LessOrEqual(t, len(calls), 10)
	seen := map[int64]bool{}
	for _, h := range calls {
		assert.False(t, seen[h], "height %d fetched twice", h)
		seen[h] = true
	}
	for h := int64(2); h <= 10; h++ {
		assert.True(t, seen[h], "height %d never fetched", h)
	}
}

func TestClientVerifyToHighest(t *testing.T) {
	blocks := genChain(8, 4, 0)
	c, _, _ := newTestClient(t, blocks)

	lb, err := c.VerifyToHighest(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 8, lb.Height())
}

func TestClientTargetBelowTrusted(t *testing.T) {
	blocks := genChain(5, 4, 0)
	c, _, _ := newTestClient(t, blocks)

	_, err := c.VerifyToTarget(context.Background(), 5)
	require.NoError(t, err)

	_, err = c.VerifyToTarget(context.Background(), 3)
	var below light.ErrTargetBelowTrusted
	require.ErrorAs(t, err, &below)
	assert.EqualValues(t, 3, below.Target)
	assert.EqualValues(t, 5, below.Trusted)
}

func TestClientExpiredTrustedState(t *testing.T) {
	blocks := genChain(2, 4, 0)
	clock := newFixedClock(bTime.Add(time.Hour))
	c, primary, _ := newTestClient(t, blocks, light.WithClock(clock))

	before := len(primary.Calls())
	clock.Set(bTime.Add(trustPeriod + time.Second))

	_, err := c.VerifyToTarget(context.Background(), 2)
	var expired light.ErrOldHeaderExpired
	require.ErrorAs(t, err, &expired)

	// Expiry is detected before any I/O happens.
	assert.Len(t, primary.Calls(), before)
}

func TestClientHeaderFromFuture(t *testing.T) {
	blocks := genChain(2, 4, 0)

	// Push block 2's timestamp beyond now+drift.
	keys := factory.GenPrivKeysNamed("chain", 4)
	vals := keys.ToValidators(1)
	now := bTime.Add(time.Hour)
	blocks[2] = keys.GenLightBlock(chainID, 2, now.Add(light.DefaultClockDrift+time.Second),
		factory.BlockIDFor(blocks[1].SignedHeader), vals, vals, factory.Hash("app"), 0, 4, peerID)

	c, _, st := newTestClient(t, blocks)

	_, err := c.VerifyToTarget(context.Background(), 2)
	var future light.ErrHeaderFromFuture
	require.ErrorAs(t, err, &future)

	_, status, err := st.Get(2)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, status)
}

func TestClientInsufficientVotingPower(t *testing.T) {
	blocks := genChain(2, 9, 0)

	// Rebuild block 2 with signatures worth exactly 2/3 of the power.
	keys := factory.GenPrivKeysNamed("chain", 9)
	vals := keys.ToValidators(1)
	blocks[2] = keys.GenLightBlock(chainID, 2, bTime.Add(blockGap),
		factory.BlockIDFor(blocks[1].SignedHeader), vals, vals, factory.Hash("app"), 0, 6, peerID)

	c, _, st := newTestClient(t, blocks)

	_, err := c.VerifyToTarget(context.Background(), 2)
	var insufficient types.ErrNotEnoughVotingPowerSigned
	require.ErrorAs(t, err, &insufficient)

	_, status, err := st.Get(2)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, status)
}

// P8: a second verification of the same target does no I/O and returns the
// same block.
func TestClientIdempotence(t *testing.T) {
	blocks := genChain(30, 9, 1)
	c, primary, _ := newTestClient(t, blocks)

	first, err := c.VerifyToTarget(context.Background(), 30)
	require.NoError(t, err)
	calls := len(primary.Calls())

	second, err := c.VerifyToTarget(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), second.Hash())
	assert.Len(t, primary.Calls(), calls, "second run must not fetch")
}

// P1: trust never regresses across successful verifications.
func TestClientMonotonicTrust(t *testing.T) {
	blocks := genChain(50, 9, 1)
	c, _, _ := newTestClient(t, blocks)

	last := int64(1)
	for _, target := range []int64{10, 25, 25, 50} {
		lb, err := c.VerifyToTarget(context.Background(), target)
		require.NoError(t, err)
		h, err := c.LastTrustedHeight()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, h, lb.Height())
		assert.GreaterOrEqual(t, h, last)
		last = h
	}
}

func TestClientNoProgressScheduler(t *testing.T) {
	blocks := genChain(10, 4, 4) // forces bisection

	stuck := schedulerFunc(func(trusted, next, target int64) int64 {
		return next // never shrinks the gap
	})
	c, _, _ := newTestClient(t, blocks, light.WithScheduler(stuck))

	_, err := c.VerifyToTarget(context.Background(), 10)
	assert.ErrorIs(t, err, light.ErrNoProgress)
}

func TestClientAnchorHashMismatch(t *testing.T) {
	blocks := genChain(2, 4, 0)
	primary := mock.New(chainID, peerID, blocks)

	_, err := light.NewClient(context.Background(), chainID,
		light.TrustOptions{
			Period: trustPeriod,
			Height: 1,
			Hash:   factory.Hash("not the real header"),
		},
		primary, memory.New(),
		light.WithClock(newFixedClock(bTime.Add(time.Hour))),
	)
	require.Error(t, err)
}

func TestClientAnchorFetchFailure(t *testing.T) {
	primary := mock.NewFailing(chainID, peerID, provider.ErrConnectionClosed)

	_, err := light.NewClient(context.Background(), chainID,
		light.TrustOptions{
			Period: trustPeriod,
			Height: 1,
			Hash:   factory.Hash("whatever"),
		},
		primary, memory.New(),
		light.WithClock(newFixedClock(bTime.Add(time.Hour))),
	)
	assert.ErrorIs(t, err, provider.ErrConnectionClosed)
}

func TestClientRestoresStateFromStore(t *testing.T) {
	blocks := genChain(5, 4, 0)
	st := memory.New()
	require.NoError(t, st.Insert(blocks[3], store.StatusTrusted))

	// No anchor fetch must happen: the store already carries newer trust.
	primary := mock.New(chainID, peerID, blocks)
	c, err := light.NewClient(context.Background(), chainID,
		light.TrustOptions{
			Period: trustPeriod,
			Height: 1,
			Hash:   blocks[1].Hash(),
		},
		primary, st,
		light.WithClock(newFixedClock(bTime.Add(3*time.Hour))),
	)
	require.NoError(t, err)
	assert.Empty(t, primary.Calls())

	lb, err := c.VerifyToTarget(context.Background(), 5)
	require.NoError(t, err)
	assert.EqualValues(t, 5, lb.Height())
}

func TestClientCancellation(t *testing.T) {
	blocks := genChain(5, 4, 0)
	c, _, _ := newTestClient(t, blocks)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.VerifyToTarget(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientPruning(t *testing.T) {
	blocks := genChain(10, 4, 4)
	c, _, st := newTestClient(t, blocks, light.PruningSize(3))

	_, err := c.VerifyToTarget(context.Background(), 10)
	require.NoError(t, err)

	// The latest trusted block must survive pruning.
	lb, err := st.LatestTrusted()
	require.NoError(t, err)
	assert.EqualValues(t, 10, lb.Height())

	count := 0
	for h := int64(1); h <= 10; h++ {
		if _, _, err := st.Get(h); err == nil {
			count++
		}
	}
	assert.LessOrEqual(t, count, 3)
}

func TestClientTrustedLightBlock(t *testing.T) {
	blocks := genChain(3, 4, 0)
	c, _, _ := newTestClient(t, blocks)

	_, err := c.VerifyToTarget(context.Background(), 3)
	require.NoError(t, err)

	lb, err := c.TrustedLightBlock(3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, lb.Height())

	latest, err := c.TrustedLightBlock(0)
	require.NoError(t, err)
	assert.Equal(t, lb.Hash(), latest.Hash())

	_, err = c.TrustedLightBlock(99)
	assert.ErrorIs(t, err, store.ErrBlockNotFound)

	first, err := c.FirstTrustedHeight()
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)
}

// schedulerFunc adapts a function to the light.Scheduler interface.
type schedulerFunc func(trustedHeight, nextHeight, targetHeight int64) int64

func (f schedulerFunc) Schedule(trustedHeight, nextHeight, targetHeight int64) int64 {
	return f(trustedHeight, nextHeight, targetHeight)
}
