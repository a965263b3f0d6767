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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmlight/go-tmlight/internal/test/factory"
	"github.com/tmlight/go-tmlight/light"
	"github.com/tmlight/go-tmlight/types"
)

var testOptions = light.Options{
	TrustThreshold: types.DefaultTrustThreshold,
	TrustingPeriod: 4 * time.Hour,
	ClockDrift:     10 * time.Second,
}

func TestVerifyAdjacentSuccess(t *testing.T) {
	blocks := genChain(2, 4, 0)
	now := bTime.Add(time.Hour)

	verdict, err := light.Verify(chainID, blocks[1], blocks[2], testOptions, now)
	require.NoError(t, err)
	assert.Equal(t, light.VerdictOK, verdict)
}

func TestVerifyAdjacentChecks(t *testing.T) {
	now := bTime.Add(time.Hour)

	t.Run("wrong parent reference", func(t *testing.T) {
		blocks := genChain(2, 4, 0)
		keys := factory.GenPrivKeysNamed("chain", 4)
		vals := keys.ToValidators(1)
		// Height 2 built on a bogus parent.
		orphan := keys.GenLightBlock(chainID, 2, bTime.Add(blockGap), types.BlockID{
			Hash:          factory.Hash("bogus-parent"),
			PartSetHeader: types.PartSetHeader{Total: 1, Hash: factory.Hash("parts")},
		}, vals, vals, factory.Hash("app"), 0, 4, peerID)

		verdict, err := light.Verify(chainID, blocks[1], orphan, testOptions, now)
		assert.Equal(t, light.VerdictInvalid, verdict)
		assert.ErrorIs(t, err, light.ErrLastBlockIDMismatch)
	})

	t.Run("validator set not the promised one", func(t *testing.T) {
		blocks := genChain(2, 4, 0)
		strangers := factory.GenPrivKeysNamed("stranger", 4)
		strangeVals := strangers.ToValidators(1)
		impostor := strangers.GenLightBlock(chainID, 2, bTime.Add(blockGap),
			factory.BlockIDFor(blocks[1].SignedHeader), strangeVals, strangeVals,
			factory.Hash("app"), 0, 4, peerID)

		verdict, err := light.Verify(chainID, blocks[1], impostor, testOptions, now)
		assert.Equal(t, light.VerdictInvalid, verdict)
		assert.ErrorIs(t, err, light.ErrValidatorSetMismatch)
	})

	t.Run("time not increasing", func(t *testing.T) {
		blocks := genChain(2, 4, 0)
		keys := factory.GenPrivKeysNamed("chain", 4)
		vals := keys.ToValidators(1)
		stale := keys.GenLightBlock(chainID, 2, bTime, // same time as block 1
			factory.BlockIDFor(blocks[1].SignedHeader), vals, vals,
			factory.Hash("app"), 0, 4, peerID)

		verdict, err := light.Verify(chainID, blocks[1], stale, testOptions, now)
		assert.Equal(t, light.VerdictInvalid, verdict)
		assert.Error(t, err)
	})

	t.Run("insufficient signatures", func(t *testing.T) {
		keys := factory.GenPrivKeysNamed("nine", 9)
		vals := keys.ToValidators(1)
		h1 := keys.GenLightBlock(chainID, 1, bTime, types.BlockID{}, vals, vals,
			factory.Hash("app"), 0, 9, peerID)
		// Exactly 2/3 signed; the threshold is strict.
		h2 := keys.GenLightBlock(chainID, 2, bTime.Add(blockGap),
			factory.BlockIDFor(h1.SignedHeader), vals, vals, factory.Hash("app"), 0, 6, peerID)

		verdict, err := light.Verify(chainID, h1, h2, testOptions, now)
		assert.Equal(t, light.VerdictInvalid, verdict)
		var insufficient types.ErrNotEnoughVotingPowerSigned
		assert.ErrorAs(t, err, &insufficient)
	})
}

func TestVerifyExpiredTrustedHeader(t *testing.T) {
	blocks := genChain(2, 4, 0)

	// The trusting period ends drift-adjusted: the trusted header is
	// expired as soon as bTime+period <= now+drift.
	edge := bTime.Add(testOptions.TrustingPeriod - testOptions.ClockDrift)

	verdict, err := light.Verify(chainID, blocks[1], blocks[2], testOptions, edge)
	assert.Equal(t, light.VerdictInvalid, verdict)
	var expired light.ErrOldHeaderExpired
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, bTime.Add(testOptions.TrustingPeriod), expired.At)

	// A nanosecond earlier the header is still good.
	verdict, err = light.Verify(chainID, blocks[1], blocks[2], testOptions, edge.Add(-time.Nanosecond))
	require.NoError(t, err)
	assert.Equal(t, light.VerdictOK, verdict)
}

func TestVerifyHeaderFromFuture(t *testing.T) {
	blocks := genChain(2, 4, 0)

	// Local clock sits before block 2's timestamp by exactly the drift; the
	// bound is strict, so this is already from the future.
	now := blocks[2].Time().Add(-testOptions.ClockDrift)

	verdict, err := light.Verify(chainID, blocks[1], blocks[2], testOptions, now)
	assert.Equal(t, light.VerdictInvalid, verdict)
	var future light.ErrHeaderFromFuture
	require.ErrorAs(t, err, &future)
	assert.Equal(t, blocks[2].Time(), future.HeaderTime)

	// One nanosecond of extra clock clears the bound.
	verdict, err = light.Verify(chainID, blocks[1], blocks[2], testOptions, now.Add(time.Nanosecond))
	require.NoError(t, err)
	assert.Equal(t, light.VerdictOK, verdict)
}

func TestVerifyNonAdjacent(t *testing.T) {
	now := bTime.Add(3 * time.Hour)

	t.Run("static validator set skips any distance", func(t *testing.T) {
		blocks := genChain(5, 4, 0)
		verdict, err := light.Verify(chainID, blocks[1], blocks[5], testOptions, now)
		require.NoError(t, err)
		assert.Equal(t, light.VerdictOK, verdict)
	})

	t.Run("slow rotation keeps enough overlap", func(t *testing.T) {
		blocks := genChain(5, 9, 1)
		// Overlap between next validators of 1 and signers of 5 is 6/9.
		verdict, err := light.Verify(chainID, blocks[1], blocks[5], testOptions, now)
		require.NoError(t, err)
		assert.Equal(t, light.VerdictOK, verdict)
	})

	t.Run("full rotation loses all trust", func(t *testing.T) {
		blocks := genChain(5, 4, 4)
		verdict, err := light.Verify(chainID, blocks[1], blocks[5], testOptions, now)
		assert.Equal(t, light.VerdictNotEnoughTrust, verdict)
		var cant light.ErrNewValSetCantBeTrusted
		assert.ErrorAs(t, err, &cant)
	})

	t.Run("overlap at exactly the threshold is refused", func(t *testing.T) {
		// Rotation of 2 per height over 9 validators: between the next
		// validators of height 1 (window offset 2) and the signers of
		// height 4 (offset 6) the overlap is 5... choose height 5
		// (offset 8) for an overlap of exactly 3 of 9.
		blocks := genChain(5, 9, 2)
		verdict, err := light.Verify(chainID, blocks[1], blocks[5], testOptions, now)
		assert.Equal(t, light.VerdictNotEnoughTrust, verdict)
		var cant light.ErrNewValSetCantBeTrusted
		require.ErrorAs(t, err, &cant)
		assert.Equal(t, int64(3), cant.Reason.Got)
	})
}

func TestVerifyDispatch(t *testing.T) {
	blocks := genChain(3, 4, 0)
	now := bTime.Add(2 * time.Hour)

	// An adjacent pair handed to the non-adjacent entry point (and vice
	// versa) is a programming error, not a data fault.
	verdict, err := light.VerifyNonAdjacent(chainID, blocks[1], blocks[2], testOptions, now)
	assert.Equal(t, light.VerdictInvalid, verdict)
	assert.Error(t, err)

	verdict, err = light.VerifyAdjacent(chainID, blocks[1], blocks[3], testOptions, now)
	assert.Equal(t, light.VerdictInvalid, verdict)
	assert.Error(t, err)
}

func TestHeaderExpired(t *testing.T) {
	blocks := genChain(1, 4, 0)
	sh := blocks[1].SignedHeader
	period := time.Hour

	assert.False(t, light.HeaderExpired(sh, period, bTime.Add(period-time.Second)))
	assert.True(t, light.HeaderExpired(sh, period, bTime.Add(period)), "expiry bound is inclusive")
	assert.True(t, light.HeaderExpired(sh, period, bTime.Add(period+time.Second)))
}
