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

package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmlight/go-tmlight/internal/test/factory"
	"github.com/tmlight/go-tmlight/types"
)

func testLightBlock(t *testing.T) *types.LightBlock {
	t.Helper()
	keys := factory.GenPrivKeys(4)
	vals := keys.ToValidators(10)
	return keys.GenLightBlock(chainID, 1, bTime, types.BlockID{}, vals, vals,
		factory.Hash("app"), 0, 4, "peer-1")
}

func TestLightBlockValidateBasic(t *testing.T) {
	lb := testLightBlock(t)
	require.NoError(t, lb.ValidateBasic(chainID))

	t.Run("wrong chain", func(t *testing.T) {
		assert.Error(t, lb.ValidateBasic("other-chain"))
	})
	t.Run("missing validator set", func(t *testing.T) {
		broken := *lb
		broken.ValidatorSet = nil
		assert.Error(t, broken.ValidateBasic(chainID))
	})
	t.Run("validator set mismatch", func(t *testing.T) {
		broken := *lb
		broken.ValidatorSet = factory.GenPrivKeysNamed("other", 4).ToValidators(10)
		assert.Error(t, broken.ValidateBasic(chainID))
	})
	t.Run("next validator set mismatch", func(t *testing.T) {
		broken := *lb
		broken.NextValidators = factory.GenPrivKeysNamed("other", 4).ToValidators(10)
		assert.Error(t, broken.ValidateBasic(chainID))
	})
	t.Run("commit for a different header", func(t *testing.T) {
		keys := factory.GenPrivKeys(4)
		vals := keys.ToValidators(10)
		other := keys.GenSignedHeader(chainID, 1, bTime.Add(1), types.BlockID{}, vals, vals,
			factory.Hash("app"), 0, 4)
		broken := *lb
		broken.SignedHeader = &types.SignedHeader{Header: lb.Header, Commit: other.Commit}
		assert.Error(t, broken.ValidateBasic(chainID))
	})
	t.Run("commit height mismatch", func(t *testing.T) {
		broken := *lb
		cp := *lb.Commit
		cp.Height = 2
		broken.SignedHeader = &types.SignedHeader{Header: lb.Header, Commit: &cp}
		assert.Error(t, broken.ValidateBasic(chainID))
	})
}

func TestLightBlockJSONRoundTrip(t *testing.T) {
	lb := testLightBlock(t)

	raw, err := json.Marshal(lb)
	require.NoError(t, err)

	var parsed types.LightBlock
	require.NoError(t, json.Unmarshal(raw, &parsed))

	require.NoError(t, parsed.ValidateBasic(chainID))
	assert.Equal(t, lb.Hash(), parsed.Hash())
	assert.Equal(t, lb.Height(), parsed.Height())
	assert.True(t, lb.Time().Equal(parsed.Time()))
	assert.Equal(t, lb.Provider, parsed.Provider)
	assert.Equal(t, len(lb.Commit.Signatures), len(parsed.Commit.Signatures))
}

func TestCommitSigValidateBasic(t *testing.T) {
	lb := testLightBlock(t)
	good := lb.Commit.Signatures[0]
	require.NoError(t, good.ValidateBasic())
	require.NoError(t, types.NewCommitSigAbsent().ValidateBasic())

	t.Run("absent with signature", func(t *testing.T) {
		cs := types.NewCommitSigAbsent()
		cs.Signature = []byte{1}
		assert.Error(t, cs.ValidateBasic())
	})
	t.Run("vote without signature", func(t *testing.T) {
		cs := good
		cs.Signature = nil
		assert.Error(t, cs.ValidateBasic())
	})
	t.Run("oversized signature", func(t *testing.T) {
		cs := good
		cs.Signature = make([]byte, types.MaxSignatureSize+1)
		assert.Error(t, cs.ValidateBasic())
	})
	t.Run("unknown flag", func(t *testing.T) {
		cs := good
		cs.BlockIDFlag = 42
		assert.Error(t, cs.ValidateBasic())
	})
}
