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

// Package factory builds deterministic chains of signed headers for tests.
package factory

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/tmlight/go-tmlight/common"
	"github.com/tmlight/go-tmlight/crypto"
	"github.com/tmlight/go-tmlight/types"
)

// PrivKeys is a list of private keys playing the role of a validator set's
// signers, in a fixed order that is independent of address ordering.
type PrivKeys []crypto.PrivKey

// GenPrivKeys produces n deterministic ed25519 keys. The same n always
// yields the same keys, so fixtures are reproducible across runs.
func GenPrivKeys(n int) PrivKeys {
	return GenPrivKeysNamed("factory", n)
}

// GenPrivKeysNamed produces n deterministic ed25519 keys in the given
// namespace, allowing tests to build disjoint validator populations.
func GenPrivKeysNamed(name string, n int) PrivKeys {
	keys := make(PrivKeys, n)
	for i := range keys {
		keys[i] = crypto.GenPrivKeyEd25519FromSecret([]byte(fmt.Sprintf("%s-key-%d", name, i)))
	}
	return keys
}

// ToValidators builds a validator set giving every key the same power.
func (pkz PrivKeys) ToValidators(power int64) *types.ValidatorSet {
	vals := make([]*types.Validator, len(pkz))
	for i, k := range pkz {
		vals[i] = types.NewValidator(k.PubKey(), power)
	}
	vs, err := types.NewValidatorSet(vals)
	if err != nil {
		panic(err)
	}
	return vs
}

// Hash returns a deterministic digest of s, handy for filler header fields.
func Hash(s string) common.Hash {
	return common.Hash(sha256.Sum256([]byte(s)))
}

// GenSignedHeader builds a header at the given height and a commit for it
// signed by the keys in [first, last). vals must be the set the keys stand
// for; nextVals is advertised as the next set. Passing a zero lastBlockID
// is only valid at height 1.
func (pkz PrivKeys) GenSignedHeader(
	chainID string,
	height int64,
	bTime time.Time,
	lastBlockID types.BlockID,
	vals, nextVals *types.ValidatorSet,
	appHash common.Hash,
	first, last int,
) *types.SignedHeader {
	header := &types.Header{
		ChainID:            chainID,
		Height:             height,
		Time:               bTime,
		LastBlockID:        lastBlockID,
		LastCommitHash:     Hash("last_commit"),
		DataHash:           Hash("data"),
		ValidatorsHash:     vals.Hash(),
		NextValidatorsHash: nextVals.Hash(),
		ConsensusHash:      Hash("consensus"),
		AppHash:            appHash,
		LastResultsHash:    Hash("results"),
		EvidenceHash:       Hash("evidence"),
		ProposerAddress:    vals.Validators[0].Address,
	}
	blockID := types.BlockID{
		Hash: header.Hash(),
		PartSetHeader: types.PartSetHeader{
			Total: 1,
			Hash:  Hash("parts"),
		},
	}

	sigs := make([]types.CommitSig, len(pkz))
	for i, k := range pkz {
		if i < first || i >= last {
			sigs[i] = types.NewCommitSigAbsent()
			continue
		}
		sigs[i] = types.CommitSig{
			BlockIDFlag:      types.BlockIDFlagCommit,
			ValidatorAddress: k.PubKey().Address(),
			Timestamp:        bTime,
		}
	}
	commit := &types.Commit{
		Height:     height,
		Round:      1,
		BlockID:    blockID,
		Signatures: sigs,
	}
	for i, k := range pkz {
		if commit.Signatures[i].Absent() {
			continue
		}
		sig, err := k.Sign(commit.VoteSignBytes(chainID, i))
		if err != nil {
			panic(err)
		}
		commit.Signatures[i].Signature = sig
	}
	return &types.SignedHeader{Header: header, Commit: commit}
}

// GenLightBlock wraps GenSignedHeader into a full light block from peer.
func (pkz PrivKeys) GenLightBlock(
	chainID string,
	height int64,
	bTime time.Time,
	lastBlockID types.BlockID,
	vals, nextVals *types.ValidatorSet,
	appHash common.Hash,
	first, last int,
	peer types.PeerID,
) *types.LightBlock {
	sh := pkz.GenSignedHeader(chainID, height, bTime, lastBlockID, vals, nextVals, appHash, first, last)
	return &types.LightBlock{
		SignedHeader:   sh,
		ValidatorSet:   vals,
		NextValidators: nextVals,
		Provider:       peer,
	}
}

// BlockIDFor returns the block ID other headers use to reference sh.
func BlockIDFor(sh *types.SignedHeader) types.BlockID {
	return types.BlockID{
		Hash: sh.Hash(),
		PartSetHeader: types.PartSetHeader{
			Total: 1,
			Hash:  Hash("parts"),
		},
	}
}
