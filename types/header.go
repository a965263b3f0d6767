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

package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/tmlight/go-tmlight/common"
	"github.com/tmlight/go-tmlight/merkle"
)

// MaxChainIDLen is the maximum permitted length of a chain identifier.
const MaxChainIDLen = 50

// PeerID identifies the full node a light block was obtained from.
type PeerID string

// PartSetHeader describes how a block was split into parts for gossip.
type PartSetHeader struct {
	Total uint32      `json:"total"`
	Hash  common.Hash `json:"hash"`
}

// IsZero reports whether the part set header is empty.
func (psh PartSetHeader) IsZero() bool {
	return psh.Total == 0 && psh.Hash.IsZero()
}

// BlockID identifies a block by its header hash and part set header.
type BlockID struct {
	Hash          common.Hash   `json:"hash"`
	PartSetHeader PartSetHeader `json:"parts"`
}

// IsZero reports whether the block ID is empty.
func (blockID BlockID) IsZero() bool {
	return blockID.Hash.IsZero() && blockID.PartSetHeader.IsZero()
}

// Equals reports whether two block IDs are identical.
func (blockID BlockID) Equals(other BlockID) bool {
	return blockID == other
}

// String implements fmt.Stringer.
func (blockID BlockID) String() string {
	return fmt.Sprintf("%v:%v", blockID.Hash.TerminalString(), blockID.PartSetHeader.Total)
}

// Header is a block header as seen by the light client. The self-hash is
// the Merkle root over the canonical encoding of every field, in order.
type Header struct {
	ChainID string    `json:"chain_id"`
	Height  int64     `json:"height"`
	Time    time.Time `json:"time"`

	// LastBlockID is the ID of the previous block. Zero at height 1,
	// required non-zero above.
	LastBlockID BlockID `json:"last_block_id"`

	// Hashes of the block data.
	LastCommitHash common.Hash `json:"last_commit_hash"`
	DataHash       common.Hash `json:"data_hash"`

	// Hashes from the app for the previous block, and the validator sets.
	ValidatorsHash     common.Hash `json:"validators_hash"`
	NextValidatorsHash common.Hash `json:"next_validators_hash"`
	ConsensusHash      common.Hash `json:"consensus_hash"`
	AppHash            common.Hash `json:"app_hash"`
	LastResultsHash    common.Hash `json:"last_results_hash"`

	EvidenceHash    common.Hash    `json:"evidence_hash"`
	ProposerAddress common.Address `json:"proposer_address"`

	// hash is the memoized self-hash. Headers are treated as immutable
	// once built; mutating a hashed header is a programming error.
	hash common.Hash
}

// Hash returns the self-hash of the header, memoizing the result.
func (h *Header) Hash() common.Hash {
	if !h.hash.IsZero() {
		return h.hash
	}
	fields := [][]byte{
		encodeStringField(h.ChainID),
		encodeInt64Field(h.Height),
		encodeTimeField(h.Time),
		encodeBlockIDField(h.LastBlockID),
		encodeBytesField(h.LastCommitHash.Bytes()),
		encodeBytesField(h.DataHash.Bytes()),
		encodeBytesField(h.ValidatorsHash.Bytes()),
		encodeBytesField(h.NextValidatorsHash.Bytes()),
		encodeBytesField(h.ConsensusHash.Bytes()),
		encodeBytesField(h.AppHash.Bytes()),
		encodeBytesField(h.LastResultsHash.Bytes()),
		encodeBytesField(h.EvidenceHash.Bytes()),
		encodeBytesField(h.ProposerAddress.Bytes()),
	}
	h.hash = common.BytesToHash(merkle.HashFromByteSlices(fields))
	return h.hash
}

// ValidateBasic performs stateless validity checks on the header.
func (h *Header) ValidateBasic() error {
	if h == nil {
		return errors.New("nil header")
	}
	if len(h.ChainID) == 0 {
		return errors.New("empty chain ID")
	}
	if len(h.ChainID) > MaxChainIDLen {
		return fmt.Errorf("chain ID is too long; got: %d, max: %d", len(h.ChainID), MaxChainIDLen)
	}
	if h.Height <= 0 {
		return fmt.Errorf("non-positive height %d", h.Height)
	}
	if h.Time.IsZero() {
		return errors.New("zero header time")
	}
	if h.Height == 1 {
		if !h.LastBlockID.IsZero() {
			return errors.New("first block must not reference a previous block")
		}
	} else if h.LastBlockID.Hash.IsZero() {
		return fmt.Errorf("missing last block ID at height %d", h.Height)
	}
	if h.ValidatorsHash.IsZero() {
		return errors.New("empty validators hash")
	}
	if h.NextValidatorsHash.IsZero() {
		return errors.New("empty next validators hash")
	}
	if h.ProposerAddress.IsZero() {
		return errors.New("empty proposer address")
	}
	return nil
}

// String implements fmt.Stringer.
func (h *Header) String() string {
	if h == nil {
		return "Header{nil}"
	}
	return fmt.Sprintf("Header{%s/%d @ %v, vals: %s}",
		h.ChainID, h.Height, h.Time.UTC().Format(time.RFC3339), h.ValidatorsHash.TerminalString())
}
