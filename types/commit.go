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
)

// BlockIDFlag states which block ID a commit signature is for, if any.
type BlockIDFlag byte

const (
	// BlockIDFlagAbsent - no vote was received from the validator.
	BlockIDFlagAbsent BlockIDFlag = iota + 1
	// BlockIDFlagCommit - the validator voted for the committed block.
	BlockIDFlagCommit
	// BlockIDFlagNil - the validator voted for nil.
	BlockIDFlagNil
)

// CommitSig is one validator's slot in a commit.
type CommitSig struct {
	BlockIDFlag      BlockIDFlag    `json:"block_id_flag"`
	ValidatorAddress common.Address `json:"validator_address"`
	Timestamp        time.Time      `json:"timestamp"`
	Signature        []byte         `json:"signature"`
}

// NewCommitSigAbsent returns a CommitSig for a validator that did not vote.
func NewCommitSigAbsent() CommitSig {
	return CommitSig{BlockIDFlag: BlockIDFlagAbsent}
}

// Absent reports whether no vote was received from the validator.
func (cs CommitSig) Absent() bool { return cs.BlockIDFlag == BlockIDFlagAbsent }

// ForBlock reports whether the signature is a vote for the committed block.
func (cs CommitSig) ForBlock() bool { return cs.BlockIDFlag == BlockIDFlagCommit }

// ValidateBasic performs stateless validity checks on the commit signature.
func (cs CommitSig) ValidateBasic() error {
	switch cs.BlockIDFlag {
	case BlockIDFlagAbsent:
		if !cs.ValidatorAddress.IsZero() {
			return errors.New("validator address is present for an absent commit sig")
		}
		if len(cs.Signature) != 0 {
			return errors.New("signature is present for an absent commit sig")
		}
		if !cs.Timestamp.IsZero() {
			return errors.New("timestamp is present for an absent commit sig")
		}
		return nil
	case BlockIDFlagCommit, BlockIDFlagNil:
		if cs.ValidatorAddress.IsZero() {
			return errors.New("commit sig has no validator address")
		}
		if len(cs.Signature) == 0 {
			return errors.New("commit sig has no signature")
		}
		if len(cs.Signature) > MaxSignatureSize {
			return fmt.Errorf("signature is too big (max: %d)", MaxSignatureSize)
		}
		return nil
	default:
		return fmt.Errorf("unknown block ID flag %d", cs.BlockIDFlag)
	}
}

// MaxSignatureSize bounds signatures of all supported schemes. DER encoded
// secp256k1 signatures are the largest at up to 72 bytes.
const MaxSignatureSize = 72

// Commit is the set of precommit votes that finalized a block.
type Commit struct {
	Height     int64       `json:"height"`
	Round      int32       `json:"round"`
	BlockID    BlockID     `json:"block_id"`
	Signatures []CommitSig `json:"signatures"`
}

// ValidateBasic performs stateless validity checks on the commit.
func (commit *Commit) ValidateBasic() error {
	if commit == nil {
		return errors.New("nil commit")
	}
	if commit.Height <= 0 {
		return fmt.Errorf("non-positive commit height %d", commit.Height)
	}
	if commit.Round < 0 {
		return fmt.Errorf("negative commit round %d", commit.Round)
	}
	if commit.BlockID.Hash.IsZero() {
		return errors.New("commit has empty block ID")
	}
	if len(commit.Signatures) == 0 {
		return errors.New("commit has no signatures")
	}
	for i, cs := range commit.Signatures {
		if err := cs.ValidateBasic(); err != nil {
			return fmt.Errorf("invalid commit sig #%d: %w", i, err)
		}
	}
	return nil
}

// VoteSignBytes returns the canonical bytes the validator at index idx
// signed (or should have signed) for this commit. A nil vote signs over a
// zero block ID.
func (commit *Commit) VoteSignBytes(chainID string, idx int) []byte {
	cs := commit.Signatures[idx]
	blockID := commit.BlockID
	if cs.BlockIDFlag == BlockIDFlagNil {
		blockID = BlockID{}
	}
	return canonicalVoteBytes(chainID, commit.Height, int64(commit.Round), blockID, cs.Timestamp)
}

// String implements fmt.Stringer.
func (commit *Commit) String() string {
	if commit == nil {
		return "Commit{nil}"
	}
	return fmt.Sprintf("Commit{h: %d, r: %d, sigs: %d, block: %v}",
		commit.Height, commit.Round, len(commit.Signatures), commit.BlockID)
}
