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

// SignedHeader is a header together with the commit that finalized it.
type SignedHeader struct {
	*Header `json:"header"`

	Commit *Commit `json:"commit"`
}

// ValidateBasic checks that the header and commit are well formed and
// consistent with each other and with the given chain ID.
func (sh *SignedHeader) ValidateBasic(chainID string) error {
	if sh == nil {
		return errors.New("nil signed header")
	}
	if sh.Header == nil {
		return errors.New("signed header has no header")
	}
	if sh.Commit == nil {
		return errors.New("signed header has no commit")
	}
	if err := sh.Header.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}
	if err := sh.Commit.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid commit: %w", err)
	}
	if sh.ChainID != chainID {
		return fmt.Errorf("header belongs to chain %q, not %q", sh.ChainID, chainID)
	}
	if sh.Commit.Height != sh.Height {
		return fmt.Errorf("commit signs height %d, header is at %d", sh.Commit.Height, sh.Height)
	}
	if hash := sh.Hash(); !sh.Commit.BlockID.Hash.Equal(hash.Bytes()) {
		return fmt.Errorf("commit signs block %v, header hash is %v", sh.Commit.BlockID.Hash, hash)
	}
	return nil
}

// String implements fmt.Stringer.
func (sh *SignedHeader) String() string {
	if sh == nil {
		return "SignedHeader{nil}"
	}
	return fmt.Sprintf("SignedHeader{%v, %v}", sh.Header, sh.Commit)
}

// LightBlock is the unit the light client operates on: a signed header
// together with the validator set that signed it and the set that will sign
// the next block, as reported by a particular peer.
type LightBlock struct {
	*SignedHeader `json:"signed_header"`

	ValidatorSet   *ValidatorSet `json:"validator_set"`
	NextValidators *ValidatorSet `json:"next_validator_set"`

	// Provider is the peer that served this block.
	Provider PeerID `json:"provider"`
}

// Height returns the block height.
func (lb *LightBlock) Height() int64 { return lb.SignedHeader.Height }

// Time returns the block timestamp.
func (lb *LightBlock) Time() time.Time { return lb.SignedHeader.Time }

// Hash returns the header self-hash.
func (lb *LightBlock) Hash() common.Hash { return lb.SignedHeader.Hash() }

// ValidateBasic checks the internal consistency of the light block: the
// signed header must be valid for the chain, both validator sets must be
// well formed, and the header's validator hashes must match the supplied
// sets. Commit signatures are not verified here; that is the verifier's
// job.
func (lb *LightBlock) ValidateBasic(chainID string) error {
	if lb == nil {
		return errors.New("nil light block")
	}
	if lb.SignedHeader == nil {
		return errors.New("light block has no signed header")
	}
	if lb.ValidatorSet == nil {
		return errors.New("light block has no validator set")
	}
	if lb.NextValidators == nil {
		return errors.New("light block has no next validator set")
	}
	if err := lb.SignedHeader.ValidateBasic(chainID); err != nil {
		return err
	}
	if err := lb.ValidatorSet.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid validator set: %w", err)
	}
	if err := lb.NextValidators.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid next validator set: %w", err)
	}
	if got, want := lb.ValidatorSet.Hash(), lb.SignedHeader.ValidatorsHash; got != want {
		return fmt.Errorf("validator set hash %v does not match header value %v", got, want)
	}
	if got, want := lb.NextValidators.Hash(), lb.SignedHeader.NextValidatorsHash; got != want {
		return fmt.Errorf("next validator set hash %v does not match header value %v", got, want)
	}
	return nil
}

// String implements fmt.Stringer.
func (lb *LightBlock) String() string {
	if lb == nil {
		return "LightBlock{nil}"
	}
	return fmt.Sprintf("LightBlock{h: %d, hash: %v, provider: %s}",
		lb.Height(), lb.SignedHeader.Hash().TerminalString(), lb.Provider)
}
