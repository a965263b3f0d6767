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

	"github.com/tmlight/go-tmlight/common"
)

// ErrNotEnoughVotingPowerSigned is returned when a commit carries valid
// signatures but their cumulative power does not clear the threshold.
type ErrNotEnoughVotingPowerSigned struct {
	Got    int64
	Needed int64
}

func (e ErrNotEnoughVotingPowerSigned) Error() string {
	return fmt.Sprintf("invalid commit: insufficient cumulative voting power: got %d, needed more than %d", e.Got, e.Needed)
}

// ErrInvalidCommitSignature is returned when a commit signature by a known
// validator fails verification. This is a provider fault, not a shortfall
// of voting power.
type ErrInvalidCommitSignature struct {
	ValidatorAddress common.Address
	Index            int
}

func (e ErrInvalidCommitSignature) Error() string {
	return fmt.Sprintf("invalid commit: wrong signature by validator %v at index %d", e.ValidatorAddress, e.Index)
}

// VerifyCommitLight verifies that more than 2/3 of the set's voting power
// signed the block identified by blockID at the given height.
//
// Signatures by unknown or duplicated validators are skipped, and tallying
// stops as soon as the threshold is cleared, so not every signature is
// necessarily checked. An invalid signature by a known validator fails the
// whole commit.
func VerifyCommitLight(chainID string, vals *ValidatorSet, blockID BlockID, height int64, commit *Commit) error {
	if vals == nil {
		return errors.New("nil validator set")
	}
	if commit == nil {
		return errors.New("nil commit")
	}
	if commit.Height != height {
		return fmt.Errorf("invalid commit: wanted height %d, got %d", height, commit.Height)
	}
	if !commit.BlockID.Equals(blockID) {
		return fmt.Errorf("invalid commit: wanted block ID %v, got %v", blockID, commit.BlockID)
	}

	var (
		tallied int64
		total   = vals.TotalVotingPower()
		seen    = make(map[common.Address]bool, len(commit.Signatures))
	)
	for i, cs := range commit.Signatures {
		if !cs.ForBlock() {
			continue
		}
		_, val := vals.GetByAddress(cs.ValidatorAddress)
		if val == nil || seen[cs.ValidatorAddress] {
			continue
		}
		seen[cs.ValidatorAddress] = true

		if !val.PubKey.VerifySignature(commit.VoteSignBytes(chainID, i), cs.Signature) {
			return ErrInvalidCommitSignature{ValidatorAddress: cs.ValidatorAddress, Index: i}
		}
		tallied += val.VotingPower
		// got*3 cannot overflow: total power is capped well below MaxInt64/3.
		if tallied*3 > total*2 {
			return nil
		}
	}
	return ErrNotEnoughVotingPowerSigned{Got: tallied, Needed: total * 2 / 3}
}

// VerifyCommitLightTrusting verifies that more than trustLevel of the
// trusted validator set's voting power signed the commit. This is the
// skipping-hop check: the commit was produced by a newer, unknown validator
// set, and only the overlap with the trusted set counts. Matching is by
// address, and the signature must verify against the trusted validator's
// key; a signature that does not fails the whole check with
// ErrInvalidCommitSignature.
func VerifyCommitLightTrusting(chainID string, vals *ValidatorSet, commit *Commit, trustLevel TrustThreshold) error {
	if vals == nil {
		return errors.New("nil validator set")
	}
	if commit == nil {
		return errors.New("nil commit")
	}
	if err := trustLevel.ValidateBasic(); err != nil {
		return err
	}

	var (
		tallied int64
		total   = vals.TotalVotingPower()
		seen    = make(map[common.Address]bool, len(commit.Signatures))
	)
	for i, cs := range commit.Signatures {
		if !cs.ForBlock() {
			continue
		}
		_, val := vals.GetByAddress(cs.ValidatorAddress)
		if val == nil || seen[cs.ValidatorAddress] {
			continue
		}
		seen[cs.ValidatorAddress] = true

		if !val.PubKey.VerifySignature(commit.VoteSignBytes(chainID, i), cs.Signature) {
			return ErrInvalidCommitSignature{ValidatorAddress: cs.ValidatorAddress, Index: i}
		}
		tallied += val.VotingPower
		if trustLevel.Exceeded(tallied, total) {
			return nil
		}
	}
	return ErrNotEnoughVotingPowerSigned{Got: tallied, Needed: total * trustLevel.Numerator / trustLevel.Denominator}
}
