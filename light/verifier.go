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

package light

import (
	"errors"
	"fmt"
	"time"

	"github.com/tmlight/go-tmlight/types"
)

// Verdict is the outcome of one verification hop.
type Verdict int

const (
	// VerdictInvalid - the untrusted block is bad and will never verify
	// against this trusted block. The accompanying error says why.
	VerdictInvalid Verdict = iota
	// VerdictNotEnoughTrust - the block may well be honest, but the
	// trusted validator set's overlap with its signers is too small for
	// a direct hop. Bisect and retry.
	VerdictNotEnoughTrust
	// VerdictOK - the block extends trust from the trusted block.
	VerdictOK
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "verified"
	case VerdictNotEnoughTrust:
		return "not enough trust"
	case VerdictInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// Verifier decides whether an untrusted block extends trust from a trusted
// one at the given local time. Implementations must be pure functions of
// their inputs.
type Verifier interface {
	Verify(trusted, untrusted *types.LightBlock, now time.Time) (Verdict, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(trusted, untrusted *types.LightBlock, now time.Time) (Verdict, error)

// Verify implements Verifier.
func (f VerifierFunc) Verify(trusted, untrusted *types.LightBlock, now time.Time) (Verdict, error) {
	return f(trusted, untrusted, now)
}

// NewVerifier returns the production verifier for the given chain and
// verification parameters.
func NewVerifier(chainID string, opts Options) Verifier {
	return VerifierFunc(func(trusted, untrusted *types.LightBlock, now time.Time) (Verdict, error) {
		return Verify(chainID, trusted, untrusted, opts, now)
	})
}

// Verify dispatches to VerifyAdjacent or VerifyNonAdjacent depending on the
// height gap between the two blocks.
func Verify(chainID string, trusted, untrusted *types.LightBlock, opts Options, now time.Time) (Verdict, error) {
	if untrusted.Height() == trusted.Height()+1 {
		return VerifyAdjacent(chainID, trusted, untrusted, opts, now)
	}
	return VerifyNonAdjacent(chainID, trusted, untrusted, opts, now)
}

// VerifyAdjacent verifies a block exactly one height above the trusted one.
// It ensures that:
//
//	a) the trusted block is still within its trusting period
//	b) the untrusted block is internally valid, later in time, and not
//	   from the future
//	c) the untrusted header references the trusted header as its parent
//	d) the untrusted header's validator set is the trusted header's next
//	   validator set
//	e) more than 2/3 of that set signed the untrusted block
func VerifyAdjacent(chainID string, trusted, untrusted *types.LightBlock, opts Options, now time.Time) (Verdict, error) {
	if untrusted.Height() != trusted.Height()+1 {
		return VerdictInvalid, errors.New("headers must be adjacent in height")
	}

	if HeaderExpired(trusted.SignedHeader, opts.TrustingPeriod, now.Add(opts.ClockDrift)) {
		return VerdictInvalid, ErrOldHeaderExpired{
			At:  trusted.Time().Add(opts.TrustingPeriod),
			Now: now,
		}
	}

	if err := verifyNewHeaderAndVals(chainID, untrusted, trusted, now, opts.ClockDrift); err != nil {
		return VerdictInvalid, ErrInvalidHeader{err}
	}

	if got, want := untrusted.SignedHeader.LastBlockID.Hash, trusted.Hash(); got != want {
		return VerdictInvalid, ErrInvalidHeader{
			fmt.Errorf("%w: header references %v, trusted hash is %v", ErrLastBlockIDMismatch, got, want),
		}
	}

	if got, want := untrusted.SignedHeader.ValidatorsHash, trusted.SignedHeader.NextValidatorsHash; got != want {
		return VerdictInvalid, ErrInvalidHeader{
			fmt.Errorf("%w: header carries %v, trusted next validators are %v", ErrValidatorSetMismatch, got, want),
		}
	}

	if err := types.VerifyCommitLight(chainID, untrusted.ValidatorSet, untrusted.Commit.BlockID,
		untrusted.Height(), untrusted.Commit); err != nil {
		return VerdictInvalid, ErrInvalidHeader{err}
	}
	return VerdictOK, nil
}

// VerifyNonAdjacent verifies a block more than one height above the trusted
// one (a skipping hop). It ensures that:
//
//	a) the trusted block is still within its trusting period
//	b) the untrusted block is internally valid, later in time, and not
//	   from the future
//	c) more than the trust threshold of the trusted next validator set
//	   signed the untrusted block (if not, VerdictNotEnoughTrust)
//	d) more than 2/3 of the untrusted block's own validator set signed it
//
// The 2/3 check runs last: the untrusted validator set is attacker chosen
// and can be made arbitrarily large, while the trusted overlap check (c)
// only ever touches validators we already know.
func VerifyNonAdjacent(chainID string, trusted, untrusted *types.LightBlock, opts Options, now time.Time) (Verdict, error) {
	if untrusted.Height() == trusted.Height()+1 {
		return VerdictInvalid, errors.New("headers must be non adjacent in height")
	}

	if HeaderExpired(trusted.SignedHeader, opts.TrustingPeriod, now.Add(opts.ClockDrift)) {
		return VerdictInvalid, ErrOldHeaderExpired{
			At:  trusted.Time().Add(opts.TrustingPeriod),
			Now: now,
		}
	}

	if err := verifyNewHeaderAndVals(chainID, untrusted, trusted, now, opts.ClockDrift); err != nil {
		return VerdictInvalid, ErrInvalidHeader{err}
	}

	err := types.VerifyCommitLightTrusting(chainID, trusted.NextValidators, untrusted.Commit, opts.TrustThreshold)
	if err != nil {
		var insufficient types.ErrNotEnoughVotingPowerSigned
		if errors.As(err, &insufficient) {
			return VerdictNotEnoughTrust, ErrNewValSetCantBeTrusted{insufficient}
		}
		return VerdictInvalid, ErrInvalidHeader{err}
	}

	if err := types.VerifyCommitLight(chainID, untrusted.ValidatorSet, untrusted.Commit.BlockID,
		untrusted.Height(), untrusted.Commit); err != nil {
		return VerdictInvalid, ErrInvalidHeader{err}
	}
	return VerdictOK, nil
}

// verifyNewHeaderAndVals runs the checks shared by both hop kinds: internal
// consistency of the untrusted block, strictly increasing height and time,
// and the bound on timestamps from the future.
func verifyNewHeaderAndVals(chainID string, untrusted *types.LightBlock, trusted *types.LightBlock, now time.Time, clockDrift time.Duration) error {
	if err := untrusted.ValidateBasic(chainID); err != nil {
		return err
	}
	if untrusted.Height() <= trusted.Height() {
		return fmt.Errorf("expected new header height %d to be greater than one of old header %d",
			untrusted.Height(), trusted.Height())
	}
	if !untrusted.Time().After(trusted.Time()) {
		return fmt.Errorf("expected new header time %v to be after old header time %v",
			untrusted.Time(), trusted.Time())
	}
	if !untrusted.Time().Before(now.Add(clockDrift)) {
		return ErrHeaderFromFuture{HeaderTime: untrusted.Time(), Now: now, Drift: clockDrift}
	}
	return nil
}

// HeaderExpired reports whether the given header is outside its trusting
// period at the given time.
func HeaderExpired(sh *types.SignedHeader, trustingPeriod time.Duration, now time.Time) bool {
	expirationTime := sh.Time.Add(trustingPeriod)
	return !expirationTime.After(now)
}
