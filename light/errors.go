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

// Errors of the verification core.
var (
	// ErrNoTrustedState is returned when the store holds no trusted
	// block to extend trust from. The caller must supply a trust anchor.
	ErrNoTrustedState = errors.New("no trusted state in light store")

	// ErrNoProgress is returned when the scheduler fails to shrink the
	// verification gap; it indicates a broken scheduler, not bad data.
	ErrNoProgress = errors.New("no progress in bisection")

	// ErrLastBlockIDMismatch is returned when an adjacent header does
	// not reference the trusted header's hash.
	ErrLastBlockIDMismatch = errors.New("last block ID does not match trusted header")

	// ErrValidatorSetMismatch is returned when an adjacent header's
	// validator set differs from the trusted header's next validators.
	ErrValidatorSetMismatch = errors.New("validator set does not match trusted next validators")
)

// ErrOldHeaderExpired is returned when the trusted header has left its
// trusting period and can no longer serve as a verification root.
type ErrOldHeaderExpired struct {
	At  time.Time
	Now time.Time
}

func (e ErrOldHeaderExpired) Error() string {
	return fmt.Sprintf("old header has expired at %v (now: %v)", e.At, e.Now)
}

// ErrHeaderFromFuture is returned when an untrusted header's timestamp is
// ahead of local time by the tolerated clock drift or more.
type ErrHeaderFromFuture struct {
	HeaderTime time.Time
	Now        time.Time
	Drift      time.Duration
}

func (e ErrHeaderFromFuture) Error() string {
	return fmt.Sprintf("header has a time from the future %v (now: %v; max clock drift: %v)",
		e.HeaderTime, e.Now, e.Drift)
}

// ErrInvalidHeader means the untrusted header could not be verified; the
// block is dead at this provider.
type ErrInvalidHeader struct {
	Reason error
}

func (e ErrInvalidHeader) Error() string {
	return fmt.Sprintf("invalid header: %v", e.Reason)
}

func (e ErrInvalidHeader) Unwrap() error { return e.Reason }

// ErrNewValSetCantBeTrusted means too little of the trusted validator set
// signed the new header for a skipping hop. Recoverable by bisecting.
type ErrNewValSetCantBeTrusted struct {
	Reason types.ErrNotEnoughVotingPowerSigned
}

func (e ErrNewValSetCantBeTrusted) Error() string {
	return fmt.Sprintf("can't trust new val set: %v", e.Reason)
}

// ErrTargetBelowTrusted is returned when the requested target height lies
// below the latest trusted block.
type ErrTargetBelowTrusted struct {
	Target  int64
	Trusted int64
}

func (e ErrTargetBelowTrusted) Error() string {
	return fmt.Sprintf("target height %d is below the latest trusted height %d", e.Target, e.Trusted)
}
