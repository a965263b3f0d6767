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

// Package store defines where the light client keeps the blocks it has seen,
// keyed by height and tagged with their verification status.
package store

import (
	"errors"
	"fmt"

	"github.com/tmlight/go-tmlight/types"
)

// Status is the verification state of a stored light block.
type Status byte

const (
	// StatusUnverified - the block was fetched but not yet checked.
	StatusUnverified Status = iota + 1
	// StatusVerified - the block passed a verification hop from the latest
	// trusted block.
	StatusVerified
	// StatusTrusted - the whole chain of hops up to this block succeeded.
	StatusTrusted
	// StatusFailed - the block was rejected. Terminal.
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusUnverified:
		return "unverified"
	case StatusVerified:
		return "verified"
	case StatusTrusted:
		return "trusted"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", byte(s))
	}
}

// rank orders statuses by preference for candidate queries.
func (s Status) rank() int {
	switch s {
	case StatusUnverified:
		return 1
	case StatusVerified:
		return 2
	case StatusTrusted:
		return 3
	default:
		return 0
	}
}

// Errors shared by all store backends.
var (
	// ErrBlockNotFound is returned when no entry exists at the height.
	ErrBlockNotFound = errors.New("light block not found")

	// ErrConflictingBlock is returned when an insert would overwrite an
	// entry with a byte-different header at the same height. A provider
	// that causes this is faulty.
	ErrConflictingBlock = errors.New("conflicting light block at height")

	// ErrFailedIsTerminal is returned by Update when asked to move an
	// entry out of the failed state.
	ErrFailedIsTerminal = errors.New("cannot update a failed light block")

	// ErrCannotFailTrusted is returned by Update when asked to fail an
	// entry that has already been trusted.
	ErrCannotFailTrusted = errors.New("cannot fail a trusted light block")
)

// Store keeps light blocks keyed by height along with their status.
//
// Stores are single-writer within one verification run; concurrent runs
// against the same store need external synchronization. Backends still
// guard their internals so that read-only callers are safe.
type Store interface {
	// Insert stores the block under its height with the given status.
	// Re-inserting the same block is a no-op (the existing status wins);
	// inserting a different block at an occupied height fails with
	// ErrConflictingBlock.
	Insert(lb *types.LightBlock, status Status) error

	// Get returns the entry at the height, or ErrBlockNotFound.
	Get(height int64) (*types.LightBlock, Status, error)

	// GetNonFailed is Get restricted to entries that have not failed;
	// a failed entry reads as ErrBlockNotFound.
	GetNonFailed(height int64) (*types.LightBlock, Status, error)

	// Update transitions the status of the entry at the height. Status
	// only moves up the Unverified < Verified < Trusted order, except
	// that any non-trusted entry may be failed. Leaving StatusFailed
	// fails with ErrFailedIsTerminal. Downgrades are ignored.
	Update(height int64, status Status) error

	// LatestTrusted returns the trusted block of greatest height, or
	// ErrBlockNotFound if there is none.
	LatestTrusted() (*types.LightBlock, error)

	// Highest returns the block of greatest height with the given
	// status, or ErrBlockNotFound.
	Highest(status Status) (*types.LightBlock, error)

	// Lowest returns the block of least height with the given status,
	// or ErrBlockNotFound.
	Lowest(status Status) (*types.LightBlock, error)

	// Prune removes entries, lowest heights first, until at most keep
	// remain. Trusted entries are preferred for survival.
	Prune(keep int) error
}

// ApplyUpdate decides the status transition Update must apply. It returns
// the status to write (possibly the old one, for ignored downgrades) or an
// error for forbidden transitions.
func ApplyUpdate(old, next Status) (Status, error) {
	if old == StatusFailed {
		if next == StatusFailed {
			return old, nil
		}
		return old, ErrFailedIsTerminal
	}
	if next == StatusFailed {
		if old == StatusTrusted {
			return old, ErrCannotFailTrusted
		}
		return next, nil
	}
	if next.rank() > old.rank() {
		return next, nil
	}
	return old, nil
}
