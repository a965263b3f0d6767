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

// Package provider defines how the light client fetches light blocks from
// untrusted full nodes.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmlight/go-tmlight/types"
)

// LatestHeight requests the provider's current tip.
const LatestHeight = int64(0)

// Provider fetches light blocks from a single full node. Implementations
// may cache but must never invent data: a block returned for a positive
// height carries exactly that height, and every returned block is internally
// consistent and stamped with the provider's own ID.
type Provider interface {
	// ChainID returns the blockchain ID the provider serves.
	ChainID() string

	// ID returns the peer identifier stamped onto fetched blocks.
	ID() types.PeerID

	// LightBlock fetches the light block at the given height, or the
	// latest one for LatestHeight. Cancellation of ctx surfaces as
	// context.Canceled or context.DeadlineExceeded.
	LightBlock(ctx context.Context, height int64) (*types.LightBlock, error)
}

// Errors returned by providers.
var (
	// ErrHeightNotFound is returned when the node has no block at the
	// requested height (yet).
	ErrHeightNotFound = errors.New("height not found")

	// ErrTimeout is returned when the request exceeded the provider's
	// own deadline.
	ErrTimeout = errors.New("provider timed out")

	// ErrConnectionClosed is returned for transport failures; the caller
	// may retry against a different provider.
	ErrConnectionClosed = errors.New("connection closed")
)

// ErrBadLightBlock is returned when the node responded with data that does
// not form a valid light block. The provider is faulty.
type ErrBadLightBlock struct {
	Reason error
}

func (e ErrBadLightBlock) Error() string {
	return fmt.Sprintf("bad light block: %v", e.Reason)
}

func (e ErrBadLightBlock) Unwrap() error { return e.Reason }
