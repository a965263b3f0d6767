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

	"github.com/tmlight/go-tmlight/common"
	"github.com/tmlight/go-tmlight/types"
)

// Defaults for the verification parameters.
var (
	// DefaultTrustingPeriod is deliberately short; deployments should
	// set it just below the chain's unbonding period.
	DefaultTrustingPeriod = 7 * 24 * time.Hour

	// DefaultClockDrift is the tolerated lag of the local clock behind
	// block timestamps.
	DefaultClockDrift = 10 * time.Second
)

// Options are the verification parameters of a light client.
type Options struct {
	// TrustThreshold is the fraction of the trusted validator set that
	// must co-sign an untrusted header for a skipping hop.
	TrustThreshold types.TrustThreshold

	// TrustingPeriod is how long a validator set is trusted for. It
	// must be strictly shorter than the chain's unbonding period.
	TrustingPeriod time.Duration

	// ClockDrift is the maximum amount by which the local clock may
	// lag behind a block timestamp.
	ClockDrift time.Duration
}

// DefaultOptions returns the default verification parameters.
func DefaultOptions() Options {
	return Options{
		TrustThreshold: types.DefaultTrustThreshold,
		TrustingPeriod: DefaultTrustingPeriod,
		ClockDrift:     DefaultClockDrift,
	}
}

// ValidateBasic checks the options for internal consistency.
func (o Options) ValidateBasic() error {
	if err := o.TrustThreshold.ValidateBasic(); err != nil {
		return err
	}
	if o.TrustingPeriod <= 0 {
		return fmt.Errorf("trusting period must be positive, given %v", o.TrustingPeriod)
	}
	if o.ClockDrift < 0 {
		return fmt.Errorf("clock drift must not be negative, given %v", o.ClockDrift)
	}
	return nil
}

// TrustOptions is the weak-subjectivity trust anchor an operator supplies
// when the light client starts with an empty (or expired) trust base. The
// height and hash are expected to come from a trusted social channel; the
// core does not, and cannot, validate their authenticity.
type TrustOptions struct {
	// Period is the trusting period applied to the anchor.
	Period time.Duration `json:"period"`

	// Height and Hash pin the anchor block.
	Height int64       `json:"height"`
	Hash   common.Hash `json:"hash"`
}

// ValidateBasic checks the anchor for internal consistency.
func (opts TrustOptions) ValidateBasic() error {
	if opts.Period <= 0 {
		return errors.New("trusting period must be greater than zero")
	}
	if opts.Height <= 0 {
		return errors.New("trust anchor height must be greater than zero")
	}
	if opts.Hash.IsZero() {
		return errors.New("trust anchor hash must not be empty")
	}
	return nil
}
