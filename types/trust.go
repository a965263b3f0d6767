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
	"fmt"
	"math/big"
)

// TrustThreshold is the fraction of a trusted validator set's voting power
// that must co-sign an untrusted block for a skipping hop. 1/3 is the
// minimum that does not break the security model.
type TrustThreshold struct {
	Numerator   int64 `json:"numerator"`
	Denominator int64 `json:"denominator"`
}

// DefaultTrustThreshold - new header can be trusted if at least one correct
// validator signed it.
var DefaultTrustThreshold = TrustThreshold{Numerator: 1, Denominator: 3}

// ValidateBasic checks that the threshold is within the allowed range
// [1/3, 1].
func (t TrustThreshold) ValidateBasic() error {
	if t.Denominator <= 0 || t.Numerator <= 0 {
		return fmt.Errorf("trust threshold must be positive, given %v", t)
	}
	if t.Numerator*3 < t.Denominator || t.Numerator > t.Denominator {
		return fmt.Errorf("trust threshold must be within [1/3, 1], given %v", t)
	}
	return nil
}

// IsZero reports whether the threshold is unset.
func (t TrustThreshold) IsZero() bool {
	return t.Numerator == 0 && t.Denominator == 0
}

// Exceeded reports whether got strictly exceeds the threshold fraction of
// total. The comparison is exact: got/total > t, evaluated without division.
func (t TrustThreshold) Exceeded(got, total int64) bool {
	lhs := new(big.Int).Mul(big.NewInt(got), big.NewInt(t.Denominator))
	rhs := new(big.Int).Mul(big.NewInt(total), big.NewInt(t.Numerator))
	return lhs.Cmp(rhs) > 0
}

// String implements fmt.Stringer.
func (t TrustThreshold) String() string {
	return fmt.Sprintf("%d/%d", t.Numerator, t.Denominator)
}
