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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tmlight/go-tmlight/common"
	"github.com/tmlight/go-tmlight/crypto"
	"github.com/tmlight/go-tmlight/merkle"
)

// MaxTotalVotingPower bounds the cumulative voting power of a validator set,
// leaving headroom for the threshold arithmetic to stay within int64.
const MaxTotalVotingPower = int64(math.MaxInt64) / 8

// Validator is a consensus participant with a weight.
type Validator struct {
	Address     common.Address
	PubKey      crypto.PubKey
	VotingPower int64
}

// NewValidator returns a validator with the address derived from the key.
func NewValidator(pubKey crypto.PubKey, votingPower int64) *Validator {
	return &Validator{
		Address:     pubKey.Address(),
		PubKey:      pubKey,
		VotingPower: votingPower,
	}
}

// ValidateBasic performs stateless validity checks on the validator.
func (v *Validator) ValidateBasic() error {
	if v == nil {
		return errors.New("nil validator")
	}
	if v.PubKey == nil {
		return errors.New("validator has no public key")
	}
	if v.VotingPower <= 0 {
		return fmt.Errorf("validator has non-positive voting power %d", v.VotingPower)
	}
	if v.Address != v.PubKey.Address() {
		return fmt.Errorf("validator address %v does not match its key", v.Address)
	}
	return nil
}

// Copy returns a shallow copy of the validator.
func (v *Validator) Copy() *Validator {
	cp := *v
	return &cp
}

// String implements fmt.Stringer.
func (v *Validator) String() string {
	if v == nil {
		return "Validator{nil}"
	}
	return fmt.Sprintf("Validator{%v power: %d}", v.Address, v.VotingPower)
}

type validatorJSON struct {
	Address     common.Address  `json:"address"`
	PubKey      json.RawMessage `json:"pub_key"`
	VotingPower int64           `json:"voting_power"`
}

// MarshalJSON implements json.Marshaler, tagging the key with its scheme.
func (v *Validator) MarshalJSON() ([]byte, error) {
	key, err := crypto.MarshalPubKeyJSON(v.PubKey)
	if err != nil {
		return nil, err
	}
	return json.Marshal(validatorJSON{
		Address:     v.Address,
		PubKey:      key,
		VotingPower: v.VotingPower,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Validator) UnmarshalJSON(data []byte) error {
	var raw validatorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	key, err := crypto.UnmarshalPubKeyJSON(raw.PubKey)
	if err != nil {
		return err
	}
	v.Address = raw.Address
	v.PubKey = key
	v.VotingPower = raw.VotingPower
	return nil
}

// ValidatorSet is an immutable, address-ordered set of validators. The hash
// and the total voting power are computed lazily and memoized; the set must
// not be mutated after construction.
type ValidatorSet struct {
	Validators []*Validator `json:"validators"`

	totalVotingPower int64
	hash             common.Hash
}

// NewValidatorSet builds a validator set from vals. The input is copied,
// ordered by address, and validated: the set must be non-empty, free of
// duplicate addresses, and its total power must not exceed
// MaxTotalVotingPower.
func NewValidatorSet(vals []*Validator) (*ValidatorSet, error) {
	if len(vals) == 0 {
		return nil, errors.New("validator set is empty")
	}
	cp := make([]*Validator, len(vals))
	var total int64
	for i, v := range vals {
		if err := v.ValidateBasic(); err != nil {
			return nil, fmt.Errorf("invalid validator #%d: %w", i, err)
		}
		if total > MaxTotalVotingPower-v.VotingPower {
			return nil, fmt.Errorf("total voting power exceeds the maximum %d", MaxTotalVotingPower)
		}
		total += v.VotingPower
		cp[i] = v.Copy()
	}
	sort.Slice(cp, func(i, j int) bool {
		return bytes.Compare(cp[i].Address.Bytes(), cp[j].Address.Bytes()) < 0
	})
	for i := 1; i < len(cp); i++ {
		if cp[i].Address == cp[i-1].Address {
			return nil, fmt.Errorf("duplicate validator address %v", cp[i].Address)
		}
	}
	return &ValidatorSet{Validators: cp, totalVotingPower: total}, nil
}

// ValidateBasic performs stateless validity checks on the set.
func (vals *ValidatorSet) ValidateBasic() error {
	if vals == nil || len(vals.Validators) == 0 {
		return errors.New("validator set is empty")
	}
	for i, v := range vals.Validators {
		if err := v.ValidateBasic(); err != nil {
			return fmt.Errorf("invalid validator #%d: %w", i, err)
		}
	}
	return nil
}

// Len returns the number of validators.
func (vals *ValidatorSet) Len() int { return len(vals.Validators) }

// TotalVotingPower returns the cumulative voting power of the set.
func (vals *ValidatorSet) TotalVotingPower() int64 {
	if vals.totalVotingPower == 0 {
		for _, v := range vals.Validators {
			vals.totalVotingPower += v.VotingPower
		}
	}
	return vals.totalVotingPower
}

// GetByAddress returns the index and validator with the given address, or
// (-1, nil) if the address is not in the set.
func (vals *ValidatorSet) GetByAddress(address common.Address) (int, *Validator) {
	i := sort.Search(len(vals.Validators), func(i int) bool {
		return bytes.Compare(vals.Validators[i].Address.Bytes(), address.Bytes()) >= 0
	})
	if i < len(vals.Validators) && vals.Validators[i].Address == address {
		return i, vals.Validators[i]
	}
	return -1, nil
}

// Hash returns the Merkle root over the canonical validator encodings,
// memoizing the result.
func (vals *ValidatorSet) Hash() common.Hash {
	if !vals.hash.IsZero() {
		return vals.hash
	}
	leaves := make([][]byte, len(vals.Validators))
	for i, v := range vals.Validators {
		leaves[i] = encodeSimpleValidator(v)
	}
	vals.hash = common.BytesToHash(merkle.HashFromByteSlices(leaves))
	return vals.hash
}

// UnmarshalJSON implements json.Unmarshaler. The decoded set is rebuilt
// through NewValidatorSet so that ordering and validity are re-established
// regardless of the serialized order.
func (vals *ValidatorSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Validators []*Validator `json:"validators"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rebuilt, err := NewValidatorSet(raw.Validators)
	if err != nil {
		return err
	}
	*vals = *rebuilt
	return nil
}

// String implements fmt.Stringer.
func (vals *ValidatorSet) String() string {
	if vals == nil {
		return "ValidatorSet{nil}"
	}
	return fmt.Sprintf("ValidatorSet{size: %d, power: %d, hash: %v}",
		vals.Len(), vals.TotalVotingPower(), vals.Hash().TerminalString())
}
