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

// Package crypto wraps the signature schemes accepted for validator keys.
package crypto

import (
	"encoding/json"
	"fmt"

	"github.com/tmlight/go-tmlight/common"
)

// PubKey is a public key of one of the supported signature schemes.
type PubKey interface {
	// Address returns the 20 byte validator address derived from the key.
	Address() common.Address

	// Bytes returns the raw key material in its canonical serialization.
	Bytes() []byte

	// VerifySignature reports whether sig is a valid signature of msg.
	VerifySignature(msg, sig []byte) bool

	// Equals reports whether the key equals other, comparing both scheme
	// and key material.
	Equals(other PubKey) bool

	// Type returns the scheme name, e.g. "ed25519".
	Type() string
}

// PrivKey is a private key matching one of the supported schemes. It is only
// used by test fixtures and tooling; the light client itself never signs.
type PrivKey interface {
	// Sign produces a signature of msg.
	Sign(msg []byte) ([]byte, error)

	// PubKey returns the corresponding public key.
	PubKey() PubKey

	// Type returns the scheme name.
	Type() string
}

// pubKeyEnvelope is the JSON wire form of a public key, tagging the raw key
// material with its scheme so the right type can be reconstructed.
type pubKeyEnvelope struct {
	Type  string `json:"type"`
	Value []byte `json:"value"`
}

// MarshalPubKeyJSON encodes a public key together with its scheme tag.
func MarshalPubKeyJSON(key PubKey) ([]byte, error) {
	if key == nil {
		return []byte("null"), nil
	}
	return json.Marshal(pubKeyEnvelope{Type: key.Type(), Value: key.Bytes()})
}

// UnmarshalPubKeyJSON decodes a public key encoded by MarshalPubKeyJSON.
func UnmarshalPubKeyJSON(data []byte) (PubKey, error) {
	var env pubKeyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case KeyTypeEd25519:
		key, err := Ed25519PubKeyFromBytes(env.Value)
		if err != nil {
			return nil, err
		}
		return key, nil
	case KeyTypeSecp256k1:
		key, err := Secp256k1PubKeyFromBytes(env.Value)
		if err != nil {
			return nil, err
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unknown public key type %q", env.Type)
	}
}
