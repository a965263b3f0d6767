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

package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for the address scheme

	"github.com/tmlight/go-tmlight/common"
)

// KeyTypeSecp256k1 is the scheme name of secp256k1 keys.
const KeyTypeSecp256k1 = "secp256k1"

// Secp256k1PubKeySize is the size of a compressed secp256k1 public key.
const Secp256k1PubKeySize = 33

// PubKeySecp256k1 is a compressed secp256k1 public key.
type PubKeySecp256k1 [Secp256k1PubKeySize]byte

// Secp256k1PubKeyFromBytes converts compressed key material into a
// PubKeySecp256k1, validating that it is a point on the curve.
func Secp256k1PubKeyFromBytes(b []byte) (PubKeySecp256k1, error) {
	var pub PubKeySecp256k1
	if len(b) != Secp256k1PubKeySize {
		return pub, fmt.Errorf("invalid secp256k1 public key length %d, want %d", len(b), Secp256k1PubKeySize)
	}
	if _, err := btcec.ParsePubKey(b); err != nil {
		return pub, fmt.Errorf("invalid secp256k1 public key: %w", err)
	}
	copy(pub[:], b)
	return pub, nil
}

// Address returns RIPEMD160(SHA256(key)) of the compressed key.
func (pub PubKeySecp256k1) Address() common.Address {
	sha := sha256.Sum256(pub[:])
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	return common.BytesToAddress(hasher.Sum(nil))
}

// Bytes returns the compressed key material.
func (pub PubKeySecp256k1) Bytes() []byte { return pub[:] }

// VerifySignature reports whether sig is a valid DER encoded ECDSA signature
// of SHA256(msg).
func (pub PubKeySecp256k1) VerifySignature(msg, sig []byte) bool {
	key, err := btcec.ParsePubKey(pub[:])
	if err != nil {
		return false
	}
	parsed, err := btcecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)
	return parsed.Verify(digest[:], key)
}

// Equals reports whether other is the same secp256k1 key.
func (pub PubKeySecp256k1) Equals(other PubKey) bool {
	otherSecp, ok := other.(PubKeySecp256k1)
	return ok && pub == otherSecp
}

// Type returns the scheme name.
func (pub PubKeySecp256k1) Type() string { return KeyTypeSecp256k1 }

// String implements fmt.Stringer.
func (pub PubKeySecp256k1) String() string {
	return fmt.Sprintf("PubKeySecp256k1{%X}", pub[:])
}

// PrivKeySecp256k1 is a secp256k1 private key.
type PrivKeySecp256k1 struct {
	key *btcec.PrivateKey
}

// GenPrivKeySecp256k1 generates a new secp256k1 key from the system
// randomness source.
func GenPrivKeySecp256k1() PrivKeySecp256k1 {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		panic(err)
	}
	return PrivKeySecp256k1{key: key}
}

// GenPrivKeySecp256k1FromSecret derives a key deterministically from a
// secret. Only suitable for tests and tooling.
func GenPrivKeySecp256k1FromSecret(secret []byte) PrivKeySecp256k1 {
	seed := sha256.Sum256(secret)
	key, _ := btcec.PrivKeyFromBytes(seed[:])
	return PrivKeySecp256k1{key: key}
}

// Sign produces a DER encoded ECDSA signature of SHA256(msg).
func (priv PrivKeySecp256k1) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig := btcecdsa.Sign(priv.key, digest[:])
	return sig.Serialize(), nil
}

// PubKey returns the corresponding compressed public key.
func (priv PrivKeySecp256k1) PubKey() PubKey {
	var pub PubKeySecp256k1
	copy(pub[:], priv.key.PubKey().SerializeCompressed())
	return pub
}

// Type returns the scheme name.
func (priv PrivKeySecp256k1) Type() string { return KeyTypeSecp256k1 }
