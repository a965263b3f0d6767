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
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/tmlight/go-tmlight/common"
)

// KeyTypeEd25519 is the scheme name of ed25519 keys.
const KeyTypeEd25519 = "ed25519"

// Ed25519SignatureSize is the size of an ed25519 signature in bytes.
const Ed25519SignatureSize = ed25519.SignatureSize

// PubKeyEd25519 is an ed25519 public key.
type PubKeyEd25519 [ed25519.PublicKeySize]byte

// Ed25519PubKeyFromBytes converts raw key material into a PubKeyEd25519.
func Ed25519PubKeyFromBytes(b []byte) (PubKeyEd25519, error) {
	var pub PubKeyEd25519
	if len(b) != ed25519.PublicKeySize {
		return pub, fmt.Errorf("invalid ed25519 public key length %d, want %d", len(b), ed25519.PublicKeySize)
	}
	copy(pub[:], b)
	return pub, nil
}

// Address returns the first 20 bytes of the SHA-256 digest of the key.
func (pub PubKeyEd25519) Address() common.Address {
	digest := sha256.Sum256(pub[:])
	return common.BytesToAddress(digest[:common.AddressLength])
}

// Bytes returns the raw key material.
func (pub PubKeyEd25519) Bytes() []byte { return pub[:] }

// VerifySignature reports whether sig is a valid ed25519 signature of msg.
func (pub PubKeyEd25519) VerifySignature(msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub[:], msg, sig)
}

// Equals reports whether other is the same ed25519 key.
func (pub PubKeyEd25519) Equals(other PubKey) bool {
	otherEd, ok := other.(PubKeyEd25519)
	return ok && pub == otherEd
}

// Type returns the scheme name.
func (pub PubKeyEd25519) Type() string { return KeyTypeEd25519 }

// String implements fmt.Stringer.
func (pub PubKeyEd25519) String() string {
	return fmt.Sprintf("PubKeyEd25519{%X}", pub[:])
}

// PrivKeyEd25519 is an ed25519 private key.
type PrivKeyEd25519 struct {
	key ed25519.PrivateKey
}

// GenPrivKeyEd25519 generates a new ed25519 key from the system randomness
// source.
func GenPrivKeyEd25519() PrivKeyEd25519 {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return PrivKeyEd25519{key: priv}
}

// GenPrivKeyEd25519FromSecret derives a key deterministically from a secret.
// Only suitable for tests and tooling; the secret is hashed into the seed.
func GenPrivKeyEd25519FromSecret(secret []byte) PrivKeyEd25519 {
	seed := sha256.Sum256(secret)
	return PrivKeyEd25519{key: ed25519.NewKeyFromSeed(seed[:])}
}

// Sign produces an ed25519 signature of msg.
func (priv PrivKeyEd25519) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(priv.key, msg), nil
}

// PubKey returns the corresponding public key.
func (priv PrivKeyEd25519) PubKey() PubKey {
	var pub PubKeyEd25519
	copy(pub[:], priv.key.Public().(ed25519.PublicKey))
	return pub
}

// Type returns the scheme name.
func (priv PrivKeyEd25519) Type() string { return KeyTypeEd25519 }
