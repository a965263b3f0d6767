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

// Package merkle computes RFC 6962 Merkle tree hashes over byte slices.
//
// Leaves and inner nodes are domain separated with a one byte prefix so that
// a leaf can never be reinterpreted as an inner node. The hash function is
// SHA-256 throughout. This is the scheme the header self-hash and the
// validator set hash are defined over; both sides of a verification must
// agree on it bit for bit.
package merkle

import "crypto/sha256"

var (
	leafPrefix  = []byte{0}
	innerPrefix = []byte{1}
)

// HashFromByteSlices computes the Merkle root hash of the given slices.
// The slices are the canonical encodings of the leaves; they are not hashed
// before being passed in. An empty input yields the hash of the empty string.
func HashFromByteSlices(items [][]byte) []byte {
	switch len(items) {
	case 0:
		return emptyHash()
	case 1:
		return leafHash(items[0])
	default:
		k := splitPoint(int64(len(items)))
		left := HashFromByteSlices(items[:k])
		right := HashFromByteSlices(items[k:])
		return innerHash(left, right)
	}
}

// splitPoint returns the largest power of two strictly less than length.
func splitPoint(length int64) int64 {
	if length < 1 {
		panic("merkle: trying to split tree with length < 1")
	}
	k := int64(1)
	for k < length {
		k <<= 1
	}
	return k >> 1
}

func emptyHash() []byte {
	h := sha256.Sum256([]byte{})
	return h[:]
}

func leafHash(leaf []byte) []byte {
	h := sha256.New()
	h.Write(leafPrefix)
	h.Write(leaf)
	return h.Sum(nil)
}

func innerHash(left, right []byte) []byte {
	h := sha256.New()
	h.Write(innerPrefix)
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
