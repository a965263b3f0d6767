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
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// The canonical encoding fixes the exact bytes that header hashes, validator
// set hashes and vote signatures are computed over: protobuf wire primitives,
// field-tagged and length-prefixed, hashed with the Merkle scheme from the
// merkle package. Any divergence here breaks interoperability with full
// nodes, so keep this file free of shortcuts.

// encodeBytesField encodes b as field 1 of a standalone message. A nil or
// empty value encodes to nil so that absent fields hash like absent fields.
func encodeBytesField(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendBytes(out, b)
}

// encodeStringField encodes s as field 1 of a standalone message.
func encodeStringField(s string) []byte {
	if s == "" {
		return nil
	}
	out := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendString(out, s)
}

// encodeInt64Field encodes v as field 1 of a standalone message.
func encodeInt64Field(v int64) []byte {
	if v == 0 {
		return nil
	}
	out := protowire.AppendTag(nil, 1, protowire.VarintType)
	return protowire.AppendVarint(out, uint64(v))
}

// appendTimeMessage appends the canonical body of a timestamp message:
// UTC seconds since the epoch as field 1 and nanoseconds as field 2.
func appendTimeMessage(out []byte, t time.Time) []byte {
	t = t.UTC()
	if secs := t.Unix(); secs != 0 {
		out = protowire.AppendTag(out, 1, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(secs))
	}
	if nanos := int64(t.Nanosecond()); nanos != 0 {
		out = protowire.AppendTag(out, 2, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(nanos))
	}
	return out
}

// encodeTimeField encodes t as field 1 of a standalone message.
func encodeTimeField(t time.Time) []byte {
	body := appendTimeMessage(nil, t)
	out := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendBytes(out, body)
}

// appendBlockIDMessage appends the canonical body of a block ID message:
// the header hash as field 1 and the part set header as field 2.
func appendBlockIDMessage(out []byte, blockID BlockID) []byte {
	if !blockID.Hash.IsZero() {
		out = protowire.AppendTag(out, 1, protowire.BytesType)
		out = protowire.AppendBytes(out, blockID.Hash.Bytes())
	}
	var psh []byte
	if blockID.PartSetHeader.Total != 0 {
		psh = protowire.AppendTag(psh, 1, protowire.VarintType)
		psh = protowire.AppendVarint(psh, uint64(blockID.PartSetHeader.Total))
	}
	if !blockID.PartSetHeader.Hash.IsZero() {
		psh = protowire.AppendTag(psh, 2, protowire.BytesType)
		psh = protowire.AppendBytes(psh, blockID.PartSetHeader.Hash.Bytes())
	}
	if len(psh) > 0 {
		out = protowire.AppendTag(out, 2, protowire.BytesType)
		out = protowire.AppendBytes(out, psh)
	}
	return out
}

// encodeBlockIDField encodes blockID as field 1 of a standalone message.
func encodeBlockIDField(blockID BlockID) []byte {
	if blockID.IsZero() {
		return nil
	}
	body := appendBlockIDMessage(nil, blockID)
	out := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendBytes(out, body)
}

// encodeSimpleValidator encodes the hashable projection of a validator:
// the scheme-tagged public key as field 1 and the voting power as field 2.
// This is the leaf encoding of the validator set Merkle tree.
func encodeSimpleValidator(v *Validator) []byte {
	var key []byte
	key = protowire.AppendTag(key, 1, protowire.BytesType)
	key = protowire.AppendString(key, v.PubKey.Type())
	key = protowire.AppendTag(key, 2, protowire.BytesType)
	key = protowire.AppendBytes(key, v.PubKey.Bytes())

	out := protowire.AppendTag(nil, 1, protowire.BytesType)
	out = protowire.AppendBytes(out, key)
	out = protowire.AppendTag(out, 2, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(v.VotingPower))
	return out
}

// Canonical vote sign bytes. Height and round are encoded as sfixed64 so
// that signing devices can patch them in place.
const (
	canonicalVoteFieldType      = 1
	canonicalVoteFieldHeight    = 2
	canonicalVoteFieldRound     = 3
	canonicalVoteFieldBlockID   = 4
	canonicalVoteFieldTimestamp = 5
	canonicalVoteFieldChainID   = 6
)

// precommitType is the vote type carried by every commit signature.
const precommitType = 2

// canonicalVoteBytes marshals the canonical vote message for one commit
// signature. The result is framed with a varint length prefix, which is the
// exact byte string validators sign.
func canonicalVoteBytes(chainID string, height, round int64, blockID BlockID, timestamp time.Time) []byte {
	var body []byte
	body = protowire.AppendTag(body, canonicalVoteFieldType, protowire.VarintType)
	body = protowire.AppendVarint(body, precommitType)
	body = protowire.AppendTag(body, canonicalVoteFieldHeight, protowire.Fixed64Type)
	body = protowire.AppendFixed64(body, uint64(height))
	body = protowire.AppendTag(body, canonicalVoteFieldRound, protowire.Fixed64Type)
	body = protowire.AppendFixed64(body, uint64(round))
	if !blockID.IsZero() {
		idBody := appendBlockIDMessage(nil, blockID)
		body = protowire.AppendTag(body, canonicalVoteFieldBlockID, protowire.BytesType)
		body = protowire.AppendBytes(body, idBody)
	}
	tsBody := appendTimeMessage(nil, timestamp)
	body = protowire.AppendTag(body, canonicalVoteFieldTimestamp, protowire.BytesType)
	body = protowire.AppendBytes(body, tsBody)
	body = protowire.AppendTag(body, canonicalVoteFieldChainID, protowire.BytesType)
	body = protowire.AppendString(body, chainID)

	return protowire.AppendBytes(nil, body)
}
