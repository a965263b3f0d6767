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

package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashHexRoundTrip(t *testing.T) {
	h := HexToHash("0x00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")

	var parsed Hash
	require.NoError(t, parsed.UnmarshalText([]byte(h.Hex())))
	assert.Equal(t, h, parsed)
}

func TestHashSetBytesCropsLeft(t *testing.T) {
	short := BytesToHash([]byte{1, 2, 3})
	assert.Equal(t, byte(3), short[HashLength-1])
	assert.Equal(t, byte(1), short[HashLength-3])
	long := BytesToHash(append([]byte{0xEE}, short[:]...))
	assert.Equal(t, short, long, "the extra leading byte is cropped")
	assert.True(t, Hash{}.IsZero())
	assert.False(t, short.IsZero())
}

func TestHashUnmarshalTextErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"odd length", "0x0"},
		{"not hex", "zz"},
		{"too short", "0011"},
		{"too long", "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var h Hash
			assert.Error(t, h.UnmarshalText([]byte(tc.input)))
		})
	}
}

func TestAddressHexRoundTrip(t *testing.T) {
	a := HexToAddress("00112233445566778899aabbccddeeff00112233")

	var parsed Address
	require.NoError(t, parsed.UnmarshalText([]byte(a.Hex())))
	assert.Equal(t, a, parsed)
}

func TestHashJSON(t *testing.T) {
	h := HexToHash("0x00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
	raw, err := json.Marshal(h)
	require.NoError(t, err)

	var parsed Hash
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, h, parsed)
}
