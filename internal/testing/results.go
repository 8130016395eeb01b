// go-csncp
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-csncp.
//
// go-csncp is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-csncp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-csncp; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package testing provides builders for ranging results and wire messages
// used across the package tests.
package testing

import (
	"encoding/binary"
	"math"
)

// Result type identifiers used in summary type-value pairs
const (
	TypeDistanceMainmode = 0x00
	TypeLikeliness       = 0x01
	TypeRSSIDistance     = 0x02
)

// BuildSummary creates a result summary of type-value pairs: one byte type
// followed by a four byte little-endian float32 value
func BuildSummary(distance, likeliness float32) []byte {
	out := make([]byte, 0, 10)
	out = append(out, TypeDistanceMainmode)
	out = binary.LittleEndian.AppendUint32(out, math.Float32bits(distance))
	out = append(out, TypeLikeliness)
	out = binary.LittleEndian.AppendUint32(out, math.Float32bits(likeliness))
	return out
}

// BuildPattern creates n bytes counting up from seed, so every offset of a
// transfer is recognisable after reassembly
func BuildPattern(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i)
	}
	return out
}

// BuildStepChannels creates n step channel indexes in the 2..78 range
func BuildStepChannels(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(2 + i%77)
	}
	return out
}

// BuildEncodedResult creates the encoded form of a result by hand, without
// going through the encoder under test
func BuildEncodedResult(summary, steps, initiator, reflector []byte) []byte {
	out := make([]byte, 0, 10+len(summary)+len(steps)+len(initiator)+len(reflector))
	out = append(out, byte(len(summary)))
	out = append(out, summary...)
	out = append(out, byte(len(steps)))
	out = append(out, steps...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(initiator)))
	out = append(out, initiator...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(reflector)))
	out = append(out, reflector...)
	return out
}

// BuildFragmentEvent creates a raw extended result event
func BuildFragmentEvent(connection, fragmentsLeft byte, first bool, data []byte) []byte {
	header := fragmentsLeft & 0x7F
	if first {
		header |= 0x80
	}
	out := []byte{connection, 0x03, header, byte(len(data))}
	return append(out, data...)
}
