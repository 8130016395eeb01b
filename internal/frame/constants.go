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

// Package frame provides the UART link framing used between a ranging target
// and its host
package frame

// Frame kinds - these indicate the direction and class of the payload
const (
	HostToTarget = 0xD4 // Commands from host to target
	TargetToHost = 0xD5 // Command responses from target to host
	TargetEvent  = 0xD6 // Unsolicited events from target to host
)

// Start marks the beginning of every frame on the wire
const Start = 0xA5

// Frame size limits
const (
	MaxPayloadLength = 255 // Length is carried in a single byte
	HeaderLength     = 3   // start + kind + len
	MinFrameLength   = 4   // header + dcs, empty payload
)

// ValidKind reports whether k is one of the known frame kinds
func ValidKind(k byte) bool {
	switch k {
	case HostToTarget, TargetToHost, TargetEvent:
		return true
	default:
		return false
	}
}
