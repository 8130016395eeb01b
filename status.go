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

package csncp

import (
	"errors"
	"fmt"
)

// Status is the 16-bit result code carried in command responses. The values
// are the subset of the target's status space the bridge reports.
type Status uint16

const (
	StatusOK               Status = 0x0000
	StatusFail             Status = 0x0001
	StatusInvalidState     Status = 0x0002
	StatusBusy             Status = 0x0004
	StatusNotSupported     Status = 0x000F
	StatusWouldOverflow    Status = 0x001D
	StatusInvalidParameter Status = 0x0021
)

var statusNames = map[Status]string{
	StatusOK:               "ok",
	StatusFail:             "fail",
	StatusInvalidState:     "invalid state",
	StatusBusy:             "busy",
	StatusNotSupported:     "not supported",
	StatusWouldOverflow:    "would overflow",
	StatusInvalidParameter: "invalid parameter",
}

// String returns a readable name for the status code
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status 0x%04X", uint16(s))
}

// Error lets collaborators return a Status directly as an error.
func (s Status) Error() string {
	return "status: " + s.String()
}

// StatusFromError maps an error returned by a collaborator or by the
// serializer to the status code reported to the host.
func StatusFromError(err error) Status {
	if err == nil {
		return StatusOK
	}

	var st Status
	if errors.As(err, &st) {
		return st
	}

	switch {
	case errors.Is(err, ErrTransferBusy):
		return StatusBusy
	case errors.Is(err, ErrEncodeOverflow), errors.Is(err, ErrEventTooLarge):
		return StatusWouldOverflow
	case errors.Is(err, ErrMalformedCommand), errors.Is(err, ErrFieldTooLong):
		return StatusInvalidParameter
	case errors.Is(err, ErrUnknownCommand):
		return StatusNotSupported
	default:
		return StatusFail
	}
}
