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

// Serializer and codec errors
var (
	// ErrEncodeOverflow means the encoded result does not fit the staging buffer.
	ErrEncodeOverflow = errors.New("encoded result exceeds staging capacity")
	// ErrTransferBusy means a previous transfer is still draining.
	ErrTransferBusy = errors.New("transfer already in progress")
	// ErrTransportRejected means the event sink refused a send.
	ErrTransportRejected = errors.New("transport rejected event")
	// ErrEmptyTransfer means a transfer was requested for a zero-length blob.
	ErrEmptyTransfer = errors.New("empty transfer")
	// ErrFieldTooLong means a one-byte length prefix cannot describe the field.
	ErrFieldTooLong = errors.New("field too long for length prefix")
	ErrMalformedResult = errors.New("malformed encoded result")
	ErrEventTooLarge   = errors.New("event exceeds transport message size")
)

// Wire protocol errors
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedCommand = errors.New("malformed command")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrMalformedEvent   = errors.New("malformed event")
	ErrFragmentSequence = errors.New("fragment out of sequence")
	ErrTimeout          = errors.New("operation timeout")
)

// TransportError wraps a failure of the underlying event or response sink.
// It matches ErrTransportRejected with errors.Is as well as the cause.
type TransportError struct {
	Err        error
	Op         string
	Connection uint8
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s for connection %d: %v", e.Op, e.Connection, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransportRejected, e.Err}
}

// NewTransportError creates a TransportError for the given operation
func NewTransportError(op string, connection uint8, err error) *TransportError {
	return &TransportError{
		Op:         op,
		Connection: connection,
		Err:        err,
	}
}
