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
	"fmt"
)

// reassembly collects the fragments of one transfer.
type reassembly struct {
	data     []byte
	lastLeft uint8
}

// Reassembler rebuilds extended results from fragment events on the host
// side. Transfers of different connections are tracked independently.
type Reassembler struct {
	pending map[uint8]*reassembly
}

// NewReassembler creates an empty reassembler
func NewReassembler() *Reassembler {
	return &Reassembler{pending: make(map[uint8]*reassembly)}
}

// Feed adds one fragment. It returns the decoded result once the last
// fragment of a transfer arrives and nil while more are expected.
//
// A first fragment always starts a new transfer and discards any partial
// one for the same connection. A fragment whose remaining count does not
// follow the previous one discards the partial transfer and fails with
// ErrFragmentSequence.
func (r *Reassembler) Feed(ev *ExtendedResultEvent) (*Result, error) {
	if ev == nil {
		return nil, fmt.Errorf("%w: nil fragment", ErrMalformedEvent)
	}

	state, ok := r.pending[ev.Connection]
	switch {
	case ev.First:
		state = &reassembly{}
		r.pending[ev.Connection] = state
	case !ok:
		return nil, fmt.Errorf("%w: connection %d has no transfer in progress", ErrFragmentSequence, ev.Connection)
	case !followsLeft(state.lastLeft, ev.FragmentsLeft):
		delete(r.pending, ev.Connection)
		return nil, fmt.Errorf("%w: connection %d expected %d fragments left after %d, got %d",
			ErrFragmentSequence, ev.Connection, state.lastLeft-1, state.lastLeft, ev.FragmentsLeft)
	}

	state.data = append(state.data, ev.Data...)
	state.lastLeft = ev.FragmentsLeft
	if ev.FragmentsLeft > 0 {
		return nil, nil
	}

	delete(r.pending, ev.Connection)
	result, err := DecodeResult(state.data)
	if err != nil {
		return nil, err
	}
	result.Connection = ev.Connection
	return result, nil
}

// followsLeft reports whether next may follow prev. A saturated count stays
// at the maximum until the real count drops below it.
func followsLeft(prev, next uint8) bool {
	if prev == 0 {
		return false
	}
	if prev == FragmentsLeftMask {
		return next == prev || next == prev-1
	}
	return next == prev-1
}

// Pending returns the number of connections with a partial transfer
func (r *Reassembler) Pending() int {
	return len(r.pending)
}

// Reset discards the partial transfer of a connection
func (r *Reassembler) Reset(connection uint8) {
	delete(r.pending, connection)
}
