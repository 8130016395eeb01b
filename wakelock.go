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

import "errors"

// ErrWakeLockMisuse is returned by wake locks on an unpaired Acquire or Release.
var ErrWakeLockMisuse = errors.New("wake lock acquire/release mismatch")

// WakeLock keeps the processor out of low-power sleep while held.
//
// The serializer calls Acquire exactly once when a transfer is admitted and
// Release exactly once when its last fragment has been sent. Implementations
// need not tolerate a second Release or a Release without Acquire.
type WakeLock interface {
	Acquire() error
	Release() error
}

// NopWakeLock is a WakeLock for platforms without power management.
type NopWakeLock struct{}

func (NopWakeLock) Acquire() error { return nil }
func (NopWakeLock) Release() error { return nil }
