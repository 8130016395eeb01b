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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("uart write failed")
	err := NewTransportError("send extended result fragment", 7, cause)

	require.ErrorIs(t, err, ErrTransportRejected)
	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTimeout)

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "send extended result fragment for connection 7"), msg)
	assert.Contains(t, msg, cause.Error())

	wrapped := fmt.Errorf("drain step: %w", err)
	var te *TransportError
	require.ErrorAs(t, wrapped, &te)
	assert.Equal(t, uint8(7), te.Connection)
	assert.Equal(t, "send extended result fragment", te.Op)
}

func TestTransportError_WrapsSentinelCause(t *testing.T) {
	t.Parallel()

	err := NewTransportError("send response", 0, ErrTimeout)
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, ErrTransportRejected)
}

func TestSentinelErrorsDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrEncodeOverflow,
		ErrTransferBusy,
		ErrTransportRejected,
		ErrEmptyTransfer,
		ErrFieldTooLong,
		ErrMalformedResult,
		ErrEventTooLarge,
		ErrUnknownCommand,
		ErrMalformedCommand,
		ErrUnknownEvent,
		ErrMalformedEvent,
		ErrFragmentSequence,
		ErrTimeout,
		ErrWakeLockMisuse,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b, "%v matches %v", a, b)
			}
		}
	}
}
