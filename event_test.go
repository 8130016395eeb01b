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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_MarshalBinary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event Event
		name  string
		want  []byte
	}{
		{
			name:  "result",
			event: &ResultEvent{Connection: 2, Summary: []byte{0x00, 0x11, 0x22}},
			want:  []byte{0x02, 0x00, 0x00, 0x11, 0x22},
		},
		{
			name:  "status",
			event: &StatusEvent{Connection: 1, Status: 0x0000001D, Error: ErrorEventInitFailed},
			want:  []byte{0x01, 0x01, 0x1D, 0x00, 0x00, 0x00, 0x01},
		},
		{
			name:  "intermediate result",
			event: &IntermediateResultEvent{Connection: 0, Progress: 50},
			want:  []byte{0x00, 0x02, 0x00, 0x00, 0x48, 0x42},
		},
		{
			name:  "extended result first",
			event: &ExtendedResultEvent{Connection: 3, First: true, FragmentsLeft: 2, Data: []byte{0xAA}},
			want:  []byte{0x03, 0x03, 0x82, 0x01, 0xAA},
		},
		{
			name:  "extended result last",
			event: &ExtendedResultEvent{Connection: 3, FragmentsLeft: 0, Data: []byte{0xBB, 0xCC}},
			want:  []byte{0x03, 0x03, 0x00, 0x02, 0xBB, 0xCC},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.event.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			parsed, err := ParseEvent(got)
			require.NoError(t, err)
			assert.Equal(t, tt.event, parsed)
			assert.Equal(t, tt.event.Kind(), parsed.Kind())
			assert.Equal(t, tt.event.ConnectionID(), parsed.ConnectionID())
		})
	}
}

func TestEvent_TooLarge(t *testing.T) {
	t.Parallel()

	_, err := (&ExtendedResultEvent{Data: make([]byte, MaxFragmentData+1)}).MarshalBinary()
	require.ErrorIs(t, err, ErrEventTooLarge)

	full, err := (&ExtendedResultEvent{Data: make([]byte, MaxFragmentData)}).MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, full, MaxMessageSize)

	_, err = (&ResultEvent{Summary: make([]byte, MaxMessageSize-1)}).MarshalBinary()
	require.ErrorIs(t, err, ErrEventTooLarge)
	assert.Equal(t, StatusWouldOverflow, StatusFromError(err))
}

func TestParseEvent_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		data    []byte
	}{
		{name: "empty", data: nil, wantErr: ErrMalformedEvent},
		{name: "unknown id", data: []byte{0x00, 0x09}, wantErr: ErrUnknownEvent},
		{name: "short status", data: []byte{0x00, 0x01, 0x00}, wantErr: ErrMalformedEvent},
		{name: "short intermediate", data: []byte{0x00, 0x02, 0x00, 0x00}, wantErr: ErrMalformedEvent},
		{name: "fragment without header", data: []byte{0x00, 0x03, 0x80}, wantErr: ErrMalformedEvent},
		{name: "fragment length mismatch", data: []byte{0x00, 0x03, 0x80, 0x03, 0x01}, wantErr: ErrMalformedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseEvent(tt.data)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEventKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "result", EventResult.String())
	assert.Equal(t, "extended_result", EventExtendedResult.String())
	assert.Equal(t, "event(9)", EventKind(9).String())
}

func TestWireConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 255, MaxMessageSize)
	assert.Equal(t, 4, FragmentOverhead)
	assert.Equal(t, 251, MaxFragmentData)
	assert.Equal(t, 4252, DefaultCapacity)
}
