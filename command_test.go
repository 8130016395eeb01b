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

func TestCommand_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  Command
		name string
		want []byte
	}{
		{
			name: "create initiator extended",
			cmd:  &CreateInitiator{Connection: 1, Config: []byte{0x10, 0x20, 0x30}, ExtendedResult: true},
			want: []byte{0x00, 0x01, 0x10, 0x20, 0x30, 0x01},
		},
		{
			name: "create initiator summary only",
			cmd:  &CreateInitiator{Connection: 4, ExtendedResult: false},
			want: []byte{0x00, 0x04, 0x00},
		},
		{
			name: "create reflector",
			cmd:  &CreateReflector{Connection: 2, Config: []byte{0x55}},
			want: []byte{0x01, 0x02, 0x55},
		},
		{
			name: "initiator delete",
			cmd:  &InitiatorAction{Connection: 1, Action: ActionDelete},
			want: []byte{0x02, 0x01, 0x00},
		},
		{
			name: "reflector delete",
			cmd:  &ReflectorAction{Connection: 3, Action: ActionDelete},
			want: []byte{0x03, 0x03, 0x00},
		},
		{
			name: "antenna wired",
			cmd:  &AntennaConfigure{Wired: true},
			want: []byte{0x04, 0x01},
		},
		{
			name: "trace off",
			cmd:  &EnableTrace{Enable: false},
			want: []byte{0x05, 0x00},
		},
		{
			name: "get target config",
			cmd:  &GetTargetConfig{},
			want: []byte{0x06},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.cmd.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			parsed, err := ParseCommand(got)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, parsed)
			assert.Equal(t, tt.cmd.ID(), parsed.ID())
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		data    []byte
	}{
		{name: "empty", data: nil, wantErr: ErrMalformedCommand},
		{name: "unknown id", data: []byte{0x42}, wantErr: ErrUnknownCommand},
		{name: "create initiator without flag", data: []byte{0x00, 0x01}, wantErr: ErrMalformedCommand},
		{name: "create reflector without connection", data: []byte{0x01}, wantErr: ErrMalformedCommand},
		{name: "action without action byte", data: []byte{0x02, 0x01}, wantErr: ErrMalformedCommand},
		{name: "antenna without flag", data: []byte{0x04}, wantErr: ErrMalformedCommand},
		{name: "trace without flag", data: []byte{0x05}, wantErr: ErrMalformedCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCommand(tt.data)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCommand_TooLarge(t *testing.T) {
	t.Parallel()

	_, err := (&CreateReflector{Config: make([]byte, MaxMessageSize)}).MarshalBinary()
	require.ErrorIs(t, err, ErrMalformedCommand)
}

func TestTargetConfig(t *testing.T) {
	t.Parallel()

	data, err := DefaultTargetConfig().MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{TargetConfigRASOnDemand, 1, 4}, data)

	cfg, err := ParseTargetConfig([]byte{0x00, 2, 8})
	require.NoError(t, err)
	assert.Equal(t, TargetConfig{MaxInitiators: 2, MaxConnections: 8}, cfg)

	_, err = ParseTargetConfig([]byte{0x01})
	require.Error(t, err)
}
