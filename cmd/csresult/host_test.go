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

package main

import (
	"context"
	"net"
	"testing"
	"time"

	csncp "github.com/ZaparooProject/go-csncp"
	testutil "github.com/ZaparooProject/go-csncp/internal/testing"
	"github.com/ZaparooProject/go-csncp/transport/uart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTarget serves a bridge on the far end of a pipe
func startTarget(t *testing.T) (*host, *csncp.Bridge, *csncp.MockRanging) {
	t.Helper()

	hostConn, targetConn := net.Pipe()
	target := uart.NewWithPort(targetConn, "target")
	ranging := csncp.NewMockRanging()
	ranging.Instance = 4

	bridge, err := csncp.New(target, ranging, csncp.WithSerializerOptions(csncp.WithMaxFragmentData(100)))
	require.NoError(t, err)

	go func() {
		for {
			f, err := target.ReadFrame()
			if err != nil {
				return
			}
			if _, err := bridge.HandleCommand(f.Payload); err != nil {
				return
			}
		}
	}()

	link := uart.NewWithPort(hostConn, "host")
	t.Cleanup(func() {
		_ = link.Close()
		_ = target.Close()
	})
	return newHost(link, time.Second), bridge, ranging
}

func TestHost_Commands(t *testing.T) {
	t.Parallel()

	h, _, ranging := startTarget(t)
	ctx := context.Background()

	data, err := h.command(ctx, &csncp.GetTargetConfig{})
	require.NoError(t, err)
	target, err := csncp.ParseTargetConfig(data)
	require.NoError(t, err)
	assert.Equal(t, csncp.DefaultTargetConfig(), target)

	data, err = h.command(ctx, &csncp.CreateInitiator{Connection: 1, ExtendedResult: true})
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, data)

	_, ok := ranging.Handlers(1)
	assert.True(t, ok)

	_, err = h.command(ctx, &csncp.ReflectorAction{Connection: 1, Action: 9})
	require.ErrorIs(t, err, csncp.StatusNotSupported)
}

func TestHost_ReceivesExtendedResult(t *testing.T) {
	t.Parallel()

	h, bridge, ranging := startTarget(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.command(ctx, &csncp.CreateInitiator{Connection: 2, ExtendedResult: true})
	require.NoError(t, err)
	handlers, ok := ranging.Handlers(2)
	require.True(t, ok)

	want := &csncp.Result{
		Connection: 2,
		Summary:    testutil.BuildSummary(3.25, 0.5),
		Ranging: csncp.RangingData{
			StepChannels: testutil.BuildStepChannels(12),
			Initiator:    testutil.BuildPattern(400, 1),
			Reflector:    testutil.BuildPattern(350, 2),
		},
	}
	require.NoError(t, handlers.OnResult(want))

	go func() {
		for bridge.Busy() {
			if _, err := bridge.Tick(); err != nil {
				return
			}
		}
	}()

	got, err := h.next(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Summary, got.Summary)
	assert.Equal(t, want.Ranging, got.Ranging)
	assert.Equal(t, uint8(2), got.Connection)
}
