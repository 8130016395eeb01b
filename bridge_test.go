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
	"sync"
	"testing"

	testutil "github.com/ZaparooProject/go-csncp/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge(t *testing.T, opts ...Option) (*Bridge, *MockTransport, *MockRanging) {
	t.Helper()
	transport := NewMockTransport()
	ranging := NewMockRanging()
	b, err := New(transport, ranging, opts...)
	require.NoError(t, err)
	return b, transport, ranging
}

func mustMarshal(t *testing.T, cmd Command) []byte {
	t.Helper()
	data, err := cmd.MarshalBinary()
	require.NoError(t, err)
	return data
}

// rangingOnly supports neither role
type rangingOnly struct{}

func (rangingOnly) ConfigureAntenna(bool) error { return nil }
func (rangingOnly) SetTrace(bool) error         { return nil }

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(nil, NewMockRanging())
	require.Error(t, err)
	_, err = New(NewMockTransport(), nil)
	require.Error(t, err)

	_, err = New(NewMockTransport(), NewMockRanging(), WithSerializerOptions(WithCapacity(-1)))
	require.Error(t, err)

	b, err := New(NewMockTransport(), NewMockRanging())
	require.NoError(t, err)
	assert.Equal(t, TransportMock, b.Transport().Type())
	assert.False(t, b.Busy())
}

func TestHandleCommand_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd        Command
		name       string
		wantCall   string
		wantData   []byte
		wantStatus Status
	}{
		{
			name:       "create initiator",
			cmd:        &CreateInitiator{Connection: 1, Config: []byte{0x01}, ExtendedResult: true},
			wantStatus: StatusOK,
			wantData:   []byte{0x00},
			wantCall:   "create_initiator",
		},
		{
			name:       "delete initiator",
			cmd:        &InitiatorAction{Connection: 1, Action: ActionDelete},
			wantStatus: StatusOK,
			wantCall:   "delete_initiator",
		},
		{
			name:       "unknown initiator action",
			cmd:        &InitiatorAction{Connection: 1, Action: 7},
			wantStatus: StatusFail,
		},
		{
			name:       "create reflector",
			cmd:        &CreateReflector{Connection: 2, Config: []byte{0x09}},
			wantStatus: StatusOK,
			wantCall:   "create_reflector",
		},
		{
			name:       "delete reflector",
			cmd:        &ReflectorAction{Connection: 2, Action: ActionDelete},
			wantStatus: StatusOK,
			wantCall:   "delete_reflector",
		},
		{
			name:       "unknown reflector action",
			cmd:        &ReflectorAction{Connection: 2, Action: 3},
			wantStatus: StatusNotSupported,
		},
		{
			name:       "antenna",
			cmd:        &AntennaConfigure{Wired: true},
			wantStatus: StatusOK,
			wantCall:   "antenna",
		},
		{
			name:       "trace",
			cmd:        &EnableTrace{Enable: true},
			wantStatus: StatusOK,
			wantCall:   "trace",
		},
		{
			name:       "target config",
			cmd:        &GetTargetConfig{},
			wantStatus: StatusOK,
			wantData:   []byte{TargetConfigRASOnDemand, 1, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, transport, ranging := newTestBridge(t)
			rsp, err := b.HandleCommand(mustMarshal(t, tt.cmd))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rsp.Status)
			assert.Equal(t, tt.wantData, rsp.Data)

			responses := transport.Responses()
			require.Len(t, responses, 1)
			assert.Equal(t, tt.wantStatus, responses[0].Status)

			if tt.wantCall != "" {
				assert.Equal(t, []string{tt.wantCall}, ranging.Calls)
			} else {
				assert.Empty(t, ranging.Calls)
			}
		})
	}
}

func TestHandleCommand_BadInput(t *testing.T) {
	t.Parallel()

	b, transport, _ := newTestBridge(t)

	rsp, err := b.HandleCommand([]byte{0x7F})
	require.NoError(t, err)
	assert.Equal(t, StatusNotSupported, rsp.Status)

	rsp, err = b.HandleCommand([]byte{byte(CmdEnableTrace)})
	require.NoError(t, err)
	assert.Equal(t, StatusInvalidParameter, rsp.Status)

	rsp, err = b.HandleCommand(nil)
	require.NoError(t, err)
	assert.Equal(t, StatusInvalidParameter, rsp.Status)

	assert.Len(t, transport.Responses(), 3)
}

func TestHandleCommand_UnsupportedRoles(t *testing.T) {
	t.Parallel()

	b, err := New(NewMockTransport(), rangingOnly{})
	require.NoError(t, err)

	for _, cmd := range []Command{
		&CreateInitiator{Connection: 1},
		&InitiatorAction{Connection: 1},
		&CreateReflector{Connection: 1},
		&ReflectorAction{Connection: 1},
	} {
		rsp, err := b.HandleCommand(mustMarshal(t, cmd))
		require.NoError(t, err)
		assert.Equal(t, StatusNotSupported, rsp.Status, "command %d", cmd.ID())
	}

	rsp, err := b.HandleCommand(mustMarshal(t, &AntennaConfigure{}))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, rsp.Status)
}

func TestHandleCommand_CreateInitiatorFailure(t *testing.T) {
	t.Parallel()

	b, transport, ranging := newTestBridge(t)
	ranging.Err = StatusInvalidState

	rsp, err := b.HandleCommand(mustMarshal(t, &CreateInitiator{Connection: 5, ExtendedResult: true}))
	require.NoError(t, err)
	assert.Equal(t, StatusInvalidState, rsp.Status)

	events := transport.Events()
	require.Len(t, events, 1)
	ev, err := ParseEvent(events[0])
	require.NoError(t, err)
	assert.Equal(t, &StatusEvent{Connection: 5, Error: ErrorEventInitFailed, Status: uint32(StatusInvalidState)}, ev)
}

func TestHandleCommand_CollaboratorErrors(t *testing.T) {
	t.Parallel()

	b, _, ranging := newTestBridge(t)
	ranging.Err = errors.New("radio fault")

	rsp, err := b.HandleCommand(mustMarshal(t, &EnableTrace{Enable: true}))
	require.NoError(t, err)
	assert.Equal(t, StatusFail, rsp.Status)
}

func TestHandleCommand_ResponseSendFailure(t *testing.T) {
	t.Parallel()

	b, transport, _ := newTestBridge(t)
	link := errors.New("link down")
	transport.FailNext(1, link)

	rsp, err := b.HandleCommand(mustMarshal(t, &InitiatorAction{Connection: 3, Action: ActionDelete}))
	require.ErrorIs(t, err, ErrTransportRejected)
	require.ErrorIs(t, err, link)
	assert.Equal(t, StatusOK, rsp.Status)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, uint8(3), te.Connection)
}

func TestHandleCommand_TargetConfigOption(t *testing.T) {
	t.Parallel()

	b, _, _ := newTestBridge(t, WithTargetConfig(TargetConfig{MaxInitiators: 2, MaxConnections: 2}))
	rsp, err := b.HandleCommand(mustMarshal(t, &GetTargetConfig{}))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 2, 2}, rsp.Data)
}

func TestBridge_Handlers(t *testing.T) {
	t.Parallel()

	b, transport, ranging := newTestBridge(t)

	_, err := b.HandleCommand(mustMarshal(t, &CreateInitiator{Connection: 1, ExtendedResult: false}))
	require.NoError(t, err)
	_, err = b.HandleCommand(mustMarshal(t, &CreateInitiator{Connection: 2, ExtendedResult: true}))
	require.NoError(t, err)

	plain, ok := ranging.Handlers(1)
	require.True(t, ok)
	extended, ok := ranging.Handlers(2)
	require.True(t, ok)

	r := smallResult()
	r.Connection = 1
	require.NoError(t, plain.OnResult(r))
	assert.False(t, b.Busy())

	events := transport.Events()
	require.Len(t, events, 1)
	ev, err := ParseEvent(events[0])
	require.NoError(t, err)
	assert.Equal(t, &ResultEvent{Connection: 1, Summary: r.Summary}, ev)

	r2 := smallResult()
	r2.Connection = 2
	require.NoError(t, extended.OnResult(r2))
	assert.True(t, b.Busy())
	assert.Len(t, transport.Events(), 1, "extended results wait for Tick")

	frag, err := b.Tick()
	require.NoError(t, err)
	require.NotNil(t, frag)
	assert.Equal(t, uint8(2), frag.Connection)
	assert.False(t, b.Busy())

	require.NoError(t, extended.OnIntermediateResult(2, 25))
	require.NoError(t, extended.OnError(2, ErrorEventProcedureFailed, 7))
	events = transport.Events()
	require.Len(t, events, 4)
	ev, err = ParseEvent(events[2])
	require.NoError(t, err)
	assert.Equal(t, &IntermediateResultEvent{Connection: 2, Progress: 25}, ev)
	ev, err = ParseEvent(events[3])
	require.NoError(t, err)
	assert.Equal(t, &StatusEvent{Connection: 2, Error: ErrorEventProcedureFailed, Status: 7}, ev)
}

func TestBridge_OnExtendedResultBusyDrop(t *testing.T) {
	t.Parallel()

	b, _, _ := newTestBridge(t, WithSerializerOptions(WithMaxFragmentData(8)))
	require.NoError(t, b.OnExtendedResult(smallResult()))

	err := b.OnExtendedResult(smallResult())
	require.ErrorIs(t, err, ErrTransferBusy)
	assert.Equal(t, uint64(1), b.Stats().BusyDrops)

	require.ErrorIs(t, b.OnExtendedResult(nil), ErrMalformedResult)
	require.ErrorIs(t, b.OnResult(nil), ErrMalformedResult)
}

func TestBridge_OnExtendedResultOverflow(t *testing.T) {
	t.Parallel()

	b, _, _ := newTestBridge(t, WithSerializerOptions(WithCapacity(16)))
	err := b.OnExtendedResult(smallResult())
	require.ErrorIs(t, err, ErrEncodeOverflow)
	assert.False(t, b.Busy())
	assert.Equal(t, uint64(1), b.Stats().EncodeDrops)
}

func TestBridge_SendEventFailure(t *testing.T) {
	t.Parallel()

	b, transport, _ := newTestBridge(t)
	transport.FailNext(1, errors.New("link down"))

	err := b.OnIntermediateResult(4, 10)
	require.ErrorIs(t, err, ErrTransportRejected)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, uint8(4), te.Connection)
}

func TestBridge_Close(t *testing.T) {
	t.Parallel()

	b, transport, _ := newTestBridge(t)
	require.NoError(t, b.Close())
	require.Error(t, transport.SendEvent([]byte{0x00, 0x00}))
}

// Results staged from ranging goroutines while the drain loop ticks
func TestBridge_ConcurrentProducers(t *testing.T) {
	t.Parallel()

	wake := &CountingWakeLock{}
	b, transport, _ := newTestBridge(t, WithSerializerOptions(WithWakeLock(wake), WithMaxFragmentData(32)))

	const producers = 4
	const perProducer = 25
	var mu sync.Mutex
	acceptedCount := 0

	var wg, drainer sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(conn uint8) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				r := &Result{
					Connection: conn,
					Summary:    testutil.BuildSummary(float32(i), 1),
					Ranging:    RangingData{Initiator: testutil.BuildPattern(100, byte(i))},
				}
				if err := b.OnExtendedResult(r); err == nil {
					mu.Lock()
					acceptedCount++
					mu.Unlock()
				}
			}
		}(uint8(p))
	}

	done := make(chan struct{})
	drainer.Add(1)
	go func() {
		defer drainer.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			_, _ = b.Tick()
		}
	}()

	wg.Wait()
	close(done)
	drainer.Wait()
	for b.Busy() {
		_, err := b.Tick()
		require.NoError(t, err)
	}

	stats := b.Stats()
	assert.Equal(t, uint64(acceptedCount), stats.TransfersStarted)
	assert.Equal(t, stats.TransfersStarted, stats.TransfersCompleted)
	assert.Equal(t, uint64(producers*perProducer), stats.TransfersStarted+stats.BusyDrops)
	assert.Equal(t, acceptedCount, wake.Acquires)
	assert.Equal(t, acceptedCount, wake.Releases)
	assert.Zero(t, wake.Misuses)

	reassembler := NewReassembler()
	results := 0
	for _, raw := range transport.Events() {
		ev, err := ParseEvent(raw)
		require.NoError(t, err)
		r, err := reassembler.Feed(ev.(*ExtendedResultEvent))
		require.NoError(t, err)
		if r != nil {
			results++
		}
	}
	assert.Equal(t, acceptedCount, results)
}
