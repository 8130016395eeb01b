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
)

// MockTransport records everything sent through it and can be told to
// reject sends
type MockTransport struct {
	sendErr   error
	events    [][]byte
	responses []Response
	failNext  int
	mu        sync.Mutex
	closed    bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// SendEvent records the event unless a failure is configured
func (m *MockTransport) SendEvent(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failLocked(); err != nil {
		return err
	}
	m.events = append(m.events, append([]byte(nil), data...))
	return nil
}

// SendResponse records the response unless a failure is configured
func (m *MockTransport) SendResponse(status Status, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failLocked(); err != nil {
		return err
	}
	m.responses = append(m.responses, Response{Status: status, Data: append([]byte(nil), data...)})
	return nil
}

func (m *MockTransport) failLocked() error {
	if m.closed {
		return errors.New("mock transport closed")
	}
	if m.failNext > 0 {
		m.failNext--
		return m.sendErr
	}
	return nil
}

// FailNext makes the next n sends fail with err
func (m *MockTransport) FailNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
	m.sendErr = err
}

// Events returns copies of all recorded events
func (m *MockTransport) Events() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.events))
	copy(out, m.events)
	return out
}

// Responses returns all recorded responses
func (m *MockTransport) Responses() []Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Response, len(m.responses))
	copy(out, m.responses)
	return out
}

// Close marks the transport as closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// CountingWakeLock counts calls and records unpaired ones
type CountingWakeLock struct {
	AcquireErr error
	Acquires   int
	Releases   int
	Misuses    int
	mu         sync.Mutex
	held       bool
}

// Acquire takes the lock; acquiring a held lock counts as misuse
func (w *CountingWakeLock) Acquire() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.AcquireErr != nil {
		return w.AcquireErr
	}
	w.Acquires++
	if w.held {
		w.Misuses++
		return ErrWakeLockMisuse
	}
	w.held = true
	return nil
}

// Release drops the lock; releasing a free lock counts as misuse
func (w *CountingWakeLock) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Releases++
	if !w.held {
		w.Misuses++
		return ErrWakeLockMisuse
	}
	w.held = false
	return nil
}

// Held reports whether the lock is currently held
func (w *CountingWakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.held
}

// MockRanging is a ranging subsystem that runs both roles and remembers
// the handlers of every initiator it created
type MockRanging struct {
	Err        error
	handlers   map[uint8]ResultHandlers
	Reflectors map[uint8][]byte
	Calls      []string
	Instance   uint8
	mu         sync.Mutex
	Wired      bool
	Trace      bool
}

// NewMockRanging creates a mock ranging subsystem
func NewMockRanging() *MockRanging {
	return &MockRanging{
		handlers:   make(map[uint8]ResultHandlers),
		Reflectors: make(map[uint8][]byte),
	}
}

func (m *MockRanging) record(call string) error {
	m.Calls = append(m.Calls, call)
	return m.Err
}

func (m *MockRanging) ConfigureAntenna(wired bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Wired = wired
	return m.record("antenna")
}

func (m *MockRanging) SetTrace(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Trace = enabled
	return m.record("trace")
}

func (m *MockRanging) CreateInitiator(connection uint8, _ []byte, handlers ResultHandlers) (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("create_initiator"); err != nil {
		return 0, err
	}
	m.handlers[connection] = handlers
	return m.Instance, nil
}

func (m *MockRanging) DeleteInitiator(connection uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, connection)
	return m.record("delete_initiator")
}

func (m *MockRanging) CreateReflector(connection uint8, config []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reflectors[connection] = config
	return m.record("create_reflector")
}

func (m *MockRanging) DeleteReflector(connection uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Reflectors, connection)
	return m.record("delete_reflector")
}

// Handlers returns the handlers of the initiator on connection
func (m *MockRanging) Handlers(connection uint8) (ResultHandlers, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handlers[connection]
	return h, ok
}
