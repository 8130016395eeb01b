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

// Package uart provides a framed UART link for the ranging bridge. The target
// side implements csncp.Transport; the host side sends commands and reads
// responses and events.
package uart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	csncp "github.com/ZaparooProject/go-csncp"
	"github.com/ZaparooProject/go-csncp/internal/frame"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// DefaultReadTimeout bounds a single blocking read on a serial port
const DefaultReadTimeout = 100 * time.Millisecond

// ErrNotConnected is returned after Close
var ErrNotConnected = errors.New("uart transport not connected")

// Frame is a decoded link frame
type Frame = frame.Frame

// Frame kinds re-exported for host tools
const (
	KindCommand  = frame.HostToTarget
	KindResponse = frame.TargetToHost
	KindEvent    = frame.TargetEvent
)

// Transport carries framed messages over a serial port
type Transport struct {
	port     io.ReadWriteCloser
	reader   *frame.Reader
	log      zerolog.Logger
	portName string
	writeMu  sync.Mutex
	closed   atomic.Bool
}

// New opens portName at baudRate, 8N1
func New(portName string, baudRate int) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", portName, err)
	}
	return NewWithPort(timeoutPort{port}, portName), nil
}

// NewWithPort wraps an already open byte stream
func NewWithPort(port io.ReadWriteCloser, name string) *Transport {
	return &Transport{
		port:     port,
		reader:   frame.NewReader(port),
		portName: name,
		log:      csncp.Logger().With().Str("port", name).Logger(),
	}
}

// ListPorts returns the serial ports present on the system
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

// SendEvent writes one event frame
func (t *Transport) SendEvent(data []byte) error {
	return t.writeFrame(frame.TargetEvent, data)
}

// SendResponse writes a response frame: status (2 bytes LE) followed by data
func (t *Transport) SendResponse(status csncp.Status, data []byte) error {
	payload := make([]byte, 2, 2+len(data))
	binary.LittleEndian.PutUint16(payload, uint16(status))
	return t.writeFrame(frame.TargetToHost, append(payload, data...))
}

// SendCommand writes a command frame from the host side
func (t *Transport) SendCommand(cmd csncp.Command) error {
	data, err := cmd.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal command %d: %w", cmd.ID(), err)
	}
	return t.writeFrame(frame.HostToTarget, data)
}

func (t *Transport) writeFrame(kind byte, payload []byte) error {
	raw, err := frame.Encode(kind, payload)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.closed.Load() {
		return ErrNotConnected
	}
	if _, err := t.port.Write(raw); err != nil {
		return fmt.Errorf("write %s: %w", t.portName, err)
	}
	t.log.Trace().Uint8("kind", kind).Int("len", len(payload)).Msg("frame sent")
	return nil
}

// ReadFrame blocks for the next frame. A serial read timeout with no frame
// in progress is reported as csncp.ErrTimeout. Only one goroutine may read.
func (t *Transport) ReadFrame() (Frame, error) {
	if !t.IsConnected() {
		return Frame{}, ErrNotConnected
	}
	f, err := t.reader.ReadFrame()
	if err != nil {
		if !errors.Is(err, csncp.ErrTimeout) {
			t.log.Debug().Err(err).Msg("frame read failed")
		}
		return Frame{}, err
	}
	return f, nil
}

// ParseResponse splits a response frame payload into status and data
func ParseResponse(payload []byte) (csncp.Status, []byte, error) {
	if len(payload) < 2 {
		return 0, nil, fmt.Errorf("%w: response of %d bytes", frame.ErrFrameTooShort, len(payload))
	}
	return csncp.Status(binary.LittleEndian.Uint16(payload)), payload[2:], nil
}

// IsConnected reports whether the port is open
func (t *Transport) IsConnected() bool {
	return t.port != nil && !t.closed.Load()
}

// Close closes the port, unblocking pending reads and writes. Closing twice
// is a no-op.
func (t *Transport) Close() error {
	if t.port == nil || t.closed.Swap(true) {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.portName, err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() csncp.TransportType {
	return csncp.TransportUART
}

// PortName returns the name the transport was opened with
func (t *Transport) PortName() string {
	return t.portName
}

// go.bug.st/serial reports an expired read timeout as (0, nil)
type timeoutPort struct {
	serial.Port
}

func (p timeoutPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if n == 0 && err == nil && len(b) > 0 {
		return 0, csncp.ErrTimeout
	}
	return n, err
}

var _ csncp.Transport = (*Transport)(nil)
