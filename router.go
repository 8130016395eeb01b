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

// Ranging is the part of the ranging subsystem every target provides.
type Ranging interface {
	// ConfigureAntenna selects wired (true) or wireless antenna offset
	ConfigureAntenna(wired bool) error
	// SetTrace starts or stops the ranging trace output
	SetTrace(enabled bool) error
}

// InitiatorController is implemented by ranging subsystems that can run
// the initiator role. Targets without it answer initiator commands with
// StatusNotSupported.
type InitiatorController interface {
	// CreateInitiator starts an initiator instance and returns its
	// instance id. Results are delivered through handlers.
	CreateInitiator(connection uint8, config []byte, handlers ResultHandlers) (uint8, error)
	DeleteInitiator(connection uint8) error
}

// ReflectorController is implemented by ranging subsystems that can run
// the reflector role.
type ReflectorController interface {
	CreateReflector(connection uint8, config []byte) error
	DeleteReflector(connection uint8) error
}

// ResultHandlers are the callbacks a ranging instance reports through.
// They are safe to call from any goroutine.
type ResultHandlers struct {
	OnResult             func(r *Result) error
	OnIntermediateResult func(connection uint8, progress float32) error
	OnError              func(connection uint8, ev ErrorEvent, status uint32) error
}

// TargetConfigRASOnDemand is the bit set in the target config bitfield when
// ranging data is retrieved on demand instead of in real time.
const TargetConfigRASOnDemand = 1 << 0

const targetConfigLen = 3

// TargetConfig describes role and connection limits of the target.
type TargetConfig struct {
	RASOnDemand    bool
	MaxInitiators  uint8
	MaxConnections uint8
}

// DefaultTargetConfig returns the limits of a single-initiator target
func DefaultTargetConfig() TargetConfig {
	return TargetConfig{
		RASOnDemand:    true,
		MaxInitiators:  1,
		MaxConnections: 4,
	}
}

// MarshalBinary encodes the config as [bitfield][max initiators][max connections].
func (c TargetConfig) MarshalBinary() ([]byte, error) {
	var bits byte
	if c.RASOnDemand {
		bits |= TargetConfigRASOnDemand
	}
	return []byte{bits, c.MaxInitiators, c.MaxConnections}, nil
}

// ParseTargetConfig decodes a GetTargetConfig response payload
func ParseTargetConfig(data []byte) (TargetConfig, error) {
	if len(data) != targetConfigLen {
		return TargetConfig{}, fmt.Errorf("target config is %d bytes, want %d", len(data), targetConfigLen)
	}
	return TargetConfig{
		RASOnDemand:    data[0]&TargetConfigRASOnDemand != 0,
		MaxInitiators:  data[1],
		MaxConnections: data[2],
	}, nil
}

// Response is the answer to one host command.
type Response struct {
	Data   []byte
	Status Status
}

// dispatch runs a decoded command against the ranging subsystem.
func (b *Bridge) dispatch(cmd Command) Response {
	switch c := cmd.(type) {
	case *CreateInitiator:
		return b.createInitiator(c)
	case *InitiatorAction:
		ic, ok := b.ranging.(InitiatorController)
		if !ok {
			return Response{Status: StatusNotSupported}
		}
		if c.Action != ActionDelete {
			return Response{Status: StatusFail}
		}
		return Response{Status: StatusFromError(ic.DeleteInitiator(c.Connection))}
	case *CreateReflector:
		rc, ok := b.ranging.(ReflectorController)
		if !ok {
			return Response{Status: StatusNotSupported}
		}
		return Response{Status: StatusFromError(rc.CreateReflector(c.Connection, c.Config))}
	case *ReflectorAction:
		rc, ok := b.ranging.(ReflectorController)
		if !ok || c.Action != ActionDelete {
			return Response{Status: StatusNotSupported}
		}
		return Response{Status: StatusFromError(rc.DeleteReflector(c.Connection))}
	case *AntennaConfigure:
		return Response{Status: StatusFromError(b.ranging.ConfigureAntenna(c.Wired))}
	case *EnableTrace:
		return Response{Status: StatusFromError(b.ranging.SetTrace(c.Enable))}
	case *GetTargetConfig:
		data, err := b.target.MarshalBinary()
		if err != nil {
			return Response{Status: StatusFail}
		}
		return Response{Status: StatusOK, Data: data}
	default:
		return Response{Status: StatusNotSupported}
	}
}

func (b *Bridge) createInitiator(c *CreateInitiator) Response {
	ic, ok := b.ranging.(InitiatorController)
	if !ok {
		return Response{Status: StatusNotSupported}
	}

	instance, err := ic.CreateInitiator(c.Connection, c.Config, b.Handlers(c.ExtendedResult))
	status := StatusFromError(err)
	if err != nil {
		b.log.Error().Err(err).Uint8("connection", c.Connection).Msg("failed to create initiator")
		if evErr := b.OnError(c.Connection, ErrorEventInitFailed, uint32(status)); evErr != nil {
			b.log.Error().Err(evErr).Uint8("connection", c.Connection).Msg("failed to report initiator error")
		}
	}
	return Response{Status: status, Data: []byte{instance}}
}

// HandleCommand decodes one host command, runs it and sends the response
// through the transport. The response is also returned; the error is
// non-nil only when the response could not be sent.
func (b *Bridge) HandleCommand(data []byte) (Response, error) {
	var rsp Response
	cmd, err := ParseCommand(data)
	switch {
	case errors.Is(err, ErrUnknownCommand):
		rsp = Response{Status: StatusNotSupported}
	case err != nil:
		rsp = Response{Status: StatusInvalidParameter}
	default:
		b.log.Debug().Uint8("command", uint8(cmd.ID())).Msg("handling host command")
		rsp = b.dispatch(cmd)
	}
	if err != nil {
		b.log.Warn().Err(err).Msg("rejected host command")
	}

	if sendErr := b.transport.SendResponse(rsp.Status, rsp.Data); sendErr != nil {
		var conn uint8
		if len(data) > 1 {
			conn = data[1]
		}
		return rsp, NewTransportError("send response", conn, sendErr)
	}
	return rsp, nil
}
