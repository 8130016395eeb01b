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

// CommandID identifies a command sent from the host application.
type CommandID uint8

const (
	CmdCreateInitiator  CommandID = 0
	CmdCreateReflector  CommandID = 1
	CmdInitiatorAction  CommandID = 2
	CmdReflectorAction  CommandID = 3
	CmdAntennaConfigure CommandID = 4
	CmdEnableTrace      CommandID = 5
	CmdGetTargetConfig  CommandID = 6
)

// ActionDelete removes the role instance of a connection. It is the only
// initiator and reflector action defined.
const ActionDelete = 0

// Command is one decoded host command.
type Command interface {
	ID() CommandID
	MarshalBinary() ([]byte, error)
}

// CreateInitiator creates an initiator instance for a connection. Config
// holds the initiator and estimator configuration as the ranging subsystem
// expects it; the bridge does not interpret it.
type CreateInitiator struct {
	Config         []byte
	Connection     uint8
	ExtendedResult bool
}

// CreateReflector creates a reflector instance for a connection.
type CreateReflector struct {
	Config     []byte
	Connection uint8
}

// InitiatorAction applies Action to the initiator instance of Connection.
type InitiatorAction struct {
	Connection uint8
	Action     uint8
}

// ReflectorAction applies Action to the reflector instance of Connection.
type ReflectorAction struct {
	Connection uint8
	Action     uint8
}

// AntennaConfigure selects wired or wireless antenna offset.
type AntennaConfigure struct {
	Wired bool
}

// EnableTrace turns the ranging trace output on or off.
type EnableTrace struct {
	Enable bool
}

// GetTargetConfig asks for the target's role and connection limits.
type GetTargetConfig struct{}

func (*CreateInitiator) ID() CommandID  { return CmdCreateInitiator }
func (*CreateReflector) ID() CommandID  { return CmdCreateReflector }
func (*InitiatorAction) ID() CommandID  { return CmdInitiatorAction }
func (*ReflectorAction) ID() CommandID  { return CmdReflectorAction }
func (*AntennaConfigure) ID() CommandID { return CmdAntennaConfigure }
func (*EnableTrace) ID() CommandID      { return CmdEnableTrace }
func (*GetTargetConfig) ID() CommandID  { return CmdGetTargetConfig }

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func checkCommandSize(buf []byte) ([]byte, error) {
	if len(buf) > MaxMessageSize {
		return nil, fmt.Errorf("%w: command is %d bytes", ErrMalformedCommand, len(buf))
	}
	return buf, nil
}

// MarshalBinary encodes the command as [0][conn][config...][extended].
func (c *CreateInitiator) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 3+len(c.Config))
	buf = append(buf, byte(CmdCreateInitiator), c.Connection)
	buf = append(buf, c.Config...)
	return checkCommandSize(append(buf, boolByte(c.ExtendedResult)))
}

// MarshalBinary encodes the command as [1][conn][config...].
func (c *CreateReflector) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 2+len(c.Config))
	buf = append(buf, byte(CmdCreateReflector), c.Connection)
	return checkCommandSize(append(buf, c.Config...))
}

func (c *InitiatorAction) MarshalBinary() ([]byte, error) {
	return []byte{byte(CmdInitiatorAction), c.Connection, c.Action}, nil
}

func (c *ReflectorAction) MarshalBinary() ([]byte, error) {
	return []byte{byte(CmdReflectorAction), c.Connection, c.Action}, nil
}

func (c *AntennaConfigure) MarshalBinary() ([]byte, error) {
	return []byte{byte(CmdAntennaConfigure), boolByte(c.Wired)}, nil
}

func (c *EnableTrace) MarshalBinary() ([]byte, error) {
	return []byte{byte(CmdEnableTrace), boolByte(c.Enable)}, nil
}

func (*GetTargetConfig) MarshalBinary() ([]byte, error) {
	return []byte{byte(CmdGetTargetConfig)}, nil
}

// ParseCommand decodes a host command. Unknown ids fail with
// ErrUnknownCommand, short payloads with ErrMalformedCommand.
func ParseCommand(data []byte) (Command, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrMalformedCommand)
	}
	id := CommandID(data[0])
	body := data[1:]

	need := func(n int) error {
		if len(body) < n {
			return fmt.Errorf("%w: command %d needs %d bytes, got %d", ErrMalformedCommand, id, n, len(body))
		}
		return nil
	}

	switch id {
	case CmdCreateInitiator:
		if err := need(2); err != nil {
			return nil, err
		}
		return &CreateInitiator{
			Connection:     body[0],
			Config:         append([]byte(nil), body[1:len(body)-1]...),
			ExtendedResult: body[len(body)-1] != 0,
		}, nil
	case CmdCreateReflector:
		if err := need(1); err != nil {
			return nil, err
		}
		return &CreateReflector{
			Connection: body[0],
			Config:     append([]byte(nil), body[1:]...),
		}, nil
	case CmdInitiatorAction:
		if err := need(2); err != nil {
			return nil, err
		}
		return &InitiatorAction{Connection: body[0], Action: body[1]}, nil
	case CmdReflectorAction:
		if err := need(2); err != nil {
			return nil, err
		}
		return &ReflectorAction{Connection: body[0], Action: body[1]}, nil
	case CmdAntennaConfigure:
		if err := need(1); err != nil {
			return nil, err
		}
		return &AntennaConfigure{Wired: body[0] != 0}, nil
	case CmdEnableTrace:
		if err := need(1); err != nil {
			return nil, err
		}
		return &EnableTrace{Enable: body[0] != 0}, nil
	case CmdGetTargetConfig:
		return &GetTargetConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCommand, data[0])
	}
}
