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
	"encoding/binary"
	"fmt"
	"math"
)

// EventKind identifies the payload carried by an event sent to the host.
type EventKind uint8

const (
	// EventResult carries the high level result (distance, likeliness etc.)
	EventResult EventKind = 0
	// EventStatus reports a status change or an error of a ranging instance
	EventStatus EventKind = 1
	// EventIntermediateResult reports progress of a multi-measurement estimate
	EventIntermediateResult EventKind = 2
	// EventExtendedResult carries one fragment of an encoded extended result
	EventExtendedResult EventKind = 3
)

func (k EventKind) String() string {
	switch k {
	case EventResult:
		return "result"
	case EventStatus:
		return "status"
	case EventIntermediateResult:
		return "intermediate_result"
	case EventExtendedResult:
		return "extended_result"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

const (
	// MaxMessageSize is the hard ceiling of one transport message.
	MaxMessageSize = math.MaxUint8

	// eventHeaderLen covers the connection id and the event id.
	eventHeaderLen = 2
	// fragmentHeaderLen covers fragments_left and the payload length byte.
	fragmentHeaderLen = 2

	// FragmentOverhead is the number of bytes an extended result event adds
	// around its fragment payload.
	FragmentOverhead = eventHeaderLen + fragmentHeaderLen
	// MaxFragmentData is the largest fragment payload that fits one message.
	MaxFragmentData = MaxMessageSize - FragmentOverhead

	// FirstFragmentMask marks the first fragment of a transfer.
	FirstFragmentMask = 0x80
	// FragmentsLeftMask selects the remaining fragment count.
	FragmentsLeftMask = 0x7F

	statusEventLen       = eventHeaderLen + 4 + 1
	intermediateEventLen = eventHeaderLen + 4
)

// Event is one message sent from the bridge to the host.
type Event interface {
	Kind() EventKind
	ConnectionID() uint8
	MarshalBinary() ([]byte, error)
}

// ResultEvent carries a result summary in type-value pairs.
type ResultEvent struct {
	Summary    []byte
	Connection uint8
}

// StatusEvent reports a status code and an error event for a connection.
type StatusEvent struct {
	Status     uint32
	Error      ErrorEvent
	Connection uint8
}

// IntermediateResultEvent reports estimation progress in percent.
type IntermediateResultEvent struct {
	Progress   float32
	Connection uint8
}

// ExtendedResultEvent carries one fragment of an encoded extended result.
type ExtendedResultEvent struct {
	Data          []byte
	FragmentsLeft uint8
	First         bool
	Connection    uint8
}

func (*ResultEvent) Kind() EventKind             { return EventResult }
func (*StatusEvent) Kind() EventKind             { return EventStatus }
func (*IntermediateResultEvent) Kind() EventKind { return EventIntermediateResult }
func (*ExtendedResultEvent) Kind() EventKind     { return EventExtendedResult }

func (e *ResultEvent) ConnectionID() uint8             { return e.Connection }
func (e *StatusEvent) ConnectionID() uint8             { return e.Connection }
func (e *IntermediateResultEvent) ConnectionID() uint8 { return e.Connection }
func (e *ExtendedResultEvent) ConnectionID() uint8     { return e.Connection }

func eventHeader(kind EventKind, connection uint8, size int) []byte {
	buf := make([]byte, eventHeaderLen, size)
	buf[0] = connection
	buf[1] = byte(kind)
	return buf
}

// MarshalBinary encodes the event as [conn][0][summary].
func (e *ResultEvent) MarshalBinary() ([]byte, error) {
	size := eventHeaderLen + len(e.Summary)
	if size > MaxMessageSize {
		return nil, fmt.Errorf("%w: result event is %d bytes", ErrEventTooLarge, size)
	}
	buf := eventHeader(EventResult, e.Connection, size)
	return append(buf, e.Summary...), nil
}

// MarshalBinary encodes the event as [conn][1][status:4][error:1].
func (e *StatusEvent) MarshalBinary() ([]byte, error) {
	buf := eventHeader(EventStatus, e.Connection, statusEventLen)
	buf = binary.LittleEndian.AppendUint32(buf, e.Status)
	return append(buf, byte(e.Error)), nil
}

// MarshalBinary encodes the event as [conn][2][progress:float32].
func (e *IntermediateResultEvent) MarshalBinary() ([]byte, error) {
	buf := eventHeader(EventIntermediateResult, e.Connection, intermediateEventLen)
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(e.Progress)), nil
}

// MarshalBinary encodes the event as [conn][3][fragments_left][len][data].
func (e *ExtendedResultEvent) MarshalBinary() ([]byte, error) {
	if len(e.Data) > MaxFragmentData {
		return nil, fmt.Errorf("%w: fragment is %d bytes", ErrEventTooLarge, len(e.Data))
	}
	buf := eventHeader(EventExtendedResult, e.Connection, FragmentOverhead+len(e.Data))
	buf = append(buf, e.header(), byte(len(e.Data)))
	return append(buf, e.Data...), nil
}

func (e *ExtendedResultEvent) header() byte {
	h := e.FragmentsLeft & FragmentsLeftMask
	if e.First {
		h |= FirstFragmentMask
	}
	return h
}

// ParseEvent decodes a message produced by one of the MarshalBinary methods.
func ParseEvent(data []byte) (Event, error) {
	if len(data) < eventHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedEvent, len(data))
	}
	conn := data[0]
	body := data[eventHeaderLen:]

	switch EventKind(data[1]) {
	case EventResult:
		return &ResultEvent{Connection: conn, Summary: append([]byte(nil), body...)}, nil
	case EventStatus:
		if len(data) != statusEventLen {
			return nil, fmt.Errorf("%w: status event is %d bytes", ErrMalformedEvent, len(data))
		}
		return &StatusEvent{
			Connection: conn,
			Status:     binary.LittleEndian.Uint32(body),
			Error:      ErrorEvent(body[4]),
		}, nil
	case EventIntermediateResult:
		if len(data) != intermediateEventLen {
			return nil, fmt.Errorf("%w: intermediate event is %d bytes", ErrMalformedEvent, len(data))
		}
		return &IntermediateResultEvent{
			Connection: conn,
			Progress:   math.Float32frombits(binary.LittleEndian.Uint32(body)),
		}, nil
	case EventExtendedResult:
		if len(body) < fragmentHeaderLen || int(body[1]) != len(body)-fragmentHeaderLen {
			return nil, fmt.Errorf("%w: extended result fragment length", ErrMalformedEvent)
		}
		return &ExtendedResultEvent{
			Connection:    conn,
			FragmentsLeft: body[0] & FragmentsLeftMask,
			First:         body[0]&FirstFragmentMask != 0,
			Data:          append([]byte(nil), body[fragmentHeaderLen:]...),
		}, nil
	default:
		return nil, fmt.Errorf("%w: id %d", ErrUnknownEvent, data[1])
	}
}

// ErrorEvent classifies a StatusEvent.
type ErrorEvent uint8

const (
	ErrorEventNone ErrorEvent = iota
	ErrorEventInitFailed
	ErrorEventProcedureFailed
	ErrorEventEstimationFailed
	ErrorEventRangingDataLost
	ErrorEventSerializationFailed
)
