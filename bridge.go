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
	"sync"

	"github.com/rs/zerolog"
)

// Bridge relays ranging results to the host over a Transport.
//
// It owns the command router, the result callbacks and one Serializer.
// Every entry point may be called from any goroutine: serializer access is
// guarded by a mutex, and the transport is expected to serialize its own
// writes.
type Bridge struct {
	transport      Transport
	ranging        Ranging
	serializer     *Serializer
	log            zerolog.Logger
	serializerOpts []SerializerOption
	target         TargetConfig
	mu             sync.Mutex
}

// New creates a bridge between the ranging subsystem and the transport
func New(transport Transport, ranging Ranging, opts ...Option) (*Bridge, error) {
	if transport == nil {
		return nil, errors.New("nil transport")
	}
	if ranging == nil {
		return nil, errors.New("nil ranging subsystem")
	}

	b := &Bridge{
		transport: transport,
		ranging:   ranging,
		target:    DefaultTargetConfig(),
		log:       Logger(),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	serializerOpts := append([]SerializerOption{WithSerializerLogger(b.log)}, b.serializerOpts...)
	serializer, err := NewSerializer(transport, serializerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create serializer: %w", err)
	}
	b.serializer = serializer

	return b, nil
}

// Transport returns the underlying transport
func (b *Bridge) Transport() Transport {
	return b.transport
}

// Close closes the transport
func (b *Bridge) Close() error {
	if err := b.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// Handlers returns the callbacks handed to a new initiator instance.
// extended selects whether results carry the full ranging data through the
// serializer or only the summary as a single result event.
func (b *Bridge) Handlers(extended bool) ResultHandlers {
	h := ResultHandlers{
		OnResult:             b.OnResult,
		OnIntermediateResult: b.OnIntermediateResult,
		OnError:              b.OnError,
	}
	if extended {
		h.OnResult = b.OnExtendedResult
	}
	return h
}

// OnResult sends the result summary as a single result event.
func (b *Bridge) OnResult(r *Result) error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrMalformedResult)
	}
	return b.sendEvent(&ResultEvent{Connection: r.Connection, Summary: r.Summary})
}

// OnExtendedResult stages the full result for fragmented transfer. A result
// arriving while another is draining is dropped with ErrTransferBusy.
func (b *Bridge) OnExtendedResult(r *Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.serializer.StageResult(r); err != nil {
		ev := b.log.Error().Err(err)
		if r != nil {
			ev = ev.Uint8("connection", r.Connection).Uint16("ranging_counter", r.RangingCounter)
		}
		if errors.Is(err, ErrTransferBusy) {
			ev.Msg("event data buffer busy, result dropped")
		} else {
			ev.Msg("event data serialization failed, result dropped")
		}
		return err
	}
	return nil
}

// OnIntermediateResult reports estimation progress
func (b *Bridge) OnIntermediateResult(connection uint8, progress float32) error {
	return b.sendEvent(&IntermediateResultEvent{Connection: connection, Progress: progress})
}

// OnError reports an error of a ranging instance
func (b *Bridge) OnError(connection uint8, ev ErrorEvent, status uint32) error {
	return b.sendEvent(&StatusEvent{Connection: connection, Error: ev, Status: status})
}

func (b *Bridge) sendEvent(ev Event) error {
	data, err := ev.MarshalBinary()
	if err != nil {
		return err
	}
	if err := b.transport.SendEvent(data); err != nil {
		return NewTransportError("send "+ev.Kind().String()+" event", ev.ConnectionID(), err)
	}
	return nil
}

// Tick runs one drain step. It is meant to be called from a periodic,
// non-blocking application loop such as polling.Driver.
func (b *Bridge) Tick() (*ExtendedResultEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.serializer.Step()
}

// Busy reports whether an extended result is draining
func (b *Bridge) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.serializer.Busy()
}

// Stats returns the serializer counters
func (b *Bridge) Stats() SerializerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.serializer.Stats()
}
