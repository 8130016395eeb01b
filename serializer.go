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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SerializerOption is a functional option for configuring a Serializer
type SerializerOption func(*Serializer) error

// WithCapacity sets the size of the staging buffer in bytes
func WithCapacity(capacity int) SerializerOption {
	return func(s *Serializer) error {
		if capacity <= 0 {
			return fmt.Errorf("invalid staging capacity %d", capacity)
		}
		s.buf = make([]byte, capacity)
		return nil
	}
}

// WithMaxFragmentData sets the largest payload carried by one fragment.
// It must be between 1 and MaxFragmentData.
func WithMaxFragmentData(n int) SerializerOption {
	return func(s *Serializer) error {
		if n < 1 || n > MaxFragmentData {
			return fmt.Errorf("invalid fragment size %d (valid range: 1-%d)", n, MaxFragmentData)
		}
		s.maxData = n
		return nil
	}
}

// WithWakeLock sets the wake lock held for the duration of each transfer
func WithWakeLock(w WakeLock) SerializerOption {
	return func(s *Serializer) error {
		if w == nil {
			return errors.New("nil wake lock")
		}
		s.wake = w
		return nil
	}
}

// WithSerializerLogger sets the logger used for transfer lifecycle messages
func WithSerializerLogger(l zerolog.Logger) SerializerOption {
	return func(s *Serializer) error {
		s.log = l
		return nil
	}
}

// SerializerStats counts transfers, fragments and dropped results.
type SerializerStats struct {
	TransfersStarted   uint64
	TransfersCompleted uint64
	FragmentsSent      uint64
	BytesSent          uint64
	BusyDrops          uint64 // results rejected while a transfer was draining
	EncodeDrops        uint64 // results rejected by the encoder
	SendErrors         uint64
}

// TransferInfo describes the transfer currently draining.
type TransferInfo struct {
	Started    time.Time
	ID         uuid.UUID
	Total      int
	Remaining  int
	Connection uint8
}

// transfer is the draining state. cursor+remaining == total always holds.
type transfer struct {
	started    time.Time
	id         uuid.UUID
	total      int
	cursor     int
	remaining  int
	connection uint8
}

// Serializer stages one encoded result at a time in a fixed-size buffer and
// drains it into fragment events, one per Step.
//
// A Serializer is either idle or draining exactly one transfer. It is NOT
// safe for concurrent use; Bridge serializes access to the one it owns.
type Serializer struct {
	sender  EventSender
	wake    WakeLock
	active  *transfer
	log     zerolog.Logger
	buf     []byte
	stats   SerializerStats
	maxData int
}

// NewSerializer creates an idle serializer that sends fragments to sender
func NewSerializer(sender EventSender, opts ...SerializerOption) (*Serializer, error) {
	if sender == nil {
		return nil, errors.New("nil event sender")
	}
	s := &Serializer{
		sender:  sender,
		wake:    NopWakeLock{},
		log:     Logger(),
		maxData: MaxFragmentData,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.buf == nil {
		s.buf = make([]byte, DefaultCapacity)
	}

	return s, nil
}

// Capacity returns the size of the staging buffer
func (s *Serializer) Capacity() int {
	return len(s.buf)
}

// MaxFragmentData returns the largest payload of one fragment
func (s *Serializer) MaxFragmentData() int {
	return s.maxData
}

// Busy reports whether a transfer is draining
func (s *Serializer) Busy() bool {
	return s.active != nil
}

// Active returns the transfer currently draining, if any
func (s *Serializer) Active() (TransferInfo, bool) {
	tr := s.active
	if tr == nil {
		return TransferInfo{}, false
	}
	return TransferInfo{
		ID:         tr.id,
		Connection: tr.connection,
		Total:      tr.total,
		Remaining:  tr.remaining,
		Started:    tr.started,
	}, true
}

// Stats returns a snapshot of the transfer counters
func (s *Serializer) Stats() SerializerStats {
	return s.stats
}

// BeginTransfer stages an already encoded blob for connection.
//
// It fails with ErrTransferBusy while a previous transfer is draining,
// leaving that transfer untouched, and with ErrEncodeOverflow when the blob
// does not fit the staging buffer.
func (s *Serializer) BeginTransfer(connection uint8, blob []byte) error {
	if err := s.checkIdle(connection); err != nil {
		return err
	}
	if len(blob) == 0 {
		return ErrEmptyTransfer
	}
	if len(blob) > len(s.buf) {
		s.stats.EncodeDrops++
		return fmt.Errorf("%w: blob is %d bytes, capacity %d", ErrEncodeOverflow, len(blob), len(s.buf))
	}
	copy(s.buf, blob)
	return s.admit(connection, len(blob))
}

// StageResult encodes r straight into the staging buffer and begins its
// transfer. The busy check runs before encoding so an in-flight buffer is
// never overwritten.
func (s *Serializer) StageResult(r *Result) error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrMalformedResult)
	}
	if err := s.checkIdle(r.Connection); err != nil {
		return err
	}
	n, err := EncodeTo(s.buf, r)
	if err != nil {
		s.stats.EncodeDrops++
		return err
	}
	return s.admit(r.Connection, n)
}

func (s *Serializer) checkIdle(connection uint8) error {
	if tr := s.active; tr != nil {
		s.stats.BusyDrops++
		return fmt.Errorf("%w: connection %d has %d of %d bytes left, rejected result for connection %d",
			ErrTransferBusy, tr.connection, tr.remaining, tr.total, connection)
	}
	return nil
}

func (s *Serializer) admit(connection uint8, n int) error {
	if err := s.wake.Acquire(); err != nil {
		return fmt.Errorf("acquire wake lock: %w", err)
	}
	s.active = &transfer{
		id:         uuid.New(),
		started:    time.Now(),
		connection: connection,
		total:      n,
		remaining:  n,
	}
	s.stats.TransfersStarted++
	s.log.Debug().
		Stringer("transfer", s.active.id).
		Uint8("connection", connection).
		Int("bytes", n).
		Int("fragments", fragmentCount(n, s.maxData)).
		Msg("transfer staged")
	return nil
}

// Step sends the next fragment of the draining transfer. It returns the
// sent fragment, or nil and no error when the serializer is idle.
//
// The cursor only advances after the sender accepted the fragment, so after
// a *TransportError the next Step resends the same fragment.
func (s *Serializer) Step() (*ExtendedResultEvent, error) {
	tr := s.active
	if tr == nil {
		return nil, nil
	}
	if tr.remaining <= 0 || tr.cursor+tr.remaining != tr.total || tr.total > len(s.buf) {
		panic(fmt.Sprintf("csncp: corrupt transfer state cursor=%d remaining=%d total=%d",
			tr.cursor, tr.remaining, tr.total))
	}

	chunk := min(tr.remaining, s.maxData)
	ev := &ExtendedResultEvent{
		Connection:    tr.connection,
		FragmentsLeft: fragmentsLeft(tr.remaining-chunk, s.maxData),
		First:         tr.cursor == 0,
		Data:          append([]byte(nil), s.buf[tr.cursor:tr.cursor+chunk]...),
	}

	data, err := ev.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := s.sender.SendEvent(data); err != nil {
		s.stats.SendErrors++
		return nil, NewTransportError("send extended result fragment", tr.connection, err)
	}

	tr.cursor += chunk
	tr.remaining -= chunk
	s.stats.FragmentsSent++
	s.stats.BytesSent += uint64(chunk)

	if tr.remaining == 0 {
		s.finish(tr)
	}
	return ev, nil
}

func (s *Serializer) finish(tr *transfer) {
	s.active = nil
	s.stats.TransfersCompleted++
	if err := s.wake.Release(); err != nil {
		s.log.Error().Err(err).Stringer("transfer", tr.id).Msg("failed to release wake lock")
	}
	s.log.Debug().
		Stringer("transfer", tr.id).
		Uint8("connection", tr.connection).
		Dur("elapsed", time.Since(tr.started)).
		Msg("transfer complete")
}

// fragmentsLeft returns how many fragments of at most n bytes are needed
// for rest bytes, saturated to what the wire record can carry.
func fragmentsLeft(rest, n int) uint8 {
	return uint8(min(fragmentCount(rest, n), FragmentsLeftMask))
}

func fragmentCount(size, n int) int {
	return (size + n - 1) / n
}
