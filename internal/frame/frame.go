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

package frame

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var (
	ErrPayloadTooLarge  = errors.New("frame payload exceeds 255 bytes")
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	ErrFrameTooShort    = errors.New("frame too short")
	ErrUnknownKind      = errors.New("unknown frame kind")
)

// Frame is a single decoded link frame
type Frame struct {
	Payload []byte
	Kind    byte
}

// Encode builds the wire form of a frame
func Encode(kind byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	out := make([]byte, 0, MinFrameLength+len(payload))
	out = append(out, Start, kind, byte(len(payload)))
	out = append(out, payload...)
	return append(out, CalculateDataChecksum(kind, payload)), nil
}

// Reader decodes frames from a byte stream. Bytes preceding a start marker
// are discarded, so a reader recovers from line noise and from frames
// truncated by a timeout.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r in a frame reader
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, MinFrameLength+MaxPayloadLength)}
}

// Skipped bytes before the start marker are not reported
func (fr *Reader) seekStart() error {
	for {
		b, err := fr.r.ReadByte()
		if err != nil {
			return err
		}
		if b == Start {
			return nil
		}
	}
}

// ReadFrame reads the next frame. A frame that fails its checksum is
// consumed and reported as ErrChecksumMismatch; the next call resumes at the
// following start marker.
func (fr *Reader) ReadFrame() (Frame, error) {
	if err := fr.seekStart(); err != nil {
		return Frame{}, err
	}

	var header [2]byte
	if _, err := io.ReadFull(fr.r, header[:]); err != nil {
		return Frame{}, truncated(err)
	}
	kind, length := header[0], int(header[1])
	if !ValidKind(kind) {
		return Frame{}, fmt.Errorf("%w: 0x%02X", ErrUnknownKind, kind)
	}

	body := make([]byte, length+1)
	if _, err := io.ReadFull(fr.r, body); err != nil {
		return Frame{}, truncated(err)
	}
	payload, dcs := body[:length], body[length]
	if CalculateDataChecksum(kind, payload) != dcs {
		return Frame{}, fmt.Errorf("%w: kind 0x%02X len %d", ErrChecksumMismatch, kind, length)
	}
	return Frame{Kind: kind, Payload: payload}, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrFrameTooShort, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("%w: %w", ErrFrameTooShort, err)
}
