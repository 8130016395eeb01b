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

const (
	// Length prefix sizes of the encoded result layout
	resultSizeLen   = 1
	stepCountLen    = 1
	rangingSizeLen  = 4
	fixedEncodedLen = resultSizeLen + stepCountLen + 2*rangingSizeLen

	// MaxResultSize is the largest result summary a one-byte prefix can describe.
	MaxResultSize = math.MaxUint8
	// MaxStepCount is the largest step channel list a one-byte prefix can describe.
	MaxStepCount = math.MaxUint8
	// MaxRangingDataSize is the largest raw ranging block a single device
	// produces for one procedure.
	MaxRangingDataSize = 1866

	// DefaultCapacity fits the largest result the ranging subsystem can
	// produce: a full summary, a full step channel list and two full raw
	// ranging blocks with their length prefixes.
	DefaultCapacity = fixedEncodedLen + MaxResultSize + MaxStepCount + 2*MaxRangingDataSize
)

// RangingData is the raw procedure data attached to an extended result.
type RangingData struct {
	// StepChannels holds one channel index per procedure step.
	StepChannels []byte
	// Initiator is the raw ranging data measured on the initiator side.
	Initiator []byte
	// Reflector is the raw ranging data retrieved from the reflector.
	Reflector []byte
}

// Result is one completed ranging result as delivered by the ranging
// subsystem.
type Result struct {
	// Summary is the result buffer in type-value pairs (distance,
	// likeliness and so on).
	Summary        []byte
	Ranging        RangingData
	RangingCounter uint16
	Connection     uint8
}

// EncodedLen returns the exact number of bytes Encode produces for r.
func EncodedLen(r *Result) int {
	return fixedEncodedLen +
		len(r.Summary) +
		len(r.Ranging.StepChannels) +
		len(r.Ranging.Initiator) +
		len(r.Ranging.Reflector)
}

func validateResult(r *Result) error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrMalformedResult)
	}
	if len(r.Summary) > MaxResultSize {
		return fmt.Errorf("%w: result summary is %d bytes", ErrFieldTooLong, len(r.Summary))
	}
	if len(r.Ranging.StepChannels) > MaxStepCount {
		return fmt.Errorf("%w: %d steps", ErrFieldTooLong, len(r.Ranging.StepChannels))
	}
	if uint64(len(r.Ranging.Initiator)) > math.MaxUint32 || uint64(len(r.Ranging.Reflector)) > math.MaxUint32 {
		return fmt.Errorf("%w: ranging data block", ErrFieldTooLong)
	}
	return nil
}

// Encode serializes r into a newly allocated blob. It fails with
// ErrEncodeOverflow when the encoded length exceeds capacity.
func Encode(r *Result, capacity int) ([]byte, error) {
	if err := validateResult(r); err != nil {
		return nil, err
	}
	n := EncodedLen(r)
	if n > capacity {
		return nil, fmt.Errorf("%w: need %d bytes, capacity %d", ErrEncodeOverflow, n, capacity)
	}
	blob := make([]byte, n)
	putResult(blob, r)
	return blob, nil
}

// EncodeTo serializes r into dst and returns the number of bytes written.
// len(dst) is the capacity. When r does not fit, dst is left untouched.
func EncodeTo(dst []byte, r *Result) (int, error) {
	if err := validateResult(r); err != nil {
		return 0, err
	}
	n := EncodedLen(r)
	if n > len(dst) {
		return 0, fmt.Errorf("%w: need %d bytes, capacity %d", ErrEncodeOverflow, n, len(dst))
	}
	putResult(dst[:n], r)
	return n, nil
}

// putResult writes the layout
//
//	result_size(1) | result | step_count(1) | step_channels |
//	initiator_len(4) | initiator | reflector_len(4) | reflector
//
// into dst, which must be exactly EncodedLen(r) bytes.
func putResult(dst []byte, r *Result) {
	off := 0

	dst[off] = byte(len(r.Summary))
	off += resultSizeLen
	off += copy(dst[off:], r.Summary)

	dst[off] = byte(len(r.Ranging.StepChannels))
	off += stepCountLen
	off += copy(dst[off:], r.Ranging.StepChannels)

	binary.LittleEndian.PutUint32(dst[off:], uint32(len(r.Ranging.Initiator)))
	off += rangingSizeLen
	off += copy(dst[off:], r.Ranging.Initiator)

	binary.LittleEndian.PutUint32(dst[off:], uint32(len(r.Ranging.Reflector)))
	off += rangingSizeLen
	copy(dst[off:], r.Ranging.Reflector)
}

// DecodeResult parses a blob produced by Encode. Connection and
// RangingCounter are not part of the blob and are left zero.
func DecodeResult(blob []byte) (*Result, error) {
	d := blobReader{data: blob}

	summary := d.bytes(int(d.u8()))
	steps := d.bytes(int(d.u8()))
	initiator := d.bytes(int(d.u32()))
	reflector := d.bytes(int(d.u32()))

	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResult, d.err)
	}
	if d.off != len(blob) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedResult, len(blob)-d.off)
	}

	return &Result{
		Summary: summary,
		Ranging: RangingData{
			StepChannels: steps,
			Initiator:    initiator,
			Reflector:    reflector,
		},
	}, nil
}

// blobReader walks a blob and records the first short read.
type blobReader struct {
	err  error
	data []byte
	off  int
}

func (d *blobReader) need(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = fmt.Errorf("truncated at offset %d, need %d bytes", d.off, n)
		return false
	}
	return true
}

func (d *blobReader) u8() uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.data[d.off]
	d.off++
	return v
}

func (d *blobReader) u32() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v
}

func (d *blobReader) bytes(n int) []byte {
	if !d.need(n) || n == 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, d.data[d.off:d.off+n])
	d.off += n
	return out
}
