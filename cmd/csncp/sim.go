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

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	csncp "github.com/ZaparooProject/go-csncp"
	"github.com/rs/zerolog"
)

// Summary type identifiers
const (
	summaryDistance   = 0x00
	summaryLikeliness = 0x01
)

const simStepCount = 40

// simulator is a synthetic ranging subsystem. Every initiator produces a
// result each period with random procedure data of dataSize bytes per side.
type simulator struct {
	log         zerolog.Logger
	afterResult func()
	initiators  map[uint8]context.CancelFunc
	reflectors  map[uint8][]byte
	period      time.Duration
	dataSize    int
	wg          sync.WaitGroup
	mu          sync.Mutex
	wired       bool
	trace       bool
}

func newSimulator(log zerolog.Logger, period time.Duration, dataSize int) *simulator {
	return &simulator{
		log:        log.With().Str("component", "simulator").Logger(),
		period:     period,
		dataSize:   min(dataSize, csncp.MaxRangingDataSize),
		initiators: make(map[uint8]context.CancelFunc),
		reflectors: make(map[uint8][]byte),
	}
}

func (s *simulator) ConfigureAntenna(wired bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wired = wired
	s.log.Info().Bool("wired", wired).Msg("antenna configured")
	return nil
}

func (s *simulator) SetTrace(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = enabled
	return nil
}

func (s *simulator) CreateInitiator(connection uint8, _ []byte, handlers csncp.ResultHandlers) (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.initiators[connection]; ok {
		return connection, csncp.StatusInvalidState
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.initiators[connection] = cancel
	s.wg.Add(1)
	go s.run(ctx, connection, handlers)

	s.log.Info().Uint8("connection", connection).Msg("initiator created")
	return connection, nil
}

func (s *simulator) DeleteInitiator(connection uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.initiators[connection]
	if !ok {
		return csncp.StatusInvalidState
	}
	cancel()
	delete(s.initiators, connection)
	s.log.Info().Uint8("connection", connection).Msg("initiator deleted")
	return nil
}

func (s *simulator) CreateReflector(connection uint8, config []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reflectors[connection]; ok {
		return csncp.StatusInvalidState
	}
	s.reflectors[connection] = config
	return nil
}

func (s *simulator) DeleteReflector(connection uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reflectors[connection]; !ok {
		return csncp.StatusInvalidState
	}
	delete(s.reflectors, connection)
	return nil
}

// Close stops every initiator and waits for them
func (s *simulator) Close() {
	s.mu.Lock()
	for conn, cancel := range s.initiators {
		cancel()
		delete(s.initiators, conn)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *simulator) run(ctx context.Context, connection uint8, handlers csncp.ResultHandlers) {
	defer s.wg.Done()

	rng := rand.New(rand.NewPCG(uint64(connection), uint64(time.Now().UnixNano())))
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	var counter uint16
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		counter++
		if handlers.OnIntermediateResult != nil {
			if err := handlers.OnIntermediateResult(connection, 50); err != nil {
				s.log.Warn().Err(err).Msg("intermediate result not delivered")
			}
		}

		r := s.result(rng, connection, counter)
		err := handlers.OnResult(r)
		switch {
		case errors.Is(err, csncp.ErrTransferBusy):
			s.log.Debug().Uint16("ranging_counter", counter).Msg("result dropped, transfer busy")
		case err != nil:
			s.log.Warn().Err(err).Uint16("ranging_counter", counter).Msg("result not delivered")
		case s.afterResult != nil:
			s.afterResult()
		}
	}
}

func (s *simulator) result(rng *rand.Rand, connection uint8, counter uint16) *csncp.Result {
	summary := make([]byte, 0, 10)
	summary = append(summary, summaryDistance)
	summary = binary.LittleEndian.AppendUint32(summary, math.Float32bits(0.5+rng.Float32()*10))
	summary = append(summary, summaryLikeliness)
	summary = binary.LittleEndian.AppendUint32(summary, math.Float32bits(rng.Float32()))

	steps := make([]byte, simStepCount)
	for i := range steps {
		steps[i] = byte(2 + rng.IntN(77))
	}

	return &csncp.Result{
		Connection:     connection,
		RangingCounter: counter,
		Summary:        summary,
		Ranging: csncp.RangingData{
			StepChannels: steps,
			Initiator:    randomBytes(rng, s.dataSize),
			Reflector:    randomBytes(rng, s.dataSize),
		},
	}
}

func randomBytes(rng *rand.Rand, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(rng.Uint32())
	}
	return out
}
