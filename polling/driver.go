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

// Package polling runs the periodic drain step of a bridge in the
// background.
package polling

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	csncp "github.com/ZaparooProject/go-csncp"
	"github.com/rs/zerolog"
)

// Stepper performs one drain step. It returns the fragment it sent, or nil
// when nothing is staged. *csncp.Bridge implements it.
type Stepper interface {
	Tick() (*csncp.ExtendedResultEvent, error)
}

// Metrics tracks operational counters of a Driver
type Metrics struct {
	Ticks              int64         // Total number of steps taken
	Fragments          int64         // Fragments sent
	TransfersStarted   int64         // First fragments seen
	TransfersCompleted int64         // Last fragments seen
	StepErrors         int64         // Steps that failed
	LastTickLatency    time.Duration // Duration of the last step
}

// Driver calls Tick on a Stepper at an adaptive interval: fast while a
// transfer drains, slow while idle
type Driver struct {
	stepper Stepper
	config  *Config
	log     zerolog.Logger
	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex

	state              atomic.Int32
	ticks              atomic.Int64
	fragments          atomic.Int64
	transfersStarted   atomic.Int64
	transfersCompleted atomic.Int64
	stepErrors         atomic.Int64
	lastTickLatency    atomic.Int64 // in nanoseconds
	currentInterval    atomic.Int64 // in nanoseconds
}

// NewDriver creates a stopped driver. A nil config selects DefaultConfig.
func NewDriver(stepper Stepper, config *Config) *Driver {
	if config == nil {
		config = DefaultConfig()
	}
	d := &Driver{
		stepper: stepper,
		config:  config,
		log:     csncp.Logger().With().Str("component", "drain").Logger(),
		wake:    make(chan struct{}, 1),
	}
	d.currentInterval.Store(config.IdleInterval.Nanoseconds())
	return d
}

// Start launches the drain loop. It runs until Stop or until ctx is done.
func (d *Driver) Start(ctx context.Context) error {
	if err := d.config.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.state.Store(int32(StateIdle))

	go d.loop(ctx, d.done)
	return nil
}

// Stop ends the drain loop and waits for it to exit or for ctx to expire
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wake makes the driver step immediately, e.g. after a result was staged
// while the driver was idling
func (d *Driver) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Driver) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer d.state.Store(int32(StateStopped))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		next := d.step()
		d.currentInterval.Store(next.Nanoseconds())
		timer.Reset(next)
	}
}

// step runs one Tick and returns the delay before the next one
func (d *Driver) step() time.Duration {
	start := time.Now()
	ev, err := d.stepper.Tick()
	d.ticks.Add(1)
	d.lastTickLatency.Store(time.Since(start).Nanoseconds())

	switch {
	case err != nil:
		d.stepErrors.Add(1)
		d.log.Warn().Err(err).Msg("drain step failed")
		if d.config.OnError != nil {
			d.config.OnError(err)
		}
		return d.config.Interval
	case ev == nil:
		d.state.Store(int32(StateIdle))
		return d.config.IdleInterval
	}

	d.fragments.Add(1)
	if ev.First {
		d.transfersStarted.Add(1)
	}
	if ev.FragmentsLeft == 0 {
		d.transfersCompleted.Add(1)
		d.state.Store(int32(StateIdle))
	} else {
		d.state.Store(int32(StateDraining))
	}
	if d.config.OnFragment != nil {
		d.config.OnFragment(ev)
	}
	return d.config.Interval
}

// State returns the current driver state
func (d *Driver) State() DriverState {
	return DriverState(d.state.Load())
}

// GetMetrics returns current operational metrics
func (d *Driver) GetMetrics() Metrics {
	return Metrics{
		Ticks:              d.ticks.Load(),
		Fragments:          d.fragments.Load(),
		TransfersStarted:   d.transfersStarted.Load(),
		TransfersCompleted: d.transfersCompleted.Load(),
		StepErrors:         d.stepErrors.Load(),
		LastTickLatency:    time.Duration(d.lastTickLatency.Load()),
	}
}

// GetCurrentInterval returns the delay chosen after the last step
func (d *Driver) GetCurrentInterval() time.Duration {
	return time.Duration(d.currentInterval.Load())
}
