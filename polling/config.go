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

package polling

import (
	"errors"
	"fmt"
	"time"

	csncp "github.com/ZaparooProject/go-csncp"
)

// Config controls how often the driver steps the serializer
type Config struct {
	// OnFragment is called after every fragment the stepper sent
	OnFragment func(ev *csncp.ExtendedResultEvent)
	// OnError is called when a step fails; the fragment is retried next tick
	OnError func(err error)
	// Interval between steps while a transfer is draining
	Interval time.Duration
	// IdleInterval between steps while nothing is staged
	IdleInterval time.Duration
}

// DefaultConfig drains one fragment every 5ms and checks for new transfers
// every 50ms when idle
func DefaultConfig() *Config {
	return &Config{
		Interval:     5 * time.Millisecond,
		IdleInterval: 50 * time.Millisecond,
	}
}

// Validate checks the intervals
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Interval)
	}
	if c.IdleInterval < c.Interval {
		return fmt.Errorf("idle interval %v must not be shorter than interval %v", c.IdleInterval, c.Interval)
	}
	return nil
}

var (
	ErrAlreadyRunning = errors.New("driver already running")
	ErrNotRunning     = errors.New("driver not running")
)
