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

// Package gpio provides a wake lock that holds a GPIO line asserted while a
// transfer is in flight. The line typically feeds a power controller's wake
// input or an external keep-alive circuit.
package gpio

import (
	"fmt"
	"sync"

	csncp "github.com/ZaparooProject/go-csncp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// WakeLock drives a GPIO output to its active level while held
type WakeLock struct {
	pin    gpio.PinOut
	active gpio.Level
	mu     sync.Mutex
	held   bool
}

// New initializes the host drivers and opens the named pin
func New(pinName string, activeLow bool) (*WakeLock, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", pinName)
	}
	return NewWithPin(pin, activeLow)
}

// NewWithPin uses an already resolved pin. The pin is driven inactive.
func NewWithPin(pin gpio.PinOut, activeLow bool) (*WakeLock, error) {
	w := &WakeLock{pin: pin, active: gpio.High}
	if activeLow {
		w.active = gpio.Low
	}
	if err := pin.Out(!w.active); err != nil {
		return nil, fmt.Errorf("drive %s inactive: %w", pin, err)
	}
	return w, nil
}

// Acquire asserts the pin
func (w *WakeLock) Acquire() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.held {
		return csncp.ErrWakeLockMisuse
	}
	if err := w.pin.Out(w.active); err != nil {
		return fmt.Errorf("assert %s: %w", w.pin, err)
	}
	w.held = true
	return nil
}

// Release deasserts the pin
func (w *WakeLock) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.held {
		return csncp.ErrWakeLockMisuse
	}
	w.held = false
	if err := w.pin.Out(!w.active); err != nil {
		return fmt.Errorf("deassert %s: %w", w.pin, err)
	}
	return nil
}

// Held reports whether the lock is currently asserted
func (w *WakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.held
}

// Close deasserts the pin if held and halts it
func (w *WakeLock) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.held {
		w.held = false
		if err := w.pin.Out(!w.active); err != nil {
			return fmt.Errorf("deassert %s: %w", w.pin, err)
		}
	}
	return w.pin.Halt()
}

var _ csncp.WakeLock = (*WakeLock)(nil)
