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

// Package system provides a wake lock backed by the operating system's power
// management: kernel wake lock sources on Linux and the thread execution
// state on Windows.
package system

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	csncp "github.com/ZaparooProject/go-csncp"
)

// DefaultName is the wake source name used when none is configured
const DefaultName = "csncp"

// DefaultSysfsDir holds the Linux wake_lock and wake_unlock files
const DefaultSysfsDir = "/sys/power"

// ErrUnsupported means the platform offers no wake lock this package can use
var ErrUnsupported = errors.New("system wake lock not supported")

type platformLock interface {
	acquire() error
	release() error
	close() error
}

// WakeLock holds an operating system wake lock while acquired
type WakeLock struct {
	backend  platformLock
	name     string
	sysfsDir string
	mu       sync.Mutex
	held     bool
}

// Option configures a WakeLock
type Option func(*WakeLock)

// WithSysfsDir overrides the directory holding wake_lock and wake_unlock.
// Only Linux uses it.
func WithSysfsDir(dir string) Option {
	return func(w *WakeLock) {
		w.sysfsDir = dir
	}
}

// New opens a wake lock named name. An empty name selects DefaultName.
func New(name string, opts ...Option) (*WakeLock, error) {
	if name == "" {
		name = DefaultName
	}
	if strings.ContainsAny(name, " \t\n") {
		return nil, fmt.Errorf("wake lock name %q must not contain whitespace", name)
	}

	w := &WakeLock{name: name, sysfsDir: DefaultSysfsDir}
	for _, opt := range opts {
		opt(w)
	}

	backend, err := newPlatformLock(w.name, w.sysfsDir)
	if err != nil {
		return nil, err
	}
	w.backend = backend
	return w, nil
}

// Name returns the wake source name
func (w *WakeLock) Name() string {
	return w.name
}

// Acquire takes the wake lock
func (w *WakeLock) Acquire() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.held {
		return csncp.ErrWakeLockMisuse
	}
	if err := w.backend.acquire(); err != nil {
		return fmt.Errorf("acquire wake lock %s: %w", w.name, err)
	}
	w.held = true
	return nil
}

// Release drops the wake lock
func (w *WakeLock) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.held {
		return csncp.ErrWakeLockMisuse
	}
	w.held = false
	if err := w.backend.release(); err != nil {
		return fmt.Errorf("release wake lock %s: %w", w.name, err)
	}
	return nil
}

// Held reports whether the lock is currently taken
func (w *WakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.held
}

// Close releases the lock if held and frees platform resources
func (w *WakeLock) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	if w.held {
		w.held = false
		errs = append(errs, w.backend.release())
	}
	errs = append(errs, w.backend.close())
	return errors.Join(errs...)
}

var _ csncp.WakeLock = (*WakeLock)(nil)
