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

//go:build windows

package system

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/windows"
)

const (
	esContinuous      = 0x80000000
	esSystemRequired  = 0x00000001
	esAwaymodeEnabled = 0x00000040
)

var (
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	setThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
)

// execStateLock sets the thread execution state. The state belongs to the
// calling OS thread, so every call is made from one locked goroutine.
type execStateLock struct {
	requests chan execRequest
	done     chan struct{}
}

type execRequest struct {
	reply chan error
	flags uint32
}

func newPlatformLock(_, _ string) (platformLock, error) {
	if err := setThreadExecutionState.Find(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	l := &execStateLock{
		requests: make(chan execRequest),
		done:     make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func (l *execStateLock) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for {
		select {
		case req := <-l.requests:
			req.reply <- setExecutionState(req.flags)
		case <-l.done:
			return
		}
	}
}

func (l *execStateLock) call(flags uint32) error {
	reply := make(chan error, 1)
	select {
	case l.requests <- execRequest{flags: flags, reply: reply}:
		return <-reply
	case <-l.done:
		return ErrUnsupported
	}
}

func (l *execStateLock) acquire() error {
	return l.call(esContinuous | esSystemRequired | esAwaymodeEnabled)
}

func (l *execStateLock) release() error {
	return l.call(esContinuous)
}

func (l *execStateLock) close() error {
	close(l.done)
	return nil
}

func setExecutionState(flags uint32) error {
	prev, _, err := setThreadExecutionState.Call(uintptr(flags))
	if prev == 0 {
		return fmt.Errorf("SetThreadExecutionState: %w", err)
	}
	return nil
}
