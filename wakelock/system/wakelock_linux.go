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

//go:build linux

package system

import (
	"fmt"
	"os"
	"path/filepath"
)

// sysfsLock uses the kernel's user space wake sources
// (CONFIG_PM_WAKELOCKS): writing a name to wake_lock activates the source,
// writing it to wake_unlock deactivates it.
type sysfsLock struct {
	lockPath   string
	unlockPath string
	name       []byte
}

func newPlatformLock(name, dir string) (platformLock, error) {
	l := &sysfsLock{
		name:       []byte(name),
		lockPath:   filepath.Join(dir, "wake_lock"),
		unlockPath: filepath.Join(dir, "wake_unlock"),
	}
	for _, p := range []string{l.lockPath, l.unlockPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
	}
	return l, nil
}

func (l *sysfsLock) acquire() error {
	return writeAttr(l.lockPath, l.name)
}

func (l *sysfsLock) release() error {
	return writeAttr(l.unlockPath, l.name)
}

func (*sysfsLock) close() error {
	return nil
}

func writeAttr(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
