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
	"fmt"

	csncp "github.com/ZaparooProject/go-csncp"
	"github.com/ZaparooProject/go-csncp/internal/config"
	"github.com/ZaparooProject/go-csncp/wakelock/gpio"
	"github.com/ZaparooProject/go-csncp/wakelock/system"
)

// openWakeLock builds the configured wake lock and a function that frees it
func openWakeLock(cfg config.WakeLockConfig) (csncp.WakeLock, func() error, error) {
	switch cfg.Backend {
	case config.WakeLockGPIO:
		w, err := gpio.New(cfg.Pin, cfg.ActiveLow)
		if err != nil {
			return nil, nil, fmt.Errorf("gpio wake lock: %w", err)
		}
		return w, w.Close, nil
	case config.WakeLockSystem:
		var opts []system.Option
		if cfg.SysfsDir != "" {
			opts = append(opts, system.WithSysfsDir(cfg.SysfsDir))
		}
		w, err := system.New(cfg.Name, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("system wake lock: %w", err)
		}
		return w, w.Close, nil
	default:
		return csncp.NopWakeLock{}, func() error { return nil }, nil
	}
}
