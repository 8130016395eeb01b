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
	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Bridge
type Option func(*Bridge) error

// WithTargetConfig sets the limits reported by GetTargetConfig
func WithTargetConfig(config TargetConfig) Option {
	return func(b *Bridge) error {
		b.target = config
		return nil
	}
}

// WithLogger sets the logger for the bridge and its serializer
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) error {
		b.log = l
		return nil
	}
}

// WithSerializerOptions passes options to the bridge's serializer
func WithSerializerOptions(opts ...SerializerOption) Option {
	return func(b *Bridge) error {
		b.serializerOpts = append(b.serializerOpts, opts...)
		return nil
	}
}
