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

// Package transport provides retry helpers shared by the link transports and
// the host tools
package transport

import (
	"context"
	"fmt"
	"time"

	csncp "github.com/ZaparooProject/go-csncp"
)

// Operation is one attempt of a retried action. It returns the value, whether
// the attempt should be repeated, and any permanent error.
type Operation[T any] func() (T, bool, error)

// RetryConfig configures Retry
type RetryConfig struct {
	OnRetry     func(attempt int) error
	Description string
	MaxRetries  int
	RetryDelay  time.Duration
}

// Retry runs op until it reports success, a permanent error, or MaxRetries
// repeats have been spent. Exhaustion is reported as csncp.ErrTimeout.
func Retry[T any](ctx context.Context, config RetryConfig, op Operation[T]) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, again, err := op()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}
		if attempt >= config.MaxRetries {
			return zero, fmt.Errorf("%s: %d retries exhausted: %w", config.Description, config.MaxRetries, csncp.ErrTimeout)
		}

		if config.OnRetry != nil {
			if err := config.OnRetry(attempt + 1); err != nil {
				return zero, err
			}
		}
		if err := sleep(ctx, config.RetryDelay); err != nil {
			return zero, err
		}
	}
}

// Poll repeats op every interval until it reports success, a permanent error,
// or timeout elapses
func Poll[T any](ctx context.Context, timeout, interval time.Duration, op Operation[T]) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		result, again, err := op()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}
		if err := sleep(ctx, interval); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return zero, fmt.Errorf("no result after %v: %w", timeout, csncp.ErrTimeout)
			}
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
