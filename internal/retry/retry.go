// go-explorenfc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-explorenfc.
//
// go-explorenfc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-explorenfc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-explorenfc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package retry holds the retry loops shared by the transports and drivers
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when an operation still asked for a retry after
// the last attempt.
var ErrExhausted = errors.New("retries exhausted")

// ErrDeadline is returned by Poll when the timeout passed before the
// operation finished.
var ErrDeadline = errors.New("deadline exceeded")

// Operation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the operation should be retried
// - error: any permanent error that should stop retries
type Operation[T any] func() (T, bool, error)

// Config configures retry behavior
type Config struct {
	// OnRetry runs before every retry, e.g. to send a NACK.
	OnRetry    func() error
	MaxRetries int
	Delay      time.Duration
}

// Do runs operation until it succeeds, fails permanently or MaxRetries
// retries have been used. ctx is checked before every attempt.
func Do[T any](ctx context.Context, config Config, operation Operation[T]) (T, error) {
	var zero T

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}

		if attempt >= config.MaxRetries {
			break
		}

		if config.OnRetry != nil {
			if err := config.OnRetry(); err != nil {
				return zero, err
			}
		}

		if err := sleep(ctx, config.Delay); err != nil {
			return zero, err
		}
	}

	return zero, ErrExhausted
}

// Poll runs operation every interval until it stops asking for a retry or
// timeout passes. Used for waiting on device ready flags.
func Poll[T any](ctx context.Context, timeout, interval time.Duration, operation Operation[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}

		if err := sleep(ctx, interval); err != nil {
			return zero, err
		}
	}

	return zero, ErrDeadline
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
