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

package explorenfc

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Poller
type Option func(*Poller) error

// WithMode sets read or write mode
func WithMode(mode Mode) Option {
	return func(p *Poller) error {
		if _, err := ParseMode(string(mode)); err != nil {
			return err
		}
		p.mode = mode
		return nil
	}
}

// WithPayload sets the bytes written in write mode. The payload is copied;
// it is padded or truncated to WindowSize per card.
func WithPayload(payload []byte) Option {
	return func(p *Poller) error {
		p.payload = append([]byte(nil), payload...)
		return nil
	}
}

// WithSink sets where outcomes are emitted
func WithSink(sink Sink) Option {
	return func(p *Poller) error {
		p.sink = sink
		return nil
	}
}

// WithInterval sets the pause between poll cycles
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) error {
		if interval <= 0 {
			return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidParameter, interval)
		}
		p.interval = interval
		return nil
	}
}

// WithLogger sets the logger for cycle warnings
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) error {
		p.logger = &logger
		return nil
	}
}
