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
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	debugEnabled atomic.Bool
	pkgLogger    atomic.Pointer[zerolog.Logger]
)

func init() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	pkgLogger.Store(&logger)
}

// SetDebugEnabled turns the package debug output on or off.
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether debug output is on. Driver packages use it
// to gate their own debug messages.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// SetLogger replaces the package logger. Debug messages are still gated by
// SetDebugEnabled.
func SetLogger(logger zerolog.Logger) {
	pkgLogger.Store(&logger)
}

// Logger returns the package logger
func Logger() *zerolog.Logger {
	return pkgLogger.Load()
}

// DiscardLogger returns a logger that drops everything, for tests and
// library users that do their own reporting.
func DiscardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	Logger().Debug().Msgf(format, args...)
}

func debugln(msg string) {
	if !debugEnabled.Load() {
		return
	}
	Logger().Debug().Msg(msg)
}
