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

// Package pn532 implements explorenfc.Transceiver on top of a PN532's
// command set. The chip runs anti-collision itself, so a cycle resolves at
// most two cards (the InListPassiveTarget limit).
package pn532

import (
	"context"
	"time"
)

// TransportType identifies the bus a Transport talks over
type TransportType string

const (
	TransportUART TransportType = "uart"
	TransportI2C  TransportType = "i2c"
	TransportMock TransportType = "mock"
)

// Transport exchanges PN532 command frames. transport/uart and
// transport/i2c implement it.
type Transport interface {
	// SendCommand sends cmd with args and returns the response data,
	// starting with the response code (cmd+1).
	SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error)

	// SetTimeout sets how long to wait for a response
	SetTimeout(timeout time.Duration) error

	// Close closes the transport
	Close() error

	// Type returns the transport type
	Type() TransportType
}
