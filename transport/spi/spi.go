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

// Package spi provides the SPI register bus for PN512 and MFRC522 readers
package spi

import (
	"fmt"
	"sync"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/pn512"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// DefaultSpeed is the SPI clock the Explore-NFC board runs at.
	DefaultSpeed = 5 * physic.MegaHertz

	addrMask = 0x7E
	readBit  = 0x80
)

// txer is the part of spi.Conn the bus uses
type txer interface {
	Tx(w, r []byte) error
}

// Bus implements pn512.RegisterBus over a SPI port.
type Bus struct {
	conn   txer
	closer interface{ Close() error }
	name   string
	mu     sync.Mutex
}

// Open opens the SPI port name ("" picks the first one) in mode 0.
func Open(name string, speed physic.Frequency) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, explorenfc.NewStartupError(explorenfc.StageTransportInit,
			fmt.Errorf("failed to initialize periph host: %w", err))
	}

	port, err := spireg.Open(name)
	if err != nil {
		return nil, explorenfc.NewStartupError(explorenfc.StagePortOpen,
			fmt.Errorf("failed to open SPI port %q: %w%s", name, err, permissionHint(name)))
	}

	conn, err := port.Connect(speed, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, explorenfc.NewStartupError(explorenfc.StagePortOpen,
			fmt.Errorf("failed to configure SPI port %q: %w", name, err))
	}

	return &Bus{conn: conn, closer: port, name: name}, nil
}

func newBus(conn txer) *Bus {
	return &Bus{conn: conn, name: "fake"}
}

// ReadRegister reads one register
func (b *Bus) ReadRegister(reg byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w := []byte{readBit | (reg<<1)&addrMask, 0x00}
	r := make([]byte, 2)
	if err := b.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("SPI read %02X on %s: %w", reg, b.name, err)
	}
	return r[1], nil
}

// WriteRegister writes one register
func (b *Bus) WriteRegister(reg, value byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	w := []byte{(reg << 1) & addrMask, value}
	if err := b.conn.Tx(w, nil); err != nil {
		return fmt.Errorf("SPI write %02X on %s: %w", reg, b.name, err)
	}
	return nil
}

// Close closes the port
func (b *Bus) Close() error {
	if b.closer == nil {
		return nil
	}
	if err := b.closer.Close(); err != nil {
		return fmt.Errorf("close SPI port %s: %w", b.name, err)
	}
	return nil
}

var _ pn512.RegisterBus = (*Bus)(nil)
