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

// Package pn512 drives PN512, RC523 and MFRC522 compatible reader chips at
// register level and implements explorenfc.Transceiver for MIFARE
// Ultralight cards.
package pn512

import (
	"context"
	"fmt"
	"time"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
)

// RegisterBus reads and writes single chip registers. transport/spi
// provides the SPI implementation.
type RegisterBus interface {
	ReadRegister(reg byte) (byte, error)
	WriteRegister(reg, value byte) error
	Close() error
}

// Config holds driver timings
type Config struct {
	// CommandTimeout bounds how long a transceive waits for the chip to
	// finish, on top of the chip's own card response timer.
	CommandTimeout time.Duration
	// FieldOffTime is how long the field stays off during ResetField.
	FieldOffTime time.Duration
	// FieldRecoveryTime is the wait after switching the field back on.
	FieldRecoveryTime time.Duration
	// ResetTimeout bounds the wait for a soft reset to complete.
	ResetTimeout time.Duration
}

// DefaultConfig returns the timings used on the Explore-NFC board
func DefaultConfig() *Config {
	return &Config{
		CommandTimeout:    50 * time.Millisecond,
		FieldOffTime:      5 * time.Millisecond,
		FieldRecoveryTime: 5 * time.Millisecond,
		ResetTimeout:      50 * time.Millisecond,
	}
}

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithConfig replaces the driver timings
func WithConfig(config *Config) Option {
	return func(d *Device) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", explorenfc.ErrInvalidParameter)
		}
		d.config = config
		return nil
	}
}

// Device is a register-level reader chip.
//
// Thread Safety: Device is NOT thread-safe.
type Device struct {
	bus     RegisterBus
	config  *Config
	version byte
}

// New creates a device on bus. Call Init before use.
func New(bus RegisterBus, opts ...Option) (*Device, error) {
	if bus == nil {
		return nil, fmt.Errorf("%w: nil register bus", explorenfc.ErrInvalidParameter)
	}

	d := &Device{
		bus:    bus,
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Init checks that a chip answers on the bus and soft resets it.
func (d *Device) Init(ctx context.Context) error {
	version, err := d.bus.ReadRegister(regVersion)
	if err != nil {
		return fmt.Errorf("read version register: %w", err)
	}
	if version == 0x00 || version == 0xFF {
		return fmt.Errorf("%w: version register reads %02X", explorenfc.ErrChipNotFound, version)
	}
	d.version = version

	name, ok := knownVersions[version]
	if !ok {
		name = "unknown"
	}
	explorenfc.Logger().Debug().Str("chip", name).Msgf("reader chip version %02X", version)

	return d.SoftReset(ctx)
}

// Version returns the version register value read by Init
func (d *Device) Version() byte {
	return d.version
}

// Close closes the underlying bus
func (d *Device) Close() error {
	if err := d.bus.Close(); err != nil {
		return fmt.Errorf("close register bus: %w", err)
	}
	return nil
}

// SoftReset resets the chip's registers and state machine and waits for it
// to leave power-down.
func (d *Device) SoftReset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := d.bus.WriteRegister(regCommand, cmdSoftReset); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}

	deadline := time.Now().Add(d.config.ResetTimeout)
	for {
		cmd, err := d.bus.ReadRegister(regCommand)
		if err != nil {
			return fmt.Errorf("soft reset: %w", err)
		}
		if cmd&commandPowerDown == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("soft reset: %w", explorenfc.ErrTransportTimeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// ResetField switches the antenna drivers off and on again, which sends
// every card in range back to IDLE.
func (d *Device) ResetField(ctx context.Context) error {
	if err := d.FieldOff(ctx); err != nil {
		return err
	}
	if err := sleepContext(ctx, d.config.FieldOffTime); err != nil {
		return err
	}
	if err := d.setBits(regTxControl, txControlAntenna); err != nil {
		return fmt.Errorf("field on: %w", err)
	}
	return sleepContext(ctx, d.config.FieldRecoveryTime)
}

// FieldOff switches the antenna drivers off
func (d *Device) FieldOff(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.clearBits(regTxControl, txControlAntenna); err != nil {
		return fmt.Errorf("field off: %w", err)
	}
	return nil
}

// ApplyProtocol loads the register profile for the given protocol and
// switches the field on.
func (d *Device) ApplyProtocol(ctx context.Context, profile explorenfc.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile != explorenfc.ProfileISO14443A {
		return fmt.Errorf("%w: unsupported profile %s", explorenfc.ErrInvalidParameter, profile)
	}

	for _, r := range iso14443aProfile {
		if err := d.bus.WriteRegister(r.reg, r.value); err != nil {
			return fmt.Errorf("write register %02X: %w", r.reg, err)
		}
	}

	if err := d.setBits(regTxControl, txControlAntenna); err != nil {
		return fmt.Errorf("field on: %w", err)
	}
	return nil
}

func (d *Device) setBits(reg, mask byte) error {
	value, err := d.bus.ReadRegister(reg)
	if err != nil {
		return err
	}
	return d.bus.WriteRegister(reg, value|mask)
}

func (d *Device) clearBits(reg, mask byte) error {
	value, err := d.bus.ReadRegister(reg)
	if err != nil {
		return err
	}
	return d.bus.WriteRegister(reg, value&^mask)
}

func sleepContext(ctx context.Context, d time.Duration) error {
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

var (
	_ explorenfc.Transceiver   = (*Device)(nil)
	_ explorenfc.Resetter      = (*Device)(nil)
	_ explorenfc.FieldSwitcher = (*Device)(nil)
)

func debugf(format string, args ...any) {
	if !explorenfc.DebugEnabled() {
		return
	}
	explorenfc.Logger().Debug().Msgf(format, args...)
}
