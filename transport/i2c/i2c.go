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

// Package i2c provides the I2C transport for PN532 readers
package i2c

import (
	"context"
	"errors"
	"fmt"
	"time"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/internal/frame"
	"github.com/ZaparooProject/go-explorenfc/internal/retry"
	"github.com/ZaparooProject/go-explorenfc/pn532"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// PN532 7-bit I2C address
	pn532Addr = 0x24

	// pn532Ready is the status byte the chip prefixes every read with once
	// it has data.
	pn532Ready = 0x01

	maxClockFreq   = 400 * physic.KiloHertz
	defaultTimeout = 100 * time.Millisecond
	readyPoll      = time.Millisecond
	frameRetries   = 2

	// maxRead covers a full normal frame plus the status byte.
	maxRead = 1 + 7 + 255
)

// txer is the part of i2c.Dev the transport uses
type txer interface {
	Tx(w, r []byte) error
}

// Transport implements pn532.Transport over I2C
type Transport struct {
	dev     txer
	busName string
	timeout time.Duration
}

// New opens busName ("" picks the first bus) and addresses the PN532 on it.
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	// Ignore error, continue with the bus default speed
	_ = bus.SetSpeed(maxClockFreq)

	return newTransport(&i2c.Dev{Addr: pn532Addr, Bus: bus}, busName), nil
}

func newTransport(dev txer, busName string) *Transport {
	return &Transport{dev: dev, busName: busName, timeout: defaultTimeout}
}

// SendCommand sends cmd and returns the response data
func (t *Transport) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.dev == nil {
		return nil, fmt.Errorf("%w: bus %s not open", explorenfc.ErrCommunicationFailed, t.busName)
	}

	out, err := frame.Encode(cmd, args)
	if err != nil {
		return nil, err
	}
	if err := t.dev.Tx(out, nil); err != nil {
		return nil, fmt.Errorf("%w: I2C write: %w", explorenfc.ErrCommunicationFailed, err)
	}

	if err := t.waitAck(ctx); err != nil {
		return nil, err
	}

	resp, err := retry.Do(ctx, retry.Config{MaxRetries: frameRetries, OnRetry: t.sendNack},
		func() ([]byte, bool, error) {
			data, err := t.readFrame(ctx)
			if errors.Is(err, explorenfc.ErrFrameCorrupted) {
				return nil, true, nil
			}
			return data, false, err
		})
	if errors.Is(err, retry.ErrExhausted) {
		return nil, fmt.Errorf("%w: response to %02X", explorenfc.ErrFrameCorrupted, cmd)
	}
	if err != nil {
		return nil, err
	}

	if err := t.dev.Tx(frame.AckFrame, nil); err != nil {
		return nil, fmt.Errorf("%w: I2C ACK: %w", explorenfc.ErrCommunicationFailed, err)
	}
	return resp, nil
}

// SetTimeout sets how long to wait for the chip to become ready
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", explorenfc.ErrInvalidParameter)
	}
	t.timeout = timeout
	return nil
}

// Close releases the device. periph closes the bus with the process.
func (t *Transport) Close() error {
	t.dev = nil
	return nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

// readReady polls the status byte until the chip is ready and returns the
// n bytes that follow it.
func (t *Transport) readReady(ctx context.Context, n int) ([]byte, error) {
	buf, err := retry.Poll(ctx, t.timeout, readyPoll, func() ([]byte, bool, error) {
		buf := make([]byte, n+1)
		if err := t.dev.Tx(nil, buf); err != nil {
			return nil, false, fmt.Errorf("%w: I2C read: %w", explorenfc.ErrCommunicationFailed, err)
		}
		return buf, buf[0] != pn532Ready, nil
	})
	if err != nil {
		return nil, err
	}
	return buf[1:], nil
}

func (t *Transport) waitAck(ctx context.Context) error {
	buf, err := t.readReady(ctx, len(frame.AckFrame))
	if errors.Is(err, retry.ErrDeadline) {
		return fmt.Errorf("%w: bus %s", explorenfc.ErrNoACK, t.busName)
	}
	if err != nil {
		return err
	}
	if !frame.IsACK(buf) {
		return fmt.Errorf("%w: bus %s answered % X", explorenfc.ErrNoACK, t.busName, buf)
	}
	return nil
}

func (t *Transport) readFrame(ctx context.Context) ([]byte, error) {
	buf, err := t.readReady(ctx, maxRead-1)
	if errors.Is(err, retry.ErrDeadline) {
		return nil, fmt.Errorf("%w: bus %s", explorenfc.ErrTransportTimeout, t.busName)
	}
	if err != nil {
		return nil, err
	}

	data, _, err := frame.Decode(buf)
	return data, err
}

func (t *Transport) sendNack() error {
	if err := t.dev.Tx(frame.NackFrame, nil); err != nil {
		return fmt.Errorf("%w: I2C NACK: %w", explorenfc.ErrCommunicationFailed, err)
	}
	return nil
}

var _ pn532.Transport = (*Transport)(nil)
