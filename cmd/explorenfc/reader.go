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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"periph.io/x/conn/v3/physic"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/config"
	"github.com/ZaparooProject/go-explorenfc/detection"
	"github.com/ZaparooProject/go-explorenfc/pn512"
	"github.com/ZaparooProject/go-explorenfc/pn532"
	"github.com/ZaparooProject/go-explorenfc/transport/i2c"
	"github.com/ZaparooProject/go-explorenfc/transport/spi"
	"github.com/ZaparooProject/go-explorenfc/transport/uart"
)

type reader interface {
	explorenfc.Transceiver
	io.Closer
}

// openReader opens the configured driver and brings the chip up to the
// point where a poll cycle can run. Every error is a StartupError.
func openReader(ctx context.Context, cfg config.Config) (reader, error) {
	switch cfg.Driver {
	case config.DriverPN512:
		return openPN512(ctx, cfg)
	case config.DriverPN532:
		return openPN532(ctx, cfg)
	case config.DriverLibNFC:
		return openLibNFC(cfg.Device)
	default:
		return nil, explorenfc.NewStartupError(explorenfc.StageTransportInit,
			fmt.Errorf("%w: unknown driver %q", explorenfc.ErrInvalidParameter, cfg.Driver))
	}
}

func openPN512(ctx context.Context, cfg config.Config) (reader, error) {
	bus, err := spi.Open(cfg.Device, physic.Frequency(cfg.SPISpeedHz)*physic.Hertz)
	if err != nil {
		return nil, err
	}

	dev, err := pn512.New(bus)
	if err != nil {
		_ = bus.Close()
		return nil, explorenfc.NewStartupError(explorenfc.StageChipInit, err)
	}
	return bringUp(ctx, dev, dev.Init)
}

func openPN532(ctx context.Context, cfg config.Config) (reader, error) {
	path := cfg.Device
	if path == "" {
		found, err := detectPN532(ctx, cfg)
		if err != nil {
			return nil, explorenfc.NewStartupError(explorenfc.StageTransportInit, err)
		}
		path = found
	}

	var (
		transport pn532.Transport
		err       error
	)
	switch cfg.Bus {
	case config.BusI2C:
		transport, err = i2c.New(path)
	default:
		transport, err = uart.New(path)
	}
	if err != nil {
		return nil, explorenfc.NewStartupError(explorenfc.StagePortOpen, err)
	}

	dev, err := pn532.New(transport)
	if err != nil {
		_ = transport.Close()
		return nil, explorenfc.NewStartupError(explorenfc.StageChipInit, err)
	}
	return bringUp(ctx, dev, dev.Init)
}

func detectPN532(ctx context.Context, cfg config.Config) (string, error) {
	devices, err := detection.Detect(ctx, &detection.Options{
		Blocklist:   cfg.Blocklist,
		IgnorePaths: cfg.IgnorePaths,
		Transports:  []string{cfg.Bus},
	})
	if err != nil {
		return "", fmt.Errorf("auto-detecting PN532 on %s: %w", cfg.Bus, err)
	}

	for _, d := range devices {
		if d.Driver == config.DriverPN532 {
			explorenfc.Logger().Info().
				Str("path", d.Path).
				Stringer("confidence", d.Confidence).
				Msg("using detected reader")
			return d.Path, nil
		}
	}
	return "", fmt.Errorf("auto-detecting PN532 on %s: %w", cfg.Bus, detection.ErrNoDevicesFound)
}

// bringUp runs the chip init and a first protocol configuration, closing
// the reader when either fails.
func bringUp(ctx context.Context, r reader, initChip func(context.Context) error) (reader, error) {
	if err := initChip(ctx); err != nil {
		_ = r.Close()
		var startupErr *explorenfc.StartupError
		if errors.As(err, &startupErr) {
			return nil, err
		}
		return nil, explorenfc.NewStartupError(explorenfc.StageChipInit, err)
	}

	if err := r.ApplyProtocol(ctx, explorenfc.ProfileISO14443A); err != nil {
		_ = r.Close()
		return nil, explorenfc.NewStartupError(explorenfc.StageProtocolConfig, err)
	}
	return r, nil
}
