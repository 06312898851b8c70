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

//go:build linux

package detection

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const (
	// I2C ioctls from linux/i2c-dev.h
	i2cSlave   = 0x0703
	i2cFuncs   = 0x0705
	i2cFuncI2C = 0x00000001

	// pn532I2CAddr is the PN532's 7-bit address
	pn532I2CAddr = 0x24
)

// detectI2C lists I2C adapters and reports a PN532 where address 0x24
// answers a one byte read.
func detectI2C(ctx context.Context, _ *Options) ([]DeviceInfo, error) {
	matches, err := filepath.Glob("/dev/i2c-*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for I2C devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return devices, err
		}
		if found, ok := probeI2C(path); ok {
			devices = append(devices, found)
		}
	}
	return devices, nil
}

func probeI2C(path string) (DeviceInfo, bool) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return DeviceInfo{}, false
	}
	defer func() { _ = unix.Close(fd) }()

	funcs, err := unix.IoctlGetInt(fd, i2cFuncs)
	if err != nil || funcs&i2cFuncI2C == 0 {
		return DeviceInfo{}, false
	}

	if err := unix.IoctlSetInt(fd, i2cSlave, pn532I2CAddr); err != nil {
		return DeviceInfo{}, false
	}
	buf := make([]byte, 1)
	if n, err := unix.Read(fd, buf); err != nil || n != 1 {
		return DeviceInfo{}, false
	}

	return DeviceInfo{
		Driver:     "pn532",
		Transport:  "i2c",
		Path:       path,
		Name:       fmt.Sprintf("I2C device at %s address 0x%02X", path, pn532I2CAddr),
		Confidence: High,
		Metadata: map[string]string{
			"address": fmt.Sprintf("0x%02X", pn532I2CAddr),
		},
	}, true
}

// detectSPI lists spidev nodes. PN512 boards do not answer without a
// register read, so a node the process can open ranks medium.
func detectSPI(_ context.Context, _ *Options) ([]DeviceInfo, error) {
	matches, err := filepath.Glob("/dev/spidev*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for SPI devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(matches))
	for _, path := range matches {
		device := DeviceInfo{
			Driver:     "pn512",
			Transport:  "spi",
			Path:       path,
			Name:       "SPI device " + filepath.Base(path),
			Confidence: Medium,
			Metadata:   map[string]string{},
		}
		if unix.Access(path, unix.R_OK|unix.W_OK) != nil {
			device.Confidence = Low
			device.Metadata["access"] = "denied"
		}
		devices = append(devices, device)
	}
	return devices, nil
}
