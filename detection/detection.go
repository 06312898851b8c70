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

// Package detection finds reader candidates: USB serial adapters for PN532
// boards, I2C buses and spidev nodes.
package detection

import (
	"context"
	"errors"
	"sort"
)

// ErrNoDevicesFound is returned when no candidate survived filtering
var ErrNoDevicesFound = errors.New("no reader candidates found")

// Confidence ranks how likely a candidate is a reader
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

// String returns the confidence name
func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// DeviceInfo is one reader candidate
type DeviceInfo struct {
	Metadata map[string]string
	// Driver is the explore-nfc driver name: "pn512" or "pn532".
	Driver string
	// Transport is "spi", "uart" or "i2c".
	Transport  string
	Path       string
	Name       string
	Confidence Confidence
}

// Options filters detection
type Options struct {
	// Blocklist holds VID:PID pairs that are never reported.
	Blocklist []string
	// IgnorePaths holds device paths that are never reported.
	IgnorePaths []string
	// Transports limits detection to the named transports; empty means all.
	Transports []string
}

// DefaultOptions returns options with the default blocklist
func DefaultOptions() *Options {
	return &Options{Blocklist: DefaultBlocklist()}
}

type detectFunc func(ctx context.Context, opts *Options) ([]DeviceInfo, error)

var detectors = map[string]detectFunc{
	"uart": detectSerial,
	"i2c":  detectI2C,
	"spi":  detectSPI,
}

// Detect runs every enabled detector and returns the candidates, highest
// confidence first. A failing detector is skipped.
func Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	names := opts.Transports
	if len(names) == 0 {
		names = []string{"spi", "uart", "i2c"}
	}

	var devices []DeviceInfo
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		detect, ok := detectors[name]
		if !ok {
			continue
		}
		found, err := detect(ctx, opts)
		if err != nil {
			continue
		}
		for _, d := range found {
			if !IsPathIgnored(d.Path, opts.IgnorePaths) {
				devices = append(devices, d)
			}
		}
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}

	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Confidence > devices[j].Confidence
	})
	return devices, nil
}
