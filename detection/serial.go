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

package detection

import (
	"context"
	"fmt"

	"go.bug.st/serial/enumerator"
)

// knownBridges are USB serial chips PN532 breakout boards ship with.
var knownBridges = map[string]string{
	"1A86:7523": "CH340",
	"10C4:EA60": "CP210x",
	"0403:6001": "FT232R",
	"067B:2303": "PL2303",
}

// listPorts is swapped in tests
var listPorts = enumerator.GetDetailedPortsList

func detectSerial(_ context.Context, opts *Options) ([]DeviceInfo, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return serialCandidates(ports, opts), nil
}

// serialCandidates keeps USB ports that are not blocked. Known PN532 bridge
// chips rank medium, other USB serial ports low.
func serialCandidates(ports []*enumerator.PortDetails, opts *Options) []DeviceInfo {
	devices := make([]DeviceInfo, 0, len(ports))
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		vidpid := FormatVIDPID(p.VID, p.PID)
		if IsBlocked(vidpid, opts.Blocklist) {
			continue
		}

		device := DeviceInfo{
			Driver:     "pn532",
			Transport:  "uart",
			Path:       p.Name,
			Name:       p.Product,
			Confidence: Low,
			Metadata: map[string]string{
				"vidpid": vidpid,
				"serial": p.SerialNumber,
			},
		}
		if bridge, ok := knownBridges[vidpid]; ok {
			device.Confidence = Medium
			device.Metadata["bridge"] = bridge
		}
		devices = append(devices, device)
	}
	return devices
}
