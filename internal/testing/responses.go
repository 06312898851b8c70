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

// Package testing holds PN532 response builders and virtual cards for the
// driver tests.
package testing

// Command bytes for reference
const (
	CmdGetFirmwareVersion  = 0x02
	CmdSAMConfiguration    = 0x14
	CmdRFConfiguration     = 0x32
	CmdInDataExchange      = 0x40
	CmdInListPassiveTarget = 0x4A
	CmdInRelease           = 0x52
)

// Common UIDs for testing
var (
	// TestUltralightUID is a sample 7-byte NXP UID
	TestUltralightUID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

	// TestMIFARE1KUID is a sample MIFARE Classic 1K UID
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}
)

// BuildFirmwareVersionResponse creates a GetFirmwareVersion response
func BuildFirmwareVersionResponse() []byte {
	// PN532 version 1.6, supports ISO14443A/B and ISO18092
	return []byte{0x03, 0x32, 0x01, 0x06, 0x07}
}

// BuildSAMConfigurationResponse creates a SAMConfiguration response
func BuildSAMConfigurationResponse() []byte {
	return []byte{0x15}
}

// BuildRFConfigurationResponse creates an RFConfiguration response
func BuildRFConfigurationResponse() []byte {
	return []byte{0x33}
}

// BuildTargetListResponse creates an InListPassiveTarget response for the
// given tags. SENS_RES is written high byte first, the way the chip sends it.
func BuildTargetListResponse(tags ...*VirtualTag) []byte {
	response := []byte{0x4B, byte(len(tags))}
	for i, tag := range tags {
		response = append(response, byte(i+1), tag.ATQA[1], tag.ATQA[0], tag.SAK, byte(len(tag.UID)))
		response = append(response, tag.UID...)
	}
	return response
}

// BuildNoTagResponse creates an empty InListPassiveTarget response
func BuildNoTagResponse() []byte {
	return []byte{0x4B, 0x00}
}

// BuildDataExchangeResponse creates a successful InDataExchange response
func BuildDataExchangeResponse(data []byte) []byte {
	return append([]byte{0x41, 0x00}, data...)
}

// BuildReleaseResponse creates a successful InRelease response
func BuildReleaseResponse() []byte {
	return []byte{0x53, 0x00}
}

// BuildErrorResponse creates a status error response for cmd
func BuildErrorResponse(cmd, status byte) []byte {
	return []byte{cmd + 1, status}
}
