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

// Package iso14443a holds the ISO/IEC 14443-3 Type A and MIFARE Ultralight
// command bytes and checksums shared by the register-level drivers.
package iso14443a

// Short frame and anti-collision commands
const (
	CmdREQA = 0x26 // 7-bit short frame
	CmdWUPA = 0x52 // 7-bit short frame
	CmdHLTA = 0x50

	CmdSelectCL1 = 0x93
	CmdSelectCL2 = 0x95
	CmdSelectCL3 = 0x97

	// CascadeTag prefixes a partial UID when another cascade level follows.
	CascadeTag = 0x88

	// NVBSelect is the NVB value of a full SELECT (7 bytes sent).
	NVBSelect = 0x70

	// SAKCascadeBit is set in a SAK when the UID is not complete yet.
	SAKCascadeBit = 0x04
)

// MIFARE Ultralight commands
const (
	CmdRead  = 0x30 // returns 16 bytes (4 pages)
	CmdWrite = 0xA2 // writes one page

	// ACK is the 4-bit acknowledge of a WRITE.
	ACK = 0x0A

	ReadResponseSize = 16
)

// SelectCommands lists the SEL byte for each cascade level.
var SelectCommands = [3]byte{CmdSelectCL1, CmdSelectCL2, CmdSelectCL3}

// CRC returns the CRC_A of data, low byte first.
func CRC(data []byte) [2]byte {
	crc := uint32(0x6363)
	for _, bt := range data {
		bt ^= uint8(crc & 0xff)
		bt ^= bt << 4
		bt32 := uint32(bt)
		crc = (crc >> 8) ^ (bt32 << 8) ^ (bt32 << 3) ^ (bt32 >> 4)
	}
	return [2]byte{byte(crc & 0xff), byte((crc >> 8) & 0xff)}
}

// AppendCRC appends the CRC_A of data to data.
func AppendCRC(data []byte) []byte {
	crc := CRC(data)
	return append(data, crc[0], crc[1])
}

// CheckCRC reports whether the last two bytes of frame are the CRC_A of
// the bytes before them.
func CheckCRC(frame []byte) bool {
	if len(frame) < 3 {
		return false
	}
	n := len(frame) - 2
	crc := CRC(frame[:n])
	return frame[n] == crc[0] && frame[n+1] == crc[1]
}

// BCC returns the block check character of a 4-byte UID chunk.
func BCC(chunk []byte) byte {
	var bcc byte
	for _, b := range chunk {
		bcc ^= b
	}
	return bcc
}
