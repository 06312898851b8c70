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

package frame

import (
	"bytes"
	"fmt"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
)

// errorFrameTFI is sent in place of Pn532ToHost when the chip rejects a
// command at the application level.
const errorFrameTFI = 0x7F

// CalculateChecksum returns the byte sum of data
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ValidateChecksum reports whether data does NOT sum to zero, i.e. whether
// the receiver should answer with a NACK.
func ValidateChecksum(data []byte) bool {
	return CalculateChecksum(data) != 0
}

// CalculateDataChecksum returns the DCS for tfi followed by data
func CalculateDataChecksum(tfi byte, data []byte) byte {
	return ^(tfi + CalculateChecksum(data)) + 1
}

// CalculateLengthChecksum returns the LCS for length
func CalculateLengthChecksum(length byte) byte {
	return ^length + 1
}

// Encode builds a normal information frame carrying cmd and args from the
// host to the chip.
func Encode(cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args)
	if dataLen > 0xFF {
		return nil, fmt.Errorf("%w: %d bytes of command data", explorenfc.ErrInvalidParameter, dataLen)
	}

	out := make([]byte, 0, dataLen+7)
	out = append(out, Preamble, StartCode1, StartCode2, byte(dataLen), CalculateLengthChecksum(byte(dataLen)))
	out = append(out, HostToPn532, cmd)
	out = append(out, args...)

	payload := append([]byte{cmd}, args...)
	out = append(out, CalculateDataChecksum(HostToPn532, payload), Postamble)
	return out, nil
}

// IsACK reports whether buf starts with an ACK frame
func IsACK(buf []byte) bool {
	return bytes.HasPrefix(buf, AckFrame)
}

// FindStart returns the offset of the length byte after the first start
// code in buf, or -1.
func FindStart(buf []byte) int {
	idx := bytes.Index(buf, []byte{StartCode1, StartCode2})
	if idx < 0 {
		return -1
	}
	return idx + 2
}

// Decode extracts the chip-to-host data of the frame in buf, starting with
// the response code. A bad checksum returns ErrFrameCorrupted; the caller
// should NACK and read again. An incomplete buffer returns
// ErrFrameCorrupted too, with needMore set.
func Decode(buf []byte) (data []byte, needMore bool, err error) {
	off := FindStart(buf)
	if off < 0 || off+2 > len(buf) {
		return nil, true, explorenfc.ErrFrameCorrupted
	}

	length := buf[off]
	if length+buf[off+1] != 0 {
		return nil, false, fmt.Errorf("%w: length checksum", explorenfc.ErrFrameCorrupted)
	}
	if length == 0 {
		return nil, false, fmt.Errorf("%w: empty frame", explorenfc.ErrFrameCorrupted)
	}

	start := off + 2
	end := start + int(length)
	if end+1 > len(buf) {
		return nil, true, explorenfc.ErrFrameCorrupted
	}

	if ValidateChecksum(buf[start : end+1]) {
		return nil, false, fmt.Errorf("%w: data checksum", explorenfc.ErrFrameCorrupted)
	}

	switch buf[start] {
	case Pn532ToHost:
		return append([]byte(nil), buf[start+1:end]...), false, nil
	case errorFrameTFI:
		return nil, false, fmt.Errorf("%w: application error frame", explorenfc.ErrCommunicationFailed)
	default:
		return nil, false, fmt.Errorf("%w: unexpected TFI %02X", explorenfc.ErrFrameCorrupted, buf[start])
	}
}
