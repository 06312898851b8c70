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

package ndefview

import (
	"errors"
	"fmt"
)

// TLV block types used on Type 2 tags
const (
	tlvNull       = 0x00
	tlvNDEF       = 0x03
	tlvTerminator = 0xFE
	// longLength marks a three byte length field.
	longLength = 0xFF
)

var errTruncated = errors.New("truncated TLV")

// FindTLV walks the TLV blocks in data and returns the value of the first
// NDEF message TLV. found is false when a terminator or the end of data
// is reached first. A length running past the end of data is an error.
func FindTLV(data []byte) (value []byte, found bool, err error) {
	i := 0
	for i < len(data) {
		typ := data[i]
		i++

		switch typ {
		case tlvNull:
			continue
		case tlvTerminator:
			return nil, false, nil
		}

		if i >= len(data) {
			return nil, false, fmt.Errorf("%w: missing length at offset %d", errTruncated, i)
		}

		length := int(data[i])
		i++
		if length == longLength {
			if i+2 > len(data) {
				return nil, false, fmt.Errorf("%w: short long-form length at offset %d", errTruncated, i)
			}
			length = int(data[i])<<8 | int(data[i+1])
			i += 2
		}

		if i+length > len(data) {
			return nil, false, fmt.Errorf("%w: type %02X claims %d bytes, %d left",
				errTruncated, typ, length, len(data)-i)
		}

		if typ == tlvNDEF {
			return data[i : i+length], true, nil
		}
		i += length
	}
	return nil, false, nil
}
