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
	"testing"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	got, err := Encode(0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A, 0x00}, got)

	_, err = Encode(0x40, make([]byte, 300))
	require.ErrorIs(t, err, explorenfc.ErrInvalidParameter)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	// GetFirmwareVersion response: IC 0x32, Ver 1, Rev 6, Support 7
	firmware := []byte{0x00, 0x00, 0xFF, 0x06, 0xFA, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE8, 0x00}

	tests := []struct {
		wantErr  error
		name     string
		buf      []byte
		want     []byte
		needMore bool
	}{
		{
			name: "Firmware_Version",
			buf:  firmware,
			want: []byte{0x03, 0x32, 0x01, 0x06, 0x07},
		},
		{
			name: "Leading_Garbage",
			buf:  append([]byte{0x00, 0x00, 0x00}, firmware...),
			want: []byte{0x03, 0x32, 0x01, 0x06, 0x07},
		},
		{
			name:     "Truncated",
			buf:      firmware[:8],
			wantErr:  explorenfc.ErrFrameCorrupted,
			needMore: true,
		},
		{
			name:    "Bad_Length_Checksum",
			buf:     []byte{0x00, 0x00, 0xFF, 0x06, 0xFB, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE8, 0x00},
			wantErr: explorenfc.ErrFrameCorrupted,
		},
		{
			name:    "Bad_Data_Checksum",
			buf:     []byte{0x00, 0x00, 0xFF, 0x06, 0xFA, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE9, 0x00},
			wantErr: explorenfc.ErrFrameCorrupted,
		},
		{
			name:    "Application_Error",
			buf:     []byte{0x00, 0x00, 0xFF, 0x01, 0xFF, 0x7F, 0x81, 0x00},
			wantErr: explorenfc.ErrCommunicationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, needMore, err := Decode(tt.buf)
			assert.Equal(t, tt.needMore, needMore)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsACK(t *testing.T) {
	t.Parallel()

	assert.True(t, IsACK(AckFrame))
	assert.False(t, IsACK(NackFrame))
	assert.False(t, IsACK([]byte{0x00, 0x00}))
}

func TestChecksums(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		sum      byte
		wantNack bool
	}{
		{name: "empty", data: []byte{}, sum: 0x00},
		{name: "overflow wraps", data: []byte{0xFF, 0x01}, sum: 0x00},
		{name: "unbalanced", data: []byte{0x10, 0x20}, sum: 0x30, wantNack: true},
		{name: "balanced DCS", data: []byte{0xD4, 0x03, 0x29}, sum: 0x00},
		{name: "firmware request with DCS", data: []byte{0xD4, 0x02, 0x2A}, sum: 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.sum, CalculateChecksum(tt.data))
			assert.Equal(t, tt.wantNack, ValidateChecksum(tt.data))
		})
	}
}

func TestCalculateDataChecksum(t *testing.T) {
	t.Parallel()

	assert.Equal(t, byte(0x2C), CalculateDataChecksum(HostToPn532, nil))
	assert.Equal(t, byte(0x2A), CalculateDataChecksum(HostToPn532, []byte{0x02}))
	assert.Equal(t, byte(0x26), CalculateDataChecksum(HostToPn532, []byte{0x02, 0x01, 0x03}))
}

func TestCalculateLengthChecksum(t *testing.T) {
	t.Parallel()

	for i := 0; i < 256; i++ {
		length := byte(i)
		assert.Zero(t, length+CalculateLengthChecksum(length), "length %d", length)
	}
}
