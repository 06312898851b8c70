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

package spi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	err    error
	writes [][]byte
	regs   [0x40]byte
}

func (c *fakeConn) Tx(w, r []byte) error {
	if c.err != nil {
		return c.err
	}
	c.writes = append(c.writes, append([]byte(nil), w...))

	reg := (w[0] & addrMask) >> 1
	if w[0]&readBit != 0 {
		r[1] = c.regs[reg]
		return nil
	}
	c.regs[reg] = w[1]
	return nil
}

func TestBus_AddressByte(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reg   byte
		read  byte
		write byte
	}{
		{name: "Command", reg: 0x01, read: 0x82, write: 0x02},
		{name: "FIFOData", reg: 0x09, read: 0x92, write: 0x12},
		{name: "Version", reg: 0x37, read: 0xEE, write: 0x6E},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := &fakeConn{}
			bus := newBus(conn)

			require.NoError(t, bus.WriteRegister(tt.reg, 0x5A))
			got, err := bus.ReadRegister(tt.reg)
			require.NoError(t, err)
			assert.Equal(t, byte(0x5A), got)

			require.Len(t, conn.writes, 2)
			assert.Equal(t, []byte{tt.write, 0x5A}, conn.writes[0])
			assert.Equal(t, []byte{tt.read, 0x00}, conn.writes[1])
		})
	}
}

func TestBus_Errors(t *testing.T) {
	t.Parallel()

	errWire := errors.New("wire")
	bus := newBus(&fakeConn{err: errWire})

	_, err := bus.ReadRegister(0x37)
	require.ErrorIs(t, err, errWire)
	require.ErrorIs(t, bus.WriteRegister(0x01, 0x0F), errWire)
	require.NoError(t, bus.Close())
}
