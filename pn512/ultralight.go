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

package pn512

import (
	"context"
	"fmt"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/internal/iso14443a"
)

// ReadPage sends READ for addr and returns the first of the four pages the
// card answers with.
func (d *Device) ReadPage(ctx context.Context, addr byte) ([4]byte, error) {
	var page [4]byte

	tx := iso14443a.AppendCRC([]byte{iso14443a.CmdRead, addr})
	resp, err := d.transceive(ctx, tx, 0, 0)
	if err != nil {
		return page, err
	}
	if isNAK(resp) {
		return page, fmt.Errorf("%w: %X", explorenfc.ErrNAK, resp.data[0]&0x0F)
	}
	if len(resp.data) != iso14443a.ReadResponseSize+2 {
		return page, fmt.Errorf("%w: READ returned %d bytes", explorenfc.ErrFrameCorrupted, len(resp.data))
	}
	if !iso14443a.CheckCRC(resp.data) {
		return page, explorenfc.ErrCRC
	}

	copy(page[:], resp.data[:4])
	return page, nil
}

// WritePage sends WRITE for addr and waits for the 4-bit ACK.
func (d *Device) WritePage(ctx context.Context, addr byte, data [4]byte) error {
	tx := iso14443a.AppendCRC([]byte{iso14443a.CmdWrite, addr, data[0], data[1], data[2], data[3]})
	resp, err := d.transceive(ctx, tx, 0, 0)
	if err != nil {
		return err
	}
	if len(resp.data) != 1 || resp.lastBits != 4 {
		return fmt.Errorf("%w: WRITE answered with %d bytes", explorenfc.ErrNoACK, len(resp.data))
	}
	if resp.data[0]&0x0F != iso14443a.ACK {
		return fmt.Errorf("%w: %X", explorenfc.ErrNAK, resp.data[0]&0x0F)
	}
	return nil
}

func isNAK(resp frame) bool {
	return len(resp.data) == 1 && resp.lastBits == 4 && resp.data[0]&0x0F != iso14443a.ACK
}
