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

package explorenfc

import (
	"context"
)

// Ultralight user memory window used by the poll cycle.
const (
	FirstPage = 4
	LastPage  = 15
	PageSize  = 4
	PageCount = LastPage - FirstPage + 1
	// WindowSize is the number of bytes a transfer covers.
	WindowSize = PageCount * PageSize
)

// FillWindow copies payload into a zeroed window. Shorter payloads are
// zero-padded; anything past WindowSize is dropped without error.
func FillWindow(payload []byte) [WindowSize]byte {
	var window [WindowSize]byte
	copy(window[:], payload)
	return window
}

// ReadPages reads pages FirstPage..LastPage in ascending order and returns
// their bytes concatenated. The first failing page aborts the transfer and
// nothing is returned.
func ReadPages(ctx context.Context, t Transceiver) ([]byte, error) {
	var window [WindowSize]byte

	for page := byte(FirstPage); page <= LastPage; page++ {
		data, err := t.ReadPage(ctx, page)
		if err != nil {
			return nil, &TransferError{Op: "read", Page: page, Err: err}
		}
		off := int(page-FirstPage) * PageSize
		copy(window[off:off+PageSize], data[:])
	}

	return window[:], nil
}

// WritePages writes payload over pages FirstPage..LastPage in ascending
// order, padded or truncated to WindowSize first. It returns the bytes that
// were written, not bytes read back from the card. The first failing page
// aborts the transfer and nothing is returned.
func WritePages(ctx context.Context, t Transceiver, payload []byte) ([]byte, error) {
	window := FillWindow(payload)

	for page := byte(FirstPage); page <= LastPage; page++ {
		var chunk [PageSize]byte
		off := int(page-FirstPage) * PageSize
		copy(chunk[:], window[off:off+PageSize])

		if err := t.WritePage(ctx, page, chunk); err != nil {
			return nil, &TransferError{Op: "write", Page: page, Err: err}
		}
	}

	return window[:], nil
}
