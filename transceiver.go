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

// Profile selects the radio protocol settings a transceiver applies.
type Profile int

const (
	// ProfileISO14443A is 106 kbps Type A, the only profile the poll cycle uses.
	ProfileISO14443A Profile = iota + 1
)

// String returns the profile name
func (p Profile) String() string {
	if p == ProfileISO14443A {
		return "ISO14443A"
	}
	return "unknown"
}

// Activation is the result of one anti-collision/select run.
type Activation struct {
	UID UID
	SAK byte
	// More is set when the anti-collision primitive saw further candidates.
	More bool
}

// Transceiver is the contactless front end the poll cycle drives. Chip
// drivers (pn512, pn532, libnfc) implement it. Implementations return
// ErrNoCard when nothing answers in the field.
//
// Thread Safety: a Transceiver is driven by exactly one poll cycle at a time
// and is not expected to be safe for concurrent use.
type Transceiver interface {
	// ResetField switches the RF field off and on again.
	ResetField(ctx context.Context) error

	// ApplyProtocol loads the protocol settings and switches the field on.
	ApplyProtocol(ctx context.Context, profile Profile) error

	// RequestA issues a Type A field request and returns the ATQA bytes
	// in the order they were received.
	RequestA(ctx context.Context) ([2]byte, error)

	// ActivateNext resolves and selects the next card in the field.
	ActivateNext(ctx context.Context) (Activation, error)

	// Halt puts the selected card into the HALT state.
	Halt(ctx context.Context) error

	// ReadPage reads one 4-byte page.
	ReadPage(ctx context.Context, addr byte) ([4]byte, error)

	// WritePage writes one 4-byte page.
	WritePage(ctx context.Context, addr byte, data [4]byte) error
}

// Resetter is implemented by transceivers whose reader chip can be soft
// reset. It is the only recovery mechanism after a failed cycle.
type Resetter interface {
	SoftReset(ctx context.Context) error
}

// FieldSwitcher is implemented by transceivers that can turn the RF field
// off on shutdown.
type FieldSwitcher interface {
	FieldOff(ctx context.Context) error
}
