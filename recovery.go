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
	"fmt"
)

// Recover issues a soft reset of the reader chip after a failed cycle. It is
// best effort: the next cycle runs whatever the result, there is no backoff
// and no failure count. Transceivers that cannot reset are left alone.
func Recover(ctx context.Context, t Transceiver) error {
	resetter, ok := t.(Resetter)
	if !ok {
		debugln("transceiver has no soft reset, skipping recovery")
		return nil
	}

	if err := resetter.SoftReset(ctx); err != nil {
		debugf("soft reset failed: %v", err)
		return fmt.Errorf("soft reset: %w", err)
	}

	debugln("reader chip soft reset")
	return nil
}

// Shutdown switches the field off when the transceiver supports it.
func Shutdown(ctx context.Context, t Transceiver) error {
	switcher, ok := t.(FieldSwitcher)
	if !ok {
		return nil
	}
	if err := switcher.FieldOff(ctx); err != nil {
		return fmt.Errorf("field off: %w", err)
	}
	return nil
}
