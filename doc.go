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

/*
Package explorenfc polls a contactless reader for MIFARE cards, classifies
each card from its SAK and ATQA and, for MIFARE Ultralight, reads or writes
the user pages 4 to 15.

The reader chip is reached through a Transceiver. The pn512 package drives
PN512/RC523 chips register by register over SPI, the pn532 package drives
PN532 chips over UART or I2C, and the libnfc package (build tag libnfc)
covers anything libnfc supports.

Basic Usage:

	bus, err := spi.Open("", spi.DefaultSpeed)
	if err != nil {
	    return err
	}

	reader, err := pn512.New(bus)
	if err != nil {
	    return err
	}
	defer reader.Close()

	if err := reader.Init(ctx); err != nil {
	    return err
	}

	poller, err := explorenfc.NewPoller(reader,
	    explorenfc.WithMode(explorenfc.ModeRead),
	    explorenfc.WithSink(emit.NewConsole(os.Stdout, false)),
	)
	if err != nil {
	    return err
	}

	// Runs one cycle per second until ctx is cancelled
	return poller.Run(ctx)

Poll Cycle:

Each cycle resets the field, applies the ISO14443A profile, requests the
field to capture the ATQA and resets the field again. Cards are then
activated one by one. Each card is classified, the page window is
transferred when the card is a plain Ultralight, the outcome is emitted and
the card is halted. A failed cycle is followed by a soft reset of the
reader chip; the loop itself never stops on card or transport errors.

Error Handling:

ErrNoCard marks an empty field and is not a failure. Page transfer failures
are *TransferError values and match ErrTransfer:

	if errors.Is(err, explorenfc.ErrTransfer) {
	    // the card left the field or refused a page
	}

Startup failures are *StartupError values whose ExitCode follows the
command line tool's exit codes.

Thread Safety:

A Poller and its Transceiver are driven by one goroutine at a time.
*/
package explorenfc
