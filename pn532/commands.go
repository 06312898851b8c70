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

package pn532

// PN532 commands
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSAMConfiguration    = 0x14
	cmdRFConfiguration     = 0x32
	cmdInDataExchange      = 0x40
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
)

// RFConfiguration items
const (
	rfItemField      = 0x01
	rfItemMaxRetries = 0x05

	rfFieldOff = 0x00
	rfFieldOn  = 0x01
)

const (
	// brTy106A is the InListPassiveTarget baud rate and modulation for
	// ISO14443A at 106 kbps.
	brTy106A = 0x00

	// maxTargets is the most targets InListPassiveTarget can activate.
	maxTargets = 2

	// samNormalMode, samTimeout and samUseIRQ are the SAMConfiguration
	// arguments for normal mode without a SAM.
	samNormalMode = 0x01
	samTimeout    = 0x14
	samUseIRQ     = 0x01

	// sakISO14443_4 is set in SEL_RES when the card sends an ATS.
	sakISO14443_4 = 0x20

	statusMask = 0x3F
)

// Status codes from InDataExchange and InRelease
const (
	statusOK       = 0x00
	statusTimeout  = 0x01
	statusCRC      = 0x02
	statusParity   = 0x03
	statusBadCount = 0x04
	statusFraming  = 0x05
	statusCollided = 0x06
	statusNoTarget = 0x27
)
