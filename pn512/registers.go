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

// Registers shared by PN512, RC523 and MFRC522 (page 0..3 map).
const (
	regCommand     = 0x01
	regComIrq      = 0x04
	regError       = 0x06
	regFIFOData    = 0x09
	regFIFOLevel   = 0x0A
	regControl     = 0x0C
	regBitFraming  = 0x0D
	regColl        = 0x0E
	regMode        = 0x11
	regTxMode      = 0x12
	regRxMode      = 0x13
	regTxControl   = 0x14
	regTxASK       = 0x15
	regModWidth    = 0x24
	regTMode       = 0x2A
	regTPrescaler  = 0x2B
	regTReloadHigh = 0x2C
	regTReloadLow  = 0x2D
	regVersion     = 0x37
)

// Chip commands written to regCommand
const (
	cmdIdle       = 0x00
	cmdTransceive = 0x0C
	cmdSoftReset  = 0x0F
)

// Register bits
const (
	commandPowerDown = 0x10

	irqTimer = 0x01
	irqIdle  = 0x10
	irqRx    = 0x20
	irqAll   = 0x7F

	errProtocol  = 0x01
	errParity    = 0x02
	errCollision = 0x08
	errOverflow  = 0x10
	errFatal     = errProtocol | errParity | errOverflow

	fifoFlush     = 0x80
	fifoLevelMask = 0x7F

	controlRxLastBits = 0x07

	bitFramingStartSend = 0x80

	collValuesAfterColl = 0x80
	collPosNotValid     = 0x20
	collPosMask         = 0x1F

	txControlAntenna = 0x03
)

// ISO14443A 106 kbps register profile. The timer runs with TAuto so every
// transceive gets a 25 ms card response window.
var iso14443aProfile = []struct {
	reg   byte
	value byte
}{
	{regTxMode, 0x00},
	{regRxMode, 0x00},
	{regModWidth, 0x26},
	{regTMode, 0x80},
	{regTPrescaler, 0xA9},
	{regTReloadHigh, 0x03},
	{regTReloadLow, 0xE8},
	{regTxASK, 0x40},
	{regMode, 0x3D},
}

// knownVersions maps regVersion values to chip names for log output.
var knownVersions = map[byte]string{
	0x80: "PN512 v1",
	0x82: "PN512 v2",
	0x88: "FM17522",
	0x90: "MFRC522 v0.0",
	0x91: "MFRC522 v1.0",
	0x92: "MFRC522 v2.0",
}
