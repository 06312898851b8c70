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

// Family is the card family derived from SAK and ATQA.
type Family int

const (
	FamilyNotMifare Family = iota
	FamilyClassic
	FamilyClassic1K
	FamilyClassic4K
	FamilyPlus2KSL1
	FamilyPlus4KSL1
	FamilyPlus2KSL2
	FamilyPlus4KSL2
	FamilyPlus2KSL3
	FamilyPlus4KSL3
	FamilyMini
	FamilyUltralight
	FamilyUltralightC
	FamilyDESFire
	FamilyJCOP
	FamilyGeneric
)

// String returns a human-readable family name
func (f Family) String() string {
	switch f {
	case FamilyClassic:
		return "MIFARE Classic"
	case FamilyClassic1K:
		return "MIFARE Classic 1K"
	case FamilyClassic4K:
		return "MIFARE Classic 4K"
	case FamilyPlus2KSL1:
		return "MIFARE Plus 2K SL1"
	case FamilyPlus4KSL1:
		return "MIFARE Plus 4K SL1"
	case FamilyPlus2KSL2:
		return "MIFARE Plus 2K SL2"
	case FamilyPlus4KSL2:
		return "MIFARE Plus 4K SL2"
	case FamilyPlus2KSL3:
		return "MIFARE Plus 2K SL3"
	case FamilyPlus4KSL3:
		return "MIFARE Plus 4K SL3"
	case FamilyMini:
		return "MIFARE Mini"
	case FamilyUltralight:
		return "MIFARE Ultralight"
	case FamilyUltralightC:
		return "MIFARE Ultralight C"
	case FamilyDESFire:
		return "MIFARE DESFire"
	case FamilyJCOP:
		return "JCOP"
	case FamilyGeneric:
		return "MIFARE compatible"
	case FamilyNotMifare:
		return "not MIFARE"
	default:
		return "unknown"
	}
}

// Identifier bytes, packed as ATQA byte 0 << 8 | ATQA byte 1.
const (
	sakUltralight = 0x00
	sakMini       = 0x09
	sakClassic1K  = 0x08
	sakClassic4K  = 0x18
	sakPlus2KSL2  = 0x10
	sakPlus4KSL2  = 0x11
	sakLayer4     = 0x20
	sakJCOP       = 0x28

	atqaUltralight = 0x4400
	atqaClassic    = 0x0200
	atqaPlusS      = 0x0400
	atqaPlusX      = 0x4200
	atqaDESFire    = 0x4403
	atqaJCOP       = 0x0400
	atqaMini       = 0x0400
)

const (
	// familyKeyMask drops the ATQA UID-size nibble from the packed key.
	familyKeyMask uint32 = 0xFFFF0FFF
	// sakOnlyMask matches on the SAK alone.
	sakOnlyMask uint32 = 0xFF000000
)

type familyMask struct {
	mask   uint32
	value  uint32
	family Family
}

func packKey(sak byte, atqa uint32) uint32 {
	return uint32(sak)<<24 | atqa
}

func entry(sak byte, atqa uint32, family Family) familyMask {
	return familyMask{
		mask:   familyKeyMask,
		value:  packKey(sak, atqa) & familyKeyMask,
		family: family,
	}
}

// familyTable is evaluated in order; the first match wins. Entries whose
// masked value repeats an earlier one never match and only document the
// shared identifier (Ultralight C, the Plus X variants).
var familyTable = []familyMask{
	entry(sakUltralight, atqaUltralight, FamilyUltralight),
	entry(sakUltralight, atqaUltralight, FamilyUltralightC),
	entry(sakClassic1K, atqaClassic, FamilyClassic1K),
	entry(sakClassic4K, atqaClassic, FamilyClassic4K),
	entry(sakMini, atqaMini, FamilyMini),
	entry(sakClassic1K, atqaPlusS, FamilyPlus2KSL1),
	entry(sakClassic4K, atqaPlusS, FamilyPlus4KSL1),
	entry(sakClassic1K, atqaPlusX, FamilyPlus2KSL1),
	entry(sakClassic4K, atqaPlusX, FamilyPlus4KSL1),
	entry(sakPlus2KSL2, atqaPlusS, FamilyPlus2KSL2),
	entry(sakPlus4KSL2, atqaPlusS, FamilyPlus4KSL2),
	entry(sakLayer4, atqaDESFire, FamilyDESFire),
	entry(sakLayer4, atqaPlusS, FamilyPlus2KSL3),
	entry(sakLayer4, atqaPlusX, FamilyPlus4KSL3),
	entry(sakJCOP, atqaJCOP, FamilyJCOP),
	{mask: sakOnlyMask, value: uint32(sakClassic1K) << 24, family: FamilyClassic},
	{mask: sakOnlyMask, value: uint32(sakClassic4K) << 24, family: FamilyClassic},
	{mask: sakOnlyMask, value: uint32(sakLayer4) << 24, family: FamilyGeneric},
}

// packATQA packs the ATQA in request order, byte 0 high.
func packATQA(atqa [2]byte) uint32 {
	return uint32(atqa[0])<<8 | uint32(atqa[1])
}

// Classify returns the card family for a SAK/ATQA pair, or FamilyNotMifare
// when no table entry matches. It has no side effects.
func Classify(sak byte, atqa [2]byte) Family {
	key := packKey(sak, packATQA(atqa))
	for _, e := range familyTable {
		if key&e.mask == e.value {
			return e.family
		}
	}
	return FamilyNotMifare
}

// IsMifare reports whether the pair matches any masked MIFARE family.
func IsMifare(sak byte, atqa [2]byte) bool {
	return Classify(sak, atqa) != FamilyNotMifare
}

// IsPageEligible reports whether the card may take the page read/write path:
// it must be a MIFARE family and carry exactly the Ultralight identifier
// (SAK 0x00, ATQA 0x4400). Ultralight C shares these bytes and is treated
// the same way.
func IsPageEligible(sak byte, atqa [2]byte) bool {
	if !IsMifare(sak, atqa) {
		return false
	}
	return sak == sakUltralight && packATQA(atqa) == atqaUltralight
}
