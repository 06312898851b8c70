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
	"bytes"
	"encoding/hex"
	"strings"
)

// MaxUIDLen is the longest UID ISO14443A can report (triple size).
const MaxUIDLen = 10

// UID is a card's unique identifier as reported by anti-collision. The
// length is whatever the protocol reported (4, 7 or 10 bytes), never assumed.
type UID struct {
	data [MaxUIDLen]byte
	len  byte
}

// NewUID copies b into a UID. Bytes beyond MaxUIDLen are dropped.
func NewUID(b []byte) UID {
	var u UID
	u.len = byte(copy(u.data[:], b))
	return u
}

// Bytes returns the UID bytes. The slice aliases a copy of the value, so the
// caller may keep it.
func (u UID) Bytes() []byte {
	return u.data[:u.len]
}

// Len returns the UID length in bytes
func (u UID) Len() int {
	return int(u.len)
}

// IsZero reports whether the UID is empty
func (u UID) IsZero() bool {
	return u.len == 0
}

// Equal reports whether both UIDs have the same length and content
func (u UID) Equal(other UID) bool {
	return bytes.Equal(u.Bytes(), other.Bytes())
}

// String returns the UID as uppercase hex without separators.
func (u UID) String() string {
	return strings.ToUpper(hex.EncodeToString(u.Bytes()))
}

// CardIdentity is what one activation produces: the UID and SAK from the
// select phase and the ATQA captured by the cycle's field request.
type CardIdentity struct {
	UID  UID
	ATQA [2]byte
	SAK  byte
}

// Family classifies the identity.
func (c CardIdentity) Family() Family {
	return Classify(c.SAK, c.ATQA)
}

// PageEligible reports whether the page read/write path applies to the card.
func (c CardIdentity) PageEligible() bool {
	return IsPageEligible(c.SAK, c.ATQA)
}
