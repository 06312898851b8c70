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

// Package emit turns poll outcomes into records and delivers them. The
// console sink prints one JSON object per card on stdout; the NATS sink
// publishes the same record to a subject.
package emit

import (
	"encoding/hex"
	"errors"
	"strings"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/ndefview"
)

// Record is the wire form of one outcome. Field order is part of the
// output format.
type Record struct {
	Mode string `json:"mode"`
	UID  string `json:"uid"`
	Data string `json:"data,omitempty"`
	NDEF string `json:"ndef,omitempty"`
}

// NewRecord converts an outcome. Data stays empty for cards that did not
// take the page path. With decodeNDEF set, a window holding an NDEF
// message also gets its text rendering.
func NewRecord(outcome explorenfc.Outcome, decodeNDEF bool) Record {
	rec := Record{
		Mode: string(outcome.Mode),
		UID:  outcome.Card.UID.String(),
	}
	if outcome.Data == nil {
		return rec
	}

	rec.Data = strings.ToUpper(hex.EncodeToString(outcome.Data))
	if decodeNDEF {
		if text, err := ndefview.Decode(outcome.Data); err == nil {
			rec.NDEF = text
		}
	}
	return rec
}

// Multi fans an outcome out to several sinks. Every sink is called even
// when an earlier one fails.
type Multi []explorenfc.Sink

// Emit calls every sink in order and joins their errors.
func (m Multi) Emit(outcome explorenfc.Outcome) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Emit(outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
