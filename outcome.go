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
	"fmt"
)

// Mode selects what the poll cycle does with an eligible card.
type Mode string

const (
	// ModeRead reads the page window. Its name is the CLI verb "poll".
	ModeRead Mode = "poll"
	// ModeWrite writes the payload over the page window.
	ModeWrite Mode = "write"
)

// ParseMode maps a CLI verb to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRead, ModeWrite:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidParameter, s)
	}
}

// Outcome is the result for one activated card. Data holds the page window
// in ascending address order and is nil unless the card was page eligible.
type Outcome struct {
	Mode     Mode
	Data     []byte
	Card     CardIdentity
	Family   Family
	Eligible bool
}

// Sink receives outcomes as soon as a card has been processed.
type Sink interface {
	Emit(outcome Outcome) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(Outcome) error

// Emit calls f(outcome)
func (f SinkFunc) Emit(outcome Outcome) error {
	return f(outcome)
}

// CycleResult summarizes one poll cycle.
type CycleResult struct {
	Outcomes []Outcome
	// Cards counts activated cards, including those whose transfer failed.
	Cards int
}
