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
	"errors"
	"fmt"
	"iter"
)

// RequestField runs the activation prelude: reset the field, apply the
// Type A profile, request with REQA to capture the ATQA and reset the field
// again so every card restarts anti-collision from IDLE.
//
// ErrNoCard is returned unwrapped when the request goes unanswered. Any
// other error is a hard failure of the cycle.
func RequestField(ctx context.Context, t Transceiver) ([2]byte, error) {
	var atqa [2]byte

	if err := t.ResetField(ctx); err != nil {
		return atqa, fmt.Errorf("field reset: %w", err)
	}

	if err := t.ApplyProtocol(ctx, ProfileISO14443A); err != nil {
		return atqa, fmt.Errorf("apply %s protocol: %w", ProfileISO14443A, err)
	}

	atqa, err := t.RequestA(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCard) {
			return atqa, ErrNoCard
		}
		return atqa, fmt.Errorf("request: %w", err)
	}

	if err := t.ResetField(ctx); err != nil {
		return atqa, fmt.Errorf("field reset after request: %w", err)
	}

	return atqa, nil
}

// ActivateAll activates the cards in the field one after another, in the
// order the anti-collision primitive resolves them. Every card is yielded
// exactly once with the ATQA captured by RequestField, and halted once the
// loop body for it returns, whatever the body did.
//
// A failure on the first activation ends the sequence without elements: the
// field is empty. A failure on a later activation is yielded as an
// *ActivationError and ends the sequence.
func ActivateAll(ctx context.Context, t Transceiver, atqa [2]byte) iter.Seq2[CardIdentity, error] {
	return func(yield func(CardIdentity, error) bool) {
		for index := 0; ; index++ {
			act, err := t.ActivateNext(ctx)
			if err != nil {
				if index == 0 {
					debugf("no card activated: %v", err)
					return
				}
				yield(CardIdentity{}, &ActivationError{Index: index, Err: err})
				return
			}

			card := CardIdentity{UID: act.UID, SAK: act.SAK, ATQA: atqa}
			debugf("activated card %s (SAK %02X, more=%t)", card.UID, card.SAK, act.More)

			keepGoing := yield(card, nil)

			if haltErr := t.Halt(ctx); haltErr != nil {
				debugf("halt %s: %v", card.UID, haltErr)
			}

			if !keepGoing || !act.More {
				return
			}
		}
	}
}
