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
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the pause between two poll cycles.
const DefaultInterval = 1 * time.Second

// Poller runs poll cycles against one transceiver.
//
// Thread Safety: Poller is NOT thread-safe. Exactly one cycle runs at a time
// and Run must not be called concurrently with RunCycle.
type Poller struct {
	transceiver Transceiver
	sink        Sink
	logger      *zerolog.Logger
	mode        Mode
	payload     []byte
	interval    time.Duration
}

// NewPoller creates a poller in read mode with the default interval.
func NewPoller(transceiver Transceiver, opts ...Option) (*Poller, error) {
	if transceiver == nil {
		return nil, fmt.Errorf("%w: nil transceiver", ErrInvalidParameter)
	}

	p := &Poller{
		transceiver: transceiver,
		mode:        ModeRead,
		interval:    DefaultInterval,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Mode returns the configured mode
func (p *Poller) Mode() Mode {
	return p.mode
}

func (p *Poller) log() *zerolog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return Logger()
}

// RunCycle runs one poll cycle: request the field, activate every card in
// turn, classify it, transfer pages for eligible cards and halt it.
//
// A silent field is a successful cycle with no outcomes. The returned error
// is non-nil when the cycle failed and the reader needs recovery; outcomes
// emitted for other cards before the failure are still in the result.
func (p *Poller) RunCycle(ctx context.Context) (CycleResult, error) {
	var result CycleResult

	atqa, err := RequestField(ctx, p.transceiver)
	if err != nil {
		if errors.Is(err, ErrNoCard) {
			return result, nil
		}
		return result, fmt.Errorf("poll cycle: %w", err)
	}

	var cycleErr error
	for card, actErr := range ActivateAll(ctx, p.transceiver, atqa) {
		if actErr != nil {
			cycleErr = errors.Join(cycleErr, actErr)
			break
		}
		result.Cards++

		outcome, procErr := p.process(ctx, card)
		if procErr != nil {
			p.log().Warn().Err(procErr).Str("uid", card.UID.String()).Msg("card processing failed")
			cycleErr = errors.Join(cycleErr, procErr)
			continue
		}

		result.Outcomes = append(result.Outcomes, outcome)
		p.emit(outcome)
	}

	if cycleErr != nil {
		return result, fmt.Errorf("poll cycle: %w", cycleErr)
	}
	return result, nil
}

// process classifies one card and runs the page transfer when eligible.
func (p *Poller) process(ctx context.Context, card CardIdentity) (Outcome, error) {
	outcome := Outcome{
		Mode:     p.mode,
		Card:     card,
		Family:   card.Family(),
		Eligible: card.PageEligible(),
	}

	if !outcome.Eligible {
		debugf("card %s is %s, skipping page transfer", card.UID, outcome.Family)
		return outcome, nil
	}

	var (
		data []byte
		err  error
	)
	switch p.mode {
	case ModeWrite:
		data, err = WritePages(ctx, p.transceiver, p.payload)
	default:
		data, err = ReadPages(ctx, p.transceiver)
	}
	if err != nil {
		return Outcome{}, err
	}

	outcome.Data = data
	return outcome, nil
}

func (p *Poller) emit(outcome Outcome) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Emit(outcome); err != nil {
		p.log().Warn().Err(err).Str("uid", outcome.Card.UID.String()).Msg("emit failed")
	}
}

// Run polls until ctx is cancelled: one cycle, a soft reset if the cycle
// failed, then a pause of the configured interval. Cycle failures never end
// the loop. A transceiver call that hangs blocks the loop; cancellation is
// only observed between calls.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := p.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log().Warn().Err(err).Msg("cycle failed, soft resetting reader")
			_ = Recover(ctx, p.transceiver)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}
