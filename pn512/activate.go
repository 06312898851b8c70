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

import (
	"context"
	"errors"
	"fmt"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/internal/iso14443a"
)

var errCascade = errors.New("UID cascade did not terminate")

// RequestA sends REQA as a 7-bit short frame. Cards answering with
// different ATQAs collide; that still means a card is present, so the
// received bits are returned as they are.
func (d *Device) RequestA(ctx context.Context) ([2]byte, error) {
	var atqa [2]byte

	if err := d.bus.WriteRegister(regColl, collValuesAfterColl); err != nil {
		return atqa, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
	}

	resp, err := d.transceive(ctx, []byte{iso14443a.CmdREQA}, 7, 0)
	if err != nil {
		return atqa, err
	}
	if len(resp.data) != 2 || resp.lastBits != 0 {
		return atqa, fmt.Errorf("%w: ATQA of %d bytes", explorenfc.ErrFrameCorrupted, len(resp.data))
	}

	copy(atqa[:], resp.data)
	return atqa, nil
}

// ActivateNext wakes the cards still in IDLE with REQA and resolves one of
// them through up to three cascade levels. More is set when any level saw
// a bit collision, meaning another card is waiting.
func (d *Device) ActivateNext(ctx context.Context) (explorenfc.Activation, error) {
	if _, err := d.RequestA(ctx); err != nil {
		return explorenfc.Activation{}, err
	}

	uid := make([]byte, 0, explorenfc.MaxUIDLen)
	more := false

	for _, sel := range iso14443a.SelectCommands {
		res, err := d.selectLevel(ctx, sel)
		if err != nil {
			return explorenfc.Activation{}, fmt.Errorf("select level %02X: %w", sel, err)
		}
		more = more || res.collided

		if res.sak&iso14443a.SAKCascadeBit != 0 {
			if res.uid[0] != iso14443a.CascadeTag {
				return explorenfc.Activation{}, fmt.Errorf("%w: missing cascade tag", explorenfc.ErrFrameCorrupted)
			}
			uid = append(uid, res.uid[1:]...)
			continue
		}

		uid = append(uid, res.uid[:]...)
		debugf("pn512: selected %X SAK %02X", uid, res.sak)
		return explorenfc.Activation{
			UID:  explorenfc.NewUID(uid),
			SAK:  res.sak,
			More: more,
		}, nil
	}

	return explorenfc.Activation{}, errCascade
}

type levelResult struct {
	uid      [4]byte
	sak      byte
	collided bool
}

// selectLevel runs the anti-collision loop of one cascade level and then
// selects the resolved UID chunk. On a collision the card with a 1 at the
// colliding bit wins.
func (d *Device) selectLevel(ctx context.Context, sel byte) (levelResult, error) {
	var (
		res   levelResult
		buf   [9]byte
		known int
	)
	buf[0] = sel

	if err := d.bus.WriteRegister(regColl, collValuesAfterColl); err != nil {
		return res, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
	}

	for range 33 {
		if known >= 32 {
			buf[1] = iso14443a.NVBSelect
			buf[6] = iso14443a.BCC(buf[2:6])
			tx := iso14443a.AppendCRC(append([]byte(nil), buf[:7]...))

			resp, err := d.transceive(ctx, tx, 0, 0)
			if err != nil {
				return res, err
			}
			if len(resp.data) != 3 || resp.lastBits != 0 {
				return res, fmt.Errorf("%w: SAK of %d bytes", explorenfc.ErrFrameCorrupted, len(resp.data))
			}
			if !iso14443a.CheckCRC(resp.data) {
				return res, explorenfc.ErrCRC
			}

			copy(res.uid[:], buf[2:6])
			res.sak = resp.data[0]
			return res, nil
		}

		whole := known / 8
		partial := byte(known % 8)
		txLen := 2 + whole
		if partial > 0 {
			txLen++
		}
		buf[1] = byte((2+whole)<<4) | partial

		resp, err := d.transceive(ctx, buf[:txLen], partial, partial)
		if err != nil {
			return res, err
		}

		// Merge the received bits into the partially known byte and copy
		// the rest behind it.
		idx := 2 + whole
		for i, b := range resp.data {
			if idx+i >= 7 {
				break
			}
			if i == 0 {
				keep := byte(0xFF) >> (8 - partial)
				buf[idx] = (buf[idx] & keep) | (b &^ keep)
				continue
			}
			buf[idx+i] = b
		}

		if !resp.collision {
			if iso14443a.BCC(buf[2:6]) != buf[6] {
				return res, fmt.Errorf("%w: BCC mismatch", explorenfc.ErrFrameCorrupted)
			}
			known = 32
			continue
		}

		coll, err := d.bus.ReadRegister(regColl)
		if err != nil {
			return res, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
		}
		if coll&collPosNotValid != 0 {
			return res, explorenfc.ErrCollision
		}
		pos := int(coll & collPosMask)
		if pos == 0 {
			pos = 32
		}
		if pos <= known {
			return res, fmt.Errorf("%w: collision at bit %d after %d known bits", explorenfc.ErrCollision, pos, known)
		}

		known = pos
		buf[2+(known-1)/8] |= 1 << ((known - 1) % 8)
		res.collided = true
	}

	return res, errCascade
}

// Halt sends HLTA. A card acknowledges HLTA by staying silent, so a
// response timeout is success.
func (d *Device) Halt(ctx context.Context) error {
	tx := iso14443a.AppendCRC([]byte{iso14443a.CmdHLTA, 0x00})
	_, err := d.transceive(ctx, tx, 0, 0)
	switch {
	case errors.Is(err, explorenfc.ErrNoCard):
		return nil
	case err != nil:
		return fmt.Errorf("halt: %w", err)
	default:
		return fmt.Errorf("%w: card answered HLTA", explorenfc.ErrNAK)
	}
}
