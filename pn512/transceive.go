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
	"fmt"
	"time"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
)

// frame is what the chip received in answer to a transceive.
type frame struct {
	data      []byte
	lastBits  byte // valid bits in the last byte, 0 means all 8
	collision bool
}

// transceive sends tx and waits for the card's answer. txLastBits is the
// number of valid bits in the last transmitted byte (0 for 8) and rxAlign
// the bit position the first received bit is stored at.
//
// A card response timeout is reported as ErrNoCard. Bit collisions are not
// an error here; the caller decides what they mean.
func (d *Device) transceive(ctx context.Context, tx []byte, txLastBits, rxAlign byte) (frame, error) {
	if err := ctx.Err(); err != nil {
		return frame{}, err
	}

	writes := []struct{ reg, value byte }{
		{regCommand, cmdIdle},
		{regComIrq, irqAll},
		{regFIFOLevel, fifoFlush},
	}
	for _, w := range writes {
		if err := d.bus.WriteRegister(w.reg, w.value); err != nil {
			return frame{}, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
		}
	}
	for _, b := range tx {
		if err := d.bus.WriteRegister(regFIFOData, b); err != nil {
			return frame{}, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
		}
	}

	framing := (rxAlign << 4) | (txLastBits & 0x07)
	if err := d.bus.WriteRegister(regBitFraming, framing); err != nil {
		return frame{}, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
	}
	if err := d.bus.WriteRegister(regCommand, cmdTransceive); err != nil {
		return frame{}, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
	}
	if err := d.bus.WriteRegister(regBitFraming, framing|bitFramingStartSend); err != nil {
		return frame{}, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
	}

	irq, err := d.waitIRQ(ctx)
	// StartSend has to be cleared whatever happened
	if clearErr := d.bus.WriteRegister(regBitFraming, framing); clearErr != nil && err == nil {
		err = fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, clearErr)
	}
	if err != nil {
		return frame{}, err
	}
	if irq&irqRx == 0 && irq&irqTimer != 0 {
		return frame{}, explorenfc.ErrNoCard
	}

	errReg, err := d.bus.ReadRegister(regError)
	if err != nil {
		return frame{}, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
	}
	if errReg&errFatal != 0 {
		return frame{}, fmt.Errorf("%w: error register %02X", explorenfc.ErrCommunicationFailed, errReg)
	}

	level, err := d.bus.ReadRegister(regFIFOLevel)
	if err != nil {
		return frame{}, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
	}
	n := int(level & fifoLevelMask)
	if n == 0 {
		if irq&irqTimer != 0 {
			return frame{}, explorenfc.ErrNoCard
		}
		return frame{}, fmt.Errorf("%w: empty response", explorenfc.ErrFrameCorrupted)
	}

	rx := make([]byte, n)
	for i := range rx {
		if rx[i], err = d.bus.ReadRegister(regFIFOData); err != nil {
			return frame{}, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
		}
	}

	control, err := d.bus.ReadRegister(regControl)
	if err != nil {
		return frame{}, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
	}

	return frame{
		data:      rx,
		lastBits:  control & controlRxLastBits,
		collision: errReg&errCollision != 0,
	}, nil
}

// waitIRQ polls the interrupt register until the chip received a frame,
// went idle or its card response timer fired.
func (d *Device) waitIRQ(ctx context.Context) (byte, error) {
	deadline := time.Now().Add(d.config.CommandTimeout)
	for {
		irq, err := d.bus.ReadRegister(regComIrq)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
		}
		if irq&(irqRx|irqIdle|irqTimer) != 0 {
			return irq, nil
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if time.Now().After(deadline) {
			return 0, explorenfc.ErrTransportTimeout
		}
	}
}
