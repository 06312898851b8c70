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

import (
	"context"
	"errors"
	"fmt"
	"time"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/internal/iso14443a"
	"github.com/ZaparooProject/go-explorenfc/internal/retry"
)

// FirmwareVersion is the answer to GetFirmwareVersion
type FirmwareVersion struct {
	IC      byte
	Version byte
	Rev     byte
	Support byte
}

// String returns the version as "PN5xx v.r"
func (f FirmwareVersion) String() string {
	return fmt.Sprintf("PN5%02x %d.%d", f.IC, f.Version, f.Rev)
}

// target is one card InListPassiveTarget activated
type target struct {
	uid  []byte
	atqa [2]byte
	tg   byte
	sak  byte
}

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithInitRetries sets how often GetFirmwareVersion is retried during Init.
// Clone boards often miss the first frame after power up.
func WithInitRetries(n int) Option {
	return func(d *Device) error {
		if n < 0 {
			return fmt.Errorf("%w: negative retry count", explorenfc.ErrInvalidParameter)
		}
		d.initRetries = n
		return nil
	}
}

// WithFieldOffTime sets how long the field stays off during ResetField
func WithFieldOffTime(dur time.Duration) Option {
	return func(d *Device) error {
		d.fieldOffTime = dur
		return nil
	}
}

// Device is a PN532 driven through a Transport.
//
// Thread Safety: Device is NOT thread-safe.
type Device struct {
	transport    Transport
	firmware     FirmwareVersion
	pending      []target
	current      byte
	listed       bool
	initRetries  int
	fieldOffTime time.Duration
}

// New creates a device on transport. Call Init before use.
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", explorenfc.ErrInvalidParameter)
	}

	d := &Device{
		transport:    transport,
		initRetries:  2,
		fieldOffTime: 5 * time.Millisecond,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Init reads the firmware version and puts the chip in normal mode. The
// returned error is a *explorenfc.StartupError naming the failed stage.
func (d *Device) Init(ctx context.Context) error {
	fw, err := retry.Do(ctx, retry.Config{MaxRetries: d.initRetries, Delay: 10 * time.Millisecond},
		func() (FirmwareVersion, bool, error) {
			fw, err := d.GetFirmwareVersion(ctx)
			if err != nil {
				debugf("pn532: GetFirmwareVersion failed: %v", err)
				return fw, true, nil
			}
			return fw, false, nil
		})
	if err != nil {
		return explorenfc.NewStartupError(explorenfc.StageChipInit,
			fmt.Errorf("%w: no firmware version answer", explorenfc.ErrChipNotFound))
	}
	d.firmware = fw
	explorenfc.Logger().Debug().Stringer("firmware", fw).Msg("PN532 found")

	if err := d.samConfiguration(ctx); err != nil {
		return explorenfc.NewStartupError(explorenfc.StageProtocolConfig, err)
	}
	return nil
}

// Firmware returns the version read by Init
func (d *Device) Firmware() FirmwareVersion {
	return d.firmware
}

// Close closes the transport
func (d *Device) Close() error {
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}

// GetFirmwareVersion asks the chip for its IC and firmware version
func (d *Device) GetFirmwareVersion(ctx context.Context) (FirmwareVersion, error) {
	resp, err := d.command(ctx, cmdGetFirmwareVersion, nil)
	if err != nil {
		return FirmwareVersion{}, err
	}
	if len(resp) < 4 {
		return FirmwareVersion{}, fmt.Errorf("%w: firmware version of %d bytes", explorenfc.ErrFrameCorrupted, len(resp))
	}
	return FirmwareVersion{IC: resp[0], Version: resp[1], Rev: resp[2], Support: resp[3]}, nil
}

func (d *Device) samConfiguration(ctx context.Context) error {
	if _, err := d.command(ctx, cmdSAMConfiguration, []byte{samNormalMode, samTimeout, samUseIRQ}); err != nil {
		return fmt.Errorf("SAM configuration: %w", err)
	}
	return nil
}

// SoftReset releases every target and reapplies the SAM configuration.
func (d *Device) SoftReset(ctx context.Context) error {
	d.pending = nil
	d.listed = false
	d.current = 0

	if _, err := d.command(ctx, cmdInRelease, []byte{0x00}); err != nil {
		return fmt.Errorf("release all targets: %w", err)
	}
	return d.samConfiguration(ctx)
}

// ResetField switches the RF field off and on again
func (d *Device) ResetField(ctx context.Context) error {
	if err := d.FieldOff(ctx); err != nil {
		return err
	}
	if d.fieldOffTime > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.fieldOffTime):
		}
	}
	return d.setField(ctx, rfFieldOn)
}

// FieldOff switches the RF field off
func (d *Device) FieldOff(ctx context.Context) error {
	return d.setField(ctx, rfFieldOff)
}

func (d *Device) setField(ctx context.Context, value byte) error {
	if _, err := d.command(ctx, cmdRFConfiguration, []byte{rfItemField, value}); err != nil {
		return fmt.Errorf("RF field %d: %w", value, err)
	}
	return nil
}

// ApplyProtocol limits passive activation to a single attempt, so an empty
// field answers immediately, and switches the field on.
func (d *Device) ApplyProtocol(ctx context.Context, profile explorenfc.Profile) error {
	if profile != explorenfc.ProfileISO14443A {
		return fmt.Errorf("%w: unsupported profile %s", explorenfc.ErrInvalidParameter, profile)
	}
	if _, err := d.command(ctx, cmdRFConfiguration, []byte{rfItemMaxRetries, 0xFF, 0x01, 0x01}); err != nil {
		return fmt.Errorf("max retries: %w", err)
	}
	return d.setField(ctx, rfFieldOn)
}

// RequestA probes the field with a single-target InListPassiveTarget and
// returns the ATQA in received order. It also forgets the targets of the
// previous cycle.
func (d *Device) RequestA(ctx context.Context) ([2]byte, error) {
	d.pending = nil
	d.listed = false
	d.current = 0

	targets, err := d.listTargets(ctx, 1)
	if err != nil {
		return [2]byte{}, err
	}
	if len(targets) == 0 {
		return [2]byte{}, explorenfc.ErrNoCard
	}
	return targets[0].atqa, nil
}

// ActivateNext returns the next target of this cycle. The first call lists
// up to two targets; More is set while listed targets remain.
func (d *Device) ActivateNext(ctx context.Context) (explorenfc.Activation, error) {
	if !d.listed {
		targets, err := d.listTargets(ctx, maxTargets)
		if err != nil {
			return explorenfc.Activation{}, err
		}
		d.pending = targets
		d.listed = true
	}

	if len(d.pending) == 0 {
		return explorenfc.Activation{}, explorenfc.ErrNoCard
	}

	next := d.pending[0]
	d.pending = d.pending[1:]
	d.current = next.tg

	return explorenfc.Activation{
		UID:  explorenfc.NewUID(next.uid),
		SAK:  next.sak,
		More: len(d.pending) > 0,
	}, nil
}

// Halt releases the current target, which sends it HLTA.
func (d *Device) Halt(ctx context.Context) error {
	if d.current == 0 {
		return nil
	}
	tg := d.current
	d.current = 0

	resp, err := d.command(ctx, cmdInRelease, []byte{tg})
	if err != nil {
		return fmt.Errorf("release target %d: %w", tg, err)
	}
	if len(resp) > 0 && resp[0]&statusMask != statusOK {
		return fmt.Errorf("release target %d: %w", tg, statusError(resp[0]))
	}
	return nil
}

// ReadPage sends READ through InDataExchange and returns the first page.
func (d *Device) ReadPage(ctx context.Context, addr byte) ([4]byte, error) {
	var page [4]byte

	data, err := d.exchange(ctx, []byte{iso14443a.CmdRead, addr})
	if err != nil {
		return page, err
	}
	if len(data) < iso14443a.ReadResponseSize {
		return page, fmt.Errorf("%w: READ returned %d bytes", explorenfc.ErrFrameCorrupted, len(data))
	}
	copy(page[:], data[:4])
	return page, nil
}

// WritePage sends WRITE through InDataExchange. The chip consumes the
// card's ACK; a NAK comes back as a status error.
func (d *Device) WritePage(ctx context.Context, addr byte, data [4]byte) error {
	_, err := d.exchange(ctx, []byte{iso14443a.CmdWrite, addr, data[0], data[1], data[2], data[3]})
	return err
}

func (d *Device) exchange(ctx context.Context, data []byte) ([]byte, error) {
	if d.current == 0 {
		return nil, explorenfc.ErrNoCard
	}

	resp, err := d.command(ctx, cmdInDataExchange, append([]byte{d.current}, data...))
	if err != nil {
		return nil, err
	}
	if len(resp) < 1 {
		return nil, fmt.Errorf("%w: empty InDataExchange response", explorenfc.ErrFrameCorrupted)
	}
	if resp[0]&statusMask != statusOK {
		return nil, statusError(resp[0])
	}
	return resp[1:], nil
}

// listTargets runs InListPassiveTarget for up to max ISO14443A targets.
func (d *Device) listTargets(ctx context.Context, maxTg byte) ([]target, error) {
	resp, err := d.command(ctx, cmdInListPassiveTarget, []byte{maxTg, brTy106A})
	if err != nil {
		return nil, err
	}
	return parseTargets(resp)
}

// parseTargets decodes the InListPassiveTarget 106A target list:
// NbTg then per target Tg, SENS_RES (2), SEL_RES, NFCIDLength, NFCID and,
// for ISO14443-4 cards, the ATS.
func parseTargets(resp []byte) ([]target, error) {
	if len(resp) < 1 {
		return nil, fmt.Errorf("%w: empty target list", explorenfc.ErrFrameCorrupted)
	}

	n := int(resp[0])
	buf := resp[1:]
	targets := make([]target, 0, n)

	for range n {
		if len(buf) < 5 {
			return nil, fmt.Errorf("%w: short target entry", explorenfc.ErrFrameCorrupted)
		}
		t := target{
			tg: buf[0],
			// SENS_RES comes high byte first; the cycle wants received order
			atqa: [2]byte{buf[2], buf[1]},
			sak:  buf[3],
		}
		uidLen := int(buf[4])
		buf = buf[5:]
		if uidLen > explorenfc.MaxUIDLen || len(buf) < uidLen {
			return nil, fmt.Errorf("%w: NFCID of %d bytes", explorenfc.ErrFrameCorrupted, uidLen)
		}
		t.uid = append([]byte(nil), buf[:uidLen]...)
		buf = buf[uidLen:]

		if t.sak&sakISO14443_4 != 0 && len(buf) > 0 {
			atsLen := int(buf[0])
			if atsLen == 0 || atsLen > len(buf) {
				return nil, fmt.Errorf("%w: ATS of %d bytes", explorenfc.ErrFrameCorrupted, atsLen)
			}
			buf = buf[atsLen:]
		}

		targets = append(targets, t)
	}

	return targets, nil
}

// command sends cmd and strips the response code after checking it.
func (d *Device) command(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	resp, err := d.transport.SendCommand(ctx, cmd, args)
	if err != nil {
		return nil, err
	}
	if len(resp) < 1 || resp[0] != cmd+1 {
		return nil, fmt.Errorf("%w: unexpected response to %02X", explorenfc.ErrFrameCorrupted, cmd)
	}
	return resp[1:], nil
}

var errStatus = errors.New("PN532 status")

func statusError(status byte) error {
	switch status & statusMask {
	case statusTimeout, statusNoTarget:
		return explorenfc.ErrNoCard
	case statusCRC:
		return explorenfc.ErrCRC
	case statusCollided:
		return explorenfc.ErrCollision
	case statusParity, statusBadCount, statusFraming:
		return fmt.Errorf("%w: status %02X", explorenfc.ErrCommunicationFailed, status)
	default:
		return fmt.Errorf("%w %02X", errStatus, status&statusMask)
	}
}

func debugf(format string, args ...any) {
	if !explorenfc.DebugEnabled() {
		return
	}
	explorenfc.Logger().Debug().Msgf(format, args...)
}

var (
	_ explorenfc.Transceiver   = (*Device)(nil)
	_ explorenfc.Resetter      = (*Device)(nil)
	_ explorenfc.FieldSwitcher = (*Device)(nil)
)
