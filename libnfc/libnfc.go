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

//go:build libnfc

// Package libnfc implements explorenfc.Transceiver on any reader libnfc
// supports. It needs the libnfc C library and the libnfc build tag.
package libnfc

import (
	"context"
	"errors"
	"fmt"
	"time"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/internal/iso14443a"
	"github.com/clausecker/nfc/v2"
)

const (
	// transceiveTimeout is the libnfc command timeout in milliseconds.
	transceiveTimeout = 100
	fieldOffTime      = 5 * time.Millisecond
)

var modulation = nfc.Modulation{Type: nfc.ISO14443a, BaudRate: nfc.Nbr106}

// initiator is the part of *nfc.Device the driver uses
type initiator interface {
	InitiatorInit() error
	SetPropertyBool(property int, value bool) error
	InitiatorListPassiveTargets(m nfc.Modulation) ([]nfc.Target, error)
	InitiatorSelectPassiveTarget(m nfc.Modulation, initData []byte) (nfc.Target, error)
	InitiatorTransceiveBytes(tx, rx []byte, timeout int) (int, error)
	InitiatorDeselectTarget() error
	Close() error
}

// Device drives a libnfc device in initiator mode.
//
// Thread Safety: Device is NOT thread-safe.
type Device struct {
	dev      initiator
	pending  [][]byte
	selected bool
}

// Open opens the libnfc connection string conn ("" picks the first device)
// and puts it in initiator mode. Errors are *explorenfc.StartupError.
func Open(conn string) (*Device, error) {
	dev, err := nfc.Open(conn)
	if err != nil {
		return nil, explorenfc.NewStartupError(explorenfc.StagePortOpen,
			fmt.Errorf("failed to open libnfc device %q: %w", conn, err))
	}

	d := &Device{dev: dev}
	if err := d.dev.InitiatorInit(); err != nil {
		_ = dev.Close()
		return nil, explorenfc.NewStartupError(explorenfc.StageChipInit,
			fmt.Errorf("initiator init: %w", err))
	}
	if err := d.configure(); err != nil {
		_ = dev.Close()
		return nil, explorenfc.NewStartupError(explorenfc.StageProtocolConfig, err)
	}
	return d, nil
}

func (d *Device) configure() error {
	props := []struct {
		prop  int
		value bool
	}{
		{nfc.InfiniteSelect, false},
		{nfc.HandleCRC, true},
		{nfc.EasyFraming, true},
	}
	for _, p := range props {
		if err := d.dev.SetPropertyBool(p.prop, p.value); err != nil {
			return fmt.Errorf("set property %d: %w", p.prop, err)
		}
	}
	return nil
}

// Close closes the device
func (d *Device) Close() error {
	if err := d.dev.Close(); err != nil {
		return fmt.Errorf("close libnfc device: %w", err)
	}
	return nil
}

// SoftReset re-runs initiator init, which resets the chip's RF settings.
func (d *Device) SoftReset(_ context.Context) error {
	d.pending = nil
	d.selected = false
	if err := d.dev.InitiatorInit(); err != nil {
		return fmt.Errorf("initiator init: %w", err)
	}
	return d.configure()
}

// ResetField switches the field off and on again
func (d *Device) ResetField(ctx context.Context) error {
	if err := d.FieldOff(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(fieldOffTime):
	}
	return d.setField(true)
}

// FieldOff switches the field off
func (d *Device) FieldOff(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.setField(false)
}

func (d *Device) setField(on bool) error {
	if err := d.dev.SetPropertyBool(nfc.ActivateField, on); err != nil {
		return fmt.Errorf("set field %t: %w", on, err)
	}
	return nil
}

// ApplyProtocol switches the field on; libnfc picks the Type A settings
// from the modulation of each call.
func (d *Device) ApplyProtocol(ctx context.Context, profile explorenfc.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile != explorenfc.ProfileISO14443A {
		return fmt.Errorf("%w: unsupported profile %s", explorenfc.ErrInvalidParameter, profile)
	}
	return d.setField(true)
}

// RequestA lists the Type A targets in the field, remembers their UIDs for
// ActivateNext and returns the first ATQA in received order.
func (d *Device) RequestA(ctx context.Context) ([2]byte, error) {
	d.pending = nil
	d.selected = false

	if err := ctx.Err(); err != nil {
		return [2]byte{}, err
	}

	targets, err := d.dev.InitiatorListPassiveTargets(modulation)
	if err != nil {
		return [2]byte{}, mapError(err)
	}

	var atqa [2]byte
	for _, t := range targets {
		isoA, ok := t.(*nfc.ISO14443aTarget)
		if !ok {
			continue
		}
		if len(d.pending) == 0 {
			atqa = swapATQA(isoA.Atqa)
		}
		d.pending = append(d.pending, append([]byte(nil), isoA.UID[:isoA.UIDLen]...))
	}
	if len(d.pending) == 0 {
		return [2]byte{}, explorenfc.ErrNoCard
	}
	return atqa, nil
}

// ActivateNext selects the next UID listed by RequestA.
func (d *Device) ActivateNext(ctx context.Context) (explorenfc.Activation, error) {
	if err := ctx.Err(); err != nil {
		return explorenfc.Activation{}, err
	}
	if len(d.pending) == 0 {
		return explorenfc.Activation{}, explorenfc.ErrNoCard
	}

	uid := d.pending[0]
	d.pending = d.pending[1:]

	t, err := d.dev.InitiatorSelectPassiveTarget(modulation, uid)
	if err != nil {
		return explorenfc.Activation{}, mapError(err)
	}
	isoA, ok := t.(*nfc.ISO14443aTarget)
	if !ok {
		return explorenfc.Activation{}, fmt.Errorf("%w: selected target is not ISO14443A", explorenfc.ErrFrameCorrupted)
	}
	d.selected = true

	return explorenfc.Activation{
		UID:  explorenfc.NewUID(isoA.UID[:isoA.UIDLen]),
		SAK:  isoA.Sak,
		More: len(d.pending) > 0,
	}, nil
}

// Halt deselects the current target
func (d *Device) Halt(_ context.Context) error {
	if !d.selected {
		return nil
	}
	d.selected = false
	if err := d.dev.InitiatorDeselectTarget(); err != nil {
		return fmt.Errorf("deselect: %w", mapError(err))
	}
	return nil
}

// ReadPage sends READ and returns the first of the four pages
func (d *Device) ReadPage(ctx context.Context, addr byte) ([4]byte, error) {
	var page [4]byte
	if err := ctx.Err(); err != nil {
		return page, err
	}

	rx := make([]byte, iso14443a.ReadResponseSize)
	n, err := d.dev.InitiatorTransceiveBytes([]byte{iso14443a.CmdRead, addr}, rx, transceiveTimeout)
	if err != nil {
		return page, mapError(err)
	}
	if n < len(page) {
		return page, fmt.Errorf("%w: READ returned %d bytes", explorenfc.ErrFrameCorrupted, n)
	}
	copy(page[:], rx)
	return page, nil
}

// WritePage sends WRITE; the chip consumes the ACK.
func (d *Device) WritePage(ctx context.Context, addr byte, data [4]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := []byte{iso14443a.CmdWrite, addr, data[0], data[1], data[2], data[3]}
	rx := make([]byte, 1)
	if _, err := d.dev.InitiatorTransceiveBytes(tx, rx, transceiveTimeout); err != nil {
		return mapError(err)
	}
	return nil
}

// swapATQA turns libnfc's SENS_RES (high byte first) into received order.
func swapATQA(atqa [2]byte) [2]byte {
	return [2]byte{atqa[1], atqa[0]}
}

func mapError(err error) error {
	var nfcErr nfc.Error
	if errors.As(err, &nfcErr) && nfcErr == nfc.Error(nfc.ETIMEOUT) {
		return explorenfc.ErrNoCard
	}
	return fmt.Errorf("%w: %w", explorenfc.ErrCommunicationFailed, err)
}

var (
	_ explorenfc.Transceiver   = (*Device)(nil)
	_ explorenfc.Resetter      = (*Device)(nil)
	_ explorenfc.FieldSwitcher = (*Device)(nil)
)
