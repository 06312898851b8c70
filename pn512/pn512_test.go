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
	"testing"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	uidA = []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	uidB = []byte{0x04, 0x91, 0x22, 0x33, 0x44, 0x55, 0x67}
)

func newTestDevice(t *testing.T, chip *simChip) *Device {
	t.Helper()

	dev, err := New(chip)
	require.NoError(t, err)
	require.NoError(t, dev.Init(context.Background()))
	require.NoError(t, dev.ApplyProtocol(context.Background(), explorenfc.ProfileISO14443A))
	return dev
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, explorenfc.ErrInvalidParameter)

	_, err = New(newSimChip(), WithConfig(nil))
	require.ErrorIs(t, err, explorenfc.ErrInvalidParameter)

	dev, err := New(newSimChip())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), dev.config)
}

func TestDevice_Init(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		version byte
		wantErr error
	}{
		{name: "MFRC522_v2", version: 0x92},
		{name: "PN512_v2", version: 0x82},
		{name: "Unknown_Version_Accepted", version: 0xB2},
		{name: "Bus_Floating_Low", version: 0x00, wantErr: explorenfc.ErrChipNotFound},
		{name: "Bus_Floating_High", version: 0xFF, wantErr: explorenfc.ErrChipNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chip := newSimChip()
			chip.version = tt.version
			dev, err := New(chip)
			require.NoError(t, err)

			err = dev.Init(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.version, dev.Version())
		})
	}
}

func TestDevice_InitBusError(t *testing.T) {
	t.Parallel()

	chip := newSimChip()
	chip.readErr = errBusDown
	dev, err := New(chip)
	require.NoError(t, err)

	require.ErrorIs(t, dev.Init(context.Background()), errBusDown)
}

func TestDevice_RequestA(t *testing.T) {
	t.Parallel()

	t.Run("Empty_Field", func(t *testing.T) {
		t.Parallel()
		dev := newTestDevice(t, newSimChip())

		_, err := dev.RequestA(context.Background())
		require.ErrorIs(t, err, explorenfc.ErrNoCard)
	})

	t.Run("Ultralight_ATQA_In_Received_Order", func(t *testing.T) {
		t.Parallel()
		dev := newTestDevice(t, newSimChip(newSimUltralight(uidA...)))

		atqa, err := dev.RequestA(context.Background())
		require.NoError(t, err)
		assert.Equal(t, [2]byte{0x44, 0x00}, atqa)
	})

	t.Run("Field_Off_Silences_Cards", func(t *testing.T) {
		t.Parallel()
		dev := newTestDevice(t, newSimChip(newSimUltralight(uidA...)))

		require.NoError(t, dev.FieldOff(context.Background()))
		_, err := dev.RequestA(context.Background())
		require.ErrorIs(t, err, explorenfc.ErrNoCard)
	})
}

func TestDevice_ActivateNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		uid  []byte
	}{
		{name: "Single_Size_UID", uid: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		{name: "Double_Size_UID", uid: uidA},
		{name: "Triple_Size_UID", uid: []byte{0x04, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dev := newTestDevice(t, newSimChip(newSimUltralight(tt.uid...)))

			act, err := dev.ActivateNext(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.uid, act.UID.Bytes())
			assert.Equal(t, byte(0x00), act.SAK)
			assert.False(t, act.More)
		})
	}
}

func TestDevice_ActivateNextResolvesCollision(t *testing.T) {
	t.Parallel()

	chip := newSimChip(newSimUltralight(uidA...), newSimUltralight(uidB...))
	dev := newTestDevice(t, chip)
	ctx := context.Background()

	first, err := dev.ActivateNext(ctx)
	require.NoError(t, err)
	assert.True(t, first.More)
	require.NoError(t, dev.Halt(ctx))

	second, err := dev.ActivateNext(ctx)
	require.NoError(t, err)
	assert.False(t, second.More)
	require.NoError(t, dev.Halt(ctx))

	assert.ElementsMatch(t, [][]byte{uidA, uidB}, [][]byte{first.UID.Bytes(), second.UID.Bytes()})

	_, err = dev.ActivateNext(ctx)
	require.ErrorIs(t, err, explorenfc.ErrNoCard)
}

func TestDevice_ResetFieldWakesHaltedCards(t *testing.T) {
	t.Parallel()

	dev := newTestDevice(t, newSimChip(newSimUltralight(uidA...)))
	ctx := context.Background()

	_, err := dev.ActivateNext(ctx)
	require.NoError(t, err)
	require.NoError(t, dev.Halt(ctx))

	_, err = dev.RequestA(ctx)
	require.ErrorIs(t, err, explorenfc.ErrNoCard)

	require.NoError(t, dev.ResetField(ctx))
	_, err = dev.RequestA(ctx)
	require.NoError(t, err)
}

func TestDevice_PageIO(t *testing.T) {
	t.Parallel()

	card := newSimUltralight(uidA...)
	dev := newTestDevice(t, newSimChip(card))
	ctx := context.Background()

	_, err := dev.ActivateNext(ctx)
	require.NoError(t, err)

	page, err := dev.ReadPage(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, [4]byte{7, 7, 7, 7}, page)

	require.NoError(t, dev.WritePage(ctx, 5, [4]byte{'a', 'b', 'c', 'd'}))
	assert.Equal(t, [4]byte{'a', 'b', 'c', 'd'}, card.pages[5])

	_, err = dev.ReadPage(ctx, 0x40)
	require.ErrorIs(t, err, explorenfc.ErrNAK)

	card.nakWriteAt = map[byte]bool{6: true}
	err = dev.WritePage(ctx, 6, [4]byte{})
	require.ErrorIs(t, err, explorenfc.ErrNAK)
}

func TestDevice_PageIOWithoutCard(t *testing.T) {
	t.Parallel()

	dev := newTestDevice(t, newSimChip())

	_, err := dev.ReadPage(context.Background(), 4)
	require.ErrorIs(t, err, explorenfc.ErrNoCard)

	err = dev.WritePage(context.Background(), 4, [4]byte{})
	require.ErrorIs(t, err, explorenfc.ErrNoCard)
}

func TestDevice_CancelledContext(t *testing.T) {
	t.Parallel()

	chip := newSimChip(newSimUltralight(uidA...))
	dev := newTestDevice(t, chip)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := chip.transmits
	_, err := dev.RequestA(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, chip.transmits)
}

func TestDevice_UnsupportedProfile(t *testing.T) {
	t.Parallel()

	dev, err := New(newSimChip())
	require.NoError(t, err)
	err = dev.ApplyProtocol(context.Background(), explorenfc.Profile(99))
	require.ErrorIs(t, err, explorenfc.ErrInvalidParameter)
}

func TestPoller_TwoUltralightsOnChip(t *testing.T) {
	t.Parallel()

	cardA := newSimUltralight(uidA...)
	cardB := newSimUltralight(uidB...)
	dev := newTestDevice(t, newSimChip(cardA, cardB))

	payload := []byte("hello")
	poller, err := explorenfc.NewPoller(dev,
		explorenfc.WithMode(explorenfc.ModeWrite),
		explorenfc.WithPayload(payload),
		explorenfc.WithLogger(explorenfc.DiscardLogger()),
	)
	require.NoError(t, err)

	result, err := poller.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	want := explorenfc.FillWindow(payload)
	for _, card := range []*simCard{cardA, cardB} {
		var got []byte
		for addr := explorenfc.FirstPage; addr <= explorenfc.LastPage; addr++ {
			got = append(got, card.pages[addr][:]...)
		}
		assert.Equal(t, want[:], got)
	}
	for _, o := range result.Outcomes {
		assert.Equal(t, explorenfc.FamilyUltralight, o.Family)
		assert.Equal(t, want[:], o.Data)
	}
}
