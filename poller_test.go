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
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	err      error
	outcomes []Outcome
	mu       sync.Mutex
}

func (s *recordingSink) Emit(o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
	return s.err
}

func (s *recordingSink) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.outcomes)
}

func newTestPoller(t *testing.T, mock Transceiver, opts ...Option) (*Poller, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	opts = append([]Option{WithSink(sink), WithLogger(DiscardLogger())}, opts...)
	p, err := NewPoller(mock, opts...)
	require.NoError(t, err)
	return p, sink
}

func TestRunCycle_EmptyField(t *testing.T) {
	t.Parallel()

	mock := NewMockTransceiver()
	p, sink := newTestPoller(t, mock)

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Cards)
	assert.Empty(t, result.Outcomes)
	assert.Empty(t, sink.Outcomes())
	assert.Equal(t, []string{"ResetField", "ApplyProtocol", "RequestA"}, mock.Calls())
}

func TestRunCycle_ReadSingleUltralight(t *testing.T) {
	t.Parallel()

	mock := NewMockTransceiver(NewMockUltralight(0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6))
	p, sink := newTestPoller(t, mock)

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Cards)
	require.Len(t, result.Outcomes, 1)

	o := result.Outcomes[0]
	assert.Equal(t, ModeRead, o.Mode)
	assert.Equal(t, "04A1B2C3D4E5F6", o.Card.UID.String())
	assert.Equal(t, FamilyUltralight, o.Family)
	assert.True(t, o.Eligible)
	require.Len(t, o.Data, WindowSize)
	assert.Equal(t, byte(FirstPage), o.Data[0])
	assert.Equal(t, byte(LastPage), o.Data[WindowSize-1])
	assert.Equal(t, result.Outcomes, sink.Outcomes())

	want := []string{"ResetField", "ApplyProtocol", "RequestA", "ResetField", "ActivateNext"}
	for range PageCount {
		want = append(want, "ReadPage")
	}
	want = append(want, "Halt")
	assert.Equal(t, want, mock.Calls())
}

func TestRunCycle_MultipleCards(t *testing.T) {
	t.Parallel()

	classic := &MockCard{UID: NewUID([]byte{0xDE, 0xAD, 0xBE, 0xEF}), SAK: 0x08}
	mock := NewMockTransceiver(
		NewMockUltralight(0x04, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06),
		classic,
		NewMockUltralight(0x04, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16),
	)
	p, sink := newTestPoller(t, mock)

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Cards)

	outcomes := sink.Outcomes()
	require.Len(t, outcomes, 3)
	assert.Equal(t, "04010203040506", outcomes[0].Card.UID.String())
	assert.Equal(t, "DEADBEEF", outcomes[1].Card.UID.String())
	assert.Equal(t, "04111213141516", outcomes[2].Card.UID.String())

	assert.False(t, outcomes[1].Eligible)
	assert.Nil(t, outcomes[1].Data, "ineligible cards carry no page data")
	assert.NotNil(t, outcomes[2].Data)

	halts := 0
	for _, c := range mock.Calls() {
		if c == "Halt" {
			halts++
		}
	}
	assert.Equal(t, 3, halts)
}

func TestRunCycle_Write(t *testing.T) {
	t.Parallel()

	first := NewMockUltralight(0x04, 0x01, 0x02, 0x03)
	second := NewMockUltralight(0x04, 0x05, 0x06, 0x07)
	mock := NewMockTransceiver(first, second)
	payload := []byte("explore")
	p, sink := newTestPoller(t, mock, WithMode(ModeWrite), WithPayload(payload))

	_, err := p.RunCycle(context.Background())
	require.NoError(t, err)

	window := FillWindow(payload)
	for _, o := range sink.Outcomes() {
		assert.Equal(t, ModeWrite, o.Mode)
		assert.Equal(t, window[:], o.Data)
	}
	for _, card := range []*MockCard{first, second} {
		assert.Equal(t, [4]byte{'e', 'x', 'p', 'l'}, card.Pages[FirstPage])
		assert.Equal(t, [4]byte{'o', 'r', 'e', 0}, card.Pages[FirstPage+1])
		assert.Equal(t, [4]byte{}, card.Pages[LastPage])
	}
}

func TestRunCycle_TransferFailure(t *testing.T) {
	t.Parallel()

	broken := NewMockUltralight(0x04, 0x01, 0x02, 0x03)
	broken.FailPage = 7
	broken.FailErr = ErrNoCard
	mock := NewMockTransceiver(broken, NewMockUltralight(0x04, 0x05, 0x06, 0x07))
	p, sink := newTestPoller(t, mock)

	result, err := p.RunCycle(context.Background())
	require.ErrorIs(t, err, ErrTransfer)
	assert.Equal(t, 2, result.Cards)

	outcomes := sink.Outcomes()
	require.Len(t, outcomes, 1, "the failed card is not emitted")
	assert.Equal(t, "04050607", outcomes[0].Card.UID.String())
}

func TestRunCycle_ActivationFailure(t *testing.T) {
	t.Parallel()

	mock := NewMockTransceiver(
		NewMockUltralight(0x01, 0x02, 0x03, 0x04),
		NewMockUltralight(0x05, 0x06, 0x07, 0x08),
	)
	mock.ActivateErrAt = 1
	mock.ActivateErr = ErrCollision
	p, sink := newTestPoller(t, mock)

	result, err := p.RunCycle(context.Background())
	require.ErrorIs(t, err, ErrActivation)
	assert.Equal(t, 1, result.Cards)
	assert.Len(t, sink.Outcomes(), 1)
}

func TestRunCycle_FirstActivationFailureIsEmptyField(t *testing.T) {
	t.Parallel()

	mock := NewMockTransceiver(NewMockUltralight(0x01, 0x02, 0x03, 0x04))
	mock.ActivateErrAt = 0
	mock.ActivateErr = ErrCollision
	p, _ := newTestPoller(t, mock)

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Cards)
}

func TestRunCycle_RequestFailure(t *testing.T) {
	t.Parallel()

	mock := NewMockTransceiver(NewMockUltralight(0x01, 0x02, 0x03, 0x04))
	mock.RequestErr = ErrCommunicationFailed
	p, sink := newTestPoller(t, mock)

	_, err := p.RunCycle(context.Background())
	require.ErrorIs(t, err, ErrCommunicationFailed)
	assert.Empty(t, sink.Outcomes())
}

func TestRunCycle_SinkErrorDoesNotFailCycle(t *testing.T) {
	t.Parallel()

	mock := NewMockTransceiver(NewMockUltralight(0x01, 0x02, 0x03, 0x04))
	p, sink := newTestPoller(t, mock)
	sink.err = errors.New("stdout closed")

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Outcomes, 1)
}

// cancellingTransceiver cancels the run once RequestA has been called
// stopAfter times.
type cancellingTransceiver struct {
	*MockTransceiver
	cancel    context.CancelFunc
	requests  int
	stopAfter int
}

func (c *cancellingTransceiver) RequestA(ctx context.Context) ([2]byte, error) {
	c.requests++
	if c.requests == c.stopAfter {
		c.cancel()
	}
	return c.MockTransceiver.RequestA(ctx)
}

func TestRun_RecoversOncePerFailedCycle(t *testing.T) {
	t.Parallel()

	broken := NewMockUltralight(0x01, 0x02, 0x03, 0x04)
	broken.FailPage = FirstPage
	broken.FailErr = ErrCRC

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := &cancellingTransceiver{MockTransceiver: NewMockTransceiver(broken), cancel: cancel, stopAfter: 3}
	p, _ := newTestPoller(t, tr, WithInterval(time.Millisecond))

	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, tr.SoftResets(), "cycles 1 and 2 failed, cycle 3 was cancelled")
}

func TestRun_NoRecoveryWithoutCard(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := &cancellingTransceiver{MockTransceiver: NewMockTransceiver(), cancel: cancel, stopAfter: 3}
	p, _ := newTestPoller(t, tr, WithInterval(time.Millisecond))

	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, tr.SoftResets())
	assert.Equal(t, 3, tr.requests)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := NewMockTransceiver(NewMockUltralight(0x01, 0x02, 0x03, 0x04))
	p, _ := newTestPoller(t, mock)

	require.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Empty(t, mock.Calls())
}

func TestNewPoller_Options(t *testing.T) {
	t.Parallel()

	mock := NewMockTransceiver()

	_, err := NewPoller(nil)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewPoller(mock, WithInterval(0))
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewPoller(mock, WithMode("scan"))
	require.ErrorIs(t, err, ErrInvalidParameter)

	p, err := NewPoller(mock)
	require.NoError(t, err)
	assert.Equal(t, ModeRead, p.Mode())
	assert.Equal(t, DefaultInterval, p.interval)

	payload := []byte("abc")
	p, err = NewPoller(mock, WithMode(ModeWrite), WithPayload(payload))
	require.NoError(t, err)
	payload[0] = 'x'
	assert.Equal(t, []byte("abc"), p.payload, "payload is copied")
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	mode, err := ParseMode("poll")
	require.NoError(t, err)
	assert.Equal(t, ModeRead, mode)

	mode, err = ParseMode("write")
	require.NoError(t, err)
	assert.Equal(t, ModeWrite, mode)

	_, err = ParseMode("read")
	require.ErrorIs(t, err, ErrInvalidParameter)
}
