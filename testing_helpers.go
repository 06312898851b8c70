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
	"sync"
)

// MockCard is a card held in a MockTransceiver's field.
type MockCard struct {
	// FailErr is returned by page operations on FailPage.
	FailErr  error
	Pages    map[byte][4]byte
	UID      UID
	SAK      byte
	FailPage byte
}

// NewMockUltralight returns a page eligible card whose pages hold their own
// address in every byte.
func NewMockUltralight(uid ...byte) *MockCard {
	card := &MockCard{UID: NewUID(uid), Pages: make(map[byte][4]byte)}
	for page := byte(0); page <= LastPage; page++ {
		card.Pages[page] = [4]byte{page, page, page, page}
	}
	return card
}

// MockTransceiver is a scriptable Transceiver for tests. Cards are
// activated in slice order; a field reset restarts activation from the
// first card.
//
// Thread Safety: all methods are safe for concurrent use.
type MockTransceiver struct {
	RequestErr    error
	ResetErr      error
	ApplyErr      error
	ActivateErr   error
	SoftResetErr  error
	selected      *MockCard
	Cards         []*MockCard
	calls         []string
	ATQA          [2]byte
	ActivateErrAt int
	next          int
	softResets    int
	mu            sync.Mutex
}

// NewMockTransceiver returns a transceiver holding cards that answer the
// field request with the Ultralight ATQA.
func NewMockTransceiver(cards ...*MockCard) *MockTransceiver {
	return &MockTransceiver{Cards: cards, ATQA: [2]byte{0x44, 0x00}, ActivateErrAt: -1}
}

func (m *MockTransceiver) record(call string) {
	m.calls = append(m.calls, call)
}

// Calls returns the recorded call names in order
func (m *MockTransceiver) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// SoftResets returns how many soft resets were issued
func (m *MockTransceiver) SoftResets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.softResets
}

func (m *MockTransceiver) ResetField(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ResetField")
	m.next = 0
	m.selected = nil
	return m.ResetErr
}

func (m *MockTransceiver) ApplyProtocol(_ context.Context, _ Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ApplyProtocol")
	return m.ApplyErr
}

func (m *MockTransceiver) RequestA(context.Context) ([2]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("RequestA")
	if m.RequestErr != nil {
		return [2]byte{}, m.RequestErr
	}
	if len(m.Cards) == 0 {
		return [2]byte{}, ErrNoCard
	}
	return m.ATQA, nil
}

func (m *MockTransceiver) ActivateNext(context.Context) (Activation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ActivateNext")

	if m.ActivateErr != nil && m.next == m.ActivateErrAt {
		return Activation{}, m.ActivateErr
	}
	if m.next >= len(m.Cards) {
		return Activation{}, ErrNoCard
	}

	card := m.Cards[m.next]
	m.next++
	m.selected = card
	return Activation{UID: card.UID, SAK: card.SAK, More: m.next < len(m.Cards)}, nil
}

func (m *MockTransceiver) Halt(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Halt")
	m.selected = nil
	return nil
}

func (m *MockTransceiver) ReadPage(_ context.Context, addr byte) ([4]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ReadPage")

	card := m.selected
	if card == nil {
		return [4]byte{}, ErrNoCard
	}
	if card.FailErr != nil && card.FailPage == addr {
		return [4]byte{}, card.FailErr
	}
	return card.Pages[addr], nil
}

func (m *MockTransceiver) WritePage(_ context.Context, addr byte, data [4]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("WritePage")

	card := m.selected
	if card == nil {
		return ErrNoCard
	}
	if card.FailErr != nil && card.FailPage == addr {
		return card.FailErr
	}
	card.Pages[addr] = data
	return nil
}

func (m *MockTransceiver) SoftReset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SoftReset")
	m.softResets++
	return m.SoftResetErr
}

func (m *MockTransceiver) FieldOff(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FieldOff")
	return nil
}

var (
	_ Transceiver   = (*MockTransceiver)(nil)
	_ Resetter      = (*MockTransceiver)(nil)
	_ FieldSwitcher = (*MockTransceiver)(nil)
)
