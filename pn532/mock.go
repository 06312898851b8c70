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
	"sync"
	"time"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
)

// MockTransport is an in-memory Transport for tests. Responses are looked
// up per command; a response function, when set, answers everything else.
type MockTransport struct {
	responses    map[byte][]byte
	errors       map[byte]error
	calls        map[byte]int
	responseFunc func(cmd byte, args []byte) ([]byte, error)
	timeout      time.Duration
	mu           sync.Mutex
	closed       bool
}

// NewMockTransport creates an empty mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][]byte),
		errors:    make(map[byte]error),
		calls:     make(map[byte]int),
		timeout:   time.Second,
	}
}

// SendCommand returns the configured response or error for cmd
func (m *MockTransport) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, explorenfc.ErrCommunicationFailed
	}
	m.calls[cmd]++

	if err, ok := m.errors[cmd]; ok {
		return nil, err
	}
	if resp, ok := m.responses[cmd]; ok {
		return append([]byte(nil), resp...), nil
	}
	if m.responseFunc != nil {
		return m.responseFunc(cmd, args)
	}
	return nil, explorenfc.ErrTransportTimeout
}

// SetResponse configures the response for cmd
func (m *MockTransport) SetResponse(cmd byte, resp []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = resp
	delete(m.errors, cmd)
}

// SetError configures an error for cmd
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[cmd] = err
}

// ClearError removes the error configured for cmd
func (m *MockTransport) ClearError(cmd byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errors, cmd)
}

// SetResponseFunc answers commands without a fixed response
func (m *MockTransport) SetResponseFunc(fn func(cmd byte, args []byte) ([]byte, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseFunc = fn
}

// GetCallCount returns how often cmd was sent
func (m *MockTransport) GetCallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[cmd]
}

// SetTimeout records the timeout
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// Close marks the transport closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

var _ Transport = (*MockTransport)(nil)
