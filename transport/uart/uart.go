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

// Package uart provides the UART (HSU) transport for PN532 readers
package uart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/internal/frame"
	"github.com/ZaparooProject/go-explorenfc/internal/retry"
	"github.com/ZaparooProject/go-explorenfc/pn532"
	"go.bug.st/serial"
)

const (
	baudRate       = 115200
	readTimeout    = 20 * time.Millisecond
	defaultTimeout = 100 * time.Millisecond
	// wakeDelay is the pause after a command before the chip answers
	// reliably on cheap boards.
	wakeDelay = 6 * time.Millisecond
	// frameRetries is how often a corrupted response is NACKed.
	frameRetries = 2
)

// port is the subset of serial.Port the transport uses
type port interface {
	io.ReadWriteCloser
	Drain() error
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
}

// Transport implements pn532.Transport over a serial port.
type Transport struct {
	port     port
	portName string
	// pending holds bytes read behind the ACK
	pending []byte
	timeout time.Duration
	mu      sync.Mutex
	awake   bool
}

// New opens portName at 115200 8N1.
func New(portName string) (*Transport, error) {
	p, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	return newTransport(p, portName), nil
}

func newTransport(p port, portName string) *Transport {
	return &Transport{
		port:     p,
		portName: portName,
		timeout:  defaultTimeout,
	}
}

// SendCommand sends cmd and returns the response data
func (t *Transport) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil, fmt.Errorf("%w: port %s not open", explorenfc.ErrCommunicationFailed, t.portName)
	}

	if !t.awake {
		if err := t.wakeUp(); err != nil {
			return nil, err
		}
		t.awake = true
	}

	out, err := frame.Encode(cmd, args)
	if err != nil {
		return nil, err
	}
	if err := t.write(out); err != nil {
		return nil, err
	}

	if err := t.waitAck(ctx); err != nil {
		return nil, err
	}

	if err := sleep(ctx, wakeDelay); err != nil {
		return nil, err
	}

	resp, err := retry.Do(ctx, retry.Config{MaxRetries: frameRetries, OnRetry: t.sendNack},
		func() ([]byte, bool, error) {
			data, err := t.readFrame(ctx)
			if errors.Is(err, explorenfc.ErrFrameCorrupted) {
				debugf("uart %s: %v, sending NACK", t.portName, err)
				return nil, true, nil
			}
			return data, false, err
		})
	if errors.Is(err, retry.ErrExhausted) {
		return nil, fmt.Errorf("%w: response to %02X", explorenfc.ErrFrameCorrupted, cmd)
	}
	if err != nil {
		return nil, err
	}

	if err := t.write(frame.AckFrame); err != nil {
		return nil, err
	}
	return resp, nil
}

// SetTimeout sets how long to wait for the ACK and the response
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", explorenfc.ErrInvalidParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close closes the serial port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

// wakeUp sends the HSU wake-up preamble: 0x55 followed by zeros.
func (t *Transport) wakeUp() error {
	preamble := make([]byte, 16)
	preamble[0] = 0x55
	if err := t.write(preamble); err != nil {
		return fmt.Errorf("UART wake up: %w", err)
	}
	return nil
}

func (t *Transport) write(data []byte) error {
	n, err := t.port.Write(data)
	if err != nil {
		return fmt.Errorf("%w: UART write: %w", explorenfc.ErrCommunicationFailed, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: short UART write (%d of %d)", explorenfc.ErrCommunicationFailed, n, len(data))
	}
	if err := t.port.Drain(); err != nil {
		return fmt.Errorf("%w: UART drain: %w", explorenfc.ErrCommunicationFailed, err)
	}
	return nil
}

func (t *Transport) sendNack() error {
	t.pending = nil
	if err := t.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("%w: UART reset input: %w", explorenfc.ErrCommunicationFailed, err)
	}
	return t.write(frame.NackFrame)
}

// waitAck reads until an ACK frame shows up or the timeout passes.
func (t *Transport) waitAck(ctx context.Context) error {
	var buf []byte
	deadline := time.Now().Add(t.timeout)

	for time.Now().Before(deadline) {
		chunk, err := t.readChunk(ctx)
		if err != nil {
			return err
		}
		buf = append(buf, chunk...)
		if idx := bytes.Index(buf, frame.AckFrame); idx >= 0 {
			t.pending = append([]byte(nil), buf[idx+len(frame.AckFrame):]...)
			return nil
		}
	}
	return fmt.Errorf("%w: port %s", explorenfc.ErrNoACK, t.portName)
}

// readFrame reads until the buffer holds a complete frame and decodes it.
func (t *Transport) readFrame(ctx context.Context) ([]byte, error) {
	buf := t.pending
	t.pending = nil
	deadline := time.Now().Add(t.timeout)

	for time.Now().Before(deadline) {
		if len(buf) > 0 {
			data, needMore, err := frame.Decode(buf)
			if !needMore {
				return data, err
			}
		}

		chunk, err := t.readChunk(ctx)
		if err != nil {
			return nil, err
		}
		buf = append(buf, chunk...)
	}
	return nil, fmt.Errorf("%w: port %s", explorenfc.ErrTransportTimeout, t.portName)
}

func (t *Transport) readChunk(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, 64)
	n, err := t.port.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: UART read: %w", explorenfc.ErrCommunicationFailed, err)
	}
	return buf[:n], nil
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func debugf(format string, args ...any) {
	if !explorenfc.DebugEnabled() {
		return
	}
	explorenfc.Logger().Debug().Msgf(format, args...)
}

var _ pn532.Transport = (*Transport)(nil)
