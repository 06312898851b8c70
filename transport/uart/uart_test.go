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

package uart

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/internal/frame"
	"github.com/ZaparooProject/go-explorenfc/pn532"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort plays a PN532 on the other end of the line.
type fakePort struct {
	handler     func(cmd byte, args []byte) []byte
	rx          []byte
	lastFrame   []byte
	writes      [][]byte
	mu          sync.Mutex
	corruptNext int
	noAck       bool
	nacks       int
	acks        int
}

func responseFrame(data []byte) []byte {
	n := byte(len(data) + 1)
	out := []byte{0x00, 0x00, 0xFF, n, frame.CalculateLengthChecksum(n), frame.Pn532ToHost}
	out = append(out, data...)
	return append(out, frame.CalculateDataChecksum(frame.Pn532ToHost, data), 0x00)
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writes = append(p.writes, append([]byte(nil), b...))

	switch {
	case bytes.Equal(b, frame.AckFrame):
		p.acks++
	case bytes.Equal(b, frame.NackFrame):
		p.nacks++
		p.queueResponse()
	case len(b) > 6 && b[0] == 0x00 && b[2] == 0xFF && b[5] == frame.HostToPn532:
		if p.noAck {
			return len(b), nil
		}
		p.rx = append(p.rx, frame.AckFrame...)
		p.lastFrame = p.handler(b[6], b[7:len(b)-2])
		p.queueResponse()
	}
	return len(b), nil
}

func (p *fakePort) queueResponse() {
	out := responseFrame(p.lastFrame)
	if p.corruptNext > 0 {
		p.corruptNext--
		out[len(out)-2]++
	}
	p.rx = append(p.rx, out...)
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.rx) == 0 {
		p.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	defer p.mu.Unlock()

	// hand out at most 5 bytes per read so frames arrive split
	n := copy(b[:min(len(b), 5)], p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

func (*fakePort) Drain() error                       { return nil }
func (*fakePort) SetReadTimeout(time.Duration) error { return nil }
func (*fakePort) Close() error                       { return nil }

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx = nil
	return nil
}

func firmwareHandler(cmd byte, _ []byte) []byte {
	return []byte{cmd + 1, 0x32, 0x01, 0x06, 0x07}
}

func TestTransport_SendCommand(t *testing.T) {
	t.Parallel()

	p := &fakePort{handler: firmwareHandler}
	tr := newTransport(p, "/dev/ttyUSB0")

	resp, err := tr.SendCommand(context.Background(), 0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x32, 0x01, 0x06, 0x07}, resp)
	assert.Equal(t, 1, p.acks)

	// first write is the wake-up preamble
	require.NotEmpty(t, p.writes)
	assert.Equal(t, byte(0x55), p.writes[0][0])
}

func TestTransport_WakesOnlyOnce(t *testing.T) {
	t.Parallel()

	p := &fakePort{handler: firmwareHandler}
	tr := newTransport(p, "/dev/ttyUSB0")

	for range 2 {
		_, err := tr.SendCommand(context.Background(), 0x02, nil)
		require.NoError(t, err)
	}

	wakes := 0
	for _, w := range p.writes {
		if w[0] == 0x55 {
			wakes++
		}
	}
	assert.Equal(t, 1, wakes)
}

func TestTransport_NacksCorruptedFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr   error
		name      string
		corrupt   int
		wantNacks int
	}{
		{name: "Recovers_After_One_NACK", corrupt: 1, wantNacks: 1},
		{name: "Recovers_After_Two_NACKs", corrupt: 2, wantNacks: 2},
		{name: "Gives_Up", corrupt: 5, wantNacks: frameRetries, wantErr: explorenfc.ErrFrameCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &fakePort{handler: firmwareHandler, corruptNext: tt.corrupt}
			tr := newTransport(p, "/dev/ttyUSB0")

			_, err := tr.SendCommand(context.Background(), 0x02, nil)
			assert.Equal(t, tt.wantNacks, p.nacks)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransport_NoACK(t *testing.T) {
	t.Parallel()

	p := &fakePort{handler: firmwareHandler, noAck: true}
	tr := newTransport(p, "/dev/ttyUSB0")
	require.NoError(t, tr.SetTimeout(10*time.Millisecond))

	_, err := tr.SendCommand(context.Background(), 0x02, nil)
	require.ErrorIs(t, err, explorenfc.ErrNoACK)
}

func TestTransport_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakePort{handler: firmwareHandler}
	tr := newTransport(p, "/dev/ttyUSB0")

	start := time.Now()
	_, err := tr.SendCommand(ctx, 0x02, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
	assert.Empty(t, p.writes)
}

func TestTransport_Closed(t *testing.T) {
	t.Parallel()

	tr := newTransport(&fakePort{handler: firmwareHandler}, "/dev/ttyUSB0")
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	_, err := tr.SendCommand(context.Background(), 0x02, nil)
	require.ErrorIs(t, err, explorenfc.ErrCommunicationFailed)
	assert.Equal(t, pn532.TransportUART, tr.Type())
}

func TestTransport_DrivesPN532(t *testing.T) {
	t.Parallel()

	p := &fakePort{handler: func(cmd byte, _ []byte) []byte {
		if cmd == 0x02 {
			return []byte{0x03, 0x32, 0x01, 0x06, 0x07}
		}
		return []byte{cmd + 1}
	}}

	dev, err := pn532.New(newTransport(p, "/dev/ttyUSB0"))
	require.NoError(t, err)
	require.NoError(t, dev.Init(context.Background()))
	assert.Equal(t, byte(0x32), dev.Firmware().IC)
}
