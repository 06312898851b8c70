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
	"bytes"
	"errors"
	"sync"

	"github.com/ZaparooProject/go-explorenfc/internal/iso14443a"
)

type cardState int

const (
	cardIdle cardState = iota
	cardReady
	cardActive
	cardHalted
)

// simCard is an Ultralight-like PICC with a 4, 7 or 10 byte UID.
type simCard struct {
	uid        []byte
	atqa       [2]byte
	sak        byte
	pages      [16][4]byte
	nakWriteAt map[byte]bool
	state      cardState
	level      int
}

func newSimUltralight(uid ...byte) *simCard {
	c := &simCard{uid: uid, atqa: [2]byte{0x44, 0x00}, sak: 0x00}
	for i := range c.pages {
		c.pages[i] = [4]byte{byte(i), byte(i), byte(i), byte(i)}
	}
	return c
}

// chunk returns the 4 UID bytes plus BCC the card sends at a cascade level.
func (c *simCard) chunk(level int) []byte {
	var part []byte
	switch {
	case len(c.uid) == 4:
		part = c.uid
	case len(c.uid) == 7 && level == 0:
		part = append([]byte{iso14443a.CascadeTag}, c.uid[:3]...)
	case len(c.uid) == 7:
		part = c.uid[3:7]
	case level == 0:
		part = append([]byte{iso14443a.CascadeTag}, c.uid[:3]...)
	case level == 1:
		part = append([]byte{iso14443a.CascadeTag}, c.uid[3:6]...)
	default:
		part = c.uid[6:10]
	}
	out := append([]byte(nil), part...)
	return append(out, iso14443a.BCC(part))
}

func (c *simCard) levels() int {
	switch len(c.uid) {
	case 4:
		return 1
	case 7:
		return 2
	default:
		return 3
	}
}

// simChip models the register interface of a PN512 with cards in its
// field, enough for the driver's transceive, anticollision and page I/O.
type simChip struct {
	mu sync.Mutex

	regs  [0x40]byte
	fifo  []byte
	cards []*simCard

	version   byte
	collPos   byte
	readErr   error
	transmits int
}

var errBusDown = errors.New("bus down")

func newSimChip(cards ...*simCard) *simChip {
	return &simChip{version: 0x92, cards: cards}
}

func (s *simChip) ReadRegister(reg byte) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return 0, s.readErr
	}

	switch reg {
	case regVersion:
		return s.version, nil
	case regFIFOData:
		if len(s.fifo) == 0 {
			return 0, nil
		}
		b := s.fifo[0]
		s.fifo = s.fifo[1:]
		return b, nil
	case regFIFOLevel:
		return byte(len(s.fifo)), nil
	case regColl:
		return s.collPos, nil
	default:
		return s.regs[reg], nil
	}
}

func (s *simChip) WriteRegister(reg, value byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch reg {
	case regFIFOLevel:
		if value&fifoFlush != 0 {
			s.fifo = nil
		}
	case regFIFOData:
		s.fifo = append(s.fifo, value)
	case regComIrq:
		s.regs[regComIrq] &^= value & irqAll
	case regCommand:
		if value == cmdSoftReset {
			s.regs = [0x40]byte{}
			return nil
		}
		s.regs[regCommand] = value
	case regTxControl:
		wasOn := s.fieldOn()
		s.regs[regTxControl] = value
		if wasOn && !s.fieldOn() {
			for _, c := range s.cards {
				c.state = cardIdle
				c.level = 0
			}
		}
	case regBitFraming:
		s.regs[regBitFraming] = value
		if value&bitFramingStartSend != 0 && s.regs[regCommand] == cmdTransceive {
			s.execute(value&0x07, (value>>4)&0x07)
		}
	default:
		s.regs[reg] = value
	}
	return nil
}

func (*simChip) Close() error { return nil }

func (s *simChip) fieldOn() bool {
	return s.regs[regTxControl]&txControlAntenna == txControlAntenna
}

func (s *simChip) execute(txLastBits, rxAlign byte) {
	tx := s.fifo
	s.fifo = nil
	s.transmits++
	s.regs[regError] = 0
	s.regs[regControl] = 0
	s.collPos = 0

	if !s.fieldOn() || len(tx) == 0 {
		s.silence()
		return
	}

	switch {
	case txLastBits == 7 && len(tx) == 1 && tx[0] == iso14443a.CmdREQA:
		s.requestA()
	case isSelectCmd(tx[0]) && len(tx) == 9 && tx[1] == iso14443a.NVBSelect:
		s.selectCard(tx)
	case isSelectCmd(tx[0]):
		s.anticollision(tx, rxAlign)
	case tx[0] == iso14443a.CmdHLTA:
		if c := s.active(); c != nil {
			c.state = cardHalted
		}
		s.silence()
	case tx[0] == iso14443a.CmdRead && len(tx) == 4:
		s.read(tx[1])
	case tx[0] == iso14443a.CmdWrite && len(tx) == 8:
		s.write(tx[1], [4]byte{tx[2], tx[3], tx[4], tx[5]})
	default:
		s.silence()
	}
}

func isSelectCmd(b byte) bool {
	return b == iso14443a.CmdSelectCL1 || b == iso14443a.CmdSelectCL2 || b == iso14443a.CmdSelectCL3
}

func (s *simChip) silence() {
	s.regs[regComIrq] |= irqTimer
}

func (s *simChip) respond(data []byte, lastBits byte) {
	s.fifo = append([]byte(nil), data...)
	s.regs[regControl] = lastBits
	s.regs[regComIrq] |= irqRx | irqIdle
}

func (s *simChip) requestA() {
	var answers [][]byte
	for _, c := range s.cards {
		if c.state == cardHalted {
			continue
		}
		c.state = cardReady
		c.level = 0
		answers = append(answers, c.atqa[:])
	}
	if len(answers) == 0 {
		s.silence()
		return
	}
	data, pos := mergeBits(answers, 0)
	if pos >= 0 {
		s.regs[regError] |= errCollision
	}
	s.respond(data, 0)
}

func (s *simChip) ready(level int) []*simCard {
	var out []*simCard
	for _, c := range s.cards {
		if c.state == cardReady && c.level == level {
			out = append(out, c)
		}
	}
	return out
}

func levelOf(sel byte) int {
	switch sel {
	case iso14443a.CmdSelectCL1:
		return 0
	case iso14443a.CmdSelectCL2:
		return 1
	default:
		return 2
	}
}

func (s *simChip) anticollision(tx []byte, rxAlign byte) {
	level := levelOf(tx[0])
	known := int(tx[1]>>4-2)*8 + int(tx[1]&0x0F)

	var answers [][]byte
	for _, c := range s.ready(level) {
		if matchesPrefix(c.chunk(level), tx[2:], known) {
			answers = append(answers, c.chunk(level))
		}
	}
	if len(answers) == 0 {
		s.silence()
		return
	}

	data, pos := mergeBits(answers, known)
	if pos >= 0 {
		s.regs[regError] |= errCollision
		s.collPos = byte((pos + 1) & 0x1F)
	}
	s.respond(data, 0)
}

func (s *simChip) selectCard(tx []byte) {
	if !iso14443a.CheckCRC(tx) {
		s.silence()
		return
	}
	level := levelOf(tx[0])

	var selected *simCard
	for _, c := range s.ready(level) {
		if bytes.Equal(c.chunk(level), tx[2:7]) {
			selected = c
			continue
		}
		c.state = cardIdle
	}
	if selected == nil {
		s.silence()
		return
	}

	sak := selected.sak
	if level+1 < selected.levels() {
		sak = iso14443a.SAKCascadeBit
		selected.level++
	} else {
		selected.state = cardActive
	}
	s.respond(iso14443a.AppendCRC([]byte{sak}), 0)
}

func (s *simChip) active() *simCard {
	for _, c := range s.cards {
		if c.state == cardActive {
			return c
		}
	}
	return nil
}

func (s *simChip) read(addr byte) {
	c := s.active()
	if c == nil {
		s.silence()
		return
	}
	if int(addr) >= len(c.pages) {
		s.respond([]byte{0x00}, 4)
		return
	}
	out := make([]byte, 0, 18)
	for i := range 4 {
		p := c.pages[(int(addr)+i)%len(c.pages)]
		out = append(out, p[:]...)
	}
	s.respond(iso14443a.AppendCRC(out), 0)
}

func (s *simChip) write(addr byte, data [4]byte) {
	c := s.active()
	if c == nil {
		s.silence()
		return
	}
	if int(addr) >= len(c.pages) || c.nakWriteAt[addr] {
		s.respond([]byte{0x00}, 4)
		return
	}
	c.pages[addr] = data
	s.respond([]byte{iso14443a.ACK}, 4)
}

// bit returns bit i of b, least significant bit of byte 0 first.
func bit(b []byte, i int) byte {
	return (b[i/8] >> (i % 8)) & 1
}

func matchesPrefix(chunk, prefix []byte, known int) bool {
	for i := range known {
		if i/8 >= len(prefix) || bit(chunk, i) != bit(prefix, i) {
			return false
		}
	}
	return true
}

// mergeBits returns what the reader receives when all answers are sent at
// once starting at bit from: agreeing bits as sent, everything from the
// first disagreement on ORed together. pos is the first colliding bit or -1.
func mergeBits(answers [][]byte, from int) ([]byte, int) {
	n := len(answers[0])
	merged := make([]byte, n)
	pos := -1
	for i := from; i < n*8; i++ {
		var or, and byte = 0, 1
		for _, a := range answers {
			or |= bit(a, i)
			and &= bit(a, i)
		}
		if or != and && pos < 0 {
			pos = i
		}
		merged[i/8] |= or << (i % 8)
	}
	return merged[from/8:], pos
}
