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

package testing

import (
	"errors"
	"sync"
)

// ErrUnknownCommand is returned by VirtualReader for commands it does not
// emulate.
var ErrUnknownCommand = errors.New("virtual reader: unknown command")

const (
	statusTimeout = 0x01
	statusNAK     = 0x14
	statusBadTg   = 0x27
)

// VirtualTag is a simulated card with a page-addressed memory
type VirtualTag struct {
	UID   []byte
	Pages [][4]byte
	// NAKWrites lists page addresses whose WRITE is refused.
	NAKWrites map[byte]bool
	ATQA      [2]byte // received order
	SAK       byte
	Present   bool
	halted    bool
}

// NewVirtualUltralight creates a MIFARE Ultralight with 16 pages, page n
// filled with the byte n.
func NewVirtualUltralight(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestUltralightUID
	}

	tag := &VirtualTag{
		UID:     append([]byte(nil), uid...),
		Pages:   make([][4]byte, 16),
		ATQA:    [2]byte{0x44, 0x00},
		SAK:     0x00,
		Present: true,
	}
	for i := range tag.Pages {
		b := byte(i)
		tag.Pages[i] = [4]byte{b, b, b, b}
	}
	return tag
}

// NewVirtualMIFARE1K creates a MIFARE Classic 1K. Page commands on it are
// answered with a NAK.
func NewVirtualMIFARE1K(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestMIFARE1KUID
	}
	return &VirtualTag{
		UID:     append([]byte(nil), uid...),
		ATQA:    [2]byte{0x04, 0x00},
		SAK:     0x08,
		Present: true,
	}
}

// Read returns the 16 bytes starting at page addr, wrapping at the end of
// memory.
func (v *VirtualTag) Read(addr byte) ([]byte, bool) {
	if int(addr) >= len(v.Pages) {
		return nil, false
	}
	out := make([]byte, 0, 16)
	for i := range 4 {
		p := v.Pages[(int(addr)+i)%len(v.Pages)]
		out = append(out, p[:]...)
	}
	return out, true
}

// Write stores one page
func (v *VirtualTag) Write(addr byte, data [4]byte) bool {
	if int(addr) >= len(v.Pages) || v.NAKWrites[addr] {
		return false
	}
	v.Pages[addr] = data
	return true
}

// VirtualReader answers PN532 commands for a set of virtual tags. Plug its
// Handle method into a mock transport.
type VirtualReader struct {
	tags     []*VirtualTag
	targets  []*VirtualTag
	commands []byte
	mu       sync.Mutex
	fieldOn  bool
}

// NewVirtualReader creates a reader with tags in its field
func NewVirtualReader(tags ...*VirtualTag) *VirtualReader {
	return &VirtualReader{tags: tags}
}

// Commands returns the command codes received so far
func (r *VirtualReader) Commands() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.commands...)
}

// Handle emulates one command and returns the response data
func (r *VirtualReader) Handle(cmd byte, args []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands = append(r.commands, cmd)

	switch cmd {
	case CmdGetFirmwareVersion:
		return BuildFirmwareVersionResponse(), nil
	case CmdSAMConfiguration:
		return BuildSAMConfigurationResponse(), nil
	case CmdRFConfiguration:
		if len(args) >= 2 && args[0] == 0x01 {
			r.setField(args[1]&0x01 != 0)
		}
		return BuildRFConfigurationResponse(), nil
	case CmdInListPassiveTarget:
		return r.list(args), nil
	case CmdInRelease:
		return r.release(args), nil
	case CmdInDataExchange:
		return r.exchange(args), nil
	default:
		return nil, ErrUnknownCommand
	}
}

func (r *VirtualReader) setField(on bool) {
	if r.fieldOn && !on {
		for _, tag := range r.tags {
			tag.halted = false
		}
		r.targets = nil
	}
	r.fieldOn = on
}

func (r *VirtualReader) list(args []byte) []byte {
	maxTg := 1
	if len(args) > 0 {
		maxTg = int(args[0])
	}

	r.targets = nil
	if r.fieldOn {
		for _, tag := range r.tags {
			if tag.Present && !tag.halted && len(r.targets) < maxTg {
				r.targets = append(r.targets, tag)
			}
		}
	}
	return BuildTargetListResponse(r.targets...)
}

func (r *VirtualReader) target(tg byte) *VirtualTag {
	if tg == 0 || int(tg) > len(r.targets) {
		return nil
	}
	return r.targets[tg-1]
}

func (r *VirtualReader) release(args []byte) []byte {
	if len(args) == 0 || args[0] == 0 {
		r.targets = nil
		return BuildReleaseResponse()
	}
	tag := r.target(args[0])
	if tag == nil {
		return BuildErrorResponse(CmdInRelease, statusBadTg)
	}
	tag.halted = true
	return BuildReleaseResponse()
}

func (r *VirtualReader) exchange(args []byte) []byte {
	if len(args) < 3 {
		return BuildErrorResponse(CmdInDataExchange, statusBadTg)
	}
	tag := r.target(args[0])
	if tag == nil || !tag.Present || !r.fieldOn {
		return BuildErrorResponse(CmdInDataExchange, statusTimeout)
	}

	switch args[1] {
	case 0x30:
		data, ok := tag.Read(args[2])
		if !ok {
			return BuildErrorResponse(CmdInDataExchange, statusNAK)
		}
		return BuildDataExchangeResponse(data)
	case 0xA2:
		if len(args) < 7 {
			return BuildErrorResponse(CmdInDataExchange, statusNAK)
		}
		if !tag.Write(args[2], [4]byte{args[3], args[4], args[5], args[6]}) {
			return BuildErrorResponse(CmdInDataExchange, statusNAK)
		}
		return BuildDataExchangeResponse(nil)
	default:
		return BuildErrorResponse(CmdInDataExchange, statusNAK)
	}
}
