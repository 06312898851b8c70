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

// Package ndefview maps between plain text and the NDEF TLV layout of the
// Ultralight user pages. It is an optional view over the raw page window;
// the poll cycle itself never interprets page contents.
package ndefview

import (
	"errors"
	"fmt"

	"github.com/hsanjuan/go-ndef"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
)

// DefaultLanguage is the language code stored in text records.
const DefaultLanguage = "en"

var (
	// ErrNoMessage is returned when the window holds no NDEF TLV.
	ErrNoMessage = errors.New("no NDEF message in window")
	// ErrTooLarge is returned when an encoded message does not fit the window.
	ErrTooLarge = errors.New("NDEF message does not fit the page window")
)

// EncodeText builds an NDEF Text record for text and wraps it in an NDEF
// message TLV followed by a terminator TLV. The result always fits the
// poll cycle's page window so it is never truncated on write.
func EncodeText(text, language string) ([]byte, error) {
	if language == "" {
		language = DefaultLanguage
	}

	msg := ndef.NewTextMessage(text, language)
	payload, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal text record: %w", err)
	}

	// 0x03, length, message, 0xFE
	size := len(payload) + 3
	if len(payload) >= 0xFF || size > explorenfc.WindowSize {
		return nil, fmt.Errorf("%w: %d bytes, window holds %d",
			ErrTooLarge, size, explorenfc.WindowSize)
	}

	out := make([]byte, 0, size)
	out = append(out, tlvNDEF, byte(len(payload)))
	out = append(out, payload...)
	out = append(out, tlvTerminator)
	return out, nil
}

// Decode parses the NDEF message found in window and returns its text
// rendering. ErrNoMessage means the window is not NDEF formatted, which
// is normal for blank cards.
func Decode(window []byte) (string, error) {
	payload, found, err := FindTLV(window)
	if err != nil {
		return "", err
	}
	if !found || len(payload) == 0 {
		return "", ErrNoMessage
	}

	msg := &ndef.Message{}
	if _, err := msg.Unmarshal(payload); err != nil {
		return "", fmt.Errorf("unmarshal NDEF message: %w", err)
	}
	return msg.String(), nil
}
