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

package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
)

// Console writes records as tab-indented JSON objects.
type Console struct {
	w          io.Writer
	mu         sync.Mutex
	decodeNDEF bool
}

// NewConsole returns a console sink writing to w.
func NewConsole(w io.Writer, decodeNDEF bool) *Console {
	return &Console{w: w, decodeNDEF: decodeNDEF}
}

// Emit writes one record followed by a newline.
func (c *Console) Emit(outcome explorenfc.Outcome) error {
	out, err := json.MarshalIndent(NewRecord(outcome, c.decodeNDEF), "", "\t")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	out = append(out, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.Write(out); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
