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

//go:build linux

package spi

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// permissionHint returns a suffix for open errors when the spidev node
// exists but the process cannot open it for reading and writing.
func permissionHint(name string) string {
	candidates := []string{name}
	if name == "" {
		candidates, _ = filepath.Glob("/dev/spidev*")
	} else if filepath.Dir(name) == "." {
		candidates = []string{filepath.Join("/dev", name)}
	}

	for _, path := range candidates {
		if unix.Access(path, unix.F_OK) != nil {
			continue
		}
		if unix.Access(path, unix.R_OK|unix.W_OK) != nil {
			return " (no read/write access to " + path + ", try to run as sudo)"
		}
	}
	return ""
}
