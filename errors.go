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
	"errors"
	"fmt"
)

// Card and cycle errors
var (
	// ErrNoCard is returned by a Transceiver when nothing answers in the
	// field. The poll cycle treats it as "no card present", not a failure.
	ErrNoCard = errors.New("no card in field")

	// ErrTransfer marks a failed page read or write.
	ErrTransfer = errors.New("page transfer failed")

	// ErrActivation marks an activation failure after at least one card
	// was already resolved in the same cycle.
	ErrActivation = errors.New("card activation failed")

	ErrInvalidParameter = errors.New("invalid parameter")
)

// Transceiver level errors, shared by the chip drivers
var (
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrCommunicationFailed = errors.New("communication failed")
	ErrFrameCorrupted      = errors.New("frame corrupted")
	ErrNoACK               = errors.New("no ACK received")
	ErrChipNotFound        = errors.New("reader chip not found")
	ErrCollision           = errors.New("unresolvable collision")
	ErrCRC                 = errors.New("CRC mismatch")
	ErrNAK                 = errors.New("card answered NAK")
)

// TransferError reports which page operation failed during a transfer.
type TransferError struct {
	Err  error
	Op   string
	Page byte
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s page %d: %v", e.Op, e.Page, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransfer) match any TransferError.
func (*TransferError) Is(target error) bool {
	return target == ErrTransfer
}

// ActivationError is an activation failure for the Index-th candidate of a
// cycle (Index >= 1; the first attempt failing means the field is empty).
type ActivationError struct {
	Err   error
	Index int
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("activating candidate %d: %v", e.Index, e.Err)
}

func (e *ActivationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrActivation) match any ActivationError.
func (*ActivationError) Is(target error) bool {
	return target == ErrActivation
}

// StartupStage identifies the initialization step that failed.
type StartupStage int

const (
	StageTransportInit StartupStage = iota + 1
	StagePortOpen
	StageChipInit
	StageProtocolConfig
)

// String returns the stage name used in log output
func (s StartupStage) String() string {
	switch s {
	case StageTransportInit:
		return "transport init"
	case StagePortOpen:
		return "port open"
	case StageChipInit:
		return "chip init"
	case StageProtocolConfig:
		return "protocol config"
	default:
		return "unknown"
	}
}

// StartupError is a fatal initialization error. Startup errors are never
// retried; the process exits with ExitCode.
type StartupError struct {
	Err   error
	Stage StartupStage
}

// NewStartupError wraps err for the given stage.
func NewStartupError(stage StartupStage, err error) *StartupError {
	return &StartupError{Stage: stage, Err: err}
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// ExitCode maps the failed stage to the process exit status.
func (e *StartupError) ExitCode() int {
	switch e.Stage {
	case StageTransportInit:
		return 2
	case StagePortOpen:
		return 3
	case StageChipInit:
		return 4
	case StageProtocolConfig:
		return 5
	default:
		return 1
	}
}
