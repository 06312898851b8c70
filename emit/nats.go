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
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
)

// ClientName identifies the reader daemon on the NATS server.
const ClientName = "explore-nfc"

type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	Drain() error
}

// NATSConfig holds the connection settings for the NATS sink.
type NATSConfig struct {
	URL     string
	Subject string
	Token   string
	// DecodeNDEF adds the NDEF text to published records.
	DecodeNDEF bool
}

// NATS publishes every record as JSON on one subject. Each message carries
// a fresh Nats-Msg-Id header so JetStream consumers can deduplicate.
type NATS struct {
	conn       natsConn
	subject    string
	decodeNDEF bool
}

// DialNATS connects to the server and returns a sink.
func DialNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("%w: empty NATS subject", explorenfc.ErrInvalidParameter)
	}

	opts := []nats.Option{
		nats.Name(ClientName),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}

	return newNATS(conn, cfg), nil
}

func newNATS(conn natsConn, cfg NATSConfig) *NATS {
	return &NATS{conn: conn, subject: cfg.Subject, decodeNDEF: cfg.DecodeNDEF}
}

// Emit publishes one record.
func (n *NATS) Emit(outcome explorenfc.Outcome) error {
	if n.conn == nil {
		return errors.New("NATS sink is closed")
	}

	data, err := json.Marshal(NewRecord(outcome, n.decodeNDEF))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	err := n.conn.Drain()
	n.conn = nil
	if err != nil {
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
