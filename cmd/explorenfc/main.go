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

// Command explore-nfc polls a contactless reader once per second and prints
// one JSON record per MIFARE card in the field. In write mode it writes the
// given message over the Ultralight user pages first.
//
//	explore-nfc [flags] poll
//	explore-nfc [flags] write <message>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/config"
	"github.com/ZaparooProject/go-explorenfc/emit"
	"github.com/ZaparooProject/go-explorenfc/ndefview"
)

const usageLine = "Usage: explore-nfc <poll | write> [write message]"

const exitUsage = 1

var errUsage = errors.New("usage")

type flags struct {
	configPath  *string
	driver      *string
	bus         *string
	device      *string
	ndef        *string
	natsURL     *string
	natsSubject *string
	interval    *time.Duration
	debug       *bool
	decodeNDEF  *bool
}

func newFlagSet(output io.Writer) (*flag.FlagSet, *flags) {
	fs := flag.NewFlagSet("explore-nfc", flag.ContinueOnError)
	fs.SetOutput(output)

	f := &flags{
		configPath:  fs.String("config", "", "YAML configuration file"),
		driver:      fs.String("driver", "", "Reader driver: pn512, pn532 or libnfc"),
		bus:         fs.String("bus", "", "Bus for the driver: spi, uart or i2c"),
		device:      fs.String("device", "", "Bus device path or libnfc connection string. Leave empty for auto-detection."),
		ndef:        fs.String("ndef", "", "Write payload encoding: raw or text"),
		natsURL:     fs.String("nats-url", "", "Also publish records to this NATS server"),
		natsSubject: fs.String("nats-subject", "", "NATS subject for published records"),
		interval:    fs.Duration("interval", 0, "Pause between poll cycles (default: 1s)"),
		debug:       fs.Bool("debug", false, "Enable debug output"),
		decodeNDEF:  fs.Bool("decode-ndef", false, "Add the decoded NDEF text to read records"),
	}
	fs.Usage = func() {
		_, _ = fmt.Fprintln(output, usageLine)
		fs.PrintDefaults()
	}
	return fs, f
}

// applyFlags copies the flags that were set on the command line onto cfg.
func applyFlags(fs *flag.FlagSet, f *flags, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "driver":
			cfg.Driver = *f.driver
		case "bus":
			cfg.Bus = *f.bus
		case "device":
			cfg.Device = *f.device
		case "ndef":
			cfg.NDEF = *f.ndef
		case "nats-url":
			cfg.NATS.URL = *f.natsURL
		case "nats-subject":
			cfg.NATS.Subject = *f.natsSubject
		case "interval":
			cfg.Interval = *f.interval
		case "debug":
			cfg.Debug = *f.debug
		case "decode-ndef":
			cfg.DecodeNDEF = *f.decodeNDEF
		}
	})
}

// parseArgs validates the positional arguments. A message after poll is
// accepted and ignored.
func parseArgs(args []string) (explorenfc.Mode, string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", "", errUsage
	}

	mode, err := explorenfc.ParseMode(args[0])
	if err != nil {
		return "", "", errUsage
	}

	if mode == explorenfc.ModeWrite {
		if len(args) != 2 {
			return "", "", errUsage
		}
		return mode, args[1], nil
	}
	return mode, "", nil
}

// buildPayload encodes the write message according to the NDEF setting.
func buildPayload(message, encoding string) ([]byte, error) {
	if encoding == config.NDEFText {
		payload, err := ndefview.EncodeText(message, ndefview.DefaultLanguage)
		if err != nil {
			return nil, fmt.Errorf("encode NDEF text: %w", err)
		}
		return payload, nil
	}
	return []byte(message), nil
}

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()
}

// startupMessage is the operator facing line printed for a failed stage.
func startupMessage(stage explorenfc.StartupStage) string {
	switch stage {
	case explorenfc.StageTransportInit:
		return "Failed to initialize the reader transport"
	case explorenfc.StagePortOpen:
		return "Failed to open the reader bus, try to run as sudo"
	case explorenfc.StageChipInit:
		return "Failed to initialize the reader chip"
	case explorenfc.StageProtocolConfig:
		return "Failed to configure the reader protocol"
	default:
		return "Failed to start the reader"
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, f := newFlagSet(stdout)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	mode, message, err := parseArgs(fs.Args())
	if err != nil {
		_, _ = fmt.Fprintln(stdout, usageLine)
		return exitUsage
	}

	cfg, err := config.Load(*f.configPath, config.DefaultEnvFile)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	applyFlags(fs, f, &cfg)
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger := newLogger(stderr, cfg.Debug)
	explorenfc.SetLogger(logger)
	explorenfc.SetDebugEnabled(cfg.Debug)

	var payload []byte
	if mode == explorenfc.ModeWrite {
		if payload, err = buildPayload(message, cfg.NDEF); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
	}

	reader, err := openReader(ctx, cfg)
	if err != nil {
		var startupErr *explorenfc.StartupError
		if errors.As(err, &startupErr) {
			_, _ = fmt.Fprintln(stdout, startupMessage(startupErr.Stage))
			logger.Error().Err(err).Msg("startup failed")
			return startupErr.ExitCode()
		}
		logger.Error().Err(err).Msg("startup failed")
		return exitUsage
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing reader")
		}
	}()

	sinks := emit.Multi{emit.NewConsole(stdout, cfg.DecodeNDEF)}
	if cfg.NATS.URL != "" {
		natsSink, err := emit.DialNATS(emit.NATSConfig{
			URL:        cfg.NATS.URL,
			Subject:    cfg.NATS.Subject,
			Token:      cfg.NATS.Token,
			DecodeNDEF: cfg.DecodeNDEF,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("NATS sink disabled")
		} else {
			defer func() { _ = natsSink.Close() }()
			sinks = append(sinks, natsSink)
		}
	}

	poller, err := explorenfc.NewPoller(reader,
		explorenfc.WithMode(mode),
		explorenfc.WithPayload(payload),
		explorenfc.WithSink(sinks),
		explorenfc.WithInterval(cfg.Interval),
		explorenfc.WithLogger(logger),
	)
	if err != nil {
		logger.Error().Err(err).Msg("creating poller")
		return exitUsage
	}

	_, _ = fmt.Fprintf(stdout, "Starting %s\n", mode)

	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("poll loop stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := explorenfc.Shutdown(shutdownCtx, reader); err != nil {
		logger.Warn().Err(err).Msg("switching field off")
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
