// go-csncp
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-csncp.
//
// go-csncp is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-csncp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-csncp; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command csncp runs the ranging bridge on a serial link. Results come from
// a synthetic ranging subsystem, which makes the binary useful for
// exercising host applications and link settings without radio hardware.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	csncp "github.com/ZaparooProject/go-csncp"
	"github.com/ZaparooProject/go-csncp/internal/config"
	"github.com/ZaparooProject/go-csncp/internal/frame"
	"github.com/ZaparooProject/go-csncp/polling"
	"github.com/ZaparooProject/go-csncp/transport/uart"
	"github.com/rs/zerolog"
)

type flags struct {
	configPath   *string
	port         *string
	baud         *int
	debug        *bool
	resultPeriod *time.Duration
	dataSize     *int
}

func parseFlags() *flags {
	f := &flags{
		configPath: flag.String("config", "", "Path to a TOML configuration file"),
		port:       flag.String("port", "", "Serial port, overrides serial.port"),
		baud:       flag.Int("baud", 0, "Baud rate, overrides serial.baud_rate"),
		debug:      flag.Bool("debug", false, "Enable debug output"),
		resultPeriod: flag.Duration("result-period", 200*time.Millisecond,
			"Interval between simulated ranging results"),
		dataSize: flag.Int("data-size", 600,
			"Bytes of simulated procedure data per device"),
	}
	flag.Parse()
	return f
}

func loadConfig(f *flags) (config.Config, error) {
	cfg, err := config.Load(*f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if *f.port != "" {
		cfg.Serial.Port = *f.port
	}
	if *f.baud > 0 {
		cfg.Serial.BaudRate = *f.baud
	}
	if *f.debug {
		cfg.LogLevel = zerolog.DebugLevel
	}
	return cfg, nil
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "csncp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	f := parseFlags()
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger().Level(cfg.LogLevel)
	csncp.SetLogger(log)

	transport, err := uart.New(cfg.Serial.Port, cfg.Serial.BaudRate)
	if err != nil {
		return err
	}

	wake, closeWake, err := openWakeLock(cfg.WakeLock)
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() {
		if err := closeWake(); err != nil {
			log.Warn().Err(err).Msg("failed to close wake lock")
		}
	}()

	sim := newSimulator(log, *f.resultPeriod, *f.dataSize)
	defer sim.Close()

	serializerOpts := append(cfg.SerializerOptions(), csncp.WithWakeLock(wake))
	bridge, err := csncp.New(transport, sim,
		csncp.WithTargetConfig(cfg.Target),
		csncp.WithLogger(log),
		csncp.WithSerializerOptions(serializerOpts...),
	)
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() {
		if err := bridge.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close bridge")
		}
	}()

	pollCfg := cfg.Poll
	driver := polling.NewDriver(bridge, &pollCfg)
	sim.afterResult = driver.Wake

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := driver.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = driver.Stop(stopCtx)
		m := driver.GetMetrics()
		log.Info().
			Int64("fragments", m.Fragments).
			Int64("transfers", m.TransfersCompleted).
			Int64("step_errors", m.StepErrors).
			Uint64("busy_drops", bridge.Stats().BusyDrops).
			Msg("drain stopped")
	}()

	log.Info().
		Str("port", cfg.Serial.Port).
		Int("baud", cfg.Serial.BaudRate).
		Str("wake_lock", cfg.WakeLock.Backend).
		Msg("bridge ready")

	return serve(ctx, log, transport, bridge)
}

// serve answers host commands until ctx is done or the link fails
func serve(ctx context.Context, log zerolog.Logger, transport *uart.Transport, bridge *csncp.Bridge) error {
	for ctx.Err() == nil {
		fr, err := transport.ReadFrame()
		switch {
		case err == nil:
		case errors.Is(err, csncp.ErrTimeout):
			continue
		case errors.Is(err, frame.ErrChecksumMismatch),
			errors.Is(err, frame.ErrFrameTooShort),
			errors.Is(err, frame.ErrUnknownKind):
			log.Warn().Err(err).Msg("dropped malformed frame")
			continue
		default:
			return fmt.Errorf("read command: %w", err)
		}

		if fr.Kind != uart.KindCommand {
			log.Debug().Uint8("kind", fr.Kind).Msg("ignoring non-command frame")
			continue
		}
		rsp, err := bridge.HandleCommand(fr.Payload)
		if err != nil {
			return err
		}
		if rsp.Status != csncp.StatusOK {
			log.Info().Stringer("status", rsp.Status).Msg("command failed")
		}
	}
	return nil
}
