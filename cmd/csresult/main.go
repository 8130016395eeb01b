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

// Command csresult connects to a ranging bridge over a serial port, starts
// an initiator with extended results and prints every reassembled result.
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	csncp "github.com/ZaparooProject/go-csncp"
	"github.com/ZaparooProject/go-csncp/internal/frame"
	"github.com/ZaparooProject/go-csncp/internal/transport"
	"github.com/ZaparooProject/go-csncp/transport/uart"
	"github.com/rs/zerolog"
)

type config struct {
	port       *string
	baud       *int
	connection *uint
	count      *int
	timeout    *time.Duration
	list       *bool
	debug      *bool
}

func parseFlags() *config {
	cfg := &config{
		port:       flag.String("port", "/dev/ttyACM0", "Serial port of the bridge"),
		baud:       flag.Int("baud", 115200, "Baud rate"),
		connection: flag.Uint("connection", 0, "Connection id to range on"),
		count:      flag.Int("count", 0, "Stop after this many results (0 runs until interrupted)"),
		timeout:    flag.Duration("timeout", 2*time.Second, "Timeout for command responses"),
		list:       flag.Bool("list", false, "List serial ports and exit"),
		debug:      flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		csncp.SetDebugEnabled(true)
	}
	return cfg
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	if *cfg.list {
		ports, err := uart.ListPorts()
		if err != nil {
			return err
		}
		for _, p := range ports {
			_, _ = fmt.Println(p)
		}
		return nil
	}
	if *cfg.connection > math.MaxUint8 {
		return fmt.Errorf("connection id %d out of range", *cfg.connection)
	}
	conn := uint8(*cfg.connection)

	link, err := uart.New(*cfg.port, *cfg.baud)
	if err != nil {
		return err
	}
	defer func() { _ = link.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := newHost(link, *cfg.timeout)

	data, err := h.command(ctx, &csncp.GetTargetConfig{})
	if err != nil {
		return err
	}
	target, err := csncp.ParseTargetConfig(data)
	if err != nil {
		return err
	}
	_, _ = fmt.Printf("Target: max %d initiators, %d connections, RAS on demand: %v\n",
		target.MaxInitiators, target.MaxConnections, target.RASOnDemand)

	// a busy target is retried a few times before giving up
	_, err = transport.Retry(ctx, transport.RetryConfig{
		Description: "create initiator",
		MaxRetries:  3,
		RetryDelay:  200 * time.Millisecond,
	}, func() ([]byte, bool, error) {
		data, err := h.command(ctx, &csncp.CreateInitiator{Connection: conn, ExtendedResult: true})
		if errors.Is(err, csncp.StatusBusy) {
			return nil, true, nil
		}
		return data, false, err
	})
	if err != nil {
		return err
	}
	defer func() {
		cleanup, cancel := context.WithTimeout(context.Background(), *cfg.timeout)
		defer cancel()
		if _, err := h.command(cleanup, &csncp.InitiatorAction{Connection: conn, Action: csncp.ActionDelete}); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to delete initiator: %v\n", err)
		}
	}()
	_, _ = fmt.Printf("Initiator started on connection %d, waiting for results...\n", conn)

	received := 0
	for ctx.Err() == nil && (*cfg.count == 0 || received < *cfg.count) {
		r, err := h.next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return err
		}
		received++
		printResult(received, r)
	}
	return nil
}

// host drives the command side of the link and reassembles events that
// arrive in between
type host struct {
	link        *uart.Transport
	reassembler *csncp.Reassembler
	log         zerolog.Logger
	results     []*csncp.Result
	timeout     time.Duration
}

func newHost(link *uart.Transport, timeout time.Duration) *host {
	return &host{
		link:        link,
		reassembler: csncp.NewReassembler(),
		log:         csncp.Logger(),
		timeout:     timeout,
	}
}

// command sends cmd and waits for its response. A non-OK status is
// returned as the error.
func (h *host) command(ctx context.Context, cmd csncp.Command) ([]byte, error) {
	if err := h.link.SendCommand(cmd); err != nil {
		return nil, err
	}
	payload, err := transport.Poll(ctx, h.timeout, 0, func() ([]byte, bool, error) {
		f, ok, err := h.read()
		if err != nil || !ok {
			return nil, true, err
		}
		if f.Kind != uart.KindResponse {
			h.handleEvent(f)
			return nil, true, nil
		}
		return f.Payload, false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("command %d: %w", cmd.ID(), err)
	}

	status, data, err := uart.ParseResponse(payload)
	if err != nil {
		return nil, err
	}
	if status != csncp.StatusOK {
		return data, fmt.Errorf("command %d: %w", cmd.ID(), status)
	}
	return data, nil
}

// next returns the next reassembled result
func (h *host) next(ctx context.Context) (*csncp.Result, error) {
	for ctx.Err() == nil {
		if len(h.results) > 0 {
			r := h.results[0]
			h.results = h.results[1:]
			return r, nil
		}
		f, ok, err := h.read()
		if err != nil {
			return nil, err
		}
		if ok && f.Kind == uart.KindEvent {
			h.handleEvent(f)
		}
	}
	return nil, ctx.Err()
}

// read returns false on a read timeout or a dropped frame
func (h *host) read() (uart.Frame, bool, error) {
	f, err := h.link.ReadFrame()
	switch {
	case err == nil:
		return f, true, nil
	case errors.Is(err, csncp.ErrTimeout):
		return uart.Frame{}, false, nil
	case errors.Is(err, frame.ErrChecksumMismatch), errors.Is(err, frame.ErrUnknownKind):
		h.log.Warn().Err(err).Msg("dropped frame")
		return uart.Frame{}, false, nil
	default:
		return uart.Frame{}, false, err
	}
}

func (h *host) handleEvent(f uart.Frame) {
	ev, err := csncp.ParseEvent(f.Payload)
	if err != nil {
		h.log.Warn().Err(err).Msg("dropped event")
		return
	}

	switch e := ev.(type) {
	case *csncp.ExtendedResultEvent:
		r, err := h.reassembler.Feed(e)
		if err != nil {
			h.log.Warn().Err(err).Msg("lost extended result")
			return
		}
		if r != nil {
			h.results = append(h.results, r)
		}
	case *csncp.ResultEvent:
		h.results = append(h.results, &csncp.Result{Connection: e.Connection, Summary: e.Summary})
	case *csncp.StatusEvent:
		_, _ = fmt.Printf("Connection %d: error event %d, status 0x%08X\n", e.Connection, e.Error, e.Status)
	case *csncp.IntermediateResultEvent:
		h.log.Debug().Uint8("connection", e.Connection).Float32("progress", e.Progress).Msg("intermediate result")
	}
}

func printResult(n int, r *csncp.Result) {
	_, _ = fmt.Printf("Result %d (connection %d)\n", n, r.Connection)
	for i := 0; i+5 <= len(r.Summary); i += 5 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(r.Summary[i+1:]))
		_, _ = fmt.Printf("  type 0x%02X: %.3f\n", r.Summary[i], v)
	}
	_, _ = fmt.Printf("  steps: %d, initiator data: %d bytes, reflector data: %d bytes\n",
		len(r.Ranging.StepChannels), len(r.Ranging.Initiator), len(r.Ranging.Reflector))
}
