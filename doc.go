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

/*
Package csncp relays channel sounding ranging results from a ranging
subsystem to a host application over a message transport whose messages
are limited to 255 bytes.

Plain results fit one message and are sent as they arrive. Extended
results carry the raw procedure data of both devices and are far larger
than one message, so they are encoded into a fixed-size staging buffer and
drained one fragment per tick:

	[result_size:1][result][step_count:1][step_channels]
	[initiator_len:4][initiator_data][reflector_len:4][reflector_data]

Each fragment is sent as an extended result event:

	[connection][3][fragments_left][len][payload]

where bit 7 of fragments_left marks the first fragment of a transfer and
bits 0-6 count the fragments still to come.

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-csncp"
	    "github.com/ZaparooProject/go-csncp/polling"
	    "github.com/ZaparooProject/go-csncp/transport/uart"
	)

	transport, err := uart.New("/dev/ttyACM0", 115200)
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	bridge, err := csncp.New(transport, ranging,
	    csncp.WithSerializerOptions(csncp.WithWakeLock(wake)),
	)
	if err != nil {
	    log.Fatal(err)
	}

	// Drain staged results in the background
	driver := polling.NewDriver(bridge, polling.DefaultConfig())
	_ = driver.Start(ctx)

	// Serve host commands
	for {
	    f, err := transport.ReadFrame()
	    if err != nil {
	        continue
	    }
	    _, _ = bridge.HandleCommand(f.Payload)
	}

Single Transfer:

The staging buffer holds one result. A result that arrives while the
previous one is still draining is dropped and reported with
ErrTransferBusy; nothing is queued. The wake lock is acquired when a
transfer is staged and released when its last fragment has been sent.

Error Handling:

	if errors.Is(err, csncp.ErrTransportRejected) {
	    // the fragment was not sent and will be retried on the next tick
	}

Host Side:

Reassembler and ParseEvent turn received events back into results.
*/
package csncp
