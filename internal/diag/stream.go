// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package diag opens the serial-style diagnostic stream the heartbeat
// counter is printed to.
package diag

import (
	"fmt"
	"io"
	"os"

	serial "github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"
)

// openPort is replaced in tests.
var openPort = serial.Open

// Open returns the diagnostic stream: the UART at port (8N1) or stdout
// when port is empty.
func Open(port string, baud uint) (io.WriteCloser, error) {
	if port == "" {
		log.Printf("diag: writing heartbeat to stdout")
		return nopCloser{os.Stdout}, nil
	}

	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	w, err := openPort(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	log.Printf("diag: serial port opened on %s at %d baud", port, baud)
	return w, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
