// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/i2c_bug/internal/config"
	"github.com/relabs-tech/i2c_bug/internal/imu"
)

// Board owns the shared I2C bus and every device hanging off it.
type Board struct {
	bus     i2c.BusCloser
	IMU     *MPU6886
	Display *ssd1306.Dev // nil when the display is disabled
}

// OpenBoard initializes periph, opens the shared bus and brings up the IMU
// with its stock configuration. The display is opened on the same bus.
func OpenBoard(cfg *config.Config) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", cfg.I2CBus, err)
	}
	log.Printf("board: I2C bus %s opened", bus)

	b, err := NewBoard(bus, cfg)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return b, nil
}

// NewBoard brings up the devices on an already opened bus.
func NewBoard(bus i2c.BusCloser, cfg *config.Config) (*Board, error) {
	b := &Board{bus: bus}

	b.IMU = NewMPU6886("stick", &i2c.Dev{Bus: bus, Addr: cfg.IMUI2CAddr})
	if err := b.IMU.Begin(); err != nil {
		return nil, fmt.Errorf("failed to initialize IMU at 0x%02X: %w", cfg.IMUI2CAddr, err)
	}
	log.Printf("board: IMU initialized at 0x%02X", cfg.IMUI2CAddr)

	if cfg.DisplayEnabled {
		opts := ssd1306.DefaultOpts
		opts.Rotated = cfg.DisplayRotated
		dev, err := ssd1306.NewI2C(bus, &opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize display: %w", err)
		}
		b.Display = dev
		log.Printf("board: display initialized at 0x%02X", config.DisplayI2CAddr)
	}

	return b, nil
}

// RawIMU grants register-level access to the IMU beneath the board.
func (b *Board) RawIMU() imu.RegisterWriter {
	return b.IMU
}

// Close halts the display and releases the bus.
func (b *Board) Close() error {
	if b.Display != nil {
		if err := b.Display.Halt(); err != nil {
			log.Printf("board: display halt: %v", err)
		}
	}
	return b.bus.Close()
}
