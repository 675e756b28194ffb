// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/relabs-tech/i2c_bug/internal/bringup"
	"github.com/relabs-tech/i2c_bug/internal/config"
	"github.com/relabs-tech/i2c_bug/internal/diag"
	"github.com/relabs-tech/i2c_bug/internal/display"
	"github.com/relabs-tech/i2c_bug/internal/heartbeat"
	"github.com/relabs-tech/i2c_bug/internal/imu"
	"github.com/relabs-tech/i2c_bug/internal/peripheral"
	"github.com/relabs-tech/i2c_bug/internal/sensors"
	"github.com/relabs-tech/i2c_bug/internal/telemetry"
)

// Repro is the reproduction: one setup phase, then the polling loop.
type Repro struct {
	Registers imu.RegisterWriter // raw access, used only during setup
	IMU       imu.Refresher
	BLE       peripheral.Stack
	Sleep     func(time.Duration) // settle delays, nil = time.Sleep

	Clock     heartbeat.Clock
	Display   heartbeat.CounterDisplay
	Out       io.Writer
	Publisher heartbeat.Publisher

	loop *heartbeat.Loop
}

// Setup configures the IMU and, only if that succeeded, starts advertising.
func (r *Repro) Setup() error {
	if err := bringup.Configure(r.Registers, r.Sleep); err != nil {
		return fmt.Errorf("imu bring-up: %w", err)
	}

	if err := peripheral.Setup(r.BLE, peripheral.DeviceName, peripheral.ServiceUUID, peripheral.CharacteristicIDs()); err != nil {
		return err
	}
	return nil
}

// Run calls Setup and then polls until ctx is done.
func (r *Repro) Run(ctx context.Context) error {
	if err := r.Setup(); err != nil {
		return err
	}

	r.loop = &heartbeat.Loop{
		IMU:       r.IMU,
		Clock:     r.Clock,
		Display:   r.Display,
		Out:       r.Out,
		Publisher: r.Publisher,
	}
	log.Println("repro: setup complete, polling IMU")
	return r.loop.Run(ctx)
}

// Heartbeats returns how many heartbeats the loop has fired.
func (r *Repro) Heartbeats() uint {
	if r.loop == nil {
		return 0
	}
	return r.loop.Seconds()
}

// RunRepro wires the real board, BLE adapter, display, diagnostic stream
// and optional MQTT mirror, then runs the reproduction.
func RunRepro(ctx context.Context, cfg *config.Config) error {
	log.Println("starting I2C bug reproduction (IMU + BLE on a shared bus)")

	board, err := sensors.OpenBoard(cfg)
	if err != nil {
		return err
	}
	defer board.Close()

	stream, err := diag.Open(cfg.SerialPort, cfg.SerialBaudRate)
	if err != nil {
		return err
	}
	defer stream.Close()

	r := &Repro{
		Registers: board.RawIMU(),
		IMU:       board.IMU,
		BLE:       peripheral.NewBluetoothStack(bluetooth.DefaultAdapter),
		Sleep:     time.Sleep,
		Clock:     heartbeat.SystemClock,
		Out:       stream,
	}

	if board.Display != nil {
		r.Display = display.NewCounter(board.Display,
			image.Pt(cfg.DisplayCursorX, cfg.DisplayCursorY), cfg.DisplayTextSize)
	}

	if cfg.MQTTBroker != "" {
		pub, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientID, cfg.TopicHeartbeat)
		if err != nil {
			return err
		}
		defer pub.Close()
		r.Publisher = pub
	}

	err = r.Run(ctx)
	if ctx.Err() != nil {
		log.Printf("repro: stopped after %d heartbeats", r.Heartbeats())
		return nil
	}
	return err
}
