// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bringup moves the MPU6886 from its stock configuration to the one
// the bus-conflict reproduction needs: ±245°/s gyro, ±2g accel, no sample
// rate division and heavy low-pass filtering on both sensors.
package bringup

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/i2c_bug/internal/imu"
	"github.com/relabs-tech/i2c_bug/internal/sensors"
)

// SettleDelay is the mandatory wait after every register write.
const SettleDelay = 10 * time.Millisecond

// ErrNoDevice is returned when Configure is handed no device.
var ErrNoDevice = errors.New("bringup: no IMU device")

// RegisterWrite is one step of the sequence.
type RegisterWrite struct {
	Register byte
	Name     string
	Value    byte
	Settle   time.Duration
}

// sequence is ordered: later writes assume the earlier ones took effect.
var sequence = []RegisterWrite{
	{Register: sensors.RegGyroConfig, Name: "GYRO_CONFIG", Value: sensors.GFS250DPS << 3, Settle: SettleDelay},
	{Register: sensors.RegAccelConfig, Name: "ACCEL_CONFIG", Value: sensors.AFS2G << 3, Settle: SettleDelay},
	{Register: sensors.RegSmplrtDiv, Name: "SMPLRT_DIV", Value: 0x00, Settle: SettleDelay},
	{Register: sensors.RegConfig, Name: "CONFIG", Value: 0x05, Settle: SettleDelay},
	// A_DLPF_CFG=5 (10Hz), ACCEL_FCHOICE_B=0, DEC2_CFG=0 (4 samples)
	{Register: sensors.RegAccelConfig2, Name: "ACCEL_CONFIG2", Value: 5<<0 | 0<<3 | 0<<4, Settle: SettleDelay},
}

// Sequence returns a copy of the register writes Configure performs.
func Sequence() []RegisterWrite {
	out := make([]RegisterWrite, len(sequence))
	copy(out, sequence)
	return out
}

// WriteError reports the step that stopped the sequence.
type WriteError struct {
	Step  int // 1-based
	Write RegisterWrite
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("bringup: step %d: write %s=0x%02X: %v", e.Step, e.Write.Name, e.Write.Value, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Configure runs the sequence against dev, sleeping after every write.
// It stops at the first failed write; nothing is retried or skipped.
// A nil sleep means time.Sleep.
func Configure(dev imu.RegisterWriter, sleep func(time.Duration)) error {
	if dev == nil {
		return ErrNoDevice
	}
	if sleep == nil {
		sleep = time.Sleep
	}

	for i, w := range sequence {
		if err := dev.WriteRegister8(w.Register, w.Value); err != nil {
			return &WriteError{Step: i + 1, Write: w, Err: err}
		}
		log.WithFields(log.Fields{
			"step":  i + 1,
			"reg":   w.Name,
			"value": fmt.Sprintf("0x%02X", w.Value),
		}).Info("bringup: register written")
		sleep(w.Settle)
	}

	log.Printf("bringup: %d registers configured", len(sequence))
	return nil
}
