// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"

	"github.com/relabs-tech/i2c_bug/internal/imu"
)

// ErrWrongDevice is returned by Begin when WHO_AM_I does not identify an MPU6886.
var ErrWrongDevice = errors.New("not an MPU6886")

// sampleBlockLen covers ACCEL_XOUT_H..GYRO_ZOUT_L.
const sampleBlockLen = 14

// MPU6886 is a register-level driver for the MPU6886 six-axis IMU.
// It implements imu.RegisterWriter and imu.Refresher.
type MPU6886 struct {
	name string
	c    conn.Conn

	// sleep is used for the power-up delays in Begin.
	sleep func(time.Duration)

	mu     sync.Mutex
	latest imu.Sample
}

// NewMPU6886 wraps an already addressed connection, usually an *i2c.Dev.
func NewMPU6886(name string, c conn.Conn) *MPU6886 {
	return &MPU6886{name: name, c: c, sleep: time.Sleep}
}

func (d *MPU6886) String() string {
	return fmt.Sprintf("MPU6886(%s)", d.c)
}

// WriteRegister8 writes one byte to reg.
func (d *MPU6886) WriteRegister8(reg, value byte) error {
	if err := d.c.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("%s IMU: write %s=0x%02X: %w", d.name, RegisterName(reg), value, err)
	}
	log.WithFields(log.Fields{
		"imu":   d.name,
		"reg":   RegisterName(reg),
		"value": fmt.Sprintf("0x%02X", value),
	}).Debug("register write")
	return nil
}

// ReadRegister8 reads one byte from reg.
func (d *MPU6886) ReadRegister8(reg byte) (byte, error) {
	var r [1]byte
	if err := d.c.Tx([]byte{reg}, r[:]); err != nil {
		return 0, fmt.Errorf("%s IMU: read %s: %w", d.name, RegisterName(reg), err)
	}
	return r[0], nil
}

// ReadRegisters burst-reads n consecutive registers starting at start.
func (d *MPU6886) ReadRegisters(start byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%s IMU: invalid read length %d", d.name, n)
	}
	r := make([]byte, n)
	if err := d.c.Tx([]byte{start}, r); err != nil {
		return nil, fmt.Errorf("%s IMU: read %d bytes from %s: %w", d.name, n, RegisterName(start), err)
	}
	return r, nil
}

// Begin is the default driver bring-up done by the board support layer:
// identify the part, wake it, reset it and load the stock ranges.
func (d *MPU6886) Begin() error {
	id, err := d.ReadRegister8(RegWhoAmI)
	if err != nil {
		return err
	}
	if id != WhoAmIMPU6886 {
		return fmt.Errorf("%s IMU: WHO_AM_I = 0x%02X: %w", d.name, id, ErrWrongDevice)
	}
	log.Printf("%s IMU: WHO_AM_I = 0x%02X", d.name, id)

	steps := []struct {
		reg, value byte
	}{
		{RegPwrMgmt1, 0x00},
		{RegPwrMgmt1, 0x80}, // DEVICE_RESET
		{RegPwrMgmt1, 0x01}, // auto select clock
		{RegAccelConfig, AFS8G << 3},
		{RegGyroConfig, GFS2000DPS << 3},
		{RegConfig, 0x01},
		{RegSmplrtDiv, 0x05},
		{RegIntEnable, 0x00},
		{RegAccelConfig2, 0x00},
		{RegUserCtrl, 0x00},
		{RegFIFOEn, 0x00},
		{RegIntPinCfg, 0x22},
		{RegIntEnable, 0x01},
	}
	for _, s := range steps {
		if err := d.WriteRegister8(s.reg, s.value); err != nil {
			return err
		}
		d.sleep(10 * time.Millisecond)
	}

	log.Printf("%s IMU: default configuration loaded", d.name)
	return nil
}

// Update latches the newest accel/temp/gyro block.
func (d *MPU6886) Update() error {
	b, err := d.ReadRegisters(RegAccelXoutH, sampleBlockLen)
	if err != nil {
		return err
	}
	s := decodeSample(d.name, b)

	d.mu.Lock()
	d.latest = s
	d.mu.Unlock()
	return nil
}

// Latest returns the sample latched by the last successful Update.
func (d *MPU6886) Latest() imu.Sample {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest
}

func decodeSample(name string, b []byte) imu.Sample {
	be := func(i int) int16 { return int16(binary.BigEndian.Uint16(b[i:])) }
	return imu.Sample{
		Source: name,
		Ax:     be(0),
		Ay:     be(2),
		Az:     be(4),
		Temp:   be(6),
		Gx:     be(8),
		Gy:     be(10),
		Gz:     be(12),
	}
}
