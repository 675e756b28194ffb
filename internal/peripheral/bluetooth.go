// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package peripheral

import (
	"errors"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

var errServiceStarted = errors.New("service already started")

// BluetoothStack implements Stack on top of tinygo.org/x/bluetooth
// (BlueZ over D-Bus on Linux).
type BluetoothStack struct {
	adapter  *bluetooth.Adapter
	name     string
	services []bluetooth.UUID
}

// NewBluetoothStack wraps adapter, usually bluetooth.DefaultAdapter.
func NewBluetoothStack(adapter *bluetooth.Adapter) *BluetoothStack {
	return &BluetoothStack{adapter: adapter}
}

func (s *BluetoothStack) Init(name string) error {
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}
	s.name = name
	log.Printf("ble: adapter enabled")
	return nil
}

func (s *BluetoothStack) CreateServer() (Server, error) {
	return &bluetoothServer{stack: s}, nil
}

func (s *BluetoothStack) StartAdvertising() error {
	adv := s.adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    s.name,
		ServiceUUIDs: s.services,
	}); err != nil {
		return fmt.Errorf("configure advertisement: %w", err)
	}
	return adv.Start()
}

type bluetoothServer struct {
	stack *BluetoothStack
}

func (srv *bluetoothServer) CreateService(uuid string) (Service, error) {
	u, err := ParseUUID(uuid)
	if err != nil {
		return nil, err
	}
	return &bluetoothService{stack: srv.stack, uuid: u}, nil
}

type bluetoothService struct {
	stack   *BluetoothStack
	uuid    bluetooth.UUID
	chars   []bluetooth.CharacteristicConfig
	started bool
}

func (svc *bluetoothService) CreateCharacteristic(uuid string, props Property) error {
	if svc.started {
		return errServiceStarted
	}
	u, err := ParseUUID(uuid)
	if err != nil {
		return err
	}
	svc.chars = append(svc.chars, bluetooth.CharacteristicConfig{
		Handle: &bluetooth.Characteristic{},
		UUID:   u,
		Flags:  permissions(props),
	})
	return nil
}

func (svc *bluetoothService) Start() error {
	if svc.started {
		return errServiceStarted
	}
	if err := svc.stack.adapter.AddService(&bluetooth.Service{
		UUID:            svc.uuid,
		Characteristics: svc.chars,
	}); err != nil {
		return fmt.Errorf("add service: %w", err)
	}
	svc.started = true
	svc.stack.services = append(svc.stack.services, svc.uuid)
	return nil
}

// ParseUUID accepts the 4-hex-digit short form ("6A5B", "1000") as a
// 16-bit Bluetooth SIG UUID and anything else as a full 128-bit UUID.
func ParseUUID(s string) (bluetooth.UUID, error) {
	if len(s) == 4 {
		v, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return bluetooth.UUID{}, fmt.Errorf("invalid 16-bit UUID %q: %w", s, err)
		}
		return bluetooth.New16BitUUID(uint16(v)), nil
	}
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		return bluetooth.UUID{}, fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	return u, nil
}

func permissions(p Property) bluetooth.CharacteristicPermissions {
	var flags bluetooth.CharacteristicPermissions
	if p&PropertyRead != 0 {
		flags |= bluetooth.CharacteristicReadPermission
	}
	if p&PropertyWrite != 0 {
		flags |= bluetooth.CharacteristicWritePermission
	}
	if p&PropertyNotify != 0 {
		flags |= bluetooth.CharacteristicNotifyPermission
	}
	return flags
}
