// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package peripheral publishes the placeholder GATT service that keeps the
// BLE stack busy while the IMU is being polled.
package peripheral

import (
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
)

const (
	// DeviceName is the advertised local name.
	DeviceName = "I2C Bug"
	// ServiceUUID is the 16-bit UUID of the only service.
	ServiceUUID = "6A5B"

	firstCharacteristic = 1000
	characteristicCount = 7
)

// Property is a set of GATT characteristic properties.
type Property uint8

const (
	PropertyRead Property = 1 << iota
	PropertyWrite
	PropertyNotify
)

// Stack is the BLE stack as seen by the reproduction.
type Stack interface {
	Init(name string) error
	CreateServer() (Server, error)
	StartAdvertising() error
}

// Server hosts GATT services.
type Server interface {
	CreateService(uuid string) (Service, error)
}

// Service collects characteristics until it is started.
type Service interface {
	CreateCharacteristic(uuid string, props Property) error
	Start() error
}

// CharacteristicIDs returns "1000" through "1006" in ascending order.
func CharacteristicIDs() []string {
	ids := make([]string, 0, characteristicCount)
	for i := firstCharacteristic; i < firstCharacteristic+characteristicCount; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	return ids
}

// Setup creates the service with one empty, property-less characteristic
// per id and starts advertising. The first failing call ends the setup.
func Setup(stack Stack, name, serviceUUID string, characteristicIDs []string) error {
	if err := stack.Init(name); err != nil {
		return fmt.Errorf("ble init: %w", err)
	}

	server, err := stack.CreateServer()
	if err != nil {
		return fmt.Errorf("ble create server: %w", err)
	}

	service, err := server.CreateService(serviceUUID)
	if err != nil {
		return fmt.Errorf("ble create service %s: %w", serviceUUID, err)
	}

	for _, id := range characteristicIDs {
		if err := service.CreateCharacteristic(id, 0); err != nil {
			return fmt.Errorf("ble create characteristic %s: %w", id, err)
		}
	}

	if err := service.Start(); err != nil {
		return fmt.Errorf("ble start service %s: %w", serviceUUID, err)
	}

	if err := stack.StartAdvertising(); err != nil {
		return fmt.Errorf("ble start advertising: %w", err)
	}

	log.Printf("ble: advertising %q, service %s with %d characteristics", name, serviceUUID, len(characteristicIDs))
	return nil
}
