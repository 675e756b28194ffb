// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds the host wiring for the reproduction tool.
// The firmware itself has no runtime configuration, so every field has a
// working default and the config file only needs to name what differs.
type Config struct {
	// I2C
	I2CBus     string // periph bus name, "" = first available bus
	IMUI2CAddr uint16

	// Display (shares the IMU bus)
	DisplayEnabled  bool // SSD1306 at its fixed address 0x3C
	DisplayRotated  bool
	DisplayTextSize int
	DisplayCursorX  int
	DisplayCursorY  int

	// Diagnostic stream
	SerialPort     string // "" = stdout
	SerialBaudRate uint

	// MQTT heartbeat mirror
	MQTTBroker     string // "" = disabled
	MQTTClientID   string
	TopicHeartbeat string

	// Register debug tool
	RegisterDebugPort int
}

// DisplayI2CAddr is where the SSD1306 driver talks to the panel.
const DisplayI2CAddr = 0x3C

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		I2CBus:     "",
		IMUI2CAddr: 0x68,

		DisplayEnabled:  true,
		DisplayRotated:  true,
		DisplayTextSize: 3,
		DisplayCursorX:  60,
		DisplayCursorY:  20,

		SerialPort:     "",
		SerialBaudRate: 115200,

		MQTTBroker:     "",
		MQTTClientID:   "i2c-bug",
		TopicHeartbeat: "i2c_bug/heartbeat",

		RegisterDebugPort: 8081,
	}
}

// Load reads the configuration file on top of Default().
// An empty path returns the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// I2C
	case "I2C_BUS":
		c.I2CBus = value
	case "IMU_I2C_ADDR":
		addr, err := parseI2CAddr(key, value)
		if err != nil {
			return err
		}
		c.IMUI2CAddr = addr

	// Display
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled
	case "DISPLAY_ROTATED":
		rotated, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ROTATED %q: %w", value, err)
		}
		c.DisplayRotated = rotated
	case "DISPLAY_TEXT_SIZE":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_TEXT_SIZE %q: %w", value, err)
		}
		if size < 1 || size > 4 {
			return fmt.Errorf("DISPLAY_TEXT_SIZE must be 1-4, got %d", size)
		}
		c.DisplayTextSize = size
	case "DISPLAY_CURSOR_X":
		x, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_CURSOR_X %q: %w", value, err)
		}
		c.DisplayCursorX = x
	case "DISPLAY_CURSOR_Y":
		y, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_CURSOR_Y %q: %w", value, err)
		}
		c.DisplayCursorY = y

	// Diagnostic stream
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = uint(rate)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_HEARTBEAT":
		c.TopicHeartbeat = value

	// Register debug tool
	case "REGISTER_DEBUG_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid REGISTER_DEBUG_PORT %q: %w", value, err)
		}
		c.RegisterDebugPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func parseI2CAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if addr > 0x7F {
		return 0, fmt.Errorf("%s must be a 7-bit address (0x00-0x7F), got 0x%X", key, addr)
	}
	return uint16(addr), nil
}

// validate checks cross-field constraints once the whole file is read.
func (c *Config) validate() error {
	if c.DisplayCursorX < 0 || c.DisplayCursorY < 0 {
		return fmt.Errorf("DISPLAY_CURSOR_X/DISPLAY_CURSOR_Y must not be negative, got (%d,%d)", c.DisplayCursorX, c.DisplayCursorY)
	}
	if c.DisplayEnabled && c.IMUI2CAddr == DisplayI2CAddr {
		return fmt.Errorf("IMU_I2C_ADDR 0x%02X collides with the display", c.IMUI2CAddr)
	}
	if c.SerialPort != "" && c.SerialBaudRate == 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE is required when SERIAL_PORT is set")
	}
	if c.MQTTBroker != "" && c.TopicHeartbeat == "" {
		return fmt.Errorf("TOPIC_HEARTBEAT is required when MQTT_BROKER is set")
	}
	if c.RegisterDebugPort < 1 || c.RegisterDebugPort > 65535 {
		return fmt.Errorf("REGISTER_DEBUG_PORT must be 1-65535, got %d", c.RegisterDebugPort)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
