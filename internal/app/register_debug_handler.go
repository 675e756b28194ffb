// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/i2c_bug/internal/bringup"
	"github.com/relabs-tech/i2c_bug/internal/config"
	"github.com/relabs-tech/i2c_bug/internal/imu"
	"github.com/relabs-tech/i2c_bug/internal/sensors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local bench tool
	},
}

// RegisterDevice is the IMU as seen by the register debug tool.
type RegisterDevice interface {
	imu.RegisterWriter
	imu.Refresher
	ReadRegister8(reg byte) (byte, error)
	Latest() imu.Sample
}

// RegisterDebug serves register-level access to the IMU over WebSocket.
// All bus traffic goes through mu: HTTP handlers run concurrently but the
// bus must see one transaction at a time.
type RegisterDebug struct {
	mu    sync.Mutex
	dev   RegisterDevice
	sleep func(time.Duration)
}

// NewRegisterDebug returns a debug tool bound to dev.
func NewRegisterDebug(dev RegisterDevice) *RegisterDebug {
	return &RegisterDebug{dev: dev, sleep: time.Sleep}
}

// Request is any message a client sends.
type Request struct {
	Action  string `json:"action"` // "get_map", "read", "read_all", "write", "apply_bringup", "export_config"
	Address string `json:"addr,omitempty"`
	Value   string `json:"value,omitempty"`
}

// RegisterResponse is any message the tool sends back.
type RegisterResponse struct {
	Type        string            `json:"type"` // "register_data", "register_map", "status", "export_config", "error"
	Address     string            `json:"addr,omitempty"`
	Value       string            `json:"value,omitempty"`
	Registers   map[string]string `json:"registers,omitempty"`
	Timestamp   string            `json:"timestamp,omitempty"`
	Message     string            `json:"message,omitempty"`
	RegisterMap []RegisterInfo    `json:"register_map,omitempty"`
	Config      *RegisterConfig   `json:"config,omitempty"`
	Filename    string            `json:"filename,omitempty"`
}

// RegisterInfo is sensors.RegisterInfo with hex-formatted numbers.
type RegisterInfo struct {
	Address     string             `json:"address"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Access      string             `json:"access"`
	Default     string             `json:"default,omitempty"`
	BitFields   []sensors.BitField `json:"bit_fields,omitempty"`
}

// RegisterConfig is the exported snapshot of the writable registers.
type RegisterConfig struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

// HandleWS handles one WebSocket debugging session.
func (d *RegisterDebug) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Send register map on connection
	if err := conn.WriteJSON(d.registerMap()); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			return
		}

		if err := conn.WriteJSON(d.handle(req)); err != nil {
			log.Printf("register_debug: write error: %v", err)
			return
		}
	}
}

func (d *RegisterDebug) handle(req Request) RegisterResponse {
	switch req.Action {
	case "get_map":
		return d.registerMap()
	case "read":
		return d.handleRead(req)
	case "read_all":
		return d.handleReadAll()
	case "write":
		return d.handleWrite(req)
	case "apply_bringup":
		return d.handleApplyBringup()
	case "export_config":
		return d.handleExportConfig()
	default:
		return errorResponse("unknown action: %s", req.Action)
	}
}

func (d *RegisterDebug) handleRead(req Request) RegisterResponse {
	addr, err := parseHexByte(req.Address)
	if err != nil {
		return errorResponse("invalid address format: %s", req.Address)
	}

	d.mu.Lock()
	value, err := d.dev.ReadRegister8(addr)
	d.mu.Unlock()
	if err != nil {
		return errorResponse("read error: %v", err)
	}

	return RegisterResponse{
		Type:      "register_data",
		Address:   hex(addr),
		Value:     hex(value),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func (d *RegisterDebug) handleReadAll() RegisterResponse {
	regs, err := d.readAll(false)
	if err != nil {
		return errorResponse("read all error: %v", err)
	}
	return RegisterResponse{
		Type:      "register_data",
		Registers: regs,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func (d *RegisterDebug) handleWrite(req Request) RegisterResponse {
	addr, err := parseHexByte(req.Address)
	if err != nil {
		return errorResponse("invalid address format: %s", req.Address)
	}
	value, err := parseHexByte(req.Value)
	if err != nil {
		return errorResponse("invalid value format: %s", req.Value)
	}

	info, ok := sensors.LookupRegister(addr)
	if !ok || !info.Writable() {
		return errorResponse("register %s is not writable", hex(addr))
	}

	d.mu.Lock()
	err = d.dev.WriteRegister8(addr, value)
	d.mu.Unlock()
	if err != nil {
		return errorResponse("write error: %v", err)
	}

	log.Printf("register_debug: %s <- %s", info.Name, hex(value))
	return RegisterResponse{
		Type:      "register_data",
		Address:   hex(addr),
		Value:     hex(value),
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "write successful",
	}
}

func (d *RegisterDebug) handleApplyBringup() RegisterResponse {
	d.mu.Lock()
	err := bringup.Configure(d.dev, d.sleep)
	d.mu.Unlock()
	if err != nil {
		return errorResponse("bring-up failed: %v", err)
	}
	return RegisterResponse{
		Type:    "status",
		Message: fmt.Sprintf("bring-up applied (%d registers)", len(bringup.Sequence())),
	}
}

func (d *RegisterDebug) handleExportConfig() RegisterResponse {
	regs, err := d.readAll(true)
	if err != nil {
		return errorResponse("export error: %v", err)
	}

	now := time.Now()
	return RegisterResponse{
		Type:    "export_config",
		Message: "config exported",
		Config: &RegisterConfig{
			Version:   1,
			Device:    "mpu6886",
			Timestamp: now.Format(time.RFC3339),
			Registers: regs,
		},
		Filename: fmt.Sprintf("mpu6886_%s_registers.json", now.Format("20060102_150405")),
	}
}

// readAll reads every mapped register, or only the writable ones.
func (d *RegisterDebug) readAll(writableOnly bool) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs := make(map[string]string)
	for _, info := range sensors.MPU6886RegisterMap() {
		if writableOnly && !info.Writable() {
			continue
		}
		v, err := d.dev.ReadRegister8(info.Address)
		if err != nil {
			return nil, err
		}
		regs[hex(info.Address)] = hex(v)
	}
	return regs, nil
}

func (d *RegisterDebug) registerMap() RegisterResponse {
	regMap := sensors.MPU6886RegisterMap()
	mapped := make([]RegisterInfo, len(regMap))
	for i, r := range regMap {
		mapped[i] = RegisterInfo{
			Address:     hex(r.Address),
			Name:        r.Name,
			Description: r.Description,
			Access:      r.Access,
			Default:     hex(r.Default),
			BitFields:   r.BitFields,
		}
	}
	return RegisterResponse{Type: "register_map", RegisterMap: mapped}
}

// HandleIMUData serves a freshly latched sample as JSON.
func (d *RegisterDebug) HandleIMUData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	d.mu.Lock()
	err := d.dev.Update()
	sample := d.dev.Latest()
	d.mu.Unlock()

	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error": %q}`, err.Error()), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(sample); err != nil {
		log.Printf("register_debug: json encode error: %v", err)
	}
}

// RunRegisterDebug opens the board and serves the debug tool on addr
// (":<RegisterDebugPort>" when addr is empty).
func RunRegisterDebug(cfg *config.Config, addr string) error {
	log.Println("starting MPU6886 register debug tool")

	board, err := sensors.OpenBoard(cfg)
	if err != nil {
		return err
	}
	defer board.Close()

	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.RegisterDebugPort)
	}

	d := NewRegisterDebug(board.IMU)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", d.HandleWS)
	mux.HandleFunc("/api/imu", d.HandleIMUData)

	log.Printf("register debug tool listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func errorResponse(format string, args ...interface{}) RegisterResponse {
	return RegisterResponse{Type: "error", Message: fmt.Sprintf(format, args...)}
}

func parseHexByte(s string) (byte, error) {
	var b byte
	if _, err := fmt.Sscanf(s, "0x%X", &b); err != nil {
		return 0, err
	}
	return b, nil
}

func hex(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}
