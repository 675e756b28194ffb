package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/i2c_bug/internal/bringup"
	"github.com/relabs-tech/i2c_bug/internal/imu"
	"github.com/relabs-tech/i2c_bug/internal/sensors"
)

type fakeRegs struct {
	regs    map[byte]byte
	writes  [][2]byte
	readErr error
	sample  imu.Sample
}

func newFakeRegs() *fakeRegs {
	return &fakeRegs{regs: map[byte]byte{sensors.RegWhoAmI: sensors.WhoAmIMPU6886}}
}

func (f *fakeRegs) WriteRegister8(reg, value byte) error {
	f.regs[reg] = value
	f.writes = append(f.writes, [2]byte{reg, value})
	return nil
}

func (f *fakeRegs) ReadRegister8(reg byte) (byte, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.regs[reg], nil
}

func (f *fakeRegs) Update() error {
	f.sample.Az++
	return nil
}

func (f *fakeRegs) Latest() imu.Sample { return f.sample }

func newTestDebug(dev *fakeRegs) *RegisterDebug {
	d := NewRegisterDebug(dev)
	d.sleep = func(time.Duration) {}
	return d
}

func dialDebug(t *testing.T, d *RegisterDebug) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(d.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var hello RegisterResponse
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read register map: %v", err)
	}
	if hello.Type != "register_map" || len(hello.RegisterMap) == 0 {
		t.Fatalf("first message = %+v, want register map", hello.Type)
	}
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req Request) RegisterResponse {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp RegisterResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func TestRegisterDebugReadWrite(t *testing.T) {
	dev := newFakeRegs()
	conn := dialDebug(t, newTestDebug(dev))

	resp := roundTrip(t, conn, Request{Action: "read", Address: "0x75"})
	if resp.Type != "register_data" || resp.Value != "0x19" {
		t.Fatalf("read WHO_AM_I = %+v", resp)
	}

	resp = roundTrip(t, conn, Request{Action: "write", Address: "0x1B", Value: "0x18"})
	if resp.Type != "register_data" || dev.regs[sensors.RegGyroConfig] != 0x18 {
		t.Fatalf("write GYRO_CONFIG = %+v, reg = 0x%02X", resp, dev.regs[sensors.RegGyroConfig])
	}

	resp = roundTrip(t, conn, Request{Action: "write", Address: "0x75", Value: "0x00"})
	if resp.Type != "error" {
		t.Errorf("write to read-only register = %+v, want error", resp)
	}

	resp = roundTrip(t, conn, Request{Action: "read", Address: "75"})
	if resp.Type != "error" {
		t.Errorf("malformed address = %+v, want error", resp)
	}

	resp = roundTrip(t, conn, Request{Action: "reboot"})
	if resp.Type != "error" {
		t.Errorf("unknown action = %+v, want error", resp)
	}
}

func TestRegisterDebugApplyBringup(t *testing.T) {
	dev := newFakeRegs()
	conn := dialDebug(t, newTestDebug(dev))

	resp := roundTrip(t, conn, Request{Action: "apply_bringup"})
	if resp.Type != "status" {
		t.Fatalf("apply_bringup = %+v", resp)
	}

	seq := bringup.Sequence()
	if len(dev.writes) != len(seq) {
		t.Fatalf("wrote %d registers, want %d", len(dev.writes), len(seq))
	}
	for i, w := range seq {
		if dev.writes[i] != [2]byte{w.Register, w.Value} {
			t.Errorf("write %d = %v, want %s=0x%02X", i, dev.writes[i], w.Name, w.Value)
		}
	}
}

func TestRegisterDebugExportOnlyWritable(t *testing.T) {
	dev := newFakeRegs()
	conn := dialDebug(t, newTestDebug(dev))

	resp := roundTrip(t, conn, Request{Action: "export_config"})
	if resp.Type != "export_config" || resp.Config == nil {
		t.Fatalf("export_config = %+v", resp)
	}
	if _, ok := resp.Config.Registers["0x75"]; ok {
		t.Error("export includes read-only WHO_AM_I")
	}
	if _, ok := resp.Config.Registers["0x1B"]; !ok {
		t.Error("export is missing GYRO_CONFIG")
	}

	all := roundTrip(t, conn, Request{Action: "read_all"})
	if len(all.Registers) != len(sensors.MPU6886RegisterMap()) {
		t.Errorf("read_all returned %d registers, want %d", len(all.Registers), len(sensors.MPU6886RegisterMap()))
	}
}

func TestRegisterDebugReadError(t *testing.T) {
	dev := newFakeRegs()
	dev.readErr = errors.New("i2c: NACK")
	conn := dialDebug(t, newTestDebug(dev))

	resp := roundTrip(t, conn, Request{Action: "read_all"})
	if resp.Type != "error" || !strings.Contains(resp.Message, "NACK") {
		t.Errorf("read_all with bus error = %+v", resp)
	}
}

func TestHandleIMUData(t *testing.T) {
	dev := newFakeRegs()
	d := newTestDebug(dev)

	rec := httptest.NewRecorder()
	d.HandleIMUData(rec, httptest.NewRequest(http.MethodGet, "/api/imu", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var s imu.Sample
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Az != 1 {
		t.Errorf("az = %d, want freshly updated sample", s.Az)
	}
}
