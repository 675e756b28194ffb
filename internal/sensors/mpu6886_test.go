package sensors

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

const testAddr = 0x68

func newTestIMU(ops []i2ctest.IO) (*MPU6886, *i2ctest.Playback) {
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}
	d := NewMPU6886("test", &i2c.Dev{Bus: bus, Addr: testAddr})
	d.sleep = func(time.Duration) {}
	return d, bus
}

func TestWriteRegister8(t *testing.T) {
	d, bus := newTestIMU([]i2ctest.IO{
		{Addr: testAddr, W: []byte{RegGyroConfig, GFS250DPS << 3}},
	})

	if err := d.WriteRegister8(RegGyroConfig, GFS250DPS<<3); err != nil {
		t.Fatalf("WriteRegister8: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("playback not fully consumed: %v", err)
	}
}

func TestWriteRegister8PropagatesBusError(t *testing.T) {
	// empty playback: every transaction fails
	d, _ := newTestIMU(nil)

	if err := d.WriteRegister8(RegConfig, 0x05); err == nil {
		t.Fatal("expected bus error")
	}
}

func TestUpdateDecodesBigEndianBlock(t *testing.T) {
	block := []byte{
		0x40, 0x00, // ax = 16384
		0xC0, 0x00, // ay = -16384
		0x00, 0x01, // az = 1
		0x0A, 0x0B, // temp
		0xFF, 0xFF, // gx = -1
		0x00, 0x10, // gy = 16
		0x7F, 0xFF, // gz = 32767
	}
	d, bus := newTestIMU([]i2ctest.IO{
		{Addr: testAddr, W: []byte{RegAccelXoutH}, R: block},
	})

	if err := d.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	s := d.Latest()
	if s.Ax != 16384 || s.Ay != -16384 || s.Az != 1 {
		t.Errorf("accel = %d,%d,%d", s.Ax, s.Ay, s.Az)
	}
	if s.Temp != 0x0A0B {
		t.Errorf("temp = 0x%04X, want 0x0A0B", s.Temp)
	}
	if s.Gx != -1 || s.Gy != 16 || s.Gz != 32767 {
		t.Errorf("gyro = %d,%d,%d", s.Gx, s.Gy, s.Gz)
	}
	if s.Source != "test" {
		t.Errorf("source = %q", s.Source)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("playback not fully consumed: %v", err)
	}
}

func TestUpdateFailureKeepsPreviousSample(t *testing.T) {
	d, _ := newTestIMU(nil)
	d.latest.Ax = 42

	if err := d.Update(); err == nil {
		t.Fatal("expected error")
	}
	if d.Latest().Ax != 42 {
		t.Errorf("latched sample was overwritten on failure")
	}
}

func TestBeginRejectsWrongDevice(t *testing.T) {
	d, _ := newTestIMU([]i2ctest.IO{
		{Addr: testAddr, W: []byte{RegWhoAmI}, R: []byte{0x68}},
	})

	err := d.Begin()
	if !errors.Is(err, ErrWrongDevice) {
		t.Fatalf("Begin error = %v, want ErrWrongDevice", err)
	}
}

func TestBeginLoadsDefaults(t *testing.T) {
	ops := []i2ctest.IO{{Addr: testAddr, W: []byte{RegWhoAmI}, R: []byte{WhoAmIMPU6886}}}
	for _, w := range [][2]byte{
		{RegPwrMgmt1, 0x00},
		{RegPwrMgmt1, 0x80},
		{RegPwrMgmt1, 0x01},
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
	} {
		ops = append(ops, i2ctest.IO{Addr: testAddr, W: []byte{w[0], w[1]}})
	}
	d, bus := newTestIMU(ops)

	var slept time.Duration
	d.sleep = func(dt time.Duration) { slept += dt }

	if err := d.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("playback not fully consumed: %v", err)
	}
	if slept != 13*10*time.Millisecond {
		t.Errorf("slept %v, want 130ms", slept)
	}
}

func TestRegisterMapLookup(t *testing.T) {
	r, ok := LookupRegister(RegAccelConfig2)
	if !ok || r.Name != "ACCEL_CONFIG2" || !r.Writable() {
		t.Errorf("ACCEL_CONFIG2 lookup = %+v, %v", r, ok)
	}
	if r, ok := LookupRegister(RegWhoAmI); !ok || r.Writable() {
		t.Errorf("WHO_AM_I should be read-only, got %+v", r)
	}
	if got := RegisterName(0x99); got != "0x99" {
		t.Errorf("RegisterName(0x99) = %q", got)
	}

	m := MPU6886RegisterMap()
	m[0].Name = "mutated"
	if MPU6886RegisterMap()[0].Name == "mutated" {
		t.Error("MPU6886RegisterMap returned shared backing array")
	}
}
