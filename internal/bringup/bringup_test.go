package bringup

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// event is either a register write or a sleep, in the order they happened.
type event struct {
	write bool
	reg   byte
	value byte
	sleep time.Duration
}

type recorder struct {
	events []event
	failAt int // 1-based write index that fails, 0 = never
	writes int
}

func (r *recorder) WriteRegister8(reg, value byte) error {
	r.writes++
	if r.failAt == r.writes {
		return fmt.Errorf("i2c: NACK")
	}
	r.events = append(r.events, event{write: true, reg: reg, value: value})
	return nil
}

func (r *recorder) sleep(d time.Duration) {
	r.events = append(r.events, event{sleep: d})
}

func TestConfigureWritesInOrderWithSettleDelays(t *testing.T) {
	rec := &recorder{}
	if err := Configure(rec, rec.sleep); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	want := []struct{ reg, value byte }{
		{0x1B, 0x00}, // GYRO_CONFIG, ±250dps
		{0x1C, 0x00}, // ACCEL_CONFIG, ±2g
		{0x19, 0x00}, // SMPLRT_DIV
		{0x1A, 0x05}, // CONFIG
		{0x1D, 0x05}, // ACCEL_CONFIG2
	}
	if len(rec.events) != 2*len(want) {
		t.Fatalf("got %d events, want %d", len(rec.events), 2*len(want))
	}
	for i, w := range want {
		wr := rec.events[2*i]
		if !wr.write || wr.reg != w.reg || wr.value != w.value {
			t.Errorf("step %d: got %+v, want write 0x%02X=0x%02X", i+1, wr, w.reg, w.value)
		}
		sl := rec.events[2*i+1]
		if sl.write || sl.sleep < 10*time.Millisecond {
			t.Errorf("step %d: expected settle delay >= 10ms after write, got %+v", i+1, sl)
		}
	}
}

func TestConfigureStopsAtFirstFailure(t *testing.T) {
	for failAt := 1; failAt <= len(Sequence()); failAt++ {
		t.Run(fmt.Sprintf("fail_at_%d", failAt), func(t *testing.T) {
			rec := &recorder{failAt: failAt}
			err := Configure(rec, rec.sleep)

			var werr *WriteError
			if !errors.As(err, &werr) {
				t.Fatalf("error = %v, want *WriteError", err)
			}
			if werr.Step != failAt {
				t.Errorf("Step = %d, want %d", werr.Step, failAt)
			}
			if werr.Write != Sequence()[failAt-1] {
				t.Errorf("Write = %+v", werr.Write)
			}
			if rec.writes != failAt {
				t.Errorf("attempted %d writes, want %d (nothing after the failure)", rec.writes, failAt)
			}
			// one write + one settle for each step before the failure
			if len(rec.events) != 2*(failAt-1) {
				t.Errorf("got %d events before failure, want %d", len(rec.events), 2*(failAt-1))
			}
		})
	}
}

func TestConfigureNilDevice(t *testing.T) {
	if err := Configure(nil, func(time.Duration) { t.Fatal("slept without a device") }); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("error = %v, want ErrNoDevice", err)
	}
}

func TestWriteErrorUnwraps(t *testing.T) {
	cause := errors.New("bus busy")
	err := &WriteError{Step: 2, Write: Sequence()[1], Err: cause}
	if !errors.Is(err, cause) {
		t.Error("WriteError does not unwrap to its cause")
	}
	if got := err.Error(); got != "bringup: step 2: write ACCEL_CONFIG=0x00: bus busy" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSequenceReturnsCopy(t *testing.T) {
	s := Sequence()
	s[0].Value = 0xFF
	if Sequence()[0].Value == 0xFF {
		t.Error("Sequence exposes its backing array")
	}
}
