package diag

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"

	serial "github.com/jacobsa/go-serial/serial"
)

type bufPort struct {
	bytes.Buffer
	closed bool
}

func (p *bufPort) Close() error {
	p.closed = true
	return nil
}

func TestOpenEmptyPortIsStdout(t *testing.T) {
	w, err := Open("", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	nc, ok := w.(nopCloser)
	if !ok || nc.Writer != os.Stdout {
		t.Fatalf("Open(\"\") = %#v, want stdout", w)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpenSerialOptions(t *testing.T) {
	port := &bufPort{}
	var got serial.OpenOptions
	openPort = func(o serial.OpenOptions) (io.ReadWriteCloser, error) {
		got = o
		return port, nil
	}
	defer func() { openPort = serial.Open }()

	w, err := Open("/dev/ttyUSB0", 115200)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.PortName != "/dev/ttyUSB0" || got.BaudRate != 115200 || got.DataBits != 8 || got.StopBits != 1 || got.ParityMode != serial.PARITY_NONE {
		t.Errorf("options = %+v", got)
	}

	if _, err := io.WriteString(w, "0 "); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()
	if port.String() != "0 " || !port.closed {
		t.Errorf("port = %q closed=%v", port.String(), port.closed)
	}
}

func TestOpenSerialError(t *testing.T) {
	openPort = func(serial.OpenOptions) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such device")
	}
	defer func() { openPort = serial.Open }()

	if _, err := Open("/dev/ttyUSB9", 9600); err == nil {
		t.Fatal("expected error")
	}
}
