package gpio

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
)

type fakeRequest struct {
	cmd, p1, p2 uint32
}

// fakePigpiod accepts one connection and answers every 16-byte request
// with the scripted result code.
type fakePigpiod struct {
	listener net.Listener
	result   int32

	mu       sync.Mutex
	requests []fakeRequest
}

func newFakePigpiod(t *testing.T, result int32) *fakePigpiod {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	f := &fakePigpiod{listener: listener, result: result}
	go f.serve()
	t.Cleanup(func() { listener.Close() })
	return f
}

func (f *fakePigpiod) serve() {
	conn, err := f.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	var buf [16]byte
	for {
		if _, err := io.ReadFull(conn, buf[:]); err != nil {
			return
		}

		f.mu.Lock()
		f.requests = append(f.requests, fakeRequest{
			cmd: binary.LittleEndian.Uint32(buf[0:]),
			p1:  binary.LittleEndian.Uint32(buf[4:]),
			p2:  binary.LittleEndian.Uint32(buf[8:]),
		})
		f.mu.Unlock()

		var resp [16]byte
		copy(resp[:12], buf[:12])
		binary.LittleEndian.PutUint32(resp[12:], uint32(f.result))
		if _, err := conn.Write(resp[:]); err != nil {
			return
		}
	}
}

func (f *fakePigpiod) recorded() []fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeRequest(nil), f.requests...)
}

func TestPigpiodConfigureAndWrite(t *testing.T) {
	fake := newFakePigpiod(t, 0)

	driver, err := NewPigpiod(fake.listener.Addr().String())
	if err != nil {
		t.Fatalf("NewPigpiod() error: %v", err)
	}
	defer driver.Close()

	pin, err := driver.ConfigureOutput(17)
	if err != nil {
		t.Fatalf("ConfigureOutput() error: %v", err)
	}

	if err := pin.SetLevel(true); err != nil {
		t.Fatalf("SetLevel(true) error: %v", err)
	}
	if err := pin.SetLevel(false); err != nil {
		t.Fatalf("SetLevel(false) error: %v", err)
	}

	requests := fake.recorded()
	if len(requests) != 3 {
		t.Fatalf("fake daemon saw %d requests, want 3", len(requests))
	}

	want := []fakeRequest{
		{cmd: pigpioCmdModes, p1: 17, p2: pigpioModeOutput},
		{cmd: pigpioCmdWrite, p1: 17, p2: 1},
		{cmd: pigpioCmdWrite, p1: 17, p2: 0},
	}
	for i, req := range requests {
		if req != want[i] {
			t.Errorf("request %d = %+v, want %+v", i, req, want[i])
		}
	}
}

func TestPigpiodErrorResult(t *testing.T) {
	fake := newFakePigpiod(t, -3) // PI_BAD_MODE

	driver, err := NewPigpiod(fake.listener.Addr().String())
	if err != nil {
		t.Fatalf("NewPigpiod() error: %v", err)
	}
	defer driver.Close()

	if _, err := driver.ConfigureOutput(17); err == nil {
		t.Error("ConfigureOutput() should surface daemon error codes")
	}
}

func TestPigpiodConnectFailure(t *testing.T) {
	// Port from a closed listener: nothing is listening there anymore.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := listener.Addr().String()
	listener.Close()

	if _, err := NewPigpiod(addr); err == nil {
		t.Error("NewPigpiod() to dead address should return error")
	}
}
