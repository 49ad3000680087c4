package gpio

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// pigpio daemon socket command codes.
const (
	pigpioCmdModes = 0 // set pin mode
	pigpioCmdWrite = 4 // write pin level
)

// pigpio pin mode for outputs.
const pigpioModeOutput = 1

const pigpiodDialTimeout = 5 * time.Second

// pigpiodDriver implements Driver against a pigpio daemon's socket
// interface (default localhost:8888). All pins share one connection;
// requests are serialized, so handles are safe for concurrent use
// across player goroutines.
type pigpiodDriver struct {
	addr string
	mu   sync.Mutex
	conn net.Conn
}

// NewPigpiod connects to a pigpio daemon at addr (host:port).
func NewPigpiod(addr string) (Driver, error) {
	if addr == "" {
		addr = "localhost:8888"
	}

	conn, err := net.DialTimeout("tcp", addr, pigpiodDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pigpiod at %s: %w", addr, err)
	}

	return &pigpiodDriver{addr: addr, conn: conn}, nil
}

func (d *pigpiodDriver) Name() string { return "pigpiod" }

func (d *pigpiodDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

// ConfigureOutput sets the pin mode to output via the daemon.
func (d *pigpiodDriver) ConfigureOutput(pin int) (Pin, error) {
	if err := d.command(pigpioCmdModes, uint32(pin), pigpioModeOutput); err != nil {
		return nil, fmt.Errorf("failed to configure gpio %d as output: %w", pin, err)
	}
	return &pigpiodPin{driver: d, number: pin}, nil
}

// command sends one request on the shared socket and checks the result.
// The pigpio socket protocol is four little-endian uint32 words
// (cmd, p1, p2, p3) with a same-shaped response whose last word is the
// result (negative = error).
func (d *pigpiodDriver) command(cmd, p1, p2 uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return fmt.Errorf("pigpiod connection closed")
	}

	var req [16]byte
	binary.LittleEndian.PutUint32(req[0:], cmd)
	binary.LittleEndian.PutUint32(req[4:], p1)
	binary.LittleEndian.PutUint32(req[8:], p2)
	binary.LittleEndian.PutUint32(req[12:], 0)

	if _, err := d.conn.Write(req[:]); err != nil {
		return fmt.Errorf("pigpiod write failed: %w", err)
	}

	var resp [16]byte
	if _, err := io.ReadFull(d.conn, resp[:]); err != nil {
		return fmt.Errorf("pigpiod read failed: %w", err)
	}

	res := int32(binary.LittleEndian.Uint32(resp[12:]))
	if res < 0 {
		return fmt.Errorf("pigpiod command %d returned error code %d", cmd, res)
	}
	return nil
}

// pigpiodPin drives one pin through the shared daemon connection.
type pigpiodPin struct {
	driver *pigpiodDriver
	number int
}

func (p *pigpiodPin) SetLevel(on bool) error {
	level := uint32(0)
	if on {
		level = 1
	}
	return p.driver.command(pigpioCmdWrite, uint32(p.number), level)
}

// Release is a no-op; the daemon keeps pin state until reconfigured.
func (p *pigpiodPin) Release() error { return nil }
