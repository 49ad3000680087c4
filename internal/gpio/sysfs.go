package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const defaultSysfsPath = "/sys/class/gpio"

// sysfsDriver implements Driver using the Linux sysfs GPIO interface.
// Each pin is exported on configuration and unexported on release.
type sysfsDriver struct {
	basePath string
}

// NewSysfs creates a sysfs GPIO driver rooted at /sys/class/gpio.
func NewSysfs() Driver {
	return &sysfsDriver{basePath: defaultSysfsPath}
}

// newSysfsAt creates a sysfs driver rooted at an alternate path. Used by tests.
func newSysfsAt(basePath string) *sysfsDriver {
	return &sysfsDriver{basePath: basePath}
}

func (d *sysfsDriver) Name() string { return "sysfs" }

func (d *sysfsDriver) Close() error { return nil }

// ConfigureOutput exports the pin and sets its direction to out.
func (d *sysfsDriver) ConfigureOutput(pin int) (Pin, error) {
	pinPath := filepath.Join(d.basePath, fmt.Sprintf("gpio%d", pin))

	// Export unless another process already did
	if _, err := os.Stat(pinPath); os.IsNotExist(err) {
		exportPath := filepath.Join(d.basePath, "export")
		if writeErr := os.WriteFile(exportPath, []byte(strconv.Itoa(pin)), 0o644); writeErr != nil {
			return nil, fmt.Errorf("failed to export gpio %d: %w", pin, writeErr)
		}
	}

	directionPath := filepath.Join(pinPath, "direction")
	if err := os.WriteFile(directionPath, []byte("out"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to set gpio %d direction: %w", pin, err)
	}

	return &sysfsPin{
		number:     pin,
		valuePath:  filepath.Join(pinPath, "value"),
		unexportFn: func() error { return d.unexport(pin) },
	}, nil
}

func (d *sysfsDriver) unexport(pin int) error {
	unexportPath := filepath.Join(d.basePath, "unexport")
	if err := os.WriteFile(unexportPath, []byte(strconv.Itoa(pin)), 0o644); err != nil {
		return fmt.Errorf("failed to unexport gpio %d: %w", pin, err)
	}
	return nil
}

// sysfsPin drives a single exported pin through its value file.
type sysfsPin struct {
	number     int
	valuePath  string
	unexportFn func() error
}

func (p *sysfsPin) SetLevel(on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	if err := os.WriteFile(p.valuePath, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write gpio %d value: %w", p.number, err)
	}
	return nil
}

func (p *sysfsPin) Release() error {
	return p.unexportFn()
}
