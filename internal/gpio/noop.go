package gpio

import "log/slog"

// noopDriver implements Driver as a no-op for development machines
// without GPIO hardware. Level changes are logged at debug level.
type noopDriver struct {
	logger *slog.Logger
}

// NewNoop creates a no-op GPIO driver.
func NewNoop(logger *slog.Logger) Driver {
	return &noopDriver{logger: logger}
}

func (d *noopDriver) Name() string { return "noop" }

func (d *noopDriver) Close() error { return nil }

func (d *noopDriver) ConfigureOutput(pin int) (Pin, error) {
	d.logger.Debug("GPIO control not available (no-op)", "pin", pin)
	return &noopPin{logger: d.logger, number: pin}, nil
}

type noopPin struct {
	logger *slog.Logger
	number int
}

func (p *noopPin) SetLevel(on bool) error {
	p.logger.Debug("Set pin level (no-op)", "pin", p.number, "on", on)
	return nil
}

func (p *noopPin) Release() error { return nil }
