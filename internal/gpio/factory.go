package gpio

import (
	"fmt"
	"log/slog"
)

// Options selects and configures a GPIO backend.
type Options struct {
	// Backend is one of "sysfs", "pigpiod", "noop".
	Backend string
	// PigpiodAddr is the pigpio daemon address (host:port) for the
	// pigpiod backend. Defaults to localhost:8888.
	PigpiodAddr string
}

// New creates a GPIO driver for the configured backend.
func New(opts Options, logger *slog.Logger) (Driver, error) {
	switch opts.Backend {
	case "sysfs":
		logger.Info("Using sysfs GPIO driver")
		return NewSysfs(), nil

	case "pigpiod":
		logger.Info("Using pigpiod GPIO driver", "addr", opts.PigpiodAddr)
		return NewPigpiod(opts.PigpiodAddr)

	case "noop", "":
		logger.Info("Using no-op GPIO driver")
		return NewNoop(logger), nil

	default:
		return nil, fmt.Errorf("unknown GPIO backend %q", opts.Backend)
	}
}
