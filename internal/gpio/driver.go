package gpio

// Pin is an exclusively owned output pin handle. SetLevel drives the pin
// high (true) or low (false). Release returns the pin to the backend; it
// is a no-op for backends without explicit teardown.
//
// A Pin is owned by a single player goroutine and must not be shared
// unless the backend documents concurrent use.
type Pin interface {
	SetLevel(on bool) error
	Release() error
}

// Driver configures output pins for a specific GPIO backend. The backend
// is chosen once at construction; players receive configured Pin handles
// and never see the driver itself.
type Driver interface {
	// ConfigureOutput claims the given pin as an output and returns a
	// handle for driving it. The pin level after configuration is
	// undefined; callers set an initial level themselves.
	ConfigureOutput(pin int) (Pin, error)

	// Name returns the backend identifier (sysfs, pigpiod, noop).
	Name() string

	// Close releases backend-wide resources (e.g. the pigpiod socket).
	Close() error
}
