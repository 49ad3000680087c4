package gpio

// invertedPin flips the logical level for active-low wiring, where
// driving the line low turns the LED on.
type invertedPin struct {
	inner Pin
}

// Inverted wraps a pin so that SetLevel(true) drives the line low.
func Inverted(pin Pin) Pin {
	return &invertedPin{inner: pin}
}

func (p *invertedPin) SetLevel(on bool) error {
	return p.inner.SetLevel(!on)
}

func (p *invertedPin) Release() error {
	return p.inner.Release()
}
