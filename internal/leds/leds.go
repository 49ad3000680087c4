// Package leds defines LED specifications and their persistent store.
// A spec describes the wiring of one LED (name, GPIO pin, polarity);
// the blink supervisor turns enabled specs into running players.
package leds

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound    = errors.New("LED spec not found")
	ErrExists      = errors.New("LED spec already exists")
	ErrInvalidSpec = errors.New("invalid LED spec")
)

// Spec describes one LED definition as persisted in leds.toml.
type Spec struct {
	Name        string `toml:"name" json:"name"`
	Pin         int    `toml:"pin" json:"pin"`
	ActiveLow   bool   `toml:"active_low,omitempty" json:"active_low,omitempty"`
	Enabled     bool   `toml:"enabled" json:"enabled"`
	Description string `toml:"description,omitempty" json:"description,omitempty"`

	CreatedAt time.Time `toml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time `toml:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Store persists LED specifications.
type Store interface {
	Load() error
	Save() error
	Add(spec Spec) error
	Update(name string, updates Spec) error
	Remove(name string) error
	Get(name string) (Spec, bool)
	All() map[string]Spec
	Enabled() map[string]Spec
}

// Validate checks a single spec for internal consistency.
func Validate(spec Spec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidSpec)
	}
	if spec.Pin < 0 {
		return fmt.Errorf("%w: %q has negative pin %d", ErrInvalidSpec, spec.Name, spec.Pin)
	}
	return nil
}

// ValidateSet checks a full set of specs: each spec must be valid and no
// two enabled LEDs may share a pin.
func ValidateSet(specs map[string]Spec) error {
	pins := make(map[int]string)
	for name, spec := range specs {
		if err := Validate(spec); err != nil {
			return err
		}
		if spec.Name != name {
			return fmt.Errorf("%w: key %q does not match name %q", ErrInvalidSpec, name, spec.Name)
		}
		if !spec.Enabled {
			continue
		}
		if other, taken := pins[spec.Pin]; taken {
			return fmt.Errorf("%w: %q and %q both use pin %d", ErrInvalidSpec, other, name, spec.Pin)
		}
		pins[spec.Pin] = name
	}
	return nil
}
