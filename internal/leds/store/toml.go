package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/cjnaz/blinkd/internal/leds"
)

// config represents the complete LED configuration file for TOML marshaling.
type config struct {
	Version int                  `toml:"version" json:"version"`
	LEDs    map[string]leds.Spec `toml:"leds" json:"leds"`
}

// tomlStore implements leds.Store using TOML file storage. HTTP handlers
// mutate it while the config watcher reloads it, so every method takes
// the lock and readers only ever see copies.
type tomlStore struct {
	mu         sync.RWMutex
	configPath string
	config     *config
}

// NewTOML creates a new TOML-based store.
func NewTOML(configPath string) leds.Store {
	if configPath == "" {
		configPath = "leds.toml"
	}

	return &tomlStore{
		configPath: configPath,
		config: &config{
			Version: 1,
			LEDs:    make(map[string]leds.Spec),
		},
	}
}

// LoadFile reads and validates a LED configuration file without keeping
// a store around. Used by the config watcher and the validate command.
func LoadFile(path string) (map[string]leds.Spec, error) {
	s := NewTOML(path).(*tomlStore)
	if err := s.Load(); err != nil {
		return nil, err
	}
	specs := s.All()
	if err := leds.ValidateSet(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// Load loads the LED configuration from file. A missing file is not an
// error; the store starts empty.
func (s *tomlStore) Load() error {
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to read LED config: %w", err)
	}

	// Parse into a fresh config so a failure leaves the store untouched
	loaded := &config{}
	if unmarshalErr := toml.Unmarshal(data, loaded); unmarshalErr != nil {
		return fmt.Errorf("failed to parse LED config: %w", unmarshalErr)
	}

	if loaded.LEDs == nil {
		loaded.LEDs = make(map[string]leds.Spec)
	}
	if loaded.Version == 0 {
		loaded.Version = 1
	}

	s.mu.Lock()
	s.config = loaded
	s.mu.Unlock()
	return nil
}

// Save saves the LED configuration to file.
func (s *tomlStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

// saveLocked writes the config file. Callers hold the lock.
func (s *tomlStore) saveLocked() error {
	dir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("failed to marshal LED config: %w", err)
	}

	if writeErr := os.WriteFile(s.configPath, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write LED config: %w", writeErr)
	}

	return nil
}

// Add adds a new LED spec. New LEDs start enabled.
func (s *tomlStore) Add(spec leds.Spec) error {
	if err := leds.Validate(spec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.config.LEDs[spec.Name]; exists {
		return fmt.Errorf("%w: %q", leds.ErrExists, spec.Name)
	}

	now := time.Now()
	if spec.CreatedAt.IsZero() {
		spec.CreatedAt = now
	}
	spec.UpdatedAt = now
	spec.Enabled = true

	s.config.LEDs[spec.Name] = spec
	return s.saveLocked()
}

// Update updates an existing LED spec, preserving its identity and
// creation time.
func (s *tomlStore) Update(name string, updates leds.Spec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.config.LEDs[name]
	if !exists {
		return fmt.Errorf("%w: %q", leds.ErrNotFound, name)
	}

	updates.Name = existing.Name
	updates.CreatedAt = existing.CreatedAt
	updates.UpdatedAt = time.Now()

	if err := leds.Validate(updates); err != nil {
		return err
	}

	s.config.LEDs[name] = updates
	return s.saveLocked()
}

// Remove removes an LED spec.
func (s *tomlStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.config.LEDs[name]; !exists {
		return fmt.Errorf("%w: %q", leds.ErrNotFound, name)
	}

	delete(s.config.LEDs, name)
	return s.saveLocked()
}

// Get retrieves a spec by name.
func (s *tomlStore) Get(name string) (leds.Spec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, exists := s.config.LEDs[name]
	return spec, exists
}

// All returns a copy of all LED specs.
func (s *tomlStore) All() map[string]leds.Spec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make(map[string]leds.Spec, len(s.config.LEDs))
	for name, spec := range s.config.LEDs {
		all[name] = spec
	}
	return all
}

// Enabled returns only enabled LED specs.
func (s *tomlStore) Enabled() map[string]leds.Spec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled := make(map[string]leds.Spec)
	for name, spec := range s.config.LEDs {
		if spec.Enabled {
			enabled[name] = spec
		}
	}
	return enabled
}
