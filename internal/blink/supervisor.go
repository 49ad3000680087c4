package blink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/cjnaz/blinkd/internal/events"
	"github.com/cjnaz/blinkd/internal/gpio"
)

// Supervisor errors.
var (
	ErrUnknownLED = errors.New("unknown LED")
	ErrLEDExists  = errors.New("LED already exists")
	ErrLEDExited  = errors.New("LED player has exited")
)

// LED describes one supervised output.
type LED struct {
	Name      string
	Pin       int
	ActiveLow bool
}

// Supervisor owns the set of players, one per LED. It configures pins,
// starts player goroutines, routes command pushes, and coordinates
// cooperative shutdown. After startup the supervisor only ever talks to
// a player through its queue.
type Supervisor struct {
	driver gpio.Driver
	logger *slog.Logger
	bus    *events.Bus

	mu      sync.Mutex
	players map[string]*Player
	specs   map[string]LED
}

// NewSupervisor creates a supervisor over the given GPIO driver.
func NewSupervisor(driver gpio.Driver, opts Options) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		driver:  driver,
		logger:  logger,
		bus:     opts.Bus,
		players: make(map[string]*Player),
		specs:   make(map[string]LED),
	}
}

// Add configures the LED's pin as an output, drives it low, and starts a
// player for it. A driver failure here is fatal for that LED and is
// surfaced to the caller; no player is started.
func (s *Supervisor) Add(led LED) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(led)
}

func (s *Supervisor) addLocked(led LED) error {
	if _, exists := s.players[led.Name]; exists {
		return fmt.Errorf("%w: %q", ErrLEDExists, led.Name)
	}
	for name, spec := range s.specs {
		if spec.Pin == led.Pin {
			return fmt.Errorf("%w: pin %d already assigned to %q", ErrLEDExists, led.Pin, name)
		}
	}

	pin, err := s.driver.ConfigureOutput(led.Pin)
	if err != nil {
		return fmt.Errorf("failed to configure pin %d for %q: %w", led.Pin, led.Name, err)
	}
	if led.ActiveLow {
		pin = gpio.Inverted(pin)
	}

	player := NewPlayer(led.Name, led.Pin, pin, NewQueue(), Options{Logger: s.logger, Bus: s.bus})
	if err := player.Start(); err != nil {
		if relErr := pin.Release(); relErr != nil {
			s.logger.Warn("Failed to release pin after start failure", "led", led.Name, "error", relErr)
		}
		return err
	}

	s.players[led.Name] = player
	s.specs[led.Name] = led
	s.logger.Info("LED added", "led", led.Name, "pin", led.Pin, "active_low", led.ActiveLow)
	return nil
}

// Push queues a command for the named LED.
func (s *Supervisor) Push(name string, cmd Command) error {
	s.mu.Lock()
	player, exists := s.players[name]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownLED, name)
	}
	if player.Status().State == StateExited {
		return fmt.Errorf("%w: %q", ErrLEDExited, name)
	}

	player.Queue().Push(cmd)
	return nil
}

// Status returns the snapshot for one LED.
func (s *Supervisor) Status(name string) (Status, error) {
	s.mu.Lock()
	player, exists := s.players[name]
	s.mu.Unlock()

	if !exists {
		return Status{}, fmt.Errorf("%w: %q", ErrUnknownLED, name)
	}
	return player.Status(), nil
}

// Statuses returns snapshots for all LEDs, sorted by name.
func (s *Supervisor) Statuses() []Status {
	s.mu.Lock()
	players := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	s.mu.Unlock()

	statuses := make([]Status, 0, len(players))
	for _, p := range players {
		statuses = append(statuses, p.Status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// Retire pushes an exit command to the named LED, waits for its player
// to terminate, and removes it from the supervised set. The final level
// is the one carried by the exit command.
func (s *Supervisor) Retire(ctx context.Context, name string, cmd Command) error {
	cmd.Modifier = ModifierExit

	s.mu.Lock()
	player, exists := s.players[name]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownLED, name)
	}

	if player.Status().State != StateExited {
		player.Queue().Push(cmd)
	}

	select {
	case <-player.Done():
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for %q to exit: %w", name, ctx.Err())
	}

	s.mu.Lock()
	delete(s.players, name)
	delete(s.specs, name)
	s.mu.Unlock()

	s.logger.Info("LED retired", "led", name)
	return nil
}

// Reconcile brings the supervised set in line with the desired LED
// definitions: new LEDs are added, removed ones are retired (settling
// low), and LEDs whose pin or polarity changed are retired and re-added.
// Used by the config watcher on leds.toml reloads.
func (s *Supervisor) Reconcile(ctx context.Context, desired map[string]LED) {
	s.mu.Lock()
	current := make(map[string]LED, len(s.specs))
	for name, spec := range s.specs {
		current[name] = spec
	}
	s.mu.Unlock()

	for name, spec := range current {
		want, keep := desired[name]
		if keep && want == spec {
			continue
		}
		if err := s.Retire(ctx, name, Exit(false)); err != nil {
			s.logger.Warn("Failed to retire LED during reconcile", "led", name, "error", err)
		}
	}

	for name, want := range desired {
		have, exists := current[name]
		if exists && have == want {
			continue
		}
		if err := s.Add(want); err != nil {
			s.logger.Warn("Failed to add LED during reconcile", "led", name, "error", err)
		}
	}
}

// Shutdown pushes an exit command (settling low) to every player and
// waits for each to terminate. Termination is cooperative, never forced:
// a player part-way through a pattern finishes its current bit holds
// before observing the exit command.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	players := make(map[string]*Player, len(s.players))
	for name, p := range s.players {
		players[name] = p
	}
	s.mu.Unlock()

	for _, p := range players {
		if p.Status().State != StateExited {
			p.Queue().Push(Exit(false))
		}
	}

	for name, p := range players {
		select {
		case <-p.Done():
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for %q to exit: %w", name, ctx.Err())
		}
	}

	s.logger.Info("All players exited")
	return nil
}
