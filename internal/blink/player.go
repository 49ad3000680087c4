package blink

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cjnaz/blinkd/internal/events"
	"github.com/cjnaz/blinkd/internal/gpio"
)

// State represents the lifecycle state of a player.
type State string

// Player states. Exited is terminal.
const (
	StateIdle    State = "idle"    // waiting for a command
	StatePlaying State = "playing" // driving the pin
	StateExited  State = "exited"  // terminated after an exit command
)

// Status is a point-in-time snapshot of a player, for the API surface.
type Status struct {
	Name    string   `json:"name"`
	Pin     int      `json:"pin"`
	State   State    `json:"state"`
	Current *Command `json:"current,omitempty"`
	Saved   bool     `json:"saved"`
	Pending int      `json:"pending"`
}

// Options carries the player's collaborators. Bus is optional.
type Options struct {
	Logger *slog.Logger
	Bus    *events.Bus
}

// Player owns one output pin and plays commands from its queue in a
// dedicated goroutine. All command state (current, previous, saved) is
// owned by that goroutine; nothing is shared with other players.
//
// Every recoverable error - malformed fields, an unrecognized modifier,
// restore with an empty save slot, a driver write failure mid-playback -
// is contained to the command that caused it. The player logs it,
// publishes a rejection event, and goes back to waiting.
type Player struct {
	name   string
	pinNum int
	pin    gpio.Pin
	queue  *Queue
	logger *slog.Logger
	bus    *events.Bus

	// Owned by the run goroutine.
	current  *Command
	previous *Command
	saved    *Command
	exiting  bool

	status statusCell
	done   chan struct{}
}

// NewPlayer creates a player for an already-configured output pin.
// Call Start to drive the pin low and begin consuming commands.
func NewPlayer(name string, pinNum int, pin gpio.Pin, queue *Queue, opts Options) *Player {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Player{
		name:   name,
		pinNum: pinNum,
		pin:    pin,
		queue:  queue,
		logger: logger.With("led", name),
		bus:    opts.Bus,
		done:   make(chan struct{}),
	}
	p.status.set(StateIdle, nil, false)
	return p
}

// Start drives the pin to its defined low level and launches the player
// goroutine. A driver failure here is fatal for this player: there is no
// meaningful recovery for a pin the system cannot control, so the
// goroutine is never started and the error is surfaced to the caller.
func (p *Player) Start() error {
	if err := p.pin.SetLevel(false); err != nil {
		return fmt.Errorf("failed to set initial level on pin %d: %w", p.pinNum, err)
	}

	go p.run()

	p.logger.Debug("Player started", "pin", p.pinNum)
	p.publish(events.PlayerStartedEvent{LED: p.name, Pin: p.pinNum, Timestamp: timestamp()})
	return nil
}

// Queue returns the player's command queue.
func (p *Player) Queue() *Queue {
	return p.queue
}

// Done is closed when the player goroutine terminates.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Status returns a snapshot for reporting. Safe to call from any goroutine.
func (p *Player) Status() Status {
	state, current, saved := p.status.get()
	return Status{
		Name:    p.name,
		Pin:     p.pinNum,
		State:   state,
		Current: current,
		Saved:   saved,
		Pending: p.queue.Len(),
	}
}

// run is the player main loop: block for a command, resolve its modifier,
// validate its fields, play it, repeat - until an exit command.
func (p *Player) run() {
	defer close(p.done)

	for {
		cmd := p.queue.Pop()
		p.logger.Debug("Command received", "command", cmd.String())

		switch cmd.Modifier {
		case ModifierNone, ModifierSave, ModifierExit:
			// save and exit are handled after validation

		case ModifierRestore:
			if p.saved == nil {
				p.reject(ReasonRestoreWithoutSave, ErrRestoreWithoutSave)
				continue
			}
			// The restore command's own fields are dummies by protocol;
			// the saved command's playback fields replace them wholesale.
			cmd = Command{PeriodMs: p.saved.PeriodMs, Pattern: p.saved.Pattern, Repeat: p.saved.Repeat}
			p.logger.Debug("Restored saved command", "command", cmd.String())

		default:
			p.reject(ReasonInvalidModifier, fmt.Errorf("%w: %q", ErrInvalidModifier, cmd.Modifier))
			continue
		}

		bits, err := cmd.Bits()
		if err != nil {
			p.reject(ReasonMalformedCommand, err)
			continue
		}

		// Discarded commands above never touch player state; from here on
		// the command is committed.
		if cmd.Modifier == ModifierSave {
			// One-deep slot holding the command being superseded. It is
			// read, not cleared, on restore, so it can be replayed any
			// number of times. The save command itself still plays the
			// fields it carries.
			p.saved = p.current
			p.logger.Debug("Saved prior command")
		}
		if cmd.Modifier == ModifierExit {
			p.exiting = true
		}

		p.previous = p.current
		p.current = &cmd

		p.publish(events.CommandAcceptedEvent{
			LED:       p.name,
			PeriodMs:  cmd.PeriodMs,
			Pattern:   cmd.Pattern,
			Repeat:    cmd.Repeat,
			Modifier:  string(cmd.Modifier),
			Timestamp: timestamp(),
		})

		p.play(cmd, bits)

		if p.exiting {
			if err := p.pin.Release(); err != nil {
				p.logger.Warn("Failed to release pin", "pin", p.pinNum, "error", err)
			}
			p.status.set(StateExited, p.current, p.saved != nil)
			p.publish(events.PlayerExitedEvent{LED: p.name, Timestamp: timestamp()})
			p.logger.Info("Player exited", "pin", p.pinNum)
			return
		}

		p.status.set(StateIdle, p.current, p.saved != nil)
	}
}

// play drives the pin through the pattern until the repeat count is
// exhausted or a queued command preempts it. Preemption is checked only
// at bit boundaries - a bit hold is never cut short - so a new command
// takes effect within at most one bit period. Once exiting, preemption
// checks stop: the exit command plays exactly one full pass and any
// commands still queued are never processed.
func (p *Player) play(cmd Command, bits []bool) {
	p.status.set(StatePlaying, p.current, p.saved != nil)
	p.publish(events.PatternStartedEvent{
		LED:       p.name,
		PeriodMs:  cmd.PeriodMs,
		Pattern:   cmd.Pattern,
		Repeat:    cmd.Repeat,
		Timestamp: timestamp(),
	})

	period := cmd.Period()
	repeat := cmd.Repeat

	for {
		if !p.exiting && p.queue.HasPending() {
			return
		}

		for _, bit := range bits {
			if !p.exiting && p.queue.HasPending() {
				return
			}
			if err := p.pin.SetLevel(bit); err != nil {
				// Abandons this command only; the player keeps running.
				p.reject(ReasonDriverError, fmt.Errorf("failed to drive pin %d: %w", p.pinNum, err))
				return
			}
			time.Sleep(period)
		}

		if p.exiting {
			return
		}

		if repeat > 0 {
			repeat--
		}
		if repeat == 0 {
			return
		}
		// repeat == RepeatForever loops until preempted
	}
}

// reject reports a recoverable error and discards the offending command.
func (p *Player) reject(reason string, err error) {
	p.logger.Warn("Command rejected", "reason", reason, "error", err)
	p.publish(events.CommandRejectedEvent{
		LED:       p.name,
		Reason:    reason,
		Detail:    err.Error(),
		Timestamp: timestamp(),
	})
}

func (p *Player) publish(ev events.Event) {
	if p.bus != nil {
		p.bus.Publish(ev)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
