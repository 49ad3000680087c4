package blink

import (
	"fmt"
	"time"
)

// Modifier selects special handling for a command. Modifiers are mutually
// exclusive. The zero value means plain playback.
type Modifier string

// Recognized modifiers. Any other non-empty value is rejected by the
// player with ErrInvalidModifier.
const (
	ModifierNone    Modifier = ""
	ModifierSave    Modifier = "save"
	ModifierRestore Modifier = "restore"
	ModifierExit    Modifier = "exit"
)

// RepeatForever replays the pattern until preempted or exited.
const RepeatForever = -1

// Command is one unit of work for a player.
//
// Pattern is a bitstream string where each character is one bit, leftmost
// played first: "1000" holds the pin high for one period, then low for
// three. Repeat > 0 plays that many passes, 0 plays exactly one pass, and
// RepeatForever plays until preempted.
//
// Commands are validated by the player, not at construction, so malformed
// values can be queued and are rejected when dequeued - they never crash
// the pin they target.
type Command struct {
	PeriodMs int      `json:"period_ms"`
	Pattern  string   `json:"pattern"`
	Repeat   int      `json:"repeat"`
	Modifier Modifier `json:"modifier,omitempty"`
}

// Period returns the per-bit hold duration.
func (c Command) Period() time.Duration {
	return time.Duration(c.PeriodMs) * time.Millisecond
}

// Bits decodes the pattern into levels, validating the playback fields.
// Returns ErrMalformedCommand (wrapped) for a negative period, an empty
// pattern, or characters other than '0' and '1'.
func (c Command) Bits() ([]bool, error) {
	if c.PeriodMs < 0 {
		return nil, fmt.Errorf("%w: negative period %d", ErrMalformedCommand, c.PeriodMs)
	}
	if len(c.Pattern) == 0 {
		return nil, fmt.Errorf("%w: empty pattern", ErrMalformedCommand)
	}

	bits := make([]bool, len(c.Pattern))
	for i, ch := range c.Pattern {
		switch ch {
		case '0':
			bits[i] = false
		case '1':
			bits[i] = true
		default:
			return nil, fmt.Errorf("%w: pattern character %q at position %d", ErrMalformedCommand, ch, i)
		}
	}
	return bits, nil
}

// Exit returns the conventional graceful-exit command: settle the pin at
// the given level, no blinking, then terminate the player.
func Exit(on bool) Command {
	pattern := "0"
	if on {
		pattern = "1"
	}
	return Command{PeriodMs: 0, Pattern: pattern, Repeat: 1, Modifier: ModifierExit}
}

func (c Command) String() string {
	if c.Modifier != ModifierNone {
		return fmt.Sprintf("(%d, %q, %d, %s)", c.PeriodMs, c.Pattern, c.Repeat, c.Modifier)
	}
	return fmt.Sprintf("(%d, %q, %d)", c.PeriodMs, c.Pattern, c.Repeat)
}
