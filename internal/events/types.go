package events

// Event type constants for kelindar/event.
const (
	TypeCommandAccepted uint32 = iota + 1
	TypeCommandRejected
	TypePatternStarted
	TypePlayerStarted
	TypePlayerExited
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CommandAcceptedEvent is published when a player dequeues a command that
// passed modifier resolution and field validation.
type CommandAcceptedEvent struct {
	LED       string `json:"led" example:"blue" doc:"LED name"`
	PeriodMs  int    `json:"period_ms" example:"50" doc:"Per-bit hold in milliseconds"`
	Pattern   string `json:"pattern" example:"1000" doc:"Bitstream, leftmost bit played first"`
	Repeat    int    `json:"repeat" example:"3" doc:"Repeat count, -1 repeats forever"`
	Modifier  string `json:"modifier,omitempty" example:"save" doc:"Command modifier, if any"`
	Timestamp string `json:"timestamp" example:"2026-03-01T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CommandAcceptedEvent.
func (e CommandAcceptedEvent) Type() uint32 { return TypeCommandAccepted }

// CommandRejectedEvent is published when a player discards a command
// (malformed fields, invalid modifier, restore with nothing saved, or a
// driver write failure mid-playback).
type CommandRejectedEvent struct {
	LED       string `json:"led" example:"blue" doc:"LED name"`
	Reason    string `json:"reason" example:"malformed_command" doc:"Rejection reason"`
	Detail    string `json:"detail,omitempty" doc:"Underlying error text"`
	Timestamp string `json:"timestamp" example:"2026-03-01T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CommandRejectedEvent.
func (e CommandRejectedEvent) Type() uint32 { return TypeCommandRejected }

// PatternStartedEvent is published when playback of a pattern begins.
type PatternStartedEvent struct {
	LED       string `json:"led" example:"blue" doc:"LED name"`
	PeriodMs  int    `json:"period_ms" example:"500" doc:"Per-bit hold in milliseconds"`
	Pattern   string `json:"pattern" example:"10" doc:"Bitstream being played"`
	Repeat    int    `json:"repeat" example:"-1" doc:"Repeat count, -1 repeats forever"`
	Timestamp string `json:"timestamp" example:"2026-03-01T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PatternStartedEvent.
func (e PatternStartedEvent) Type() uint32 { return TypePatternStarted }

// PlayerStartedEvent is published when a player goroutine starts for a pin.
type PlayerStartedEvent struct {
	LED       string `json:"led" example:"blue" doc:"LED name"`
	Pin       int    `json:"pin" example:"4" doc:"GPIO pin number"`
	Timestamp string `json:"timestamp" example:"2026-03-01T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlayerStartedEvent.
func (e PlayerStartedEvent) Type() uint32 { return TypePlayerStarted }

// PlayerExitedEvent is published when a player terminates after an exit
// command.
type PlayerExitedEvent struct {
	LED       string `json:"led" example:"blue" doc:"LED name"`
	Timestamp string `json:"timestamp" example:"2026-03-01T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlayerExitedEvent.
func (e PlayerExitedEvent) Type() uint32 { return TypePlayerExited }

// LogEntryEvent carries a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2026-03-01T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"player" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
