package blink

import "errors"

// Recoverable per-command errors. Each aborts only the command that
// caused it; the player logs it and waits for the next command.
var (
	// ErrMalformedCommand reports playback fields of the wrong shape:
	// negative period, empty pattern, or non-bit pattern characters.
	ErrMalformedCommand = errors.New("malformed command")

	// ErrInvalidModifier reports a modifier value that is not one of
	// save, restore, or exit.
	ErrInvalidModifier = errors.New("invalid command modifier")

	// ErrRestoreWithoutSave reports a restore command arriving with an
	// empty save slot.
	ErrRestoreWithoutSave = errors.New("restore with nothing saved")
)

// Rejection reasons carried on CommandRejectedEvent and used as metric
// label values.
const (
	ReasonMalformedCommand   = "malformed_command"
	ReasonInvalidModifier    = "invalid_modifier"
	ReasonRestoreWithoutSave = "restore_without_save"
	ReasonDriverError        = "driver_error"
)
