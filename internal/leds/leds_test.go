package leds

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{name: "valid", spec: Spec{Name: "status", Pin: 17}},
		{name: "pin zero", spec: Spec{Name: "status", Pin: 0}},
		{name: "empty name", spec: Spec{Name: "", Pin: 17}, wantErr: true},
		{name: "negative pin", spec: Spec{Name: "status", Pin: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.spec)
			if tt.wantErr && !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("Validate() error = %v, want ErrInvalidSpec", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestValidateSet(t *testing.T) {
	valid := map[string]Spec{
		"a": {Name: "a", Pin: 4, Enabled: true},
		"b": {Name: "b", Pin: 5, Enabled: true},
	}
	if err := ValidateSet(valid); err != nil {
		t.Errorf("ValidateSet() error = %v", err)
	}

	duplicate := map[string]Spec{
		"a": {Name: "a", Pin: 4, Enabled: true},
		"b": {Name: "b", Pin: 4, Enabled: true},
	}
	if err := ValidateSet(duplicate); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("ValidateSet() error = %v, want ErrInvalidSpec for shared pin", err)
	}

	// A disabled LED may share a pin
	sharedDisabled := map[string]Spec{
		"a": {Name: "a", Pin: 4, Enabled: true},
		"b": {Name: "b", Pin: 4, Enabled: false},
	}
	if err := ValidateSet(sharedDisabled); err != nil {
		t.Errorf("ValidateSet() error = %v, disabled specs should not reserve pins", err)
	}

	mismatched := map[string]Spec{
		"a": {Name: "other", Pin: 4, Enabled: true},
	}
	if err := ValidateSet(mismatched); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("ValidateSet() error = %v, want ErrInvalidSpec for key mismatch", err)
	}
}
