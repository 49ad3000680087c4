package config

import (
	"os"
	"reflect"
	"testing"
)

// testOptions mirrors the shape of the daemon's Options struct.
type testOptions struct {
	Config string `help:"Config file path"`

	StringField string   `toml:"test.string_field" env:"STRING_FIELD"`
	BoolField   bool     `toml:"test.bool_field" env:"BOOL_FIELD"`
	IntField    int      `toml:"test.int_field" env:"INT_FIELD"`
	SliceField  []string `toml:"test.slice_field" env:"SLICE_FIELD"`

	NestedString string `toml:"nested.value" env:"NESTED_VALUE"`
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_*.toml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoadFromTOML(t *testing.T) {
	path := writeTempConfig(t, `
[test]
string_field = "hello world"
bool_field = true
int_field = 42
slice_field = ["item1", "item2", "item3"]

[nested]
value = "nested value"
`)

	opts := &testOptions{Config: path}
	if err := Load(opts, nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if opts.StringField != "hello world" {
		t.Errorf("StringField = %q, want 'hello world'", opts.StringField)
	}
	if !opts.BoolField {
		t.Error("BoolField = false, want true")
	}
	if opts.IntField != 42 {
		t.Errorf("IntField = %d, want 42", opts.IntField)
	}
	if want := []string{"item1", "item2", "item3"}; !reflect.DeepEqual(opts.SliceField, want) {
		t.Errorf("SliceField = %v, want %v", opts.SliceField, want)
	}
	if opts.NestedString != "nested value" {
		t.Errorf("NestedString = %q, want 'nested value'", opts.NestedString)
	}
}

func TestLoadFromEnvVars(t *testing.T) {
	t.Setenv("BLINKD_STRING_FIELD", "env string")
	t.Setenv("BLINKD_INT_FIELD", "123")
	t.Setenv("BLINKD_SLICE_FIELD", "a, b ,c")

	opts := &testOptions{}
	if err := Load(opts, nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if opts.StringField != "env string" {
		t.Errorf("StringField = %q, want 'env string'", opts.StringField)
	}
	if opts.IntField != 123 {
		t.Errorf("IntField = %d, want 123", opts.IntField)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(opts.SliceField, want) {
		t.Errorf("SliceField = %v, want %v", opts.SliceField, want)
	}
}

func TestLoadEnvOverridesTOML(t *testing.T) {
	path := writeTempConfig(t, `
[test]
string_field = "toml value"
int_field = 100
`)

	t.Setenv("BLINKD_STRING_FIELD", "env override")

	opts := &testOptions{Config: path}
	if err := Load(opts, nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if opts.StringField != "env override" {
		t.Errorf("StringField = %q, want env override", opts.StringField)
	}
	if opts.IntField != 100 {
		t.Errorf("IntField = %d, want 100 from TOML", opts.IntField)
	}
}

func TestLoadMissingFile(t *testing.T) {
	opts := &testOptions{Config: "nonexistent_file.toml"}
	if err := Load(opts, nil); err != nil {
		t.Fatalf("Load should not fail for a missing file: %v", err)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := writeTempConfig(t, `
[test
invalid toml syntax
`)

	opts := &testOptions{Config: path}
	if err := Load(opts, nil); err == nil {
		t.Fatal("Load should fail for invalid TOML")
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Port", "port"},
		{"LedsConfigFile", "leds-config-file"},
		{"LoggingLevel", "logging-level"},
	}
	for _, tt := range tests {
		if got := fieldNameToFlag(tt.in); got != tt.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{
				"value": "nested_value",
			},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path string
		want any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"level1.nonexistent", nil},
	}

	for _, tt := range tests {
		if got := nestedValue(data, tt.path); got != tt.want {
			t.Errorf("nestedValue(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeTempConfig(t, `
[logging]
level = "info"
format = "json"
blink = "debug"
gpio = "warn"
api = "error"
`)

	cfg := LoadLoggingConfig(path)

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	want := map[string]string{"blink": "debug", "gpio": "warn", "api": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg := LoadLoggingConfig("")
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Errorf("defaults = %q/%q, want info/text", cfg.Level, cfg.Format)
	}

	cfg = LoadLoggingConfig("nonexistent.toml")
	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info for missing file", cfg.Level)
	}
}
