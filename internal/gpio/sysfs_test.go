package gpio

import (
	"os"
	"path/filepath"
	"testing"
)

// newFakeSysfs lays out a fake /sys/class/gpio tree with the pin already
// exported, since a plain filesystem cannot mimic the kernel creating
// gpioN directories on export.
func newFakeSysfs(t *testing.T, pin string) string {
	t.Helper()
	base := t.TempDir()

	pinDir := filepath.Join(base, "gpio"+pin)
	if err := os.MkdirAll(pinDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"direction", "value"} {
		if err := os.WriteFile(filepath.Join(pinDir, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range []string{"export", "unexport"} {
		if err := os.WriteFile(filepath.Join(base, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return base
}

func readFileString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestSysfsConfigureOutput(t *testing.T) {
	base := newFakeSysfs(t, "17")
	driver := newSysfsAt(base)

	pin, err := driver.ConfigureOutput(17)
	if err != nil {
		t.Fatalf("ConfigureOutput() error: %v", err)
	}

	if got := readFileString(t, filepath.Join(base, "gpio17", "direction")); got != "out" {
		t.Errorf("direction = %q, want %q", got, "out")
	}

	if err := pin.SetLevel(true); err != nil {
		t.Fatalf("SetLevel(true) error: %v", err)
	}
	if got := readFileString(t, filepath.Join(base, "gpio17", "value")); got != "1" {
		t.Errorf("value = %q, want %q", got, "1")
	}

	if err := pin.SetLevel(false); err != nil {
		t.Fatalf("SetLevel(false) error: %v", err)
	}
	if got := readFileString(t, filepath.Join(base, "gpio17", "value")); got != "0" {
		t.Errorf("value = %q, want %q", got, "0")
	}
}

func TestSysfsRelease(t *testing.T) {
	base := newFakeSysfs(t, "4")
	driver := newSysfsAt(base)

	pin, err := driver.ConfigureOutput(4)
	if err != nil {
		t.Fatalf("ConfigureOutput() error: %v", err)
	}

	if err := pin.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if got := readFileString(t, filepath.Join(base, "unexport")); got != "4" {
		t.Errorf("unexport = %q, want %q", got, "4")
	}
}

func TestSysfsConfigureOutputMissingTree(t *testing.T) {
	driver := newSysfsAt(filepath.Join(t.TempDir(), "does-not-exist"))

	if _, err := driver.ConfigureOutput(17); err == nil {
		t.Error("ConfigureOutput() on missing sysfs tree should return error")
	}
}

func TestInvertedPin(t *testing.T) {
	base := newFakeSysfs(t, "20")
	driver := newSysfsAt(base)

	pin, err := driver.ConfigureOutput(20)
	if err != nil {
		t.Fatalf("ConfigureOutput() error: %v", err)
	}

	inverted := Inverted(pin)
	if err := inverted.SetLevel(true); err != nil {
		t.Fatalf("SetLevel(true) error: %v", err)
	}
	if got := readFileString(t, filepath.Join(base, "gpio20", "value")); got != "0" {
		t.Errorf("inverted value = %q, want %q", got, "0")
	}
}
