package blink

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cjnaz/blinkd/internal/events"
)

// fakePin records every level transition. Calls with index in
// [failFrom, failTo) return an error.
type fakePin struct {
	mu       sync.Mutex
	levels   []bool
	released bool
	calls    int
	failFrom int
	failTo   int
}

func newFakePin() *fakePin {
	return &fakePin{failFrom: -1}
}

func (f *fakePin) SetLevel(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if f.failFrom >= 0 && idx >= f.failFrom && idx < f.failTo {
		return errors.New("simulated driver failure")
	}
	f.levels = append(f.levels, on)
	return nil
}

func (f *fakePin) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
	return nil
}

func (f *fakePin) Levels() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.levels...)
}

func (f *fakePin) Released() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestPlayer(t *testing.T, pin *fakePin, bus *events.Bus) *Player {
	t.Helper()
	player := NewPlayer("test", 4, pin, NewQueue(), Options{Logger: testLogger(), Bus: bus})
	if err := player.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return player
}

func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// waitIdle waits until the player has finished playing a command with
// the given pattern and gone back to waiting. Matching on the pattern
// closes the window between a command being popped and its playback
// state becoming visible.
func waitIdle(t *testing.T, p *Player, pattern string) {
	t.Helper()
	waitFor(t, "player idle after "+pattern, func() bool {
		st := p.Status()
		return st.State == StateIdle && st.Pending == 0 &&
			st.Current != nil && st.Current.Pattern == pattern
	})
}

func levelsEqual(got, want []bool) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestPlayerRepeatCountExactPasses(t *testing.T) {
	pin := newFakePin()
	player := newTestPlayer(t, pin, nil)

	player.Queue().Push(Command{PeriodMs: 1, Pattern: "10", Repeat: 3})
	waitIdle(t, player, "10")

	// Initial low + 3 full passes of the 2-bit pattern
	want := []bool{false, true, false, true, false, true, false}
	if got := pin.Levels(); !levelsEqual(got, want) {
		t.Errorf("levels = %v, want %v", got, want)
	}
}

func TestPlayerRepeatZeroPlaysOnce(t *testing.T) {
	pin := newFakePin()
	player := newTestPlayer(t, pin, nil)

	player.Queue().Push(Command{PeriodMs: 1, Pattern: "10", Repeat: 0})
	waitIdle(t, player, "10")

	want := []bool{false, true, false}
	if got := pin.Levels(); !levelsEqual(got, want) {
		t.Errorf("levels = %v, want %v", got, want)
	}
}

func TestPlayerRepeatForeverUntilPreempted(t *testing.T) {
	pin := newFakePin()
	player := newTestPlayer(t, pin, nil)

	player.Queue().Push(Command{PeriodMs: 1, Pattern: "10", Repeat: RepeatForever})

	// Still playing well after many passes would have finished
	time.Sleep(50 * time.Millisecond)
	if st := player.Status(); st.State != StatePlaying {
		t.Fatalf("State = %s, want playing", st.State)
	}
	before := len(pin.Levels())

	time.Sleep(20 * time.Millisecond)
	if after := len(pin.Levels()); after <= before {
		t.Error("playback stalled while repeating forever")
	}

	// Only preemption stops it
	player.Queue().Push(Command{PeriodMs: 1, Pattern: "0", Repeat: 1})
	waitIdle(t, player, "0")
}

func TestPlayerPreemptionWithinOneBitStep(t *testing.T) {
	pin := newFakePin()
	player := newTestPlayer(t, pin, nil)

	// Long pattern with a generous bit period; preemption must not wait
	// for the pass to finish.
	player.Queue().Push(Command{PeriodMs: 20, Pattern: "1111111111", Repeat: RepeatForever})
	waitFor(t, "playback underway", func() bool { return len(pin.Levels()) >= 2 })

	start := time.Now()
	player.Queue().Push(Command{PeriodMs: 1, Pattern: "0", Repeat: 1})
	waitIdle(t, player, "0")
	elapsed := time.Since(start)

	levels := pin.Levels()
	highs := 0
	for _, l := range levels[1:] { // skip initial low
		if l {
			highs++
		}
	}
	if highs >= 10 {
		t.Errorf("first pattern completed a full pass (%d highs) despite preemption", highs)
	}
	if elapsed > 200*time.Millisecond {
		t.Errorf("preemption took %v, want within roughly one bit period", elapsed)
	}
	if last := levels[len(levels)-1]; last != false {
		t.Errorf("final level = %v, want false from preempting command", last)
	}
}

func TestPlayerSaveRestoreRoundTrip(t *testing.T) {
	pin := newFakePin()
	player := newTestPlayer(t, pin, nil)

	commandA := Command{PeriodMs: 1, Pattern: "10", Repeat: 2}
	player.Queue().Push(commandA)
	waitIdle(t, player, "10")

	// Save records A (the command being superseded) and still plays its
	// own fields.
	player.Queue().Push(Command{PeriodMs: 1, Pattern: "1", Repeat: 1, Modifier: ModifierSave})
	waitIdle(t, player, "1")
	if st := player.Status(); !st.Saved {
		t.Fatal("save slot empty after save command")
	}

	// Restore ignores its own dummy fields and replays A
	player.Queue().Push(Command{PeriodMs: 0, Pattern: "0", Repeat: 0, Modifier: ModifierRestore})
	waitIdle(t, player, "10")

	st := player.Status()
	if st.Current.PeriodMs != commandA.PeriodMs || st.Current.Repeat != commandA.Repeat {
		t.Errorf("restored command = %+v, want fields of %+v", st.Current, commandA)
	}

	// The slot is read, not cleared: restore works again
	before := len(pin.Levels())
	player.Queue().Push(Command{PeriodMs: 0, Pattern: "0", Repeat: 0, Modifier: ModifierRestore})
	waitFor(t, "second restore replay", func() bool {
		return len(pin.Levels()) >= before+4
	})
	waitIdle(t, player, "10")
}

func TestPlayerRestoreWithoutSave(t *testing.T) {
	pin := newFakePin()
	bus := events.New()
	rejected := make(chan events.CommandRejectedEvent, 1)
	unsub := bus.Subscribe(func(e events.CommandRejectedEvent) { rejected <- e })
	defer unsub()

	player := newTestPlayer(t, pin, bus)

	player.Queue().Push(Command{PeriodMs: 0, Pattern: "0", Repeat: 0, Modifier: ModifierRestore})

	select {
	case e := <-rejected:
		if e.Reason != ReasonRestoreWithoutSave {
			t.Errorf("Reason = %q, want %q", e.Reason, ReasonRestoreWithoutSave)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rejection event for restore without save")
	}

	if st := player.Status(); st.Current != nil {
		t.Errorf("Current = %+v, want nil (discarded command must not touch state)", st.Current)
	}

	// Subsequent valid commands still work
	player.Queue().Push(Command{PeriodMs: 1, Pattern: "1", Repeat: 1})
	waitIdle(t, player, "1")
}

func TestPlayerInvalidModifier(t *testing.T) {
	pin := newFakePin()
	bus := events.New()
	rejected := make(chan events.CommandRejectedEvent, 1)
	unsub := bus.Subscribe(func(e events.CommandRejectedEvent) { rejected <- e })
	defer unsub()

	player := newTestPlayer(t, pin, bus)

	player.Queue().Push(Command{PeriodMs: 1, Pattern: "1", Repeat: 1, Modifier: "pulse"})

	select {
	case e := <-rejected:
		if e.Reason != ReasonInvalidModifier {
			t.Errorf("Reason = %q, want %q", e.Reason, ReasonInvalidModifier)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rejection event for invalid modifier")
	}

	if st := player.Status(); st.Current != nil {
		t.Errorf("Current = %+v, want nil", st.Current)
	}
}

func TestPlayerMalformedCommandLeavesStateUntouched(t *testing.T) {
	pin := newFakePin()
	bus := events.New()
	rejected := make(chan events.CommandRejectedEvent, 4)
	unsub := bus.Subscribe(func(e events.CommandRejectedEvent) { rejected <- e })
	defer unsub()

	player := newTestPlayer(t, pin, bus)

	commandA := Command{PeriodMs: 1, Pattern: "10", Repeat: 1}
	player.Queue().Push(commandA)
	waitIdle(t, player, "10")

	malformed := []Command{
		{PeriodMs: 1, Pattern: "", Repeat: 1},
		{PeriodMs: -5, Pattern: "10", Repeat: 1},
		{PeriodMs: 1, Pattern: "10x", Repeat: 1},
	}
	for _, cmd := range malformed {
		player.Queue().Push(cmd)
		select {
		case e := <-rejected:
			if e.Reason != ReasonMalformedCommand {
				t.Errorf("Reason = %q, want %q", e.Reason, ReasonMalformedCommand)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no rejection event for %+v", cmd)
		}
	}

	st := player.Status()
	if st.Current == nil || st.Current.Pattern != commandA.Pattern {
		t.Errorf("Current = %+v, want %+v (malformed commands must not replace it)", st.Current, commandA)
	}
	if st.Saved {
		t.Error("save slot set by malformed commands")
	}
}

func TestPlayerExitSettlesAndTerminates(t *testing.T) {
	pin := newFakePin()
	player := newTestPlayer(t, pin, nil)

	player.Queue().Push(Command{PeriodMs: 1, Pattern: "10", Repeat: 1})
	waitIdle(t, player, "10")

	// Exit plays its own single-bit pattern, then terminates; the
	// command queued behind it is never processed.
	player.Queue().Push(Exit(false))
	player.Queue().Push(Command{PeriodMs: 1, Pattern: "11111", Repeat: 5})

	select {
	case <-player.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("player did not terminate after exit command")
	}

	if st := player.Status(); st.State != StateExited {
		t.Errorf("State = %s, want exited", st.State)
	}
	if !pin.Released() {
		t.Error("pin not released on exit")
	}

	levels := pin.Levels()
	if last := levels[len(levels)-1]; last != false {
		t.Errorf("final level = %v, want false", last)
	}

	// Nothing runs after termination
	count := len(levels)
	time.Sleep(30 * time.Millisecond)
	if after := len(pin.Levels()); after != count {
		t.Errorf("levels written after exit: %d -> %d", count, after)
	}
}

func TestPlayerExitSettlesHigh(t *testing.T) {
	pin := newFakePin()
	player := newTestPlayer(t, pin, nil)

	player.Queue().Push(Exit(true))

	select {
	case <-player.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("player did not terminate")
	}

	levels := pin.Levels()
	if last := levels[len(levels)-1]; last != true {
		t.Errorf("final level = %v, want true", last)
	}
}

func TestPlayerDriverErrorAbandonsCommandOnly(t *testing.T) {
	pin := newFakePin()
	pin.failFrom = 1 // initial low succeeds, first playback write fails
	pin.failTo = 2

	bus := events.New()
	rejected := make(chan events.CommandRejectedEvent, 1)
	unsub := bus.Subscribe(func(e events.CommandRejectedEvent) { rejected <- e })
	defer unsub()

	player := newTestPlayer(t, pin, bus)

	player.Queue().Push(Command{PeriodMs: 1, Pattern: "11", Repeat: 1})

	select {
	case e := <-rejected:
		if e.Reason != ReasonDriverError {
			t.Errorf("Reason = %q, want %q", e.Reason, ReasonDriverError)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rejection event for driver failure")
	}

	// The player survives and processes the next command
	player.Queue().Push(Command{PeriodMs: 1, Pattern: "10", Repeat: 1})
	waitIdle(t, player, "10")

	levels := pin.Levels()
	if len(levels) < 3 {
		t.Errorf("levels = %v, want playback of the follow-up command", levels)
	}
}

func TestPlayerStartFailsFatally(t *testing.T) {
	pin := newFakePin()
	pin.failFrom = 0 // even the initial low fails
	pin.failTo = 100

	player := NewPlayer("test", 4, pin, NewQueue(), Options{Logger: testLogger()})
	if err := player.Start(); err == nil {
		t.Fatal("Start() should fail when the pin cannot be driven")
	}
}

func TestPlayerEndToEndScenario(t *testing.T) {
	pin := newFakePin()
	player := newTestPlayer(t, pin, nil)

	// The canonical example: (period, "1000", 3) toggles on/off/off/off
	// three times, then the player idles awaiting the next command.
	player.Queue().Push(Command{PeriodMs: 5, Pattern: "1000", Repeat: 3})
	waitIdle(t, player, "1000")

	want := []bool{false}
	for i := 0; i < 3; i++ {
		want = append(want, true, false, false, false)
	}
	if got := pin.Levels(); !levelsEqual(got, want) {
		t.Errorf("levels = %v, want %v", got, want)
	}

	if st := player.Status(); st.State != StateIdle {
		t.Errorf("State = %s, want idle", st.State)
	}
}
