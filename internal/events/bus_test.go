package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan CommandAcceptedEvent, 1)

	unsub := bus.Subscribe(func(e CommandAcceptedEvent) {
		received <- e
	})
	defer unsub()

	ev := CommandAcceptedEvent{
		LED:      "blue",
		PeriodMs: 50,
		Pattern:  "1000",
		Repeat:   3,
	}
	bus.Publish(ev)

	select {
	case got := <-received:
		if got.LED != ev.LED || got.Pattern != ev.Pattern {
			t.Errorf("got %+v, want %+v", got, ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := New()
	received1 := make(chan PlayerExitedEvent, 1)
	received2 := make(chan PlayerExitedEvent, 1)

	unsub1 := bus.Subscribe(func(e PlayerExitedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e PlayerExitedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(PlayerExitedEvent{LED: "red"})

	for i, ch := range []chan PlayerExitedEvent{received1, received2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive event", i+1)
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan CommandRejectedEvent, 1)

	unsub := bus.Subscribe(func(e CommandRejectedEvent) {
		received <- e
	})
	unsub()

	bus.Publish(CommandRejectedEvent{LED: "blue", Reason: "malformed_command"})

	select {
	case <-received:
		t.Error("event delivered after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 2)

	unsub := SubscribeToChannel[PatternStartedEvent](bus, ch)
	defer unsub()

	bus.Publish(PatternStartedEvent{LED: "yellow", Pattern: "10", Repeat: -1})

	select {
	case got := <-ch:
		ev, ok := got.(PatternStartedEvent)
		if !ok {
			t.Fatalf("got %T, want PatternStartedEvent", got)
		}
		if ev.LED != "yellow" {
			t.Errorf("LED = %q, want %q", ev.LED, "yellow")
		}
	case <-time.After(time.Second):
		t.Fatal("event not forwarded to channel")
	}
}
