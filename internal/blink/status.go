package blink

import "sync"

// statusCell holds the reporting snapshot of a player. The run goroutine
// writes it; API handlers read it. Command state itself stays owned by
// the run goroutine - the cell only ever holds copies.
type statusCell struct {
	mu      sync.RWMutex
	state   State
	current *Command
	saved   bool
}

func (s *statusCell) set(state State, current *Command, saved bool) {
	var copied *Command
	if current != nil {
		c := *current
		copied = &c
	}

	s.mu.Lock()
	s.state = state
	s.current = copied
	s.saved = saved
	s.mu.Unlock()
}

func (s *statusCell) get() (State, *Command, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.current, s.saved
}
