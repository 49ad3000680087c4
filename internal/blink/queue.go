package blink

import "sync"

// Queue is an unbounded multi-producer/single-consumer FIFO of commands.
// Push never blocks; Pop suspends the caller until a command arrives.
// HasPending is the non-blocking peek the player uses for preemption
// checks at bit boundaries - it may race with a concurrent Push, which
// at worst delays the reaction by one bit step, never loses a command.
type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []Command
}

// NewQueue creates an empty command queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a command. Never blocks, never fails.
func (q *Queue) Push(cmd Command) {
	q.mu.Lock()
	q.items = append(q.items, cmd)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop removes and returns the oldest command, blocking until one is
// available. The wait is indefinite; only a Push wakes it.
func (q *Queue) Pop() Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.cond.Wait()
	}

	cmd := q.items[0]
	q.items = q.items[1:]
	return cmd
}

// HasPending reports whether at least one command is queued.
func (q *Queue) HasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) > 0
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
