package concurrency

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a task is started while another one still holds
// the guard.
var ErrBusy = errors.New("a transfer is already in progress")

// Guard serializes access to a resource that must never be shared, such as
// the UDP socket of an active transfer. It does not queue: a second caller
// fails fast with ErrBusy instead of waiting.
type Guard struct {
	mu   sync.Mutex
	busy bool
}

func NewGuard() *Guard {
	return &Guard{}
}

// Execute runs task if the guard is free, holding it for the duration.
func (g *Guard) Execute(task func() error) error {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return ErrBusy
	}
	g.busy = true
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	}()
	return task()
}
