// Package events fans out node events to subscribers such as websocket
// connections.
package events

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
)

// messageBuffer is how many events a slow subscriber can fall behind
// before new events are dropped for it.
const messageBuffer = 100

// Events maintains a set of subscriber channels keyed by a unique id.
type Events struct {
	mu   deadlock.RWMutex
	subs map[string]chan string
	shut bool
}

// New constructs an events value for subscribing to events.
func New() *Events {
	return &Events{
		subs: make(map[string]chan string),
	}
}

// Shutdown closes and removes every subscriber channel. Later calls to
// Acquire return a closed channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
	evt.shut = true
}

// Acquire takes a unique id and returns a channel that receives events.
// Acquiring an id twice returns the same channel.
func (evt *Events) Acquire(id string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subs[id]; exists {
		return ch
	}

	ch := make(chan string, messageBuffer)
	if evt.shut {
		close(ch)
		return ch
	}

	evt.subs[id] = ch
	return ch
}

// Release closes and removes the channel for the id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)
	return nil
}

// Count returns the number of subscribers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Send delivers the message to every subscriber without blocking. A
// subscriber with a full buffer misses the message.
func (evt *Events) Send(s string) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	var sent int
	for _, ch := range evt.subs {
		select {
		case ch <- s:
			sent++
		default:
		}
	}

	return sent
}
