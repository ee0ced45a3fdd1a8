// Package notifier fans catalog reload events out to the open console pages.
package notifier

import "sync"

// Event describes one reload. Generation increases with every Broadcast.
type Event struct {
	Generation uint64
	Reason     string
}

// Notifier delivers the latest Event to every subscriber. A slow
// subscriber never blocks Broadcast: pending events coalesce into the newest.
type Notifier struct {
	mu         sync.Mutex
	generation uint64
	listeners  map[chan Event]struct{}
}

// New creates a Notifier.
func New() *Notifier {
	return &Notifier{listeners: make(map[chan Event]struct{})}
}

// Subscribe registers a listener. The returned func unsubscribes and must be called.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, ch)
			n.mu.Unlock()
		})
	}
}

// Broadcast sends a new event to all listeners and returns it.
func (n *Notifier) Broadcast(reason string) Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.generation++
	ev := Event{Generation: n.generation, Reason: reason}
	for ch := range n.listeners {
		select {
		case <-ch:
		default:
		}
		ch <- ev
	}
	return ev
}

// Listeners returns the number of subscribers.
func (n *Notifier) Listeners() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}
