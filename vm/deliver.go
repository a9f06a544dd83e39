package vm

import (
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
)

// Deliverer receives the messages of Send instructions. Deliver is called
// synchronously from the dispatch loop and must not block.
type Deliverer interface {
	Deliver(destination, message Value) error
}

// DelivererFunc adapts a function to the Deliverer interface.
type DelivererFunc func(destination, message Value) error

// Deliver calls f(destination, message).
func (f DelivererFunc) Deliver(destination, message Value) error {
	return f(destination, message)
}

// Mailboxes is an in-memory Deliverer. Messages are queued per destination,
// keyed by the destination's text form. Mailboxes may be drained from another
// goroutine while a VM delivers to it.
type Mailboxes struct {
	mu    sync.Mutex
	boxes *treemap.Map // string → []Value
}

// NewMailboxes creates an empty set of mailboxes.
func NewMailboxes() *Mailboxes {
	return &Mailboxes{boxes: treemap.NewWithStringComparator()}
}

// Deliver appends message to the mailbox of destination.
func (mb *Mailboxes) Deliver(destination, message Value) error {
	switch destination.Kind {
	case VoidKind, ClosureKind:
		return fmt.Errorf("invalid destination %v", destination)
	}
	key := destination.String()
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var queue []Value
	if q, found := mb.boxes.Get(key); found {
		queue = q.([]Value)
	}
	mb.boxes.Put(key, append(queue, message))
	tracer().Debugf("delivered %v to %s", message, key)
	return nil
}

// Drain removes and returns the messages queued for destination.
func (mb *Mailboxes) Drain(destination string) []Value {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	q, found := mb.boxes.Get(destination)
	if !found {
		return nil
	}
	mb.boxes.Remove(destination)
	return q.([]Value)
}

// Destinations lists the destinations with pending messages, in order.
func (mb *Mailboxes) Destinations() []string {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	keys := mb.boxes.Keys()
	dests := make([]string, len(keys))
	for i, k := range keys {
		dests[i] = k.(string)
	}
	return dests
}
