package bus

import "sync"

// Events published on the shared bus. The auth flow announces these so
// the sync layer can re-hydrate without a direct dependency.
const (
	EventAuthenticated = "user-authenticated"
	EventLoggedOut     = "user-logged-out"
)

type Handler func(payload any)

type subscription struct {
	id      int
	handler Handler
}

// Bus is a small in-process publish/subscribe channel. Delivery is
// synchronous and in subscription order; handlers registered while a
// publish is running are not invoked for that publish.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscription
}

func New() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers a handler for an event and returns a cancel
// function that removes it.
func (b *Bus) Subscribe(event string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[event] = append(b.subs[event], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		current := b.subs[event]
		for i, sub := range current {
			if sub.id == id {
				b.subs[event] = append(current[:i:i], current[i+1:]...)
				return
			}
		}
	}
}

// Publish invokes the handlers registered for the event at the moment
// of the call, in registration order.
func (b *Bus) Publish(event string, payload any) {
	b.mu.Lock()
	current := make([]subscription, len(b.subs[event]))
	copy(current, b.subs[event])
	b.mu.Unlock()

	for _, sub := range current {
		sub.handler(payload)
	}
}
