package signal

import (
	"fmt"
	"sync"
)

// Bus is an in-memory Source. Runtimes translate their native input into
// Events and Publish them; handlers run synchronously in the publisher's goroutine.
type Bus struct {
	mu        sync.Mutex
	supported map[Kind]bool
	handlers  map[Kind][]*busSubscription
}

type busSubscription struct {
	bus     *Bus
	kind    Kind
	handler Handler
	once    sync.Once
}

// NewBus constructs a bus able to deliver the given kinds.
func NewBus(kinds ...Kind) *Bus {
	supported := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		supported[k] = true
	}
	return &Bus{
		supported: supported,
		handlers:  map[Kind][]*busSubscription{},
	}
}

// Supports reports whether the bus was declared with kind.
func (b *Bus) Supports(kind Kind) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.supported[kind]
}

// Subscribe implements Source.
func (b *Bus) Subscribe(kind Kind, h Handler) (Subscription, error) {
	if h == nil {
		return nil, fmt.Errorf("subscribe %s: nil handler", kind)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.supported[kind] {
		return nil, fmt.Errorf("subscribe %s: %w", kind, ErrUnsupported)
	}
	sub := &busSubscription{bus: b, kind: kind, handler: h}
	b.handlers[kind] = append(b.handlers[kind], sub)
	return sub, nil
}

// Publish delivers ev to the current subscribers of its kind in subscription order.
// The handler list is copied first, so handlers may subscribe or unsubscribe.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := append([]*busSubscription(nil), b.handlers[ev.Kind]...)
	b.mu.Unlock()
	for _, sub := range subs {
		sub.handler(ev)
	}
}

// Subscribers returns the number of live handlers for kind.
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}

func (s *busSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s)
	})
}

func (b *Bus) remove(target *busSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[target.kind]
	for i, sub := range subs {
		if sub == target {
			b.handlers[target.kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}
