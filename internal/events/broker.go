package events

import "sync"

// Broker is the process-wide publish/subscribe bus for live UI updates.
// It is constructed once and injected; there is no package-level instance.
// Publishing never blocks: a subscriber whose buffer is full misses the
// event and is expected to refetch current state on reconnect. No backlog
// is kept, so a subscriber only sees events published after Subscribe.
type Broker struct {
	mu         sync.RWMutex
	subs       map[*Subscription]struct{}
	bufferSize int
	closed     bool
}

// Subscription is one viewer's handle on the broker. Events arrive on C
// until Close is called; Close is idempotent and safe to defer.
type Subscription struct {
	C chan Event

	broker *Broker
	// removed is guarded by broker.mu. Keeping the whole lifecycle under
	// the one mutex means Subscription.Close and Broker.Close can never
	// wait on each other.
	removed bool
}

// NewBroker creates a broker whose subscribers each buffer up to bufferSize
// undelivered events.
func NewBroker(bufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Broker{
		subs:       make(map[*Subscription]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a new viewer and returns its handle.
func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{
		C:      make(chan Event, b.bufferSize),
		broker: b,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.removed = true
		close(sub.C)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Publish fans the event out to every current subscriber, dropping it for
// subscribers that cannot keep up. Delivery is fire-and-forget.
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		select {
		case sub.C <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the broker down and releases every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.removed = true
		close(sub.C)
	}
	b.subs = make(map[*Subscription]struct{})
}

// Close releases the subscription. The event channel is closed so a
// draining reader terminates.
func (s *Subscription) Close() {
	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.removed {
		return
	}
	s.removed = true
	delete(b.subs, s)
	close(s.C)
}
