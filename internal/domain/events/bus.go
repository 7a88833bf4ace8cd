package events

import "sync"

// Bus is a bounded, drop-oldest broadcast channel. spec.md §4.D and §9 are
// explicit that the Manager must never be back-pressured by slow
// observers: Publish never blocks, and a full subscriber channel has its
// oldest buffered event evicted to make room for the new one.
type Bus struct {
	mu       sync.Mutex
	subs     map[int]chan Event
	nextID   int
	capacity int
}

// NewBus returns a Bus whose subscriber channels hold at most capacity
// buffered events before Publish starts dropping the oldest one.
func NewBus(capacity int) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{subs: make(map[int]chan Event), capacity: capacity}
}

// Subscribe registers a new observer and returns its channel plus an
// unsubscribe function. The returned channel is never closed by Publish;
// callers unsubscribe explicitly.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.capacity)
	b.subs[id] = ch
	return ch, func() { b.unsubscribe(id) }
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Publish fans e out to every subscriber without blocking. A subscriber
// whose buffer is full has its oldest event dropped to make room.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- e:
			default:
			}
		}
	}
}

// Close unsubscribes every observer, closing their channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
