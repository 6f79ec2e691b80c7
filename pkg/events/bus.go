package events

import "sync"

// Counts is the snapshot published on every queue mutation.
type Counts struct {
	PendingCount int `json:"pendingCount"`
	FailedCount  int `json:"failedCount"`
}

// Bus is a single-topic notifier for queue count changes. Delivery is
// last-write-wins per subscriber: a slow consumer only ever observes the most
// recent snapshot, never a backlog.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription
	last   Counts
	primed bool
}

// Subscription is a handle to a bus subscriber. Close releases it; closing
// twice is safe.
type Subscription struct {
	id   uint64
	bus  *Bus
	ch   chan Counts
	once sync.Once
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers a new subscriber. The returned channel immediately
// carries the latest published snapshot, if any.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:  b.nextID,
		bus: b,
		ch:  make(chan Counts, 1),
	}
	b.subs[sub.id] = sub
	if b.primed {
		sub.ch <- b.last
	}
	return sub
}

// Publish replaces any undelivered snapshot for every subscriber.
func (b *Bus) Publish(counts Counts) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = counts
	b.primed = true
	for _, sub := range b.subs {
		select {
		case sub.ch <- counts:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- counts
		}
	}
}

// Last returns the most recently published snapshot.
func (b *Bus) Last() (Counts, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.primed
}

// C returns the subscriber's receive channel.
func (s *Subscription) C() <-chan Counts {
	return s.ch
}

// Close unregisters the subscriber and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}
