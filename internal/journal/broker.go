package journal

import (
	"sync"
	"sync/atomic"
)

const subscriberBufSize = 256

// Broker fans out journal entries to all subscribed stream clients.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan Entry
	nextID      atomic.Int64
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]chan Entry),
	}
}

// Subscribe registers a new client. Returns the subscriber ID and a channel
// to receive entries on. The channel is buffered; slow consumers will have
// entries dropped.
func (b *Broker) Subscribe() (int64, <-chan Entry) {
	id := b.nextID.Add(1)
	ch := make(chan Entry, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish sends an entry to all subscribers. Non-blocking: slow clients
// have entries dropped.
func (b *Broker) Publish(e Entry) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
