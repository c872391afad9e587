// Package notify turns entry store writes into invalidate signals: an
// in-process broker for subscribers and a websocket hub for remote clients.
package notify

import (
	"sync"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

// Broker fans every published change out to its subscribers. A subscriber
// that does not keep up misses changes instead of blocking the writer.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan domain.Change
	nextID int
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan domain.Change)}
}

// Publish implements domain.ChangePublisher
func (b *Broker) Publish(change domain.Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// Subscribe returns a channel receiving future changes and a function that
// ends the subscription and closes the channel.
func (b *Broker) Subscribe(buffer int) (<-chan domain.Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Change, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broker) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Close ends every subscription
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
