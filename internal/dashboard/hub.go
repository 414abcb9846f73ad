package dashboard

import (
	"sync"

	"github.com/google/uuid"
)

// Hub fans snapshots out to connected dashboards. Slow subscribers miss
// intermediate snapshots rather than blocking the controller; the newest
// snapshot always replaces the oldest queued one.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]bool
	register    chan *Subscription
	unregister  chan *Subscription
	broadcast   chan *Snapshot
	done        chan struct{}
	closeOnce   sync.Once
}

// Subscription receives snapshots until Unsubscribe or hub Close.
type Subscription struct {
	ID   string
	send chan *Snapshot
	hub  *Hub
}

func NewHub() *Hub {
	h := &Hub{
		subscribers: make(map[*Subscription]bool),
		register:    make(chan *Subscription, 16),
		unregister:  make(chan *Subscription, 16),
		broadcast:   make(chan *Snapshot, 16),
		done:        make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			h.mu.Unlock()
		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			h.mu.Unlock()
		case snap := <-h.broadcast:
			h.mu.Lock()
			for sub := range h.subscribers {
				offerLatest(sub.send, snap)
			}
			h.mu.Unlock()
		case <-h.done:
			h.mu.Lock()
			for sub := range h.subscribers {
				close(sub.send)
			}
			h.subscribers = map[*Subscription]bool{}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ID:   uuid.NewString(),
		send: make(chan *Snapshot, 8),
		hub:  h,
	}
	select {
	case <-h.done:
		close(sub.send)
		return sub
	default:
	}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.send)
	}
	return sub
}

// Publish never blocks; when the queue is full the oldest queued snapshot is dropped.
func (h *Hub) Publish(s *Snapshot) {
	select {
	case <-h.done:
		return
	default:
	}
	offerLatest(h.broadcast, s)
}

// offerLatest queues snap on ch, evicting queued values until it fits.
func offerLatest(ch chan *Snapshot, snap *Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Clients is the number of registered subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (s *Subscription) C() <-chan *Snapshot {
	return s.send
}

func (s *Subscription) Unsubscribe() {
	select {
	case s.hub.unregister <- s:
	case <-s.hub.done:
	}
}
