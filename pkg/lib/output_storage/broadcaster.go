package output_storage

import (
	"fmt"
	"sync"
)

// Broadcaster fans every published value out to all current subscribers.
// Publishing never blocks: when a queue is full the oldest value is dropped,
// so a slow subscriber loses history instead of stalling the publisher.
// Subscribers only see values published after they subscribed.
type Broadcaster[T any] struct {
	messageReceiver chan T
	mu              sync.Mutex
	subscribers     map[chan T]struct{}
	stopped         bool
	closed          bool
}

// RunNewBroadcaster starts a broadcaster whose inbound queue holds up to buffer values.
func RunNewBroadcaster[T any](buffer int) *Broadcaster[T] {
	if buffer < 1 {
		buffer = 1
	}
	broadcaster := &Broadcaster[T]{
		messageReceiver: make(chan T, buffer),
		subscribers:     make(map[chan T]struct{}),
	}

	go broadcaster.start()

	return broadcaster
}

func (broadcaster *Broadcaster[T]) start() {
	for msg := range broadcaster.messageReceiver {
		// Sends never block, so holding the lock keeps Unsubscribe from
		// closing a channel mid-send.
		broadcaster.mu.Lock()
		for s := range broadcaster.subscribers {
			pushDropOldest(s, msg)
		}
		broadcaster.mu.Unlock()
	}

	broadcaster.mu.Lock()
	for subscriberSender := range broadcaster.subscribers {
		close(subscriberSender)
	}
	broadcaster.subscribers = map[chan T]struct{}{}
	broadcaster.stopped = true
	broadcaster.mu.Unlock()
}

// Stop closes every subscriber channel once queued values are delivered. Safe to call twice.
func (broadcaster *Broadcaster[T]) Stop() {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.closed {
		return
	}
	broadcaster.closed = true
	close(broadcaster.messageReceiver)
}

// Subscribe registers a new subscriber channel holding up to capacity values.
func (broadcaster *Broadcaster[T]) Subscribe(capacity int) (chan T, error) {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan T, capacity)
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.stopped || broadcaster.closed {
		return nil, fmt.Errorf("failed to subscribe: broadcaster is stopped")
	}
	broadcaster.subscribers[ch] = struct{}{}
	return ch, nil
}

func (broadcaster *Broadcaster[T]) Unsubscribe(subscriberSender chan T) {
	broadcaster.mu.Lock()
	_, ok := broadcaster.subscribers[subscriberSender]
	delete(broadcaster.subscribers, subscriberSender)
	broadcaster.mu.Unlock()

	if ok {
		close(subscriberSender)
	}
}

// Publish queues msg for delivery. Values published after Stop are discarded.
func (broadcaster *Broadcaster[T]) Publish(msg T) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.closed {
		return
	}
	pushDropOldest(broadcaster.messageReceiver, msg)
}

func pushDropOldest[T any](ch chan T, msg T) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}

		// channel is full, drop the oldest value
		select {
		case <-ch:
		default:
		}
	}
}
