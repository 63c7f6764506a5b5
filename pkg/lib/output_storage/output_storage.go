package output_storage

import (
	"sync/atomic"
)

// node represents an element in the singly linked list.
// It carries a payload (byte slice) and an atomic pointer to the next node.
// The list uses a sentinel head node for simpler lock-free append logic.
type node struct {
	data []byte
	next atomic.Pointer[node]
}

// OutputStorage is an append-only singly linked list of output chunks of one node run.
// There must be a single appender; readers may iterate and subscribe concurrently.
// Subscribers replay everything from the beginning and then follow new chunks
// until Stop is called.
type OutputStorage struct {
	head *node // sentinel head, immutable
	tail *node // last element in the list (or sentinel if empty)
	size atomic.Int64

	broadcaster *Broadcaster[struct{}]
}

// RunNewOutputStorage creates a new, empty OutputStorage.
func RunNewOutputStorage() *OutputStorage {
	sentinel := &node{}
	return &OutputStorage{
		head:        sentinel,
		tail:        sentinel,
		broadcaster: RunNewBroadcaster[struct{}](1),
	}
}

// Stop marks the end of the output. Subscribers drain what is left and their channels close.
func (s *OutputStorage) Stop() {
	if s == nil {
		return
	}
	s.broadcaster.Stop()
}

// Append adds the provided byte slice to the end of the list.
// The slice is stored as-is; Write copies for callers that reuse buffers.
func (s *OutputStorage) Append(data []byte) {
	if s == nil {
		return
	}
	newTail := &node{data: data}
	s.tail.next.Store(newTail)
	s.tail = newTail
	s.size.Add(int64(len(data)))
	s.broadcaster.Publish(struct{}{})
}

// Len returns the number of bytes stored so far.
func (s *OutputStorage) Len() int64 {
	if s == nil {
		return 0
	}
	return s.size.Load()
}

// Subscribe returns a channel that replays all chunks and follows new ones.
func (s *OutputStorage) Subscribe(capacity int) <-chan []byte {
	ch := make(chan []byte, capacity)
	notifier, err := s.broadcaster.Subscribe(1)
	if err == nil {
		go s.follow(notifier, ch)
	} else {
		go s.replay(s.head, ch)
	}

	return ch
}

func (s *OutputStorage) follow(notifier chan struct{}, ch chan []byte) {
	prev := s.head
	for {
		current := prev.next.Load()
		if current == nil {
			if _, ok := <-notifier; !ok {
				// stopped: nothing more will be appended
				s.replay(prev, ch)
				return
			}
			continue
		}
		prev = current
		ch <- current.data
	}
}

// replay sends every chunk after prev and closes ch.
func (s *OutputStorage) replay(prev *node, ch chan []byte) {
	for {
		current := prev.next.Load()
		if current == nil {
			close(ch)
			return
		}
		prev = current
		ch <- current.data
	}
}

// ForEach iterates over all stored byte slices in insertion order.
// The iterator function receives each slice; if it returns false, iteration stops early.
func (s *OutputStorage) ForEach(iter func([]byte) bool) {
	if s == nil || iter == nil {
		return
	}
	cur := s.head.next.Load() // skip sentinel
	for cur != nil {
		if !iter(cur.data) {
			return
		}
		cur = cur.next.Load()
	}
}

// Bytes concatenates all stored byte slices into a single slice.
func (s *OutputStorage) Bytes() []byte {
	out := make([]byte, 0, s.Len())
	s.ForEach(func(b []byte) bool {
		out = append(out, b...)
		return true
	})
	return out
}

// String returns all stored byte slices concatenated into a single string.
func (s *OutputStorage) String() string {
	return string(s.Bytes())
}
