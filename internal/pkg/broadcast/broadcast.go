// Package broadcast fans a value out to an ordered list of listeners.
package broadcast

import "sync"

// Broadcaster delivers published values to callbacks in registration order
// and to buffered channel subscribers.
type Broadcaster[T any] struct {
	mu        sync.Mutex
	next      int
	listeners []listener[T]
	subs      map[int]chan T
}

type listener[T any] struct {
	id int
	fn func(T)
}

// New creates an empty Broadcaster.
func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: map[int]chan T{}}
}

// Register adds fn and returns a func that removes it. Calling the returned
// func more than once is a no-op.
func (b *Broadcaster[T]) Register(fn func(T)) (deregister func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.listeners = append(b.listeners, listener[T]{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Subscribe returns a channel receiving every published value. Values are
// dropped for a subscriber whose buffer is full. cancel closes the channel.
func (b *Broadcaster[T]) Subscribe(buffer int) (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan T, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			close(c)
			delete(b.subs, id)
		}
	}
	return ch, cancel
}

// Publish offers v to the channel subscribers without blocking, then invokes
// every registered callback in order. Callbacks run outside the lock and may
// deregister.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	fns := make([]func(T), len(b.listeners))
	for i, l := range b.listeners {
		fns[i] = l.fn
	}
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered callbacks.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
