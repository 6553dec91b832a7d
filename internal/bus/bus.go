package bus

import (
	"context"
	"sync"
)

// Bus is an unbounded multi-producer, single-consumer FIFO. Post never
// blocks, so it is safe to call from the UI loop and from worker
// goroutines alike.
type Bus struct {
	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
	closed bool
	done   chan struct{}
}

func New() *Bus {
	return &Bus{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post enqueues ev. It reports false once the bus is closed.
func (b *Bus) Post(ev Event) bool {
	if ev == nil {
		return false
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return true
}

// TryRecv pops the oldest event without waiting.
func (b *Bus) TryRecv() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil, false
	}
	ev := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]
	if len(b.queue) == 0 {
		b.queue = nil
	}
	return ev, true
}

// Recv waits for the next event. It returns false when ctx is done or
// when the bus is closed and fully drained.
func (b *Bus) Recv(ctx context.Context) (Event, bool) {
	for {
		if ev, ok := b.TryRecv(); ok {
			return ev, true
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-b.done:
			if ev, ok := b.TryRecv(); ok {
				return ev, true
			}
			return nil, false
		case <-b.notify:
		}
	}
}

func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close rejects further posts. Queued events can still be received.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
