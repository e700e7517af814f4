package watch

import (
	"sync"
)

// Broadcaster signals every armed watch once per Broadcast call.
type Broadcaster struct {
	mu      sync.Mutex
	changed chan struct{}
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{changed: make(chan struct{})}
}

// Trigger returns a Trigger armed on the next Broadcast.
func (b *Broadcaster) Trigger() Trigger {
	return func() <-chan struct{} {
		b.mu.Lock()
		defer b.mu.Unlock()

		return b.changed
	}
}

// Broadcast fires all currently armed triggers.
func (b *Broadcaster) Broadcast() {
	b.mu.Lock()
	defer b.mu.Unlock()

	close(b.changed)
	b.changed = make(chan struct{})
}

// Either fires as soon as one of both triggers fires. The second trigger must fire eventually,
// usually it is a Poll.
func Either(first, second Trigger) Trigger {
	return func() <-chan struct{} {
		a, b := first(), second()
		fired := make(chan struct{})

		go func() {
			select {
			case <-a:
			case <-b:
			}
			close(fired)
		}()

		return fired
	}
}
