package engine

import (
	"sync"
	"time"
)

// EventKind identifies a notification.
type EventKind string

// Event kinds.
const (
	ReloadSucceeded EventKind = "reloadRouteSuccess"
	ReloadFailed    EventKind = "reloadRouteFailed"
)

// Event reports the outcome of one reload.
type Event struct {
	Kind       EventKind
	Err        error
	Generation string
	Routes     int
	Duration   time.Duration
	// Changed lists the files whose change triggered the reload. It is empty
	// for startup and manual reloads.
	Changed []string
}

// subscriberBuffer is the per-subscriber channel size. Events beyond it are
// dropped.
const subscriberBuffer = 16

type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber
		}
	}
}
