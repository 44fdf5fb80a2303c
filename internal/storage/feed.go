package storage

import (
	"sync"

	"github.com/lexc24/tictactoe/internal/model"
)

// subscriberBuffer is the change-feed channel depth per subscriber
const subscriberBuffer = 64

// Feed is the in-process change log shared by store implementations.
// Publishing never blocks a write path: a subscriber that falls behind
// has events dropped, and catches up on the next one since the notifier
// rebuilds the full snapshot per event.
type Feed struct {
	mu     sync.Mutex
	subs   []chan model.ChangeEvent
	closed bool
}

// NewFeed creates an empty Feed
func NewFeed() *Feed {
	return &Feed{}
}

// Subscribe registers a new change-feed consumer
func (f *Feed) Subscribe() <-chan model.ChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan model.ChangeEvent, subscriberBuffer)
	if f.closed {
		close(ch)
		return ch
	}
	f.subs = append(f.subs, ch)
	return ch
}

// Publish delivers an event to every subscriber, dropping it for any
// subscriber whose buffer is full
func (f *Feed) Publish(ev model.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes all subscriber channels
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}
