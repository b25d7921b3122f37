package eventbus

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultBufferSize is the default capacity of the event channel
const DefaultBufferSize = 100

// ErrBusClosed is returned when emitting on a closed bus
var ErrBusClosed = errors.New("event bus is closed")

// Event is a typed event variant. EventName keys the dispatch table.
type Event interface {
	EventName() string
}

// Handler processes one event. Handlers own their error handling; a handler
// must never block the bus on a downstream failure.
type Handler func(ctx context.Context, evt Event)

// Bus is an in-process, channel-backed event bus. Delivery is at-least-once
// within the process lifetime; no ordering is guaranteed across event types.
type Bus struct {
	logger *logrus.Entry

	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool

	ch   chan Event
	done chan struct{}
}

// New creates and starts an event bus. bufferSize <= 0 falls back to
// DefaultBufferSize.
func New(bufferSize int, logger *logrus.Entry) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	b := &Bus{
		logger:   logger.WithField("component", "eventbus"),
		handlers: make(map[string][]Handler),
		ch:       make(chan Event, bufferSize),
		done:     make(chan struct{}),
	}

	go b.run()
	return b
}

// Subscribe registers a handler for an event name
func (b *Bus) Subscribe(eventName string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], h)
}

// Emit queues an event for dispatch. Blocks only when the buffer is full,
// and then honors ctx cancellation.
func (b *Bus) Emit(ctx context.Context, evt Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case b.ch <- evt:
		return nil
	}
}

// Close stops accepting events and waits for queued events to be dispatched
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()

	<-b.done
}

// run drains the channel and dispatches events until Close
func (b *Bus) run() {
	for evt := range b.ch {
		b.dispatch(evt)
	}
	close(b.done)
}

func (b *Bus) dispatch(evt Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[evt.EventName()]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Warnf("No handlers for event %s", evt.EventName())
		return
	}

	for _, h := range handlers {
		b.invoke(h, evt)
	}
}

// invoke runs one handler, recovering panics so a broken handler cannot
// take down the dispatch loop
func (b *Bus) invoke(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Handler for %s panicked: %v", evt.EventName(), r)
		}
	}()
	h(context.Background(), evt)
}
