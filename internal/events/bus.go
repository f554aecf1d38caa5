package events

import (
	"fmt"
	"log/slog"
	"sync"
)

// Handler receives published events
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-process publish/subscribe registry for lifecycle events.
// Handlers run synchronously on the publishing goroutine in subscription order.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Kind][]subscription
	log      *slog.Logger
}

// NewBus creates an empty bus
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		handlers: make(map[Kind][]subscription),
		log:      log.With("component", "events"),
	}
}

// Subscribe registers handler for kind and returns a function removing it
func (b *Bus) Subscribe(kind Kind, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(kind, id) })
	}
}

// SubscribeAll registers handler for every kind
func (b *Bus) SubscribeAll(handler Handler) func() {
	unsubs := make([]func(), 0, len(AllKinds))
	for _, kind := range AllKinds {
		unsubs = append(unsubs, b.Subscribe(kind, handler))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (b *Bus) unsubscribe(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[kind]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every handler subscribed to kind
func (b *Bus) Publish(kind Kind, event Event) {
	event.Kind = kind

	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[kind]...)
	b.mu.RUnlock()

	b.log.Debug("publishing event", "kind", kind, "txId", event.TxID, "handlers", len(subs))

	for _, sub := range subs {
		b.dispatch(sub.handler, event)
	}
}

func (b *Bus) dispatch(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				"kind", event.Kind,
				"txId", event.TxID,
				"error", fmt.Sprint(r),
			)
		}
	}()
	handler(event)
}
