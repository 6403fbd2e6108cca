package game

// Handler receives events published on the Bus.
type Handler func(Event)

// Bus is a synchronous in-process event dispatcher keyed by EventType.
//
// Guarantees (the original engine left these implicit; they are contract here):
//   - Handlers for a type fire in registration order.
//   - Publish is synchronous: it returns after every handler has run.
//   - Publishing from inside a handler is allowed and is delivered
//     depth-first, before the outer Publish returns.
//
// The Bus is only ever touched from the engine tick goroutine, so there is
// no locking. Handlers must not block.
type Bus struct {
	handlers map[EventType][]Handler
	any      []Handler // Subscribers to every event (event log, hints)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for a single event type.
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler for every event type.
// All-event handlers run after the type-specific ones.
func (b *Bus) SubscribeAll(h Handler) {
	b.any = append(b.any, h)
}

// Publish delivers an event to all matching handlers, in registration order.
func (b *Bus) Publish(ev Event) {
	for _, h := range b.handlers[ev.Type] {
		h(ev)
	}
	for _, h := range b.any {
		h(ev)
	}
}

// Emit builds an event and publishes it.
func (b *Bus) Emit(t EventType, tickNum uint64, source string, payload interface{}) {
	b.Publish(NewEvent(t, tickNum, source, payload))
}
