package chunk

type EventType int

const (
	EventChunkLoaded EventType = iota
	EventChunkEvicted
	EventCenterChanged
)

type Event struct {
	Type     EventType
	Coord    Coord
	Resident int // resident chunk count after the change
}

type EventHandler func(Event)

type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

// Emit calls handlers synchronously. A nil bus drops the event.
func (eb *EventBus) Emit(e Event) {
	if eb == nil {
		return
	}
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
