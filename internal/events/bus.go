package events

import "sync"

// Event is a generic type placeholder for any event type
type Event any

// Subscriber is a channel that transports events of type T
type Subscriber[T Event] chan T

const defaultBuffer = 100

// EventBus fans events out to every subscriber without blocking the
// publisher. A subscriber whose buffer is full misses the event.
type EventBus[T Event] struct {
	subscribers map[Subscriber[T]]struct{}
	mutex       sync.RWMutex
	closed      bool

	// OnDrop, if set, is called for every event a subscriber missed
	OnDrop func(event T)
}

func NewEventBus[T Event]() *EventBus[T] {
	return &EventBus[T]{
		subscribers: make(map[Subscriber[T]]struct{}),
	}
}

// Subscribe registers a new subscriber. On a closed bus the returned
// channel is already closed.
func (bus *EventBus[T]) Subscribe() Subscriber[T] {
	ch := make(Subscriber[T], defaultBuffer)

	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	if bus.closed {
		close(ch)
		return ch
	}
	bus.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes ch. Calling it twice, or after Close, is a no-op.
func (bus *EventBus[T]) Unsubscribe(ch Subscriber[T]) {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	if _, ok := bus.subscribers[ch]; !ok {
		return
	}
	delete(bus.subscribers, ch)
	close(ch)
}

// Publish broadcasts an event of type T to all registered subscribers
func (bus *EventBus[T]) Publish(event T) {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()

	for subscriber := range bus.subscribers {
		select {
		case subscriber <- event:
		default:
			if bus.OnDrop != nil {
				bus.OnDrop(event)
			}
		}
	}
}

// Close closes every subscriber channel. Later publishes go nowhere.
func (bus *EventBus[T]) Close() {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	if bus.closed {
		return
	}
	bus.closed = true
	for ch := range bus.subscribers {
		delete(bus.subscribers, ch)
		close(ch)
	}
}

func (bus *EventBus[T]) Len() int {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()

	return len(bus.subscribers)
}
