package jinngine

import (
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

const (
	CONTACT_BEGIN EventType = iota
	CONTACT_END
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// ContactBeginEvent fires when two bodies get their first overlapping geometry pair
type ContactBeginEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e ContactBeginEvent) Type() EventType { return CONTACT_BEGIN }

// ContactEndEvent fires when the last overlapping geometry pair of two bodies separates
type ContactEndEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e ContactEndEvent) Type() EventType { return CONTACT_END }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers the events of a tick and delivers them when the tick ends
type Events struct {
	listeners map[EventType][]EventListener
	buffer    []Event
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 64),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// flush sends all buffered events in emission order and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
