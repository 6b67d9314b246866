package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable fact about an operation, an item or a BOM edge
type Event interface {
	ID() string
	Type() string
	StreamID() string
	Data() any
	Timestamp() time.Time
	// Version is the 1-based position within the stream, assigned on append
	Version() int
}

// EventHandler receives events of the types it subscribed to
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends events and fans them out to subscribers
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// Record is the stored form of an event
type Record struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Stream     string    `json:"stream_id"`
	Payload    any       `json:"data"`
	OccurredAt time.Time `json:"occurred_at"`
	Seq        int       `json:"version"`
	Position   int       `json:"position"`
}

func (r Record) ID() string           { return r.EventID }
func (r Record) Type() string         { return r.EventType }
func (r Record) StreamID() string     { return r.Stream }
func (r Record) Data() any            { return r.Payload }
func (r Record) Timestamp() time.Time { return r.OccurredAt }
func (r Record) Version() int         { return r.Seq }

// NewEvent creates an unversioned event with a fresh id
func NewEvent(eventType, streamID string, data any) Event {
	return Record{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Stream:     streamID,
		Payload:    data,
		OccurredAt: time.Now().UTC(),
	}
}

// stamp copies event into a Record placed at the given stream version and global position
func stamp(event Event, streamID string, version, position int) Record {
	id := event.ID()
	if id == "" {
		id = uuid.NewString()
	}
	return Record{
		EventID:    id,
		EventType:  event.Type(),
		Stream:     streamID,
		Payload:    event.Data(),
		OccurredAt: event.Timestamp(),
		Seq:        version,
		Position:   position,
	}
}
