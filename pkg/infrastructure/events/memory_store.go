package events

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps every stream in memory and notifies subscribers asynchronously.
// Handlers run after AppendEvent returns; Wait blocks until they finish.
type InMemoryEventStore struct {
	mu          sync.RWMutex
	streams     map[string][]Record
	log         []Record
	subscribers map[string][]EventHandler
	pending     sync.WaitGroup
	logger      *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Record),
		subscribers: make(map[string][]EventHandler),
		logger:      logger,
	}
}

// Verify interface compliance
var _ EventStore = (*InMemoryEventStore)(nil)

// AppendEvent stores event at the end of streamID and of the global log
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	if streamID == "" {
		return fmt.Errorf("stream id cannot be empty")
	}

	s.mu.Lock()
	record := stamp(event, streamID, len(s.streams[streamID])+1, len(s.log))
	s.streams[streamID] = append(s.streams[streamID], record)
	s.log = append(s.log, record)
	handlers := append([]EventHandler(nil), s.subscribers[record.EventType]...)
	s.mu.Unlock()

	s.dispatch(handlers, record)
	return nil
}

// ReadEvents returns the events of one stream starting at fromVersion (1-based)
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if fromVersion < 1 {
		fromVersion = 1
	}
	return toEvents(s.streams[streamID], fromVersion-1), nil
}

// ReadAllEvents returns the global log starting at fromPosition (0-based)
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	return toEvents(s.log, fromPosition), nil
}

func toEvents(records []Record, from int) []Event {
	if from >= len(records) {
		return []Event{}
	}
	events := make([]Event, 0, len(records)-from)
	for _, r := range records[from:] {
		events = append(events, r)
	}
	return events
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := handlers[:0:0]
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}
	return nil
}

// Wait blocks until every handler started so far has returned
func (s *InMemoryEventStore) Wait() {
	s.pending.Wait()
}

func (s *InMemoryEventStore) dispatch(handlers []EventHandler, record Record) {
	for _, handler := range handlers {
		if !handler.CanHandle(record.EventType) {
			continue
		}
		s.pending.Add(1)
		go func(h EventHandler) {
			defer s.pending.Done()
			if err := h.Handle(record); err != nil {
				s.logger.Error("event handler failed",
					zap.String("event_type", record.EventType),
					zap.String("stream_id", record.Stream),
					zap.String("event_id", record.EventID),
					zap.Error(err),
				)
			}
		}(handler)
	}
}
