package feedersim

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event categories written to the log.
const (
	CategoryProtection  = "Protection"
	CategoryRestoration = "Restoration"
	CategoryContingency = "Contingency"
	CategoryEnvironment = "Environment"
	CategoryCyber       = "Cyber"
	CategoryControl     = "Control"
	CategorySystem      = "System"
)

// DefaultEventLogSize is the number of events kept before the oldest are
// overwritten.
const DefaultEventLogSize = 200

// Event is a single entry of the operator event log.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Time     time.Time `json:"time"`
	Category string    `json:"category"`
	Kind     string    `json:"kind"`
	Details  string    `json:"details"`
}

// EventLog keeps the most recent events in a circular buffer and mirrors each
// one to an optional structured logger.
type EventLog struct {
	events []Event
	size   int
	index  int
	count  int
	mu     sync.RWMutex

	logger *slog.Logger
	now    func() time.Time
}

// NewEventLog returns a log holding up to size events. logger may be nil.
func NewEventLog(size int, logger *slog.Logger) *EventLog {
	if size < 1 {
		size = DefaultEventLogSize
	}
	return &EventLog{
		events: make([]Event, size),
		size:   size,
		logger: logger,
		now:    time.Now,
	}
}

// Add records an event and returns it.
func (l *EventLog) Add(category, kind, details string) Event {
	e := Event{
		ID:       uuid.New(),
		Time:     l.now(),
		Category: category,
		Kind:     kind,
		Details:  details,
	}

	l.mu.Lock()
	l.events[l.index] = e
	l.index = (l.index + 1) % l.size
	if l.count < l.size {
		l.count++
	}
	l.mu.Unlock()

	if l.logger != nil {
		l.logger.Info("event",
			"id", e.ID.String(),
			"category", category,
			"kind", kind,
			"details", details,
		)
	}
	return e
}

// Events returns the stored events, newest first. A non-empty category keeps
// only the events of that category.
func (l *EventLog) Events(category string) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0, l.count)
	for i := 1; i <= l.count; i++ {
		e := l.events[(l.index-i+l.size)%l.size]
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len is the number of stored events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Clear drops every stored event.
func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = make([]Event, l.size)
	l.index = 0
	l.count = 0
}
