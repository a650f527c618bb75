package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/event"
)

// EventLog stands in for the outbox: repositories append the events they
// would have published.
type EventLog struct {
	mu     sync.Mutex
	events []event.Event
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) append(events ...event.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
}

func (l *EventLog) Events() []event.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]event.Event(nil), l.events...)
}

func (l *EventLog) AssertEventCount(t *testing.T, expected int) *EventLog {
	t.Helper()
	assert.Len(t, l.Events(), expected)
	return l
}

func (l *EventLog) AssertEventNotExists(t *testing.T, e event.Event) *EventLog {
	t.Helper()
	for _, ev := range l.Events() {
		if fmt.Sprintf("%T", ev) == fmt.Sprintf("%T", e) {
			t.Errorf("expected event %T to not exist, but it does", e)
		}
	}
	return l
}

// Last returns the most recent event of type T.
func Last[T event.Event](t *testing.T, l *EventLog) T {
	t.Helper()
	events := l.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if e, ok := events[i].(T); ok {
			return e
		}
	}
	var zero T
	t.Fatalf("no event of type %T recorded", zero)
	return zero
}
