package sim

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a discrete financial event.
type EventType string

const (
	EventExpense     EventType = "expense"
	EventDebtPayment EventType = "debt-payment"
)

// Event is one queued financial event. Count is how many pushes were folded into it.
type Event struct {
	ID        string
	Type      EventType
	Amount    float64
	Category  Category
	TargetID  string
	Count     int
	Timestamp time.Time
}

type aggregateKey struct {
	typ      EventType
	category Category
	target   string
}

// EventQueue buffers pushed events and releases them at a pace tied to playback speed.
// Under compressed time views, events sharing (type, category, target) fold into the
// first queued entry for that tuple, which keeps its insertion slot.
type EventQueue struct {
	events   []*Event
	view     TimeView
	interval time.Duration
	lastPop  time.Duration
	now      func() time.Time
}

// NewEventQueue returns an empty queue at 1M view and 1× speed.
func NewEventQueue() *EventQueue {
	return &EventQueue{
		view:     View1M,
		interval: time.Second,
		now:      time.Now,
	}
}

// SetTimeView changes the aggregation mode for future pushes.
func (q *EventQueue) SetTimeView(v TimeView) {
	q.view = v
}

// SetPlaybackSpeed sets the pop interval to 1s/speed. Non-positive speeds are ignored.
func (q *EventQueue) SetPlaybackSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	q.interval = time.Duration(float64(time.Second) / speed)
}

// Interval returns the current minimum spacing between pops.
func (q *EventQueue) Interval() time.Duration {
	return q.interval
}

// Push enqueues e, or folds it into an existing entry when the view aggregates.
func (q *EventQueue) Push(e Event) {
	if q.view.Compressed() {
		k := aggregateKey{e.Type, e.Category, e.TargetID}
		for _, ex := range q.events {
			if (aggregateKey{ex.Type, ex.Category, ex.TargetID}) == k {
				ex.Amount += e.Amount
				ex.Count++
				return
			}
		}
	}
	ev := e
	ev.Count = 1
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = q.now()
	}
	q.events = append(q.events, &ev)
}

// PopIfReady returns the oldest event when at least Interval has passed since the
// last successful pop. now is a monotonic simulation clock.
func (q *EventQueue) PopIfReady(now time.Duration) (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	if now-q.lastPop < q.interval {
		return Event{}, false
	}
	q.lastPop = now
	e := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]
	return *e, true
}

// Peek returns the oldest event without removing it.
func (q *EventQueue) Peek() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	return *q.events[0], true
}

// Len is the number of queued entries.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Clear drops every queued entry.
func (q *EventQueue) Clear() {
	q.events = nil
}
