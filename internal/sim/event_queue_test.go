package sim

import (
	"testing"
	"time"
)

func TestEventQueue_AggregatesInCompressedView(t *testing.T) {
	for _, v := range []TimeView{View3M, ViewYTD, View1Y} {
		q := NewEventQueue()
		q.SetTimeView(v)
		q.Push(Event{Type: EventExpense, Amount: 50})
		q.Push(Event{Type: EventExpense, Amount: 50})
		if q.Len() != 1 {
			t.Fatalf("%s: expected 1 queued entry, got %d", v, q.Len())
		}
		e, _ := q.Peek()
		if e.Amount != 100 || e.Count != 2 {
			t.Fatalf("%s: expected amount 100 count 2, got %.0f count %d", v, e.Amount, e.Count)
		}
	}
}

func TestEventQueue_IndependentInUncompressedView(t *testing.T) {
	for _, v := range []TimeView{View1W, View1M} {
		q := NewEventQueue()
		q.SetTimeView(v)
		q.Push(Event{Type: EventExpense, Amount: 50})
		q.Push(Event{Type: EventExpense, Amount: 50})
		if q.Len() != 2 {
			t.Fatalf("%s: expected 2 queued entries, got %d", v, q.Len())
		}
	}
}

func TestEventQueue_KeyIncludesTypeCategoryTarget(t *testing.T) {
	q := NewEventQueue()
	q.SetTimeView(View1Y)
	q.Push(Event{Type: EventExpense, Amount: 10, TargetID: "a"})
	q.Push(Event{Type: EventExpense, Amount: 10, TargetID: "b"})
	q.Push(Event{Type: EventDebtPayment, Amount: 10, TargetID: "a"})
	q.Push(Event{Type: EventExpense, Amount: 10, TargetID: "a", Category: CategoryDepository})
	if q.Len() != 4 {
		t.Fatalf("expected 4 distinct groups, got %d", q.Len())
	}
}

func TestEventQueue_AggregateKeepsFirstSlot(t *testing.T) {
	q := NewEventQueue()
	q.SetTimeView(View3M)
	q.Push(Event{Type: EventExpense, Amount: 1, TargetID: "a"})
	q.Push(Event{Type: EventExpense, Amount: 2, TargetID: "b"})
	q.Push(Event{Type: EventExpense, Amount: 3, TargetID: "a"})

	first, ok := q.PopIfReady(time.Second)
	if !ok || first.TargetID != "a" || first.Amount != 4 {
		t.Fatalf("expected folded a=4 first, got %+v", first)
	}
	second, ok := q.PopIfReady(2 * time.Second)
	if !ok || second.TargetID != "b" {
		t.Fatalf("expected b second, got %+v", second)
	}
}

func TestEventQueue_AssignsIDs(t *testing.T) {
	q := NewEventQueue()
	q.Push(Event{Type: EventExpense, Amount: 1})
	q.Push(Event{Type: EventExpense, Amount: 1})
	a, _ := q.PopIfReady(time.Second)
	b, _ := q.PopIfReady(2 * time.Second)
	if a.ID == "" || b.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set on push")
	}
}

func TestEventQueue_PopThrottling(t *testing.T) {
	for _, speed := range []float64{0.5, 1, 1.5, 2, 4} {
		q := NewEventQueue()
		q.SetPlaybackSpeed(speed)
		for i := 0; i < 50; i++ {
			q.Push(Event{Type: EventExpense, Amount: 1})
		}
		interval := time.Duration(float64(time.Second) / speed)

		var pops []time.Duration
		step := 5 * time.Millisecond
		for now := time.Duration(0); now <= 10*time.Second; now += step {
			if _, ok := q.PopIfReady(now); ok {
				pops = append(pops, now)
			}
		}
		if len(pops) == 0 {
			t.Fatalf("speed %.1f: expected pops", speed)
		}
		if pops[0] < interval {
			t.Fatalf("speed %.1f: first pop at %v before interval %v", speed, pops[0], interval)
		}
		for i := 1; i < len(pops); i++ {
			if gap := pops[i] - pops[i-1]; gap < interval {
				t.Fatalf("speed %.1f: pops %v apart, interval %v", speed, gap, interval)
			}
		}
		// Roughly one pop per interval over 10s.
		want := int(10 * speed)
		if len(pops) < want-1 || len(pops) > want {
			t.Fatalf("speed %.1f: expected ~%d pops, got %d", speed, want, len(pops))
		}
	}
}

func TestEventQueue_EmptyPopDoesNotResetTimer(t *testing.T) {
	q := NewEventQueue()
	if _, ok := q.PopIfReady(2 * time.Second); ok {
		t.Fatal("empty queue should not pop")
	}
	q.Push(Event{Type: EventExpense, Amount: 1})
	if _, ok := q.PopIfReady(2 * time.Second); !ok {
		t.Fatal("expected pop; the timer must only reset on a successful pop")
	}
}

func TestEventQueue_IgnoresNonPositiveSpeed(t *testing.T) {
	q := NewEventQueue()
	q.SetPlaybackSpeed(2)
	q.SetPlaybackSpeed(0)
	q.SetPlaybackSpeed(-1)
	if q.Interval() != 500*time.Millisecond {
		t.Fatalf("expected 500ms interval, got %v", q.Interval())
	}
}
