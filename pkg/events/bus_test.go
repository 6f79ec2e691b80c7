package events

import "testing"

func TestSubscribeReceivesLatestSnapshot(t *testing.T) {
	bus := NewBus()
	bus.Publish(Counts{PendingCount: 2, FailedCount: 1})

	sub := bus.Subscribe()
	defer sub.Close()

	select {
	case got := <-sub.C():
		if got.PendingCount != 2 || got.FailedCount != 1 {
			t.Fatalf("unexpected snapshot %+v", got)
		}
	default:
		t.Fatalf("expected primed snapshot on subscribe")
	}
}

func TestSlowSubscriberSeesLastWriteOnly(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	bus.Publish(Counts{PendingCount: 1})
	bus.Publish(Counts{PendingCount: 2})
	bus.Publish(Counts{PendingCount: 3})

	got := <-sub.C()
	if got.PendingCount != 3 {
		t.Fatalf("expected last write, got %+v", got)
	}
	select {
	case extra := <-sub.C():
		t.Fatalf("expected no backlog, got %+v", extra)
	default:
	}
}

func TestCloseIsIdempotentAndDetaches(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	sub.Close()
	sub.Close()

	// Publishing after close must not panic on the removed subscriber.
	bus.Publish(Counts{PendingCount: 1})

	if _, ok := <-sub.C(); ok {
		t.Fatalf("expected closed channel after Close")
	}
}

func TestLast(t *testing.T) {
	bus := NewBus()
	if _, ok := bus.Last(); ok {
		t.Fatalf("expected no snapshot before first publish")
	}
	bus.Publish(Counts{FailedCount: 4})
	got, ok := bus.Last()
	if !ok || got.FailedCount != 4 {
		t.Fatalf("unexpected last snapshot %+v ok=%v", got, ok)
	}
}
