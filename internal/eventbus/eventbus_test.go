package eventbus

import (
	"testing"
	"time"

	"autotundra/internal/domain"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := New(nil)
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	delivered := bus.Publish(domain.DomainEvent{Type: domain.EventTaskPhaseChanged, TaskID: "t-1"})
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}

	select {
	case ev := <-sub.Events():
		if ev.TaskID != "t-1" {
			t.Fatalf("TaskID = %s, want t-1", ev.TaskID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishOnlyReachesSubscribersAfterSubscribe(t *testing.T) {
	bus := New(nil)
	bus.Publish(domain.DomainEvent{Type: domain.EventTaskPhaseChanged})

	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	select {
	case <-sub.Events():
		t.Fatal("should not receive events published before Subscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	sub := bus.Subscribe()
	sub.Unsubscribe()

	_, ok := <-sub.Events()
	if ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
}

func TestSlowSubscriberDropsOldestNeverBlocksPublisher(t *testing.T) {
	bus := New(nil)
	bus.bufferSize = 2
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(domain.DomainEvent{Type: domain.EventTaskLogAppended, Message: string(rune('a' + i))})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	for _, want := range []string{"i", "j"} {
		ev := <-sub.Events()
		if ev.Message != want {
			t.Fatalf("Message = %q, want %q (oldest events should have been dropped)", ev.Message, want)
		}
	}
}

func TestSubscriberCount(t *testing.T) {
	bus := New(nil)
	if bus.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers initially")
	}
	sub1 := bus.Subscribe()
	sub2 := bus.Subscribe()
	if bus.SubscriberCount() != 2 {
		t.Fatalf("expected 2 subscribers")
	}
	sub1.Unsubscribe()
	if bus.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe")
	}
	sub2.Unsubscribe()
}
