package relay

import (
	"fmt"
	"testing"
)

func TestSubscribePublishUnsubscribe(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", b.ClientCount())
	}

	b.Publish(Event{Topic: "range", Payload: `{"from":10,"to":60}`})
	evt := <-ch
	if evt.Topic != "range" {
		t.Fatalf("topic = %q, want range", evt.Topic)
	}

	b.Unsubscribe(id)
	if b.ClientCount() != 0 {
		t.Fatalf("ClientCount() = %d, want 0", b.ClientCount())
	}
	if _, open := <-ch; open {
		t.Fatal("channel still open after unsubscribe")
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroker()
	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()

	b.Publish(Event{Topic: "drawing", Payload: "{}"})
	for i, ch := range []<-chan Event{ch1, ch2} {
		evt := <-ch
		if evt.Topic != "drawing" {
			t.Fatalf("subscriber %d topic = %q, want drawing", i, evt.Topic)
		}
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroker()
	_, ch := b.Subscribe()

	for i := 0; i < subscriberBufSize+10; i++ {
		b.Publish(Event{Topic: "range", Payload: fmt.Sprintf(`{"n":%d}`, i)})
	}
	if len(ch) != subscriberBufSize {
		t.Fatalf("buffered = %d, want %d", len(ch), subscriberBufSize)
	}
}

func TestUnsubscribeUnknownIDIsNoop(t *testing.T) {
	b := NewBroker()
	b.Unsubscribe(42)
	if b.ClientCount() != 0 {
		t.Fatalf("ClientCount() = %d, want 0", b.ClientCount())
	}
}
