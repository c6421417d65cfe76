package bus

import "testing"

func TestPublishInvokesHandlersInOrder(t *testing.T) {
	b := New()

	var calls []string
	b.Subscribe("auth", func(any) { calls = append(calls, "first") })
	b.Subscribe("auth", func(any) { calls = append(calls, "second") })

	b.Publish("auth", nil)

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("expected in-order delivery, got %v", calls)
	}
}

func TestCancelRemovesHandler(t *testing.T) {
	b := New()

	count := 0
	cancel := b.Subscribe("auth", func(any) { count++ })

	b.Publish("auth", nil)
	cancel()
	b.Publish("auth", nil)

	if count != 1 {
		t.Fatalf("expected one delivery, got %d", count)
	}

	// Cancelling twice is harmless.
	cancel()
}

func TestHandlerRegisteredDuringPublishNotInvoked(t *testing.T) {
	b := New()

	lateCalls := 0
	b.Subscribe("auth", func(any) {
		b.Subscribe("auth", func(any) { lateCalls++ })
	})

	b.Publish("auth", nil)
	if lateCalls != 0 {
		t.Fatalf("handler registered mid-publish must not run for that publish")
	}

	b.Publish("auth", nil)
	if lateCalls != 1 {
		t.Fatalf("late handler should run on the next publish, got %d", lateCalls)
	}
}

func TestPayloadDelivered(t *testing.T) {
	b := New()

	var got any
	b.Subscribe(EventAuthenticated, func(payload any) { got = payload })
	b.Publish(EventAuthenticated, "user-1")

	if got != "user-1" {
		t.Fatalf("expected payload user-1, got %v", got)
	}
}
