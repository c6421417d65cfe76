package state

import (
	"testing"
	"time"

	"restomanager/client/internal/domain"
)

func testTime() time.Time {
	return time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC)
}

func TestStoreNotifiesSubscribersInOrder(t *testing.T) {
	store := NewStore(sampleSnapshot())

	var calls []string
	store.Subscribe(func(Snapshot) { calls = append(calls, "first") })
	store.Subscribe(func(Snapshot) { calls = append(calls, "second") })

	store.Dispatch(ToggleDarkMode{})

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("expected in-order notification, got %v", calls)
	}
}

func TestStoreUnsubscribeStopsNotifications(t *testing.T) {
	store := NewStore(sampleSnapshot())

	count := 0
	cancel := store.Subscribe(func(Snapshot) { count++ })

	store.Dispatch(ToggleDarkMode{})
	cancel()
	store.Dispatch(ToggleDarkMode{})

	if count != 1 {
		t.Fatalf("expected one notification, got %d", count)
	}
}

func TestDispatchFromSubscriberIsQueuedNotReentrant(t *testing.T) {
	store := NewStore(sampleSnapshot())

	dispatched := false
	var seen []string
	store.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.Language)
		if !dispatched {
			dispatched = true
			store.Dispatch(SetLanguage{Language: "en"})
		}
	})

	final := store.Dispatch(SetLanguage{Language: "pt"})

	// Both transitions applied, one at a time, in dispatch order.
	if len(seen) != 2 || seen[0] != "pt" || seen[1] != "en" {
		t.Fatalf("expected queued transition after the first, got %v", seen)
	}
	if final.Language != "en" {
		t.Fatalf("expected final language en, got %s", final.Language)
	}
}

func TestSnapshotIsIsolatedFromStore(t *testing.T) {
	store := NewStore(sampleSnapshot())

	snap := store.Snapshot()
	snap.Inventory[0].Quantity = 999
	snap.Orders[0].Status = domain.OrderStatusCancelled

	fresh := store.Snapshot()
	if fresh.Inventory[0].Quantity == 999 {
		t.Fatalf("mutating a returned snapshot leaked into the store")
	}
	if fresh.Orders[0].Status == domain.OrderStatusCancelled {
		t.Fatalf("mutating a returned snapshot leaked into the store")
	}
}

func TestEveryTransitionVisibleToSubsequentReads(t *testing.T) {
	store := NewStore(Initial("es", 5, 15))

	for i := 0; i < 10; i++ {
		store.Dispatch(AddOrder{Order: domain.Order{ID: orderID(i), Total: 1000}})
		if got := len(store.Snapshot().Orders); got != i+1 {
			t.Fatalf("after %d dispatches expected %d orders, got %d", i+1, i+1, got)
		}
	}
}

func orderID(i int) string {
	return string(rune('a'+i)) + "-order"
}
