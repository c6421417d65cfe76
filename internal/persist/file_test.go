package persist

import (
	"context"
	"testing"

	"restomanager/client/internal/domain"
	"restomanager/client/internal/state"
)

func TestFileSnapshotsRoundTrip(t *testing.T) {
	snapshots, err := NewFileSnapshots(t.TempDir())
	if err != nil {
		t.Fatalf("new file snapshots: %v", err)
	}
	ctx := context.Background()

	snap := state.Initial("es", 5, 15)
	snap.Inventory = []domain.InventoryItem{{ID: "inv-1", Name: "Arroz", Quantity: 20}}
	snap.Orders = []domain.Order{{ID: "ord-1", Customer: "Mesa 1", Total: 25000, Status: domain.OrderStatusPending}}

	if err := snapshots.Save(ctx, snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, ok, err := snapshots.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected a stored snapshot")
	}
	if len(loaded.Inventory) != 1 || loaded.Inventory[0].ID != "inv-1" {
		t.Fatalf("inventory did not survive the round trip: %+v", loaded.Inventory)
	}
	if loaded.Orders[0].Total != 25000 {
		t.Fatalf("order total did not survive the round trip")
	}
	if loaded.LowStockThreshold != 5 || loaded.MediumStockThreshold != 15 {
		t.Fatalf("thresholds did not survive the round trip")
	}
}

func TestFileSnapshotsAbsent(t *testing.T) {
	snapshots, err := NewFileSnapshots(t.TempDir())
	if err != nil {
		t.Fatalf("new file snapshots: %v", err)
	}

	_, ok, err := snapshots.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if ok {
		t.Fatalf("expected absent snapshot")
	}
}

func TestFileSnapshotsOverwrite(t *testing.T) {
	snapshots, err := NewFileSnapshots(t.TempDir())
	if err != nil {
		t.Fatalf("new file snapshots: %v", err)
	}
	ctx := context.Background()

	first := state.Initial("es", 5, 15)
	first.Language = "es"
	if err := snapshots.Save(ctx, first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second := state.Initial("en", 5, 15)
	if err := snapshots.Save(ctx, second); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	loaded, _, err := snapshots.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Language != "en" {
		t.Fatalf("expected the newer snapshot, got language %s", loaded.Language)
	}
}

func TestNoopSnapshotsAlwaysAbsent(t *testing.T) {
	var snapshots Snapshots = NoopSnapshots{}
	ctx := context.Background()

	if err := snapshots.Save(ctx, state.Initial("es", 5, 15)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, ok, _ := snapshots.Load(ctx); ok {
		t.Fatalf("noop storage must never report a snapshot")
	}
}

func TestFileKeyring(t *testing.T) {
	keys, err := NewFileKeyring(t.TempDir())
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	ctx := context.Background()

	if _, ok, _ := keys.Get(ctx, "authToken"); ok {
		t.Fatalf("expected empty keyring")
	}

	if err := keys.Set(ctx, "authToken", "token-1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val, ok, err := keys.Get(ctx, "authToken")
	if err != nil || !ok || val != "token-1" {
		t.Fatalf("get after set: val=%q ok=%v err=%v", val, ok, err)
	}

	if err := keys.Delete(ctx, "authToken"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := keys.Get(ctx, "authToken"); ok {
		t.Fatalf("expected key gone after delete")
	}
}
