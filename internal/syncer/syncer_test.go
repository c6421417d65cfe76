package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restomanager/client/internal/bus"
	"restomanager/client/internal/domain"
	"restomanager/client/internal/persist"
	"restomanager/client/internal/remote"
	"restomanager/client/internal/session"
	"restomanager/client/internal/state"
)

// stubSnapshots records saves on a channel so tests can observe the
// fire-and-forget persistence writes.
type stubSnapshots struct {
	mu    sync.Mutex
	snap  state.Snapshot
	ok    bool
	saves chan state.Snapshot
}

func newStubSnapshots() *stubSnapshots {
	return &stubSnapshots{saves: make(chan state.Snapshot, 16)}
}

func (s *stubSnapshots) preload(snap state.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.ok = true
	s.mu.Unlock()
}

func (s *stubSnapshots) Save(_ context.Context, snap state.Snapshot) error {
	s.mu.Lock()
	s.snap = snap
	s.ok = true
	s.mu.Unlock()
	select {
	case s.saves <- snap:
	default:
	}
	return nil
}

func (s *stubSnapshots) Load(_ context.Context) (state.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.ok, nil
}

type fixture struct {
	coordinator *Coordinator
	store       *state.Store
	snapshots   *stubSnapshots
	keys        *persist.MemoryKeyring
	events      *bus.Bus
}

func newFixture(t *testing.T, handler http.Handler, authenticated bool) *fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	keys := persist.NewMemoryKeyring()
	if authenticated {
		// Opaque token: passes the local expiry check unexamined.
		require.NoError(t, keys.Set(context.Background(), "authToken", "token-1"))
	}

	events := bus.New()
	var sess *session.Manager
	tokens := remote.TokenFunc(func(ctx context.Context) (string, bool) {
		return sess.Token(ctx)
	})
	client := remote.New(server.URL+"/api", 5*time.Second, tokens)
	sess = session.NewManager(client, keys, events)

	store := state.NewStore(state.Initial("es", 5, 15))
	snapshots := newStubSnapshots()
	coordinator := New(store, client, snapshots, sess)
	t.Cleanup(coordinator.Close)

	return &fixture{
		coordinator: coordinator,
		store:       store,
		snapshots:   snapshots,
		keys:        keys,
		events:      events,
	}
}

func backendMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/inventory", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"items":[
			{"_id":"inv-1","name":"Arroz","quantity":20,"unit":"kg","costPrice":3500,"sellingPrice":5000},
			{"_id":"inv-2","name":"Pollo","quantity":4,"unit":"kg","costPrice":9000,"sellingPrice":14000}
		]}}`))
	})
	mux.HandleFunc("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"orders":[
			{"_id":"ord-1","customer":"Mesa 1","total":25000,"status":"pending"},
			{"_id":"ord-2","customer":"Mesa 2","total":54000,"status":"Entregado"}
		]}}`))
	})
	mux.HandleFunc("GET /api/cash-close/current", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","message":"no open cash close"}`))
	})
	mux.HandleFunc("GET /api/analytics/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{
			"orders":{"totalOrders":2,"completedOrders":1,"totalRevenue":79000,"averageOrderValue":39500},
			"inventory":{"totalItems":2,"totalValue":106000,"lowStockItems":1}
		}}`))
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"user":{"_id":"usr-1","name":"Ana",
			"preferences":{"notifications":true,"language":"es","lowStockThreshold":3,"mediumStockThreshold":10}}}}`))
	})
	return mux
}

func TestHydrateFromBackend(t *testing.T) {
	f := newFixture(t, backendMux(), true)

	require.NoError(t, f.coordinator.Start(context.Background()))

	st, degraded := f.coordinator.State()
	assert.Equal(t, Hydrated, st)
	assert.False(t, degraded)

	snap := f.store.Snapshot()
	require.Len(t, snap.Inventory, 2)
	assert.Equal(t, "inv-1", snap.Inventory[0].ID)
	require.Len(t, snap.Orders, 2)
	assert.Equal(t, domain.OrderStatusDelivered, snap.Orders[1].Status)
	assert.Equal(t, 2, snap.Stats.TotalOrders)
	assert.Equal(t, 3, snap.LowStockThreshold)
	assert.Equal(t, 10, snap.MediumStockThreshold)
	assert.Equal(t, domain.CashCloseStatusOpen, snap.CashClose.Status)
}

func TestHydrateDegradesToPersistedSnapshot(t *testing.T) {
	base := backendMux()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/inventory" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"status":"error","message":"database unavailable"}`))
			return
		}
		base.ServeHTTP(w, r)
	})

	f := newFixture(t, handler, true)

	local := state.Initial("es", 5, 15)
	local.Inventory = []domain.InventoryItem{{ID: "inv-local", Name: "Harina", Quantity: 7}}
	local.Orders = []domain.Order{{ID: "ord-local", Total: 12000, Status: domain.OrderStatusPending}}
	f.snapshots.preload(local)

	require.NoError(t, f.coordinator.Start(context.Background()))

	st, degraded := f.coordinator.State()
	assert.Equal(t, Hydrated, st)
	assert.True(t, degraded, "failed remote fetch must degrade, not fail startup")

	snap := f.store.Snapshot()
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, "inv-local", snap.Inventory[0].ID)
}

func TestHydrateWithoutSessionUsesLocalSnapshot(t *testing.T) {
	f := newFixture(t, http.NotFoundHandler(), false)

	local := state.Initial("es", 5, 15)
	local.Orders = []domain.Order{{ID: "ord-local", Total: 9000}}
	f.snapshots.preload(local)

	require.NoError(t, f.coordinator.Start(context.Background()))

	st, degraded := f.coordinator.State()
	assert.Equal(t, Hydrated, st)
	assert.False(t, degraded)
	assert.Len(t, f.store.Snapshot().Orders, 1)
}

func TestAddInventoryItemAppliesServerRecord(t *testing.T) {
	mux := backendMux()
	mux.HandleFunc("POST /api/inventory", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"item":{"_id":"inv-9","name":"Aceite","quantity":10,"unit":"l"}}}`))
	})

	f := newFixture(t, mux, true)

	created, err := f.coordinator.AddInventoryItem(context.Background(), domain.InventoryItem{Name: "Aceite", Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, "inv-9", created.ID)

	snap := f.store.Snapshot()
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, "inv-9", snap.Inventory[0].ID, "only the server-confirmed record may enter the store")
}

func TestFailedMutationLeavesStoreUntouched(t *testing.T) {
	mux := backendMux()
	mux.HandleFunc("POST /api/inventory", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"status":"error","message":"name required"}`))
	})

	f := newFixture(t, mux, true)
	require.NoError(t, f.coordinator.Start(context.Background()))
	before := f.store.Snapshot()

	_, err := f.coordinator.AddInventoryItem(context.Background(), domain.InventoryItem{Quantity: 10})
	require.Error(t, err)
	assert.True(t, remote.IsStatus(err, http.StatusUnprocessableEntity))

	after := f.store.Snapshot()
	assert.Equal(t, len(before.Inventory), len(after.Inventory))
}

func TestUpdateOrderStatusSendsCanonicalLabel(t *testing.T) {
	mux := backendMux()
	mux.HandleFunc("PUT /api/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"order":{"_id":"` + r.PathValue("id") + `","status":"delivered","total":25000}}}`))
	})

	f := newFixture(t, mux, true)
	require.NoError(t, f.coordinator.Start(context.Background()))

	updated, err := f.coordinator.UpdateOrderStatus(context.Background(), "ord-1", "Entregado")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, updated.Status)

	snap := f.store.Snapshot()
	assert.Equal(t, domain.OrderStatusDelivered, snap.Orders[0].Status)
}

func TestCloseCashComputesFrozenDifference(t *testing.T) {
	mux := backendMux()
	mux.HandleFunc("POST /api/cash-close", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"cashClose":{"_id":"cc-1","cash":"100000","sales":"40000","status":"open"}}}`))
	})
	mux.HandleFunc("PUT /api/cash-close/{id}/close", func(w http.ResponseWriter, r *http.Request) {
		// Echoes the record without computing the difference.
		w.Write([]byte(`{"status":"success","data":{"cashClose":{"_id":"cc-1","cash":"100000","sales":"40000","status":"closed"}}}`))
	})

	f := newFixture(t, mux, true)

	cash, sales := "100000", "40000"
	f.coordinator.UpdateCashDraft(&cash, &sales)

	closed, err := f.coordinator.CloseCash(context.Background())
	require.NoError(t, err)
	require.NotNil(t, closed.Difference)
	assert.Equal(t, "60000", closed.Difference.String())
	assert.Equal(t, domain.CashCloseStatusClosed, closed.Status)

	snap := f.store.Snapshot()
	require.NotNil(t, snap.CashClose.Difference)
	assert.Equal(t, "60000", snap.CashClose.Difference.String())
}

func TestCloseCashRejectsUnparseableDraftBeforeAnyCall(t *testing.T) {
	called := false
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusInternalServerError)
	})

	f := newFixture(t, mux, true)

	cash := "abc"
	f.coordinator.UpdateCashDraft(&cash, nil)

	_, err := f.coordinator.CloseCash(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.False(t, called, "an invalid draft must never reach the backend")
}

func TestEveryTransitionSchedulesAPersistWrite(t *testing.T) {
	f := newFixture(t, backendMux(), false)

	f.store.Dispatch(state.SetLanguage{Language: "en"})

	select {
	case saved := <-f.snapshots.saves:
		assert.Equal(t, "en", saved.Language)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a snapshot save after the transition")
	}
}

func TestBindBusRehydratesOnAuthChange(t *testing.T) {
	f := newFixture(t, backendMux(), true)
	cancel := f.coordinator.BindBus(f.events)
	defer cancel()

	f.events.Publish(bus.EventAuthenticated, nil)

	snap := f.store.Snapshot()
	require.Len(t, snap.Inventory, 2, "auth event must trigger a full hydration")

	// Logging out drops the token; re-hydration falls back to the local
	// snapshot instead of the backend.
	require.NoError(t, f.keys.Delete(context.Background(), "authToken"))
	f.events.Publish(bus.EventLoggedOut, nil)

	st, degraded := f.coordinator.State()
	assert.Equal(t, Hydrated, st)
	assert.False(t, degraded)
}

func TestConcurrentQuantityUpdatesConverge(t *testing.T) {
	mux := backendMux()
	mux.HandleFunc("POST /api/inventory/{id}/update-quantity", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Quantity int `json:"quantity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprintf(w, `{"status":"success","data":{"item":{"_id":%q,"name":"Arroz","quantity":%d}}}`,
			r.PathValue("id"), body.Quantity)
	})

	f := newFixture(t, mux, true)
	require.NoError(t, f.coordinator.Start(context.Background()))

	var wg sync.WaitGroup
	for _, quantity := range []int{5, 9} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coordinator.SetInventoryQuantity(context.Background(), "inv-1", quantity)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Last response wins; either value is a valid outcome.
	snap := f.store.Snapshot()
	got := snap.Inventory[0].Quantity
	assert.Contains(t, []int{5, 9}, got)
}
