package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"restomanager/client/internal/bus"
	"restomanager/client/internal/domain"
	"restomanager/client/internal/persist"
	"restomanager/client/internal/remote"
	"restomanager/client/internal/session"
	"restomanager/client/internal/state"
)

// State of the hydration machine.
type State int

const (
	Unauthenticated State = iota
	Hydrating
	Hydrated
)

func (s State) String() string {
	switch s {
	case Hydrating:
		return "hydrating"
	case Hydrated:
		return "hydrated"
	default:
		return "unauthenticated"
	}
}

const persistTimeout = 5 * time.Second

// Coordinator decides where the store hydrates from and funnels every
// mutation through a confirm-then-apply protocol: the backend call is
// awaited first and the store only ever receives server-confirmed
// records. Failed calls leave the store untouched and surface to the
// caller.
type Coordinator struct {
	store     *state.Store
	client    *remote.Client
	snapshots persist.Snapshots
	session   *session.Manager
	log       *logrus.Entry

	mu       sync.Mutex
	st       State
	degraded bool

	unsubscribe func()
}

func New(store *state.Store, client *remote.Client, snapshots persist.Snapshots, sess *session.Manager) *Coordinator {
	c := &Coordinator{
		store:     store,
		client:    client,
		snapshots: snapshots,
		session:   sess,
		log:       logrus.WithField("component", "sync"),
	}

	// Crash resilience: every transition schedules a best-effort write
	// of the last known-good snapshot.
	c.unsubscribe = store.Subscribe(func(snap state.Snapshot) {
		go c.persistSnapshot(snap)
	})
	return c
}

// Close detaches the coordinator from the store.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// BindBus re-runs hydration whenever the auth flow announces a change.
// The returned function cancels both subscriptions.
func (c *Coordinator) BindBus(events *bus.Bus) func() {
	rehydrate := func(any) {
		if err := c.Hydrate(context.Background()); err != nil {
			c.log.WithError(err).Error("re-hydration after auth change failed")
		}
	}
	cancelIn := events.Subscribe(bus.EventAuthenticated, rehydrate)
	cancelOut := events.Subscribe(bus.EventLoggedOut, rehydrate)
	return func() {
		cancelIn()
		cancelOut()
	}
}

// State returns the machine state and whether the last hydration fell
// back to the persisted snapshot.
func (c *Coordinator) State() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st, c.degraded
}

func (c *Coordinator) setState(st State, degraded bool) {
	c.mu.Lock()
	c.st = st
	c.degraded = degraded
	c.mu.Unlock()
}

// Start hydrates the store on app start.
func (c *Coordinator) Start(ctx context.Context) error {
	return c.Hydrate(ctx)
}

// Hydrate populates the store from the backend when a valid session
// exists, and from the persisted snapshot otherwise. A failing remote
// fetch degrades to the persisted snapshot instead of failing startup.
func (c *Coordinator) Hydrate(ctx context.Context) error {
	c.setState(Unauthenticated, false)

	if !c.session.HasValidSession(ctx) {
		c.log.Info("no session, hydrating from local snapshot")
		c.loadLocal(ctx)
		c.setState(Hydrated, false)
		return nil
	}

	c.setState(Hydrating, false)

	var (
		items     []domain.InventoryItem
		orders    []domain.Order
		current   domain.CashClose
		hasCC     bool
		analytics domain.DashboardAnalytics
		user      domain.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = c.client.Inventory(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = c.client.Orders(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		current, hasCC, err = c.client.CurrentCashClose(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		analytics, err = c.client.DashboardAnalytics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = c.client.CurrentUser(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		c.log.WithError(err).Warn("remote hydration failed, falling back to persisted snapshot")
		c.loadLocal(ctx)
		c.setState(Hydrated, true)
		return nil
	}

	load := state.BulkLoad{
		Inventory:   items,
		Orders:      orders,
		Stats:       &analytics.Orders,
		Preferences: &user.Preferences,
	}
	if hasCC {
		load.CashClose = &current
	} else {
		load.CashClose = &domain.CashClose{Status: domain.CashCloseStatusOpen}
	}

	c.store.Dispatch(load)
	c.setState(Hydrated, false)
	c.log.WithFields(logrus.Fields{
		"inventory": len(items),
		"orders":    len(orders),
	}).Info("hydrated from backend")
	return nil
}

func (c *Coordinator) loadLocal(ctx context.Context) {
	snap, ok, err := c.snapshots.Load(ctx)
	if err != nil {
		c.log.WithError(err).Warn("persisted snapshot unreadable")
		return
	}
	if !ok {
		return
	}

	prefs := domain.Preferences{
		Notifications:        snap.Notifications,
		DarkMode:             snap.DarkMode,
		Language:             snap.Language,
		LowStockThreshold:    snap.LowStockThreshold,
		MediumStockThreshold: snap.MediumStockThreshold,
	}
	c.store.Dispatch(state.BulkLoad{
		Inventory:   snap.Inventory,
		Orders:      snap.Orders,
		CashClose:   &snap.CashClose,
		Stats:       &snap.Stats,
		Preferences: &prefs,
	})
}

// persistSnapshot is fire-and-forget by design: persistence is a
// best-effort cache, never a source of truth.
func (c *Coordinator) persistSnapshot(snap state.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.snapshots.Save(ctx, snap); err != nil {
		c.log.WithError(err).Warn("snapshot save failed")
	}
}

// --- Inventory mutations ---

func (c *Coordinator) AddInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	created, err := c.client.CreateInventoryItem(ctx, item)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	c.store.Dispatch(state.AddInventoryItem{Item: created})
	return created, nil
}

func (c *Coordinator) UpdateInventoryItem(ctx context.Context, id string, item domain.InventoryItem) (domain.InventoryItem, error) {
	updated, err := c.client.UpdateInventoryItem(ctx, id, item)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	c.store.Dispatch(state.UpdateInventoryItem{Item: updated})
	return updated, nil
}

func (c *Coordinator) DeleteInventoryItem(ctx context.Context, id string) error {
	if err := c.client.DeleteInventoryItem(ctx, id); err != nil {
		return err
	}
	c.store.Dispatch(state.DeleteInventoryItem{ID: id})
	return nil
}

// SetInventoryQuantity sets the absolute stock quantity. Concurrent
// calls for the same item race at the transport level and the store
// reflects whichever response lands last; there is no de-duplication
// or version check.
func (c *Coordinator) SetInventoryQuantity(ctx context.Context, id string, quantity int) (domain.InventoryItem, error) {
	updated, err := c.client.UpdateInventoryQuantity(ctx, id, quantity, "set")
	if err != nil {
		return domain.InventoryItem{}, err
	}
	c.store.Dispatch(state.UpdateInventoryItem{Item: updated})
	return updated, nil
}

// --- Order mutations ---

func (c *Coordinator) PlaceOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	created, err := c.client.CreateOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	c.store.Dispatch(state.AddOrder{Order: created})
	return created, nil
}

func (c *Coordinator) UpdateOrderStatus(ctx context.Context, id string, status string) (domain.Order, error) {
	updated, err := c.client.UpdateOrderStatus(ctx, id, domain.CanonicalStatus(status))
	if err != nil {
		return domain.Order{}, err
	}
	c.store.Dispatch(state.UpdateOrderStatus{ID: id, Status: updated.Status})
	return updated, nil
}

func (c *Coordinator) DeleteOrder(ctx context.Context, id string) error {
	if err := c.client.DeleteOrder(ctx, id); err != nil {
		return err
	}
	c.store.Dispatch(state.DeleteOrder{ID: id})
	return nil
}

// --- Cash close ---

// UpdateCashDraft edits the local draft amounts; drafts never touch
// the backend until the close itself.
func (c *Coordinator) UpdateCashDraft(cash *string, sales *string) state.Snapshot {
	return c.store.Dispatch(state.UpdateCashCloseDraft{Cash: cash, Sales: sales})
}

// CloseCash reconciles the current draft against the backend. The
// draft is validated and closed locally first so an unparseable amount
// never reaches the server; the store receives the server-confirmed
// record.
func (c *Coordinator) CloseCash(ctx context.Context) (domain.CashClose, error) {
	snap := c.store.Snapshot()
	draft := snap.CashClose

	closed, err := draft.Close(time.Now().UTC())
	if err != nil {
		return domain.CashClose{}, err
	}

	if draft.ID == "" {
		created, err := c.client.CreateCashClose(ctx, draft)
		if err != nil {
			return domain.CashClose{}, err
		}
		draft.ID = created.ID
	}

	confirmed, err := c.client.CloseCashClose(ctx, draft.ID, draft)
	if err != nil {
		return domain.CashClose{}, err
	}
	if confirmed.Difference == nil {
		// Older backends echo the record without computing the
		// difference; the local close already did.
		closed.ID = confirmed.ID
		confirmed = closed
	}

	c.store.Dispatch(state.ReplaceCashClose{CashClose: confirmed})
	return confirmed, nil
}

// --- Preferences ---

// SetStockThresholds persists the thresholds as user preferences and
// then applies them locally.
func (c *Coordinator) SetStockThresholds(ctx context.Context, low int, medium int) error {
	snap := c.store.Snapshot()
	prefs := domain.Preferences{
		Notifications:        snap.Notifications,
		DarkMode:             snap.DarkMode,
		Language:             snap.Language,
		LowStockThreshold:    low,
		MediumStockThreshold: medium,
	}

	if _, err := c.session.UpdatePreferences(ctx, prefs); err != nil {
		return err
	}
	c.store.Dispatch(state.SetLowStockThreshold{Threshold: low})
	c.store.Dispatch(state.SetMediumStockThreshold{Threshold: medium})
	return nil
}
