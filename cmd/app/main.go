package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"restomanager/client/internal/bus"
	"restomanager/client/internal/config"
	"restomanager/client/internal/domain"
	"restomanager/client/internal/metrics"
	"restomanager/client/internal/persist"
	"restomanager/client/internal/realtime"
	"restomanager/client/internal/remote"
	"restomanager/client/internal/session"
	"restomanager/client/internal/state"
	"restomanager/client/internal/syncer"
)

func main() {
	cfg := config.Load()
	log := logrus.WithField("component", "app")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	keys, err := persist.NewFileKeyring(cfg.DataDir)
	if err != nil {
		logrus.Fatalf("keyring unavailable: %v", err)
	}

	var snapshots persist.Snapshots
	closers := make([]func() error, 0, 1)
	if cfg.RedisAddr != "" {
		redisSnapshots := persist.NewRedisSnapshots(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisSnapshots.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unavailable, using file snapshots")
		} else {
			snapshots = redisSnapshots
			closers = append(closers, redisSnapshots.Close)
			log.Info("snapshots: redis")
		}
	}
	if snapshots == nil {
		fileSnapshots, err := persist.NewFileSnapshots(cfg.DataDir)
		if err != nil {
			logrus.Fatalf("snapshot storage unavailable: %v", err)
		}
		snapshots = fileSnapshots
		log.Info("snapshots: file")
	}

	events := bus.New()
	var sess *session.Manager
	client := remote.New(cfg.APIBaseURL, cfg.RequestTimeout, remote.TokenFunc(func(ctx context.Context) (string, bool) {
		return sess.Token(ctx)
	}))
	sess = session.NewManager(client, keys, events)

	store := state.NewStore(state.Initial(cfg.Language, cfg.LowStockThreshold, cfg.MediumStockThreshold))
	coordinator := syncer.New(store, client, snapshots, sess)
	defer coordinator.Close()
	unbind := coordinator.BindBus(events)
	defer unbind()

	if err := coordinator.Start(ctx); err != nil {
		logrus.Fatalf("startup hydration failed: %v", err)
	}
	st, degraded := coordinator.State()
	log.WithFields(logrus.Fields{"state": st.String(), "degraded": degraded}).Info("hydration complete")

	printSummary(store.Snapshot())

	var channel *realtime.Channel
	if user, ok := sess.CurrentUser(ctx); ok && user.Restaurant.ID != "" {
		channel = realtime.NewChannel(cfg.SocketURL, user.Restaurant.ID)
		bindChannel(channel, store)
		if err := channel.Connect(ctx); err != nil {
			log.WithError(err).Warn("realtime channel unavailable")
			channel = nil
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if channel != nil {
		channel.Close()
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.WithError(err).Warn("close error")
		}
	}
	log.Info("stopped")
}

// bindChannel folds backend push events into the store so other
// terminals' edits show up without a manual reload.
func bindChannel(channel *realtime.Channel, store *state.Store) {
	channel.OnInventoryUpdated(func(payload json.RawMessage) {
		var item domain.InventoryItem
		if err := json.Unmarshal(payload, &item); err != nil || item.ID == "" {
			return
		}
		store.Dispatch(state.UpdateInventoryItem{Item: item})
	})
	channel.OnOrderUpdated(func(payload json.RawMessage) {
		var update struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(payload, &update); err != nil || update.ID == "" {
			return
		}
		store.Dispatch(state.UpdateOrderStatus{ID: update.ID, Status: update.Status})
	})
	channel.OnCashCloseUpdated(func(payload json.RawMessage) {
		var cc domain.CashClose
		if err := json.Unmarshal(payload, &cc); err != nil || cc.ID == "" {
			return
		}
		store.Dispatch(state.ReplaceCashClose{CashClose: cc})
	})
}

func printSummary(snap state.Snapshot) {
	stats := metrics.ComputeStats(snap.Orders)

	low := 0
	for _, item := range snap.Inventory {
		if metrics.StockStatus(item.Quantity, snap.LowStockThreshold, snap.MediumStockThreshold) == metrics.StockLow {
			low++
		}
	}

	logrus.WithFields(logrus.Fields{
		"inventory":     len(snap.Inventory),
		"lowStock":      low,
		"orders":        stats.TotalOrders,
		"completed":     stats.CompletedOrders,
		"revenue":       stats.TotalRevenue,
		"avgOrderValue": stats.AverageOrderValue,
	}).Info("dashboard")
}
