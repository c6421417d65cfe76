package state

import (
	"time"

	"restomanager/client/internal/domain"
)

// Snapshot is the complete in-memory application state. It is a value
// type: Apply never mutates its input, so two snapshots never share
// mutable structure after a transition touches it.
type Snapshot struct {
	Notifications        bool                   `json:"notifications"`
	DarkMode             bool                   `json:"darkMode"`
	Language             string                 `json:"language"`
	LowStockThreshold    int                    `json:"lowStockThreshold"`
	MediumStockThreshold int                    `json:"mediumStockThreshold"`
	Inventory            []domain.InventoryItem `json:"inventory"`
	Orders               []domain.Order         `json:"orders"`
	CashClose            domain.CashClose       `json:"cashClose"`
	Stats                domain.Stats           `json:"stats"`
	Loading              bool                   `json:"loading"`
	Err                  string                 `json:"error,omitempty"`
}

func Initial(language string, lowStock int, mediumStock int) Snapshot {
	return Snapshot{
		Notifications:        true,
		Language:             language,
		LowStockThreshold:    lowStock,
		MediumStockThreshold: mediumStock,
		CashClose:            domain.CashClose{Status: domain.CashCloseStatusOpen},
	}
}

// Clone returns a snapshot that shares nothing mutable with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Inventory != nil {
		out.Inventory = make([]domain.InventoryItem, len(s.Inventory))
		copy(out.Inventory, s.Inventory)
	}
	if s.Orders != nil {
		out.Orders = make([]domain.Order, len(s.Orders))
		for i, order := range s.Orders {
			out.Orders[i] = cloneOrder(order)
		}
	}
	return out
}

func cloneOrder(order domain.Order) domain.Order {
	if order.Items != nil {
		items := make([]domain.OrderItem, len(order.Items))
		copy(items, order.Items)
		order.Items = items
	}
	return order
}

// Action is one message of the store's transition vocabulary.
type Action interface{ isAction() }

type ToggleNotifications struct{}

type ToggleDarkMode struct{}

type SetLanguage struct{ Language string }

type AddInventoryItem struct{ Item domain.InventoryItem }

// UpdateInventoryItem replaces the stored record with the same ID.
type UpdateInventoryItem struct{ Item domain.InventoryItem }

type DeleteInventoryItem struct{ ID string }

type AddOrder struct{ Order domain.Order }

type UpdateOrderStatus struct {
	ID     string
	Status string
}

type DeleteOrder struct{ ID string }

// UpdateCashCloseDraft edits the operator's draft amounts. Editing a
// draft after a close begins a new reconciliation cycle.
type UpdateCashCloseDraft struct {
	Cash  *string
	Sales *string
}

// ReplaceCashClose installs a server-confirmed reconciliation record.
type ReplaceCashClose struct{ CashClose domain.CashClose }

type SetLoading struct{ Loading bool }

type SetError struct{ Message string }

type ClearError struct{}

type SetLowStockThreshold struct{ Threshold int }

type SetMediumStockThreshold struct{ Threshold int }

// BulkLoad merges a hydration result into the snapshot. Nil fields are
// left untouched.
type BulkLoad struct {
	Inventory   []domain.InventoryItem
	Orders      []domain.Order
	CashClose   *domain.CashClose
	Stats       *domain.Stats
	Preferences *domain.Preferences
}

func (ToggleNotifications) isAction()     {}
func (ToggleDarkMode) isAction()          {}
func (SetLanguage) isAction()             {}
func (AddInventoryItem) isAction()        {}
func (UpdateInventoryItem) isAction()     {}
func (DeleteInventoryItem) isAction()     {}
func (AddOrder) isAction()                {}
func (UpdateOrderStatus) isAction()       {}
func (DeleteOrder) isAction()             {}
func (UpdateCashCloseDraft) isAction()    {}
func (ReplaceCashClose) isAction()        {}
func (SetLoading) isAction()              {}
func (SetError) isAction()                {}
func (ClearError) isAction()              {}
func (SetLowStockThreshold) isAction()    {}
func (SetMediumStockThreshold) isAction() {}
func (BulkLoad) isAction()                {}

// Apply is the reducer: a pure function of (snapshot, action). It
// performs no I/O; callers dispatch after awaiting any side effects.
func Apply(snap Snapshot, action Action) Snapshot {
	switch a := action.(type) {
	case ToggleNotifications:
		snap.Notifications = !snap.Notifications

	case ToggleDarkMode:
		snap.DarkMode = !snap.DarkMode

	case SetLanguage:
		snap.Language = a.Language

	case AddInventoryItem:
		items := make([]domain.InventoryItem, 0, len(snap.Inventory)+1)
		items = append(items, snap.Inventory...)
		snap.Inventory = append(items, a.Item)

	case UpdateInventoryItem:
		items := make([]domain.InventoryItem, len(snap.Inventory))
		copy(items, snap.Inventory)
		for i, item := range items {
			if item.ID == a.Item.ID {
				items[i] = a.Item
			}
		}
		snap.Inventory = items

	case DeleteInventoryItem:
		items := make([]domain.InventoryItem, 0, len(snap.Inventory))
		for _, item := range snap.Inventory {
			if item.ID != a.ID {
				items = append(items, item)
			}
		}
		snap.Inventory = items

	case AddOrder:
		orders := make([]domain.Order, 0, len(snap.Orders)+1)
		orders = append(orders, snap.Orders...)
		snap.Orders = append(orders, cloneOrder(a.Order))

	case UpdateOrderStatus:
		orders := make([]domain.Order, len(snap.Orders))
		copy(orders, snap.Orders)
		for i, order := range orders {
			if order.ID == a.ID {
				order.Status = domain.CanonicalStatus(a.Status)
				orders[i] = order
			}
		}
		snap.Orders = orders

	case DeleteOrder:
		orders := make([]domain.Order, 0, len(snap.Orders))
		for _, order := range snap.Orders {
			if order.ID != a.ID {
				orders = append(orders, order)
			}
		}
		snap.Orders = orders

	case UpdateCashCloseDraft:
		cc := snap.CashClose
		if a.Cash != nil {
			cc.Cash = *a.Cash
		}
		if a.Sales != nil {
			cc.Sales = *a.Sales
		}
		if (a.Cash != nil || a.Sales != nil) && cc.Status == domain.CashCloseStatusClosed {
			// New input starts a new reconciliation cycle.
			cc.Difference = nil
			cc.Status = domain.CashCloseStatusOpen
		}
		snap.CashClose = cc

	case ReplaceCashClose:
		snap.CashClose = a.CashClose

	case SetLoading:
		snap.Loading = a.Loading

	case SetError:
		snap.Err = a.Message

	case ClearError:
		snap.Err = ""

	case SetLowStockThreshold:
		if a.Threshold >= 0 {
			snap.LowStockThreshold = a.Threshold
		}

	case SetMediumStockThreshold:
		if a.Threshold > snap.LowStockThreshold {
			snap.MediumStockThreshold = a.Threshold
		}

	case BulkLoad:
		if a.Inventory != nil {
			items := make([]domain.InventoryItem, len(a.Inventory))
			copy(items, a.Inventory)
			snap.Inventory = items
		}
		if a.Orders != nil {
			orders := make([]domain.Order, len(a.Orders))
			for i, order := range a.Orders {
				orders[i] = cloneOrder(order)
			}
			snap.Orders = orders
		}
		if a.CashClose != nil {
			snap.CashClose = *a.CashClose
		}
		if a.Stats != nil {
			snap.Stats = *a.Stats
		}
		if a.Preferences != nil {
			snap.Notifications = a.Preferences.Notifications
			snap.DarkMode = a.Preferences.DarkMode
			if a.Preferences.Language != "" {
				snap.Language = a.Preferences.Language
			}
			if a.Preferences.LowStockThreshold >= 0 {
				snap.LowStockThreshold = a.Preferences.LowStockThreshold
			}
			if a.Preferences.MediumStockThreshold > snap.LowStockThreshold {
				snap.MediumStockThreshold = a.Preferences.MediumStockThreshold
			}
		}
	}

	return snap
}

// CloseCashDraft closes the draft reconciliation held by the snapshot.
// It is a convenience for callers that close locally before the server
// confirms; the result still enters the store via ReplaceCashClose.
func (s Snapshot) CloseCashDraft(at time.Time) (domain.CashClose, error) {
	return s.CashClose.Close(at)
}
