package metrics

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"restomanager/client/internal/domain"
)

// Stock bands. The Spanish labels are what the screens render and the
// backend's analytics use; they are part of the data contract.
const (
	StockLow    = "Bajo"
	StockMedium = "Medio"
	StockHigh   = "Alto"
)

var ErrUnmatchedInventory = errors.New("order references unknown inventory item")

// ComputeStats derives the dashboard statistics from the order
// collection. Nothing is cached; callers pass the live snapshot.
func ComputeStats(orders []domain.Order) domain.Stats {
	stats := domain.Stats{TotalOrders: len(orders)}

	revenue := decimal.Zero
	for _, order := range orders {
		if domain.IsCompleted(order.Status) {
			stats.CompletedOrders++
		}
		revenue = revenue.Add(decimal.NewFromFloat(order.Total))
	}

	stats.TotalRevenue = revenue.InexactFloat64()
	if stats.TotalOrders > 0 {
		avg := revenue.Div(decimal.NewFromInt(int64(stats.TotalOrders)))
		stats.AverageOrderValue = avg.InexactFloat64()
	}
	return stats
}

// StockStatus classifies a quantity against the two configurable
// thresholds: q <= low is Bajo, low < q <= medium is Medio, above is
// Alto.
func StockStatus(quantity int, lowThreshold int, mediumThreshold int) string {
	switch {
	case quantity <= lowThreshold:
		return StockLow
	case quantity <= mediumThreshold:
		return StockMedium
	default:
		return StockHigh
	}
}

// UnmatchedPolicy decides what COGS does with an order line whose
// inventory reference no longer resolves (the item may have been
// deleted after being ordered).
type UnmatchedPolicy int

const (
	// SkipUnmatched drops the line from the total.
	SkipUnmatched UnmatchedPolicy = iota
	// ErrorUnmatched fails the computation.
	ErrorUnmatched
	// FallbackUnmatched prices the line at COGSOptions.FallbackUnitCost.
	FallbackUnmatched
)

type COGSOptions struct {
	Unmatched        UnmatchedPolicy
	FallbackUnitCost decimal.Decimal
}

// COGS sums cost price x quantity over every order line, resolving
// inventory references against the given collection.
func COGS(orders []domain.Order, inventory []domain.InventoryItem, opts COGSOptions) (decimal.Decimal, error) {
	costs := make(map[string]decimal.Decimal, len(inventory))
	for _, item := range inventory {
		costs[item.ID] = decimal.NewFromFloat(item.CostPrice)
	}

	total := decimal.Zero
	for _, order := range orders {
		for _, line := range order.Items {
			unitCost, ok := costs[line.InventoryItem]
			if !ok {
				switch opts.Unmatched {
				case SkipUnmatched:
					continue
				case ErrorUnmatched:
					return decimal.Zero, fmt.Errorf("%w: %s", ErrUnmatchedInventory, line.InventoryItem)
				case FallbackUnmatched:
					unitCost = opts.FallbackUnitCost
				}
			}
			total = total.Add(unitCost.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return total, nil
}
