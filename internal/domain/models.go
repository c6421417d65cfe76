package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

type Restaurant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Preferences struct {
	Notifications        bool   `json:"notifications"`
	DarkMode             bool   `json:"darkMode"`
	Language             string `json:"language"`
	LowStockThreshold    int    `json:"lowStockThreshold"`
	MediumStockThreshold int    `json:"mediumStockThreshold"`
}

type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	Active      bool        `json:"active"`
	Restaurant  Restaurant  `json:"restaurant"`
	Preferences Preferences `json:"preferences"`
}

type InventoryItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	Unit         string  `json:"unit"`
	CostPrice    float64 `json:"costPrice"`
	SellingPrice float64 `json:"sellingPrice"`
	Category     string  `json:"category"`
	Restaurant   string  `json:"restaurant,omitempty"`
}

type OrderItem struct {
	InventoryItem string  `json:"inventoryItem"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
}

type Order struct {
	ID        string      `json:"id"`
	Customer  string      `json:"customer"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Canonical order-status vocabulary. Older backend versions used
// Spanish labels; CanonicalStatus folds those into this set.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

var legacyStatuses = map[string]string{
	"pendiente":  OrderStatusPending,
	"en proceso": OrderStatusPreparing,
	"entregado":  OrderStatusDelivered,
	"cancelado":  OrderStatusCancelled,
}

// CanonicalStatus maps any known status label, including the legacy
// Spanish set, to the canonical vocabulary. Unknown labels are
// returned lower-cased so callers can still branch on them.
func CanonicalStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if mapped, ok := legacyStatuses[s]; ok {
		return mapped
	}
	return s
}

// IsCompleted reports whether a status counts as a completed order
// for revenue statistics.
func IsCompleted(status string) bool {
	return CanonicalStatus(status) == OrderStatusDelivered
}

const (
	CashCloseStatusOpen   = "open"
	CashCloseStatusClosed = "closed"
)

// CashClose is the end-of-shift till reconciliation. Cash and Sales
// hold the operator's raw numeric input; Difference stays nil until
// the close is performed and is frozen afterwards.
type CashClose struct {
	ID         string           `json:"id,omitempty"`
	Cash       string           `json:"cash"`
	Sales      string           `json:"sales"`
	Difference *decimal.Decimal `json:"difference,omitempty"`
	LastClose  *time.Time       `json:"lastClose,omitempty"`
	Status     string           `json:"status,omitempty"`
}

// Close computes difference = cash - sales and freezes it. Closing an
// already-closed reconciliation is a no-op; the frozen difference only
// resets when a new draft begins a new cycle.
func (c CashClose) Close(at time.Time) (CashClose, error) {
	if c.Status == CashCloseStatusClosed && c.Difference != nil {
		return c, nil
	}

	cash, err := parseAmount(c.Cash)
	if err != nil {
		return c, err
	}
	sales, err := parseAmount(c.Sales)
	if err != nil {
		return c, err
	}

	diff := cash.Sub(sales)
	c.Difference = &diff
	c.LastClose = &at
	c.Status = CashCloseStatusClosed
	return c, nil
}

// parseAmount reads an operator-entered amount. An empty draft counts
// as zero, matching how the till screen treats untouched fields.
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// Stats are derived from the in-memory order collection and never
// persisted independently.
type Stats struct {
	TotalOrders       int     `json:"totalOrders"`
	CompletedOrders   int     `json:"completedOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

type InventorySummary struct {
	TotalItems    int     `json:"totalItems"`
	TotalValue    float64 `json:"totalValue"`
	LowStockItems int     `json:"lowStockItems"`
}

type DashboardAnalytics struct {
	Orders    Stats            `json:"orders"`
	Inventory InventorySummary `json:"inventory"`
}

type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type RegisterRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RestaurantName string `json:"restaurantName"`
}

type NewUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type Expense struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type CashCloseSummary struct {
	TotalCash       float64 `json:"totalCash"`
	TotalSales      float64 `json:"totalSales"`
	TotalDifference float64 `json:"totalDifference"`
	Closes          int     `json:"closes"`
}

type SalesPoint struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

type SalesAnalytics struct {
	GroupBy string       `json:"groupBy"`
	Points  []SalesPoint `json:"points"`
}

type Projection struct {
	Period         string  `json:"period"`
	ExpectedSales  float64 `json:"expectedSales"`
	ExpectedOrders int     `json:"expectedOrders"`
}
