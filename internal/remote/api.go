package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"restomanager/client/internal/domain"
)

// --- Auth ---

func (c *Client) Login(ctx context.Context, email string, password string) (domain.Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var data struct {
		Token string   `json:"token"`
		User  wireUser `json:"user"`
	}
	if err := c.post(ctx, "/auth/login", body, &data); err != nil {
		return domain.Credentials{}, err
	}
	user, err := data.User.normalize()
	if err != nil {
		return domain.Credentials{}, err
	}
	return domain.Credentials{Token: data.Token, User: user}, nil
}

func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (domain.Credentials, error) {
	var data struct {
		Token string   `json:"token"`
		User  wireUser `json:"user"`
	}
	if err := c.post(ctx, "/auth/register", req, &data); err != nil {
		return domain.Credentials{}, err
	}
	user, err := data.User.normalize()
	if err != nil {
		return domain.Credentials{}, err
	}
	return domain.Credentials{Token: data.Token, User: user}, nil
}

func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	var data struct {
		User wireUser `json:"user"`
	}
	if err := c.get(ctx, "/auth/me", nil, &data); err != nil {
		return domain.User{}, err
	}
	return data.User.normalize()
}

func (c *Client) UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.User, error) {
	var data struct {
		User wireUser `json:"user"`
	}
	if err := c.put(ctx, "/auth/update-preferences", prefs, &data); err != nil {
		return domain.User{}, err
	}
	return data.User.normalize()
}

// --- Inventory ---

func (c *Client) Inventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var data struct {
		Items []wireInventoryItem `json:"items"`
	}
	if err := c.get(ctx, "/inventory", nil, &data); err != nil {
		return nil, err
	}
	return normalizeItems(data.Items)
}

func (c *Client) InventoryItem(ctx context.Context, id string) (domain.InventoryItem, error) {
	var data struct {
		Item wireInventoryItem `json:"item"`
	}
	if err := c.get(ctx, "/inventory/"+url.PathEscape(id), nil, &data); err != nil {
		return domain.InventoryItem{}, err
	}
	return data.Item.normalize()
}

func (c *Client) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	var data struct {
		Item *wireInventoryItem `json:"item"`
		wireInventoryItem
	}
	if err := c.post(ctx, "/inventory", item, &data); err != nil {
		return domain.InventoryItem{}, err
	}
	// Some backend versions wrap the record in data.item, others return
	// it at the data level.
	if data.Item != nil {
		return data.Item.normalize()
	}
	return data.wireInventoryItem.normalize()
}

func (c *Client) UpdateInventoryItem(ctx context.Context, id string, item domain.InventoryItem) (domain.InventoryItem, error) {
	var data struct {
		Item wireInventoryItem `json:"item"`
	}
	if err := c.put(ctx, "/inventory/"+url.PathEscape(id), item, &data); err != nil {
		return domain.InventoryItem{}, err
	}
	return data.Item.normalize()
}

func (c *Client) DeleteInventoryItem(ctx context.Context, id string) error {
	return c.delete(ctx, "/inventory/"+url.PathEscape(id))
}

func (c *Client) UpdateInventoryQuantity(ctx context.Context, id string, quantity int, operation string) (domain.InventoryItem, error) {
	body := map[string]any{"quantity": quantity, "operation": operation}
	var data struct {
		Item wireInventoryItem `json:"item"`
	}
	if err := c.post(ctx, "/inventory/"+url.PathEscape(id)+"/update-quantity", body, &data); err != nil {
		return domain.InventoryItem{}, err
	}
	return data.Item.normalize()
}

func (c *Client) LowStockItems(ctx context.Context) ([]domain.InventoryItem, error) {
	var data struct {
		Items []wireInventoryItem `json:"items"`
	}
	if err := c.get(ctx, "/inventory/low-stock", nil, &data); err != nil {
		return nil, err
	}
	return normalizeItems(data.Items)
}

func (c *Client) InventorySummary(ctx context.Context) (domain.InventorySummary, error) {
	var summary domain.InventorySummary
	if err := c.get(ctx, "/inventory/summary", nil, &summary); err != nil {
		return domain.InventorySummary{}, err
	}
	return summary, nil
}

// --- Orders ---

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var data struct {
		Orders []wireOrder `json:"orders"`
	}
	if err := c.get(ctx, "/orders", nil, &data); err != nil {
		return nil, err
	}
	return normalizeOrders(data.Orders)
}

func (c *Client) Order(ctx context.Context, id string) (domain.Order, error) {
	var data struct {
		Order wireOrder `json:"order"`
	}
	if err := c.get(ctx, "/orders/"+url.PathEscape(id), nil, &data); err != nil {
		return domain.Order{}, err
	}
	return data.Order.normalize()
}

func (c *Client) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	var data struct {
		Order wireOrder `json:"order"`
	}
	if err := c.post(ctx, "/orders", order, &data); err != nil {
		return domain.Order{}, err
	}
	return data.Order.normalize()
}

func (c *Client) UpdateOrder(ctx context.Context, id string, order domain.Order) (domain.Order, error) {
	var data struct {
		Order wireOrder `json:"order"`
	}
	if err := c.put(ctx, "/orders/"+url.PathEscape(id), order, &data); err != nil {
		return domain.Order{}, err
	}
	return data.Order.normalize()
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status string) (domain.Order, error) {
	body := map[string]string{"status": status}
	var data struct {
		Order wireOrder `json:"order"`
	}
	if err := c.put(ctx, "/orders/"+url.PathEscape(id)+"/status", body, &data); err != nil {
		return domain.Order{}, err
	}
	return data.Order.normalize()
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.delete(ctx, "/orders/"+url.PathEscape(id))
}

func (c *Client) DailyOrdersSummary(ctx context.Context, date time.Time) (domain.Stats, error) {
	query := url.Values{}
	if !date.IsZero() {
		query.Set("date", date.Format(time.RFC3339))
	}
	var stats domain.Stats
	if err := c.get(ctx, "/orders/summary/daily", query, &stats); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

// --- Cash close ---

func (c *Client) CashCloses(ctx context.Context) ([]domain.CashClose, error) {
	var data struct {
		CashCloses []wireCashClose `json:"cashCloses"`
	}
	if err := c.get(ctx, "/cash-close", nil, &data); err != nil {
		return nil, err
	}
	closes := make([]domain.CashClose, 0, len(data.CashCloses))
	for _, record := range data.CashCloses {
		cc, err := record.normalize()
		if err != nil {
			return nil, err
		}
		closes = append(closes, cc)
	}
	return closes, nil
}

func (c *Client) CashCloseByID(ctx context.Context, id string) (domain.CashClose, error) {
	var data struct {
		CashClose wireCashClose `json:"cashClose"`
	}
	if err := c.get(ctx, "/cash-close/"+url.PathEscape(id), nil, &data); err != nil {
		return domain.CashClose{}, err
	}
	return data.CashClose.normalize()
}

func (c *Client) CreateCashClose(ctx context.Context, cc domain.CashClose) (domain.CashClose, error) {
	var data struct {
		CashClose wireCashClose `json:"cashClose"`
	}
	if err := c.post(ctx, "/cash-close", cc, &data); err != nil {
		return domain.CashClose{}, err
	}
	return data.CashClose.normalize()
}

func (c *Client) CloseCashClose(ctx context.Context, id string, cc domain.CashClose) (domain.CashClose, error) {
	var data struct {
		CashClose wireCashClose `json:"cashClose"`
	}
	if err := c.put(ctx, "/cash-close/"+url.PathEscape(id)+"/close", cc, &data); err != nil {
		return domain.CashClose{}, err
	}
	return data.CashClose.normalize()
}

func (c *Client) VerifyCashClose(ctx context.Context, id string) (domain.CashClose, error) {
	var data struct {
		CashClose wireCashClose `json:"cashClose"`
	}
	if err := c.put(ctx, "/cash-close/"+url.PathEscape(id)+"/verify", nil, &data); err != nil {
		return domain.CashClose{}, err
	}
	return data.CashClose.normalize()
}

func (c *Client) AddCashCloseExpense(ctx context.Context, id string, expense domain.Expense) (domain.CashClose, error) {
	var data struct {
		CashClose wireCashClose `json:"cashClose"`
	}
	if err := c.post(ctx, "/cash-close/"+url.PathEscape(id)+"/expenses", expense, &data); err != nil {
		return domain.CashClose{}, err
	}
	return data.CashClose.normalize()
}

// CurrentCashClose returns the open reconciliation, or ok=false when
// the backend reports none.
func (c *Client) CurrentCashClose(ctx context.Context) (domain.CashClose, bool, error) {
	var data struct {
		CashClose *wireCashClose `json:"cashClose"`
	}
	if err := c.get(ctx, "/cash-close/current", nil, &data); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return domain.CashClose{}, false, nil
		}
		return domain.CashClose{}, false, err
	}
	if data.CashClose == nil {
		return domain.CashClose{}, false, nil
	}
	cc, err := data.CashClose.normalize()
	if err != nil {
		return domain.CashClose{}, false, err
	}
	return cc, true, nil
}

func (c *Client) DailyCashCloseSummary(ctx context.Context, date time.Time) (domain.CashCloseSummary, error) {
	query := url.Values{}
	if !date.IsZero() {
		query.Set("date", date.Format(time.RFC3339))
	}
	var summary domain.CashCloseSummary
	if err := c.get(ctx, "/cash-close/summary/daily", query, &summary); err != nil {
		return domain.CashCloseSummary{}, err
	}
	return summary, nil
}

// --- Analytics ---

func (c *Client) DashboardAnalytics(ctx context.Context) (domain.DashboardAnalytics, error) {
	var analytics domain.DashboardAnalytics
	if err := c.get(ctx, "/analytics/dashboard", nil, &analytics); err != nil {
		return domain.DashboardAnalytics{}, err
	}
	return analytics, nil
}

func (c *Client) SalesAnalytics(ctx context.Context, start time.Time, end time.Time, groupBy string) (domain.SalesAnalytics, error) {
	query := url.Values{}
	query.Set("startDate", start.Format(time.RFC3339))
	query.Set("endDate", end.Format(time.RFC3339))
	if groupBy == "" {
		groupBy = "day"
	}
	query.Set("groupBy", groupBy)

	var analytics domain.SalesAnalytics
	if err := c.get(ctx, "/analytics/sales", query, &analytics); err != nil {
		return domain.SalesAnalytics{}, err
	}
	return analytics, nil
}

func (c *Client) InventoryAnalytics(ctx context.Context) (domain.InventorySummary, error) {
	var summary domain.InventorySummary
	if err := c.get(ctx, "/analytics/inventory", nil, &summary); err != nil {
		return domain.InventorySummary{}, err
	}
	return summary, nil
}

func (c *Client) OrdersAnalytics(ctx context.Context, start time.Time, end time.Time) (domain.Stats, error) {
	query := url.Values{}
	query.Set("startDate", start.Format(time.RFC3339))
	query.Set("endDate", end.Format(time.RFC3339))

	var stats domain.Stats
	if err := c.get(ctx, "/analytics/orders", query, &stats); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (c *Client) Projections(ctx context.Context, period string) ([]domain.Projection, error) {
	if period == "" {
		period = "week"
	}
	query := url.Values{}
	query.Set("period", period)

	var data struct {
		Projections []domain.Projection `json:"projections"`
	}
	if err := c.get(ctx, "/analytics/projections", query, &data); err != nil {
		return nil, err
	}
	return data.Projections, nil
}

// --- Users ---

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var data struct {
		Users []wireUser `json:"users"`
	}
	if err := c.get(ctx, "/users", nil, &data); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(data.Users))
	for _, record := range data.Users {
		user, err := record.normalize()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (c *Client) User(ctx context.Context, id string) (domain.User, error) {
	var data struct {
		User wireUser `json:"user"`
	}
	if err := c.get(ctx, "/users/"+url.PathEscape(id), nil, &data); err != nil {
		return domain.User{}, err
	}
	return data.User.normalize()
}

func (c *Client) CreateUser(ctx context.Context, req domain.NewUserRequest) (domain.User, error) {
	var data struct {
		User wireUser `json:"user"`
	}
	if err := c.post(ctx, "/users", req, &data); err != nil {
		return domain.User{}, err
	}
	return data.User.normalize()
}

func (c *Client) UpdateUser(ctx context.Context, id string, user domain.User) (domain.User, error) {
	var data struct {
		User wireUser `json:"user"`
	}
	if err := c.put(ctx, "/users/"+url.PathEscape(id), user, &data); err != nil {
		return domain.User{}, err
	}
	return data.User.normalize()
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.delete(ctx, "/users/"+url.PathEscape(id))
}

func (c *Client) ChangePassword(ctx context.Context, id string, currentPassword string, newPassword string) error {
	body := map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}
	return c.put(ctx, "/users/"+url.PathEscape(id)+"/change-password", body, nil)
}

func (c *Client) ToggleUserStatus(ctx context.Context, id string) (domain.User, error) {
	var data struct {
		User wireUser `json:"user"`
	}
	if err := c.put(ctx, "/users/"+url.PathEscape(id)+"/toggle-status", nil, &data); err != nil {
		return domain.User{}, err
	}
	return data.User.normalize()
}
