package remote

import (
	"encoding/json"
	"fmt"

	"restomanager/client/internal/domain"
)

// The backend is Mongo-shaped: records carry their identity as _id.
// The wire types below alias _id onto the local id field so the rest
// of the client only ever sees one canonical shape.

type wireRestaurant struct {
	domain.Restaurant
	MongoID string `json:"_id"`
}

type wireUser struct {
	domain.User
	MongoID    string          `json:"_id"`
	Restaurant json.RawMessage `json:"restaurant"`
}

func (w wireUser) normalize() (domain.User, error) {
	user := w.User
	if w.MongoID != "" {
		user.ID = w.MongoID
	}
	if user.ID == "" {
		return domain.User{}, fmt.Errorf("%w: user missing id", ErrInvalidServerData)
	}

	// The restaurant reference arrives either populated or as a bare id.
	if len(w.Restaurant) > 0 && string(w.Restaurant) != "null" {
		var ref wireRestaurant
		if err := json.Unmarshal(w.Restaurant, &ref); err == nil {
			if ref.MongoID != "" {
				ref.Restaurant.ID = ref.MongoID
			}
			user.Restaurant = ref.Restaurant
		} else {
			var id string
			if err := json.Unmarshal(w.Restaurant, &id); err == nil {
				user.Restaurant = domain.Restaurant{ID: id}
			}
		}
	}
	return user, nil
}

type wireInventoryItem struct {
	domain.InventoryItem
	MongoID string `json:"_id"`
}

func (w wireInventoryItem) normalize() (domain.InventoryItem, error) {
	item := w.InventoryItem
	if w.MongoID != "" {
		item.ID = w.MongoID
	}
	if item.ID == "" {
		return domain.InventoryItem{}, fmt.Errorf("%w: inventory item missing id", ErrInvalidServerData)
	}
	return item, nil
}

func normalizeItems(records []wireInventoryItem) ([]domain.InventoryItem, error) {
	items := make([]domain.InventoryItem, 0, len(records))
	for _, record := range records {
		item, err := record.normalize()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

type wireOrder struct {
	domain.Order
	MongoID string `json:"_id"`
}

func (w wireOrder) normalize() (domain.Order, error) {
	order := w.Order
	if w.MongoID != "" {
		order.ID = w.MongoID
	}
	if order.ID == "" {
		return domain.Order{}, fmt.Errorf("%w: order missing id", ErrInvalidServerData)
	}
	order.Status = domain.CanonicalStatus(order.Status)
	return order, nil
}

func normalizeOrders(records []wireOrder) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(records))
	for _, record := range records {
		order, err := record.normalize()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

type wireCashClose struct {
	domain.CashClose
	MongoID string `json:"_id"`
}

func (w wireCashClose) normalize() (domain.CashClose, error) {
	cc := w.CashClose
	if w.MongoID != "" {
		cc.ID = w.MongoID
	}
	if cc.ID == "" {
		return domain.CashClose{}, fmt.Errorf("%w: cash close missing id", ErrInvalidServerData)
	}
	return cc, nil
}
