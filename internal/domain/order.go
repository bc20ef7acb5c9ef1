package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pendiente"
	OrderStatusConfirmed OrderStatus = "confirmado"
	OrderStatusCancelled OrderStatus = "cancelado"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderLine is the persisted snapshot of a cart line. It carries the product
// name rather than a product reference so catalog changes never reach it.
type OrderLine struct {
	OrderID      string `json:"order_id"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	UnitPrice    Money  `json:"unit_price"`
	Presentation string `json:"presentation"`
}

type Order struct {
	ID              string      `json:"id"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
	CustomerAddress string      `json:"customer_address"`
	CustomerEmail   string      `json:"customer_email,omitempty"`
	Total           Money       `json:"total"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	Lines           []OrderLine `json:"lines"`
}
