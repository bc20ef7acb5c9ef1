package domain

import "time"

// EventOrderPlaced is the event type of OrderPlacedEvent on the wire.
const EventOrderPlaced = "order.placed"

// OrderPlacedEvent carries the messaging handoff for a completed checkout.
// Publishing it does not mean anything was delivered.
type OrderPlacedEvent struct {
	OrderID   string    `json:"order_id"`
	Reference string    `json:"reference"`
	Phone     string    `json:"phone"`
	Link      string    `json:"link"`
	Message   string    `json:"message"`
	Total     Money     `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}
