package shop

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderDeleted       = "OrderDeleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderPlacedPayload struct {
	OrderID string    `json:"order_id"`
	UserID  string    `json:"user_id"`
	Items   []ItemQty `json:"items"`
	Total   float64   `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"`
}

type OrderDeletedPayload struct {
	OrderID string `json:"order_id"`
}
