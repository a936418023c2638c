package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses reported by the remote API.
const (
	OrderPending    = "pending"
	OrderPreparing  = "preparing"
	OrderDelivering = "delivering"
	OrderDelivered  = "delivered"
)

type Order struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID       string          `json:"id"`
	MenuID   string          `json:"menu_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}
