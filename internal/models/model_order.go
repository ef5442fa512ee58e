package models

import "time"

// OrderState is the storefront-facing outcome of an order. PAID is terminal:
// a reconciliation never regresses an order a human already settled.
type OrderState string

const (
	OrderStateNew             OrderState = "new"
	OrderStateAwaitingPayment OrderState = "awaiting_payment"
	OrderStatePaid            OrderState = "paid"
	OrderStateCanceled        OrderState = "canceled"
	OrderStateErrored         OrderState = "errored"
)

// Order is the minimal projection of a storefront order this service needs:
// enough to drive status side effects and guard their idempotency. The full
// order (lines, shipping, invoicing) lives in the storefront.
type Order struct {
	Ref        string     `gorm:"column:ref;primary_key;type:varchar(64)" json:"ref"`
	CustomerID string     `gorm:"column:customer_id;type:varchar(64);index:idx_order_customer" json:"customer_id"`
	State      OrderState `gorm:"column:state;type:varchar(32);not null" json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Order) TableName() string { return "store_order" }
