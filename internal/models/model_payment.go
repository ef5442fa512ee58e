package models

import (
	"time"
)

// PaymentStatus is the lifecycle state of one payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	// PaymentStatusDuplicate is a terminal success alias of APPROVED reported
	// by the gateway when the same reference settles twice.
	PaymentStatusDuplicate PaymentStatus = "DUPLICATE"
)

// IsTerminal reports whether the record can no longer transition.
func (s PaymentStatus) IsTerminal() bool { return s != PaymentStatusPending }

// IsApproved treats DUPLICATE as settled.
func (s PaymentStatus) IsApproved() bool {
	return s == PaymentStatusApproved || s == PaymentStatusDuplicate
}

// Payment is one payment attempt against the gateway.
//
// Reference is the idempotency key for the synchronous return flow; RequestID
// for asynchronous notifications. Status only ever transitions away from
// PENDING, and does so through a single conditional update so that the return
// flow, the notification handler and the sweep cannot double-settle a record.
type Payment struct {
	ID        string        `gorm:"column:id;primary_key;type:uuid" json:"id"`
	Reference string        `gorm:"column:reference;type:varchar(64);not null;uniqueIndex:unique_reference" json:"reference"`
	RequestID int64         `gorm:"column:request_id;type:bigint;not null;default:0;index:idx_request_id" json:"request_id"`
	OrderRef  string        `gorm:"column:order_ref;type:varchar(64);not null;index:idx_order_ref" json:"order_ref"`
	Currency  string        `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	Amount    float64       `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Status    PaymentStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`

	Reason            string `gorm:"column:reason;type:varchar(8)" json:"reason"`
	ReasonDescription string `gorm:"column:reason_description;type:varchar(255)" json:"reason_description"`

	// Settlement metadata, backfilled once the gateway reports a final
	// transaction. Empty until then.
	Bank             string  `gorm:"column:bank;type:varchar(128)" json:"bank"`
	Franchise        string  `gorm:"column:franchise;type:varchar(16)" json:"franchise"`
	FranchiseName    string  `gorm:"column:franchise_name;type:varchar(128)" json:"franchise_name"`
	AuthCode         string  `gorm:"column:authcode;type:varchar(12)" json:"authcode"`
	Receipt          string  `gorm:"column:receipt;type:varchar(16)" json:"receipt"`
	ConversionFactor float64 `gorm:"column:conversion;type:double precision;default:1" json:"conversion"`
	Installments     int     `gorm:"column:installments;type:int;default:0" json:"installments"`
	CardLastDigits   string  `gorm:"column:card_last_digits;type:varchar(4)" json:"card_last_digits"`
	PayerEmail       string  `gorm:"column:payer_email;type:varchar(128)" json:"payer_email"`

	IPAddress string    `gorm:"column:ip_address;type:varchar(45)" json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

// Settlement is the metadata projection of a gateway query result that gets
// written alongside a status transition.
type Settlement struct {
	Reason            string
	ReasonDescription string
	Bank              string
	Franchise         string
	FranchiseName     string
	AuthCode          string
	Receipt           string
	ConversionFactor  float64
	Installments      int
	CardLastDigits    string
	PayerEmail        string
}
