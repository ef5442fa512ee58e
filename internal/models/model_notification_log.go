package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationLogStatus string

const (
	NotificationLogStatusReceived     NotificationLogStatus = "received"
	NotificationLogStatusHandled      NotificationLogStatus = "handled"
	NotificationLogStatusHandleFailed NotificationLogStatus = "handle_failed"
	// NotificationLogStatusRejected marks a payload whose signature did not
	// verify — kept separate so security rejections are auditable.
	NotificationLogStatusRejected NotificationLogStatus = "rejected"
)

// NotificationLog is the audit trail of inbound gateway notifications. Every
// payload leaves a row, valid or not.
type NotificationLog struct {
	ID        string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TraceID   string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	RequestID int64                 `gorm:"column:request_id;type:bigint;index:idx_notification_request" json:"request_id"`
	Reference string                `gorm:"column:reference;type:varchar(64)" json:"reference"`
	Data      datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Result    *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status    NotificationLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (NotificationLog) TableName() string { return "payment_notification_log" }
