package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationLogStatus string

const (
	NotificationLogStatusReceived     NotificationLogStatus = "received"
	NotificationLogStatusHandled      NotificationLogStatus = "handled"
	NotificationLogStatusIgnored      NotificationLogStatus = "ignored"
	NotificationLogStatusHandleFailed NotificationLogStatus = "handle_failed"
)

// NotificationLog records Shopify webhook deliveries, one row per state.
type NotificationLog struct {
	ID        string                `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Topic     string                `gorm:"column:topic;type:varchar(128);not null" json:"topic"`
	Shop      string                `gorm:"column:shop;type:varchar(255);index" json:"shop"`
	WebhookID string                `gorm:"column:webhook_id;type:varchar(128);index" json:"webhook_id"`
	TraceID   string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	Data      datatypes.JSON        `gorm:"column:data" json:"data"`
	Result    *datatypes.JSON       `gorm:"column:result" json:"result"`
	Status    NotificationLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}
