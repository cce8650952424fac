package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/shopcredits/pkg/types"
)

// CreditLog records every change to a user's plan or balance.
// Use case: support questions and billing discrepancy investigations.
type CreditLog struct {
	ID     string                   `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Shop   string                   `gorm:"column:shop;type:varchar(255);not null;index:idx_credit_log_shop_created,priority:1" json:"shop"`
	Reason types.CreditChangeReason `gorm:"column:reason;type:varchar(64);not null" json:"reason"`
	Source types.ReconcileSource    `gorm:"column:source;type:varchar(32);not null" json:"source"`
	// Delta is the balance change; 0 for plan-only changes.
	Delta int `gorm:"column:delta;not null;default:0" json:"delta"`
	// Ref points at the object that caused the change (subscription id,
	// discount code id).
	Ref       string                    `gorm:"column:ref;type:varchar(128)" json:"ref"`
	Before    datatypes.JSONType[*User] `gorm:"column:before" json:"before"`
	After     datatypes.JSONType[*User] `gorm:"column:after" json:"after"`
	CreatedAt time.Time                 `gorm:"index:idx_credit_log_shop_created,priority:2" json:"created_at"`
}

func (CreditLog) TableName() string {
	return "credit_logs"
}
