package models

import (
	"time"

	"github.com/fatflowers/shopcredits/pkg/types"
)

// SubscriptionCreditGrant marks that a subscription's billing period has
// already been credited. The unique (subscription, period) pair makes the
// additive grant idempotent under webhook redelivery and poll overlap.
type SubscriptionCreditGrant struct {
	ID                    string        `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ShopifySubscriptionID string        `gorm:"column:shopify_subscription_id;type:varchar(128);not null;uniqueIndex:ux_grant_subscription_period,priority:1" json:"shopify_subscription_id"`
	PeriodKey             string        `gorm:"column:period_key;type:varchar(64);not null;uniqueIndex:ux_grant_subscription_period,priority:2" json:"period_key"`
	Shop                  string        `gorm:"column:shop;type:varchar(255);not null;index" json:"shop"`
	Plan                  types.PlanKey `gorm:"column:plan;type:varchar(32);not null" json:"plan"`
	Credits               int           `gorm:"column:credits;not null" json:"credits"`
	CreatedAt             time.Time     `json:"created_at"`
}

func (SubscriptionCreditGrant) TableName() string {
	return "subscription_credit_grants"
}

// PeriodKey renders a period end in the form stored in the grant ledger.
// Second precision in UTC keeps it stable across drivers.
func PeriodKey(periodEnd time.Time) string {
	return periodEnd.UTC().Truncate(time.Second).Format(time.RFC3339)
}
