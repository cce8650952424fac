package models

import (
	"time"

	"github.com/fatflowers/shopcredits/pkg/types"
)

// Subscription mirrors one Shopify AppSubscription, keyed by the remote id.
// Rows are only ever upserted in place.
type Subscription struct {
	ShopifySubscriptionID string                   `gorm:"column:shopify_subscription_id;type:varchar(128);primaryKey" json:"shopify_subscription_id"`
	Shop                  string                   `gorm:"column:shop;type:varchar(255);not null;index" json:"shop"`
	PlanName              string                   `gorm:"column:plan_name;type:varchar(255);not null" json:"plan_name"`
	Status                types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	CurrentPeriodStart    time.Time                `gorm:"column:current_period_start;not null" json:"current_period_start"`
	CurrentPeriodEnd      time.Time                `gorm:"column:current_period_end;not null" json:"current_period_end"`
	// PeriodSynthesized is true while the period was made up locally because
	// the remote observation carried none.
	PeriodSynthesized bool       `gorm:"column:period_synthesized;not null;default:false" json:"period_synthesized"`
	TrialStart        *time.Time `gorm:"column:trial_start" json:"trial_start"`
	TrialEnd          *time.Time `gorm:"column:trial_end" json:"trial_end"`
	IsTest            bool       `gorm:"column:is_test;not null;default:false" json:"is_test"`
	CancelledAt       *time.Time `gorm:"column:cancelled_at" json:"cancelled_at"`
	// RemoteUpdatedAt is Shopify's updated_at of the last applied observation.
	RemoteUpdatedAt *time.Time `gorm:"column:remote_updated_at" json:"remote_updated_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) IsActive() bool {
	return s != nil && s.Status.IsActive()
}
