package models

import "time"

// DiscountCode grants a fixed number of credits once per shop.
type DiscountCode struct {
	ID             string `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Code           string `gorm:"column:code;type:varchar(64);not null;uniqueIndex" json:"code"`
	CreditsGranted int    `gorm:"column:credits_granted;not null" json:"credits_granted"`
	Active         bool   `gorm:"column:active;not null;default:true" json:"active"`
	// ExpiresAt nil means the code never expires.
	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at"`
	// MaxRedemptions caps redemptions across all shops; 0 is unlimited.
	MaxRedemptions  int       `gorm:"column:max_redemptions;not null;default:0" json:"max_redemptions"`
	RedemptionCount int       `gorm:"column:redemption_count;not null;default:0" json:"redemption_count"`
	Description     string    `gorm:"column:description;type:varchar(255)" json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (DiscountCode) TableName() string {
	return "discount_codes"
}

func (d *DiscountCode) Expired(at time.Time) bool {
	return d.ExpiresAt != nil && !at.Before(*d.ExpiresAt)
}

func (d *DiscountCode) Exhausted() bool {
	return d.MaxRedemptions > 0 && d.RedemptionCount >= d.MaxRedemptions
}

// DiscountCodeRedemption exists at most once per (code, shop). Its presence
// is the only record of "already redeemed".
type DiscountCodeRedemption struct {
	ID             string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	DiscountCodeID string    `gorm:"column:discount_code_id;type:varchar(36);not null;uniqueIndex:ux_redemption_code_shop,priority:1" json:"discount_code_id"`
	Shop           string    `gorm:"column:shop;type:varchar(255);not null;uniqueIndex:ux_redemption_code_shop,priority:2;index" json:"shop"`
	CreditsGranted int       `gorm:"column:credits_granted;not null" json:"credits_granted"`
	CreatedAt      time.Time `json:"created_at"`
}

func (DiscountCodeRedemption) TableName() string {
	return "discount_code_redemptions"
}
