package models

import (
	"time"

	"github.com/fatflowers/shopcredits/pkg/types"
)

// User is the per-shop account. Exactly one row exists per shop; the unique
// primary key on Shop is what makes concurrent get-or-create safe.
type User struct {
	Shop                string        `gorm:"column:shop;type:varchar(255);primaryKey" json:"shop"`
	Plan                types.PlanKey `gorm:"column:plan;type:varchar(32);not null;default:free;index" json:"plan"`
	Credits             int           `gorm:"column:credits;not null;default:0" json:"credits"`
	OnboardingCompleted bool          `gorm:"column:onboarding_completed;not null;default:false" json:"onboarding_completed"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
