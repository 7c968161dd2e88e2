package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PotStatus tracks a savings goal's lifecycle.
type PotStatus string

const (
	PotActive   PotStatus = "active"
	PotComplete PotStatus = "complete"
	PotPaused   PotStatus = "paused"
)

// Pot is a savings goal. CurrentAmount grows when linked savings
// seeds are marked paid.
type Pot struct {
	Base
	HouseholdID   string          `gorm:"type:uuid;not null;index" json:"household_id"`
	Name          string          `gorm:"not null" json:"name"`
	CurrentAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"current_amount"`
	TargetAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"target_amount"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	Status        PotStatus       `gorm:"not null;default:active" json:"status"`
}
