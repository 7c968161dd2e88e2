package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepaymentStatus tracks a debt's lifecycle.
type RepaymentStatus string

const (
	RepaymentActive RepaymentStatus = "active"
	RepaymentPaid   RepaymentStatus = "paid"
	RepaymentPaused RepaymentStatus = "paused"
)

// Repayment is a debt being paid down. CurrentBalance shrinks when
// linked repay seeds are marked paid. InterestRate is an annual
// percentage used by the forecast projector.
type Repayment struct {
	Base
	HouseholdID     string           `gorm:"type:uuid;not null;index" json:"household_id"`
	Name            string           `gorm:"not null" json:"name"`
	StartingBalance decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"starting_balance"`
	CurrentBalance  decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"current_balance"`
	TargetDate      *time.Time       `json:"target_date,omitempty"`
	InterestRate    *decimal.Decimal `gorm:"type:numeric(5,2)" json:"interest_rate,omitempty"`
	Status          RepaymentStatus  `gorm:"not null;default:active" json:"status"`
}
