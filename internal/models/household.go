package models

import (
	"time"

	"github.com/shopspring/decimal"

	"cadence/internal/engine"
)

// PayCycleType mirrors the calendar rules understood by the engine.
type PayCycleType string

const (
	PayCycleSpecificDate   PayCycleType = "specific_date"
	PayCycleLastWorkingDay PayCycleType = "last_working_day"
	PayCycleEvery4Weeks    PayCycleType = "every_4_weeks"
)

// Household is the budgeting unit: one or two members sharing pay
// cycles, seeds and goals. Category percentages always sum to 100;
// JointRatio is the fraction (0..1) of joint money carried by the
// owner side.
type Household struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	IsCouple bool   `gorm:"default:false" json:"is_couple"`
	Currency string `gorm:"size:3;not null;default:GBP" json:"currency"`

	NeedsPercent   int `gorm:"not null;default:50" json:"needs_percent"`
	WantsPercent   int `gorm:"not null;default:30" json:"wants_percent"`
	SavingsPercent int `gorm:"not null;default:10" json:"savings_percent"`
	RepayPercent   int `gorm:"not null;default:10" json:"repay_percent"`

	JointRatio decimal.Decimal `gorm:"type:numeric(5,4);not null;default:0.5" json:"joint_ratio"`

	PayCycleType   PayCycleType `gorm:"not null;default:specific_date" json:"pay_cycle_type"`
	PayDay         *int         `json:"pay_day,omitempty"`
	PayCycleAnchor *time.Time   `json:"pay_cycle_anchor,omitempty"`
}

// Percentages bundles the category split for the engine.
func (h *Household) Percentages() engine.Percentages {
	return engine.Percentages{
		Needs:   h.NeedsPercent,
		Wants:   h.WantsPercent,
		Savings: h.SavingsPercent,
		Repay:   h.RepayPercent,
	}
}

// CycleConfig bundles the calendar rule for the engine.
func (h *Household) CycleConfig() engine.CycleConfig {
	cfg := engine.CycleConfig{Rule: engine.Rule(h.PayCycleType)}
	if h.PayDay != nil {
		cfg.PayDay = *h.PayDay
	}
	if h.PayCycleAnchor != nil {
		cfg.Anchor = *h.PayCycleAnchor
	}
	return cfg
}
