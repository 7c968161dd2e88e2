package models

import (
	"time"

	"github.com/shopspring/decimal"

	"cadence/internal/engine"
)

// SeedType is the budget category of a line item.
type SeedType string

const (
	SeedNeed    SeedType = "need"
	SeedWant    SeedType = "want"
	SeedSavings SeedType = "savings"
	SeedRepay   SeedType = "repay"
)

// PaymentSource identifies whose money pays a seed or earns an income.
type PaymentSource string

const (
	SourceMe      PaymentSource = "me"
	SourcePartner PaymentSource = "partner"
	SourceJoint   PaymentSource = "joint"
)

// Seed is one planned expense, saving or repayment within a pay
// cycle. AmountMe and AmountPartner are derived from Amount by the
// split calculator and always reconstruct it exactly.
type Seed struct {
	Base
	HouseholdID string `gorm:"type:uuid;not null;index" json:"household_id"`
	PayCycleID  string `gorm:"type:uuid;not null;index" json:"paycycle_id"`

	Name   string          `gorm:"not null" json:"name"`
	Type   SeedType        `gorm:"not null" json:"type"`
	Amount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`

	PaymentSource    PaymentSource    `gorm:"not null" json:"payment_source"`
	SplitRatio       *decimal.Decimal `gorm:"type:numeric(5,2)" json:"split_ratio,omitempty"`
	UsesJointAccount bool             `gorm:"default:false" json:"uses_joint_account"`
	AmountMe         decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"amount_me"`
	AmountPartner    decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"amount_partner"`

	IsRecurring bool       `gorm:"default:false" json:"is_recurring"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	IsPaid        bool `gorm:"default:false" json:"is_paid"`
	IsPaidMe      bool `gorm:"default:false" json:"is_paid_me"`
	IsPaidPartner bool `gorm:"default:false" json:"is_paid_partner"`

	// Savings and repay seeds may feed a goal; marking them paid
	// moves the paid share onto the linked balance.
	LinkedPotID       *string `gorm:"type:uuid" json:"linked_pot_id,omitempty"`
	LinkedRepaymentID *string `gorm:"type:uuid" json:"linked_repayment_id,omitempty"`
}

// Engine converts the row to the engine's value type.
func (s *Seed) Engine() engine.Seed {
	return engine.Seed{
		ID:               s.ID,
		Name:             s.Name,
		Type:             engine.SeedType(s.Type),
		Amount:           s.Amount,
		Source:           engine.PaymentSource(s.PaymentSource),
		UsesJointAccount: s.UsesJointAccount,
		AmountMe:         s.AmountMe,
		AmountPartner:    s.AmountPartner,
		Paid:             engine.PaidFlags{Paid: s.IsPaid, PaidMe: s.IsPaidMe, PaidPartner: s.IsPaidPartner},
		DueDate:          s.DueDate,
	}
}

// SetPaid writes a flag set computed by the engine back to the row.
func (s *Seed) SetPaid(f engine.PaidFlags) {
	s.IsPaid = f.Paid
	s.IsPaidMe = f.PaidMe
	s.IsPaidPartner = f.PaidPartner
}

// EngineSeeds converts a slice of rows for a full-cycle computation.
func EngineSeeds(seeds []Seed) []engine.Seed {
	out := make([]engine.Seed, len(seeds))
	for i := range seeds {
		out[i] = seeds[i].Engine()
	}
	return out
}
