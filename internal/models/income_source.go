package models

import (
	"time"

	"github.com/shopspring/decimal"

	"cadence/internal/engine"
)

// IncomeSource is a recurring income stream. Its schedule uses the
// same rules as pay cycles: a day of month, the last working day, or
// a four-weekly anchor.
type IncomeSource struct {
	Base
	HouseholdID   string          `gorm:"type:uuid;not null;index" json:"household_id"`
	Name          string          `gorm:"not null" json:"name"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	FrequencyRule PayCycleType    `gorm:"not null" json:"frequency_rule"`
	DayOfMonth    *int            `json:"day_of_month,omitempty"`
	AnchorDate    *time.Time      `json:"anchor_date,omitempty"`
	PaymentSource PaymentSource   `gorm:"not null" json:"payment_source"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
}

// Engine converts the row to the engine's value type.
func (s *IncomeSource) Engine() engine.IncomeSource {
	src := engine.IncomeSource{
		Name:   s.Name,
		Amount: s.Amount,
		Rule:   engine.Rule(s.FrequencyRule),
		Source: engine.PaymentSource(s.PaymentSource),
		Active: s.IsActive,
	}
	if s.DayOfMonth != nil {
		src.DayOfMonth = *s.DayOfMonth
	}
	if s.AnchorDate != nil {
		src.Anchor = *s.AnchorDate
	}
	return src
}

// EngineIncomeSources converts a slice of rows for projection.
func EngineIncomeSources(sources []IncomeSource) []engine.IncomeSource {
	out := make([]engine.IncomeSource, len(sources))
	for i := range sources {
		out[i] = sources[i].Engine()
	}
	return out
}
