package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSource identifies whose money a seed or income source is.
type PaymentSource string

const (
	SourceMe      PaymentSource = "me"
	SourcePartner PaymentSource = "partner"
	SourceJoint   PaymentSource = "joint"
)

// IncomeSource is the engine's view of a recurring income stream.
type IncomeSource struct {
	Name       string
	Amount     decimal.Decimal
	Rule       Rule
	DayOfMonth int
	Anchor     time.Time
	Source     PaymentSource
	Active     bool
}

// IncomeEvent is one expected payment landing inside a cycle.
type IncomeEvent struct {
	SourceName string          `json:"source_name"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Source     PaymentSource   `json:"source"`
}

// IncomeProjection totals the income expected during one cycle,
// attributed per partner. Joint income is divided by the household's
// joint ratio; Total always equals Me + Partner.
type IncomeProjection struct {
	Total   decimal.Decimal `json:"total"`
	Me      decimal.Decimal `json:"me"`
	Partner decimal.Decimal `json:"partner"`
	Events  []IncomeEvent   `json:"events"`
}

// EventsForCycle resolves each active source to at most one payment
// event inside the boundary. A source whose schedule would fire twice
// in one window (a long cycle against a four-weekly stream) only
// contributes its first occurrence. Events come back ordered by date.
func EventsForCycle(sources []IncomeSource, b Boundary) ([]IncomeEvent, error) {
	var events []IncomeEvent
	for _, s := range sources {
		if !s.Active {
			continue
		}
		cfg := CycleConfig{Rule: s.Rule, PayDay: s.DayOfMonth, Anchor: s.Anchor}
		dates, err := PaymentDatesInRange(b.Start, b.End, cfg)
		if err != nil {
			return nil, err
		}
		if len(dates) == 0 {
			continue
		}
		events = append(events, IncomeEvent{
			SourceName: s.Name,
			Date:       dates[0],
			Amount:     s.Amount,
			Source:     s.Source,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

// ProjectIncome aggregates one cycle's income events into per-partner
// totals. jointRatio is the fraction (0..1) of joint money attributed
// to "me"; the partner side is the exact complement so the projection
// always balances.
func ProjectIncome(sources []IncomeSource, b Boundary, jointRatio decimal.Decimal) (IncomeProjection, error) {
	events, err := EventsForCycle(sources, b)
	if err != nil {
		return IncomeProjection{}, err
	}
	p := IncomeProjection{Events: events}
	for _, e := range events {
		p.Total = p.Total.Add(e.Amount)
		switch e.Source {
		case SourceMe:
			p.Me = p.Me.Add(e.Amount)
		case SourcePartner:
			p.Partner = p.Partner.Add(e.Amount)
		case SourceJoint:
			me := e.Amount.Mul(jointRatio).Round(2)
			p.Me = p.Me.Add(me)
			p.Partner = p.Partner.Add(e.Amount.Sub(me))
		}
	}
	p.Total = p.Total.Round(2)
	p.Me = p.Me.Round(2)
	p.Partner = p.Partner.Round(2)
	return p, nil
}
