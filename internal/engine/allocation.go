package engine

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrPercentSum = errors.New("category percentages must sum to 100")

// Percentages is the household's category split of total income.
type Percentages struct {
	Needs   int
	Wants   int
	Savings int
	Repay   int
}

// Validate rejects any set of percentages that does not partition
// income completely.
func (p Percentages) Validate() error {
	for _, v := range []int{p.Needs, p.Wants, p.Savings, p.Repay} {
		if v < 0 || v > 100 {
			return ErrPercentSum
		}
	}
	if p.Needs+p.Wants+p.Savings+p.Repay != 100 {
		return ErrPercentSum
	}
	return nil
}

func (p Percentages) of(t SeedType) int {
	switch t {
	case SeedNeed:
		return p.Needs
	case SeedWant:
		return p.Wants
	case SeedSavings:
		return p.Savings
	case SeedRepay:
		return p.Repay
	}
	return 0
}

// SeedTypes is the fixed category order used across summaries.
var SeedTypes = []SeedType{SeedNeed, SeedWant, SeedSavings, SeedRepay}

// PayerAmounts splits a category figure by who pays it.
type PayerAmounts struct {
	Me      decimal.Decimal `json:"me"`
	Partner decimal.Decimal `json:"partner"`
	Joint   decimal.Decimal `json:"joint"`
}

// CategorySummary is one category's budget position within a cycle.
type CategorySummary struct {
	Target     decimal.Decimal `json:"target"`
	Allocated  decimal.Decimal `json:"allocated"`
	Remaining  decimal.Decimal `json:"remaining"`
	OverBudget bool            `json:"over_budget"`
}

// AllocationSummary is the full budget position of a cycle. It is
// always produced by a complete recompute over the cycle's seeds;
// callers never adjust individual figures in place.
type AllocationSummary struct {
	TotalIncome    decimal.Decimal              `json:"total_income"`
	TotalAllocated decimal.Decimal              `json:"total_allocated"`
	Categories     map[SeedType]CategorySummary `json:"categories"`
	Allocated      map[SeedType]PayerAmounts    `json:"allocated"`
	Remaining      map[SeedType]PayerAmounts    `json:"remaining"`
}

// Allocate recomputes the budget position for one cycle from scratch.
//
// Category targets are income shares rounded to cents, with the
// rounding residue folded into the largest category so the four
// targets always sum to the income exactly. Remaining counts unpaid
// money only: a joint seed contributes each side's unpaid share to the
// joint bucket, so two half-paid joint seeds and one unpaid one read
// the same as their arithmetic suggests.
func Allocate(pcts Percentages, income decimal.Decimal, seeds []Seed) (AllocationSummary, error) {
	if err := pcts.Validate(); err != nil {
		return AllocationSummary{}, err
	}

	s := AllocationSummary{
		TotalIncome: income,
		Categories:  make(map[SeedType]CategorySummary, len(SeedTypes)),
		Allocated:   make(map[SeedType]PayerAmounts, len(SeedTypes)),
		Remaining:   make(map[SeedType]PayerAmounts, len(SeedTypes)),
	}

	targets := make(map[SeedType]decimal.Decimal, len(SeedTypes))
	assigned := decimal.Zero
	largest := SeedTypes[0]
	for _, t := range SeedTypes {
		tgt := income.Mul(decimal.NewFromInt(int64(pcts.of(t)))).Div(oneHundred).Round(2)
		targets[t] = tgt
		assigned = assigned.Add(tgt)
		if pcts.of(t) > pcts.of(largest) {
			largest = t
		}
	}
	if residue := income.Sub(assigned); !residue.IsZero() {
		targets[largest] = targets[largest].Add(residue)
	}

	for _, seed := range seeds {
		alloc := s.Allocated[seed.Type]
		rem := s.Remaining[seed.Type]
		switch seed.Source {
		case SourceMe:
			alloc.Me = alloc.Me.Add(seed.Amount)
			if !seed.Paid.Paid {
				rem.Me = rem.Me.Add(seed.Amount)
			}
		case SourcePartner:
			alloc.Partner = alloc.Partner.Add(seed.Amount)
			if !seed.Paid.Paid {
				rem.Partner = rem.Partner.Add(seed.Amount)
			}
		case SourceJoint:
			alloc.Joint = alloc.Joint.Add(seed.Amount)
			if !seed.Paid.PaidMe {
				rem.Joint = rem.Joint.Add(seed.AmountMe)
			}
			if !seed.Paid.PaidPartner {
				rem.Joint = rem.Joint.Add(seed.AmountPartner)
			}
		}
		s.Allocated[seed.Type] = alloc
		s.Remaining[seed.Type] = rem
	}

	for _, t := range SeedTypes {
		alloc := s.Allocated[t]
		rem := s.Remaining[t]
		totalAlloc := alloc.Me.Add(alloc.Partner).Add(alloc.Joint)
		s.TotalAllocated = s.TotalAllocated.Add(totalAlloc)
		s.Categories[t] = CategorySummary{
			Target:     targets[t],
			Allocated:  totalAlloc,
			Remaining:  rem.Me.Add(rem.Partner).Add(rem.Joint),
			OverBudget: totalAlloc.GreaterThan(targets[t]),
		}
	}
	return s, nil
}
