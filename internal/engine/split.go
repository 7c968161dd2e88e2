package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeedType is the budget category of a line item.
type SeedType string

const (
	SeedNeed    SeedType = "need"
	SeedWant    SeedType = "want"
	SeedSavings SeedType = "savings"
	SeedRepay   SeedType = "repay"
)

// Seed is the engine's view of a budget line item. AmountMe and
// AmountPartner are derived from Amount by Split and always sum to it.
type Seed struct {
	ID               string
	Name             string
	Type             SeedType
	Amount           decimal.Decimal
	Source           PaymentSource
	UsesJointAccount bool
	AmountMe         decimal.Decimal
	AmountPartner    decimal.Decimal
	Paid             PaidFlags
	DueDate          *time.Time
}

var oneHundred = decimal.NewFromInt(100)

// Split divides a seed amount between the partners. Personal seeds
// belong wholly to their payer. Joint seeds use ratioPercent (0..100)
// when given, otherwise the household's joint ratio; the partner share
// is computed by subtraction so the two shares reconstruct the amount
// exactly regardless of rounding.
func Split(amount decimal.Decimal, source PaymentSource, ratioPercent *decimal.Decimal, jointRatio decimal.Decimal) (me, partner decimal.Decimal) {
	switch source {
	case SourceMe:
		return amount, decimal.Zero
	case SourcePartner:
		return decimal.Zero, amount
	}
	pct := jointRatio.Mul(oneHundred)
	if ratioPercent != nil {
		pct = *ratioPercent
	}
	me = amount.Mul(pct).Div(oneHundred).Round(2)
	return me, amount.Sub(me)
}

// TransferBucket classifies where a seed's money has to move during
// the payday ritual.
type TransferBucket string

const (
	BucketJointTransfer   TransferBucket = "joint_transfer"
	BucketSetAsideMe      TransferBucket = "set_aside_me"
	BucketSetAsidePartner TransferBucket = "set_aside_partner"
)

// TransferSummary is the ritual checklist: how much each partner moves
// to the joint account and how much each keeps aside personally.
type TransferSummary struct {
	JointTotal      decimal.Decimal `json:"joint_total"`
	JointMe         decimal.Decimal `json:"joint_me"`
	JointPartner    decimal.Decimal `json:"joint_partner"`
	SetAsideMe      decimal.Decimal `json:"set_aside_me"`
	SetAsidePartner decimal.Decimal `json:"set_aside_partner"`
}

// SummarizeTransfers buckets every seed exactly once. Joint seeds paid
// from the joint account need a transfer in (per-partner shares);
// everything else is set aside on the side that owns the share.
func SummarizeTransfers(seeds []Seed) TransferSummary {
	var s TransferSummary
	for _, seed := range seeds {
		switch {
		case seed.Source == SourceJoint && seed.UsesJointAccount:
			s.JointTotal = s.JointTotal.Add(seed.Amount)
			s.JointMe = s.JointMe.Add(seed.AmountMe)
			s.JointPartner = s.JointPartner.Add(seed.AmountPartner)
		case seed.Source == SourceJoint:
			s.SetAsideMe = s.SetAsideMe.Add(seed.AmountMe)
			s.SetAsidePartner = s.SetAsidePartner.Add(seed.AmountPartner)
		case seed.Source == SourceMe:
			s.SetAsideMe = s.SetAsideMe.Add(seed.Amount)
		case seed.Source == SourcePartner:
			s.SetAsidePartner = s.SetAsidePartner.Add(seed.Amount)
		}
	}
	return s
}
