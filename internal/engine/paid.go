package engine

import (
	"errors"
	"time"
)

// Payer identifies who is performing a paid/unpaid toggle.
type Payer string

const (
	PayerMe      Payer = "me"
	PayerPartner Payer = "partner"
	PayerBoth    Payer = "both"
)

var ErrPayerMismatch = errors.New("payer does not match the seed's payment source")

// PaidFlags is a seed's paid state. For joint seeds the two per-side
// flags are independent and Paid is their conjunction; for personal
// seeds all three move together.
type PaidFlags struct {
	Paid        bool
	PaidMe      bool
	PaidPartner bool
}

// ApplyPaid computes the flag set after one partner marks or unmarks a
// seed. It is a pure transition: the input seed is not modified.
//
// Joint seeds track each side separately and only read as fully paid
// once both sides have paid; unmarking either side clears the overall
// flag. Non-joint seeds have a single payer and accept only PayerBoth.
// The order two partners mark a joint seed never matters.
func ApplyPaid(seed Seed, payer Payer, paid bool) (PaidFlags, error) {
	f := seed.Paid
	if seed.Source != SourceJoint {
		if payer != PayerBoth {
			return PaidFlags{}, ErrPayerMismatch
		}
		return PaidFlags{Paid: paid, PaidMe: paid, PaidPartner: paid}, nil
	}
	switch payer {
	case PayerMe:
		f.PaidMe = paid
	case PayerPartner:
		f.PaidPartner = paid
	case PayerBoth:
		f.PaidMe = paid
		f.PaidPartner = paid
	default:
		return PaidFlags{}, ErrPayerMismatch
	}
	f.Paid = f.PaidMe && f.PaidPartner
	return f, nil
}

// EffectivePaid reports whether a seed counts as paid for ritual and
// remaining-budget purposes. A seed whose due date has already passed
// is treated as paid regardless of its stored flags; the stored state
// is never rewritten.
func EffectivePaid(seed Seed, today time.Time) bool {
	if seed.Paid.Paid {
		return true
	}
	if seed.DueDate != nil && DateOnly(*seed.DueDate).Before(DateOnly(today)) {
		return true
	}
	return false
}

// EffectiveFlags is EffectivePaid lifted to the full flag set, used
// when rendering a cycle: an overdue seed shows both sides paid.
func EffectiveFlags(seed Seed, today time.Time) PaidFlags {
	if !seed.Paid.Paid && seed.DueDate != nil && DateOnly(*seed.DueDate).Before(DateOnly(today)) {
		return PaidFlags{Paid: true, PaidMe: true, PaidPartner: true}
	}
	return seed.Paid
}
