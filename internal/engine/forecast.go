package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxProjectionCycles bounds every projection series. Goals further
// out than this are still answered by the cycle-count helpers; only
// the point-by-point series is truncated.
const MaxProjectionCycles = 60

// maxClearCycles is a hard stop for repayment simulations that
// technically converge but only over absurd horizons.
const maxClearCycles = 1200

// ProjectionPoint is one cycle-end balance in a forecast series.
type ProjectionPoint struct {
	CycleIndex int             `json:"cycle_index"`
	Date       time.Time       `json:"date"`
	Balance    decimal.Decimal `json:"balance"`
}

func cyclesPerYear(rule Rule) int64 {
	if rule == RuleEvery4Weeks {
		return 13
	}
	return 12
}

func effectiveStart(cycleStart, now time.Time) time.Time {
	cycleStart, now = DateOnly(cycleStart), DateOnly(now)
	if now.After(cycleStart) {
		return now
	}
	return cycleStart
}

// SuggestedAmount returns the per-cycle contribution needed to grow
// current to target by targetDate, starting from the current cycle
// (or today, whichever is later). The second return is false when no
// suggestion applies: the target is already met, or the target date
// leaves no future cycle to save in. Amounts round up to the cent so
// following the suggestion never undershoots.
func SuggestedAmount(current, target decimal.Decimal, cycleStart, targetDate time.Time, cfg CycleConfig, now time.Time) (decimal.Decimal, bool, error) {
	remaining := target.Sub(current)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, nil
	}
	n, err := CyclesBetween(effectiveStart(cycleStart, now), targetDate, cfg)
	if err != nil {
		return decimal.Zero, false, err
	}
	if n == 0 {
		return decimal.Zero, false, nil
	}
	return remaining.Div(decimal.NewFromInt(int64(n))).RoundUp(2), true, nil
}

// SuggestedPayoff is SuggestedAmount for a debt: the target is a zero
// balance. Interest is deliberately ignored here; the suggestion is a
// floor, and CyclesToClear reports the true horizon.
func SuggestedPayoff(balance decimal.Decimal, cycleStart, targetDate time.Time, cfg CycleConfig, now time.Time) (decimal.Decimal, bool, error) {
	return SuggestedAmount(decimal.Zero, balance, cycleStart, targetDate, cfg, now)
}

// CyclesToGoal counts the contributions needed to reach target from
// current at perCycle each cycle. ok is false when perCycle is not a
// positive amount.
func CyclesToGoal(current, target, perCycle decimal.Decimal) (int, bool) {
	if perCycle.LessThanOrEqual(decimal.Zero) {
		return 0, false
	}
	remaining := target.Sub(current)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return 0, true
	}
	return int(remaining.Div(perCycle).RoundUp(0).IntPart()), true
}

// CyclesToClear counts the payments needed to bring a balance to zero
// when interest accrues each cycle before the payment lands.
// annualRate is a percentage (e.g. 19.9); a nil or zero rate reduces
// to straight division. ok is false when the payment can never outrun
// the interest, detected up front rather than looped forever.
func CyclesToClear(balance, perCycle decimal.Decimal, annualRate *decimal.Decimal, rule Rule) (int, bool) {
	if perCycle.LessThanOrEqual(decimal.Zero) {
		return 0, false
	}
	if balance.LessThanOrEqual(decimal.Zero) {
		return 0, true
	}
	if annualRate == nil || annualRate.IsZero() {
		return int(balance.Div(perCycle).RoundUp(0).IntPart()), true
	}
	periodic := annualRate.Div(oneHundred).Div(decimal.NewFromInt(cyclesPerYear(rule)))
	// Interest only shrinks as the balance does, so if the first
	// payment covers the first accrual the loop terminates.
	if perCycle.LessThanOrEqual(balance.Mul(periodic)) {
		return 0, false
	}
	n := 0
	for balance.GreaterThan(decimal.Zero) {
		if n >= maxClearCycles {
			return 0, false
		}
		balance = balance.Add(balance.Mul(periodic)).Sub(perCycle).Round(2)
		n++
	}
	return n, true
}

// ProjectSavings produces the cycle-end balance series for a savings
// goal, one point per contribution, stopping at the target or at
// MaxProjectionCycles.
func ProjectSavings(current, target, perCycle decimal.Decimal, cycleStart time.Time, cfg CycleConfig, now time.Time) ([]ProjectionPoint, error) {
	if perCycle.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}
	b, err := BoundaryContaining(effectiveStart(cycleStart, now), cfg)
	if err != nil {
		return nil, err
	}
	var points []ProjectionPoint
	balance := current
	for i := 1; i <= MaxProjectionCycles; i++ {
		balance = balance.Add(perCycle).Round(2)
		points = append(points, ProjectionPoint{CycleIndex: i, Date: b.End, Balance: balance})
		if balance.GreaterThanOrEqual(target) {
			break
		}
		if b, err = NextBoundary(b, cfg); err != nil {
			return nil, err
		}
	}
	return points, nil
}

// ProjectRepayment produces the cycle-end balance series for a debt,
// accruing interest before each payment and clamping the final
// payment at zero.
func ProjectRepayment(balance, perCycle decimal.Decimal, annualRate *decimal.Decimal, cycleStart time.Time, cfg CycleConfig, now time.Time) ([]ProjectionPoint, error) {
	if perCycle.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}
	b, err := BoundaryContaining(effectiveStart(cycleStart, now), cfg)
	if err != nil {
		return nil, err
	}
	periodic := decimal.Zero
	if annualRate != nil && !annualRate.IsZero() {
		periodic = annualRate.Div(oneHundred).Div(decimal.NewFromInt(cyclesPerYear(cfg.Rule)))
	}
	var points []ProjectionPoint
	for i := 1; i <= MaxProjectionCycles; i++ {
		balance = balance.Add(balance.Mul(periodic)).Sub(perCycle).Round(2)
		if balance.LessThan(decimal.Zero) {
			balance = decimal.Zero
		}
		points = append(points, ProjectionPoint{CycleIndex: i, Date: b.End, Balance: balance})
		if balance.IsZero() {
			break
		}
		if b, err = NextBoundary(b, cfg); err != nil {
			return nil, err
		}
	}
	return points, nil
}

// GoalDate resolves "n more cycles" to a calendar date: the end of the
// nth cycle counted from the current one.
func GoalDate(cycleStart time.Time, n int, cfg CycleConfig, now time.Time) (time.Time, error) {
	b, err := BoundaryContaining(effectiveStart(cycleStart, now), cfg)
	if err != nil {
		return time.Time{}, err
	}
	if n > 1 {
		if b, err = Advance(b, n-1, cfg); err != nil {
			return time.Time{}, err
		}
	}
	return b.End, nil
}
