package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cadence/internal/engine"
	apperrors "cadence/internal/errors"
	"cadence/internal/models"
)

// forecastService projects pots and repayments across future cycles.
// Projections anchor on the active cycle's start date so the answer
// matches what the ritual screen shows; with no active cycle they
// anchor on the cycle containing today.
type forecastService struct {
	db *gorm.DB
}

// NewForecastService creates a new ForecastServicer.
func NewForecastService(db *gorm.DB) ForecastServicer {
	return &forecastService{db: db}
}

func (s *forecastService) anchorStart(householdID string, cfg engine.CycleConfig, now time.Time) (time.Time, error) {
	var cycle models.PayCycle
	err := s.db.Where("household_id = ? AND status = ?", householdID, models.CycleActive).First(&cycle).Error
	if err == nil {
		return engine.DateOnly(cycle.StartDate), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	boundary, berr := engine.BoundaryContaining(now, cfg)
	if berr != nil {
		return time.Time{}, apperrors.Wrap(apperrors.ErrInvalidInput, berr)
	}
	return boundary.Start, nil
}

func unreachableResult(perCycle decimal.Decimal) *ForecastResult {
	return &ForecastResult{Reachable: false, PerCycle: perCycle}
}

// PotForecast answers how many cycles a savings goal needs at the
// given contribution. A nil perCycle derives the contribution from
// the pot's target date instead.
func (s *forecastService) PotForecast(householdID, potID string, perCycle *decimal.Decimal, now time.Time) (*ForecastResult, error) {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return nil, err
	}
	cfg := household.CycleConfig()

	var pot models.Pot
	if err := s.db.Where("id = ? AND household_id = ?", potID, householdID).First(&pot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	start, err := s.anchorStart(householdID, cfg, now)
	if err != nil {
		return nil, err
	}

	result := &ForecastResult{}
	contribution := decimal.Zero
	if perCycle != nil {
		contribution = *perCycle
	} else if pot.TargetDate != nil {
		suggested, ok, serr := engine.SuggestedAmount(pot.CurrentAmount, pot.TargetAmount, start, *pot.TargetDate, cfg, now)
		if serr != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, serr)
		}
		if !ok {
			// Already at target, or the date leaves no
			// cycles: nothing per cycle gets there.
			result.Reachable = pot.CurrentAmount.GreaterThanOrEqual(pot.TargetAmount)
			return result, nil
		}
		contribution = suggested
		result.SuggestedAmount = &suggested
	} else {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "pot has no target date; supply a per-cycle amount")
	}
	result.PerCycle = contribution

	cycles, ok := engine.CyclesToGoal(pot.CurrentAmount, pot.TargetAmount, contribution)
	if !ok {
		return unreachableResult(contribution), nil
	}
	result.Reachable = true
	result.Cycles = cycles

	goalDate, err := engine.GoalDate(start, cycles, cfg, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	result.GoalDate = &goalDate

	points, err := engine.ProjectSavings(pot.CurrentAmount, pot.TargetAmount, contribution, start, cfg, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	result.Points = points
	return result, nil
}

// RepaymentForecast answers how many cycles a debt needs to clear,
// accruing interest before each payment. A nil perCycle derives the
// payment from the debt's target date, ignoring interest.
func (s *forecastService) RepaymentForecast(householdID, repaymentID string, perCycle *decimal.Decimal, now time.Time) (*ForecastResult, error) {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return nil, err
	}
	cfg := household.CycleConfig()

	var repayment models.Repayment
	if err := s.db.Where("id = ? AND household_id = ?", repaymentID, householdID).First(&repayment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRepaymentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	start, err := s.anchorStart(householdID, cfg, now)
	if err != nil {
		return nil, err
	}

	result := &ForecastResult{}
	payment := decimal.Zero
	if perCycle != nil {
		payment = *perCycle
	} else if repayment.TargetDate != nil {
		suggested, ok, serr := engine.SuggestedPayoff(repayment.CurrentBalance, start, *repayment.TargetDate, cfg, now)
		if serr != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, serr)
		}
		if !ok {
			result.Reachable = repayment.CurrentBalance.IsZero()
			return result, nil
		}
		payment = suggested
		result.SuggestedAmount = &suggested
	} else {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "repayment has no target date; supply a per-cycle amount")
	}
	result.PerCycle = payment

	cycles, ok := engine.CyclesToClear(repayment.CurrentBalance, payment, repayment.InterestRate, cfg.Rule)
	if !ok {
		return unreachableResult(payment), nil
	}
	result.Reachable = true
	result.Cycles = cycles

	goalDate, err := engine.GoalDate(start, cycles, cfg, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	result.GoalDate = &goalDate

	points, err := engine.ProjectRepayment(repayment.CurrentBalance, payment, repayment.InterestRate, start, cfg, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	result.Points = points
	return result, nil
}
