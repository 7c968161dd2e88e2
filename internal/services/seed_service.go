package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cadence/internal/engine"
	apperrors "cadence/internal/errors"
	"cadence/internal/events"
	"cadence/internal/models"
)

// seedService manages budget line items within cycles.
type seedService struct {
	db     *gorm.DB
	events events.Publisher
}

// NewSeedService creates a new SeedServicer.
func NewSeedService(db *gorm.DB, publisher events.Publisher) SeedServicer {
	return &seedService{db: db, events: publisher}
}

var minAmount = decimal.NewFromFloat(0.01)

func validateSeedInput(cycle *models.PayCycle, input SeedInput) error {
	if input.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "seed name is required")
	}
	if input.Amount.LessThan(minAmount) {
		return apperrors.ErrAmountTooSmall
	}
	if input.SplitRatio != nil {
		r := *input.SplitRatio
		if r.LessThan(decimal.Zero) || r.GreaterThan(decimal.NewFromInt(100)) {
			return apperrors.ErrSplitRatioRange
		}
	}
	if input.DueDate != nil && !cycle.Boundary().Contains(*input.DueDate) {
		return apperrors.ErrDueDateOutsideCycle
	}
	return nil
}

// guardCycleMutable rejects writes against locked or archived cycles.
func guardCycleMutable(cycle *models.PayCycle) error {
	if cycle.Status == models.CycleArchived {
		return apperrors.ErrCycleNotActive
	}
	if cycle.IsLocked() {
		return apperrors.ErrCycleLocked
	}
	return nil
}

func (s *seedService) getSeedWithCycle(householdID, seedID string) (*models.Seed, *models.PayCycle, error) {
	var seed models.Seed
	if err := s.db.Where("id = ? AND household_id = ?", seedID, householdID).First(&seed).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrSeedNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var cycle models.PayCycle
	if err := s.db.Where("id = ?", seed.PayCycleID).First(&cycle).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &seed, &cycle, nil
}

// applySplit derives the per-partner amounts from the seed's source
// and ratio. Personal seeds never carry a ratio.
func applySplit(seed *models.Seed, household *models.Household) {
	if seed.PaymentSource != models.SourceJoint {
		seed.SplitRatio = nil
		seed.UsesJointAccount = false
	}
	me, partner := engine.Split(seed.Amount, engine.PaymentSource(seed.PaymentSource), seed.SplitRatio, household.JointRatio)
	seed.AmountMe = me
	seed.AmountPartner = partner
}

// CreateSeed adds a line item to a draft or unlocked active cycle.
func (s *seedService) CreateSeed(ctx context.Context, householdID, cycleID string, input SeedInput) (*models.Seed, error) {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return nil, err
	}

	var cycle models.PayCycle
	if err := s.db.Where("id = ? AND household_id = ?", cycleID, householdID).First(&cycle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCycleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := guardCycleMutable(&cycle); err != nil {
		return nil, err
	}
	if err := validateSeedInput(&cycle, input); err != nil {
		return nil, err
	}

	seed := &models.Seed{
		HouseholdID:       householdID,
		PayCycleID:        cycle.ID,
		Name:              input.Name,
		Type:              input.Type,
		Amount:            input.Amount,
		PaymentSource:     input.PaymentSource,
		SplitRatio:        input.SplitRatio,
		UsesJointAccount:  input.UsesJointAccount,
		IsRecurring:       input.IsRecurring,
		DueDate:           input.DueDate,
		LinkedPotID:       input.LinkedPotID,
		LinkedRepaymentID: input.LinkedRepaymentID,
	}
	applySplit(seed, household)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(seed).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return recomputeCycleAllocations(tx, household, &cycle)
	})
	if err != nil {
		return nil, err
	}
	return seed, nil
}

// UpdateSeed edits a line item. Paid seeds in an active cycle are
// frozen; draft seeds can always be reshaped.
func (s *seedService) UpdateSeed(ctx context.Context, householdID, seedID string, input SeedInput) (*models.Seed, error) {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return nil, err
	}
	seed, cycle, err := s.getSeedWithCycle(householdID, seedID)
	if err != nil {
		return nil, err
	}
	if err := guardCycleMutable(cycle); err != nil {
		return nil, err
	}
	if cycle.Status == models.CycleActive && seed.IsPaid {
		return nil, apperrors.ErrSeedPaidFrozen
	}
	if err := validateSeedInput(cycle, input); err != nil {
		return nil, err
	}

	seed.Name = input.Name
	seed.Type = input.Type
	seed.Amount = input.Amount
	seed.PaymentSource = input.PaymentSource
	seed.SplitRatio = input.SplitRatio
	seed.UsesJointAccount = input.UsesJointAccount
	seed.IsRecurring = input.IsRecurring
	seed.DueDate = input.DueDate
	seed.LinkedPotID = input.LinkedPotID
	seed.LinkedRepaymentID = input.LinkedRepaymentID
	applySplit(seed, household)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(seed).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return recomputeCycleAllocations(tx, household, cycle)
	})
	if err != nil {
		return nil, err
	}
	return seed, nil
}

// DeleteSeed removes an unpaid line item from an unlocked cycle.
func (s *seedService) DeleteSeed(ctx context.Context, householdID, seedID string) error {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return err
	}
	seed, cycle, err := s.getSeedWithCycle(householdID, seedID)
	if err != nil {
		return err
	}
	if err := guardCycleMutable(cycle); err != nil {
		return err
	}
	if cycle.Status == models.CycleActive && seed.IsPaid {
		return apperrors.ErrSeedPaidFrozen
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(seed).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return recomputeCycleAllocations(tx, household, cycle)
	})
}

// balanceDelta is the money that moved when flags changed: newly paid
// shares count positive, newly unpaid ones negative.
func balanceDelta(seed *models.Seed, before, after engine.PaidFlags) decimal.Decimal {
	delta := decimal.Zero
	if before.PaidMe != after.PaidMe {
		if after.PaidMe {
			delta = delta.Add(seed.AmountMe)
		} else {
			delta = delta.Sub(seed.AmountMe)
		}
	}
	if before.PaidPartner != after.PaidPartner {
		if after.PaidPartner {
			delta = delta.Add(seed.AmountPartner)
		} else {
			delta = delta.Sub(seed.AmountPartner)
		}
	}
	return delta
}

// applyLinkedBalances moves a paid delta onto the seed's linked pot
// or repayment. A pot that reaches its target flips to complete; a
// repayment reaching zero flips to paid.
func applyLinkedBalances(tx *gorm.DB, seed *models.Seed, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	if seed.LinkedPotID != nil {
		var pot models.Pot
		if err := tx.Where("id = ?", *seed.LinkedPotID).First(&pot).Error; err != nil {
			return err
		}
		pot.CurrentAmount = pot.CurrentAmount.Add(delta)
		if pot.CurrentAmount.LessThan(decimal.Zero) {
			pot.CurrentAmount = decimal.Zero
		}
		if pot.Status == models.PotActive && pot.CurrentAmount.GreaterThanOrEqual(pot.TargetAmount) {
			pot.Status = models.PotComplete
		}
		if err := tx.Save(&pot).Error; err != nil {
			return err
		}
	}

	if seed.LinkedRepaymentID != nil {
		var repayment models.Repayment
		if err := tx.Where("id = ?", *seed.LinkedRepaymentID).First(&repayment).Error; err != nil {
			return err
		}
		repayment.CurrentBalance = repayment.CurrentBalance.Sub(delta)
		if repayment.CurrentBalance.LessThan(decimal.Zero) {
			repayment.CurrentBalance = decimal.Zero
		}
		if repayment.Status == models.RepaymentActive && repayment.CurrentBalance.IsZero() {
			repayment.Status = models.RepaymentPaid
		}
		if err := tx.Save(&repayment).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *seedService) togglePaid(ctx context.Context, householdID, seedID string, payer engine.Payer, paid bool) (*models.Seed, error) {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return nil, err
	}
	seed, cycle, err := s.getSeedWithCycle(householdID, seedID)
	if err != nil {
		return nil, err
	}
	if cycle.Status != models.CycleActive {
		return nil, apperrors.ErrCycleNotActive
	}
	if cycle.IsLocked() {
		return nil, apperrors.ErrCycleLocked
	}

	before := seed.Engine().Paid
	after, err := engine.ApplyPaid(seed.Engine(), payer, paid)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPayerMismatch, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		seed.SetPaid(after)
		if err := tx.Save(seed).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := applyLinkedBalances(tx, seed, balanceDelta(seed, before, after)); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return recomputeCycleAllocations(tx, household, cycle)
	})
	if err != nil {
		return nil, err
	}

	if !before.Paid && after.Paid {
		s.events.Publish(ctx, events.TopicSeedPaid, householdID, seed.ID)
	}
	return seed, nil
}

// MarkPaid records one partner settling their share of a seed.
func (s *seedService) MarkPaid(ctx context.Context, householdID, seedID string, payer engine.Payer) (*models.Seed, error) {
	return s.togglePaid(ctx, householdID, seedID, payer, true)
}

// UnmarkPaid reverses a paid toggle, including the linked balances.
func (s *seedService) UnmarkPaid(ctx context.Context, householdID, seedID string, payer engine.Payer) (*models.Seed, error) {
	return s.togglePaid(ctx, householdID, seedID, payer, false)
}
