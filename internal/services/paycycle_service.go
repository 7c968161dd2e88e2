package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cadence/internal/engine"
	apperrors "cadence/internal/errors"
	"cadence/internal/events"
	"cadence/internal/logger"
	"cadence/internal/models"
	"cadence/internal/pagination"
)

// payCycleService drives the cycle lifecycle and the payday ritual.
type payCycleService struct {
	db      *gorm.DB
	incomes IncomeSourceServicer
	events  events.Publisher
}

// NewPayCycleService creates a new PayCycleServicer.
func NewPayCycleService(db *gorm.DB, incomes IncomeSourceServicer, publisher events.Publisher) PayCycleServicer {
	return &payCycleService{db: db, incomes: incomes, events: publisher}
}

func getHousehold(tx *gorm.DB, householdID string) (*models.Household, error) {
	var household models.Household
	if err := tx.Where("id = ?", householdID).First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHouseholdNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &household, nil
}

func getCycleByStatus(tx *gorm.DB, householdID string, status models.PayCycleStatus) (*models.PayCycle, error) {
	var cycle models.PayCycle
	err := tx.Where("household_id = ? AND status = ?", householdID, status).First(&cycle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &cycle, nil
}

func loadCycleSeeds(tx *gorm.DB, cycleID string) ([]models.Seed, error) {
	var seeds []models.Seed
	if err := tx.Where("pay_cycle_id = ?", cycleID).Order("created_at").Find(&seeds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return seeds, nil
}

// recomputeCycleAllocations rebuilds every derived allocation column
// from the cycle's seeds and saves the cycle. This is the only write
// path for those columns.
func recomputeCycleAllocations(tx *gorm.DB, household *models.Household, cycle *models.PayCycle) error {
	seeds, err := loadCycleSeeds(tx, cycle.ID)
	if err != nil {
		return err
	}
	summary, err := engine.Allocate(household.Percentages(), cycle.TotalIncome, models.EngineSeeds(seeds))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	cycle.ApplyAllocation(summary)
	if err := tx.Save(cycle).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func cycleName(b engine.Boundary) string {
	return fmt.Sprintf("%s to %s", b.Start.Format("2 Jan"), b.End.Format("2 Jan 2006"))
}

// rollDueDate carries a seed's due date into the next cycle window,
// preserving its offset from the cycle start and clamping to the new
// window's end.
func rollDueDate(due *time.Time, oldB, newB engine.Boundary) *time.Time {
	if due == nil {
		return nil
	}
	offset := int(engine.DateOnly(*due).Sub(oldB.Start).Hours() / 24)
	if offset < 0 {
		offset = 0
	}
	rolled := newB.Start.AddDate(0, 0, offset)
	if rolled.After(newB.End) {
		rolled = newB.End
	}
	return &rolled
}

// GetActive returns the active cycle as clients should see it.
// Overdue seeds read as paid here without any write: the stored flags
// stay untouched and the rendering reconciles on every read.
func (s *payCycleService) GetActive(householdID string, now time.Time) (*CycleView, error) {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return nil, err
	}

	cycle, err := getCycleByStatus(s.db, householdID, models.CycleActive)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoActiveCycle
		}
		return nil, err
	}

	seeds, err := loadCycleSeeds(s.db, cycle.ID)
	if err != nil {
		return nil, err
	}

	display := make([]models.Seed, len(seeds))
	copy(display, seeds)
	ready := true
	for i := range display {
		flags := engine.EffectiveFlags(display[i].Engine(), now)
		display[i].SetPaid(flags)
		if !flags.Paid {
			ready = false
		}
	}

	allocation, err := engine.Allocate(household.Percentages(), cycle.TotalIncome, models.EngineSeeds(display))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sources, err := s.incomes.GetIncomeSources(householdID)
	if err != nil {
		return nil, err
	}
	incomeEvents, err := engine.EventsForCycle(models.EngineIncomeSources(sources), cycle.Boundary())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &CycleView{
		Cycle:        cycle,
		Seeds:        display,
		Allocation:   allocation,
		Transfers:    engine.SummarizeTransfers(models.EngineSeeds(display)),
		IncomeEvents: incomeEvents,
		ReadyToClose: ready,
	}, nil
}

// GetCycle fetches one cycle by ID within the household.
func (s *payCycleService) GetCycle(householdID, cycleID string) (*models.PayCycle, error) {
	var cycle models.PayCycle
	if err := s.db.Where("id = ? AND household_id = ?", cycleID, householdID).First(&cycle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCycleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &cycle, nil
}

// GetHistory lists the household's cycles, newest first.
func (s *payCycleService) GetHistory(householdID string, page pagination.PageRequest) (*pagination.PageResponse[models.PayCycle], error) {
	page.Defaults()

	var total int64
	query := s.db.Model(&models.PayCycle{}).Where("household_id = ?", householdID)
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var cycles []models.PayCycle
	if err := query.Order("start_date DESC").Scopes(pagination.Paginate(page)).Find(&cycles).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(cycles, page.Page, page.PageSize, total)
	return &resp, nil
}

// createDraftFrom builds a draft cycle for the given window: income
// snapshot, recurring seeds cloned from the source cycle (if any),
// allocations recomputed. Runs inside the caller's transaction.
func (s *payCycleService) createDraftFrom(tx *gorm.DB, household *models.Household, from *models.PayCycle, b engine.Boundary) (*models.PayCycle, error) {
	projection, err := s.incomes.ProjectForBoundary(household.ID, b, household.JointRatio)
	if err != nil {
		return nil, err
	}

	draft := &models.PayCycle{
		HouseholdID:           household.ID,
		Name:                  cycleName(b),
		Status:                models.CycleDraft,
		StartDate:             b.Start,
		EndDate:               b.End,
		TotalIncome:           projection.Total,
		SnapshotMeIncome:      projection.Me,
		SnapshotPartnerIncome: projection.Partner,
	}
	if err := tx.Create(draft).Error; err != nil {
		// The partial unique index on draft cycles catches the race
		// where two callers pass the draft check before either commits.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDraftExists
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if from != nil {
		seeds, err := loadCycleSeeds(tx, from.ID)
		if err != nil {
			return nil, err
		}
		for _, seed := range seeds {
			if !seed.IsRecurring {
				continue
			}
			clone := models.Seed{
				HouseholdID:       household.ID,
				PayCycleID:        draft.ID,
				Name:              seed.Name,
				Type:              seed.Type,
				Amount:            seed.Amount,
				PaymentSource:     seed.PaymentSource,
				SplitRatio:        seed.SplitRatio,
				UsesJointAccount:  seed.UsesJointAccount,
				AmountMe:          seed.AmountMe,
				AmountPartner:     seed.AmountPartner,
				IsRecurring:       true,
				DueDate:           rollDueDate(seed.DueDate, from.Boundary(), b),
				LinkedPotID:       seed.LinkedPotID,
				LinkedRepaymentID: seed.LinkedRepaymentID,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
	}

	if err := recomputeCycleAllocations(tx, household, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// CreateNext drafts the cycle after the active one. Only one draft
// may exist per household.
func (s *payCycleService) CreateNext(ctx context.Context, householdID string, now time.Time) (*models.PayCycle, error) {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return nil, err
	}

	var draft *models.PayCycle
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := getCycleByStatus(tx, householdID, models.CycleDraft); err == nil {
			return apperrors.ErrDraftExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		active, err := getCycleByStatus(tx, householdID, models.CycleActive)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNoActiveCycle
			}
			return err
		}

		next, err := engine.NextBoundary(active.Boundary(), household.CycleConfig())
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		draft, err = s.createDraftFrom(tx, household, active, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// ResyncDraft re-copies the active cycle's recurring seeds into the
// draft. Seeds are matched by name and type: matches are refreshed in
// place, new recurring seeds are added, and draft-only seeds survive.
func (s *payCycleService) ResyncDraft(householdID string) (*models.PayCycle, error) {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return nil, err
	}

	var draft *models.PayCycle
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		draft, err = getCycleByStatus(tx, householdID, models.CycleDraft)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCycleNotDraft
			}
			return err
		}
		active, err := getCycleByStatus(tx, householdID, models.CycleActive)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNoActiveCycle
			}
			return err
		}

		activeSeeds, err := loadCycleSeeds(tx, active.ID)
		if err != nil {
			return err
		}
		draftSeeds, err := loadCycleSeeds(tx, draft.ID)
		if err != nil {
			return err
		}

		existing := make(map[string]*models.Seed, len(draftSeeds))
		for i := range draftSeeds {
			key := draftSeeds[i].Name + "::" + string(draftSeeds[i].Type)
			existing[key] = &draftSeeds[i]
		}

		for _, seed := range activeSeeds {
			if !seed.IsRecurring {
				continue
			}
			key := seed.Name + "::" + string(seed.Type)
			if current, ok := existing[key]; ok {
				current.Amount = seed.Amount
				current.PaymentSource = seed.PaymentSource
				current.SplitRatio = seed.SplitRatio
				current.UsesJointAccount = seed.UsesJointAccount
				current.AmountMe = seed.AmountMe
				current.AmountPartner = seed.AmountPartner
				current.IsRecurring = true
				current.DueDate = rollDueDate(seed.DueDate, active.Boundary(), draft.Boundary())
				current.LinkedPotID = seed.LinkedPotID
				current.LinkedRepaymentID = seed.LinkedRepaymentID
				if err := tx.Save(current).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				continue
			}
			clone := models.Seed{
				HouseholdID:       household.ID,
				PayCycleID:        draft.ID,
				Name:              seed.Name,
				Type:              seed.Type,
				Amount:            seed.Amount,
				PaymentSource:     seed.PaymentSource,
				SplitRatio:        seed.SplitRatio,
				UsesJointAccount:  seed.UsesJointAccount,
				AmountMe:          seed.AmountMe,
				AmountPartner:     seed.AmountPartner,
				IsRecurring:       true,
				DueDate:           rollDueDate(seed.DueDate, active.Boundary(), draft.Boundary()),
				LinkedPotID:       seed.LinkedPotID,
				LinkedRepaymentID: seed.LinkedRepaymentID,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		return recomputeCycleAllocations(tx, household, draft)
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// StartNext archives the active cycle and activates the draft,
// creating one first when none exists. The whole transition runs in
// one transaction so the single-active invariant holds even when two
// members trigger payday at once.
func (s *payCycleService) StartNext(ctx context.Context, householdID string, now time.Time) (*models.PayCycle, error) {
	household, err := getHousehold(s.db, householdID)
	if err != nil {
		return nil, err
	}

	var promoted *models.PayCycle
	err = s.db.Transaction(func(tx *gorm.DB) error {
		active, err := getCycleByStatus(tx, householdID, models.CycleActive)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		draft, derr := getCycleByStatus(tx, householdID, models.CycleDraft)
		if derr != nil && !errors.Is(derr, gorm.ErrRecordNotFound) {
			return derr
		}

		if draft == nil {
			var b engine.Boundary
			if active != nil {
				b, err = engine.NextBoundary(active.Boundary(), household.CycleConfig())
			} else {
				b, err = engine.BoundaryContaining(now, household.CycleConfig())
			}
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			draft, err = s.createDraftFrom(tx, household, active, b)
			if err != nil {
				return err
			}
		}

		if active != nil {
			if err := tx.Model(active).Update("status", models.CycleArchived).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		result := tx.Model(&models.PayCycle{}).
			Where("id = ? AND status = ?", draft.ID, models.CycleDraft).
			Update("status", models.CycleActive)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		// Someone else promoted it between our read and write.
		if result.RowsAffected == 0 {
			return apperrors.ErrCycleNotDraft
		}

		draft.Status = models.CycleActive
		promoted = draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.TopicCycleStarted, householdID, promoted.ID)
	return promoted, nil
}

// CloseRitual locks the active cycle once every seed is settled.
// Overdue seeds count as paid, matching what the member sees on
// screen when they press the button.
func (s *payCycleService) CloseRitual(ctx context.Context, householdID, cycleID string, now time.Time) (*models.PayCycle, error) {
	cycle, err := s.GetCycle(householdID, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status != models.CycleActive {
		return nil, apperrors.ErrCycleNotActive
	}
	if cycle.RitualClosedAt != nil {
		return nil, apperrors.ErrCycleLocked
	}

	seeds, err := loadCycleSeeds(s.db, cycle.ID)
	if err != nil {
		return nil, err
	}
	for i := range seeds {
		if !engine.EffectivePaid(seeds[i].Engine(), now) {
			return nil, apperrors.ErrUnpaidSeeds
		}
	}

	closedAt := now
	if err := s.db.Model(cycle).Update("ritual_closed_at", closedAt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	cycle.RitualClosedAt = &closedAt

	s.events.Publish(ctx, events.TopicCycleClosed, householdID, cycle.ID)
	return cycle, nil
}

// UnlockRitual reopens a closed ritual. Paid flags survive.
func (s *payCycleService) UnlockRitual(householdID, cycleID string) (*models.PayCycle, error) {
	cycle, err := s.GetCycle(householdID, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status != models.CycleActive {
		return nil, apperrors.ErrCycleNotActive
	}
	if cycle.RitualClosedAt == nil {
		return nil, apperrors.ErrRitualNotClosed
	}

	if err := s.db.Model(cycle).Update("ritual_closed_at", nil).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	cycle.RitualClosedAt = nil
	return cycle, nil
}

// PromoteDue activates every draft whose start date has arrived.
// Called by the scheduler; failures in one household never block the
// rest.
func (s *payCycleService) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	var due []models.PayCycle
	err := s.db.Where("status = ? AND start_date <= ?", models.CycleDraft, engine.DateOnly(now)).Find(&due).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	promoted := 0
	for _, draft := range due {
		if _, err := s.StartNext(ctx, draft.HouseholdID, now); err != nil {
			logger.Get().Errorw("failed to promote due draft",
				"error", err,
				"household_id", draft.HouseholdID,
				"cycle_id", draft.ID,
			)
			continue
		}
		promoted++
	}
	return promoted, nil
}
