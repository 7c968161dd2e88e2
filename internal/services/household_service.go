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

// householdService handles household management.
type householdService struct {
	db *gorm.DB
}

// NewHouseholdService creates a new HouseholdServicer.
func NewHouseholdService(db *gorm.DB) HouseholdServicer {
	return &householdService{db: db}
}

// CreateHousehold creates a household with the creator as its owner.
// The owner is the "me" side of every split from then on.
func (s *householdService) CreateHousehold(userID, name, currency string, cycleType models.PayCycleType, payDay *int, anchor *time.Time) (*models.Household, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "household name is required")
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.HouseholdID != nil {
		return nil, apperrors.ErrAlreadyInHousehold
	}

	household := &models.Household{
		Name:           name,
		Currency:       currency,
		NeedsPercent:   50,
		WantsPercent:   30,
		SavingsPercent: 10,
		RepayPercent:   10,
		JointRatio:     decimal.NewFromFloat(0.5),
		PayCycleType:   cycleType,
		PayDay:         payDay,
		PayCycleAnchor: anchor,
	}
	if err := household.CycleConfig().Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(household).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"household_id":       household.ID,
				"is_household_owner": true,
			}).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return household, nil
}

// GetHouseholdForUser resolves the caller's household.
func (s *householdService) GetHouseholdForUser(userID string) (*models.Household, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.HouseholdID == nil {
		return nil, apperrors.ErrHouseholdNotFound
	}

	var household models.Household
	if err := s.db.Where("id = ?", *user.HouseholdID).First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHouseholdNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &household, nil
}

// JoinHousehold adds a second member as the partner side and flips
// the household to couple mode.
func (s *householdService) JoinHousehold(userID, householdID string) (*models.Household, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.HouseholdID != nil {
		return nil, apperrors.ErrAlreadyInHousehold
	}

	var household models.Household
	if err := s.db.Where("id = ?", householdID).First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHouseholdNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var members int64
	if err := s.db.Model(&models.User{}).Where("household_id = ?", householdID).Count(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if members >= 2 {
		return nil, apperrors.ErrHouseholdFull
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"household_id":       householdID,
				"is_household_owner": false,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&household).Update("is_couple", true).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	household.IsCouple = true
	return &household, nil
}

// UpdateSettings applies partial changes to the household's cycle and
// money configuration. The resulting calendar config must stay valid.
func (s *householdService) UpdateSettings(householdID string, settings HouseholdSettings) (*models.Household, error) {
	var household models.Household
	if err := s.db.Where("id = ?", householdID).First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHouseholdNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if settings.Name != nil {
		household.Name = *settings.Name
	}
	if settings.Currency != nil {
		household.Currency = *settings.Currency
	}
	if settings.JointRatio != nil {
		r := *settings.JointRatio
		if r.LessThan(decimal.Zero) || r.GreaterThan(decimal.NewFromInt(1)) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "joint ratio must be between 0 and 1")
		}
		household.JointRatio = r
	}
	if settings.PayCycleType != nil {
		household.PayCycleType = *settings.PayCycleType
	}
	if settings.PayDay != nil {
		household.PayDay = settings.PayDay
	}
	if settings.PayCycleAnchor != nil {
		household.PayCycleAnchor = settings.PayCycleAnchor
	}

	if err := household.CycleConfig().Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	if err := s.db.Save(&household).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &household, nil
}

// UpdatePercentages replaces the category split. The four values are
// validated as a unit; a set that does not sum to 100 never reaches
// the database.
func (s *householdService) UpdatePercentages(householdID string, needs, wants, savings, repay int) (*models.Household, error) {
	pcts := engine.Percentages{Needs: needs, Wants: wants, Savings: savings, Repay: repay}
	if err := pcts.Validate(); err != nil {
		return nil, apperrors.ErrPercentSum
	}

	var household models.Household
	if err := s.db.Where("id = ?", householdID).First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHouseholdNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	household.NeedsPercent = needs
	household.WantsPercent = wants
	household.SavingsPercent = savings
	household.RepayPercent = repay

	if err := s.db.Save(&household).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &household, nil
}
