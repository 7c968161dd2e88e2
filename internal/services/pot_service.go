package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "cadence/internal/errors"
	"cadence/internal/models"
)

// potService manages savings goals.
type potService struct {
	db *gorm.DB
}

// NewPotService creates a new PotServicer.
func NewPotService(db *gorm.DB) PotServicer {
	return &potService{db: db}
}

func validatePotInput(input PotInput) error {
	if input.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "pot name is required")
	}
	if input.TargetAmount.LessThan(minAmount) {
		return apperrors.ErrAmountTooSmall
	}
	if input.CurrentAmount != nil && input.CurrentAmount.LessThan(decimal.Zero) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "current amount cannot be negative")
	}
	return nil
}

func (s *potService) CreatePot(householdID string, input PotInput) (*models.Pot, error) {
	if _, err := getHousehold(s.db, householdID); err != nil {
		return nil, err
	}
	if err := validatePotInput(input); err != nil {
		return nil, err
	}

	pot := &models.Pot{
		HouseholdID:  householdID,
		Name:         input.Name,
		TargetAmount: input.TargetAmount,
		TargetDate:   input.TargetDate,
		Status:       models.PotActive,
	}
	if input.CurrentAmount != nil {
		pot.CurrentAmount = *input.CurrentAmount
	}
	if pot.CurrentAmount.GreaterThanOrEqual(pot.TargetAmount) {
		pot.Status = models.PotComplete
	}

	if err := s.db.Create(pot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pot, nil
}

func (s *potService) GetPots(householdID string) ([]models.Pot, error) {
	var pots []models.Pot
	if err := s.db.Where("household_id = ?", householdID).Order("created_at ASC").Find(&pots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pots, nil
}

func (s *potService) GetPotByID(householdID, potID string) (*models.Pot, error) {
	var pot models.Pot
	if err := s.db.Where("id = ? AND household_id = ?", potID, householdID).First(&pot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pot, nil
}

func (s *potService) UpdatePot(householdID, potID string, input PotInput) (*models.Pot, error) {
	pot, err := s.GetPotByID(householdID, potID)
	if err != nil {
		return nil, err
	}
	if err := validatePotInput(input); err != nil {
		return nil, err
	}

	pot.Name = input.Name
	pot.TargetAmount = input.TargetAmount
	pot.TargetDate = input.TargetDate
	if input.CurrentAmount != nil {
		pot.CurrentAmount = *input.CurrentAmount
	}
	if input.Status != nil {
		pot.Status = *input.Status
	} else if pot.Status == models.PotActive && pot.CurrentAmount.GreaterThanOrEqual(pot.TargetAmount) {
		pot.Status = models.PotComplete
	}

	if err := s.db.Save(pot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pot, nil
}

// DeletePot removes a pot and detaches any seeds that pointed at it.
func (s *potService) DeletePot(householdID, potID string) error {
	pot, err := s.GetPotByID(householdID, potID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Seed{}).
			Where("linked_pot_id = ?", pot.ID).
			Update("linked_pot_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(pot).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// MarkComplete closes a pot out regardless of its balance.
func (s *potService) MarkComplete(householdID, potID string) (*models.Pot, error) {
	pot, err := s.GetPotByID(householdID, potID)
	if err != nil {
		return nil, err
	}

	pot.Status = models.PotComplete
	if err := s.db.Save(pot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pot, nil
}
