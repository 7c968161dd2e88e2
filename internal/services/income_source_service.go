package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cadence/internal/engine"
	apperrors "cadence/internal/errors"
	"cadence/internal/models"
)

// incomeSourceService handles recurring income streams.
type incomeSourceService struct {
	db *gorm.DB
}

// NewIncomeSourceService creates a new IncomeSourceServicer.
func NewIncomeSourceService(db *gorm.DB) IncomeSourceServicer {
	return &incomeSourceService{db: db}
}

func validateIncomeInput(input IncomeSourceInput) error {
	if input.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "income source name is required")
	}
	if input.Amount.LessThan(decimal.NewFromFloat(0.01)) {
		return apperrors.ErrAmountTooSmall
	}
	cfg := engine.CycleConfig{Rule: engine.Rule(input.FrequencyRule)}
	if input.DayOfMonth != nil {
		cfg.PayDay = *input.DayOfMonth
	}
	if input.AnchorDate != nil {
		cfg.Anchor = *input.AnchorDate
	}
	if err := cfg.Validate(); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return nil
}

// CreateIncomeSource adds an income stream to the household.
func (s *incomeSourceService) CreateIncomeSource(householdID string, input IncomeSourceInput) (*models.IncomeSource, error) {
	if err := validateIncomeInput(input); err != nil {
		return nil, err
	}

	source := &models.IncomeSource{
		HouseholdID:   householdID,
		Name:          input.Name,
		Amount:        input.Amount,
		FrequencyRule: input.FrequencyRule,
		DayOfMonth:    input.DayOfMonth,
		AnchorDate:    input.AnchorDate,
		PaymentSource: input.PaymentSource,
		IsActive:      true,
	}
	if input.IsActive != nil {
		source.IsActive = *input.IsActive
	}

	if err := s.db.Create(source).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return source, nil
}

// GetIncomeSources lists the household's income streams.
func (s *incomeSourceService) GetIncomeSources(householdID string) ([]models.IncomeSource, error) {
	var sources []models.IncomeSource
	if err := s.db.Where("household_id = ?", householdID).Order("created_at").Find(&sources).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sources, nil
}

// UpdateIncomeSource replaces an income stream's fields.
func (s *incomeSourceService) UpdateIncomeSource(householdID, sourceID string, input IncomeSourceInput) (*models.IncomeSource, error) {
	if err := validateIncomeInput(input); err != nil {
		return nil, err
	}

	var source models.IncomeSource
	if err := s.db.Where("id = ? AND household_id = ?", sourceID, householdID).First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIncomeSourceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	source.Name = input.Name
	source.Amount = input.Amount
	source.FrequencyRule = input.FrequencyRule
	source.DayOfMonth = input.DayOfMonth
	source.AnchorDate = input.AnchorDate
	source.PaymentSource = input.PaymentSource
	if input.IsActive != nil {
		source.IsActive = *input.IsActive
	}

	if err := s.db.Save(&source).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &source, nil
}

// DeleteIncomeSource removes an income stream. Existing cycles keep
// their income snapshots.
func (s *incomeSourceService) DeleteIncomeSource(householdID, sourceID string) error {
	result := s.db.Where("id = ? AND household_id = ?", sourceID, householdID).Delete(&models.IncomeSource{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrIncomeSourceNotFound
	}
	return nil
}

// ProjectForBoundary totals the income expected inside a cycle window.
func (s *incomeSourceService) ProjectForBoundary(householdID string, b engine.Boundary, jointRatio decimal.Decimal) (engine.IncomeProjection, error) {
	sources, err := s.GetIncomeSources(householdID)
	if err != nil {
		return engine.IncomeProjection{}, err
	}
	projection, err := engine.ProjectIncome(models.EngineIncomeSources(sources), b, jointRatio)
	if err != nil {
		return engine.IncomeProjection{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return projection, nil
}
