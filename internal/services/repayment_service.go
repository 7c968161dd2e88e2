package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "cadence/internal/errors"
	"cadence/internal/models"
)

// repaymentService manages debts.
type repaymentService struct {
	db *gorm.DB
}

// NewRepaymentService creates a new RepaymentServicer.
func NewRepaymentService(db *gorm.DB) RepaymentServicer {
	return &repaymentService{db: db}
}

func validateRepaymentInput(input RepaymentInput) error {
	if input.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "repayment name is required")
	}
	if input.StartingBalance.LessThan(minAmount) {
		return apperrors.ErrAmountTooSmall
	}
	if input.CurrentBalance != nil && input.CurrentBalance.LessThan(decimal.Zero) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "current balance cannot be negative")
	}
	if input.InterestRate != nil && input.InterestRate.LessThan(decimal.Zero) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "interest rate cannot be negative")
	}
	return nil
}

func (s *repaymentService) CreateRepayment(householdID string, input RepaymentInput) (*models.Repayment, error) {
	if _, err := getHousehold(s.db, householdID); err != nil {
		return nil, err
	}
	if err := validateRepaymentInput(input); err != nil {
		return nil, err
	}

	repayment := &models.Repayment{
		HouseholdID:     householdID,
		Name:            input.Name,
		StartingBalance: input.StartingBalance,
		CurrentBalance:  input.StartingBalance,
		TargetDate:      input.TargetDate,
		InterestRate:    input.InterestRate,
		Status:          models.RepaymentActive,
	}
	if input.CurrentBalance != nil {
		repayment.CurrentBalance = *input.CurrentBalance
	}
	if repayment.CurrentBalance.IsZero() {
		repayment.Status = models.RepaymentPaid
	}

	if err := s.db.Create(repayment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return repayment, nil
}

func (s *repaymentService) GetRepayments(householdID string) ([]models.Repayment, error) {
	var repayments []models.Repayment
	if err := s.db.Where("household_id = ?", householdID).Order("created_at ASC").Find(&repayments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return repayments, nil
}

func (s *repaymentService) GetRepaymentByID(householdID, repaymentID string) (*models.Repayment, error) {
	var repayment models.Repayment
	if err := s.db.Where("id = ? AND household_id = ?", repaymentID, householdID).First(&repayment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRepaymentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &repayment, nil
}

func (s *repaymentService) UpdateRepayment(householdID, repaymentID string, input RepaymentInput) (*models.Repayment, error) {
	repayment, err := s.GetRepaymentByID(householdID, repaymentID)
	if err != nil {
		return nil, err
	}
	if err := validateRepaymentInput(input); err != nil {
		return nil, err
	}

	repayment.Name = input.Name
	repayment.StartingBalance = input.StartingBalance
	repayment.TargetDate = input.TargetDate
	repayment.InterestRate = input.InterestRate
	if input.CurrentBalance != nil {
		repayment.CurrentBalance = *input.CurrentBalance
	}
	if input.Status != nil {
		repayment.Status = *input.Status
	} else if repayment.Status == models.RepaymentActive && repayment.CurrentBalance.IsZero() {
		repayment.Status = models.RepaymentPaid
	}

	if err := s.db.Save(repayment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return repayment, nil
}

// DeleteRepayment removes a debt and detaches any seeds that pointed
// at it.
func (s *repaymentService) DeleteRepayment(householdID, repaymentID string) error {
	repayment, err := s.GetRepaymentByID(householdID, repaymentID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Seed{}).
			Where("linked_repayment_id = ?", repayment.ID).
			Update("linked_repayment_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(repayment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// MarkPaidOff zeroes the balance and closes the debt out.
func (s *repaymentService) MarkPaidOff(householdID, repaymentID string) (*models.Repayment, error) {
	repayment, err := s.GetRepaymentByID(householdID, repaymentID)
	if err != nil {
		return nil, err
	}

	repayment.CurrentBalance = decimal.Zero
	repayment.Status = models.RepaymentPaid
	if err := s.db.Save(repayment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return repayment, nil
}
