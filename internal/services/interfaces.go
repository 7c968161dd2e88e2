package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cadence/internal/engine"
	"cadence/internal/models"
	"cadence/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// HouseholdSettings holds the mutable cycle and money configuration
// of a household.
type HouseholdSettings struct {
	Name           *string
	Currency       *string
	JointRatio     *decimal.Decimal
	PayCycleType   *models.PayCycleType
	PayDay         *int
	PayCycleAnchor *time.Time
}

// HouseholdServicer defines the contract for household management.
type HouseholdServicer interface {
	CreateHousehold(userID, name, currency string, cycleType models.PayCycleType, payDay *int, anchor *time.Time) (*models.Household, error)
	GetHouseholdForUser(userID string) (*models.Household, error)
	JoinHousehold(userID, householdID string) (*models.Household, error)
	UpdateSettings(householdID string, settings HouseholdSettings) (*models.Household, error)
	UpdatePercentages(householdID string, needs, wants, savings, repay int) (*models.Household, error)
}

// IncomeSourceInput carries the fields of an income source create or
// update request.
type IncomeSourceInput struct {
	Name          string
	Amount        decimal.Decimal
	FrequencyRule models.PayCycleType
	DayOfMonth    *int
	AnchorDate    *time.Time
	PaymentSource models.PaymentSource
	IsActive      *bool
}

// IncomeSourceServicer defines the contract for income streams.
type IncomeSourceServicer interface {
	CreateIncomeSource(householdID string, input IncomeSourceInput) (*models.IncomeSource, error)
	GetIncomeSources(householdID string) ([]models.IncomeSource, error)
	UpdateIncomeSource(householdID, sourceID string, input IncomeSourceInput) (*models.IncomeSource, error)
	DeleteIncomeSource(householdID, sourceID string) error
	ProjectForBoundary(householdID string, b engine.Boundary, jointRatio decimal.Decimal) (engine.IncomeProjection, error)
}

// CycleView is the active cycle as clients render it: seeds with
// overdue due dates already reading as paid, plus the computed
// allocation, transfer and income views.
type CycleView struct {
	Cycle        *models.PayCycle         `json:"cycle"`
	Seeds        []models.Seed            `json:"seeds"`
	Allocation   engine.AllocationSummary `json:"allocation"`
	Transfers    engine.TransferSummary   `json:"transfers"`
	IncomeEvents []engine.IncomeEvent     `json:"income_events"`
	ReadyToClose bool                     `json:"ready_to_close"`
}

// PayCycleServicer is the cycle lifecycle: draft, activate, close the
// ritual, archive.
type PayCycleServicer interface {
	GetActive(householdID string, now time.Time) (*CycleView, error)
	GetCycle(householdID, cycleID string) (*models.PayCycle, error)
	GetHistory(householdID string, page pagination.PageRequest) (*pagination.PageResponse[models.PayCycle], error)
	CreateNext(ctx context.Context, householdID string, now time.Time) (*models.PayCycle, error)
	ResyncDraft(householdID string) (*models.PayCycle, error)
	StartNext(ctx context.Context, householdID string, now time.Time) (*models.PayCycle, error)
	CloseRitual(ctx context.Context, householdID, cycleID string, now time.Time) (*models.PayCycle, error)
	UnlockRitual(householdID, cycleID string) (*models.PayCycle, error)
	PromoteDue(ctx context.Context, now time.Time) (int, error)
}

// SeedInput carries the fields of a seed create or update request.
type SeedInput struct {
	Name              string
	Type              models.SeedType
	Amount            decimal.Decimal
	PaymentSource     models.PaymentSource
	SplitRatio        *decimal.Decimal
	UsesJointAccount  bool
	IsRecurring       bool
	DueDate           *time.Time
	LinkedPotID       *string
	LinkedRepaymentID *string
}

// SeedServicer defines the contract for seed management and paid
// toggles.
type SeedServicer interface {
	CreateSeed(ctx context.Context, householdID, cycleID string, input SeedInput) (*models.Seed, error)
	UpdateSeed(ctx context.Context, householdID, seedID string, input SeedInput) (*models.Seed, error)
	DeleteSeed(ctx context.Context, householdID, seedID string) error
	MarkPaid(ctx context.Context, householdID, seedID string, payer engine.Payer) (*models.Seed, error)
	UnmarkPaid(ctx context.Context, householdID, seedID string, payer engine.Payer) (*models.Seed, error)
}

// PotInput carries the fields of a pot create or update request.
type PotInput struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount *decimal.Decimal
	TargetDate    *time.Time
	Status        *models.PotStatus
}

// PotServicer defines the contract for savings goals.
type PotServicer interface {
	CreatePot(householdID string, input PotInput) (*models.Pot, error)
	GetPots(householdID string) ([]models.Pot, error)
	GetPotByID(householdID, potID string) (*models.Pot, error)
	UpdatePot(householdID, potID string, input PotInput) (*models.Pot, error)
	DeletePot(householdID, potID string) error
	MarkComplete(householdID, potID string) (*models.Pot, error)
}

// RepaymentInput carries the fields of a repayment create or update
// request.
type RepaymentInput struct {
	Name            string
	StartingBalance decimal.Decimal
	CurrentBalance  *decimal.Decimal
	TargetDate      *time.Time
	InterestRate    *decimal.Decimal
	Status          *models.RepaymentStatus
}

// RepaymentServicer defines the contract for debts.
type RepaymentServicer interface {
	CreateRepayment(householdID string, input RepaymentInput) (*models.Repayment, error)
	GetRepayments(householdID string) ([]models.Repayment, error)
	GetRepaymentByID(householdID, repaymentID string) (*models.Repayment, error)
	UpdateRepayment(householdID, repaymentID string, input RepaymentInput) (*models.Repayment, error)
	DeleteRepayment(householdID, repaymentID string) error
	MarkPaidOff(householdID, repaymentID string) (*models.Repayment, error)
}

// ForecastResult answers "when do I get there". An unreachable goal
// is a valid answer, not an error: Reachable is false and the count,
// date and series are absent.
type ForecastResult struct {
	Reachable       bool                     `json:"reachable"`
	SuggestedAmount *decimal.Decimal         `json:"suggested_amount,omitempty"`
	PerCycle        decimal.Decimal          `json:"per_cycle"`
	Cycles          int                      `json:"cycles"`
	GoalDate        *time.Time               `json:"goal_date,omitempty"`
	Points          []engine.ProjectionPoint `json:"points,omitempty"`
}

// ForecastServicer projects pots and repayments across future cycles.
// A nil perCycle asks the service to derive the contribution from the
// goal's target date.
type ForecastServicer interface {
	PotForecast(householdID, potID string, perCycle *decimal.Decimal, now time.Time) (*ForecastResult, error)
	RepaymentForecast(householdID, repaymentID string, perCycle *decimal.Decimal, now time.Time) (*ForecastResult, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, householdID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
