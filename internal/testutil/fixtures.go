package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"cadence/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestHousehold creates a household owned by the given user,
// paid on the 25th, with the default 50/30/10/10 split and an even
// joint ratio.
func CreateTestHousehold(t *testing.T, db *gorm.DB, owner *models.User) *models.Household {
	t.Helper()

	payDay := 25
	household := &models.Household{
		Name:           fmt.Sprintf("Test Household %d", nextID()),
		Currency:       "GBP",
		NeedsPercent:   50,
		WantsPercent:   30,
		SavingsPercent: 10,
		RepayPercent:   10,
		JointRatio:     decimal.RequireFromString("0.5"),
		PayCycleType:   models.PayCycleSpecificDate,
		PayDay:         &payDay,
	}
	if err := db.Create(household).Error; err != nil {
		t.Fatalf("failed to create test household: %v", err)
	}

	updates := map[string]interface{}{
		"household_id":       household.ID,
		"is_household_owner": true,
	}
	if err := db.Model(owner).Updates(updates).Error; err != nil {
		t.Fatalf("failed to attach owner to household: %v", err)
	}
	owner.HouseholdID = &household.ID
	owner.IsHouseholdOwner = true
	return household
}

// AddTestPartner joins a second user to the household as the partner.
func AddTestPartner(t *testing.T, db *gorm.DB, household *models.Household, partner *models.User) {
	t.Helper()

	if err := db.Model(partner).Update("household_id", household.ID).Error; err != nil {
		t.Fatalf("failed to attach partner to household: %v", err)
	}
	if err := db.Model(household).Update("is_couple", true).Error; err != nil {
		t.Fatalf("failed to mark household as couple: %v", err)
	}
	partner.HouseholdID = &household.ID
	household.IsCouple = true
}

// CreateTestCycle creates a cycle with the given status spanning the
// household's window that contains startDate.
func CreateTestCycle(t *testing.T, db *gorm.DB, household *models.Household, status models.PayCycleStatus, start, end time.Time) *models.PayCycle {
	t.Helper()

	cycle := &models.PayCycle{
		HouseholdID: household.ID,
		Name:        fmt.Sprintf("Test Cycle %d", nextID()),
		Status:      status,
		StartDate:   start,
		EndDate:     end,
	}
	if err := db.Create(cycle).Error; err != nil {
		t.Fatalf("failed to create test cycle: %v", err)
	}
	return cycle
}

// CreateTestSeed creates an unpaid personal seed in the cycle. The
// split amounts are set for a "me" source so paid toggles work.
func CreateTestSeed(t *testing.T, db *gorm.DB, cycle *models.PayCycle, seedType models.SeedType, amount string) *models.Seed {
	t.Helper()

	amt := decimal.RequireFromString(amount)
	seed := &models.Seed{
		HouseholdID:   cycle.HouseholdID,
		PayCycleID:    cycle.ID,
		Name:          fmt.Sprintf("Test Seed %d", nextID()),
		Type:          seedType,
		Amount:        amt,
		PaymentSource: models.SourceMe,
		AmountMe:      amt,
		AmountPartner: decimal.Zero,
	}
	if err := db.Create(seed).Error; err != nil {
		t.Fatalf("failed to create test seed: %v", err)
	}
	return seed
}

// CreateTestJointSeed creates an unpaid joint seed split evenly.
func CreateTestJointSeed(t *testing.T, db *gorm.DB, cycle *models.PayCycle, seedType models.SeedType, amount string) *models.Seed {
	t.Helper()

	amt := decimal.RequireFromString(amount)
	half := amt.Div(decimal.NewFromInt(2)).Round(2)
	ratio := decimal.RequireFromString("50")
	seed := &models.Seed{
		HouseholdID:   cycle.HouseholdID,
		PayCycleID:    cycle.ID,
		Name:          fmt.Sprintf("Test Joint Seed %d", nextID()),
		Type:          seedType,
		Amount:        amt,
		PaymentSource: models.SourceJoint,
		SplitRatio:    &ratio,
		AmountMe:      half,
		AmountPartner: amt.Sub(half),
	}
	if err := db.Create(seed).Error; err != nil {
		t.Fatalf("failed to create test joint seed: %v", err)
	}
	return seed
}

// CreateTestPot creates an active savings pot.
func CreateTestPot(t *testing.T, db *gorm.DB, householdID, current, target string) *models.Pot {
	t.Helper()

	pot := &models.Pot{
		HouseholdID:   householdID,
		Name:          fmt.Sprintf("Test Pot %d", nextID()),
		CurrentAmount: decimal.RequireFromString(current),
		TargetAmount:  decimal.RequireFromString(target),
		Status:        models.PotActive,
	}
	if err := db.Create(pot).Error; err != nil {
		t.Fatalf("failed to create test pot: %v", err)
	}
	return pot
}

// CreateTestRepayment creates an active debt.
func CreateTestRepayment(t *testing.T, db *gorm.DB, householdID, balance string) *models.Repayment {
	t.Helper()

	bal := decimal.RequireFromString(balance)
	repayment := &models.Repayment{
		HouseholdID:     householdID,
		Name:            fmt.Sprintf("Test Repayment %d", nextID()),
		StartingBalance: bal,
		CurrentBalance:  bal,
		Status:          models.RepaymentActive,
	}
	if err := db.Create(repayment).Error; err != nil {
		t.Fatalf("failed to create test repayment: %v", err)
	}
	return repayment
}

// CreateTestIncomeSource creates an active monthly income for the
// given side, paid on the 25th.
func CreateTestIncomeSource(t *testing.T, db *gorm.DB, householdID, amount string, source models.PaymentSource) *models.IncomeSource {
	t.Helper()

	day := 25
	income := &models.IncomeSource{
		HouseholdID:   householdID,
		Name:          fmt.Sprintf("Test Income %d", nextID()),
		Amount:        decimal.RequireFromString(amount),
		FrequencyRule: models.PayCycleSpecificDate,
		DayOfMonth:    &day,
		PaymentSource: source,
		IsActive:      true,
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income source: %v", err)
	}
	return income
}
