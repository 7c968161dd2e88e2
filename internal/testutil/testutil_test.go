package testutil_test

import (
	"testing"
	"time"

	"cadence/internal/errors"
	"cadence/internal/models"
	"cadence/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "households", "pay_cycles", "seeds", "pots", "repayments", "income_sources", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have a non-empty ID")
	}

	household := testutil.CreateTestHousehold(t, db, user)
	if !user.IsHouseholdOwner {
		t.Error("creating a household should mark the user as owner")
	}

	partner := testutil.CreateTestUser(t, db)
	testutil.AddTestPartner(t, db, household, partner)
	if !household.IsCouple {
		t.Error("adding a partner should mark the household as a couple")
	}

	start := time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 24, 0, 0, 0, 0, time.UTC)
	cycle := testutil.CreateTestCycle(t, db, household, models.CycleActive, start, end)
	if cycle.Status != models.CycleActive {
		t.Errorf("expected active cycle, got %s", cycle.Status)
	}

	seed := testutil.CreateTestSeed(t, db, cycle, models.SeedNeed, "120.00")
	testutil.AssertDecimal(t, "120.00", seed.AmountMe)

	joint := testutil.CreateTestJointSeed(t, db, cycle, models.SeedWant, "99.99")
	if !joint.AmountMe.Add(joint.AmountPartner).Equal(joint.Amount) {
		t.Errorf("joint shares %s + %s should reconstruct %s", joint.AmountMe, joint.AmountPartner, joint.Amount)
	}

	pot := testutil.CreateTestPot(t, db, household.ID, "100.00", "500.00")
	testutil.AssertDecimal(t, "100.00", pot.CurrentAmount)

	repayment := testutil.CreateTestRepayment(t, db, household.ID, "2500.00")
	testutil.AssertDecimal(t, "2500.00", repayment.CurrentBalance)

	income := testutil.CreateTestIncomeSource(t, db, household.ID, "3000.00", models.SourceMe)
	if income.PaymentSource != models.SourceMe {
		t.Errorf("expected me income, got %s", income.PaymentSource)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrCycleNotFound, "custom message")
	testutil.AssertAppError(t, err, "CYCLE_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
