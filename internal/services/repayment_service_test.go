package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"cadence/internal/models"
	"cadence/internal/testutil"
)

func TestCreateRepayment(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRepaymentService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		rate := decimal.RequireFromString("19.9")
		repayment, err := svc.CreateRepayment(household.ID, RepaymentInput{
			Name:            "Credit Card",
			StartingBalance: decimal.RequireFromString("2400.00"),
			InterestRate:    &rate,
		})
		testutil.AssertNoError(t, err)

		// Current balance defaults to the starting balance.
		testutil.AssertDecimal(t, "2400.00", repayment.CurrentBalance)
		if repayment.Status != models.RepaymentActive {
			t.Errorf("expected active repayment, got %s", repayment.Status)
		}
	})

	t.Run("negative_interest_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRepaymentService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		rate := decimal.RequireFromString("-1")
		_, err := svc.CreateRepayment(household.ID, RepaymentInput{
			Name:            "Weird Loan",
			StartingBalance: decimal.RequireFromString("100.00"),
			InterestRate:    &rate,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateRepayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRepaymentService(db)

	user := testutil.CreateTestUser(t, db)
	household := testutil.CreateTestHousehold(t, db, user)
	repayment := testutil.CreateTestRepayment(t, db, household.ID, "2400.00")

	balance := decimal.RequireFromString("0.00")
	updated, err := svc.UpdateRepayment(household.ID, repayment.ID, RepaymentInput{
		Name:            repayment.Name,
		StartingBalance: repayment.StartingBalance,
		CurrentBalance:  &balance,
	})
	testutil.AssertNoError(t, err)

	if updated.Status != models.RepaymentPaid {
		t.Errorf("zero balance should flip the debt to paid, got %s", updated.Status)
	}
}

func TestDeleteRepayment(t *testing.T) {
	env := setupCycleEnv(t)
	svc := NewRepaymentService(env.db)

	cycle := env.activeCycle(t, cycleStart, cycleEnd)
	repayment := testutil.CreateTestRepayment(t, env.db, env.household.ID, "500.00")
	seed := testutil.CreateTestSeed(t, env.db, cycle, models.SeedRepay, "50.00")
	env.db.Model(seed).Update("linked_repayment_id", repayment.ID)

	testutil.AssertNoError(t, svc.DeleteRepayment(env.household.ID, repayment.ID))

	var stored models.Seed
	testutil.AssertNoError(t, env.db.First(&stored, "id = ?", seed.ID).Error)
	if stored.LinkedRepaymentID != nil {
		t.Error("deleting a repayment should clear the link on its seeds")
	}
}

func TestMarkPaidOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRepaymentService(db)

	user := testutil.CreateTestUser(t, db)
	household := testutil.CreateTestHousehold(t, db, user)
	repayment := testutil.CreateTestRepayment(t, db, household.ID, "850.00")

	paid, err := svc.MarkPaidOff(household.ID, repayment.ID)
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "0", paid.CurrentBalance)
	if paid.Status != models.RepaymentPaid {
		t.Errorf("expected paid status, got %s", paid.Status)
	}
}
