package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"cadence/internal/models"
	"cadence/internal/testutil"
)

func TestCreatePot(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPotService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		pot, err := svc.CreatePot(household.ID, PotInput{
			Name:         "Holiday",
			TargetAmount: decimal.RequireFromString("1500.00"),
		})
		testutil.AssertNoError(t, err)

		if pot.Status != models.PotActive {
			t.Errorf("expected active pot, got %s", pot.Status)
		}
		testutil.AssertDecimal(t, "0", pot.CurrentAmount)
	})

	t.Run("starting_at_target_completes_immediately", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPotService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		current := decimal.RequireFromString("500.00")
		pot, err := svc.CreatePot(household.ID, PotInput{
			Name:          "Done Already",
			TargetAmount:  decimal.RequireFromString("500.00"),
			CurrentAmount: &current,
		})
		testutil.AssertNoError(t, err)

		if pot.Status != models.PotComplete {
			t.Errorf("expected complete pot, got %s", pot.Status)
		}
	})

	t.Run("target_too_small", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPotService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		_, err := svc.CreatePot(household.ID, PotInput{Name: "Zero", TargetAmount: decimal.Zero})
		testutil.AssertAppError(t, err, "AMOUNT_TOO_SMALL")
	})
}

func TestUpdatePot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPotService(db)

	user := testutil.CreateTestUser(t, db)
	household := testutil.CreateTestHousehold(t, db, user)
	pot := testutil.CreateTestPot(t, db, household.ID, "100.00", "500.00")

	updated, err := svc.UpdatePot(household.ID, pot.ID, PotInput{
		Name:         "Renamed",
		TargetAmount: decimal.RequireFromString("400.00"),
	})
	testutil.AssertNoError(t, err)

	if updated.Name != "Renamed" {
		t.Errorf("expected renamed pot, got %s", updated.Name)
	}
	// Balance untouched when not supplied.
	testutil.AssertDecimal(t, "100.00", updated.CurrentAmount)
}

func TestDeletePot(t *testing.T) {
	t.Run("detaches_linked_seeds", func(t *testing.T) {
		env := setupCycleEnv(t)
		svc := NewPotService(env.db)

		cycle := env.activeCycle(t, cycleStart, cycleEnd)
		pot := testutil.CreateTestPot(t, env.db, env.household.ID, "0.00", "500.00")
		seed := testutil.CreateTestSeed(t, env.db, cycle, models.SeedSavings, "50.00")
		env.db.Model(seed).Update("linked_pot_id", pot.ID)

		testutil.AssertNoError(t, svc.DeletePot(env.household.ID, pot.ID))

		var stored models.Seed
		testutil.AssertNoError(t, env.db.First(&stored, "id = ?", seed.ID).Error)
		if stored.LinkedPotID != nil {
			t.Error("deleting a pot should clear the link on its seeds")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPotService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		err := svc.DeletePot(household.ID, "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "POT_NOT_FOUND")
	})
}

func TestMarkComplete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPotService(db)

	user := testutil.CreateTestUser(t, db)
	household := testutil.CreateTestHousehold(t, db, user)
	pot := testutil.CreateTestPot(t, db, household.ID, "100.00", "500.00")

	completed, err := svc.MarkComplete(household.ID, pot.ID)
	testutil.AssertNoError(t, err)

	if completed.Status != models.PotComplete {
		t.Errorf("expected complete pot, got %s", completed.Status)
	}
}
