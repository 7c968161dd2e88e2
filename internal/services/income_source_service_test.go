package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cadence/internal/engine"
	"cadence/internal/models"
	"cadence/internal/testutil"
)

func TestCreateIncomeSource(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeSourceService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		day := 25
		source, err := svc.CreateIncomeSource(household.ID, IncomeSourceInput{
			Name:          "Salary",
			Amount:        decimal.RequireFromString("2500.00"),
			FrequencyRule: models.PayCycleSpecificDate,
			DayOfMonth:    &day,
			PaymentSource: models.SourceMe,
		})
		testutil.AssertNoError(t, err)

		if !source.IsActive {
			t.Error("new income source should default to active")
		}
		testutil.AssertDecimal(t, "2500.00", source.Amount)
	})

	t.Run("amount_too_small", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeSourceService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		day := 1
		_, err := svc.CreateIncomeSource(household.ID, IncomeSourceInput{
			Name:          "Nothing",
			Amount:        decimal.Zero,
			FrequencyRule: models.PayCycleSpecificDate,
			DayOfMonth:    &day,
			PaymentSource: models.SourceMe,
		})
		testutil.AssertAppError(t, err, "AMOUNT_TOO_SMALL")
	})

	t.Run("invalid_schedule", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeSourceService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		_, err := svc.CreateIncomeSource(household.ID, IncomeSourceInput{
			Name:          "No Anchor",
			Amount:        decimal.RequireFromString("1200.00"),
			FrequencyRule: models.PayCycleEvery4Weeks,
			PaymentSource: models.SourcePartner,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateIncomeSource(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeSourceService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)
		source := testutil.CreateTestIncomeSource(t, db, household.ID, "2500.00", models.SourceMe)

		day := 15
		inactive := false
		updated, err := svc.UpdateIncomeSource(household.ID, source.ID, IncomeSourceInput{
			Name:          "New Job",
			Amount:        decimal.RequireFromString("2800.00"),
			FrequencyRule: models.PayCycleSpecificDate,
			DayOfMonth:    &day,
			PaymentSource: models.SourceMe,
			IsActive:      &inactive,
		})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "2800.00", updated.Amount)
		if updated.IsActive {
			t.Error("expected income source to be deactivated")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeSourceService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)

		day := 1
		_, err := svc.UpdateIncomeSource(household.ID, "00000000-0000-0000-0000-000000000000", IncomeSourceInput{
			Name:          "Ghost",
			Amount:        decimal.RequireFromString("100.00"),
			FrequencyRule: models.PayCycleSpecificDate,
			DayOfMonth:    &day,
			PaymentSource: models.SourceMe,
		})
		testutil.AssertAppError(t, err, "INCOME_SOURCE_NOT_FOUND")
	})

	t.Run("scoped_to_household", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeSourceService(db)

		user := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, user)
		source := testutil.CreateTestIncomeSource(t, db, household.ID, "2500.00", models.SourceMe)

		other := testutil.CreateTestUser(t, db)
		otherHousehold := testutil.CreateTestHousehold(t, db, other)

		err := svc.DeleteIncomeSource(otherHousehold.ID, source.ID)
		testutil.AssertAppError(t, err, "INCOME_SOURCE_NOT_FOUND")
	})
}

func TestDeleteIncomeSource(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewIncomeSourceService(db)

	user := testutil.CreateTestUser(t, db)
	household := testutil.CreateTestHousehold(t, db, user)
	source := testutil.CreateTestIncomeSource(t, db, household.ID, "2500.00", models.SourceMe)

	testutil.AssertNoError(t, svc.DeleteIncomeSource(household.ID, source.ID))

	var count int64
	db.Model(&models.IncomeSource{}).Where("household_id = ?", household.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no income sources left, got %d", count)
	}
}

func TestProjectForBoundary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewIncomeSourceService(db)

	user := testutil.CreateTestUser(t, db)
	household := testutil.CreateTestHousehold(t, db, user)

	testutil.CreateTestIncomeSource(t, db, household.ID, "2500.00", models.SourceMe)
	testutil.CreateTestIncomeSource(t, db, household.ID, "800.00", models.SourceJoint)

	// One window of the household's 25th-to-24th calendar.
	boundary := engine.Boundary{
		Start: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 24, 0, 0, 0, 0, time.UTC),
	}
	projection, err := svc.ProjectForBoundary(household.ID, boundary, household.JointRatio)
	testutil.AssertNoError(t, err)

	if len(projection.Events) != 2 {
		t.Fatalf("expected 2 income events, got %d", len(projection.Events))
	}
	testutil.AssertDecimal(t, "3300.00", projection.Total)
	// 2500 + half the joint 800.
	testutil.AssertDecimal(t, "2900.00", projection.Me)
	testutil.AssertDecimal(t, "400.00", projection.Partner)
}
