package plan

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finplan/finplan/internal/test_utils"
	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
)

func insertTestUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO users (id, display_name, timezone, currency, language, period_type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, "Test User", "Asia/Seoul", "USD", "en", "MONTHLY", time.Now().UnixMilli(),
	)
	require.NoError(t, err)
}

func testPlan(userId string, start time.Time) Plan {
	end := start.AddDate(0, 1, 0)
	return Plan{
		UserId:                userId,
		PeriodType:            period.Monthly,
		PeriodAnchor:          start,
		PeriodStart:           start,
		PeriodEnd:             &end,
		Currency:              currency.USD,
		Language:              "en",
		TotalBudgetLimitMinor: 500000,
	}
}

func TestRepository_CreateIfAbsent(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	insertTestUser(t, db, "user-1")
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	created, wasCreated, err := repo.CreateIfAbsent(ctx, testPlan("user-1", start))
	require.NoError(t, err)
	require.True(t, wasCreated)
	require.NotEmpty(t, created.Id)

	t.Run("same natural key returns the existing row", func(t *testing.T) {
		again, wasCreated, err := repo.CreateIfAbsent(ctx, testPlan("user-1", start))
		require.NoError(t, err)
		assert.False(t, wasCreated)
		assert.Equal(t, created.Id, again.Id)
	})

	t.Run("different period start creates a new row", func(t *testing.T) {
		other, wasCreated, err := repo.CreateIfAbsent(ctx, testPlan("user-1", start.AddDate(0, 1, 0)))
		require.NoError(t, err)
		assert.True(t, wasCreated)
		assert.NotEqual(t, created.Id, other.Id)
	})

	t.Run("round trips all fields", func(t *testing.T) {
		got, err := repo.GetPlan(ctx, "user-1", created.Id)
		require.NoError(t, err)
		assert.Equal(t, period.Monthly, got.PeriodType)
		assert.Equal(t, currency.USD, got.Currency)
		assert.True(t, got.PeriodStart.Equal(start))
		require.NotNil(t, got.PeriodEnd)
		assert.True(t, got.PeriodEnd.Equal(start.AddDate(0, 1, 0)))
		assert.Equal(t, int64(500000), got.TotalBudgetLimitMinor)
	})
}

func TestRepository_GetPlan(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	insertTestUser(t, db, "user-1")
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	created, _, err := repo.CreateIfAbsent(ctx, testPlan("user-1", start))
	require.NoError(t, err)

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetPlan(ctx, "user-1", "missing")
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("wrong user", func(t *testing.T) {
		_, err := repo.GetPlan(ctx, "user-2", created.Id)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})
}

func TestRepository_FindByPeriod(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	insertTestUser(t, db, "user-1")
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	created, _, err := repo.CreateIfAbsent(ctx, testPlan("user-1", start))
	require.NoError(t, err)

	found, err := repo.FindByPeriod(ctx, "user-1", period.Monthly, start)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.Id, found.Id)

	missing, err := repo.FindByPeriod(ctx, "user-1", period.Weekly, start)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_UpdateSwitchFields(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	insertTestUser(t, db, "user-1")
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	created, _, err := repo.CreateIfAbsent(ctx, testPlan("user-1", start))
	require.NoError(t, err)

	newAnchor := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	newEnd := start.AddDate(0, 0, 7)
	updated, err := repo.UpdateSwitchFields(ctx, created.Id, currency.KRW, newAnchor, newEnd)
	require.NoError(t, err)

	assert.Equal(t, currency.KRW, updated.Currency)
	assert.True(t, updated.PeriodAnchor.Equal(newAnchor))
	require.NotNil(t, updated.PeriodEnd)
	assert.True(t, updated.PeriodEnd.Equal(newEnd))
	// The identity key is untouched.
	assert.True(t, updated.PeriodStart.Equal(start))

	_, err = repo.UpdateSwitchFields(ctx, "missing", currency.KRW, newAnchor, newEnd)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestRepository_BudgetGoals(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	insertTestUser(t, db, "user-1")
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	p, _, err := repo.CreateIfAbsent(ctx, testPlan("user-1", start))
	require.NoError(t, err)

	require.NoError(t, repo.CreateBudgetGoals(ctx, p.Id, []BudgetGoal{
		{Category: " Groceries ", LimitMinor: 60000},
		{Category: "rent", LimitMinor: 200000},
		{Category: "ignored", LimitMinor: 0},
	}))

	goals, err := repo.ListBudgetGoals(ctx, p.Id)
	require.NoError(t, err)
	// Categories come back canonical and sorted; the zero-limit goal was skipped.
	assert.Equal(t, []BudgetGoal{
		{Category: "groceries", LimitMinor: 60000},
		{Category: "rent", LimitMinor: 200000},
	}, goals)

	t.Run("upsert overwrites by canonical category", func(t *testing.T) {
		require.NoError(t, repo.UpsertBudgetGoal(ctx, p.Id, BudgetGoal{Category: "GROCERIES", LimitMinor: 75000}))
		goals, err := repo.ListBudgetGoals(ctx, p.Id)
		require.NoError(t, err)
		require.Len(t, goals, 2)
		assert.Equal(t, int64(75000), goals[0].LimitMinor)
	})

	t.Run("upsert with non-positive limit deletes", func(t *testing.T) {
		require.NoError(t, repo.UpsertBudgetGoal(ctx, p.Id, BudgetGoal{Category: "groceries", LimitMinor: 0}))
		goals, err := repo.ListBudgetGoals(ctx, p.Id)
		require.NoError(t, err)
		require.Len(t, goals, 1)
		assert.Equal(t, "rent", goals[0].Category)
	})
}

func TestRepository_SavingsGoals(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	insertTestUser(t, db, "user-1")
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	p, _, err := repo.CreateIfAbsent(ctx, testPlan("user-1", start))
	require.NoError(t, err)

	require.NoError(t, repo.CreateSavingsGoals(ctx, p.Id, []SavingsGoal{
		{Name: "Emergency fund", TargetMinor: 100000},
	}))
	require.NoError(t, repo.UpsertSavingsGoal(ctx, p.Id, SavingsGoal{Name: "Emergency fund", TargetMinor: 150000}))

	goals, err := repo.ListSavingsGoals(ctx, p.Id)
	require.NoError(t, err)
	assert.Equal(t, []SavingsGoal{{Name: "Emergency fund", TargetMinor: 150000}}, goals)

	require.NoError(t, repo.DeleteGoals(ctx, p.Id))
	goals, err = repo.ListSavingsGoals(ctx, p.Id)
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestRepository_SetUserActivePlan(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	insertTestUser(t, db, "user-1")
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	p, _, err := repo.CreateIfAbsent(ctx, testPlan("user-1", start))
	require.NoError(t, err)
	require.NoError(t, repo.SetUserActivePlan(ctx, "user-1", p.Id))

	var activePlanId sql.NullString
	require.NoError(t, db.QueryRow(`SELECT active_plan_id FROM users WHERE id = $1`, "user-1").Scan(&activePlanId))
	require.True(t, activePlanId.Valid)
	assert.Equal(t, p.Id, activePlanId.String)
}

func TestRepository_WithTransaction(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	insertTestUser(t, db, "user-1")
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	t.Run("rolls back on error", func(t *testing.T) {
		sentinel := errors.New("boom")
		err := repo.WithTransaction(ctx, func(txRepo Repository) error {
			_, _, err := txRepo.CreateIfAbsent(ctx, testPlan("user-1", start))
			require.NoError(t, err)
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)

		found, err := repo.FindByPeriod(ctx, "user-1", period.Monthly, start)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("commits on success and supports nesting", func(t *testing.T) {
		var planId string
		err := repo.WithTransaction(ctx, func(txRepo Repository) error {
			return txRepo.WithTransaction(ctx, func(inner Repository) error {
				p, _, err := inner.CreateIfAbsent(ctx, testPlan("user-1", start))
				planId = p.Id
				return err
			})
		})
		require.NoError(t, err)

		got, err := repo.GetPlan(ctx, "user-1", planId)
		require.NoError(t, err)
		assert.Equal(t, planId, got.Id)
	})
}
