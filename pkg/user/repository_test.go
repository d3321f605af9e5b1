package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finplan/finplan/internal/test_utils"
	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
	"github.com/finplan/finplan/pkg/user"
)

func TestRepository_CreateAndGetUser(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := user.NewRepository(db)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, user.User{
		DisplayName: "Jamie",
		Settings: user.Settings{
			Timezone:   "Asia/Seoul",
			Currency:   currency.KRW,
			Language:   "ko",
			PeriodType: period.Weekly,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.Id)

	got, err := repo.GetUser(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Jamie", got.DisplayName)
	assert.Equal(t, "Asia/Seoul", got.Settings.Timezone)
	assert.Equal(t, currency.KRW, got.Settings.Currency)
	assert.Equal(t, period.Weekly, got.Settings.PeriodType)
	assert.Empty(t, got.ActivePlanId)
}

func TestRepository_CreateUserAppliesDefaults(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := user.NewRepository(db)

	created, err := repo.CreateUser(context.Background(), user.User{DisplayName: "Minimal"})
	require.NoError(t, err)

	assert.Equal(t, "UTC", created.Settings.Timezone)
	assert.Equal(t, currency.USD, created.Settings.Currency)
	assert.Equal(t, "en", created.Settings.Language)
	assert.Equal(t, period.Monthly, created.Settings.PeriodType)
}

func TestRepository_GetUser_NotFound(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := user.NewRepository(db)

	_, err := repo.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRepository_UpdateUser(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := user.NewRepository(db)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, user.User{DisplayName: "Before"})
	require.NoError(t, err)

	created.DisplayName = "After"
	created.Settings.PeriodType = period.Biweekly
	updated, err := repo.UpdateUser(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.DisplayName)
	assert.Equal(t, period.Biweekly, updated.Settings.PeriodType)

	_, err = repo.UpdateUser(ctx, user.User{Id: "missing", DisplayName: "Nobody"})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRepository_GetAllUsers(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := user.NewRepository(db)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, user.User{Id: "a", DisplayName: "A"})
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, user.User{Id: "b", DisplayName: "B"})
	require.NoError(t, err)

	users, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].Id)
	assert.Equal(t, "b", users[1].Id)
}
