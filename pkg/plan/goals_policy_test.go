package plan

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/finplan/finplan/pkg/currency"
)

func transferFixture() PlanWithGoals {
	return PlanWithGoals{
		Plan: Plan{TotalBudgetLimitMinor: 500000, Currency: currency.USD},
		BudgetGoals: []BudgetGoal{
			{Category: " Groceries ", LimitMinor: 60000},
			{Category: "rent", LimitMinor: 200000},
		},
		SavingsGoals: []SavingsGoal{
			{Name: "Emergency fund", TargetMinor: 100000},
		},
	}
}

func TestTransferGoals(t *testing.T) {
	rate := decimal.NewFromInt(1300)

	t.Run("reset empty drops every goal and zeroes the total", func(t *testing.T) {
		payload := TransferGoals(transferFixture(), currency.USD, currency.KRW, rate, GoalsResetEmpty)
		assert.Zero(t, payload.TotalLimitMinor)
		assert.Empty(t, payload.BudgetGoals)
		assert.Empty(t, payload.SavingsGoals)
	})

	t.Run("copy as is keeps amounts even across currencies", func(t *testing.T) {
		payload := TransferGoals(transferFixture(), currency.USD, currency.KRW, rate, GoalsCopyAsIs)
		assert.Equal(t, int64(500000), payload.TotalLimitMinor)
		assert.Equal(t, []BudgetGoal{
			{Category: "groceries", LimitMinor: 60000},
			{Category: "rent", LimitMinor: 200000},
		}, payload.BudgetGoals)
		assert.Equal(t, []SavingsGoal{
			{Name: "Emergency fund", TargetMinor: 100000},
		}, payload.SavingsGoals)
	})

	t.Run("convert using fx converts every amount", func(t *testing.T) {
		payload := TransferGoals(transferFixture(), currency.USD, currency.KRW, rate, GoalsConvertUsingFx)
		assert.Equal(t, int64(6500000), payload.TotalLimitMinor)
		assert.Equal(t, []BudgetGoal{
			{Category: "groceries", LimitMinor: 780000},
			{Category: "rent", LimitMinor: 2600000},
		}, payload.BudgetGoals)
		assert.Equal(t, []SavingsGoal{
			{Name: "Emergency fund", TargetMinor: 1300000},
		}, payload.SavingsGoals)
	})

	t.Run("convert with a missing rate degrades to a plain copy", func(t *testing.T) {
		payload := TransferGoals(transferFixture(), currency.USD, currency.KRW, decimal.Zero, GoalsConvertUsingFx)
		assert.Equal(t, int64(500000), payload.TotalLimitMinor)
		assert.Equal(t, int64(60000), payload.BudgetGoals[0].LimitMinor)
	})
}
