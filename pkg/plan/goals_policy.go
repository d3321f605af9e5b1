package plan

import (
	"github.com/shopspring/decimal"

	"github.com/finplan/finplan/pkg/currency"
)

// GoalsPayload is the value-only result of carrying goals onto a new plan.
// Persisting it is the caller's job.
type GoalsPayload struct {
	TotalLimitMinor int64
	BudgetGoals     []BudgetGoal
	SavingsGoals    []SavingsGoal
}

// TransferGoals produces the goal amounts for a plan switching from one
// currency to another under the given mode. GoalsResetEmpty yields a zero
// total and no goals regardless of the other inputs. GoalsCopyAsIs copies
// every amount unchanged even when the currencies differ. GoalsConvertUsingFx
// converts every amount through currency.ConvertMinor, which degrades to an
// unconverted copy when the rate is missing or the pair unsupported. Pure,
// never fails.
func TransferGoals(active PlanWithGoals, from, to currency.Code, fxRate decimal.Decimal, mode GoalsMode) GoalsPayload {
	if mode == GoalsResetEmpty {
		return GoalsPayload{}
	}

	convert := func(amount int64) int64 { return amount }
	if mode == GoalsConvertUsingFx {
		convert = func(amount int64) int64 {
			return currency.ConvertMinor(amount, from, to, fxRate)
		}
	}

	payload := GoalsPayload{
		TotalLimitMinor: convert(active.TotalBudgetLimitMinor),
		BudgetGoals:     make([]BudgetGoal, 0, len(active.BudgetGoals)),
		SavingsGoals:    make([]SavingsGoal, 0, len(active.SavingsGoals)),
	}
	for _, goal := range active.BudgetGoals {
		payload.BudgetGoals = append(payload.BudgetGoals, BudgetGoal{
			Category:   NormalizeCategory(goal.Category),
			LimitMinor: convert(goal.LimitMinor),
		})
	}
	for _, goal := range active.SavingsGoals {
		payload.SavingsGoals = append(payload.SavingsGoals, SavingsGoal{
			Name:        goal.Name,
			TargetMinor: convert(goal.TargetMinor),
		})
	}
	return payload
}
