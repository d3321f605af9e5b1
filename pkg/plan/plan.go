package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
)

var ErrPlanNotFound = errors.New("plan not found")
var ErrNoActivePlan = errors.New("user has no active plan")

// Plan is one concrete period instance of a user's budget. Exactly one plan
// exists per (user, period type, period start); that triple is the natural key
// guarding against duplicate creation under concurrent rollover.
type Plan struct {
	Id         string
	UserId     string
	PeriodType period.Type
	// PeriodAnchor fixes the phase of period boundaries (which weekday a
	// weekly period starts on, which day of month a monthly one starts on).
	// It is carried forward unchanged across rollovers and switches.
	PeriodAnchor time.Time
	PeriodStart  time.Time
	// PeriodEnd is nil on rows persisted before the end instant was stored.
	// Use period.EnsureEnd to read it.
	PeriodEnd             *time.Time
	Currency              currency.Code
	Language              string
	TotalBudgetLimitMinor int64
	CreatedAt             time.Time
}

// BudgetGoal is a per-category spending limit on one plan. Category is stored
// in canonical form (lower-cased, trimmed); a limit <= 0 means no goal.
type BudgetGoal struct {
	Category   string
	LimitMinor int64
}

// SavingsGoal is a named savings target on one plan.
type SavingsGoal struct {
	Name        string
	TargetMinor int64
}

type PlanWithGoals struct {
	Plan
	BudgetGoals  []BudgetGoal
	SavingsGoals []SavingsGoal
}

// GoalsMode selects how goal amounts are carried onto a new plan.
type GoalsMode string

const (
	GoalsResetEmpty     GoalsMode = "RESET_EMPTY"
	GoalsCopyAsIs       GoalsMode = "COPY_AS_IS"
	GoalsConvertUsingFx GoalsMode = "CONVERT_USING_FX"
)

func ParseGoalsMode(s string) (GoalsMode, error) {
	switch GoalsMode(strings.ToUpper(strings.TrimSpace(s))) {
	case GoalsResetEmpty:
		return GoalsResetEmpty, nil
	case GoalsCopyAsIs:
		return GoalsCopyAsIs, nil
	case GoalsConvertUsingFx:
		return GoalsConvertUsingFx, nil
	}
	return "", fmt.Errorf("unknown goals mode: %q", s)
}

// NormalizeCategory returns the canonical budget goal category key.
func NormalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
