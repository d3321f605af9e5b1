package plan

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/internal/utils"
	"github.com/finplan/finplan/pkg/period"
	"github.com/finplan/finplan/pkg/user"
)

type Service interface {
	// GetCurrentPlan returns the user's active plan with its goals, creating
	// the first plan (anchored at its own start) on first access.
	GetCurrentPlan(ctx context.Context) (PlanWithGoals, error)
	// GetPlan returns one of the current user's plans with its goals.
	GetPlan(ctx context.Context, planId string) (PlanWithGoals, error)
	SetTotalBudgetLimit(ctx context.Context, limitMinor int64) (PlanWithGoals, error)
	UpsertBudgetGoal(ctx context.Context, category string, limitMinor int64) (PlanWithGoals, error)
	UpsertSavingsGoal(ctx context.Context, name string, targetMinor int64) (PlanWithGoals, error)
}

type ServiceImpl struct {
	repo  Repository
	clock utils.Clock
}

func NewService(repo Repository, clock utils.Clock) Service {
	return &ServiceImpl{repo: repo, clock: clock}
}

func (s *ServiceImpl) GetCurrentPlan(ctx context.Context) (PlanWithGoals, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return PlanWithGoals{}, fmt.Errorf("failed to get current user: %w", err)
	}

	if u.ActivePlanId != "" {
		p, err := s.repo.GetPlan(ctx, u.Id, u.ActivePlanId)
		if err != nil {
			return PlanWithGoals{}, err
		}
		return s.withGoals(ctx, p)
	}

	return s.createInitialPlan(ctx, u)
}

func (s *ServiceImpl) GetPlan(ctx context.Context, planId string) (PlanWithGoals, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return PlanWithGoals{}, fmt.Errorf("failed to get current user: %w", err)
	}
	p, err := s.repo.GetPlan(ctx, userId, planId)
	if err != nil {
		return PlanWithGoals{}, err
	}
	return s.withGoals(ctx, p)
}

func (s *ServiceImpl) createInitialPlan(ctx context.Context, u user.User) (PlanWithGoals, error) {
	pt := u.Settings.PeriodType
	if !pt.Valid() {
		pt = period.Monthly
	}
	loc := period.ResolveLocation(u.Settings.Timezone)
	now := s.clock.Now()

	// The first plan anchors the period phase at its own start.
	start := period.StartOf(now, pt, loc, now)
	end := period.NextStart(start, pt, loc)

	candidate := Plan{
		UserId:       u.Id,
		PeriodType:   pt,
		PeriodAnchor: start,
		PeriodStart:  start,
		PeriodEnd:    &end,
		Currency:     u.Settings.Currency,
		Language:     u.Settings.Language,
	}

	var obtained Plan
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		var created bool
		var err error
		obtained, created, err = repo.CreateIfAbsent(ctx, candidate)
		if err != nil {
			return err
		}
		if created {
			log.Infof("created initial %s plan %s for user %s", pt, obtained.Id, u.Id)
		}
		return repo.SetUserActivePlan(ctx, u.Id, obtained.Id)
	})
	if err != nil {
		return PlanWithGoals{}, err
	}
	return s.withGoals(ctx, obtained)
}

func (s *ServiceImpl) SetTotalBudgetLimit(ctx context.Context, limitMinor int64) (PlanWithGoals, error) {
	p, err := s.activePlan(ctx)
	if err != nil {
		return PlanWithGoals{}, err
	}
	if err := s.repo.SetTotalBudgetLimit(ctx, p.Id, limitMinor); err != nil {
		return PlanWithGoals{}, err
	}
	p.TotalBudgetLimitMinor = limitMinor
	return s.withGoals(ctx, p)
}

func (s *ServiceImpl) UpsertBudgetGoal(ctx context.Context, category string, limitMinor int64) (PlanWithGoals, error) {
	p, err := s.activePlan(ctx)
	if err != nil {
		return PlanWithGoals{}, err
	}
	if err := s.repo.UpsertBudgetGoal(ctx, p.Id, BudgetGoal{Category: category, LimitMinor: limitMinor}); err != nil {
		return PlanWithGoals{}, err
	}
	return s.withGoals(ctx, p)
}

func (s *ServiceImpl) UpsertSavingsGoal(ctx context.Context, name string, targetMinor int64) (PlanWithGoals, error) {
	p, err := s.activePlan(ctx)
	if err != nil {
		return PlanWithGoals{}, err
	}
	if err := s.repo.UpsertSavingsGoal(ctx, p.Id, SavingsGoal{Name: name, TargetMinor: targetMinor}); err != nil {
		return PlanWithGoals{}, err
	}
	return s.withGoals(ctx, p)
}

func (s *ServiceImpl) activePlan(ctx context.Context) (Plan, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if u.ActivePlanId == "" {
		return Plan{}, ErrNoActivePlan
	}
	return s.repo.GetPlan(ctx, u.Id, u.ActivePlanId)
}

func (s *ServiceImpl) withGoals(ctx context.Context, p Plan) (PlanWithGoals, error) {
	budgetGoals, err := s.repo.ListBudgetGoals(ctx, p.Id)
	if err != nil {
		return PlanWithGoals{}, err
	}
	savingsGoals, err := s.repo.ListSavingsGoals(ctx, p.Id)
	if err != nil {
		return PlanWithGoals{}, err
	}
	return PlanWithGoals{Plan: p, BudgetGoals: budgetGoals, SavingsGoals: savingsGoals}, nil
}
