package plan_switch

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/internal/event_bus"
	"github.com/finplan/finplan/internal/utils"
	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/fxrate"
	"github.com/finplan/finplan/pkg/period"
	"github.com/finplan/finplan/pkg/plan"
	"github.com/finplan/finplan/pkg/user"
)

var ErrInvalidMode = errors.New("invalid switch mode")

type Service interface {
	// Switch moves the current user onto the plan for "now" under the
	// requested period type and/or currency, carrying goals per the goals
	// mode, in one transaction.
	Switch(ctx context.Context, req Request) (plan.PlanWithGoals, error)
}

type ServiceImpl struct {
	planRepo plan.Repository
	fx       fxrate.Provider
	clock    utils.Clock
	eventBus *event_bus.EventBus
}

func NewService(planRepo plan.Repository, fx fxrate.Provider, clock utils.Clock, eventBus *event_bus.EventBus) Service {
	return &ServiceImpl{planRepo: planRepo, fx: fx, clock: clock, eventBus: eventBus}
}

func (s *ServiceImpl) Switch(ctx context.Context, req Request) (plan.PlanWithGoals, error) {
	switch req.Mode {
	case ModePeriodOnly, ModeCurrencyOnly, ModePeriodAndCurrency:
	default:
		return plan.PlanWithGoals{}, ErrInvalidMode
	}

	u, err := user.CurrentUser(ctx)
	if err != nil {
		return plan.PlanWithGoals{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if u.ActivePlanId == "" {
		return plan.PlanWithGoals{}, plan.ErrNoActivePlan
	}

	active, err := s.planRepo.GetPlan(ctx, u.Id, u.ActivePlanId)
	if err != nil {
		return plan.PlanWithGoals{}, err
	}

	targetType, targetCurrency := req.resolveTarget(active)
	loc := period.ResolveLocation(req.Timezone, u.Settings.Timezone)
	now := s.clock.Now()

	// The anchor is carried forward unchanged so weekly/biweekly phase and the
	// monthly start day survive the switch.
	start := period.StartOf(now, targetType, loc, active.PeriodAnchor)
	end := period.NextStart(start, targetType, loc)

	fxRate := s.resolveFxRate(ctx, req, active, targetCurrency)

	var result plan.PlanWithGoals
	err = s.planRepo.WithTransaction(ctx, func(repo plan.Repository) error {
		activeBudgetGoals, err := repo.ListBudgetGoals(ctx, active.Id)
		if err != nil {
			return err
		}
		activeSavingsGoals, err := repo.ListSavingsGoals(ctx, active.Id)
		if err != nil {
			return err
		}
		activeWithGoals := plan.PlanWithGoals{Plan: active, BudgetGoals: activeBudgetGoals, SavingsGoals: activeSavingsGoals}

		candidate := plan.Plan{
			UserId:       u.Id,
			PeriodType:   targetType,
			PeriodAnchor: active.PeriodAnchor,
			PeriodStart:  start,
			PeriodEnd:    &end,
			Currency:     targetCurrency,
			Language:     active.Language,
			// Seed with the active plan's limit; the goals payload below
			// overwrites it unless the target row is reused as-is.
			TotalBudgetLimitMinor: active.TotalBudgetLimitMinor,
		}
		target, created, err := repo.CreateIfAbsent(ctx, candidate)
		if err != nil {
			return err
		}
		if !created {
			// Existing row for this period: refresh the mutable fields. The
			// period start is the identity key and stays untouched.
			target, err = repo.UpdateSwitchFields(ctx, target.Id, targetCurrency, active.PeriodAnchor, end)
			if err != nil {
				return err
			}
		}

		payload := plan.TransferGoals(activeWithGoals, active.Currency, targetCurrency, fxRate, req.GoalsMode)
		if req.GoalsMode == plan.GoalsResetEmpty {
			// Clean slate: a reused target row loses any goals it carried.
			if err := repo.DeleteGoals(ctx, target.Id); err != nil {
				return err
			}
		}
		if err := repo.SetTotalBudgetLimit(ctx, target.Id, payload.TotalLimitMinor); err != nil {
			return err
		}
		target.TotalBudgetLimitMinor = payload.TotalLimitMinor
		for _, g := range payload.BudgetGoals {
			if err := repo.UpsertBudgetGoal(ctx, target.Id, g); err != nil {
				return err
			}
		}
		for _, g := range payload.SavingsGoals {
			if err := repo.UpsertSavingsGoal(ctx, target.Id, g); err != nil {
				return err
			}
		}

		if err := repo.SetUserActivePlan(ctx, u.Id, target.Id); err != nil {
			return err
		}

		budgetGoals, err := repo.ListBudgetGoals(ctx, target.Id)
		if err != nil {
			return err
		}
		savingsGoals, err := repo.ListSavingsGoals(ctx, target.Id)
		if err != nil {
			return err
		}
		result = plan.PlanWithGoals{Plan: target, BudgetGoals: budgetGoals, SavingsGoals: savingsGoals}
		return nil
	})
	if err != nil {
		return plan.PlanWithGoals{}, err
	}

	publishErr := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.PlanSwitchedEvent, event_bus.PlanSwitched{
		UserId:      u.Id,
		PlanId:      result.Id,
		PeriodType:  string(result.PeriodType),
		Currency:    string(result.Currency),
		PeriodStart: result.PeriodStart,
	}))
	if publishErr != nil {
		log.Errorf("failed to publish switch event: %v", publishErr)
	}

	return result, nil
}

// resolveFxRate picks the request's rate when supplied, otherwise asks the
// provider, but only when the goals mode actually converts. An unavailable
// rate is not an error: conversion degrades to an unconverted copy.
func (s *ServiceImpl) resolveFxRate(ctx context.Context, req Request, active plan.Plan, targetCurrency currency.Code) decimal.Decimal {
	if req.FxRate.Sign() > 0 {
		return req.FxRate
	}
	if req.GoalsMode != plan.GoalsConvertUsingFx || active.Currency == targetCurrency {
		return decimal.Zero
	}
	rate, err := s.fx.Rate(ctx, active.Currency, targetCurrency)
	if err != nil {
		log.Warnf("plan_switch: no fx rate for %s->%s, goals will be copied unconverted: %v",
			active.Currency, targetCurrency, err)
		return decimal.Zero
	}
	return rate
}
