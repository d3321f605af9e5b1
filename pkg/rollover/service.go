package rollover

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/internal/event_bus"
	"github.com/finplan/finplan/internal/utils"
	"github.com/finplan/finplan/pkg/period"
	"github.com/finplan/finplan/pkg/plan"
	"github.com/finplan/finplan/pkg/user"
)

// maxPeriodsPerRun bounds one rollover run. A plan that is further behind than
// this advances incrementally across runs; hitting the bound usually means a
// misconfigured period definition and is logged as an anomaly.
const maxPeriodsPerRun = 36

const (
	ReasonStillActive    = "plan still active"
	ReasonIterationLimit = "iteration limit reached"
)

type Result struct {
	Rolled       bool
	CreatedCount int
	ActivePlan   *plan.Plan
	Reason       string
}

type Service interface {
	// Rollover advances the current user's active plan through every elapsed
	// period boundary up to now, creating each missing period exactly once and
	// pointing the user's active plan at the period containing now.
	Rollover(ctx context.Context) (Result, error)
	// RolloverAll runs Rollover for every known user. Used by the background job.
	RolloverAll(ctx context.Context) error
}

type ServiceImpl struct {
	planRepo plan.Repository
	users    user.Service
	clock    utils.Clock
	eventBus *event_bus.EventBus
}

func NewService(planRepo plan.Repository, users user.Service, clock utils.Clock, eventBus *event_bus.EventBus) Service {
	return &ServiceImpl{planRepo: planRepo, users: users, clock: clock, eventBus: eventBus}
}

func (s *ServiceImpl) Rollover(ctx context.Context) (Result, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if u.ActivePlanId == "" {
		return Result{}, plan.ErrNoActivePlan
	}

	active, err := s.planRepo.GetPlan(ctx, u.Id, u.ActivePlanId)
	if err != nil {
		return Result{}, err
	}

	loc := period.ResolveLocation(u.Settings.Timezone)
	now := s.clock.Now()

	currentEnd := period.EnsureEnd(active.PeriodStart, active.PeriodEnd, active.PeriodType, loc)
	if currentEnd.After(now) {
		return Result{Rolled: false, ActivePlan: &active, Reason: ReasonStillActive}, nil
	}

	var result Result
	err = s.planRepo.WithTransaction(ctx, func(repo plan.Repository) error {
		// Goals are always copied from the plan the user was on, not from the
		// intermediate periods created along the way.
		budgetGoals, err := repo.ListBudgetGoals(ctx, active.Id)
		if err != nil {
			return err
		}
		savingsGoals, err := repo.ListSavingsGoals(ctx, active.Id)
		if err != nil {
			return err
		}

		last := active
		created := 0
		nextStart := currentEnd
		caughtUp := false

		for i := 0; i < maxPeriodsPerRun; i++ {
			nextEnd := period.NextStart(nextStart, active.PeriodType, loc)
			candidate := plan.Plan{
				UserId:                active.UserId,
				PeriodType:            active.PeriodType,
				PeriodAnchor:          active.PeriodAnchor,
				PeriodStart:           nextStart,
				PeriodEnd:             &nextEnd,
				Currency:              active.Currency,
				Language:              active.Language,
				TotalBudgetLimitMinor: active.TotalBudgetLimitMinor,
			}
			obtained, wasCreated, err := repo.CreateIfAbsent(ctx, candidate)
			if err != nil {
				return err
			}
			if wasCreated {
				// Only the creator seeds goals; a racer that re-fetched the
				// row must not duplicate them.
				if err := repo.CreateBudgetGoals(ctx, obtained.Id, budgetGoals); err != nil {
					return err
				}
				if err := repo.CreateSavingsGoals(ctx, obtained.Id, savingsGoals); err != nil {
					return err
				}
				created++
			}

			last = obtained
			// Prefer the persisted end of the row just obtained, in case an
			// earlier writer stored a different boundary.
			obtainedEnd := period.EnsureEnd(obtained.PeriodStart, obtained.PeriodEnd, obtained.PeriodType, loc)
			nextStart = obtainedEnd
			if obtainedEnd.After(now) {
				caughtUp = true
				break
			}
		}

		if err := repo.SetUserActivePlan(ctx, u.Id, last.Id); err != nil {
			return err
		}

		result = Result{Rolled: true, CreatedCount: created, ActivePlan: &last}
		if !caughtUp {
			// Commit the progress made rather than looping forever; the
			// caller should treat this as a reportable anomaly.
			result.Reason = ReasonIterationLimit
			log.Warnf("rollover for user %s stopped after %d periods without reaching now", u.Id, maxPeriodsPerRun)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if result.CreatedCount > 0 {
		publishErr := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.PlanRolledOverEvent, event_bus.PlanRolledOver{
			UserId:       u.Id,
			PlanId:       result.ActivePlan.Id,
			PeriodType:   string(result.ActivePlan.PeriodType),
			PeriodStart:  result.ActivePlan.PeriodStart,
			CreatedCount: result.CreatedCount,
		}))
		if publishErr != nil {
			log.Errorf("failed to publish rollover event: %v", publishErr)
		}
	}

	return result, nil
}

func (s *ServiceImpl) RolloverAll(ctx context.Context) error {
	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var failures int
	for _, u := range users {
		if u.ActivePlanId == "" {
			continue
		}
		res, err := s.Rollover(user.WithUser(ctx, u))
		if err != nil {
			failures++
			log.Errorf("rollover failed for user %s: %v", u.Id, err)
			continue
		}
		if res.Rolled {
			log.Infof("rolled user %s forward: %d new periods, active plan %s", u.Id, res.CreatedCount, res.ActivePlan.Id)
		}
	}
	if failures > 0 {
		return fmt.Errorf("rollover failed for %d user(s)", failures)
	}
	return nil
}
