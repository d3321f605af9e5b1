package plan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
)

// RepositoryStub is an in-memory Repository for tests. Transactions are
// serialized on a single lock, which mirrors the isolation the real store
// provides, and roll the whole state back on error.
type RepositoryStub struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	plans        map[string]Plan                  // planId -> plan
	budgetGoals  map[string]map[string]BudgetGoal // planId -> category -> goal
	savingsGoals map[string]map[string]SavingsGoal
	activePlans  map[string]string // userId -> planId
}

func NewRepositoryStub() *RepositoryStub {
	r := &RepositoryStub{}
	r.Reset()
	return r
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = make(map[string]Plan)
	r.budgetGoals = make(map[string]map[string]BudgetGoal)
	r.savingsGoals = make(map[string]map[string]SavingsGoal)
	r.activePlans = make(map[string]string)
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.restoreLocked(snapshot)
		r.mu.Unlock()
		return err
	}
	return nil
}

type stubSnapshot struct {
	plans        map[string]Plan
	budgetGoals  map[string]map[string]BudgetGoal
	savingsGoals map[string]map[string]SavingsGoal
	activePlans  map[string]string
}

func (r *RepositoryStub) snapshotLocked() stubSnapshot {
	s := stubSnapshot{
		plans:        make(map[string]Plan, len(r.plans)),
		budgetGoals:  make(map[string]map[string]BudgetGoal, len(r.budgetGoals)),
		savingsGoals: make(map[string]map[string]SavingsGoal, len(r.savingsGoals)),
		activePlans:  make(map[string]string, len(r.activePlans)),
	}
	for k, v := range r.plans {
		s.plans[k] = v
	}
	for planId, goals := range r.budgetGoals {
		inner := make(map[string]BudgetGoal, len(goals))
		for k, v := range goals {
			inner[k] = v
		}
		s.budgetGoals[planId] = inner
	}
	for planId, goals := range r.savingsGoals {
		inner := make(map[string]SavingsGoal, len(goals))
		for k, v := range goals {
			inner[k] = v
		}
		s.savingsGoals[planId] = inner
	}
	for k, v := range r.activePlans {
		s.activePlans[k] = v
	}
	return s
}

func (r *RepositoryStub) restoreLocked(s stubSnapshot) {
	r.plans = s.plans
	r.budgetGoals = s.budgetGoals
	r.savingsGoals = s.savingsGoals
	r.activePlans = s.activePlans
}

func (r *RepositoryStub) GetPlan(ctx context.Context, userId string, planId string) (Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[planId]
	if !ok || p.UserId != userId {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

func (r *RepositoryStub) FindByPeriod(ctx context.Context, userId string, periodType period.Type, periodStart time.Time) (*Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByPeriodLocked(userId, periodType, periodStart), nil
}

func (r *RepositoryStub) findByPeriodLocked(userId string, periodType period.Type, periodStart time.Time) *Plan {
	for _, p := range r.plans {
		if p.UserId == userId && p.PeriodType == periodType && p.PeriodStart.Equal(periodStart) {
			found := p
			return &found
		}
	}
	return nil
}

func (r *RepositoryStub) CreateIfAbsent(ctx context.Context, p Plan) (Plan, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.findByPeriodLocked(p.UserId, p.PeriodType, p.PeriodStart); existing != nil {
		return *existing, false, nil
	}
	if p.Id == "" {
		p.Id = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	r.plans[p.Id] = p
	return p, true, nil
}

func (r *RepositoryStub) UpdateSwitchFields(ctx context.Context, planId string, cur currency.Code, anchor time.Time, end time.Time) (Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[planId]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	p.Currency = cur
	p.PeriodAnchor = anchor
	endCopy := end
	p.PeriodEnd = &endCopy
	r.plans[planId] = p
	return p, nil
}

func (r *RepositoryStub) SetTotalBudgetLimit(ctx context.Context, planId string, limitMinor int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[planId]
	if !ok {
		return ErrPlanNotFound
	}
	p.TotalBudgetLimitMinor = limitMinor
	r.plans[planId] = p
	return nil
}

func (r *RepositoryStub) ListBudgetGoals(ctx context.Context, planId string) ([]BudgetGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var goals []BudgetGoal
	for _, g := range r.budgetGoals[planId] {
		goals = append(goals, g)
	}
	return goals, nil
}

func (r *RepositoryStub) ListSavingsGoals(ctx context.Context, planId string) ([]SavingsGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var goals []SavingsGoal
	for _, g := range r.savingsGoals[planId] {
		goals = append(goals, g)
	}
	return goals, nil
}

func (r *RepositoryStub) CreateBudgetGoals(ctx context.Context, planId string, goals []BudgetGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range goals {
		if g.LimitMinor <= 0 {
			continue
		}
		r.putBudgetGoalLocked(planId, g)
	}
	return nil
}

func (r *RepositoryStub) CreateSavingsGoals(ctx context.Context, planId string, goals []SavingsGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range goals {
		r.putSavingsGoalLocked(planId, g)
	}
	return nil
}

func (r *RepositoryStub) UpsertBudgetGoal(ctx context.Context, planId string, goal BudgetGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	category := NormalizeCategory(goal.Category)
	if goal.LimitMinor <= 0 {
		delete(r.budgetGoals[planId], category)
		return nil
	}
	goal.Category = category
	r.putBudgetGoalLocked(planId, goal)
	return nil
}

func (r *RepositoryStub) UpsertSavingsGoal(ctx context.Context, planId string, goal SavingsGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putSavingsGoalLocked(planId, goal)
	return nil
}

func (r *RepositoryStub) putBudgetGoalLocked(planId string, goal BudgetGoal) {
	if r.budgetGoals[planId] == nil {
		r.budgetGoals[planId] = make(map[string]BudgetGoal)
	}
	goal.Category = NormalizeCategory(goal.Category)
	r.budgetGoals[planId][goal.Category] = goal
}

func (r *RepositoryStub) putSavingsGoalLocked(planId string, goal SavingsGoal) {
	if r.savingsGoals[planId] == nil {
		r.savingsGoals[planId] = make(map[string]SavingsGoal)
	}
	r.savingsGoals[planId][goal.Name] = goal
}

func (r *RepositoryStub) DeleteGoals(ctx context.Context, planId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.budgetGoals, planId)
	delete(r.savingsGoals, planId)
	return nil
}

func (r *RepositoryStub) SetUserActivePlan(ctx context.Context, userId string, planId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activePlans[userId] = planId
	return nil
}

// ActivePlanId returns the stored active-plan pointer for assertions in tests.
func (r *RepositoryStub) ActivePlanId(userId string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activePlans[userId]
}

// PlanCount returns the number of stored plans for assertions in tests.
func (r *RepositoryStub) PlanCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plans)
}
