package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
)

// Repository is the transactional storage port for plans and their goals.
// Every multi-row mutation of one logical operation (a rollover run, a switch)
// must happen inside a single WithTransaction call so partial state is never
// visible to concurrent readers.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	GetPlan(ctx context.Context, userId string, planId string) (Plan, error)
	// FindByPeriod looks a plan up by its natural key. Returns nil when no
	// plan exists for that period.
	FindByPeriod(ctx context.Context, userId string, periodType period.Type, periodStart time.Time) (*Plan, error)
	// CreateIfAbsent inserts p unless a plan with the same natural key already
	// exists, in which case the existing row is returned. The bool reports
	// whether this call created the row. Losing a concurrent creation race is
	// not an error.
	CreateIfAbsent(ctx context.Context, p Plan) (Plan, bool, error)
	// UpdateSwitchFields rewrites the mutable fields of an existing plan
	// during a currency/period switch. The period start is the identity key
	// and is never altered.
	UpdateSwitchFields(ctx context.Context, planId string, cur currency.Code, anchor time.Time, end time.Time) (Plan, error)
	SetTotalBudgetLimit(ctx context.Context, planId string, limitMinor int64) error
	ListBudgetGoals(ctx context.Context, planId string) ([]BudgetGoal, error)
	ListSavingsGoals(ctx context.Context, planId string) ([]SavingsGoal, error)
	CreateBudgetGoals(ctx context.Context, planId string, goals []BudgetGoal) error
	CreateSavingsGoals(ctx context.Context, planId string, goals []SavingsGoal) error
	// UpsertBudgetGoal stores the goal by its canonical category; a limit <= 0
	// deletes the goal instead.
	UpsertBudgetGoal(ctx context.Context, planId string, goal BudgetGoal) error
	UpsertSavingsGoal(ctx context.Context, planId string, goal SavingsGoal) error
	// DeleteGoals removes every budget and savings goal of the plan.
	DeleteGoals(ctx context.Context, planId string) error
	// SetUserActivePlan points the user's active-plan reference at planId.
	SetUserActivePlan(ctx context.Context, userId string, planId string) error
}

type repositoryImpl struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repositoryImpl{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repositoryImpl) q() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		// Already inside a transaction, reuse it.
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&repositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const planColumns = `id, user_id, period_type, period_anchor, period_start, period_end, currency, language, total_budget_limit_minor, created_at`

func (r *repositoryImpl) GetPlan(ctx context.Context, userId string, planId string) (Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1 AND user_id = $2`
	p, err := scanPlan(r.q().QueryRowContext(ctx, query, planId, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, ErrPlanNotFound
		}
		return Plan{}, fmt.Errorf("could not get plan: %w", err)
	}
	return p, nil
}

func (r *repositoryImpl) FindByPeriod(ctx context.Context, userId string, periodType period.Type, periodStart time.Time) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE user_id = $1 AND period_type = $2 AND period_start = $3`
	p, err := scanPlan(r.q().QueryRowContext(ctx, query, userId, string(periodType), periodStart.UnixMilli()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not find plan by period: %w", err)
	}
	return &p, nil
}

func (r *repositoryImpl) CreateIfAbsent(ctx context.Context, p Plan) (Plan, bool, error) {
	if p.Id == "" {
		p.Id = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	var end any
	if p.PeriodEnd != nil {
		end = p.PeriodEnd.UnixMilli()
	}
	query := `INSERT INTO plans (` + planColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (user_id, period_type, period_start) DO NOTHING
				RETURNING id`
	var insertedId string
	err := r.q().QueryRowContext(ctx, query,
		p.Id,
		p.UserId,
		string(p.PeriodType),
		p.PeriodAnchor.UnixMilli(),
		p.PeriodStart.UnixMilli(),
		end,
		string(p.Currency),
		p.Language,
		p.TotalBudgetLimitMinor,
		p.CreatedAt.UnixMilli(),
	).Scan(&insertedId)
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Plan{}, false, fmt.Errorf("could not create plan: %w", err)
	}

	// Lost the race (or the plan already existed): fetch the winner's row.
	existing, err := r.FindByPeriod(ctx, p.UserId, p.PeriodType, p.PeriodStart)
	if err != nil {
		return Plan{}, false, err
	}
	if existing == nil {
		return Plan{}, false, fmt.Errorf("plan for %s/%s vanished after conflict", p.PeriodType, p.PeriodStart)
	}
	return *existing, false, nil
}

func (r *repositoryImpl) UpdateSwitchFields(ctx context.Context, planId string, cur currency.Code, anchor time.Time, end time.Time) (Plan, error) {
	query := `UPDATE plans SET currency = $1, period_anchor = $2, period_end = $3
				WHERE id = $4
				RETURNING ` + planColumns
	p, err := scanPlan(r.q().QueryRowContext(ctx, query, string(cur), anchor.UnixMilli(), end.UnixMilli(), planId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, ErrPlanNotFound
		}
		return Plan{}, fmt.Errorf("could not update plan: %w", err)
	}
	return p, nil
}

func (r *repositoryImpl) SetTotalBudgetLimit(ctx context.Context, planId string, limitMinor int64) error {
	query := `UPDATE plans SET total_budget_limit_minor = $1 WHERE id = $2`
	if _, err := r.q().ExecContext(ctx, query, limitMinor, planId); err != nil {
		return fmt.Errorf("could not update total budget limit: %w", err)
	}
	return nil
}

func (r *repositoryImpl) ListBudgetGoals(ctx context.Context, planId string) ([]BudgetGoal, error) {
	query := `SELECT category, limit_minor FROM budget_goals WHERE plan_id = $1 ORDER BY category`
	rows, err := r.q().QueryContext(ctx, query, planId)
	if err != nil {
		return nil, fmt.Errorf("could not list budget goals: %w", err)
	}
	defer rows.Close()

	var goals []BudgetGoal
	for rows.Next() {
		var g BudgetGoal
		if err := rows.Scan(&g.Category, &g.LimitMinor); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *repositoryImpl) ListSavingsGoals(ctx context.Context, planId string) ([]SavingsGoal, error) {
	query := `SELECT name, target_minor FROM savings_goals WHERE plan_id = $1 ORDER BY name`
	rows, err := r.q().QueryContext(ctx, query, planId)
	if err != nil {
		return nil, fmt.Errorf("could not list savings goals: %w", err)
	}
	defer rows.Close()

	var goals []SavingsGoal
	for rows.Next() {
		var g SavingsGoal
		if err := rows.Scan(&g.Name, &g.TargetMinor); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *repositoryImpl) CreateBudgetGoals(ctx context.Context, planId string, goals []BudgetGoal) error {
	query := `INSERT INTO budget_goals (plan_id, category, limit_minor) VALUES ($1, $2, $3)`
	for _, g := range goals {
		if g.LimitMinor <= 0 {
			continue
		}
		if _, err := r.q().ExecContext(ctx, query, planId, NormalizeCategory(g.Category), g.LimitMinor); err != nil {
			return fmt.Errorf("could not create budget goal %q: %w", g.Category, err)
		}
	}
	return nil
}

func (r *repositoryImpl) CreateSavingsGoals(ctx context.Context, planId string, goals []SavingsGoal) error {
	query := `INSERT INTO savings_goals (plan_id, name, target_minor) VALUES ($1, $2, $3)`
	for _, g := range goals {
		if _, err := r.q().ExecContext(ctx, query, planId, g.Name, g.TargetMinor); err != nil {
			return fmt.Errorf("could not create savings goal %q: %w", g.Name, err)
		}
	}
	return nil
}

func (r *repositoryImpl) UpsertBudgetGoal(ctx context.Context, planId string, goal BudgetGoal) error {
	category := NormalizeCategory(goal.Category)
	if goal.LimitMinor <= 0 {
		query := `DELETE FROM budget_goals WHERE plan_id = $1 AND category = $2`
		if _, err := r.q().ExecContext(ctx, query, planId, category); err != nil {
			return fmt.Errorf("could not delete budget goal %q: %w", category, err)
		}
		return nil
	}
	query := `INSERT INTO budget_goals (plan_id, category, limit_minor) VALUES ($1, $2, $3)
				ON CONFLICT (plan_id, category) DO UPDATE SET limit_minor = excluded.limit_minor`
	if _, err := r.q().ExecContext(ctx, query, planId, category, goal.LimitMinor); err != nil {
		return fmt.Errorf("could not upsert budget goal %q: %w", category, err)
	}
	return nil
}

func (r *repositoryImpl) UpsertSavingsGoal(ctx context.Context, planId string, goal SavingsGoal) error {
	query := `INSERT INTO savings_goals (plan_id, name, target_minor) VALUES ($1, $2, $3)
				ON CONFLICT (plan_id, name) DO UPDATE SET target_minor = excluded.target_minor`
	if _, err := r.q().ExecContext(ctx, query, planId, goal.Name, goal.TargetMinor); err != nil {
		return fmt.Errorf("could not upsert savings goal %q: %w", goal.Name, err)
	}
	return nil
}

func (r *repositoryImpl) DeleteGoals(ctx context.Context, planId string) error {
	if _, err := r.q().ExecContext(ctx, `DELETE FROM budget_goals WHERE plan_id = $1`, planId); err != nil {
		return fmt.Errorf("could not delete budget goals: %w", err)
	}
	if _, err := r.q().ExecContext(ctx, `DELETE FROM savings_goals WHERE plan_id = $1`, planId); err != nil {
		return fmt.Errorf("could not delete savings goals: %w", err)
	}
	return nil
}

func (r *repositoryImpl) SetUserActivePlan(ctx context.Context, userId string, planId string) error {
	query := `UPDATE users SET active_plan_id = $1 WHERE id = $2`
	if _, err := r.q().ExecContext(ctx, query, planId, userId); err != nil {
		return fmt.Errorf("could not set active plan: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (Plan, error) {
	var p Plan
	var periodType, cur string
	var anchorMillis, startMillis, createdMillis int64
	var endMillis sql.NullInt64
	err := row.Scan(
		&p.Id,
		&p.UserId,
		&periodType,
		&anchorMillis,
		&startMillis,
		&endMillis,
		&cur,
		&p.Language,
		&p.TotalBudgetLimitMinor,
		&createdMillis,
	)
	if err != nil {
		return Plan{}, err
	}
	p.PeriodType = period.Type(periodType)
	p.Currency = currency.Code(cur)
	p.PeriodAnchor = time.UnixMilli(anchorMillis).UTC()
	p.PeriodStart = time.UnixMilli(startMillis).UTC()
	p.CreatedAt = time.UnixMilli(createdMillis).UTC()
	if endMillis.Valid {
		end := time.UnixMilli(endMillis.Int64).UTC()
		p.PeriodEnd = &end
	}
	return p, nil
}
