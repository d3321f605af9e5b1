package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repositoryImpl{db: db}
}

const userColumns = `id, display_name, timezone, currency, language, period_type, active_plan_id`

func (r *repositoryImpl) CreateUser(ctx context.Context, u User) (User, error) {
	if u.Id == "" {
		u.Id = uuid.NewString()
	}
	applySettingsDefaults(&u.Settings)

	query := `INSERT INTO users (id, display_name, timezone, currency, language, period_type, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		u.Id,
		u.DisplayName,
		u.Settings.Timezone,
		string(u.Settings.Currency),
		u.Settings.Language,
		string(u.Settings.PeriodType),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return User{}, fmt.Errorf("could not create user: %w", err)
	}
	return u, nil
}

func (r *repositoryImpl) GetUser(ctx context.Context, id string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("could not get user: %w", err)
	}
	return u, nil
}

func (r *repositoryImpl) UpdateUser(ctx context.Context, u User) (User, error) {
	applySettingsDefaults(&u.Settings)
	query := `UPDATE users SET display_name = $1, timezone = $2, currency = $3, language = $4, period_type = $5
				WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query,
		u.DisplayName,
		u.Settings.Timezone,
		string(u.Settings.Currency),
		u.Settings.Language,
		string(u.Settings.PeriodType),
		u.Id,
	)
	if err != nil {
		return User{}, fmt.Errorf("could not update user: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return User{}, ErrUserNotFound
	}
	return r.GetUser(ctx, u.Id)
}

func (r *repositoryImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func applySettingsDefaults(s *Settings) {
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	if s.Currency == "" {
		s.Currency = currency.USD
	}
	if s.Language == "" {
		s.Language = "en"
	}
	if s.PeriodType == "" {
		s.PeriodType = period.Monthly
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var cur, periodType string
	var activePlanId sql.NullString
	err := row.Scan(
		&u.Id,
		&u.DisplayName,
		&u.Settings.Timezone,
		&cur,
		&u.Settings.Language,
		&periodType,
		&activePlanId,
	)
	if err != nil {
		return User{}, err
	}
	u.Settings.Currency = currency.Code(cur)
	u.Settings.PeriodType = period.Type(periodType)
	u.ActivePlanId = activePlanId.String
	return u, nil
}
