package user

import (
	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
)

type User struct {
	Id          string
	DisplayName string
	// ActivePlanId points at the plan currently considered "current" for the
	// user; empty until the first plan is created. Rollover and Switch move it.
	ActivePlanId string
	Settings     Settings
}

type Settings struct {
	// Timezone is an IANA identifier; period boundaries are computed in it.
	// Resolution falls back to UTC when absent or invalid.
	Timezone string
	Currency currency.Code
	Language string
	// PeriodType is the cadence used when the user's first plan is created.
	PeriodType period.Type
}
